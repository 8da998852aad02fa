package cargo

import (
	"fmt"
	"sort"

	"github.com/rohanku/release-please/pkg/logger"
	"github.com/rohanku/release-please/pkg/tomlpatch"
)

// VersionUpdater bumps a manifest's own package.version.
type VersionUpdater struct {
	Version string
	Log     *logger.Logger
}

// NewVersionUpdater creates an own-version updater. log may be nil.
func NewVersionUpdater(version string, log *logger.Logger) *VersionUpdater {
	return &VersionUpdater{Version: version, Log: log}
}

func (u *VersionUpdater) Update(content *string) (*string, error) {
	if content == nil {
		return nil, fmt.Errorf("version update requires existing manifest content")
	}
	doc, err := tomlpatch.Parse(*content)
	if err != nil {
		return nil, err
	}
	// A manifest without [package] is a workspace root; attaching this
	// updater to it is a wiring bug, not a condition to skip.
	if _, ok := doc.Get(tomlpatch.Key("package")); !ok {
		return nil, fmt.Errorf("manifest has no [package] table")
	}
	out, err := tomlpatch.Replace(*content, tomlpatch.Key("package", "version"), u.Version)
	if err != nil {
		return nil, err
	}
	u.Log.Debug("bumped package version", logger.String("version", u.Version))
	return &out, nil
}

// DependencyUpdater rewrites intra-repo dependency versions from a shared
// version map. Only declarations in table form with both an explicit path and
// an explicit version are touched; everything else is a logged skip. Dev
// dependencies receive a "<=" bound instead of an exact pin.
type DependencyUpdater struct {
	// Versions maps package name to its new version. Shared by reference
	// with the orchestrator's version map; never mutated here.
	Versions map[string]string
	Log      *logger.Logger
}

// NewDependencyUpdater creates a dependency-version updater. log may be nil.
func NewDependencyUpdater(versions map[string]string, log *logger.Logger) *DependencyUpdater {
	return &DependencyUpdater{Versions: versions, Log: log}
}

func (u *DependencyUpdater) Update(content *string) (*string, error) {
	if content == nil {
		return nil, fmt.Errorf("dependency update requires existing manifest content")
	}
	text := *content

	names := make([]string, 0, len(u.Versions))
	for name := range u.Versions {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		version := u.Versions[name]
		for _, kind := range DependencyKinds {
			var err error
			text, err = u.bump(text, tomlpatch.Key(kind, name), kind, name, version)
			if err != nil {
				return nil, err
			}
		}

		doc, err := tomlpatch.Parse(text)
		if err != nil {
			return nil, err
		}
		for _, target := range targetNames(doc) {
			for _, kind := range DependencyKinds {
				text, err = u.bump(text, tomlpatch.Key("target", target, kind, name), kind, name, version)
				if err != nil {
					return nil, err
				}
			}
		}
	}
	return &text, nil
}

// bump rewrites one dependency declaration when it qualifies. The text is
// re-parsed on every call because earlier edits shift spans.
func (u *DependencyUpdater) bump(text string, path tomlpatch.Path, kind, name, version string) (string, error) {
	doc, err := tomlpatch.Parse(text)
	if err != nil {
		return "", err
	}
	table, declared := depDeclaration(doc, path)
	if !declared {
		return text, nil
	}
	if table == nil {
		u.Log.Debug("dependency declared as bare version, skipping",
			logger.String("dependency", name), logger.String("kind", kind))
		return text, nil
	}
	if _, hasPath := table["path"]; !hasPath {
		u.Log.Debug("dependency has no path, skipping",
			logger.String("dependency", name), logger.String("kind", kind))
		return text, nil
	}
	if _, hasVersion := table["version"]; !hasVersion {
		u.Log.Debug("dependency has no version to bump, skipping",
			logger.String("dependency", name), logger.String("kind", kind))
		return text, nil
	}

	value := version
	if kind == devDependencyKind {
		value = "<=" + version
	}
	out, err := tomlpatch.Replace(text, append(path, "version"), value)
	if err != nil {
		return "", err
	}
	u.Log.Debug("bumped dependency version",
		logger.String("dependency", name), logger.String("kind", kind), logger.String("version", value))
	return out, nil
}

// PathDepRemover deletes the path field from dependency declarations naming a
// workspace package. Published example manifests live outside the workspace,
// where relative paths are meaningless; the version field is kept.
type PathDepRemover struct {
	Packages []string
	Log      *logger.Logger
}

// NewPathDepRemover creates a path-dependency stripper for the given package
// roster. log may be nil.
func NewPathDepRemover(packages []string, log *logger.Logger) *PathDepRemover {
	return &PathDepRemover{Packages: packages, Log: log}
}

func (u *PathDepRemover) Update(content *string) (*string, error) {
	if content == nil {
		return nil, fmt.Errorf("path removal requires existing manifest content")
	}
	text := *content

	for _, name := range u.Packages {
		for _, kind := range DependencyKinds {
			var err error
			text, err = u.strip(text, tomlpatch.Key(kind, name), name)
			if err != nil {
				return nil, err
			}
		}

		doc, err := tomlpatch.Parse(text)
		if err != nil {
			return nil, err
		}
		for _, target := range targetNames(doc) {
			for _, kind := range DependencyKinds {
				text, err = u.strip(text, tomlpatch.Key("target", target, kind, name), name)
				if err != nil {
					return nil, err
				}
			}
		}
	}
	return &text, nil
}

func (u *PathDepRemover) strip(text string, path tomlpatch.Path, name string) (string, error) {
	doc, err := tomlpatch.Parse(text)
	if err != nil {
		return "", err
	}
	table, declared := depDeclaration(doc, path)
	if !declared || table == nil {
		return text, nil
	}
	if _, hasPath := table["path"]; !hasPath {
		return text, nil
	}
	out, err := tomlpatch.Delete(text, append(path, "path"))
	if err != nil {
		return "", err
	}
	u.Log.Debug("stripped path dependency", logger.String("dependency", name))
	return out, nil
}

// WorkspaceMembersUpdater replaces workspace.members wholesale with a freshly
// computed member list, used to resync an example workspace manifest after
// mirroring.
type WorkspaceMembersUpdater struct {
	Members []string
}

func (u *WorkspaceMembersUpdater) Update(content *string) (*string, error) {
	if content == nil {
		return nil, fmt.Errorf("workspace members update requires existing manifest content")
	}
	out, err := tomlpatch.Replace(*content, tomlpatch.Key("workspace", "members"), u.Members)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
