package workspace

import (
	"fmt"
	"path"
	"strings"

	"github.com/rohanku/release-please/pkg/cargo"
	"github.com/rohanku/release-please/pkg/graph"
	"github.com/rohanku/release-please/pkg/logger"
	"github.com/rohanku/release-please/pkg/release"
	"github.com/rohanku/release-please/pkg/versioning"
)

// CargoGraphProvider discovers the package roster from the root workspace
// manifest's member list. Member entries may use glob patterns.
type CargoGraphProvider struct {
	Repo         Repository
	Ref          string
	ManifestFile string
	Log          *logger.Logger
}

func (p *CargoGraphProvider) manifestFile() string {
	if p.ManifestFile == "" {
		return DefaultManifestFile
	}
	return p.ManifestFile
}

// BuildPackages reads the workspace manifest at the repository root and one
// manifest per member.
func (p *CargoGraphProvider) BuildPackages(_ []*release.Candidate) ([]*graph.Package, error) {
	root, err := p.Repo.GetFileContents(p.Ref, p.manifestFile())
	if err != nil {
		return nil, fmt.Errorf("reading workspace manifest: %w", err)
	}
	m, err := cargo.ParseManifest(root.ParsedContent)
	if err != nil {
		return nil, err
	}
	if m.Workspace == nil {
		return nil, fmt.Errorf("%s has no [workspace] table", p.manifestFile())
	}

	dirs, err := p.memberDirs(m.Workspace.Members)
	if err != nil {
		return nil, err
	}

	packages := make([]*graph.Package, 0, len(dirs))
	for _, dir := range dirs {
		manifestPath := path.Join(dir, p.manifestFile())
		fc, err := p.Repo.GetFileContents(p.Ref, manifestPath)
		if err != nil {
			return nil, fmt.Errorf("reading member manifest %s: %w", manifestPath, err)
		}
		pm, err := cargo.ParseManifest(fc.ParsedContent)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", manifestPath, err)
		}
		if pm.Package == nil {
			return nil, fmt.Errorf("%s has no [package] table", manifestPath)
		}
		packages = append(packages, &graph.Package{
			Name:         pm.Package.Name,
			Version:      pm.Package.Version,
			Path:         dir,
			Dependencies: pm.PathDependencies(),
		})
		p.Log.Debug("discovered package",
			logger.String("name", pm.Package.Name), logger.String("path", dir))
	}
	return packages, nil
}

// memberDirs expands glob member entries against the repository tree.
func (p *CargoGraphProvider) memberDirs(members []string) ([]string, error) {
	var dirs []string
	for _, member := range members {
		if !strings.ContainsAny(member, "*?[") {
			dirs = append(dirs, member)
			continue
		}
		matches, err := p.Repo.FindFiles(p.Ref, "", path.Join(member, p.manifestFile()))
		if err != nil {
			return nil, fmt.Errorf("expanding workspace member %q: %w", member, err)
		}
		for _, match := range matches {
			dirs = append(dirs, path.Dir(match))
		}
	}
	return dirs, nil
}

// BuildGraph implements GraphProvider.
func (p *CargoGraphProvider) BuildGraph(packages []*graph.Package) (*graph.Graph, error) {
	return graph.New(packages)
}

// BumpPolicy is the default version policy: an in-scope candidate's target
// version is taken as-is, and propagated packages get their current version
// bumped at the configured level.
type BumpPolicy struct {
	// Level is "major", "minor" or "patch"; empty means patch.
	Level string
}

// NewVersion implements VersionPolicy.
func (p *BumpPolicy) NewVersion(pkg *graph.Package, target string) (string, error) {
	if target != "" {
		if _, err := versioning.Parse(target); err != nil {
			return "", fmt.Errorf("candidate version for %s: %w", pkg.Name, err)
		}
		return target, nil
	}
	v, err := versioning.Parse(pkg.Version)
	if err != nil {
		return "", fmt.Errorf("current version of %s: %w", pkg.Name, err)
	}
	switch p.Level {
	case "", "patch":
		v = v.BumpPatch()
	case "minor":
		v = v.BumpMinor()
	case "major":
		v = v.BumpMajor()
	default:
		return "", fmt.Errorf("unknown bump level %q", p.Level)
	}
	return v.String(), nil
}

// MergeAll folds every processed candidate into one pull request rooted at
// the first candidate's path.
type MergeAll struct {
	// Title overrides the merged candidate's title when non-empty.
	Title string
}

// Merge implements Merger.
func (m *MergeAll) Merge(candidates []*release.Candidate) ([]*release.Candidate, error) {
	if len(candidates) <= 1 {
		return candidates, nil
	}
	merged := &release.Candidate{
		Path:    candidates[0].Path,
		Version: candidates[0].Version,
		Title:   candidates[0].Title,
	}
	if m.Title != "" {
		merged.Title = m.Title
	}
	for _, c := range candidates {
		merged.Updates = append(merged.Updates, c.Updates...)
	}
	return []*release.Candidate{merged}, nil
}
