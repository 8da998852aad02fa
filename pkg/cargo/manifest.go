// Package cargo understands Cargo-style manifests: reading the fields release
// planning needs and rewriting versions in place without disturbing the rest
// of the file.
package cargo

import (
	"fmt"
	"sort"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/rohanku/release-please/pkg/tomlpatch"
)

// DependencyKinds are the manifest sections grouping dependencies by role.
var DependencyKinds = []string{"dependencies", "dev-dependencies", "build-dependencies"}

const devDependencyKind = "dev-dependencies"

// PackageSection is the [package] table of a manifest.
type PackageSection struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// WorkspaceSection is the [workspace] table of a manifest.
type WorkspaceSection struct {
	Members []string `toml:"members"`
}

// Manifest is the decoded shape of a manifest, limited to what release
// planning needs. Use tomlpatch for edits; this type is read-only.
type Manifest struct {
	Package           *PackageSection                      `toml:"package"`
	Workspace         *WorkspaceSection                    `toml:"workspace"`
	Dependencies      map[string]any                       `toml:"dependencies"`
	DevDependencies   map[string]any                       `toml:"dev-dependencies"`
	BuildDependencies map[string]any                       `toml:"build-dependencies"`
	Target            map[string]map[string]map[string]any `toml:"target"`
}

// ParseManifest decodes manifest content with the plain parser.
func ParseManifest(content string) (*Manifest, error) {
	var m Manifest
	if err := toml.Unmarshal([]byte(content), &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &m, nil
}

// PathDependencies returns the names of dependencies declared with a path
// field across every dependency kind and platform target, deduplicated and
// sorted. These are the intra-repo edges of the dependency graph.
func (m *Manifest) PathDependencies() []string {
	seen := make(map[string]bool)
	collect := func(deps map[string]any) {
		for name, decl := range deps {
			table, ok := decl.(map[string]any)
			if !ok {
				continue
			}
			if _, hasPath := table["path"]; hasPath {
				seen[name] = true
			}
		}
	}

	collect(m.Dependencies)
	collect(m.DevDependencies)
	collect(m.BuildDependencies)
	for _, kinds := range m.Target {
		for _, deps := range kinds {
			collect(deps)
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// targetNames returns the platform target table names of a tagged document,
// sorted for deterministic edit order.
func targetNames(doc tomlpatch.Document) []string {
	node, ok := doc.Get(tomlpatch.Key("target"))
	if !ok {
		return nil
	}
	if tv, tagged := node.(*tomlpatch.TaggedValue); tagged {
		node = tv.Value
	}
	m, ok := node.(map[string]any)
	if !ok {
		return nil
	}
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// depDeclaration resolves the dependency declaration at path. The bool result
// reports whether the declaration exists at all; a nil map means it exists
// but is not in table form (a bare version string).
func depDeclaration(doc tomlpatch.Document, path tomlpatch.Path) (map[string]any, bool) {
	node, ok := doc.Get(path)
	if !ok {
		return nil, false
	}
	if tv, tagged := node.(*tomlpatch.TaggedValue); tagged {
		node = tv.Value
	}
	table, _ := node.(map[string]any)
	return table, true
}
