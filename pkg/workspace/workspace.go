// Package workspace orchestrates one release run over a monorepo: deciding
// which packages are in scope, propagating version bumps along intra-repo
// dependency edges, attaching manifest edits to release candidates and
// keeping the examples snapshot in sync.
//
// The orchestrator only decides edits; it never writes files. All external
// concerns are injected capabilities, so a failed run produces no output and
// no side effects.
package workspace

import (
	"fmt"
	"path"

	"github.com/rohanku/release-please/pkg/cargo"
	"github.com/rohanku/release-please/pkg/gitrepo"
	"github.com/rohanku/release-please/pkg/graph"
	"github.com/rohanku/release-please/pkg/logger"
	"github.com/rohanku/release-please/pkg/release"
)

// DefaultManifestFile is the per-package manifest name.
const DefaultManifestFile = "Cargo.toml"

// DefaultVersionsFile is the repo-wide record of released versions.
const DefaultVersionsFile = ".release-please-manifest.json"

// Repository reads files from the repo being released. *gitrepo.Client
// satisfies it.
type Repository interface {
	FindFiles(ref, dir, pattern string) ([]string, error)
	GetFileContents(ref, path string) (*gitrepo.FileContents, error)
}

// GraphProvider discovers the package roster and its dependency graph.
type GraphProvider interface {
	BuildPackages(candidates []*release.Candidate) ([]*graph.Package, error)
	BuildGraph(packages []*graph.Package) (*graph.Graph, error)
}

// VersionPolicy computes a package's next version. target is the candidate's
// requested version when the package was directly in scope, empty when the
// bump is propagated through the graph.
type VersionPolicy interface {
	NewVersion(pkg *graph.Package, target string) (string, error)
}

// Merger optionally folds all processed candidates into fewer pull requests.
type Merger interface {
	Merge(candidates []*release.Candidate) ([]*release.Candidate, error)
}

// VersionMap holds the versions computed for one run, keyed both by package
// name (for dependency edits) and by manifest directory path (for the
// versions record). Built once per run, shared by reference, never mutated by
// updaters.
type VersionMap struct {
	ByName map[string]string
	ByPath map[string]string
}

// Orchestrator wires the capabilities of one release run.
type Orchestrator struct {
	Graphs GraphProvider
	Policy VersionPolicy
	Repo   Repository

	// Merger folds candidates into one PR when set.
	Merger Merger
	// Ref selects the tree to read from; empty means the working tree.
	Ref string
	// ManifestFile defaults to DefaultManifestFile.
	ManifestFile string
	// VersionsFile defaults to DefaultVersionsFile.
	VersionsFile string
	// TitlePattern renders titles for synthesized candidates.
	TitlePattern string
	// Mirror enables the examples snapshot sync when set.
	Mirror *MirrorConfig
	// PostProcess runs after candidates are assembled, before the mirror
	// sync.
	PostProcess func(candidates []*release.Candidate, versions *VersionMap) error

	Log *logger.Logger
}

func (o *Orchestrator) manifestFile() string {
	if o.ManifestFile == "" {
		return DefaultManifestFile
	}
	return o.ManifestFile
}

func (o *Orchestrator) versionsFile() string {
	if o.VersionsFile == "" {
		return DefaultVersionsFile
	}
	return o.VersionsFile
}

// Run processes one set of release candidates and returns the updated set:
// out-of-scope candidates untouched and first, then the processed ones. Any
// failure aborts the run with no output candidates.
func (o *Orchestrator) Run(candidates []*release.Candidate) ([]*release.Candidate, error) {
	var inScope, passthrough []*release.Candidate
	for _, c := range candidates {
		if c.Version == "" {
			o.Log.Warn("candidate has no target version, leaving it untouched",
				logger.String("path", c.Path))
			passthrough = append(passthrough, c)
			continue
		}
		inScope = append(inScope, c)
	}
	if len(inScope) == 0 {
		return candidates, nil
	}

	roster, err := o.Graphs.BuildPackages(inScope)
	if err != nil {
		return nil, fmt.Errorf("building package roster: %w", err)
	}
	g, err := o.Graphs.BuildGraph(roster)
	if err != nil {
		return nil, fmt.Errorf("building dependency graph: %w", err)
	}

	byPath := make(map[string]*release.Candidate, len(inScope))
	for _, c := range inScope {
		byPath[c.Path] = c
	}

	var seeds []string
	seeded := make(map[string]bool, len(inScope))
	for _, pkg := range g.Packages() {
		if _, ok := byPath[pkg.Path]; ok {
			seeds = append(seeds, pkg.Name)
			seeded[pkg.Path] = true
		}
	}
	for _, c := range inScope {
		if !seeded[c.Path] {
			return nil, fmt.Errorf("no workspace package found at %s", c.Path)
		}
	}

	closure, err := g.Closure(seeds)
	if err != nil {
		return nil, fmt.Errorf("computing propagation closure: %w", err)
	}

	versions := &VersionMap{
		ByName: make(map[string]string, len(closure)),
		ByPath: make(map[string]string, len(closure)),
	}
	visited := make(map[string]bool, len(closure))
	var processed []*release.Candidate
	for _, pkg := range closure {
		target := ""
		if c, ok := byPath[pkg.Path]; ok {
			target = c.Version
		}
		version, err := o.Policy.NewVersion(pkg, target)
		if err != nil {
			return nil, fmt.Errorf("computing version for %s: %w", pkg.Name, err)
		}
		versions.ByName[pkg.Name] = version
		versions.ByPath[pkg.Path] = version

		// Packages sharing one manifest directory collapse into one
		// candidate.
		if visited[pkg.Path] {
			o.Log.Debug("manifest directory already processed",
				logger.String("path", pkg.Path), logger.String("package", pkg.Name))
			continue
		}
		visited[pkg.Path] = true

		cand, ok := byPath[pkg.Path]
		if !ok {
			title, err := release.RenderTitle(o.TitlePattern, release.TitleContext{
				Component: pkg.Name,
				Version:   version,
			})
			if err != nil {
				return nil, err
			}
			cand = &release.Candidate{Path: pkg.Path, Title: title}
			byPath[pkg.Path] = cand
			o.Log.Info("propagating release",
				logger.String("package", pkg.Name), logger.String("version", version))
		}
		cand.Version = version

		manifestPath := path.Join(pkg.Path, o.manifestFile())
		cand.Updates = append(cand.Updates,
			release.Update{
				Path:    manifestPath,
				Updater: cargo.NewVersionUpdater(version, o.Log),
			},
			release.Update{
				Path: manifestPath,
				// The version map keeps filling in as later packages
				// are visited; updaters run after the loop, so every
				// manifest sees the complete map.
				Updater: cargo.NewDependencyUpdater(versions.ByName, o.Log),
			},
		)
		processed = append(processed, cand)
	}

	if o.Merger != nil {
		processed, err = o.Merger.Merge(processed)
		if err != nil {
			return nil, fmt.Errorf("merging candidates: %w", err)
		}
		if len(processed) == 0 {
			return nil, fmt.Errorf("merge step produced no candidates")
		}
	}

	processed[0].Updates = append(processed[0].Updates, release.Update{
		Path:            o.versionsFile(),
		CreateIfMissing: true,
		Updater:         &cargo.VersionsManifest{Versions: versions.ByPath},
	})

	if o.PostProcess != nil {
		if err := o.PostProcess(processed, versions); err != nil {
			return nil, fmt.Errorf("post-processing candidates: %w", err)
		}
	}

	if o.Mirror != nil {
		if err := o.syncMirror(processed[0], roster); err != nil {
			return nil, fmt.Errorf("syncing examples mirror: %w", err)
		}
	}

	for _, c := range processed {
		merged, err := release.MergeUpdates(c.Updates)
		if err != nil {
			return nil, err
		}
		c.Updates = merged
	}

	out := make([]*release.Candidate, 0, len(passthrough)+len(processed))
	out = append(out, passthrough...)
	out = append(out, processed...)
	return out, nil
}
