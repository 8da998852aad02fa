package workspace

import (
	"errors"
	"fmt"
	"path"
	"sort"

	"github.com/rohanku/release-please/pkg/cargo"
	"github.com/rohanku/release-please/pkg/gitrepo"
	"github.com/rohanku/release-please/pkg/graph"
	"github.com/rohanku/release-please/pkg/logger"
	"github.com/rohanku/release-please/pkg/release"
)

// MirrorConfig describes the examples snapshot: a destination tree kept
// byte-identical to a source tree, modulo exceptions and the example-tree
// rewrite rules.
type MirrorConfig struct {
	// Source is the live examples directory, relative to the repo root.
	Source string
	// Dest is the release snapshot directory.
	Dest string
	// Exceptions are paths relative to the tree roots that are never
	// touched.
	Exceptions []string
	// WorkspaceManifest is the tree-relative path of the example workspace
	// manifest whose member list is resynced, empty to skip.
	WorkspaceManifest string
}

// mirrorRun is the state of one sync: directory listings fetched lazily and
// cached for the duration, plus an index of the candidate's in-flight updates
// so already-edited files are mirrored post-edit.
type mirrorRun struct {
	o      *Orchestrator
	cfg    *MirrorConfig
	cand   *release.Candidate
	roster []string
	// pending groups the candidate's not-yet-merged updates by path; a
	// mirrored file replays every pending edit in order.
	pending map[string][]*release.Update
	listing map[string][]string
	added   []release.Update
}

// syncMirror diffs the snapshot tree against the source tree and appends
// create/update/remove edits to cand.
func (o *Orchestrator) syncMirror(cand *release.Candidate, roster []*graph.Package) error {
	names := make([]string, len(roster))
	for i, pkg := range roster {
		names[i] = pkg.Name
	}
	m := &mirrorRun{
		o:       o,
		cfg:     o.Mirror,
		cand:    cand,
		roster:  names,
		pending: make(map[string][]*release.Update, len(cand.Updates)),
		listing: make(map[string][]string),
	}
	for i := range cand.Updates {
		u := &cand.Updates[i]
		m.pending[u.Path] = append(m.pending[u.Path], u)
	}

	destFiles, err := m.list(m.cfg.Dest)
	if err != nil {
		return err
	}
	srcFiles, err := m.list(m.cfg.Source)
	if err != nil {
		return err
	}
	excepted := make(map[string]bool, len(m.cfg.Exceptions))
	for _, e := range m.cfg.Exceptions {
		excepted[e] = true
	}

	// Destination first: overwrites, which resolve to removals when the
	// source file is gone. Then source files not yet scheduled: creations.
	scheduled := make(map[string]bool, len(destFiles))
	for _, rel := range destFiles {
		if excepted[rel] {
			continue
		}
		if err := m.mirrorFile(rel); err != nil {
			return err
		}
		scheduled[rel] = true
	}
	for _, rel := range srcFiles {
		if excepted[rel] || scheduled[rel] {
			continue
		}
		if err := m.mirrorFile(rel); err != nil {
			return err
		}
	}

	cand.Updates = append(cand.Updates, m.added...)
	return nil
}

// list returns the file paths under dir relative to dir, cached per sync.
func (m *mirrorRun) list(dir string) ([]string, error) {
	if got, ok := m.listing[dir]; ok {
		return got, nil
	}
	files, err := m.o.Repo.FindFiles(m.o.Ref, dir, "**")
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	rel := make([]string, 0, len(files))
	prefix := dir + "/"
	for _, f := range files {
		if len(f) > len(prefix) && f[:len(prefix)] == prefix {
			rel = append(rel, f[len(prefix):])
		}
	}
	m.listing[dir] = rel
	return rel, nil
}

// mirrorFile schedules one snapshot write for the tree-relative path rel.
func (m *mirrorRun) mirrorFile(rel string) error {
	srcPath := path.Join(m.cfg.Source, rel)
	destPath := path.Join(m.cfg.Dest, rel)

	content, enc, err := m.resolve(srcPath)
	if err != nil {
		return err
	}
	if content != nil && enc == release.EncodingText {
		content, err = m.rewrite(rel, content)
		if err != nil {
			return err
		}
	}

	if content == nil {
		m.o.Log.Debug("removing stale snapshot file", logger.String("path", destPath))
	}
	m.added = append(m.added, release.Update{
		Path:            destPath,
		CreateIfMissing: true,
		Updater:         &release.RawContent{Content: content, Enc: enc},
	})
	return nil
}

// resolve produces the source file's post-edit content: the in-flight update
// for the source path is applied on top of its cached or freshly fetched
// content, so a manifest already being version-bumped mirrors post-bump. A
// missing source file resolves to nil. Binary files pass through opaque.
func (m *mirrorRun) resolve(srcPath string) (*string, release.Encoding, error) {
	pending := m.pending[srcPath]

	var base *string
	if len(pending) > 0 && pending[0].CachedContent != nil {
		base = pending[0].CachedContent
	} else {
		fc, err := m.o.Repo.GetFileContents(m.o.Ref, srcPath)
		var notFound *gitrepo.FileNotFoundError
		switch {
		case errors.As(err, &notFound):
		case err != nil:
			return nil, release.EncodingText, fmt.Errorf("reading %s: %w", srcPath, err)
		case fc.IsBinary:
			raw := fc.Content
			return &raw, release.EncodingBase64, nil
		default:
			text := fc.ParsedContent
			base = &text
			if len(pending) > 0 {
				pending[0].CachedContent = base
			}
		}
	}

	for i, u := range pending {
		out, err := u.Updater.Update(base)
		if err != nil {
			return nil, release.EncodingText, fmt.Errorf("applying pending edit for %s: %w", srcPath, err)
		}
		if out == nil && i < len(pending)-1 {
			empty := ""
			base = &empty
			continue
		}
		base = out
	}
	return base, release.EncodingText, nil
}

// rewrite applies the example-tree rules: path dependencies are stripped from
// example manifests, and the example workspace manifest's member list is
// rederived from the source tree.
func (m *mirrorRun) rewrite(rel string, content *string) (*string, error) {
	if path.Base(rel) == m.o.manifestFile() && rel != m.cfg.WorkspaceManifest {
		remover := cargo.NewPathDepRemover(m.roster, m.o.Log)
		out, err := remover.Update(content)
		if err != nil {
			return nil, fmt.Errorf("stripping path dependencies in %s: %w", rel, err)
		}
		content = out
	}
	if m.cfg.WorkspaceManifest != "" && rel == m.cfg.WorkspaceManifest {
		members, err := m.members()
		if err != nil {
			return nil, err
		}
		rewriter := &cargo.WorkspaceMembersUpdater{Members: members}
		out, err := rewriter.Update(content)
		if err != nil {
			return nil, fmt.Errorf("resyncing workspace members in %s: %w", rel, err)
		}
		content = out
	}
	return content, nil
}

// members derives the example workspace member list from the source tree:
// every directory holding a manifest, except the workspace root itself.
func (m *mirrorRun) members() ([]string, error) {
	srcFiles, err := m.list(m.cfg.Source)
	if err != nil {
		return nil, err
	}
	var members []string
	for _, rel := range srcFiles {
		if path.Base(rel) != m.o.manifestFile() || rel == m.cfg.WorkspaceManifest {
			continue
		}
		members = append(members, path.Dir(rel))
	}
	sort.Strings(members)
	return members, nil
}
