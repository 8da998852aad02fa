package cmd

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/rohanku/release-please/pkg/exitcode"
	"github.com/rohanku/release-please/pkg/gitrepo"
	"github.com/rohanku/release-please/pkg/logger"
	"github.com/rohanku/release-please/pkg/release"
)

// applyCandidates realizes the planned edits in the working tree. The
// repository must be clean so a bad run can be reverted with git.
func applyCandidates(repo *gitrepo.Client, ref, requireBranch string, candidates []*release.Candidate) error {
	if requireBranch != "" {
		branch, err := repo.Branch()
		if err != nil {
			return withExitCode(exitcode.GitError, err)
		}
		if branch != requireBranch {
			return withExitCode(exitcode.GitError,
				fmt.Errorf("on branch %s, refusing to apply (want %s)", branch, requireBranch))
		}
	}
	clean, err := repo.IsClean()
	if err != nil {
		return withExitCode(exitcode.GitError, err)
	}
	if !clean {
		return withExitCode(exitcode.GitError,
			fmt.Errorf("working tree has uncommitted changes, refusing to apply"))
	}

	// Content reads go through the memoizing client up front; only the
	// writes run concurrently.
	type pendingWrite struct {
		update  release.Update
		content *string
	}
	var writes []pendingWrite
	for _, c := range candidates {
		for _, u := range c.Updates {
			content, err := resolveCurrent(repo, ref, u)
			if err != nil {
				return withExitCode(exitcode.FileSystemError, err)
			}
			writes = append(writes, pendingWrite{update: u, content: content})
		}
	}

	g := new(errgroup.Group)
	g.SetLimit(8)
	for _, w := range writes {
		w := w
		g.Go(func() error {
			return realizeUpdate(repo.Dir(), w.update, w.content)
		})
	}
	if err := g.Wait(); err != nil {
		return withExitCode(exitcode.FileSystemError, err)
	}
	logger.Info("applied release edits", logger.Int("files", len(writes)))
	return nil
}

// resolveCurrent fetches the file content an update transforms, honoring the
// creation policy.
func resolveCurrent(repo *gitrepo.Client, ref string, u release.Update) (*string, error) {
	if u.CachedContent != nil {
		return u.CachedContent, nil
	}
	fc, err := repo.GetFileContents(ref, u.Path)
	var notFound *gitrepo.FileNotFoundError
	switch {
	case errors.As(err, &notFound):
		if !u.CreateIfMissing {
			return nil, fmt.Errorf("%s does not exist", u.Path)
		}
		return nil, nil
	case err != nil:
		return nil, err
	case fc.IsBinary:
		// Binary inputs only reach RawContent updaters, which ignore them.
		return nil, nil
	default:
		text := fc.ParsedContent
		return &text, nil
	}
}

// realizeUpdate runs one update's transform and writes (or removes) the
// target file.
func realizeUpdate(dir string, u release.Update, content *string) error {
	out, err := u.Updater.Update(content)
	if err != nil {
		return fmt.Errorf("updating %s: %w", u.Path, err)
	}
	target := filepath.Join(dir, filepath.FromSlash(u.Path))

	if out == nil {
		if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing %s: %w", u.Path, err)
		}
		return nil
	}

	data := []byte(*out)
	if release.UpdaterEncoding(u.Updater) == release.EncodingBase64 {
		data, err = base64.StdEncoding.DecodeString(*out)
		if err != nil {
			return fmt.Errorf("decoding %s: %w", u.Path, err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", u.Path, err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", u.Path, err)
	}
	return nil
}
