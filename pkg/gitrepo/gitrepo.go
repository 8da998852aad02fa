// Package gitrepo reads files from a local repository, either from the
// working tree or from a committed ref, behind one interface. Release
// planning reads many manifests per run, so contents are memoized per client.
package gitrepo

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// FileContents is one file read from the repository.
type FileContents struct {
	// Path is relative to the repository root, slash separated.
	Path string
	// Sha is the blob hash when read from a ref, empty for working-tree
	// reads.
	Sha string
	// Content is base64 encoded regardless of file type.
	Content string
	// ParsedContent is the decoded text, empty when IsBinary.
	ParsedContent string
	IsBinary      bool
}

// FileNotFoundError reports a path absent from the tree being read.
type FileNotFoundError struct {
	Path string
	Ref  string
}

func (e *FileNotFoundError) Error() string {
	if e.Ref == "" {
		return fmt.Sprintf("file not found: %s", e.Path)
	}
	return fmt.Sprintf("file not found at %s: %s", e.Ref, e.Path)
}

type cacheKey struct {
	ref  string
	path string
}

// Client reads files from one repository directory.
type Client struct {
	dir  string
	repo *git.Repository
	// cache memoizes GetFileContents per (ref, path).
	cache map[cacheKey]*FileContents
}

// Open creates a client for dir. The git repository is discovered upward from
// dir; when none exists the client still works in working-tree mode but
// rejects ref reads and repository state queries.
func Open(dir string) (*Client, error) {
	c := &Client{dir: dir, cache: make(map[cacheKey]*FileContents)}
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err == nil {
		c.repo = repo
	} else if !errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("opening repository at %s: %w", dir, err)
	}
	return c, nil
}

// Dir returns the directory the client reads from.
func (c *Client) Dir() string {
	return c.dir
}

// FindFiles returns the paths under dir (relative to the repository root)
// matching a doublestar pattern, sorted. An empty ref matches against the
// working tree, otherwise against the committed tree at ref. Directories and
// anything under .git are never returned.
func (c *Client) FindFiles(ref, dir, pattern string) ([]string, error) {
	if ref == "" {
		return c.findWorktreeFiles(dir, pattern)
	}
	if c.repo == nil {
		return nil, fmt.Errorf("ref %q requested but %s is not inside a git repository", ref, c.dir)
	}

	tree, err := c.treeAt(ref, dir)
	// A directory absent from the committed tree is an empty listing, the
	// same as globbing a nonexistent worktree directory.
	if errors.Is(err, object.ErrDirectoryNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var matches []string
	err = tree.Files().ForEach(func(f *object.File) error {
		ok, merr := doublestar.Match(pattern, f.Name)
		if merr != nil {
			return merr
		}
		if ok {
			matches = append(matches, path.Join(dir, f.Name))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s at %s: %w", dir, ref, err)
	}
	sort.Strings(matches)
	return matches, nil
}

func (c *Client) findWorktreeFiles(dir, pattern string) ([]string, error) {
	root := c.dir
	if dir != "" {
		root = path.Join(c.dir, dir)
	}
	fsys := os.DirFS(root)
	found, err := doublestar.Glob(fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("globbing %q under %s: %w", pattern, root, err)
	}

	var matches []string
	for _, p := range found {
		if p == ".git" || strings.HasPrefix(p, ".git/") {
			continue
		}
		info, err := fs.Stat(fsys, p)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			continue
		}
		matches = append(matches, path.Join(dir, p))
	}
	sort.Strings(matches)
	return matches, nil
}

// GetFileContents reads one file, from the working tree when ref is empty or
// from the committed tree at ref otherwise. Results are memoized for the
// lifetime of the client. Missing files return a *FileNotFoundError.
func (c *Client) GetFileContents(ref, filePath string) (*FileContents, error) {
	key := cacheKey{ref: ref, path: filePath}
	if fc, ok := c.cache[key]; ok {
		return fc, nil
	}

	var fc *FileContents
	var err error
	if ref == "" {
		fc, err = c.readWorktreeFile(filePath)
	} else {
		fc, err = c.readRefFile(ref, filePath)
	}
	if err != nil {
		return nil, err
	}
	c.cache[key] = fc
	return fc, nil
}

func (c *Client) readWorktreeFile(filePath string) (*FileContents, error) {
	data, err := os.ReadFile(path.Join(c.dir, filePath))
	if os.IsNotExist(err) {
		return nil, &FileNotFoundError{Path: filePath}
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filePath, err)
	}
	return newFileContents(filePath, "", data), nil
}

func (c *Client) readRefFile(ref, filePath string) (*FileContents, error) {
	if c.repo == nil {
		return nil, fmt.Errorf("ref %q requested but %s is not inside a git repository", ref, c.dir)
	}
	tree, err := c.treeAt(ref, "")
	if err != nil {
		return nil, err
	}
	f, err := tree.File(filePath)
	if errors.Is(err, object.ErrFileNotFound) {
		return nil, &FileNotFoundError{Path: filePath, Ref: ref}
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s at %s: %w", filePath, ref, err)
	}
	r, err := f.Reader()
	if err != nil {
		return nil, fmt.Errorf("reading %s at %s: %w", filePath, ref, err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading %s at %s: %w", filePath, ref, err)
	}
	fc := newFileContents(filePath, f.Hash.String(), data)
	return fc, nil
}

// treeAt resolves ref to a commit tree, descended into dir when non-empty.
func (c *Client) treeAt(ref, dir string) (*object.Tree, error) {
	hash, err := c.repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return nil, fmt.Errorf("resolving %q: %w", ref, err)
	}
	commit, err := c.repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("loading commit %s: %w", hash, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("loading tree of %s: %w", hash, err)
	}
	if dir != "" {
		tree, err = tree.Tree(dir)
		if err != nil {
			return nil, fmt.Errorf("descending into %s at %s: %w", dir, ref, err)
		}
	}
	return tree, nil
}

func newFileContents(filePath, sha string, data []byte) *FileContents {
	fc := &FileContents{
		Path:    filePath,
		Sha:     sha,
		Content: base64.StdEncoding.EncodeToString(data),
	}
	if utf8.Valid(data) {
		fc.ParsedContent = string(data)
	} else {
		fc.IsBinary = true
	}
	return fc
}

// Branch returns the short name of the currently checked-out branch.
func (c *Client) Branch() (string, error) {
	if c.repo == nil {
		return "", fmt.Errorf("%s is not inside a git repository", c.dir)
	}
	head, err := c.repo.Head()
	if err != nil {
		return "", fmt.Errorf("reading HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return "", fmt.Errorf("HEAD is detached at %s", head.Hash())
	}
	return head.Name().Short(), nil
}

// IsClean reports whether the working tree has no uncommitted changes.
func (c *Client) IsClean() (bool, error) {
	if c.repo == nil {
		return false, fmt.Errorf("%s is not inside a git repository", c.dir)
	}
	wt, err := c.repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("opening worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return false, fmt.Errorf("reading worktree status: %w", err)
	}
	return status.IsClean(), nil
}
