// Package release defines the in-memory release artifacts: candidate pull
// requests, their file updates, and the composition rules that fold multiple
// updates to one path into a single deterministic transform.
//
// Nothing in this package touches the filesystem. Candidates accumulate
// updates during orchestration and are realized by a downstream writer.
package release

import "fmt"

// Encoding describes the output representation of an updater.
type Encoding int

const (
	// EncodingText is the default: content is UTF-8 text.
	EncodingText Encoding = iota
	// EncodingBase64 marks opaque binary content carried as base64.
	EncodingBase64
)

// Updater transforms one file's content. A nil input means the file does not
// exist yet; a nil output means the file should not exist after the update.
type Updater interface {
	Update(content *string) (*string, error)
}

// EncodedUpdater is implemented by updaters whose output is not plain text.
type EncodedUpdater interface {
	Updater
	Encoding() Encoding
}

// UpdaterEncoding reports the output encoding of u, defaulting to text.
func UpdaterEncoding(u Updater) Encoding {
	if e, ok := u.(EncodedUpdater); ok {
		return e.Encoding()
	}
	return EncodingText
}

// Update is one pending file edit: a target path, whether the file may be
// created, and the transform producing its new content.
type Update struct {
	Path            string
	CreateIfMissing bool
	Updater         Updater

	// CachedContent memoizes the file's current content so a path touched
	// by several stages is fetched once per run.
	CachedContent *string
}

// Candidate is one pending release pull request: a package path, its target
// version and the updates to realize. A candidate without a version is out of
// scope for processing and passes through orchestration untouched.
type Candidate struct {
	Path    string
	Version string
	Title   string
	Updates []Update
}

// RawContent is an updater that ignores its input and emits fixed content
// (or, with nil content, removes the file). Used by the examples mirror to
// stamp resolved bytes into the snapshot tree.
type RawContent struct {
	Content *string
	Enc     Encoding
}

func (r *RawContent) Update(_ *string) (*string, error) { return r.Content, nil }

// Encoding implements EncodedUpdater.
func (r *RawContent) Encoding() Encoding { return r.Enc }

// Chain applies a fixed sequence of updaters, threading each output into the
// next input. An updater yielding no content hands an empty string to its
// successor so the chain keeps its shape; only the final updater's nil output
// survives as "remove this file".
type Chain struct {
	updaters []Updater
}

// NewChain builds a chain. Only the final updater may produce a non-text
// encoding: text transforms assume textual input, so anything chained after a
// binary producer is a construction-time error.
func NewChain(updaters ...Updater) (*Chain, error) {
	for i, u := range updaters {
		if i < len(updaters)-1 && UpdaterEncoding(u) != EncodingText {
			return nil, fmt.Errorf("chain updater %d produces non-text output but is not last", i)
		}
	}
	return &Chain{updaters: updaters}, nil
}

func (c *Chain) Update(content *string) (*string, error) {
	cur := content
	for i, u := range c.updaters {
		out, err := u.Update(cur)
		if err != nil {
			return nil, fmt.Errorf("chain updater %d: %w", i, err)
		}
		if out == nil && i < len(c.updaters)-1 {
			empty := ""
			cur = &empty
			continue
		}
		cur = out
	}
	return cur, nil
}

// Encoding implements EncodedUpdater with the final updater's encoding.
func (c *Chain) Encoding() Encoding {
	if len(c.updaters) == 0 {
		return EncodingText
	}
	return UpdaterEncoding(c.updaters[len(c.updaters)-1])
}

// MergeUpdates collapses updates sharing a target path into one update whose
// transform is the input-order chain of the group's transforms. The first
// update seen for a path decides its creation policy, and first-seen path
// order is preserved, so merging is deterministic.
func MergeUpdates(updates []Update) ([]Update, error) {
	order := make([]string, 0, len(updates))
	groups := make(map[string][]Update)
	for _, u := range updates {
		if _, seen := groups[u.Path]; !seen {
			order = append(order, u.Path)
		}
		groups[u.Path] = append(groups[u.Path], u)
	}

	merged := make([]Update, 0, len(order))
	for _, path := range order {
		group := groups[path]
		if len(group) == 1 {
			merged = append(merged, group[0])
			continue
		}
		chained := make([]Updater, len(group))
		var cached *string
		for i, u := range group {
			chained[i] = u.Updater
			if cached == nil {
				cached = u.CachedContent
			}
		}
		chain, err := NewChain(chained...)
		if err != nil {
			return nil, fmt.Errorf("merging updates for %s: %w", path, err)
		}
		merged = append(merged, Update{
			Path:            path,
			CreateIfMissing: group[0].CreateIfMissing,
			Updater:         chain,
			CachedContent:   cached,
		})
	}
	return merged, nil
}
