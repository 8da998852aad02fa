package release

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// appendUpdater is a trivial text transform for exercising chains.
type appendUpdater struct {
	suffix string
}

func (a *appendUpdater) Update(content *string) (*string, error) {
	var base string
	if content != nil {
		base = *content
	}
	out := base + a.suffix
	return &out, nil
}

type failingUpdater struct{}

func (f *failingUpdater) Update(*string) (*string, error) {
	return nil, errors.New("boom")
}

// dropUpdater yields no content.
type dropUpdater struct{}

func (d *dropUpdater) Update(*string) (*string, error) { return nil, nil }

func str(s string) *string { return &s }

func TestChainAppliesInOrder(t *testing.T) {
	chain, err := NewChain(&appendUpdater{suffix: "A"}, &appendUpdater{suffix: "B"}, &appendUpdater{suffix: "C"})
	require.NoError(t, err)

	out, err := chain.Update(str("x"))
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, "xABC", *out)
}

func TestChainContinuesAfterNoContent(t *testing.T) {
	chain, err := NewChain(&dropUpdater{}, &appendUpdater{suffix: "tail"})
	require.NoError(t, err)

	out, err := chain.Update(str("ignored"))
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, "tail", *out, "a mid-chain deletion feeds an empty string onward")
}

func TestChainFinalNilMeansRemoval(t *testing.T) {
	chain, err := NewChain(&appendUpdater{suffix: "A"}, &dropUpdater{})
	require.NoError(t, err)

	out, err := chain.Update(str("x"))
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestChainRejectsNonTextMidChain(t *testing.T) {
	binary := &RawContent{Content: str("AAAA"), Enc: EncodingBase64}

	_, err := NewChain(binary, &appendUpdater{suffix: "x"})
	require.Error(t, err)

	chain, err := NewChain(&appendUpdater{suffix: "x"}, binary)
	require.NoError(t, err, "binary output is allowed in final position")
	assert.Equal(t, EncodingBase64, chain.Encoding())
}

func TestChainPropagatesErrors(t *testing.T) {
	chain, err := NewChain(&appendUpdater{suffix: "A"}, &failingUpdater{})
	require.NoError(t, err)

	_, err = chain.Update(str("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestMergeUpdatesFoldsByPath(t *testing.T) {
	updates := []Update{
		{Path: "a/Cargo.toml", Updater: &appendUpdater{suffix: "1"}, CreateIfMissing: true},
		{Path: "b/Cargo.toml", Updater: &appendUpdater{suffix: "x"}},
		{Path: "a/Cargo.toml", Updater: &appendUpdater{suffix: "2"}, CreateIfMissing: false},
		{Path: "a/Cargo.toml", Updater: &appendUpdater{suffix: "3"}},
	}

	merged, err := MergeUpdates(updates)
	require.NoError(t, err)
	require.Len(t, merged, 2)

	// First-seen path order and first-seen creation policy survive.
	assert.Equal(t, "a/Cargo.toml", merged[0].Path)
	assert.True(t, merged[0].CreateIfMissing)
	assert.Equal(t, "b/Cargo.toml", merged[1].Path)

	out, err := merged[0].Updater.Update(str(""))
	require.NoError(t, err)
	assert.Equal(t, "123", *out, "folded transforms run in input order")

	// No two merged updates share a path.
	seen := map[string]bool{}
	for _, u := range merged {
		assert.False(t, seen[u.Path])
		seen[u.Path] = true
	}
}

func TestMergeUpdatesDeterministicAcrossGrouping(t *testing.T) {
	a := &appendUpdater{suffix: "A"}
	b := &appendUpdater{suffix: "B"}
	c := &appendUpdater{suffix: "C"}

	first, err := MergeUpdates([]Update{
		{Path: "f", Updater: a},
		{Path: "f", Updater: b},
		{Path: "f", Updater: c},
	})
	require.NoError(t, err)

	pre, err := NewChain(a, b)
	require.NoError(t, err)
	second, err := MergeUpdates([]Update{
		{Path: "f", Updater: pre},
		{Path: "f", Updater: c},
	})
	require.NoError(t, err)

	out1, err := first[0].Updater.Update(str(""))
	require.NoError(t, err)
	out2, err := second[0].Updater.Update(str(""))
	require.NoError(t, err)
	assert.Equal(t, *out1, *out2, "grouping must not change the applied order")
	assert.Equal(t, "ABC", *out1)
}

func TestMergeKeepsSingletons(t *testing.T) {
	u := &appendUpdater{suffix: "z"}
	merged, err := MergeUpdates([]Update{{Path: "only", Updater: u}})
	require.NoError(t, err)
	require.Len(t, merged, 1)
	assert.Same(t, Updater(u), merged[0].Updater, "single update is kept, not wrapped")
}

func TestRenderTitle(t *testing.T) {
	out, err := RenderTitle("", TitleContext{Component: "widget", Version: "1.2.3"})
	require.NoError(t, err)
	assert.Equal(t, "chore: release widget 1.2.3", out)

	out, err = RenderTitle("release {{component}}@{{version}} ({{branch}})", TitleContext{
		Component: "gizmo", Version: "0.2.0", Branch: "main",
	})
	require.NoError(t, err)
	assert.Equal(t, "release gizmo@0.2.0 (main)", out)
}

func TestRawContentIgnoresInput(t *testing.T) {
	rc := &RawContent{Content: str("fixed")}
	out, err := rc.Update(str("whatever"))
	require.NoError(t, err)
	assert.Equal(t, "fixed", *out)
	assert.Equal(t, EncodingText, rc.Encoding())

	removal := &RawContent{}
	out, err = removal.Update(str("x"))
	require.NoError(t, err)
	assert.Nil(t, out)
}
