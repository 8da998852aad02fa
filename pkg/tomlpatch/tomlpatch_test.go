package tomlpatch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleManifest = `# top comment
[package]
name = "widget" # keep me
version = "1.2.3"
edition = "2021"

[dependencies]
serde = "1.0"
gadget = { path = "../gadget", version = "1.0.0" }

[dev-dependencies.helper]
path = "../helper"
version = "0.3.0"

[workspace]
members = ["widget", "gadget", "helper"]
`

func TestParseTagsScalarsWithSpans(t *testing.T) {
	doc, err := Parse(sampleManifest)
	require.NoError(t, err)

	node, ok := doc.Get(Key("package", "version"))
	require.True(t, ok)
	tv, ok := node.(*TaggedValue)
	require.True(t, ok, "package.version should be tagged")

	assert.Equal(t, "1.2.3", tv.Value)
	assert.Equal(t, `"1.2.3"`, sampleManifest[tv.Start:tv.End])
	assert.Equal(t, "version", sampleManifest[tv.ClauseStart:tv.ClauseStart+len("version")])
	assert.Equal(t, -1, tv.Separator)
}

func TestParseStructuralTablesAreUntagged(t *testing.T) {
	doc, err := Parse(sampleManifest)
	require.NoError(t, err)

	node, ok := doc.Get(Key("package"))
	require.True(t, ok)
	_, tagged := node.(*TaggedValue)
	assert.False(t, tagged, "[package] is structural, not a value")

	node, ok = doc.Get(Key("dependencies", "gadget"))
	require.True(t, ok)
	_, tagged = node.(*TaggedValue)
	assert.True(t, tagged, "inline table sits in assignment position")
}

func TestParseRecordsInlineSeparators(t *testing.T) {
	src := `deps = { a = 1, b = 2, c = 3 }`
	doc, err := Parse(src)
	require.NoError(t, err)

	node, ok := doc.Get(Key("deps", "b"))
	require.True(t, ok)
	tv := node.(*TaggedValue)
	require.GreaterOrEqual(t, tv.Separator, 0)
	assert.Equal(t, byte(','), src[tv.Separator])

	node, _ = doc.Get(Key("deps", "a"))
	assert.Equal(t, -1, node.(*TaggedValue).Separator, "first entry has no preceding comma")
}

func TestParseMalformedSurfacesParserError(t *testing.T) {
	_, err := Parse("[unclosed\nkey = ")
	require.Error(t, err)
	var pnf *PathNotFoundError
	assert.False(t, errors.As(err, &pnf), "parser errors are surfaced unchanged")
}

func TestReplaceNoOpIsByteIdentical(t *testing.T) {
	out, err := Replace(sampleManifest, Key("package", "version"), "1.2.3")
	require.NoError(t, err)
	assert.Equal(t, sampleManifest, out)
}

func TestReplacePreservesFormatting(t *testing.T) {
	out, err := Replace(sampleManifest, Key("package", "version"), "2.0.0")
	require.NoError(t, err)
	assert.Contains(t, out, `version = "2.0.0"`)
	assert.Contains(t, out, "# top comment")
	assert.Contains(t, out, `name = "widget" # keep me`)
	// Only the targeted bytes may change.
	assert.Contains(t, out, `gadget = { path = "../gadget", version = "1.0.0" }`)
}

func TestReplaceInsideInlineTable(t *testing.T) {
	out, err := Replace(sampleManifest, Key("dependencies", "gadget", "version"), "2.0.0")
	require.NoError(t, err)
	assert.Contains(t, out, `gadget = { path = "../gadget", version = "2.0.0" }`)
}

func TestReplaceWholeArray(t *testing.T) {
	out, err := Replace(sampleManifest, Key("workspace", "members"), []string{"widget", "gizmo"})
	require.NoError(t, err)
	assert.Contains(t, out, `members = ["widget", "gizmo"]`)
}

func TestReplacePathNotFound(t *testing.T) {
	_, err := Replace(sampleManifest, Key("dependencies", "missing", "version"), "1.0.0")
	var pnf *PathNotFoundError
	require.ErrorAs(t, err, &pnf)
}

func TestReplaceStructuralTargetFails(t *testing.T) {
	_, err := Replace(sampleManifest, Key("package"), "nope")
	var ntv *NotATaggedValueError
	require.ErrorAs(t, err, &ntv)
}

func TestReplaceNeverCreatesTables(t *testing.T) {
	_, err := Replace(`[package]`+"\n"+`name = "x"`+"\n", Key("dependencies", "a"), "1")
	var pnf *PathNotFoundError
	require.ErrorAs(t, err, &pnf)
}

func TestDeleteMiddleArrayElement(t *testing.T) {
	src := "values = [1, 2, 3]\n"
	out, err := Delete(src, Path{"values", 1})
	require.NoError(t, err)
	assert.Equal(t, "values = [1, 3]\n", out)
}

func TestDeleteFirstArrayElement(t *testing.T) {
	src := "values = [1, 2, 3]\n"
	out, err := Delete(src, Path{"values", 0})
	require.NoError(t, err)
	assert.Equal(t, "values = [2, 3]\n", out)
}

func TestDeleteInlineTableEntryRemovesSeparator(t *testing.T) {
	src := `foo = { path = "../foo", version = "2.0.0" }` + "\n"

	out, err := Delete(src, Key("foo", "path"))
	require.NoError(t, err)
	assert.Equal(t, `foo = { version = "2.0.0" }`+"\n", out)

	out, err = Delete(src, Key("foo", "version"))
	require.NoError(t, err)
	assert.Equal(t, `foo = { path = "../foo" }`+"\n", out)
}

func TestDeleteWholeClause(t *testing.T) {
	src := "[table]\na = 1\nb = 2\n"
	out, err := Delete(src, Key("table", "a"))
	require.NoError(t, err)

	doc, err := Parse(out)
	require.NoError(t, err)
	_, ok := doc.Get(Key("table", "a"))
	assert.False(t, ok)
	_, ok = doc.Get(Key("table", "b"))
	assert.True(t, ok)
}

func TestCorruptionSelfCheck(t *testing.T) {
	// verify guards every edit; a result the plain parser rejects must be a
	// CorruptionError, never a silently returned string.
	_, err := verify("key = = broken")
	var ce *CorruptionError
	require.ErrorAs(t, err, &ce)
	assert.Error(t, ce.Unwrap())

	_, err = verify(sampleManifest)
	assert.NoError(t, err)
}

func TestDottedKeysAndArrayTables(t *testing.T) {
	src := "[[bin]]\nname = \"one\"\n\n[[bin]]\nname = \"two\"\npath.to.thing = 7\n"
	doc, err := Parse(src)
	require.NoError(t, err)

	bins, ok := doc.Get(Key("bin"))
	require.True(t, ok)
	arr, ok := bins.([]any)
	require.True(t, ok)
	require.Len(t, arr, 2)

	node, ok := doc.Get(Path{"bin", 1, "path", "to", "thing"})
	require.True(t, ok)
	assert.Equal(t, int64(7), node.(*TaggedValue).Value)
}

func TestUntag(t *testing.T) {
	doc, err := Parse(sampleManifest)
	require.NoError(t, err)

	plain := Untag(doc).(map[string]any)
	pkg := plain["package"].(map[string]any)
	assert.Equal(t, "widget", pkg["name"])

	deps := plain["dependencies"].(map[string]any)
	gadget := deps["gadget"].(map[string]any)
	assert.Equal(t, "../gadget", gadget["path"])
}

func TestNestedArraySpans(t *testing.T) {
	src := `matrix = [[1, 2], ["a", "b"]]` + "\n"
	doc, err := Parse(src)
	require.NoError(t, err)

	node, ok := doc.Get(Path{"matrix", 1, 0})
	require.True(t, ok)
	tv := node.(*TaggedValue)
	assert.Equal(t, `"a"`, src[tv.Start:tv.End])

	out, err := Replace(src, Path{"matrix", 1, 0}, "z")
	require.NoError(t, err)
	assert.Equal(t, `matrix = [[1, 2], ["z", "b"]]`+"\n", out)
}
