package tomlpatch

import (
	"fmt"
	"strconv"

	"github.com/pelletier/go-toml/v2/unstable"
)

// TaggedValue is a parsed TOML value annotated with the byte span it occupies
// in the source text.
type TaggedValue struct {
	// Value holds the parsed value: string, int64, float64 or bool for
	// scalars (date-times are kept as their raw text), []any for arrays and
	// map[string]any for inline tables. Sequence elements and inline-table
	// entry values are themselves *TaggedValue.
	Value any

	// Start and End delimit the value bytes as [Start, End).
	Start int
	End   int

	// ClauseStart is the offset where the enclosing "key = value" clause
	// begins. For array elements it equals Start.
	ClauseStart int

	// Separator is the offset of the comma preceding this value inside an
	// inline sequence, or -1 when the value has no preceding separator.
	Separator int
}

// Document is the root table of a span-tagged parse. Structural tables
// ([table], [[table]]) appear as plain map[string]any / []any; only values in
// assignment position are tagged.
type Document map[string]any

// Get walks path through the document, unwrapping tags along the way, and
// returns the node it lands on (which may itself be a *TaggedValue).
func (d Document) Get(path Path) (any, bool) {
	var cur any = map[string]any(d)
	for _, part := range path {
		if tv, ok := cur.(*TaggedValue); ok {
			cur = tv.Value
		}
		switch key := part.(type) {
		case string:
			m, ok := cur.(map[string]any)
			if !ok {
				return nil, false
			}
			next, ok := m[key]
			if !ok {
				return nil, false
			}
			cur = next
		case int:
			arr, ok := cur.([]any)
			if !ok || key < 0 || key >= len(arr) {
				return nil, false
			}
			cur = arr[key]
		default:
			return nil, false
		}
	}
	return cur, true
}

// Untag recursively strips span tags, yielding plain maps, slices and scalars.
func Untag(v any) any {
	switch x := v.(type) {
	case *TaggedValue:
		return Untag(x.Value)
	case Document:
		return Untag(map[string]any(x))
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, e := range x {
			m[k] = Untag(e)
		}
		return m
	case []any:
		s := make([]any, len(x))
		for i, e := range x {
			s[i] = Untag(e)
		}
		return s
	default:
		return v
	}
}

// Parse builds the span-tagged value tree for content. Malformed input fails
// with the underlying parser's error, unchanged.
func Parse(content string) (Document, error) {
	src := []byte(content)
	p := &unstable.Parser{}
	p.Reset(src)

	root := make(map[string]any)
	current := root

	for p.NextExpression() {
		expr := p.Expression()
		switch expr.Kind {
		case unstable.Table:
			tbl, err := openTable(root, expr, false)
			if err != nil {
				return nil, err
			}
			current = tbl
		case unstable.ArrayTable:
			tbl, err := openTable(root, expr, true)
			if err != nil {
				return nil, err
			}
			current = tbl
		case unstable.KeyValue:
			if err := insertKeyValue(src, current, expr); err != nil {
				return nil, err
			}
		}
	}
	if err := p.Error(); err != nil {
		return nil, err
	}
	return root, nil
}

type keyPart struct {
	text string
	raw  unstable.Range
}

func keyParts(n *unstable.Node) []keyPart {
	var parts []keyPart
	it := n.Key()
	for it.Next() {
		k := it.Node()
		parts = append(parts, keyPart{text: string(k.Data), raw: k.Raw})
	}
	return parts
}

// openTable navigates (creating as needed) to the table named by a [table] or
// [[table]] expression and returns the map new key-values should land in.
func openTable(root map[string]any, expr *unstable.Node, arrayTable bool) (map[string]any, error) {
	parts := keyParts(expr)
	if len(parts) == 0 {
		return nil, fmt.Errorf("table header without a name")
	}

	cur := root
	for i, part := range parts {
		last := i == len(parts)-1

		if last && arrayTable {
			var arr []any
			if existing, ok := cur[part.text]; ok {
				a, ok := existing.([]any)
				if !ok {
					return nil, fmt.Errorf("cannot extend %q as an array of tables", part.text)
				}
				arr = a
			}
			m := make(map[string]any)
			cur[part.text] = append(arr, m)
			return m, nil
		}

		existing, ok := cur[part.text]
		if !ok {
			m := make(map[string]any)
			cur[part.text] = m
			cur = m
			continue
		}
		switch v := existing.(type) {
		case map[string]any:
			cur = v
		case []any:
			// A [table.sub] header under an array of tables targets the
			// most recent element.
			if len(v) == 0 {
				return nil, fmt.Errorf("array of tables %q has no elements", part.text)
			}
			m, ok := v[len(v)-1].(map[string]any)
			if !ok {
				return nil, fmt.Errorf("cannot open %q as a table", part.text)
			}
			cur = m
		default:
			return nil, fmt.Errorf("cannot redefine %q as a table", part.text)
		}
	}
	return cur, nil
}

// insertKeyValue tags the value of one key = value expression and stores it
// under its (possibly dotted) key in table.
func insertKeyValue(src []byte, table map[string]any, expr *unstable.Node) error {
	parts := keyParts(expr)
	if len(parts) == 0 {
		return fmt.Errorf("key-value expression without a key")
	}
	clauseStart := int(parts[0].raw.Offset)

	cur := table
	for _, part := range parts[:len(parts)-1] {
		existing, ok := cur[part.text]
		if !ok {
			m := make(map[string]any)
			cur[part.text] = m
			cur = m
			continue
		}
		m, ok := existing.(map[string]any)
		if !ok {
			return fmt.Errorf("cannot redefine %q as a table", part.text)
		}
		cur = m
	}

	last := parts[len(parts)-1]
	valueStart, err := assignedValueStart(src, int(last.raw.Offset)+int(last.raw.Length))
	if err != nil {
		return err
	}
	tv, err := tagValue(src, expr.Value(), clauseStart, valueStart, -1)
	if err != nil {
		return err
	}
	cur[last.text] = tv
	return nil
}

// tagValue converts a parsed value node into a TaggedValue. clauseStart is
// the offset of the enclosing assignment (or the value itself for sequence
// elements), valueStart the offset of the value's first byte and sep the
// offset of a preceding comma, -1 when none. Only the value node passed in is
// tagged; nested punctuation never produces its own tag.
func tagValue(src []byte, n *unstable.Node, clauseStart, valueStart, sep int) (*TaggedValue, error) {
	switch n.Kind {
	case unstable.Array:
		return tagArray(src, n, clauseStart, valueStart, sep)
	case unstable.InlineTable:
		return tagInlineTable(src, n, clauseStart, valueStart, sep)
	default:
		start := int(n.Raw.Offset)
		end := start + int(n.Raw.Length)
		v, err := scalarValue(n)
		if err != nil {
			return nil, err
		}
		return &TaggedValue{Value: v, Start: start, End: end, ClauseStart: clauseStart, Separator: sep}, nil
	}
}

func tagArray(src []byte, n *unstable.Node, clauseStart, valueStart, sep int) (*TaggedValue, error) {
	end, err := scanContainerEnd(src, valueStart)
	if err != nil {
		return nil, err
	}

	elems := []any{}
	cursor := valueStart + 1
	prevEnd := valueStart + 1
	first := true
	it := n.Children()
	for it.Next() {
		child := it.Node()
		var elemStart int
		if child.Kind == unstable.Array || child.Kind == unstable.InlineTable {
			elemStart = skipTrivia(src, cursor)
		} else {
			elemStart = int(child.Raw.Offset)
		}
		elemSep := -1
		if !first {
			elemSep = findSeparator(src, prevEnd, elemStart)
		}
		tv, err := tagValue(src, child, elemStart, elemStart, elemSep)
		if err != nil {
			return nil, err
		}
		elems = append(elems, tv)
		cursor = tv.End
		prevEnd = tv.End
		first = false
	}

	return &TaggedValue{Value: elems, Start: valueStart, End: end, ClauseStart: clauseStart, Separator: sep}, nil
}

func tagInlineTable(src []byte, n *unstable.Node, clauseStart, valueStart, sep int) (*TaggedValue, error) {
	end, err := scanContainerEnd(src, valueStart)
	if err != nil {
		return nil, err
	}

	entries := make(map[string]any)
	prevEnd := valueStart + 1
	first := true
	it := n.Children()
	for it.Next() {
		kv := it.Node()
		parts := keyParts(kv)
		if len(parts) == 0 {
			return nil, fmt.Errorf("inline table entry without a key")
		}
		entryClause := int(parts[0].raw.Offset)
		entrySep := -1
		if !first {
			entrySep = findSeparator(src, prevEnd, entryClause)
		}

		cur := entries
		for _, part := range parts[:len(parts)-1] {
			existing, ok := cur[part.text]
			if !ok {
				m := make(map[string]any)
				cur[part.text] = m
				cur = m
				continue
			}
			m, ok := existing.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("cannot redefine %q as a table", part.text)
			}
			cur = m
		}
		last := parts[len(parts)-1]
		vStart, err := assignedValueStart(src, int(last.raw.Offset)+int(last.raw.Length))
		if err != nil {
			return nil, err
		}
		tv, err := tagValue(src, kv.Value(), entryClause, vStart, entrySep)
		if err != nil {
			return nil, err
		}
		cur[last.text] = tv
		prevEnd = tv.End
		first = false
	}

	return &TaggedValue{Value: entries, Start: valueStart, End: end, ClauseStart: clauseStart, Separator: sep}, nil
}

func scalarValue(n *unstable.Node) (any, error) {
	switch n.Kind {
	case unstable.String:
		return string(n.Data), nil
	case unstable.Bool:
		return string(n.Data) == "true", nil
	case unstable.Integer:
		v, err := strconv.ParseInt(string(n.Data), 0, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q: %w", n.Data, err)
		}
		return v, nil
	case unstable.Float:
		v, err := strconv.ParseFloat(string(n.Data), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float %q: %w", n.Data, err)
		}
		return v, nil
	default:
		// Date-time kinds carry no manifest semantics; keep the raw text.
		return string(n.Data), nil
	}
}
