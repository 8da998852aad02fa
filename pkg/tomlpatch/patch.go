package tomlpatch

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Replace re-parses content, resolves path to a tagged value and splices the
// canonical TOML rendering of value over the existing bytes. A nil value
// deletes the clause instead. The result is always re-validated with the
// plain parser before being returned.
func Replace(content string, path Path, value any) (string, error) {
	if value == nil {
		return Delete(content, path)
	}
	tv, err := resolve(content, path)
	if err != nil {
		return "", err
	}
	rendered, err := encodeValue(value)
	if err != nil {
		return "", err
	}
	return verify(content[:tv.Start] + rendered + content[tv.End:])
}

// Delete removes the whole clause holding the value at path: from the start
// of its "key = " clause (or from its preceding comma, which takes
// precedence, so inline-sequence separators are erased too) through the end
// of the value. A value with no preceding separator consumes a trailing comma
// instead, keeping the surrounding sequence syntactically valid.
func Delete(content string, path Path) (string, error) {
	tv, err := resolve(content, path)
	if err != nil {
		return "", err
	}
	start := tv.ClauseStart
	end := tv.End
	if tv.Separator >= 0 {
		start = tv.Separator
	} else if i := nextSeparator([]byte(content), end); i >= 0 {
		end = i + 1
		for end < len(content) && (content[end] == ' ' || content[end] == '\t') {
			end++
		}
	}
	return verify(content[:start] + content[end:])
}

// resolve parses content and walks path down the tagged tree. Tagged values
// encountered mid-path are unwrapped before descending; the final node must
// itself be tagged.
func resolve(content string, path Path) (*TaggedValue, error) {
	doc, err := Parse(content)
	if err != nil {
		return nil, err
	}

	var cur any = map[string]any(doc)
	for i, part := range path {
		if tv, ok := cur.(*TaggedValue); ok {
			cur = tv.Value
		}
		switch key := part.(type) {
		case string:
			m, ok := cur.(map[string]any)
			if !ok {
				return nil, &PathNotFoundError{Path: path[:i+1]}
			}
			next, ok := m[key]
			if !ok {
				return nil, &PathNotFoundError{Path: path[:i+1]}
			}
			cur = next
		case int:
			arr, ok := cur.([]any)
			if !ok || key < 0 || key >= len(arr) {
				return nil, &PathNotFoundError{Path: path[:i+1]}
			}
			cur = arr[key]
		default:
			return nil, fmt.Errorf("unsupported path element %T at %s", part, path[:i+1])
		}
	}

	tv, ok := cur.(*TaggedValue)
	if !ok {
		return nil, &NotATaggedValueError{Path: path}
	}
	return tv, nil
}

// verify re-parses the edited text with the plain decoder. This self-check is
// mandatory: a span arithmetic bug would otherwise corrupt files silently.
func verify(out string) (string, error) {
	var check map[string]any
	if err := toml.Unmarshal([]byte(out), &check); err != nil {
		return "", &CorruptionError{Err: err}
	}
	return out, nil
}

// encodeValue renders a Go value as canonical TOML.
func encodeValue(v any) (string, error) {
	switch x := v.(type) {
	case *TaggedValue:
		return encodeValue(x.Value)
	case string:
		return encodeString(x), nil
	case bool:
		return strconv.FormatBool(x), nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		return encodeFloat(x), nil
	case []string:
		elems := make([]string, len(x))
		for i, s := range x {
			elems[i] = encodeString(s)
		}
		return "[" + strings.Join(elems, ", ") + "]", nil
	case []any:
		elems := make([]string, len(x))
		for i, e := range x {
			enc, err := encodeValue(e)
			if err != nil {
				return "", err
			}
			elems[i] = enc
		}
		return "[" + strings.Join(elems, ", ") + "]", nil
	default:
		return "", fmt.Errorf("cannot encode %T as a TOML value", v)
	}
}

func encodeString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\u%04X`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}

func encodeFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
