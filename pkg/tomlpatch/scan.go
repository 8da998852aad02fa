package tomlpatch

import "fmt"

// The scanners below recover spans the expression parser does not report
// directly: container extents, assignment positions and list separators. They
// operate on bytes the parser has already accepted, so failures indicate a
// logic error, not bad input.

// assignedValueStart returns the offset of the first value byte following a
// key that ends at afterKey ("key = value" or "key=value").
func assignedValueStart(src []byte, afterKey int) (int, error) {
	i := afterKey
	for i < len(src) && (src[i] == ' ' || src[i] == '\t') {
		i++
	}
	if i >= len(src) || src[i] != '=' {
		return 0, fmt.Errorf("expected '=' at byte %d", i)
	}
	i++
	for i < len(src) && (src[i] == ' ' || src[i] == '\t') {
		i++
	}
	if i >= len(src) {
		return 0, fmt.Errorf("missing value after '=' at byte %d", i)
	}
	return i, nil
}

// skipTrivia advances past whitespace, newlines, commas and comments.
func skipTrivia(src []byte, i int) int {
	for i < len(src) {
		switch src[i] {
		case ' ', '\t', '\r', '\n', ',':
			i++
		case '#':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		default:
			return i
		}
	}
	return i
}

// scanContainerEnd returns the offset one past the bracket closing the
// container opening at start ('[' or '{'), skipping strings and comments.
func scanContainerEnd(src []byte, start int) (int, error) {
	depth := 0
	i := start
	for i < len(src) {
		switch src[i] {
		case '[', '{':
			depth++
			i++
		case ']', '}':
			depth--
			i++
			if depth == 0 {
				return i, nil
			}
		case '"', '\'':
			end, err := scanStringEnd(src, i)
			if err != nil {
				return 0, err
			}
			i = end
		case '#':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		default:
			i++
		}
	}
	return 0, fmt.Errorf("unterminated container at byte %d", start)
}

// scanStringEnd consumes a TOML string starting at start and returns the
// offset one past its closing quote. Handles basic, literal and both
// multi-line forms.
func scanStringEnd(src []byte, start int) (int, error) {
	q := src[start]
	if start+2 < len(src) && src[start+1] == q && src[start+2] == q {
		i := start + 3
		for i < len(src) {
			if q == '"' && src[i] == '\\' {
				i += 2
				continue
			}
			if i+3 <= len(src) && src[i] == q && src[i+1] == q && src[i+2] == q {
				i += 3
				// The delimiter may be followed by up to two quotes that
				// belong to the string body.
				for extra := 0; extra < 2 && i < len(src) && src[i] == q; extra++ {
					i++
				}
				return i, nil
			}
			i++
		}
		return 0, fmt.Errorf("unterminated multi-line string at byte %d", start)
	}

	i := start + 1
	for i < len(src) {
		c := src[i]
		if c == '\\' && q == '"' {
			i += 2
			continue
		}
		if c == q {
			return i + 1, nil
		}
		if c == '\n' {
			break
		}
		i++
	}
	return 0, fmt.Errorf("unterminated string at byte %d", start)
}

// findSeparator locates the comma between two sequence items in [from, to),
// ignoring comment text. Returns -1 when absent.
func findSeparator(src []byte, from, to int) int {
	for i := from; i < to; i++ {
		switch src[i] {
		case ',':
			return i
		case '#':
			for i < to && src[i] != '\n' {
				i++
			}
		}
	}
	return -1
}

// nextSeparator scans forward from offset for a comma, skipping whitespace,
// newlines and comments. Returns -1 if something else comes first.
func nextSeparator(src []byte, i int) int {
	for i < len(src) {
		switch src[i] {
		case ' ', '\t', '\r', '\n':
			i++
		case '#':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case ',':
			return i
		default:
			return -1
		}
	}
	return -1
}
