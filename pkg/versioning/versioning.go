// Package versioning parses, compares and bumps semantic versions as they
// appear in package manifests.
package versioning

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type Comparison int

const (
	ComparisonUnknown Comparison = iota
	ComparisonLess
	ComparisonEqual
	ComparisonGreater
)

var semverPattern = regexp.MustCompile(`^(?:[vV])?(\d+)\.(\d+)\.(\d+)(?:-([0-9A-Za-z.-]+))?(?:\+([0-9A-Za-z.-]+))?$`)

type identifier struct {
	raw     string
	numeric bool
	num     int
}

// Version represents a parsed semantic version
type Version struct {
	major      int
	minor      int
	patch      int
	pre        []identifier
	build      string
	raw        string // original string representation
	hasVPrefix bool   // whether the original version had a 'v' prefix
}

// Parse parses a semantic version string, tolerating a leading 'v'.
func Parse(input string) (*Version, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, errors.New("empty version")
	}

	matches := semverPattern.FindStringSubmatch(trimmed)
	if len(matches) == 0 {
		return nil, fmt.Errorf("invalid format")
	}

	major, err := parseSegment(matches[1], "major")
	if err != nil {
		return nil, err
	}
	minor, err := parseSegment(matches[2], "minor")
	if err != nil {
		return nil, err
	}
	patch, err := parseSegment(matches[3], "patch")
	if err != nil {
		return nil, err
	}

	version := &Version{
		major:      major,
		minor:      minor,
		patch:      patch,
		raw:        trimmed,
		hasVPrefix: strings.HasPrefix(trimmed, "v"),
	}

	if prerelease := matches[4]; prerelease != "" {
		parts := strings.Split(prerelease, ".")
		version.pre = make([]identifier, len(parts))
		for i, part := range parts {
			if part == "" {
				return nil, fmt.Errorf("invalid prerelease identifier: empty segment")
			}
			if isNumeric(part) {
				if len(part) > 1 && strings.HasPrefix(part, "0") {
					return nil, fmt.Errorf("invalid prerelease identifier: leading zeros not allowed")
				}
				num, err := strconv.Atoi(part)
				if err != nil {
					return nil, fmt.Errorf("invalid prerelease identifier '%s': %w", part, err)
				}
				version.pre[i] = identifier{raw: part, numeric: true, num: num}
			} else {
				version.pre[i] = identifier{raw: part}
			}
		}
	}

	if build := matches[5]; build != "" {
		for _, part := range strings.Split(build, ".") {
			if part == "" {
				return nil, fmt.Errorf("invalid build identifier: empty segment")
			}
		}
		version.build = build
	}

	return version, nil
}

func parseSegment(s, name string) (int, error) {
	if len(s) > 1 && strings.HasPrefix(s, "0") {
		return 0, fmt.Errorf("invalid %s segment: leading zeros not allowed", name)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("segment '%s': %w", s, err)
	}
	return n, nil
}

// Compare determines ordering between version a and b.
func Compare(a, b string) (Comparison, error) {
	av, err := Parse(a)
	if err != nil {
		return ComparisonUnknown, fmt.Errorf("invalid semver '%s': %w", a, err)
	}
	bv, err := Parse(b)
	if err != nil {
		return ComparisonUnknown, fmt.Errorf("invalid semver '%s': %w", b, err)
	}
	return compareVersions(av, bv), nil
}

func compareVersions(a, b *Version) Comparison {
	if a.major != b.major {
		return orderInt(a.major, b.major)
	}
	if a.minor != b.minor {
		return orderInt(a.minor, b.minor)
	}
	if a.patch != b.patch {
		return orderInt(a.patch, b.patch)
	}

	if len(a.pre) == 0 && len(b.pre) == 0 {
		return ComparisonEqual
	}
	if len(a.pre) == 0 {
		return ComparisonGreater
	}
	if len(b.pre) == 0 {
		return ComparisonLess
	}

	limit := len(a.pre)
	if len(b.pre) < limit {
		limit = len(b.pre)
	}
	for i := 0; i < limit; i++ {
		ai := a.pre[i]
		bi := b.pre[i]
		switch {
		case ai.numeric && bi.numeric:
			if ai.num != bi.num {
				return orderInt(ai.num, bi.num)
			}
		case ai.numeric:
			return ComparisonLess
		case bi.numeric:
			return ComparisonGreater
		default:
			if cmp := strings.Compare(ai.raw, bi.raw); cmp != 0 {
				if cmp < 0 {
					return ComparisonLess
				}
				return ComparisonGreater
			}
		}
	}
	return orderInt(len(a.pre), len(b.pre))
}

func orderInt(a, b int) Comparison {
	if a < b {
		return ComparisonLess
	}
	if a > b {
		return ComparisonGreater
	}
	return ComparisonEqual
}

// String returns the string representation of the version
func (v *Version) String() string {
	if v == nil {
		return ""
	}
	return v.raw
}

// BumpMajor increments the major version and resets minor and patch
func (v *Version) BumpMajor() *Version {
	if v == nil {
		return nil
	}
	return rebuild(v.major+1, 0, 0, v.hasVPrefix)
}

// BumpMinor increments the minor version and resets patch
func (v *Version) BumpMinor() *Version {
	if v == nil {
		return nil
	}
	return rebuild(v.major, v.minor+1, 0, v.hasVPrefix)
}

// BumpPatch increments the patch version
func (v *Version) BumpPatch() *Version {
	if v == nil {
		return nil
	}
	return rebuild(v.major, v.minor, v.patch+1, v.hasVPrefix)
}

// rebuild constructs a bumped version. Prerelease and build metadata are
// cleared on any bump.
func rebuild(major, minor, patch int, vPrefix bool) *Version {
	v := &Version{
		major:      major,
		minor:      minor,
		patch:      patch,
		hasVPrefix: vPrefix,
	}
	v.raw = fmt.Sprintf("%d.%d.%d", major, minor, patch)
	if vPrefix {
		v.raw = "v" + v.raw
	}
	return v
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
