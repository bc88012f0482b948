// Package semver compares firmware version strings of the form major.minor.patch.
package semver

import (
	"strconv"
	"strings"
)

// Version is a decomposed major.minor.patch triple.
type Version struct {
	Major int
	Minor int
	Patch int
}

// Parse decomposes v into its first three dot-separated components.
// Each component is read from its leading decimal digits; a missing or
// non-numeric component is 0. A single leading "v" or "V" is ignored.
// ok is false when any of the three components was missing, not numeric or
// too large for an int; such a component is 0.
func Parse(v string) (parsed Version, ok bool) {
	v = strings.TrimSpace(v)
	if len(v) > 0 && (v[0] == 'v' || v[0] == 'V') {
		v = v[1:]
	}

	parts := strings.SplitN(v, ".", 4)
	fields := [3]int{}
	ok = true
	for i := range fields {
		if i >= len(parts) {
			ok = false
			continue
		}
		n, valid := leadingInt(parts[i])
		if !valid {
			ok = false
		}
		fields[i] = n
	}

	return Version{Major: fields[0], Minor: fields[1], Patch: fields[2]}, ok
}

// leadingInt reads the decimal digits at the start of s. It reports false
// when there are none or when they overflow an int.
func leadingInt(s string) (int, bool) {
	digits := 0
	for digits < len(s) && s[digits] >= '0' && s[digits] <= '9' {
		digits++
	}
	if digits == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:digits])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Compare returns -1 if a < b, 0 if a == b, 1 if a > b.
func (a Version) Compare(b Version) int {
	switch {
	case a.Major != b.Major:
		return cmpInt(a.Major, b.Major)
	case a.Minor != b.Minor:
		return cmpInt(a.Minor, b.Minor)
	default:
		return cmpInt(a.Patch, b.Patch)
	}
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// IsNewer reports whether remote is strictly newer than current.
// Components are compared as integers, so "1.10.0" is newer than "1.9.0".
func IsNewer(remote, current string) bool {
	r, _ := Parse(remote)
	c, _ := Parse(current)
	return r.Compare(c) > 0
}
