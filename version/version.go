// Package version implements the scenario document's SemanticVersion
// (spec §6): "M.m.p[-build]", ordered lexicographically on (major, minor,
// patch); a change in major triggers the store manager's scenario-scope
// reset (spec §4.5, §9).
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// SemanticVersion is a parsed "MAJOR.MINOR.PATCH[-build]" version string.
type SemanticVersion struct {
	Major int
	Minor int
	Patch int
	Build string
}

// Parse decodes a "M.m.p[-build]" string.
func Parse(s string) (SemanticVersion, error) {
	var build string
	core := s
	if i := strings.IndexByte(s, '-'); i >= 0 {
		core, build = s[:i], s[i+1:]
	}
	parts := strings.Split(core, ".")
	if len(parts) != 3 {
		return SemanticVersion{}, fmt.Errorf("version: %q is not MAJOR.MINOR.PATCH", s)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return SemanticVersion{}, fmt.Errorf("version: %q: component %q is not numeric", s, p)
		}
		nums[i] = n
	}
	return SemanticVersion{Major: nums[0], Minor: nums[1], Patch: nums[2], Build: build}, nil
}

// String renders back to "M.m.p[-build]".
func (v SemanticVersion) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Build != "" {
		s += "-" + v.Build
	}
	return s
}

// Compare returns -1, 0 or 1 comparing v to other lexicographically on
// (major, minor, patch). Build is not significant to ordering.
func (v SemanticVersion) Compare(other SemanticVersion) int {
	if v.Major != other.Major {
		return cmp(v.Major, other.Major)
	}
	if v.Minor != other.Minor {
		return cmp(v.Minor, other.Minor)
	}
	return cmp(v.Patch, other.Patch)
}

// Less reports whether v orders before other.
func (v SemanticVersion) Less(other SemanticVersion) bool { return v.Compare(other) < 0 }

// MajorChanged reports whether moving from old to new crosses a major
// version boundary, the trigger for a scenario-scope store reset.
func MajorChanged(old, new_ SemanticVersion) bool { return old.Major != new_.Major }

func cmp(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
