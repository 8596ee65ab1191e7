// Package migration upgrades stored documents to the current layout and
// seeds an empty store with sample data.
package migration

import (
	"strconv"
	"strings"
)

// TargetVersion is the data version this build migrates to.
const TargetVersion = "1.0.0"

// CompareVersions compares dot-separated numeric versions and returns -1, 0
// or 1. Missing segments count as 0, so "1.0" equals "1.0.0". Segments that
// are not numbers also count as 0.
func CompareVersions(a, b string) int {
	as, bs := splitVersion(a), splitVersion(b)
	n := max(len(as), len(bs))

	for i := 0; i < n; i++ {
		var x, y int
		if i < len(as) {
			x = as[i]
		}
		if i < len(bs) {
			y = bs[i]
		}
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
	}
	return 0
}

func splitVersion(v string) []int {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ".")
	out := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			n = 0
		}
		out[i] = n
	}
	return out
}
