// Copyright (c) 2026 QEFData Team
// QEFData - data distribution toolkit for the qef project
// This source code is licensed under the MIT license found in the LICENSE file.

package index

import (
	"regexp"
	"strconv"
	"strings"
)

// preRe matches the pre-release markers Python packages use inside a
// version segment ("1.0.7rc1", "2.0.dev3", "0.3b2").
var preRe = regexp.MustCompile(`(?i)(a|b|c|rc|alpha|beta|dev|pre)\d*$`)

// isPrerelease reports whether any segment of v carries a pre-release marker.
func isPrerelease(v string) bool {
	for _, seg := range strings.Split(v, ".") {
		if seg == "" {
			continue
		}
		if _, rest := splitNum(seg); rest != "" && preRe.MatchString(seg) {
			return true
		}
	}
	return false
}

// compareVersions orders two loose version strings segment by segment.
// Numeric parts compare numerically; within an equal numeric part a bare
// segment outranks one with a suffix, so 1.0.7 > 1.0.7rc2 > 1.0.7rc1.
// Missing segments count as zero (1.0 == 1.0.0).
func compareVersions(a, b string) int {
	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}
	for i := 0; i < n; i++ {
		if c := compareSegment(segment(as, i), segment(bs, i)); c != 0 {
			return c
		}
	}
	return 0
}

func segment(parts []string, i int) string {
	if i < len(parts) {
		return parts[i]
	}
	return "0"
}

func compareSegment(a, b string) int {
	an, arest := splitNum(a)
	bn, brest := splitNum(b)
	if an != bn {
		if an < bn {
			return -1
		}
		return 1
	}
	if arest == brest {
		return 0
	}
	// a plain numeric segment outranks the same numeric with a suffix
	if arest == "" {
		return 1
	}
	if brest == "" {
		return -1
	}
	return strings.Compare(strings.ToLower(arest), strings.ToLower(brest))
}

// splitNum splits a segment into its leading integer and the remainder.
func splitNum(s string) (int, string) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, s
	}
	n, err := strconv.Atoi(s[:i])
	if err != nil {
		// longer than an int; saturate rather than fail
		n = int(^uint(0) >> 1)
	}
	return n, s[i:]
}
