// Package similarity scores how alike two short titles are.
package similarity

import (
	"math"
	"strings"
	"unicode"
)

// Score returns the normalized longest-common-subsequence similarity of a and b,
// in [0, 1]: lcs / sqrt(len(a) * len(b)) over runes after normalization.
// 1 - Score grows with the insert/delete edit distance between the titles.
// It is case-insensitive, deterministic and symmetric. Empty input scores 0.
func Score(a, b string) float64 {
	left := []rune(normalize(a))
	right := []rune(normalize(b))
	if len(left) == 0 || len(right) == 0 {
		return 0
	}
	if string(left) == string(right) {
		return 1
	}

	common := lcsLength(left, right)
	if common == 0 {
		return 0
	}

	score := float64(common) / math.Sqrt(float64(len(left))*float64(len(right)))
	if score > 1 {
		return 1
	}
	return score
}

// lcsLength is the classic two-row dynamic program.
func lcsLength(left, right []rune) int {
	if len(left) < len(right) {
		left, right = right, left
	}

	prev := make([]int, len(right)+1)
	cur := make([]int, len(right)+1)
	for _, l := range left {
		for j, r := range right {
			switch {
			case l == r:
				cur[j+1] = prev[j] + 1
			case prev[j+1] >= cur[j]:
				cur[j+1] = prev[j+1]
			default:
				cur[j+1] = cur[j]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(right)]
}

func normalize(input string) string {
	trimmed := strings.TrimSpace(strings.ToLower(input))
	if trimmed == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(trimmed))
	lastSpace := false
	for _, r := range trimmed {
		if unicode.IsSpace(r) {
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	return strings.TrimSpace(b.String())
}
