package ui

import (
	"sort"
	"strings"

	"xconsole/internal/model"
)

type scoredIdx struct {
	idx   int
	score int
}

// fuzzyMatchScore returns (score, ok). Lower score is better. Matching is a
// case-insensitive subsequence match; runs of consecutive characters and
// matches at word starts cost less.
func fuzzyMatchScore(needle, haystack string) (int, bool) {
	needle = strings.ToLower(needle)
	haystack = strings.ToLower(haystack)
	if needle == "" {
		return 0, true
	}

	score := 0
	j := 0
	last := -1
	for i := 0; i < len(haystack) && j < len(needle); i++ {
		if haystack[i] != needle[j] {
			continue
		}
		switch {
		case last >= 0 && i == last+1:
		case i == 0 || isSeparator(haystack[i-1]):
			score += 1
		default:
			score += i
		}
		last = i
		j++
	}
	if j != len(needle) {
		return 0, false
	}
	return score, true
}

func isSeparator(b byte) bool {
	switch b {
	case ' ', '_', '-', '/', '{', '.':
		return true
	}
	return false
}

// rankOperations returns the indexes of ops matching needle, best first.
// Whitespace separates terms that must all match.
func rankOperations(needle string, ops []model.Operation) []int {
	terms := strings.Fields(needle)
	var scored []scoredIdx
	for i, op := range ops {
		cand := strings.Join([]string{op.Method, op.Path, op.ID, op.Summary, op.Tag()}, " ")
		total, ok := 0, true
		for _, t := range terms {
			s, hit := fuzzyMatchScore(t, cand)
			if !hit {
				ok = false
				break
			}
			total += s
		}
		if ok {
			scored = append(scored, scoredIdx{idx: i, score: total})
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score < scored[j].score
	})
	out := make([]int, len(scored))
	for i, s := range scored {
		out[i] = s.idx
	}
	return out
}
