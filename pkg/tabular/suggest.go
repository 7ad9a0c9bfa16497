package tabular

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// suggestColumns maps each missing column to the closest header the file does
// have, so near misses like "E-mail" or "UPN" are easy to spot.
func suggestColumns(missing, header []string) map[string]string {
	out := make(map[string]string)
	for _, want := range missing {
		a := stripSeparators(want)
		best, bestDist := "", -1
		for _, h := range header {
			b := stripSeparators(h)
			if b == "" {
				continue
			}
			if !fuzzy.MatchNormalizedFold(a, b) && !fuzzy.MatchNormalizedFold(b, a) {
				continue
			}
			d := fuzzy.LevenshteinDistance(strings.ToLower(a), strings.ToLower(b))
			if bestDist < 0 || d < bestDist {
				best, bestDist = h, d
			}
		}
		if best != "" {
			out[want] = best
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func stripSeparators(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_', '.':
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
