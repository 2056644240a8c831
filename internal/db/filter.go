package db

import (
	"strings"

	"github.com/jmborr/qefdata/internal/model"
)

// FilterDatasetsByTokens returns the subset of `datasets` that match all tokens.
// Matching is case-insensitive and tests name, kind, source, and tags for
// substring containment. If `tokens` is nil or empty, the original slice is returned.
func FilterDatasetsByTokens(datasets []model.Dataset, tokens []string) []model.Dataset {
	if len(tokens) == 0 {
		return datasets
	}
	out := make([]model.Dataset, 0, len(datasets))
	for _, d := range datasets {
		// prepare lowercase fields
		name := strings.ToLower(d.Name)
		kind := strings.ToLower(string(d.Kind))
		source := strings.ToLower(string(d.Source))
		tags := strings.ToLower(d.Tags)

		matchedAll := true
		for _, tok := range tokens {
			tok = strings.ToLower(strings.TrimSpace(tok))
			if tok == "" {
				continue
			}
			if !strings.Contains(name, tok) && !strings.Contains(kind, tok) && !strings.Contains(source, tok) && !strings.Contains(tags, tok) {
				matchedAll = false
				break
			}
		}
		if matchedAll {
			out = append(out, d)
		}
	}
	return out
}
