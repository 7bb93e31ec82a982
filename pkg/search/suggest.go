package search

import (
	"context"
	"strings"
)

const (
	defaultSuggestLimit = 10
	maxSuggestLimit     = 25
)

// Suggest returns typeahead suggestions for contract titles. The rule is
// case-insensitive prefix-of-title: "so" matches "Software Development MSA"
// but not "Enterprise Software License". Titles only; body text is never
// consulted, keeping this cheap enough for per-keystroke use.
//
// An empty prefix returns an empty list, not all records.
func (s *Searcher) Suggest(ctx context.Context, tenantID, prefix string, limit int) ([]Suggestion, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return []Suggestion{}, nil
	}

	if limit <= 0 {
		limit = defaultSuggestLimit
	}
	if limit > maxSuggestLimit {
		limit = maxSuggestLimit
	}

	suggestions, err := s.records.SuggestTitles(ctx, tenantID, prefix, limit)
	if err != nil {
		return nil, &Error{Op: "Suggest", Err: ErrStoreUnavailable, Msg: err.Error()}
	}
	if suggestions == nil {
		suggestions = []Suggestion{}
	}

	return suggestions, nil
}
