package suggest

import (
	"context"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Suggester filters a fixed suggestion catalog by relevance to a problem
// description. The description is the primary signal: an entry matches when
// one of its keywords appears in (or sits within edit distance 1 of) a
// description token. The current code is only a narrow secondary signal via
// entry-specific markers. When nothing matches, the full catalog is returned
// so the caller always gets something to show.
type Suggester struct {
	catalog []Suggestion
}

func New(catalog []Suggestion) *Suggester {
	if len(catalog) == 0 {
		catalog = DefaultCatalog()
	}
	return &Suggester{catalog: append([]Suggestion(nil), catalog...)}
}

func (s *Suggester) Catalog() []Suggestion {
	return append([]Suggestion(nil), s.catalog...)
}

func (s *Suggester) Suggest(ctx context.Context, req Request) ([]Suggestion, error) {
	matched, _, err := s.Match(ctx, req)
	return matched, err
}

// Match is Suggest plus a flag telling the caller whether the full-catalog
// fallback kicked in because nothing matched.
func (s *Suggester) Match(ctx context.Context, req Request) ([]Suggestion, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	desc := strings.ToLower(req.Description)
	tokens := tokenize(desc)

	matched := make([]Suggestion, 0, len(s.catalog))
	for _, entry := range s.catalog {
		if matchesDescription(entry, desc, tokens) || matchesCode(entry, req.Code) {
			matched = append(matched, entry)
		}
	}
	if len(matched) == 0 {
		return append([]Suggestion(nil), s.catalog...), true, nil
	}
	return matched, false, nil
}

func matchesDescription(entry Suggestion, desc string, tokens []string) bool {
	for _, kw := range entry.Keywords {
		kw = strings.ToLower(kw)
		if kw == "" {
			continue
		}
		if strings.Contains(desc, kw) {
			return true
		}
		for _, tok := range tokens {
			if fuzzyEqual(tok, kw) {
				return true
			}
		}
	}
	return false
}

func matchesCode(entry Suggestion, code string) bool {
	if strings.TrimSpace(code) == "" {
		return false
	}
	for _, marker := range entry.CodeMarkers {
		if marker != "" && strings.Contains(code, marker) {
			return true
		}
	}
	return false
}

// fuzzyEqual tolerates a single typo for words long enough that one edit is
// unlikely to change the meaning.
func fuzzyEqual(token, keyword string) bool {
	if len(token) < 5 || len(keyword) < 5 {
		return token == keyword
	}
	return levenshtein.ComputeDistance(token, keyword) <= 1
}

func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z':
			return false
		case r >= '0' && r <= '9':
			return false
		}
		return true
	})
}
