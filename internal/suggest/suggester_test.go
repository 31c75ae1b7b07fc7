package suggest

import (
	"context"
	"testing"
)

func TestSuggestMatchesDescriptionKeywords(t *testing.T) {
	s := New(nil)
	got, err := s.Suggest(context.Background(), Request{Description: "my loop never stops, the page freezes"})
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if len(got) != 1 || got[0].ID != "infinite-loop" {
		t.Fatalf("expected only infinite-loop, got %+v", ids(got))
	}
}

func TestSuggestFallsBackToFullCatalog(t *testing.T) {
	s := New(nil)
	got, err := s.Suggest(context.Background(), Request{Description: "zzz qqq"})
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if len(got) != len(s.Catalog()) {
		t.Fatalf("expected full catalog fallback, got %d of %d", len(got), len(s.Catalog()))
	}
}

func TestSuggestNeverReturnsEmpty(t *testing.T) {
	s := New(nil)
	got, err := s.Suggest(context.Background(), Request{})
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if len(got) == 0 {
		t.Fatalf("suggest must never return an empty result")
	}
}

func TestSuggestPreservesCatalogOrder(t *testing.T) {
	s := New(nil)
	got, err := s.Suggest(context.Background(), Request{Description: "I see undefined and a null property typeerror"})
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if len(got) < 2 {
		t.Fatalf("expected at least 2 matches, got %+v", ids(got))
	}
	if got[0].ID != "undefined-variable" || got[1].ID != "null-property-access" {
		t.Fatalf("catalog order not preserved: %+v", ids(got))
	}
}

func TestSuggestToleratesSingleTypo(t *testing.T) {
	s := New(nil)
	got, err := s.Suggest(context.Background(), Request{Description: "the value is undefned somehow"})
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	for _, sg := range got {
		if sg.ID == "undefined-variable" && len(got) < len(s.Catalog()) {
			return
		}
	}
	t.Fatalf("expected a fuzzy keyword match, got %+v", ids(got))
}

func TestSuggestCodeIsSecondarySignal(t *testing.T) {
	s := New(nil)
	got, err := s.Suggest(context.Background(), Request{
		Description: "something is broken zzz",
		Code:        "while (true) { work(); }",
	})
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if len(got) != 1 || got[0].ID != "infinite-loop" {
		t.Fatalf("expected code marker to select infinite-loop, got %+v", ids(got))
	}
}

func TestSuggestIgnoresBlankCode(t *testing.T) {
	s := New(nil)
	got, err := s.Suggest(context.Background(), Request{Description: "zzz", Code: "   \n\t"})
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if len(got) != len(s.Catalog()) {
		t.Fatalf("blank code must not match markers, got %+v", ids(got))
	}
}

func ids(sugs []Suggestion) []string {
	out := make([]string, 0, len(sugs))
	for _, s := range sugs {
		out = append(out, s.ID)
	}
	return out
}
