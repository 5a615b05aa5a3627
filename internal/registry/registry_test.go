package registry

import (
	"regexp"
	"testing"

	"github.com/Krande/paradoc-go/internal/crossref"
	"github.com/Krande/paradoc-go/internal/wml"
)

func TestRegisterIdempotent(t *testing.T) {
	r := New(nil)
	first := r.RegisterFigure("trends", nil)
	second := r.RegisterFigure("trends", nil)
	if first != second {
		t.Fatalf("re-registration changed bookmark: %q vs %q", first, second)
	}
	if len(r.AllItems()) != 1 {
		t.Fatalf("duplicate item created: %d", len(r.AllItems()))
	}
	if !regexp.MustCompile(`^_Ref\d{9}$`).MatchString(first) {
		t.Errorf("bookmark format: %q", first)
	}
}

func TestDocumentOrderSharedAcrossKinds(t *testing.T) {
	r := New(nil)
	r.RegisterFigure("a", nil)
	r.RegisterTable("b", nil)
	r.RegisterFigure("c", nil)
	r.RegisterEquation("d", nil)

	for i, item := range r.AllItems() {
		if item.DocumentOrder != i {
			t.Errorf("item %s order = %d, want %d", item.SemanticID, item.DocumentOrder, i)
		}
	}

	figs := r.ItemsInOrder(crossref.Figure)
	if len(figs) != 2 || figs[0].SemanticID != "a" || figs[1].SemanticID != "c" {
		t.Fatalf("figure order wrong: %+v", figs)
	}
	if got := r.BookmarksInOrder(crossref.Figure); len(got) != 2 || got[0] != figs[0].Bookmark {
		t.Errorf("bookmark projection wrong: %v", got)
	}
}

func TestBookmarkLookup(t *testing.T) {
	r := New(nil)
	bm := r.RegisterTable("results", nil)
	if got, ok := r.Bookmark(crossref.Table, "results"); !ok || got != bm {
		t.Errorf("lookup = %q, %v", got, ok)
	}
	if _, ok := r.Bookmark(crossref.Figure, "results"); ok {
		t.Error("lookup crossed kinds")
	}
	if item := r.Item(crossref.Table, "results"); item == nil || item.Bookmark != bm {
		t.Error("item lookup failed")
	}
}

func TestUpdateDisplayNumbers(t *testing.T) {
	r := New(nil)

	p1 := wml.NewParagraph("Image Caption")
	p1.AppendText("Figure 2-1: Trend lines")
	r.RegisterFigure("trends", p1)

	p2 := wml.NewParagraph("Table Caption")
	p2.AppendText("Table A-3: Raw data")
	r.RegisterTable("raw", p2)

	r.RegisterEquation("nocaption", nil)

	r.UpdateDisplayNumbers()
	if got := r.Item(crossref.Figure, "trends").DisplayNumber; got != "2-1" {
		t.Errorf("figure display number = %q", got)
	}
	// Letter scopes are not digit-digit; nothing should match.
	if got := r.Item(crossref.Table, "raw").DisplayNumber; got != "" {
		t.Errorf("letter-scope number unexpectedly matched: %q", got)
	}
	if got := r.Item(crossref.Equation, "nocaption").DisplayNumber; got != "" {
		t.Errorf("caption-less item got a number: %q", got)
	}
}

func TestCounts(t *testing.T) {
	r := New(nil)
	r.RegisterFigure("a", nil)
	r.RegisterFigure("b", nil)
	r.RegisterEquation("e", nil)

	counts := r.Counts()
	if counts["total"] != 3 || counts["Figure"] != 2 || counts["Eq"] != 1 || counts["Table"] != 0 {
		t.Errorf("counts = %v", counts)
	}
}
