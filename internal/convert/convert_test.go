package convert

import (
	"strings"
	"testing"

	"github.com/Krande/paradoc-go/internal/crossref"
	"github.com/Krande/paradoc-go/internal/registry"
	"github.com/Krande/paradoc-go/internal/wml"
)

// captionFor registers one item with a caption paragraph carrying the
// given rendered number.
func captionFor(reg *registry.Registry, register func(string, *wml.Paragraph) string, id, rendered string) {
	p := wml.NewParagraph("Image Caption")
	p.AppendText(rendered)
	register(id, p)
}

func refInstructions(p *wml.Paragraph) []string {
	var out []string
	for _, r := range p.Runs() {
		for _, c := range r.Children {
			if it, ok := c.(*wml.InstrText); ok && strings.Contains(it.Value, "REF ") {
				out = append(out, it.Value)
			}
		}
	}
	return out
}

func TestConvertByTextPattern(t *testing.T) {
	reg := registry.New(nil)
	captionFor(reg, reg.RegisterFigure, "a", "Figure 1-1: First")
	captionFor(reg, reg.RegisterFigure, "b", "Figure 1-2: Second")
	reg.UpdateDisplayNumbers()

	doc := &wml.Document{}
	p := doc.AddParagraph("")
	p.AppendText("Compare Figure 1-1 with Figure 1-2 for details.")

	c := New(reg, nil)
	c.ConvertByTextPattern(doc)

	instrs := refInstructions(p)
	if len(instrs) != 2 {
		t.Fatalf("expected 2 REF fields, got %v", instrs)
	}
	bmA, _ := reg.Bookmark(crossref.Figure, "a")
	bmB, _ := reg.Bookmark(crossref.Figure, "b")
	if !strings.Contains(instrs[0], bmA) || !strings.Contains(instrs[1], bmB) {
		t.Errorf("fields target wrong bookmarks: %v", instrs)
	}
	if got := p.Text(); !strings.HasPrefix(got, "Compare ") || !strings.HasSuffix(got, " for details.") {
		t.Errorf("literal text mangled: %q", got)
	}
	// The matched label text must be gone.
	if strings.Contains(p.Text(), "Figure 1-1") {
		t.Errorf("source citation text survived: %q", p.Text())
	}
}

func TestConvertByTextPatternSequentialNumbers(t *testing.T) {
	reg := registry.New(nil)
	captionFor(reg, reg.RegisterTable, "x", "Table 3-1: Data")
	reg.UpdateDisplayNumbers()

	doc := &wml.Document{}
	p := doc.AddParagraph("")
	// "Table 1" resolves by sequential position when no display number
	// matches.
	p.AppendText("As shown in Table 1 below.")

	New(reg, nil).ConvertByTextPattern(doc)
	if len(refInstructions(p)) != 1 {
		t.Fatalf("sequential number not resolved: %q", p.Text())
	}
}

func TestConvertByTextPatternUnresolvedLeftAsText(t *testing.T) {
	reg := registry.New(nil)
	captionFor(reg, reg.RegisterFigure, "a", "Figure 1-1: Only")
	reg.UpdateDisplayNumbers()

	doc := &wml.Document{}
	p := doc.AddParagraph("")
	p.AppendText("See Figure 9-9 and Figure 1-1.")

	New(reg, nil).ConvertByTextPattern(doc)

	if got := len(refInstructions(p)); got != 1 {
		t.Fatalf("expected 1 converted citation, got %d", got)
	}
	if !strings.Contains(p.Text(), "Figure 9-9") {
		t.Errorf("unresolved citation text lost: %q", p.Text())
	}
}

func TestConvertByTextPatternIdenticalPlaceholderFallback(t *testing.T) {
	// Unevaluated numbering fields render every caption with the same
	// placeholder; positions become the only signal.
	reg := registry.New(nil)
	captionFor(reg, reg.RegisterFigure, "a", "Figure 1-1: First")
	captionFor(reg, reg.RegisterFigure, "b", "Figure 1-1: Second")
	reg.UpdateDisplayNumbers()

	doc := &wml.Document{}
	p := doc.AddParagraph("")
	p.AppendText("First is Figure 1-1; second is Figure 1-1.")

	New(reg, nil).ConvertByTextPattern(doc)

	instrs := refInstructions(p)
	if len(instrs) != 2 {
		t.Fatalf("fallback did not convert both: %v", instrs)
	}
	bmA, _ := reg.Bookmark(crossref.Figure, "a")
	bmB, _ := reg.Bookmark(crossref.Figure, "b")
	if !strings.Contains(instrs[0], bmA) || !strings.Contains(instrs[1], bmB) {
		t.Errorf("occurrence order not respected: %v", instrs)
	}
}

func TestConvertSkipsCaptionParagraphs(t *testing.T) {
	reg := registry.New(nil)
	captionFor(reg, reg.RegisterFigure, "a", "Figure 1-1: First")
	reg.UpdateDisplayNumbers()

	doc := &wml.Document{}
	cap := doc.AddParagraph("Image Caption")
	cap.AppendText("Figure 1-1: First")

	New(reg, nil).ConvertByTextPattern(doc)
	if len(refInstructions(cap)) != 0 {
		t.Error("caption paragraph was converted")
	}
}

func TestConvertByHyperlinks(t *testing.T) {
	reg := registry.New(nil)
	bm := reg.RegisterFigure("trends", nil)

	doc := &wml.Document{}
	p := doc.AddParagraph("")
	p.AppendText("The data in Fig. ")
	p.Children = append(p.Children, &wml.Hyperlink{
		Anchor: "fig:trends",
		Runs:   []*wml.Run{{Children: []wml.RunChild{&wml.Text{Value: "1"}}}},
	})
	p.AppendText(" confirms this.")

	New(reg, nil).ConvertByHyperlinks(doc)

	instrs := refInstructions(p)
	if len(instrs) != 1 || !strings.Contains(instrs[0], bm) {
		t.Fatalf("hyperlink not rewritten: %v", instrs)
	}
	// The duplicate abbreviation before the link is stripped; the REF
	// result renders the full label.
	first := p.Children[0].(*wml.Run)
	if got := first.Text(); got != "The data in " {
		t.Errorf("abbreviation not stripped: %q", got)
	}
	if got := p.Text(); !strings.HasSuffix(got, " confirms this.") {
		t.Errorf("trailing text lost: %q", got)
	}
}

func TestConvertByHyperlinksKeepsWordsEndingInAbbrev(t *testing.T) {
	// A word that merely ends with the abbreviation is not a duplicate
	// label and must survive the strip intact.
	reg := registry.New(nil)
	reg.RegisterFigure("trends", nil)

	doc := &wml.Document{}
	p := doc.AddParagraph("")
	p.AppendText("Edit the Config. ")
	p.Children = append(p.Children, &wml.Hyperlink{
		Anchor: "fig:trends",
		Runs:   []*wml.Run{{Children: []wml.RunChild{&wml.Text{Value: "1"}}}},
	})

	New(reg, nil).ConvertByHyperlinks(doc)

	if len(refInstructions(p)) != 1 {
		t.Fatal("hyperlink not rewritten")
	}
	first := p.Children[0].(*wml.Run)
	if got := first.Text(); got != "Edit the Config. " {
		t.Errorf("preceding word mangled: %q", got)
	}
}

func TestConvertByHyperlinksStripsBareAbbrev(t *testing.T) {
	// The run consisting of only the abbreviation is the standalone-token
	// edge: before is empty after the strip.
	reg := registry.New(nil)
	reg.RegisterTable("raw", nil)

	doc := &wml.Document{}
	p := doc.AddParagraph("")
	p.AppendText("Tbl. ")
	p.Children = append(p.Children, &wml.Hyperlink{
		Anchor: "tbl:raw",
		Runs:   []*wml.Run{{Children: []wml.RunChild{&wml.Text{Value: "1"}}}},
	})

	New(reg, nil).ConvertByHyperlinks(doc)

	first := p.Children[0].(*wml.Run)
	if got := first.Text(); got != "" {
		t.Errorf("bare abbreviation survived: %q", got)
	}
}

func TestConvertByHyperlinksAutoRegisters(t *testing.T) {
	reg := registry.New(nil)

	doc := &wml.Document{}
	p := doc.AddParagraph("")
	p.Children = append(p.Children, &wml.Hyperlink{
		Anchor: "tbl:unknown",
		Runs:   []*wml.Run{{Children: []wml.RunChild{&wml.Text{Value: "Table 1"}}}},
	})

	New(reg, nil).ConvertByHyperlinks(doc)

	bm, ok := reg.Bookmark(crossref.Table, "unknown")
	if !ok {
		t.Fatal("anchor was not auto-registered")
	}
	instrs := refInstructions(p)
	if len(instrs) != 1 || !strings.Contains(instrs[0], bm) {
		t.Errorf("rewrite missing: %v", instrs)
	}
}

func TestConvertByHyperlinksIgnoresExternalAnchors(t *testing.T) {
	reg := registry.New(nil)
	doc := &wml.Document{}
	p := doc.AddParagraph("")
	p.Children = append(p.Children, &wml.Hyperlink{
		Anchor: "sec:intro",
		Runs:   []*wml.Run{{Children: []wml.RunChild{&wml.Text{Value: "Introduction"}}}},
	})

	New(reg, nil).ConvertByHyperlinks(doc)
	if len(refInstructions(p)) != 0 {
		t.Error("non-reference anchor was rewritten")
	}
}
