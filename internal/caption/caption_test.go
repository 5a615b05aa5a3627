package caption

import (
	"strings"
	"testing"

	"github.com/Krande/paradoc-go/internal/crossref"
	"github.com/Krande/paradoc-go/internal/registry"
	"github.com/Krande/paradoc-go/internal/wml"
)

func instructions(p *wml.Paragraph) []string {
	var out []string
	for _, r := range p.Runs() {
		for _, c := range r.Children {
			if it, ok := c.(*wml.InstrText); ok {
				out = append(out, it.Value)
			}
		}
	}
	return out
}

func TestRebuildCaption(t *testing.T) {
	b := NewBuilder(registry.New(nil), nil)
	p := wml.NewParagraph("Image Caption")
	p.AppendText("Trend lines")

	b.RebuildCaption(p, "Figure", "Trend lines", false, false)

	if got := p.Text(); got != "Figure -: Trend lines" {
		t.Errorf("literal text = %q", got)
	}
	instrs := instructions(p)
	if len(instrs) != 2 {
		t.Fatalf("expected 2 field instructions, got %v", instrs)
	}
	if instrs[0] != `STYLEREF \s "Heading 1" \n` {
		t.Errorf("scope field = %q", instrs[0])
	}
	if instrs[1] != `SEQ Figure \* ARABIC \s 1` {
		t.Errorf("seq field = %q", instrs[1])
	}
}

func TestRebuildCaptionAppendixRestart(t *testing.T) {
	b := NewBuilder(registry.New(nil), nil)
	p := wml.NewParagraph("Table Caption")

	b.RebuildCaption(p, "Table", "Raw data", true, true)

	instrs := instructions(p)
	if instrs[0] != `STYLEREF \s "Appendix" \n` {
		t.Errorf("appendix scope field = %q", instrs[0])
	}
	if instrs[1] != `SEQ Table \* ARABIC \r 1 \s 1` {
		t.Errorf("restart seq field = %q", instrs[1])
	}
}

func TestBookmarkNumberingSpan(t *testing.T) {
	reg := registry.New(nil)
	b := NewBuilder(reg, nil)
	p := wml.NewParagraph("Image Caption")
	b.RebuildCaption(p, "Figure", "Trend lines", false, false)

	name := b.BookmarkNumberingSpan(p, crossref.Figure, "trends")

	registered, ok := reg.Bookmark(crossref.Figure, "trends")
	if !ok || registered != name {
		t.Fatalf("registry bookmark %q != span name %q", registered, name)
	}
	if got := wml.BookmarkNames(p); len(got) != 1 || got[0] != name {
		t.Fatalf("bookmarks in paragraph: %v", got)
	}
	// The trailing caption text stays outside the span.
	last := p.Children[len(p.Children)-1]
	run, ok := last.(*wml.Run)
	if !ok || run.Text() != ": Trend lines" {
		t.Errorf("last child should be the caption text run, got %T", last)
	}
}

func TestRebuildEquation(t *testing.T) {
	reg := registry.New(nil)
	b := NewBuilder(reg, nil)

	// Composition leaves a whole-paragraph bookmark under the semantic id.
	p := wml.NewParagraph("")
	stale := wml.NormalizeBookmarkName("eq:energy")
	p.Children = append(p.Children, &wml.BookmarkStart{ID: stale, Name: stale})
	p.AppendText("E = mc^2")
	p.Children = append(p.Children, &wml.BookmarkEnd{ID: stale})

	name := b.RebuildEquation(p, "energy", "E = mc^2", false, false)

	names := wml.BookmarkNames(p)
	if len(names) != 1 || names[0] != name {
		t.Fatalf("stale bookmark not replaced: %v", names)
	}
	if !strings.HasPrefix(p.Text(), "E = mc^2\t(Eq. ") {
		t.Errorf("equation layout wrong: %q", p.Text())
	}
	if !strings.HasSuffix(p.Text(), ")") {
		t.Errorf("missing closing paren: %q", p.Text())
	}
	if len(p.TabStops) != 1 || p.TabStops[0].Alignment != wml.TabRight || p.TabStops[0].Twips != 9026 {
		t.Errorf("tab stop = %+v", p.TabStops)
	}
	if _, ok := reg.Bookmark(crossref.Equation, "energy"); !ok {
		t.Error("equation not registered")
	}
}
