package compose

import (
	"testing"

	"github.com/Krande/paradoc-go/internal/config"
	"github.com/Krande/paradoc-go/internal/crossref"
	"github.com/Krande/paradoc-go/internal/pandoc"
	"github.com/Krande/paradoc-go/internal/wml"
)

func str(s string) pandoc.Node { return pandoc.Node{Kind: "Str", Text: s} }

func header(level int, title string) pandoc.Node {
	return pandoc.Node{Kind: "Header", Level: level, Children: []pandoc.Node{str(title)}}
}

func figure(id, caption string) pandoc.Node {
	return pandoc.Node{
		Kind: "Figure",
		Attr: pandoc.Attr{ID: id},
		Children: []pandoc.Node{
			{Kind: "Caption", Children: []pandoc.Node{{Kind: "Plain", Children: []pandoc.Node{str(caption)}}}},
			{Kind: "Plain", Children: []pandoc.Node{{Kind: "Image", Target: "img.png"}}},
		},
	}
}

func newComposer() *Composer { return New(config.DefaultProfile(), nil) }

func TestComposeHeadingStyles(t *testing.T) {
	doc := &pandoc.Doc{Blocks: []pandoc.Node{
		header(1, "Introduction"),
		header(2, "Background"),
		{Kind: "RawBlock", Format: "tex", Text: `\appendix`},
		header(1, "Data Tables"),
	}}

	result := newComposer().Compose(doc)
	paras := result.Document.Paragraphs()
	if len(paras) != 3 {
		t.Fatalf("expected 3 paragraphs, got %d", len(paras))
	}
	if paras[0].Style != "Heading 1" || paras[0].Text() != "Introduction" {
		t.Errorf("main heading: style=%q text=%q", paras[0].Style, paras[0].Text())
	}
	if paras[1].Style != "Heading 2" {
		t.Errorf("subheading style = %q", paras[1].Style)
	}
	if paras[2].Style != "Appendix" {
		t.Errorf("appendix heading style = %q", paras[2].Style)
	}
}

func TestComposeCaptionSlots(t *testing.T) {
	doc := &pandoc.Doc{Blocks: []pandoc.Node{
		header(1, "Results"),
		figure("fig:trends", "Trend lines"),
		{Kind: "Table", Attr: pandoc.Attr{ID: "tbl:raw"}, Children: []pandoc.Node{
			{Kind: "Caption", Children: []pandoc.Node{{Kind: "Plain", Children: []pandoc.Node{str("Raw data")}}}},
		}},
	}}

	result := newComposer().Compose(doc)
	if len(result.Slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(result.Slots))
	}
	fig := result.Slots[0]
	if fig.Kind != crossref.Figure || fig.RefID != "trends" || fig.Caption != "Trend lines" {
		t.Errorf("figure slot = %+v", fig)
	}
	if fig.Paragraph.Style != "Image Caption" {
		t.Errorf("figure caption style = %q", fig.Paragraph.Style)
	}
	if fig.IsAppendix || fig.Restart {
		t.Errorf("first figure flags: appendix=%v restart=%v", fig.IsAppendix, fig.Restart)
	}
	tbl := result.Slots[1]
	if tbl.Kind != crossref.Table || tbl.Paragraph.Style != "Table Caption" {
		t.Errorf("table slot = %+v", tbl)
	}
}

func TestComposeRestartAtScopeBoundary(t *testing.T) {
	doc := &pandoc.Doc{Blocks: []pandoc.Node{
		header(1, "One"),
		figure("fig:a", "A"),
		figure("fig:b", "B"),
		header(1, "Two"),
		figure("fig:c", "C"),
		{Kind: "RawBlock", Format: "tex", Text: `\appendix`},
		header(1, "Appendix"),
		figure("fig:d", "D"),
	}}

	result := newComposer().Compose(doc)
	restarts := make([]bool, len(result.Slots))
	for i, s := range result.Slots {
		restarts[i] = s.Restart
	}
	want := []bool{false, false, true, true}
	for i := range want {
		if restarts[i] != want[i] {
			t.Errorf("slot %d restart = %v, want %v", i, restarts[i], want[i])
		}
	}
	if !result.Slots[3].IsAppendix {
		t.Error("appendix figure not flagged")
	}
}

func TestComposeCitationsBecomeHyperlinks(t *testing.T) {
	doc := &pandoc.Doc{Blocks: []pandoc.Node{
		header(1, "Results"),
		{Kind: "Para", Children: []pandoc.Node{
			str("See"), {Kind: "Space"},
			{Kind: "Cite", Citations: []string{"fig:trends"}, Children: []pandoc.Node{str("Fig. 1")}},
			str("."),
		}},
	}}

	result := newComposer().Compose(doc)
	paras := result.Document.Paragraphs()
	var link *wml.Hyperlink
	for _, p := range paras {
		for _, child := range p.Children {
			if h, ok := child.(*wml.Hyperlink); ok {
				link = h
			}
		}
	}
	if link == nil {
		t.Fatal("citation did not become a hyperlink")
	}
	if link.Anchor != "fig:trends" {
		t.Errorf("anchor = %q", link.Anchor)
	}
	if got := link.Runs[0].Text(); got != "Fig. 1" {
		t.Errorf("visible text = %q", got)
	}
}

func TestComposeEquationSplitsParagraph(t *testing.T) {
	doc := &pandoc.Doc{Blocks: []pandoc.Node{
		header(1, "Theory"),
		{Kind: "Para", Children: []pandoc.Node{
			{Kind: "Span", Attr: pandoc.Attr{ID: "eq:energy"}, Children: []pandoc.Node{
				{Kind: "Math", Text: "E = mc^2"},
			}},
		}},
	}}

	result := newComposer().Compose(doc)
	if len(result.Slots) != 1 {
		t.Fatalf("expected equation slot, got %d", len(result.Slots))
	}
	slot := result.Slots[0]
	if slot.Kind != crossref.Equation || slot.Caption != "E = mc^2" {
		t.Errorf("equation slot = %+v", slot)
	}
	// The formula paragraph carries a whole-paragraph bookmark under the
	// semantic id for the caption builder to replace.
	names := wml.BookmarkNames(slot.Paragraph)
	if len(names) != 1 || names[0] != wml.NormalizeBookmarkName("eq:energy") {
		t.Errorf("equation bookmark = %v", names)
	}
}
