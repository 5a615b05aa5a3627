package crossref

import (
	"testing"

	"github.com/Krande/paradoc-go/internal/pandoc"
)

func str(s string) pandoc.Node { return pandoc.Node{Kind: "Str", Text: s} }

func cite(id, text string) pandoc.Node {
	return pandoc.Node{Kind: "Cite", Citations: []string{id}, Children: []pandoc.Node{str(text)}}
}

func header(level int, id, title string) pandoc.Node {
	return pandoc.Node{Kind: "Header", Level: level, Attr: pandoc.Attr{ID: id}, Children: []pandoc.Node{str(title)}}
}

func figure(id, caption string) pandoc.Node {
	return pandoc.Node{
		Kind: "Figure",
		Attr: pandoc.Attr{ID: id},
		Children: []pandoc.Node{
			{Kind: "Caption", Children: []pandoc.Node{{Kind: "Plain", Children: []pandoc.Node{str(caption)}}}},
		},
	}
}

func TestExtractTargetsAndCitations(t *testing.T) {
	doc := &pandoc.Doc{Blocks: []pandoc.Node{
		header(1, "", "Overview"),
		figure("fig:trends", "Trend lines"),
		{Kind: "Para", Children: []pandoc.Node{
			str("See"), {Kind: "Space"}, cite("fig:trends", "[@fig:trends]"),
		}},
		{Kind: "Div", Attr: pandoc.Attr{ID: "tbl_results"}, Children: []pandoc.Node{
			{Kind: "Plain", Children: []pandoc.Node{str("Results")}},
		}},
	}}

	m := Extract(doc)
	if len(m.Targets) != 2 {
		t.Fatalf("expected 2 targets, got %d", len(m.Targets))
	}
	// Underscore ids normalize to the colon form.
	if m.Targets["tbl:results"] == nil {
		t.Error("tbl_results not normalized to tbl:results")
	}
	if m.Figures["trends"] == nil {
		t.Error("figure not indexed by bare id")
	}
	if len(m.Citations) != 1 || m.Citations[0].FullID != "fig:trends" {
		t.Fatalf("citations = %+v", m.Citations)
	}
	if len(m.Dangling) != 0 {
		t.Errorf("unexpected dangling citations: %v", m.Dangling)
	}
}

func TestExtractDanglingCitation(t *testing.T) {
	doc := &pandoc.Doc{Blocks: []pandoc.Node{
		header(1, "", "Overview"),
		// Citation appears before its target in document order: must
		// not be dangling.
		{Kind: "Para", Children: []pandoc.Node{cite("fig:later", "[@fig:later]")}},
		figure("fig:later", "Defined later"),
		{Kind: "Para", Children: []pandoc.Node{cite("fig:missing", "[@fig:missing]")}},
	}}

	m := Extract(doc)
	if len(m.Dangling) != 1 {
		t.Fatalf("expected 1 dangling citation, got %d", len(m.Dangling))
	}
	if m.Dangling[0].FullID != "fig:missing" {
		t.Errorf("dangling = %q", m.Dangling[0].FullID)
	}

	stats := m.Validate()
	if stats.DanglingCitations != 1 {
		t.Errorf("stats.DanglingCitations = %d", stats.DanglingCitations)
	}
	if stats.CitationCounts["fig:later"] != 1 {
		t.Errorf("citation counts = %v", stats.CitationCounts)
	}
}

func TestExtractLinkCitationsAndEquations(t *testing.T) {
	doc := &pandoc.Doc{Blocks: []pandoc.Node{
		header(1, "", "Theory"),
		{Kind: "Para", Children: []pandoc.Node{
			{Kind: "Span", Attr: pandoc.Attr{ID: "eq:energy"}, Children: []pandoc.Node{
				{Kind: "Math", Text: "E = mc^2"},
			}},
		}},
		{Kind: "Para", Children: []pandoc.Node{
			str("Per"), {Kind: "Space"},
			{Kind: "Link", Target: "#eq:energy", Children: []pandoc.Node{str("Eq. 1")}},
		}},
	}}

	m := Extract(doc)
	eq := m.Equations["energy"]
	if eq == nil {
		t.Fatal("equation span not extracted")
	}
	if eq.Caption != "E = mc^2" {
		t.Errorf("equation latex = %q", eq.Caption)
	}
	if len(m.Citations) != 1 || m.Citations[0].Kind != Equation {
		t.Fatalf("link citation not extracted: %+v", m.Citations)
	}
}

func TestNormalizeID(t *testing.T) {
	cases := []struct {
		in, full, ref string
	}{
		{"fig:trends", "fig:trends", "trends"},
		{"fig_trends", "fig:trends", "trends"},
		{"tbl:a_b", "tbl:a_b", "a_b"},
		{"plain", "plain", "plain"},
	}
	for _, c := range cases {
		full, ref := NormalizeID(c.in)
		if full != c.full || ref != c.ref {
			t.Errorf("NormalizeID(%q) = (%q, %q), want (%q, %q)", c.in, full, ref, c.full, c.ref)
		}
	}
}

func TestKindForID(t *testing.T) {
	if k, ok := KindForID("fig:x"); !ok || k != Figure {
		t.Error("fig: prefix not recognized")
	}
	if k, ok := KindForID("tbl_x"); !ok || k != Table {
		t.Error("tbl_ prefix not recognized")
	}
	if _, ok := KindForID("figure-of-merit"); ok {
		t.Error("unprefixed id matched a kind")
	}
}
