package pandoc

import (
	"testing"
)

const sampleAST = `{
  "meta": {},
  "blocks": [
    {"t": "Header", "c": [2, ["sec-intro", [], []], [{"t": "Str", "c": "Intro"}]]},
    {"t": "Para", "c": [
      {"t": "Str", "c": "See"},
      {"t": "Space"},
      {"t": "Cite", "c": [[{"citationId": "fig:trends"}], [{"t": "Str", "c": "[@fig:trends]"}]]}
    ]},
    {"t": "Figure", "c": [
      ["fig:trends", [], []],
      [null, [{"t": "Plain", "c": [{"t": "Str", "c": "Trend lines"}]}]],
      [{"t": "Plain", "c": [{"t": "Image", "c": [["", [], []], [], ["trends.png", ""]]}]}]
    ]},
    {"t": "RawBlock", "c": ["html", "<!-- PARADOC_SOURCE_FILE: ch1.md -->"]}
  ]
}`

func TestParse(t *testing.T) {
	doc, err := Parse([]byte(sampleAST))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(doc.Blocks) != 4 {
		t.Fatalf("expected 4 blocks, got %d", len(doc.Blocks))
	}

	h := doc.Blocks[0]
	if h.Kind != "Header" || h.Level != 2 || h.Attr.ID != "sec-intro" {
		t.Errorf("header decoded wrong: %+v", h)
	}
	if got := InlineText(h.Children); got != "Intro" {
		t.Errorf("header text = %q", got)
	}

	p := doc.Blocks[1]
	if p.Kind != "Para" {
		t.Fatalf("expected Para, got %s", p.Kind)
	}
	cite := p.Children[2]
	if cite.Kind != "Cite" || len(cite.Citations) != 1 || cite.Citations[0] != "fig:trends" {
		t.Errorf("cite decoded wrong: %+v", cite)
	}
	if got := InlineText(p.Children); got != "See [@fig:trends]" {
		t.Errorf("para text = %q", got)
	}

	fig := doc.Blocks[2]
	if fig.Kind != "Figure" || fig.Attr.ID != "fig:trends" {
		t.Errorf("figure decoded wrong: %+v", fig.Attr)
	}
	if got := BlockText(fig.Children); got != "Trend lines" {
		t.Errorf("figure caption = %q", got)
	}

	raw := doc.Blocks[3]
	if raw.Kind != "RawBlock" || raw.Format != "html" {
		t.Errorf("raw block decoded wrong: %+v", raw)
	}
}

func TestParseMalformedAttr(t *testing.T) {
	// A malformed attr must decode to "no id", not fail the parse.
	src := `{"meta": {}, "blocks": [{"t": "Div", "c": [42, [{"t": "Plain", "c": [{"t": "Str", "c": "x"}]}]]}]}`
	doc, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Blocks[0].Attr.ID != "" {
		t.Errorf("expected empty id, got %q", doc.Blocks[0].Attr.ID)
	}
}

func TestParseUnknownElementSalvagesChildren(t *testing.T) {
	src := `{"meta": {}, "blocks": [{"t": "LineBlock", "c": [[{"t": "Str", "c": "inner"}]]}]}`
	doc, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	found := false
	Walk(doc.Blocks, func(n *Node) bool {
		if n.Kind == "Str" && n.Text == "inner" {
			found = true
		}
		return true
	})
	if !found {
		t.Error("nested element inside unknown block was not salvaged")
	}
}
