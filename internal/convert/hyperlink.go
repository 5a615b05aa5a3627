package convert

import (
	"strings"

	"github.com/Krande/paradoc-go/internal/crossref"
	"github.com/Krande/paradoc-go/internal/wml"
)

// hyperlinkRef is the transient record of one hyperlink citation found
// in a paragraph, resolved and ready to rewrite.
type hyperlinkRef struct {
	paragraph   *wml.Paragraph
	childIndex  int
	anchor      string
	visibleText string
	kind        crossref.Kind
	semanticID  string
	bookmark    string
}

// ConvertByHyperlinks rewrites every hyperlink citation whose anchor is
// a known cross-reference id into a REF field chain. Anchors with no
// registered target are auto-registered as a defensive fallback.
func (c *Converter) ConvertByHyperlinks(doc *wml.Document) {
	converted := 0
	for _, p := range doc.Paragraphs() {
		if c.CaptionStyles[p.Style] {
			continue
		}
		converted += c.convertParagraphHyperlinks(p)
	}
	c.Log.Info("hyperlink conversion complete", "citations", converted)
}

func (c *Converter) convertParagraphHyperlinks(p *wml.Paragraph) int {
	refs := c.findHyperlinkRefs(p)
	// Rewrite back to front so child indexes stay valid.
	for i := len(refs) - 1; i >= 0; i-- {
		c.rewriteHyperlink(refs[i])
	}
	return len(refs)
}

func (c *Converter) findHyperlinkRefs(p *wml.Paragraph) []*hyperlinkRef {
	var refs []*hyperlinkRef
	for i, child := range p.Children {
		link, ok := child.(*wml.Hyperlink)
		if !ok {
			continue
		}
		kind, ok := crossref.KindForID(link.Anchor)
		if !ok {
			continue
		}
		_, refID := crossref.NormalizeID(link.Anchor)

		bookmark, registered := c.Registry.Bookmark(kind, refID)
		if !registered {
			bookmark = c.Registry.Register(kind, refID, nil)
			c.Log.Warn("citation anchor has no registered target, auto-registered",
				"anchor", link.Anchor, "bookmark", bookmark)
		}

		var visible strings.Builder
		for _, r := range link.Runs {
			visible.WriteString(r.Text())
		}
		refs = append(refs, &hyperlinkRef{
			paragraph:   p,
			childIndex:  i,
			anchor:      link.Anchor,
			visibleText: visible.String(),
			kind:        kind,
			semanticID:  refID,
			bookmark:    bookmark,
		})
	}
	return refs
}

// rewriteHyperlink replaces the hyperlink child with a REF field group
// and strips a directly preceding abbreviation token ("Fig.", "Tbl.",
// "Eq.") from the literal run before it: the REF result renders the
// full label, so a leftover abbreviation would double it.
func (c *Converter) rewriteHyperlink(ref *hyperlinkRef) {
	p := ref.paragraph
	i := ref.childIndex

	if i > 0 {
		if run, ok := p.Children[i-1].(*wml.Run); ok {
			stripTrailingAbbrev(run, ref.kind.Abbrev())
		}
	}

	nodes := refFieldNodes(ref.bookmark)
	rebuilt := make([]wml.Node, 0, len(p.Children)-1+len(nodes))
	rebuilt = append(rebuilt, p.Children[:i]...)
	rebuilt = append(rebuilt, nodes...)
	rebuilt = append(rebuilt, p.Children[i+1:]...)
	p.Children = rebuilt
}

// stripTrailingAbbrev removes a trailing abbreviation (plus any
// whitespace after it) from the run's last text child, preserving all
// other text in the run. The abbreviation must stand alone as the last
// token: a word that merely ends with it ("Config." before a figure
// citation) is left untouched.
func stripTrailingAbbrev(run *wml.Run, abbrev string) {
	for i := len(run.Children) - 1; i >= 0; i-- {
		t, ok := run.Children[i].(*wml.Text)
		if !ok {
			continue
		}
		trimmed := strings.TrimRight(t.Value, " \u00a0")
		if strings.HasSuffix(strings.ToLower(trimmed), strings.ToLower(abbrev)) {
			before := trimmed[:len(trimmed)-len(abbrev)]
			if before == "" || strings.HasSuffix(before, " ") || strings.HasSuffix(before, "\u00a0") {
				t.Value = before
			}
		}
		return
	}
}
