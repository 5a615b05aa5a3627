package crossref

import (
	"regexp"
	"strings"

	"github.com/Krande/paradoc-go/internal/pandoc"
)

// sourceMarkerRe matches the embedded source-file marker comments the
// markdown merger leaves behind, e.g. <!-- PARADOC_SOURCE_FILE: a.md -->.
var sourceMarkerRe = regexp.MustCompile(`PARADOC_SOURCE_FILE:\s*(.+?)\s*-->`)

// Extract walks the document tree once and returns the cross-reference
// model: all targets, all citations and the dangling-citation list.
func Extract(doc *pandoc.Doc) *Model {
	e := &extractor{model: NewModel()}
	e.blocks(doc.Blocks)

	for _, c := range e.model.Citations {
		if _, ok := e.model.Targets[c.FullID]; !ok {
			e.model.Dangling = append(e.model.Dangling, c)
		}
	}
	return e.model
}

type extractor struct {
	model      *Model
	sourceFile string
}

func (e *extractor) blocks(blocks []pandoc.Node) {
	for i := range blocks {
		b := &blocks[i]
		switch b.Kind {
		case "RawBlock":
			e.checkSourceMarker(b)
		case "Figure":
			e.target(Figure, b.Attr.ID, pandoc.BlockText(b.Children))
		case "Table":
			e.target(Table, b.Attr.ID, pandoc.BlockText(b.Children))
		case "Div":
			// pandoc-crossref wraps items in Divs carrying the id.
			if kind, ok := KindForID(b.Attr.ID); ok {
				e.target(kind, b.Attr.ID, pandoc.BlockText(b.Children))
			}
		case "Para", "Plain":
			context := pandoc.InlineText(b.Children)
			e.inlines(b.Children, context)
		}
		// Nested blocks (lists, quotes, divs) may hold more targets.
		if b.Kind != "Para" && b.Kind != "Plain" {
			e.blocks(b.Children)
		}
	}
}

// inlines collects citations and inline equation targets. Equations are
// not top-level blocks: pandoc-crossref leaves them as Spans wrapping a
// Math element.
func (e *extractor) inlines(inlines []pandoc.Node, context string) {
	for i := range inlines {
		in := &inlines[i]
		switch in.Kind {
		case "Cite":
			for _, id := range in.Citations {
				e.citation(id, context)
			}
		case "Link":
			if anchor, ok := strings.CutPrefix(in.Target, "#"); ok {
				e.citation(anchor, context)
			}
		case "Span":
			if kind, ok := KindForID(in.Attr.ID); ok && kind == Equation {
				e.target(Equation, in.Attr.ID, mathText(in.Children))
			}
		}
		e.inlines(in.Children, context)
	}
}

func (e *extractor) target(kind Kind, id, caption string) {
	if expected, ok := KindForID(id); !ok || expected != kind {
		return // malformed or foreign id: not a target, never fatal
	}
	fullID, refID := NormalizeID(id)
	e.model.add(&Target{
		Kind:       kind,
		RefID:      refID,
		FullID:     fullID,
		Caption:    caption,
		SourceFile: e.sourceFile,
	})
}

func (e *extractor) citation(id, context string) {
	kind, ok := KindForID(id)
	if !ok {
		return
	}
	fullID, refID := NormalizeID(id)
	e.model.Citations = append(e.model.Citations, &Citation{
		Kind:       kind,
		RefID:      refID,
		FullID:     fullID,
		Context:    context,
		SourceFile: e.sourceFile,
	})
}

func (e *extractor) checkSourceMarker(b *pandoc.Node) {
	if m := sourceMarkerRe.FindStringSubmatch(b.Text); m != nil {
		e.sourceFile = m[1]
	}
}

// mathText returns the literal formula of the first Math element below
// the given inlines.
func mathText(inlines []pandoc.Node) string {
	var latex string
	pandoc.Walk(inlines, func(n *pandoc.Node) bool {
		if latex == "" && n.Kind == "Math" {
			latex = n.Text
			return false
		}
		return true
	})
	return latex
}
