// Package caption rebuilds caption paragraphs into label + scope-number
// + sequence-number field chains and bookmarks exactly the numbering
// span, registering each item as it goes.
package caption

import (
	"log/slog"

	"github.com/Krande/paradoc-go/internal/crossref"
	"github.com/Krande/paradoc-go/internal/registry"
	"github.com/Krande/paradoc-go/internal/wml"
)

// Builder rewrites caption paragraphs for one compilation run.
type Builder struct {
	Registry *registry.Registry

	// MainHeadingStyle and AppendixHeadingStyle name the heading styles
	// the scope field resolves against ("Heading 1" / "Appendix").
	MainHeadingStyle     string
	AppendixHeadingStyle string

	// EquationTabTwips positions the right-aligned tab stop that pushes
	// the equation number chain to the line's right edge.
	EquationTabTwips int

	Log *slog.Logger
}

// NewBuilder returns a Builder with the conventional style names.
func NewBuilder(reg *registry.Registry, log *slog.Logger) *Builder {
	if log == nil {
		log = slog.Default()
	}
	return &Builder{
		Registry:             reg,
		MainHeadingStyle:     "Heading 1",
		AppendixHeadingStyle: "Appendix",
		EquationTabTwips:     9026,
		Log:                  log,
	}
}

func (b *Builder) headingStyle(isAppendix bool) string {
	if isAppendix {
		return b.AppendixHeadingStyle
	}
	return b.MainHeadingStyle
}

// RebuildCaption replaces the caption's content with
//
//	"{label} " [STYLEREF] "-" [SEQ] ": {captionText}"
//
// The SEQ field restarts at 1 exactly for the first item of that label
// after a scope boundary; otherwise it continues in the current scope.
func (b *Builder) RebuildCaption(p *wml.Paragraph, label, captionText string, isAppendix, restart bool) {
	p.ClearContent()
	p.AppendText(label + " ")
	wml.AppendField(p, wml.StyleRefInstruction(b.headingStyle(isAppendix)))
	p.AppendText("-")
	wml.AppendField(p, wml.SeqInstruction(label, restart))
	p.AppendText(": " + captionText)
}

// BookmarkNumberingSpan registers the item and brackets the caption's
// numbering span with the registry-assigned bookmark. The trailing
// ": caption text" stays outside the span so label-and-number citation
// rendering never includes free caption text.
func (b *Builder) BookmarkNumberingSpan(p *wml.Paragraph, kind crossref.Kind, semanticID string) string {
	bookmark := b.Registry.Register(kind, semanticID, p)
	name, degraded := wml.WrapNumberingSpan(p, bookmark)
	if degraded {
		b.Log.Warn("caption structure not cleanly parseable, bookmarked whole paragraph",
			"kind", kind.Label(), "id", semanticID)
	}
	return name
}

// RebuildEquation lays an equation paragraph out as the literal formula
// followed by a right-justified, parenthesized numbering chain:
//
//	{formula} <tab> "(Eq. " [STYLEREF] "-" [SEQ] ")"
//
// Any pre-existing bookmark wrapping the whole paragraph (left behind
// by composition under the equation's semantic id) is removed before
// the minimal span bookmark is inserted.
func (b *Builder) RebuildEquation(p *wml.Paragraph, semanticID, formula string, isAppendix, restart bool) string {
	for _, name := range wml.BookmarkNames(p) {
		if name == wml.NormalizeBookmarkName("eq:"+semanticID) {
			wml.RemoveBookmark(p, name)
		}
	}

	p.ClearContent()
	p.TabStops = []wml.TabStop{{Alignment: wml.TabRight, Twips: b.EquationTabTwips}}
	p.AppendText(formula)
	p.AppendRun(&wml.Run{Children: []wml.RunChild{&wml.Tab{}}})
	label := crossref.Equation.Label()
	p.AppendText("(" + label + ". ")
	wml.AppendField(p, wml.StyleRefInstruction(b.headingStyle(isAppendix)))
	p.AppendText("-")
	wml.AppendField(p, wml.SeqInstruction(label, restart))
	p.AppendText(")")

	bookmark := b.Registry.RegisterEquation(semanticID, p)
	name, degraded := wml.WrapNumberingSpan(p, bookmark)
	if degraded {
		b.Log.Warn("equation numbering span not found, bookmarked whole paragraph", "id", semanticID)
	}
	return name
}
