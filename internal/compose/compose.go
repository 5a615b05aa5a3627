// Package compose flattens a parsed document tree into the mutable
// WordprocessingML block stream, recording a slot for every caption and
// equation paragraph so the caption builder can rebuild them with field
// chains afterwards.
package compose

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/Krande/paradoc-go/internal/config"
	"github.com/Krande/paradoc-go/internal/crossref"
	"github.com/Krande/paradoc-go/internal/pandoc"
	"github.com/Krande/paradoc-go/internal/wml"
)

// Slot is one caption or equation paragraph awaiting field synthesis.
// Caption holds the free caption text for figures and tables and the
// literal formula for equations.
type Slot struct {
	Kind       crossref.Kind
	RefID      string
	Caption    string
	Paragraph  *wml.Paragraph
	IsAppendix bool

	// Restart marks the first item of this label after a numbering
	// scope boundary; its SEQ field restarts at 1.
	Restart bool
}

// Result is the composed document plus its slots in document order.
type Result struct {
	Document *wml.Document
	Slots    []*Slot
}

// Composer flattens one document per the active profile.
type Composer struct {
	Profile config.Profile
	Log     *slog.Logger
}

// New returns a Composer for the given profile.
func New(profile config.Profile, log *slog.Logger) *Composer {
	if log == nil {
		log = slog.Default()
	}
	return &Composer{Profile: profile, Log: log}
}

// Compose walks the block tree in one forward pass and emits the
// paragraph stream. Heading styles, scope tracking and slot order all
// follow document order.
func (c *Composer) Compose(doc *pandoc.Doc) *Result {
	w := &walker{
		composer:  c,
		result:    &Result{Document: &wml.Document{}},
		lastScope: map[crossref.Kind]string{},
	}
	w.blocks(doc.Blocks)
	c.Log.Info("document composed",
		"blocks", len(w.result.Document.Blocks), "slots", len(w.result.Slots))
	return w.result
}

type walker struct {
	composer *Composer
	result   *Result

	inAppendix     bool
	topSection     int
	appendixLetter rune

	// lastScope remembers, per label, the scope key of the most recent
	// slot so Restart can be computed during the walk.
	lastScope map[crossref.Kind]string
}

func (w *walker) blocks(blocks []pandoc.Node) {
	for i := range blocks {
		b := &blocks[i]
		switch b.Kind {
		case "RawBlock":
			if strings.Contains(b.Text, `\appendix`) {
				w.inAppendix = true
			}
		case "Header":
			w.header(b)
		case "Para", "Plain":
			w.para(b)
		case "Figure":
			w.figure(b)
		case "Table":
			w.table(b)
		case "Div":
			if kind, ok := crossref.KindForID(b.Attr.ID); ok {
				w.divTarget(kind, b)
			} else {
				w.blocks(b.Children)
			}
		case "BulletList", "OrderedList":
			w.blocks(b.Children)
		case "CodeBlock":
			p := w.result.Document.AddParagraph("Source Code")
			p.AppendText(b.Text)
		}
	}
}

// scopeKey identifies the current top-level numbering scope: the main
// chapter ordinal, or the appendix letter.
func (w *walker) scopeKey() string {
	if w.inAppendix {
		return string(w.appendixLetter)
	}
	return strconv.Itoa(w.topSection)
}

func (w *walker) header(b *pandoc.Node) {
	if b.Level == 1 {
		if w.inAppendix {
			if w.appendixLetter == 0 {
				w.appendixLetter = 'A'
			} else {
				w.appendixLetter++
			}
		} else {
			w.topSection++
		}
	}
	style := "Heading " + strconv.Itoa(b.Level)
	if b.Level == 1 {
		if w.inAppendix {
			style = w.composer.Profile.AppendixHeadingStyle
		} else {
			style = w.composer.Profile.MainHeadingStyle
		}
	}
	p := w.result.Document.AddParagraph(style)
	p.AppendText(pandoc.InlineText(b.Children))
}

// para renders one paragraph's inlines: literal text, hyperlinks for
// links and citations, and a split-out equation paragraph for every
// display-equation span.
func (w *walker) para(b *pandoc.Node) {
	p := wml.NewParagraph("")
	p = w.inlines(p, b.Children)
	if len(p.Children) > 0 {
		w.result.Document.Blocks = append(w.result.Document.Blocks, p)
	}
}

// inlines appends rendered inline content to p. Display-equation spans
// close the current paragraph, so the (possibly fresh) trailing
// paragraph is returned for the caller to finish.
func (w *walker) inlines(p *wml.Paragraph, nodes []pandoc.Node) *wml.Paragraph {
	var text strings.Builder
	flush := func() {
		if text.Len() > 0 {
			p.AppendText(text.String())
			text.Reset()
		}
	}
	for i := range nodes {
		in := &nodes[i]
		switch in.Kind {
		case "Str":
			text.WriteString(in.Text)
		case "Space", "SoftBreak", "LineBreak":
			text.WriteByte(' ')
		case "Math":
			text.WriteString(in.Text)
		case "Link":
			if anchor, ok := strings.CutPrefix(in.Target, "#"); ok {
				flush()
				p.Children = append(p.Children, &wml.Hyperlink{
					Anchor: anchor,
					Runs:   []*wml.Run{{Children: []wml.RunChild{&wml.Text{Value: pandoc.InlineText(in.Children)}}}},
				})
			} else {
				text.WriteString(pandoc.InlineText(in.Children))
			}
		case "Cite":
			flush()
			w.cite(p, in)
		case "Span":
			if kind, ok := crossref.KindForID(in.Attr.ID); ok && kind == crossref.Equation {
				flush()
				if len(p.Children) > 0 {
					w.result.Document.Blocks = append(w.result.Document.Blocks, p)
				}
				w.equation(in)
				p = wml.NewParagraph("")
				continue
			}
			w.collectText(&text, in.Children)
		case "Image":
			// Inline image: keep the alt text in the flow.
			text.WriteString(pandoc.InlineText(in.Children))
		default:
			w.collectText(&text, in.Children)
		}
	}
	flush()
	return p
}

func (w *walker) collectText(sb *strings.Builder, nodes []pandoc.Node) {
	sb.WriteString(pandoc.InlineText(nodes))
}

// cite renders a citation as an internal hyperlink carrying the visible
// text pandoc rendered for it. The citation converter resolves the
// anchor against the registry later.
func (w *walker) cite(p *wml.Paragraph, in *pandoc.Node) {
	visible := pandoc.InlineText(in.Children)
	for _, id := range in.Citations {
		if visible == "" {
			visible = "@" + id
		}
		p.Children = append(p.Children, &wml.Hyperlink{
			Anchor: id,
			Runs:   []*wml.Run{{Children: []wml.RunChild{&wml.Text{Value: visible}}}},
		})
		// Pandoc renders a multi-citation as one text span; attach the
		// text to the first anchor only.
		visible = ""
	}
}

func (w *walker) figure(b *pandoc.Node) {
	captionText := captionText(b.Children)
	if target := imageTarget(b.Children); target != "" {
		body := w.result.Document.AddParagraph("Captioned Figure")
		body.AppendText(target)
	}
	w.targetSlot(crossref.Figure, b.Attr.ID, captionText, w.composer.Profile.FigureCaptionStyle)
}

func (w *walker) table(b *pandoc.Node) {
	w.targetSlot(crossref.Table, b.Attr.ID, captionText(b.Children), w.composer.Profile.TableCaptionStyle)
}

// divTarget handles fenced-div targets carrying a figure or table id.
func (w *walker) divTarget(kind crossref.Kind, b *pandoc.Node) {
	style := w.composer.Profile.FigureCaptionStyle
	if kind == crossref.Table {
		style = w.composer.Profile.TableCaptionStyle
	}
	w.targetSlot(kind, b.Attr.ID, pandoc.BlockText(b.Children), style)
}

// targetSlot emits the caption paragraph and records its slot. The
// paragraph carries the plain caption text until the caption builder
// rewrites it.
func (w *walker) targetSlot(kind crossref.Kind, id, captionText, style string) {
	if expected, ok := crossref.KindForID(id); !ok || expected != kind {
		return
	}
	_, refID := crossref.NormalizeID(id)

	p := w.result.Document.AddParagraph(style)
	p.AppendText(captionText)
	w.addSlot(&Slot{
		Kind:       kind,
		RefID:      refID,
		Caption:    captionText,
		Paragraph:  p,
		IsAppendix: w.inAppendix,
	})
}

// equation emits the equation's own paragraph, bookmarked under its
// semantic id so the caption builder can find and replace the
// whole-paragraph bookmark with a minimal numbering span.
func (w *walker) equation(in *pandoc.Node) {
	formula := formulaText(in.Children)
	_, refID := crossref.NormalizeID(in.Attr.ID)

	p := w.result.Document.AddParagraph("")
	name := wml.NormalizeBookmarkName("eq:" + refID)
	p.Children = append(p.Children, &wml.BookmarkStart{ID: name, Name: name})
	p.AppendText(formula)
	p.Children = append(p.Children, &wml.BookmarkEnd{ID: name})

	w.addSlot(&Slot{
		Kind:       crossref.Equation,
		RefID:      refID,
		Caption:    formula,
		Paragraph:  p,
		IsAppendix: w.inAppendix,
	})
}

func (w *walker) addSlot(s *Slot) {
	scope := w.scopeKey()
	if prev, seen := w.lastScope[s.Kind]; seen && prev != scope {
		s.Restart = true
	}
	w.lastScope[s.Kind] = scope
	w.result.Slots = append(w.result.Slots, s)
}

// captionText extracts the caption block's text from a Figure or Table
// node's children.
func captionText(children []pandoc.Node) string {
	for i := range children {
		if children[i].Kind == "Caption" {
			return pandoc.BlockText(children[i].Children)
		}
	}
	return ""
}

// imageTarget finds the first embedded image path.
func imageTarget(children []pandoc.Node) string {
	target := ""
	pandoc.Walk(children, func(n *pandoc.Node) bool {
		if n.Kind == "Image" && target == "" {
			target = n.Target
			return false
		}
		return true
	})
	return target
}

// formulaText flattens the latex of every math element in the span.
func formulaText(children []pandoc.Node) string {
	var sb strings.Builder
	pandoc.Walk(children, func(n *pandoc.Node) bool {
		if n.Kind == "Math" {
			sb.WriteString(n.Text)
		}
		return true
	})
	if sb.Len() == 0 {
		return pandoc.InlineText(children)
	}
	return sb.String()
}
