// Package wml is a small WordprocessingML element model: paragraphs,
// runs, hyperlinks, field characters and bookmark markers, plus the
// field-chain synthesis the caption builder and citation converter
// need. go-docx covers reading existing documents; it does not expose
// w:fldChar/w:instrText runs or bookmark placement between runs, so the
// compiler carries its own element layer for the output side.
package wml

import "strings"

// Node is a direct child of a paragraph: *Run, *Hyperlink,
// *BookmarkStart or *BookmarkEnd.
type Node interface{ node() }

// RunChild is content inside a run: *Text, *FieldChar, *InstrText, *Tab.
type RunChild interface{ runChild() }

// FieldCharType is the w:fldCharType value of a field character.
type FieldCharType string

const (
	FieldBegin    FieldCharType = "begin"
	FieldSeparate FieldCharType = "separate"
	FieldEnd      FieldCharType = "end"
)

// Text is a literal text run child.
type Text struct {
	Value         string
	PreserveSpace bool
}

// FieldChar delimits a field: begin, separate or end.
type FieldChar struct {
	Type FieldCharType
}

// InstrText is a field instruction, e.g. ` REF _Ref123456789 \h `.
type InstrText struct {
	Value string
}

// Tab is an explicit tab character run child.
type Tab struct{}

func (*Text) runChild()      {}
func (*FieldChar) runChild() {}
func (*InstrText) runChild() {}
func (*Tab) runChild()       {}

// Run is an ordered sequence of run children.
type Run struct {
	Children []RunChild
}

// Hyperlink is an internal link wrapping runs, targeting an anchor.
type Hyperlink struct {
	Anchor string
	Runs   []*Run
}

// BookmarkStart opens a named bookmark span.
type BookmarkStart struct {
	ID   string
	Name string
}

// BookmarkEnd closes the bookmark span with the matching id.
type BookmarkEnd struct {
	ID string
}

func (*Run) node()           {}
func (*Hyperlink) node()     {}
func (*BookmarkStart) node() {}
func (*BookmarkEnd) node()   {}

// TabStopAlignment positions a custom tab stop.
type TabStopAlignment string

const TabRight TabStopAlignment = "right"

// TabStop is a paragraph-level tab stop definition.
type TabStop struct {
	Alignment TabStopAlignment
	Twips     int // position from the left margin
}

// Paragraph is one mutable paragraph of the composed stream: a style
// name and an ordered, in-place-replaceable child sequence.
type Paragraph struct {
	Style    string
	TabStops []TabStop
	Children []Node
}

// NewParagraph returns an empty paragraph with the given style.
func NewParagraph(style string) *Paragraph {
	return &Paragraph{Style: style}
}

// Text flattens all literal text in document order, including text
// inside hyperlinks. Field instructions are not text.
func (p *Paragraph) Text() string {
	var sb strings.Builder
	for _, child := range p.Children {
		switch c := child.(type) {
		case *Run:
			sb.WriteString(c.Text())
		case *Hyperlink:
			for _, r := range c.Runs {
				sb.WriteString(r.Text())
			}
		}
	}
	return sb.String()
}

// Text returns the literal text of a single run.
func (r *Run) Text() string {
	var sb strings.Builder
	for _, c := range r.Children {
		switch t := c.(type) {
		case *Text:
			sb.WriteString(t.Value)
		case *Tab:
			sb.WriteByte('\t')
		}
	}
	return sb.String()
}

// Runs returns the paragraph's direct runs in order (hyperlink runs
// excluded).
func (p *Paragraph) Runs() []*Run {
	var out []*Run
	for _, child := range p.Children {
		if r, ok := child.(*Run); ok {
			out = append(out, r)
		}
	}
	return out
}

// AppendRun appends a run to the paragraph.
func (p *Paragraph) AppendRun(r *Run) { p.Children = append(p.Children, r) }

// AppendText appends a plain text run.
func (p *Paragraph) AppendText(text string) {
	p.AppendRun(&Run{Children: []RunChild{&Text{Value: text}}})
}

// ClearContent removes all runs and hyperlinks but leaves bookmark
// markers in place.
func (p *Paragraph) ClearContent() {
	kept := p.Children[:0]
	for _, child := range p.Children {
		switch child.(type) {
		case *Run, *Hyperlink:
			// dropped
		default:
			kept = append(kept, child)
		}
	}
	p.Children = kept
}

// RemoveChild deletes one child by identity.
func (p *Paragraph) RemoveChild(n Node) {
	for i, child := range p.Children {
		if child == n {
			p.Children = append(p.Children[:i], p.Children[i+1:]...)
			return
		}
	}
}

// InsertBefore inserts node n directly before the child at index i.
func (p *Paragraph) InsertBefore(i int, n Node) {
	p.Children = append(p.Children, nil)
	copy(p.Children[i+1:], p.Children[i:])
	p.Children[i] = n
}

// Block is a top-level document element: *Paragraph or *TableBlock.
type Block interface{ block() }

func (*Paragraph) block()  {}
func (*TableBlock) block() {}

// TableBlock is a table in the block stream; only its cell paragraphs
// matter to reference processing.
type TableBlock struct {
	Rows [][]*TableCell
}

// TableCell holds the paragraphs of one cell.
type TableCell struct {
	Paragraphs []*Paragraph
}

// Document is the composed, ordered block stream handed between the
// caption builder, the citation converter and the writer.
type Document struct {
	Blocks []Block
}

// Paragraphs iterates every paragraph in document order, descending
// into table cells, the way reference processing walks the document.
func (d *Document) Paragraphs() []*Paragraph {
	var out []*Paragraph
	for _, b := range d.Blocks {
		switch blk := b.(type) {
		case *Paragraph:
			out = append(out, blk)
		case *TableBlock:
			for _, row := range blk.Rows {
				for _, cell := range row {
					out = append(out, cell.Paragraphs...)
				}
			}
		}
	}
	return out
}

// AddParagraph appends a new paragraph with the given style.
func (d *Document) AddParagraph(style string) *Paragraph {
	p := NewParagraph(style)
	d.Blocks = append(d.Blocks, p)
	return p
}
