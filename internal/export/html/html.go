// Package html renders a document tree as a standalone HTML preview
// with all numbering and cross-references resolved. The preview shows
// the numbers a word processor would produce from the field chains
// without needing one.
package html

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/Krande/paradoc-go/internal/crossref"
	"github.com/Krande/paradoc-go/internal/pandoc"
)

// Exporter renders one document.
type Exporter struct {
	Title string
}

// Export renders the tree to HTML bytes.
func (e *Exporter) Export(doc *pandoc.Doc) ([]byte, error) {
	structure := crossref.ExtractStructure(doc)
	numbers := resolveNumbers(structure)

	body := element(atom.Body, nil)
	r := &renderer{numbers: numbers, body: body}
	r.sections(structure)

	root := element(atom.Html, nil)
	head := element(atom.Head, nil)
	title := element(atom.Title, nil)
	title.AppendChild(textNode(e.Title))
	head.AppendChild(title)
	root.AppendChild(head)
	root.AppendChild(body)

	var buf bytes.Buffer
	if err := xhtml.Render(&buf, root); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return buf.Bytes(), nil
}

// resolveNumbers computes the "N-M" display number of every target:
// top-level section number (or appendix letter) joined to a per-kind,
// per-scope sequence counter.
func resolveNumbers(structure *crossref.Structure) map[string]string {
	numbers := make(map[string]string)
	type scopeKey struct {
		kind  crossref.Kind
		scope string
	}
	counters := make(map[scopeKey]int)

	for _, s := range structure.Sections {
		scope := topScope(s)
		assign := func(kind crossref.Kind, targets []*crossref.Target) {
			for _, t := range targets {
				k := scopeKey{kind: kind, scope: scope}
				counters[k]++
				numbers[t.FullID] = scope + "-" + strconv.Itoa(counters[k])
			}
		}
		assign(crossref.Figure, s.Figures)
		assign(crossref.Table, s.Tables)
		assign(crossref.Equation, s.Equations)
	}
	return numbers
}

// topScope is the first segment of the section number: the chapter
// ordinal or appendix letter.
func topScope(s *crossref.Section) string {
	if i := strings.Index(s.Number, "."); i >= 0 {
		return s.Number[:i]
	}
	return s.Number
}

type renderer struct {
	numbers map[string]string
	body    *xhtml.Node
}

func (r *renderer) sections(structure *crossref.Structure) {
	for _, s := range structure.Sections {
		h := element(headingAtom(s.Level), map[string]string{"id": s.ID})
		h.AppendChild(textNode(s.Number + " " + s.Title))
		r.body.AppendChild(h)

		for _, para := range s.Paragraphs {
			p := element(atom.P, nil)
			r.inlineText(p, para)
			r.body.AppendChild(p)
		}
		for _, t := range s.Figures {
			r.target(t, "figure")
		}
		for _, t := range s.Tables {
			r.target(t, "table-caption")
		}
		for _, t := range s.Equations {
			r.equation(t)
		}
	}
}

// inlineText appends paragraph text, replacing citation keys with
// resolved anchor links.
func (r *renderer) inlineText(p *xhtml.Node, text string) {
	last := 0
	for _, loc := range citationKeyRe.FindAllStringSubmatchIndex(text, -1) {
		id := text[loc[2]:loc[3]]
		fullID, _ := crossref.NormalizeID(id)
		number, ok := r.numbers[fullID]
		if !ok {
			continue
		}
		kind, _ := crossref.KindForID(id)
		if loc[0] > last {
			p.AppendChild(textNode(text[last:loc[0]]))
		}
		a := element(atom.A, map[string]string{"href": "#" + fullID})
		a.AppendChild(textNode(kind.Label() + " " + number))
		p.AppendChild(a)
		last = loc[1]
	}
	if last < len(text) {
		p.AppendChild(textNode(text[last:]))
	}
}

func (r *renderer) target(t *crossref.Target, class string) {
	div := element(atom.Div, map[string]string{"id": t.FullID, "class": class})
	number := r.numbers[t.FullID]
	div.AppendChild(textNode(t.Kind.Label() + " " + number + ": " + t.Caption))
	r.body.AppendChild(div)
}

func (r *renderer) equation(t *crossref.Target) {
	div := element(atom.Div, map[string]string{"id": t.FullID, "class": "equation"})
	div.AppendChild(textNode(t.Caption))
	no := element(atom.Span, map[string]string{"class": "eqno"})
	no.AppendChild(textNode("(" + crossref.Equation.Label() + ". " + r.numbers[t.FullID] + ")"))
	div.AppendChild(no)
	r.body.AppendChild(div)
}

// citationKeyRe matches the citation keys left in extracted paragraph
// text.
var citationKeyRe = regexp.MustCompile(`\[?@((?:fig|tbl|eq)[:_][A-Za-z0-9_\-]+(?:[.][A-Za-z0-9_\-]+)*)\]?`)

func headingAtom(level int) atom.Atom {
	switch level {
	case 1:
		return atom.H1
	case 2:
		return atom.H2
	case 3:
		return atom.H3
	case 4:
		return atom.H4
	case 5:
		return atom.H5
	}
	return atom.H6
}

func element(a atom.Atom, attrs map[string]string) *xhtml.Node {
	n := &xhtml.Node{
		Type:     xhtml.ElementNode,
		DataAtom: a,
		Data:     a.String(),
	}
	for k, v := range attrs {
		n.Attr = append(n.Attr, xhtml.Attribute{Key: k, Val: v})
	}
	return n
}

func textNode(s string) *xhtml.Node {
	return &xhtml.Node{Type: xhtml.TextNode, Data: s}
}
