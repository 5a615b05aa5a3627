package wml

import (
	"math/rand"
	"strconv"
	"strings"
)

// GenerateBookmarkName returns a Word-style bookmark name and numeric
// element id, e.g. ("_Ref306075071", "48512"). Uniqueness is
// probabilistic: the 9-digit space dwarfs any realistic item count, so
// no collision check is made.
func GenerateBookmarkName() (name, id string) {
	n := 100000000 + rand.Intn(900000000)
	return "_Ref" + strconv.Itoa(n), strconv.Itoa(1 + rand.Intn(999999))
}

// NormalizeBookmarkName makes a semantic id usable as a bookmark name:
// colons are not allowed in REF targets, and Word convention prefixes
// hidden reference bookmarks with _Ref.
func NormalizeBookmarkName(name string) string {
	normalized := strings.ReplaceAll(name, ":", "_")
	if !strings.HasPrefix(normalized, "_Ref") {
		normalized = "_Ref" + normalized
	}
	return normalized
}

// WrapNumberingSpan brackets the caption numbering span (the label
// text, the STYLEREF scope field, the separator and the SEQ field)
// with a bookmark, excluding the trailing caption text. Downstream
// label-and-number citation rendering must never pick up free caption
// text, so the span boundary matters.
//
// Degraded cases: with no STYLEREF present the span covers just the
// SEQ field; with no fields at all the whole paragraph is bookmarked.
// Returns the bookmark name and whether a fallback was taken.
func WrapNumberingSpan(p *Paragraph, name string) (string, bool) {
	if name == "" {
		name, _ = GenerateBookmarkName()
	}
	_, id := GenerateBookmarkName()

	start, end := numberingSpan(p)
	if start < 0 || end < 0 {
		// Seq-only fallback.
		start, end = seqOnlySpan(p)
	}
	if start < 0 || end < 0 {
		// Structural degradation: bookmark the entire paragraph.
		p.InsertBefore(0, &BookmarkStart{ID: id, Name: name})
		p.Children = append(p.Children, &BookmarkEnd{ID: id})
		return name, true
	}

	// Insert end first so the start index stays valid.
	p.InsertBefore(end+1, &BookmarkEnd{ID: id})
	p.InsertBefore(start, &BookmarkStart{ID: id, Name: name})
	return name, false
}

// numberingSpan locates [label run or STYLEREF run, SEQ run] child
// indexes, or (-1, -1).
func numberingSpan(p *Paragraph) (int, int) {
	styleref := -1
	for i, child := range p.Children {
		r, ok := child.(*Run)
		if !ok {
			continue
		}
		instr := r.instruction()
		switch {
		case styleref < 0 && strings.Contains(instr, "STYLEREF"):
			styleref = i
		case styleref >= 0 && strings.Contains(instr, "SEQ ") && !strings.Contains(instr, "STYLEREF"):
			return spanStart(p, styleref), i
		}
	}
	return -1, -1
}

// spanStart extends the span start left over the literal label run, if
// the child directly before the STYLEREF field is one.
func spanStart(p *Paragraph, styleref int) int {
	if styleref > 0 {
		if r, ok := p.Children[styleref-1].(*Run); ok && r.instruction() == "" && r.fieldChar() == "" {
			return styleref - 1
		}
	}
	return styleref
}

func seqOnlySpan(p *Paragraph) (int, int) {
	for i, child := range p.Children {
		r, ok := child.(*Run)
		if !ok {
			continue
		}
		if instr := r.instruction(); strings.Contains(instr, "SEQ ") && !strings.Contains(instr, "STYLEREF") {
			return i, i
		}
	}
	return -1, -1
}

// RemoveBookmark deletes the named bookmark span's markers, leaving the
// wrapped content intact. Used before re-bookmarking equation
// paragraphs that arrive with a whole-paragraph bookmark.
func RemoveBookmark(p *Paragraph, name string) bool {
	var id string
	for _, child := range p.Children {
		if bs, ok := child.(*BookmarkStart); ok && bs.Name == name {
			id = bs.ID
			p.RemoveChild(bs)
			break
		}
	}
	if id == "" {
		return false
	}
	for _, child := range p.Children {
		if be, ok := child.(*BookmarkEnd); ok && be.ID == id {
			p.RemoveChild(be)
			break
		}
	}
	return true
}

// BookmarkNames lists the names of all bookmarks opened in p.
func BookmarkNames(p *Paragraph) []string {
	var out []string
	for _, child := range p.Children {
		if bs, ok := child.(*BookmarkStart); ok {
			out = append(out, bs.Name)
		}
	}
	return out
}
