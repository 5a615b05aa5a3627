package crossref

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Krande/paradoc-go/internal/pandoc"
)

// Section is one heading in the document hierarchy with its computed
// number and the content collected beneath it.
type Section struct {
	ID     string
	Title  string
	Level  int    // 1-6
	Number string // "1.2.3" for main matter, "A.1" for appendices

	Paragraphs []string
	Figures    []*Target
	Tables     []*Target
	Equations  []*Target
	Citations  []*Citation

	Parent      *Section
	Children    []*Section
	PrevSibling *Section
	NextSibling *Section

	SourceFile string
	IsAppendix bool
}

// Descendants returns all sections below this one, depth first.
func (s *Section) Descendants() []*Section {
	var out []*Section
	for _, c := range s.Children {
		out = append(out, c)
		out = append(out, c.Descendants()...)
	}
	return out
}

// Path returns the chain of sections from the root down to s.
func (s *Section) Path() []*Section {
	var path []*Section
	for cur := s; cur != nil; cur = cur.Parent {
		path = append([]*Section{cur}, path...)
	}
	return path
}

// Structure is the full section hierarchy of one document.
type Structure struct {
	Sections     []*Section // document order
	RootSections []*Section

	Figures   map[string]*Target
	Tables    map[string]*Target
	Equations map[string]*Target
	Citations []*Citation

	Meta map[string]any
}

// SectionByID returns the section with the given id, or nil.
func (d *Structure) SectionByID(id string) *Section {
	for _, s := range d.Sections {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// SectionByNumber returns the section with the given number, or nil.
func (d *Structure) SectionByNumber(number string) *Section {
	for _, s := range d.Sections {
		if s.Number == number {
			return s
		}
	}
	return nil
}

// AppendixSections returns all sections flagged as appendix content.
func (d *Structure) AppendixSections() []*Section {
	var out []*Section
	for _, s := range d.Sections {
		if s.IsAppendix {
			out = append(out, s)
		}
	}
	return out
}

// ExtractStructure builds the section hierarchy with computed numbering
// from the document tree in one forward pass.
func ExtractStructure(doc *pandoc.Doc) *Structure {
	x := &structureExtractor{
		structure: &Structure{
			Figures:   make(map[string]*Target),
			Tables:    make(map[string]*Target),
			Equations: make(map[string]*Target),
			Meta:      doc.Meta,
		},
		counters:         make(map[int]int),
		appendixCounters: make(map[int]int),
		appendixLetter:   'A' - 1,
	}
	x.walk(doc.Blocks)
	x.linkHierarchy()
	return x.structure
}

type structureExtractor struct {
	structure  *Structure
	stack      []*Section
	sourceFile string
	inAppendix bool

	counters         map[int]int
	appendixLetter   rune
	appendixCounters map[int]int
}

func (x *structureExtractor) walk(blocks []pandoc.Node) {
	for i := range blocks {
		b := &blocks[i]
		switch b.Kind {
		case "RawBlock":
			if m := sourceMarkerRe.FindStringSubmatch(b.Text); m != nil {
				x.sourceFile = m[1]
			}
			if strings.Contains(b.Text, `\appendix`) {
				x.inAppendix = true
			}
			continue
		case "Header":
			x.pushSection(b)
			continue
		}

		cur := x.current()
		if cur == nil {
			continue
		}
		switch b.Kind {
		case "Para", "Plain":
			if text := pandoc.InlineText(b.Children); text != "" {
				cur.Paragraphs = append(cur.Paragraphs, text)
			}
			x.collectCitations(b.Children, pandoc.InlineText(b.Children), cur)
			x.collectEquationSpans(b.Children, cur)
		case "Figure":
			x.addTarget(Figure, b.Attr.ID, pandoc.BlockText(b.Children), cur)
		case "Table":
			x.addTarget(Table, b.Attr.ID, pandoc.BlockText(b.Children), cur)
		case "Div":
			if kind, ok := KindForID(b.Attr.ID); ok {
				x.addTarget(kind, b.Attr.ID, pandoc.BlockText(b.Children), cur)
			} else {
				x.walk(b.Children)
			}
		}
	}
}

func (x *structureExtractor) current() *Section {
	if len(x.stack) == 0 {
		return nil
	}
	return x.stack[len(x.stack)-1]
}

func (x *structureExtractor) pushSection(b *pandoc.Node) {
	level := b.Level
	if level < 1 || level > 6 {
		return
	}
	title := pandoc.InlineText(b.Children)
	id := b.Attr.ID
	if id == "" {
		id = titleToID(title)
	}
	section := &Section{
		ID:         id,
		Title:      title,
		Level:      level,
		Number:     x.nextNumber(level),
		SourceFile: x.sourceFile,
		IsAppendix: x.inAppendix,
	}
	x.structure.Sections = append(x.structure.Sections, section)

	for len(x.stack) > 0 && x.stack[len(x.stack)-1].Level >= level {
		x.stack = x.stack[:len(x.stack)-1]
	}
	x.stack = append(x.stack, section)
}

// nextNumber advances the counters for a header at the given level and
// formats its number. Counters for all deeper levels reset; an appendix
// top-level header additionally advances the appendix letter and resets
// everything beneath it.
func (x *structureExtractor) nextNumber(level int) string {
	if x.inAppendix {
		if level == 1 {
			x.appendixLetter++
			x.appendixCounters = make(map[int]int)
			return string(x.appendixLetter)
		}
		x.appendixCounters[level]++
		for l := level + 1; l <= 6; l++ {
			x.appendixCounters[l] = 0
		}
		parts := []string{string(x.appendixLetter)}
		for l := 2; l <= level; l++ {
			parts = append(parts, strconv.Itoa(x.appendixCounters[l]))
		}
		return strings.Join(parts, ".")
	}

	x.counters[level]++
	for l := level + 1; l <= 6; l++ {
		x.counters[l] = 0
	}
	parts := make([]string, 0, level)
	for l := 1; l <= level; l++ {
		parts = append(parts, strconv.Itoa(x.counters[l]))
	}
	return strings.Join(parts, ".")
}

func (x *structureExtractor) addTarget(kind Kind, id, caption string, cur *Section) {
	if expected, ok := KindForID(id); !ok || expected != kind {
		return
	}
	fullID, refID := NormalizeID(id)
	t := &Target{
		Kind:       kind,
		RefID:      refID,
		FullID:     fullID,
		Caption:    caption,
		SourceFile: x.sourceFile,
	}
	switch kind {
	case Figure:
		cur.Figures = append(cur.Figures, t)
		x.structure.Figures[fullID] = t
	case Table:
		cur.Tables = append(cur.Tables, t)
		x.structure.Tables[fullID] = t
	case Equation:
		cur.Equations = append(cur.Equations, t)
		x.structure.Equations[fullID] = t
	}
}

func (x *structureExtractor) collectCitations(inlines []pandoc.Node, context string, cur *Section) {
	for i := range inlines {
		in := &inlines[i]
		switch in.Kind {
		case "Cite":
			for _, id := range in.Citations {
				x.addCitation(id, context, cur)
			}
		case "Link":
			if anchor, ok := strings.CutPrefix(in.Target, "#"); ok {
				x.addCitation(anchor, context, cur)
			}
		}
		x.collectCitations(in.Children, context, cur)
	}
}

func (x *structureExtractor) addCitation(id, context string, cur *Section) {
	kind, ok := KindForID(id)
	if !ok {
		return
	}
	fullID, refID := NormalizeID(id)
	c := &Citation{
		Kind:       kind,
		RefID:      refID,
		FullID:     fullID,
		Context:    context,
		SourceFile: x.sourceFile,
	}
	cur.Citations = append(cur.Citations, c)
	x.structure.Citations = append(x.structure.Citations, c)
}

func (x *structureExtractor) collectEquationSpans(inlines []pandoc.Node, cur *Section) {
	pandoc.Walk(inlines, func(n *pandoc.Node) bool {
		if n.Kind == "Span" {
			if kind, ok := KindForID(n.Attr.ID); ok && kind == Equation {
				x.addTarget(Equation, n.Attr.ID, mathText(n.Children), cur)
			}
		}
		return true
	})
}

// linkHierarchy wires parent/child and sibling pointers from the flat
// document-order section list. Levels along any parent chain are
// non-decreasing by construction.
func (x *structureExtractor) linkHierarchy() {
	var stack []*Section
	for _, s := range x.structure.Sections {
		for len(stack) > 0 && stack[len(stack)-1].Level >= s.Level {
			stack = stack[:len(stack)-1]
		}
		if len(stack) > 0 {
			parent := stack[len(stack)-1]
			s.Parent = parent
			parent.Children = append(parent.Children, s)
		} else {
			x.structure.RootSections = append(x.structure.RootSections, s)
		}
		stack = append(stack, s)
	}

	bySibling := make(map[*Section][]*Section)
	for _, s := range x.structure.Sections {
		bySibling[s.Parent] = append(bySibling[s.Parent], s)
	}
	for _, siblings := range bySibling {
		for i := range siblings {
			if i > 0 {
				siblings[i].PrevSibling = siblings[i-1]
				siblings[i-1].NextSibling = siblings[i]
			}
		}
	}
}

var nonIDChars = regexp.MustCompile(`[^\w\s-]`)
var idSeparators = regexp.MustCompile(`[\s_]+`)

func titleToID(title string) string {
	id := strings.ToLower(title)
	id = nonIDChars.ReplaceAllString(id, "")
	return idSeparators.ReplaceAllString(id, "-")
}
