package convert

import (
	"sort"
	"strings"

	"github.com/Krande/paradoc-go/internal/wml"
)

// ConvertByTextPattern scans the composed paragraph stream and rewrites
// every rendered "Label N-M" citation into a REF field chain. Caption
// paragraphs seed the number-to-index maps in a first pass; all other
// paragraphs are rewritten in a second pass.
func (c *Converter) ConvertByTextPattern(doc *wml.Document) {
	states := c.labelStates()
	if len(states) == 0 {
		return
	}

	converted := 0
	for _, p := range doc.Paragraphs() {
		if c.CaptionStyles[p.Style] {
			continue
		}
		if c.convertParagraphText(p, states) {
			converted++
		}
	}
	c.Log.Info("text-pattern conversion complete", "paragraphs", converted)
}

// match is one pattern hit inside a paragraph's flattened text.
type match struct {
	start, end int
	numStr     string
	state      *labelState
}

// convertParagraphText rewrites one paragraph. Returns whether any REF
// field was emitted.
func (c *Converter) convertParagraphText(p *wml.Paragraph, states []*labelState) bool {
	text := p.Text()
	if text == "" {
		return false
	}

	matches := collectMatches(text, states)
	if len(matches) == 0 {
		return false
	}

	// Replay the paragraph in one pass: SCAN finds the next match,
	// EMIT_LITERAL copies unmatched source text, EMIT_FIELD synthesizes
	// the reference field group, DONE flushes the tail.
	p.ClearContent()
	emitted := false
	last := 0
	for _, m := range matches {
		bookmark := m.state.resolve(strings.TrimRight(m.numStr, "."))
		if bookmark == "" {
			// Unresolvable: leave the source text untouched and keep
			// converting the rest of the paragraph.
			c.Log.Warn("no bookmark for citation, leaving as text",
				"label", m.state.label, "number", m.numStr)
			continue
		}
		if m.start > last {
			p.AppendText(text[last:m.start])
		}
		for _, node := range refFieldNodes(bookmark) {
			p.Children = append(p.Children, node)
		}
		emitted = true
		last = m.end
	}
	if last < len(text) {
		p.AppendText(text[last:])
	}
	return emitted
}

// collectMatches merges all labels' hits into one position-sorted list
// and drops any match starting inside an earlier kept match's span
// (first-match-wins overlap resolution).
func collectMatches(text string, states []*labelState) []match {
	var all []match
	for _, st := range states {
		for _, loc := range st.pattern.FindAllStringSubmatchIndex(text, -1) {
			g := st.numGroup * 2
			if g+1 >= len(loc) || loc[g] < 0 {
				continue
			}
			all = append(all, match{
				start:  loc[0],
				end:    loc[1],
				numStr: text[loc[g]:loc[g+1]],
				state:  st,
			})
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].start < all[j].start })

	kept := all[:0]
	lastEnd := 0
	for _, m := range all {
		if m.start >= lastEnd {
			kept = append(kept, m)
			lastEnd = m.end
		}
	}
	return kept
}
