// Package convert rewrites in-text citations into live REF field chains
// pointing at registry-assigned bookmarks. Two strategies are
// supported: resolving hyperlink anchors directly, and matching
// rendered "Label N-M" text patterns.
package convert

import (
	"log/slog"
	"regexp"
	"strconv"

	"github.com/Krande/paradoc-go/internal/crossref"
	"github.com/Krande/paradoc-go/internal/registry"
	"github.com/Krande/paradoc-go/internal/wml"
)

// DefaultCaptionStyles are the paragraph styles citation scanning skips:
// captions are targets, not citations.
var DefaultCaptionStyles = []string{"Image Caption", "Table Caption", "Captioned Figure"}

// Converter rewrites citations for one compilation run. The registry
// must be fully populated (and display numbers updated) before either
// strategy runs.
type Converter struct {
	Registry      *registry.Registry
	CaptionStyles map[string]bool
	Log           *slog.Logger
}

// New returns a Converter with the default caption style skip list.
func New(reg *registry.Registry, log *slog.Logger) *Converter {
	if log == nil {
		log = slog.Default()
	}
	styles := make(map[string]bool, len(DefaultCaptionStyles))
	for _, s := range DefaultCaptionStyles {
		styles[s] = true
	}
	return &Converter{Registry: reg, CaptionStyles: styles, Log: log}
}

// refFieldNodes builds the five-run reference field group: field begin,
// cross-reference instruction, field separator, placeholder result,
// field end.
func refFieldNodes(bookmark string) []wml.Node {
	return []wml.Node{
		&wml.Run{Children: []wml.RunChild{&wml.FieldChar{Type: wml.FieldBegin}}},
		&wml.Run{Children: []wml.RunChild{&wml.InstrText{Value: wml.RefInstruction(bookmark)}}},
		&wml.Run{Children: []wml.RunChild{&wml.FieldChar{Type: wml.FieldSeparate}}},
		&wml.Run{Children: []wml.RunChild{&wml.Text{Value: "1-1"}}},
		&wml.Run{Children: []wml.RunChild{&wml.FieldChar{Type: wml.FieldEnd}}},
	}
}

// labelPattern matches in-text references for one label: the full label
// or its abbreviated lowercase form, then a number of digit groups
// joined by '.' or '-'. Equations capture the number in group 2.
func labelPattern(kind crossref.Kind) (*regexp.Regexp, int) {
	switch kind {
	case crossref.Figure:
		return regexp.MustCompile(`(?i)\b(?:Figure|fig\.)[\s\x{00A0}]*([\d.\-]+)`), 1
	case crossref.Table:
		return regexp.MustCompile(`(?i)\b(?:Table|tbl\.)[\s\x{00A0}]*([\d.\-]+)`), 1
	case crossref.Equation:
		return regexp.MustCompile(`(?i)\b((?:Eq(?:uation)?|eq\.)\s+([\d\-]+))\b`), 2
	}
	return nil, 0
}

// labelState carries one label's matching state through a conversion
// pass.
type labelState struct {
	kind     crossref.Kind
	label    string
	pattern  *regexp.Regexp
	numGroup int

	bookmarks    []string
	displayToIdx map[string]int
	seqToIdx     map[string]int

	// fallback switches the label to strictly-increasing occurrence
	// counting. It triggers when every observed caption number is
	// identical: the numbering fields are unevaluated so each caption
	// shows the same placeholder, and positions are the only signal.
	// Heuristic: not provably correct if captions were reordered or two
	// same-label groups interleave; preserved as-is.
	fallback   bool
	occurrence int
}

// labelStates builds matching state for every label that has registered
// items.
func (c *Converter) labelStates() []*labelState {
	var states []*labelState
	for _, kind := range crossref.Kinds {
		items := c.Registry.ItemsInOrder(kind)
		if len(items) == 0 {
			continue
		}
		pattern, numGroup := labelPattern(kind)
		st := &labelState{
			kind:         kind,
			label:        kind.Label(),
			pattern:      pattern,
			numGroup:     numGroup,
			bookmarks:    c.Registry.BookmarksInOrder(kind),
			displayToIdx: make(map[string]int, len(items)),
			seqToIdx:     make(map[string]int, len(items)),
		}
		var displays []string
		for idx, item := range items {
			st.seqToIdx[strconv.Itoa(idx+1)] = idx
			if item.DisplayNumber != "" {
				st.displayToIdx[item.DisplayNumber] = idx
				displays = append(displays, item.DisplayNumber)
			}
		}
		if len(displays) == len(items) && len(items) > 1 && allEqual(displays) {
			st.fallback = true
			c.Log.Warn("all caption numbers identical, falling back to occurrence order",
				"label", st.label, "number", displays[0])
		}
		states = append(states, st)
	}
	return states
}

// resolve maps a matched number string to a bookmark, or "" when the
// match cannot be resolved.
func (st *labelState) resolve(numStr string) string {
	var idx int
	switch {
	case st.fallback:
		idx = st.occurrence
		st.occurrence++
	default:
		var ok bool
		if idx, ok = st.displayToIdx[numStr]; !ok {
			if idx, ok = st.seqToIdx[numStr]; !ok {
				return ""
			}
		}
	}
	if idx < 0 || idx >= len(st.bookmarks) {
		return ""
	}
	return st.bookmarks[idx]
}

func allEqual(values []string) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}
