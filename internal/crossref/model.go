// Package crossref extracts cross-reference targets, citations and the
// section hierarchy from a converted document tree, and validates that
// every citation has a target before composition begins.
package crossref

import (
	"fmt"
	"strings"
)

// Kind tags the three cross-referenceable item kinds. All kind-specific
// behavior (label, id prefix, abbreviation) hangs off this one type.
type Kind int

const (
	Figure Kind = iota
	Table
	Equation
)

// Label is the caption label and SEQ counter key ("Figure", "Table", "Eq").
func (k Kind) Label() string {
	switch k {
	case Figure:
		return "Figure"
	case Table:
		return "Table"
	case Equation:
		return "Eq"
	}
	return ""
}

// Prefix is the semantic id prefix ("fig", "tbl", "eq").
func (k Kind) Prefix() string {
	switch k {
	case Figure:
		return "fig"
	case Table:
		return "tbl"
	case Equation:
		return "eq"
	}
	return ""
}

// Abbrev is the short in-text form stripped before hyperlink citations.
func (k Kind) Abbrev() string {
	switch k {
	case Figure:
		return "Fig."
	case Table:
		return "Tbl."
	case Equation:
		return "Eq."
	}
	return ""
}

func (k Kind) String() string { return k.Prefix() }

// Kinds lists all reference kinds in a stable order.
var Kinds = []Kind{Figure, Table, Equation}

// KindForID returns the kind matching a full or prefixed id such as
// "fig:overview" or "tbl_results".
func KindForID(id string) (Kind, bool) {
	for _, k := range Kinds {
		if strings.HasPrefix(id, k.Prefix()+":") || strings.HasPrefix(id, k.Prefix()+"_") {
			return k, true
		}
	}
	return 0, false
}

// NormalizeID converts an id to its canonical colon form and splits off
// the bare semantic id. The colon form is preferred; an underscore
// directly after the prefix is accepted and normalized.
//
//	"fig:trends"  -> ("fig:trends", "trends")
//	"fig_trends"  -> ("fig:trends", "trends")
func NormalizeID(id string) (fullID, refID string) {
	if i := strings.Index(id, ":"); i >= 0 {
		return id, id[i+1:]
	}
	if i := strings.Index(id, "_"); i >= 0 {
		return id[:i] + ":" + id[i+1:], id[i+1:]
	}
	return id, id
}

// Target is a figure, table or equation definition carrying a semantic
// cross-reference id. Immutable once extracted.
type Target struct {
	Kind       Kind
	RefID      string // bare id, e.g. "historical_trends"
	FullID     string // prefixed id, e.g. "fig:historical_trends"
	Caption    string // caption text, or latex for equations
	SourceFile string
}

// Citation is an in-text reference to a Target.
type Citation struct {
	Kind       Kind
	RefID      string
	FullID     string
	Context    string // surrounding paragraph text
	SourceFile string
}

// Model is the validated cross-reference data for one document.
type Model struct {
	Targets   map[string]*Target // by full id
	Citations []*Citation

	Figures   map[string]*Target // by bare id
	Tables    map[string]*Target
	Equations map[string]*Target

	// Dangling lists citations whose full id has no matching target
	// after the full traversal.
	Dangling []*Citation
}

// NewModel returns an empty model with all maps allocated.
func NewModel() *Model {
	return &Model{
		Targets:   make(map[string]*Target),
		Figures:   make(map[string]*Target),
		Tables:    make(map[string]*Target),
		Equations: make(map[string]*Target),
	}
}

// Target returns the target for a full id, or nil.
func (m *Model) Target(fullID string) *Target {
	return m.Targets[fullID]
}

// CitationsFor returns all citations referencing one target.
func (m *Model) CitationsFor(fullID string) []*Citation {
	var out []*Citation
	for _, c := range m.Citations {
		if c.FullID == fullID {
			out = append(out, c)
		}
	}
	return out
}

func (m *Model) add(t *Target) {
	m.Targets[t.FullID] = t
	switch t.Kind {
	case Figure:
		m.Figures[t.RefID] = t
	case Table:
		m.Tables[t.RefID] = t
	case Equation:
		m.Equations[t.RefID] = t
	}
}

// Stats summarizes a validation pass.
type Stats struct {
	TotalTargets        int            `json:"total_targets"`
	TotalCitations      int            `json:"total_citations"`
	Figures             int            `json:"figures"`
	Tables              int            `json:"tables"`
	Equations           int            `json:"equations"`
	DanglingCitations   int            `json:"dangling_citations"`
	UnreferencedTargets []string       `json:"unreferenced_targets"`
	CitationCounts      map[string]int `json:"citation_counts"`
}

// Validate computes per-type counts, citation counts per target, the
// unreferenced-target set and the dangling count.
func (m *Model) Validate() Stats {
	stats := Stats{
		TotalTargets:      len(m.Targets),
		TotalCitations:    len(m.Citations),
		Figures:           len(m.Figures),
		Tables:            len(m.Tables),
		Equations:         len(m.Equations),
		DanglingCitations: len(m.Dangling),
		CitationCounts:    make(map[string]int),
	}
	referenced := make(map[string]bool, len(m.Citations))
	for _, c := range m.Citations {
		referenced[c.FullID] = true
		stats.CitationCounts[c.FullID]++
	}
	for fullID := range m.Targets {
		if !referenced[fullID] {
			stats.UnreferencedTargets = append(stats.UnreferencedTargets, fullID)
		}
	}
	return stats
}

func (m *Model) String() string {
	return fmt.Sprintf("crossref.Model(targets=%d, citations=%d, dangling=%d)",
		len(m.Targets), len(m.Citations), len(m.Dangling))
}
