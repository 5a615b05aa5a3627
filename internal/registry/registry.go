// Package registry is the single-compilation-run store mapping semantic
// cross-reference ids to stable Word-style bookmark names, in document
// order. One Registry per run; never shared across runs.
package registry

import (
	"log/slog"
	"regexp"

	"github.com/Krande/paradoc-go/internal/crossref"
	"github.com/Krande/paradoc-go/internal/wml"
)

// Item is one registered cross-referenceable item.
type Item struct {
	Kind          crossref.Kind
	SemanticID    string // bare id, e.g. "historical_trends"
	Bookmark      string // e.g. "_Ref306075071"
	DisplayNumber string // as-rendered number, e.g. "2-1"; set late
	Caption       *wml.Paragraph
	DocumentOrder int
}

// Registry assigns bookmarks and document order. Registration is
// idempotent: the first call for a semantic id creates the item, later
// calls return the existing bookmark without touching order.
type Registry struct {
	byKind map[crossref.Kind]map[string]*Item
	all    []*Item // document order, all kinds interleaved
	log    *slog.Logger
}

// New returns an empty registry for one compilation run.
func New(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	byKind := make(map[crossref.Kind]map[string]*Item, len(crossref.Kinds))
	for _, k := range crossref.Kinds {
		byKind[k] = make(map[string]*Item)
	}
	return &Registry{byKind: byKind, log: log}
}

// Register records an item of the given kind and returns its bookmark
// name. caption may be nil when no caption paragraph exists yet.
func (r *Registry) Register(kind crossref.Kind, semanticID string, caption *wml.Paragraph) string {
	if item, ok := r.byKind[kind][semanticID]; ok {
		return item.Bookmark
	}
	bookmark, _ := wml.GenerateBookmarkName()
	item := &Item{
		Kind:          kind,
		SemanticID:    semanticID,
		Bookmark:      bookmark,
		Caption:       caption,
		DocumentOrder: len(r.all),
	}
	r.byKind[kind][semanticID] = item
	r.all = append(r.all, item)
	return bookmark
}

// RegisterFigure registers a figure and returns its bookmark.
func (r *Registry) RegisterFigure(semanticID string, caption *wml.Paragraph) string {
	return r.Register(crossref.Figure, semanticID, caption)
}

// RegisterTable registers a table and returns its bookmark.
func (r *Registry) RegisterTable(semanticID string, caption *wml.Paragraph) string {
	return r.Register(crossref.Table, semanticID, caption)
}

// RegisterEquation registers an equation and returns its bookmark.
func (r *Registry) RegisterEquation(semanticID string, caption *wml.Paragraph) string {
	return r.Register(crossref.Equation, semanticID, caption)
}

// Bookmark returns the bookmark for a registered id.
func (r *Registry) Bookmark(kind crossref.Kind, semanticID string) (string, bool) {
	item, ok := r.byKind[kind][semanticID]
	if !ok {
		return "", false
	}
	return item.Bookmark, true
}

// Item returns the registered item for an id, or nil.
func (r *Registry) Item(kind crossref.Kind, semanticID string) *Item {
	return r.byKind[kind][semanticID]
}

// ItemsInOrder returns the items of one kind in document order.
func (r *Registry) ItemsInOrder(kind crossref.Kind) []*Item {
	var out []*Item
	for _, item := range r.all {
		if item.Kind == kind {
			out = append(out, item)
		}
	}
	return out
}

// BookmarksInOrder is the document-order bookmark projection of one
// kind, used for positional citation matching.
func (r *Registry) BookmarksInOrder(kind crossref.Kind) []string {
	items := r.ItemsInOrder(kind)
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Bookmark
	}
	return out
}

// AllItems returns every item in document order.
func (r *Registry) AllItems() []*Item { return r.all }

// displayNumberRe matches a caption number such as "2-1" or "1.3".
var displayNumberRe = regexp.MustCompile(`\d+[-.]\d+`)

// UpdateDisplayNumbers scans each item's caption text for its rendered
// number. This runs after caption rebuilding and before citation
// conversion: the numbering fields are not evaluated yet, so the
// literal as-rendered text is the only number available.
//
// The first digit-pair in the caption wins. Rebuilt captions always
// lead with the numbering span, but an incidental pair earlier in free
// text (a "1.5" in an equation formula, say) would be picked up
// instead; callers feeding raw captions should keep that in mind.
func (r *Registry) UpdateDisplayNumbers() {
	for _, item := range r.all {
		if item.Caption == nil {
			continue
		}
		if m := displayNumberRe.FindString(item.Caption.Text()); m != "" {
			item.DisplayNumber = m
		}
	}
}

// Counts returns per-kind registration counts plus the total.
func (r *Registry) Counts() map[string]int {
	counts := map[string]int{"total": len(r.all)}
	for _, k := range crossref.Kinds {
		counts[k.Label()] = len(r.byKind[k])
	}
	return counts
}
