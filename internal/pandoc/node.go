// Package pandoc models a converted document tree in the shape pandoc
// emits as JSON. Every element, block or inline, is normalized to a
// single Node type (kind, attributes, children) so traversal code is
// written once instead of per node shape.
package pandoc

import (
	"encoding/json"
	"fmt"
)

// Node is a uniform view of one pandoc AST element.
type Node struct {
	Kind string // "Header", "Para", "Figure", "Table", "Div", "Span", "Str", ...

	Attr   Attr
	Level  int    // headers only
	Text   string // Str content, RawBlock payload, Math latex
	Format string // RawBlock/RawInline format ("html", "tex", ...)
	Target string // Link/Image url

	// Citations holds the citation ids of a Cite element.
	Citations []string

	Children []Node
}

// Attr is the pandoc attribute triple.
type Attr struct {
	ID      string
	Classes []string
	KeyVals map[string]string
}

// Doc is a parsed document tree.
type Doc struct {
	Meta   map[string]any
	Blocks []Node
}

// Parse decodes a pandoc JSON AST (pandoc --to=json output).
func Parse(data []byte) (*Doc, error) {
	var raw struct {
		Meta   map[string]any    `json:"meta"`
		Blocks []json.RawMessage `json:"blocks"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode ast: %w", err)
	}
	doc := &Doc{Meta: raw.Meta}
	for _, b := range raw.Blocks {
		doc.Blocks = append(doc.Blocks, decodeNode(b))
	}
	return doc, nil
}

// decodeNode turns one {"t": ..., "c": ...} element into a Node. Anything
// that doesn't match an expected shape decodes to a zero-ish Node rather
// than failing; extraction treats unknown shapes as content-free.
func decodeNode(raw json.RawMessage) Node {
	var elem struct {
		T string          `json:"t"`
		C json.RawMessage `json:"c"`
	}
	if err := json.Unmarshal(raw, &elem); err != nil || elem.T == "" {
		return Node{}
	}

	n := Node{Kind: elem.T}
	switch elem.T {
	case "Str":
		var s string
		if json.Unmarshal(elem.C, &s) == nil {
			n.Text = s
		}
	case "Space", "SoftBreak", "LineBreak", "HorizontalRule", "Null":
		// no content
	case "Header":
		// [level, attr, [inlines]]
		var parts []json.RawMessage
		if json.Unmarshal(elem.C, &parts) == nil && len(parts) >= 3 {
			json.Unmarshal(parts[0], &n.Level)
			n.Attr = decodeAttr(parts[1])
			n.Children = decodeNodeList(parts[2])
		}
	case "Para", "Plain", "Emph", "Strong", "Strikeout", "Superscript", "Subscript", "SmallCaps", "BlockQuote":
		n.Children = decodeNodeList(elem.C)
	case "Div", "Span":
		// [attr, [children]]
		var parts []json.RawMessage
		if json.Unmarshal(elem.C, &parts) == nil && len(parts) >= 2 {
			n.Attr = decodeAttr(parts[0])
			n.Children = decodeNodeList(parts[1])
		}
	case "Figure":
		// [attr, caption, [blocks]]
		var parts []json.RawMessage
		if json.Unmarshal(elem.C, &parts) == nil && len(parts) >= 3 {
			n.Attr = decodeAttr(parts[0])
			n.Children = append(decodeCaption(parts[1]), decodeNodeList(parts[2])...)
		}
	case "Table":
		// [attr, caption, colspecs, head, bodies, foot]; only attr and
		// caption carry cross-reference information.
		var parts []json.RawMessage
		if json.Unmarshal(elem.C, &parts) == nil && len(parts) >= 2 {
			n.Attr = decodeAttr(parts[0])
			n.Children = decodeCaption(parts[1])
		}
	case "Link", "Image":
		// [attr, [inlines], [url, title]]
		var parts []json.RawMessage
		if json.Unmarshal(elem.C, &parts) == nil && len(parts) >= 3 {
			n.Attr = decodeAttr(parts[0])
			n.Children = decodeNodeList(parts[1])
			var target []string
			if json.Unmarshal(parts[2], &target) == nil && len(target) >= 1 {
				n.Target = target[0]
			}
		}
	case "Cite":
		// [[citation...], [inlines]]
		var parts []json.RawMessage
		if json.Unmarshal(elem.C, &parts) == nil && len(parts) >= 2 {
			var cites []struct {
				CitationID string `json:"citationId"`
			}
			if json.Unmarshal(parts[0], &cites) == nil {
				for _, c := range cites {
					if c.CitationID != "" {
						n.Citations = append(n.Citations, c.CitationID)
					}
				}
			}
			n.Children = decodeNodeList(parts[1])
		}
	case "Math":
		// [{t: DisplayMath|InlineMath}, "latex"]
		var parts []json.RawMessage
		if json.Unmarshal(elem.C, &parts) == nil && len(parts) >= 2 {
			var latex string
			if json.Unmarshal(parts[1], &latex) == nil {
				n.Text = latex
			}
		}
	case "RawBlock", "RawInline", "CodeBlock", "Code":
		// [format-or-attr, text]
		var parts []json.RawMessage
		if json.Unmarshal(elem.C, &parts) == nil && len(parts) >= 2 {
			var format string
			if json.Unmarshal(parts[0], &format) == nil {
				n.Format = format
			} else {
				n.Attr = decodeAttr(parts[0])
			}
			var text string
			if json.Unmarshal(parts[1], &text) == nil {
				n.Text = text
			}
		}
	case "BulletList":
		// [[blocks]...]
		var items []json.RawMessage
		if json.Unmarshal(elem.C, &items) == nil {
			for _, item := range items {
				n.Children = append(n.Children, decodeNodeList(item)...)
			}
		}
	case "OrderedList":
		// [listattrs, [[blocks]...]]
		var parts []json.RawMessage
		if json.Unmarshal(elem.C, &parts) == nil && len(parts) >= 2 {
			var items []json.RawMessage
			if json.Unmarshal(parts[1], &items) == nil {
				for _, item := range items {
					n.Children = append(n.Children, decodeNodeList(item)...)
				}
			}
		}
	default:
		// Unknown element: salvage any nested elements so targets and
		// citations inside them are still found.
		n.Children = decodeNested(elem.C)
	}
	return n
}

func decodeNodeList(raw json.RawMessage) []Node {
	var items []json.RawMessage
	if json.Unmarshal(raw, &items) != nil {
		return nil
	}
	nodes := make([]Node, 0, len(items))
	for _, item := range items {
		nodes = append(nodes, decodeNode(item))
	}
	return nodes
}

// decodeCaption handles both pandoc caption encodings: the bare
// [short, [blocks]] pair and the tagged {"t":"Caption","c":[...]} form.
func decodeCaption(raw json.RawMessage) []Node {
	var tagged struct {
		T string          `json:"t"`
		C json.RawMessage `json:"c"`
	}
	if json.Unmarshal(raw, &tagged) == nil && tagged.T == "Caption" {
		raw = tagged.C
	}
	var parts []json.RawMessage
	if json.Unmarshal(raw, &parts) != nil || len(parts) < 2 {
		return nil
	}
	return []Node{{Kind: "Caption", Children: decodeNodeList(parts[1])}}
}

// decodeNested scans arbitrary content for embedded {"t": ...} elements.
func decodeNested(raw json.RawMessage) []Node {
	var items []json.RawMessage
	if json.Unmarshal(raw, &items) != nil {
		return nil
	}
	var nodes []Node
	for _, item := range items {
		var probe struct {
			T string `json:"t"`
		}
		if json.Unmarshal(item, &probe) == nil && probe.T != "" {
			nodes = append(nodes, decodeNode(item))
			continue
		}
		nodes = append(nodes, decodeNested(item)...)
	}
	return nodes
}

func decodeAttr(raw json.RawMessage) Attr {
	// Attr is [id, [classes], [[k,v]...]]. Malformed attrs mean "no id".
	var parts []json.RawMessage
	if json.Unmarshal(raw, &parts) != nil || len(parts) < 1 {
		return Attr{}
	}
	var a Attr
	json.Unmarshal(parts[0], &a.ID)
	if len(parts) >= 2 {
		json.Unmarshal(parts[1], &a.Classes)
	}
	if len(parts) >= 3 {
		var kvs [][]string
		if json.Unmarshal(parts[2], &kvs) == nil {
			for _, kv := range kvs {
				if len(kv) == 2 {
					if a.KeyVals == nil {
						a.KeyVals = make(map[string]string)
					}
					a.KeyVals[kv[0]] = kv[1]
				}
			}
		}
	}
	return a
}
