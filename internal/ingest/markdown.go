package ingest

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/Krande/paradoc-go/internal/pandoc"
)

// displayMathRe matches a display-math paragraph with an optional
// trailing equation id tag.
var displayMathRe = regexp.MustCompile(`(?s)^\$\$(.+?)\$\$\s*$`)

// ParseMarkdown parses markdown into the normalized tree using
// goldmark, recognizing pandoc-crossref ids on headings, images and
// display equations, and table caption lines.
func ParseMarkdown(src []byte) (*pandoc.Doc, error) {
	md := goldmark.New(
		goldmark.WithExtensions(extension.Table),
		goldmark.WithParserOptions(parser.WithAttribute()),
	)
	root := md.Parser().Parse(text.NewReader(src))

	doc := &pandoc.Doc{Meta: map[string]any{}}
	var lastTable *pandoc.Node

	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			title, id := splitAttrTag(blockText(node, src))
			if id == "" {
				if v, ok := node.AttributeString("id"); ok {
					if b, ok := v.([]byte); ok {
						id = string(b)
					}
				}
			}
			doc.Blocks = append(doc.Blocks, pandoc.Node{
				Kind:     "Header",
				Level:    node.Level,
				Attr:     pandoc.Attr{ID: id},
				Children: []pandoc.Node{{Kind: "Str", Text: title}},
			})
			lastTable = nil

		case *ast.FencedCodeBlock:
			doc.Blocks = append(doc.Blocks, pandoc.Node{
				Kind: "CodeBlock",
				Text: codeLines(node, src),
			})
			lastTable = nil

		case *ast.HTMLBlock:
			doc.Blocks = append(doc.Blocks, pandoc.Node{
				Kind:   "RawBlock",
				Format: "html",
				Text:   rawLines(node, src),
			})

		case *east.Table:
			doc.Blocks = append(doc.Blocks, pandoc.Node{Kind: "Table"})
			lastTable = &doc.Blocks[len(doc.Blocks)-1]

		case *ast.List:
			list := pandoc.Node{Kind: "BulletList"}
			if node.IsOrdered() {
				list.Kind = "OrderedList"
			}
			for item := node.FirstChild(); item != nil; item = item.NextSibling() {
				if t := blockText(item, src); t != "" {
					list.Children = append(list.Children, pandoc.Node{
						Kind:     "Plain",
						Children: inlineNodes(t),
					})
				}
			}
			doc.Blocks = append(doc.Blocks, list)
			lastTable = nil

		case *ast.Paragraph:
			doc.Blocks = appendParagraph(doc.Blocks, node, src, &lastTable)

		default:
			if t := blockText(n, src); t != "" {
				doc.Blocks = append(doc.Blocks, pandoc.Node{
					Kind:     "Para",
					Children: inlineNodes(t),
				})
			}
			lastTable = nil
		}
	}
	return doc, nil
}

// appendParagraph classifies one markdown paragraph: an appendix
// marker, a table caption line, a display equation, a figure (image
// with an id tag) or plain text.
func appendParagraph(blocks []pandoc.Node, node *ast.Paragraph, src []byte, lastTable **pandoc.Node) []pandoc.Node {
	raw := blockText(node, src)

	if strings.TrimSpace(raw) == `\appendix` {
		*lastTable = nil
		return append(blocks, pandoc.Node{Kind: "RawBlock", Format: "tex", Text: `\appendix`})
	}

	// "Table: caption {#tbl:x}" directly after a table names it.
	if *lastTable != nil {
		if caption, ok := strings.CutPrefix(raw, "Table:"); ok {
			captionText, id := splitAttrTag(strings.TrimSpace(caption))
			(*lastTable).Attr.ID = id
			(*lastTable).Children = []pandoc.Node{captionNode(captionText)}
			*lastTable = nil
			return blocks
		}
	}
	*lastTable = nil

	text, id := splitAttrTag(raw)

	if m := displayMathRe.FindStringSubmatch(strings.TrimSpace(text)); m != nil {
		span := pandoc.Node{
			Kind:     "Span",
			Attr:     pandoc.Attr{ID: id},
			Children: []pandoc.Node{{Kind: "Math", Text: strings.TrimSpace(m[1])}},
		}
		return append(blocks, pandoc.Node{Kind: "Para", Children: []pandoc.Node{span}})
	}

	if img, ok := singleImage(node); ok {
		alt := string(img.Text(src))
		caption := alt
		if caption == "" {
			caption = text
		}
		return append(blocks, pandoc.Node{
			Kind: "Figure",
			Attr: pandoc.Attr{ID: id},
			Children: []pandoc.Node{
				captionNode(caption),
				{Kind: "Plain", Children: []pandoc.Node{{
					Kind:     "Image",
					Target:   string(img.Destination),
					Children: []pandoc.Node{{Kind: "Str", Text: alt}},
				}}},
			},
		})
	}

	if raw == "" {
		return blocks
	}
	return append(blocks, pandoc.Node{Kind: "Para", Children: inlineNodes(raw)})
}

func captionNode(text string) pandoc.Node {
	return pandoc.Node{
		Kind:     "Caption",
		Children: []pandoc.Node{{Kind: "Plain", Children: []pandoc.Node{{Kind: "Str", Text: text}}}},
	}
}

// singleImage reports whether the paragraph's only meaningful inline is
// an image.
func singleImage(node *ast.Paragraph) (*ast.Image, bool) {
	var img *ast.Image
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		switch in := c.(type) {
		case *ast.Image:
			if img != nil {
				return nil, false
			}
			img = in
		case *ast.Text:
			// attribute tags and whitespace around the image are fine
		default:
			return nil, false
		}
	}
	return img, img != nil
}

// blockText gets the text content of a goldmark AST node.
func blockText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
	}
	if buf.Len() == 0 {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if t, ok := c.(*ast.Text); ok {
				buf.Write(t.Value(src))
				if t.HardLineBreak() || t.SoftLineBreak() {
					buf.WriteByte('\n')
				}
			} else {
				buf.WriteString(blockText(c, src))
			}
		}
	}
	return strings.TrimSpace(strings.ReplaceAll(buf.String(), "\n", " "))
}

func codeLines(n *ast.FencedCodeBlock, src []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf.Write(line.Value(src))
	}
	return buf.String()
}

func rawLines(n *ast.HTMLBlock, src []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf.Write(line.Value(src))
	}
	if n.HasClosure() {
		buf.Write(n.ClosureLine.Value(src))
	}
	return buf.String()
}
