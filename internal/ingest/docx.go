package ingest

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/Krande/paradoc-go/internal/pandoc"
)

// captionStylePrefixes classify already-styled caption paragraphs when
// re-ingesting a docx.
var captionStylePrefixes = map[string]string{
	"Image Caption": "fig",
	"Table Caption": "tbl",
}

// ParseDocx lifts an existing docx into the normalized tree: heading
// styles become headers, caption-styled paragraphs become targets (id
// from a trailing tag when present) and everything else becomes plain
// paragraphs with citation keys split out.
func ParseDocx(data []byte) (*pandoc.Doc, error) {
	parsed, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	doc := &pandoc.Doc{Meta: map[string]any{}}
	autoID := 0

	for _, item := range parsed.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := paragraphText(para)
		if text == "" {
			continue
		}
		style := paragraphStyle(para)

		if level := headingLevel(style); level > 0 {
			title, id := splitAttrTag(text)
			doc.Blocks = append(doc.Blocks, pandoc.Node{
				Kind:     "Header",
				Level:    level,
				Attr:     pandoc.Attr{ID: id},
				Children: []pandoc.Node{{Kind: "Str", Text: title}},
			})
			continue
		}

		if prefix, ok := captionStyleKind(style); ok {
			caption, id := splitAttrTag(text)
			if id == "" {
				autoID++
				id = prefix + ":item_" + strconv.Itoa(autoID)
			}
			doc.Blocks = append(doc.Blocks, pandoc.Node{
				Kind:     "Div",
				Attr:     pandoc.Attr{ID: id},
				Children: []pandoc.Node{{Kind: "Plain", Children: []pandoc.Node{{Kind: "Str", Text: caption}}}},
			})
			continue
		}

		doc.Blocks = append(doc.Blocks, pandoc.Node{
			Kind:     "Para",
			Children: inlineNodes(text),
		})
	}
	return doc, nil
}

func paragraphStyle(para *docx.Paragraph) string {
	if para.Properties == nil || para.Properties.Style == nil {
		return ""
	}
	return para.Properties.Style.Val
}

func headingLevel(style string) int {
	for level := 1; level <= 6; level++ {
		n := strconv.Itoa(level)
		if strings.EqualFold(style, "Heading"+n) || strings.EqualFold(style, "heading "+n) {
			return level
		}
	}
	return 0
}

func captionStyleKind(style string) (string, bool) {
	for name, prefix := range captionStylePrefixes {
		if strings.EqualFold(style, name) || strings.EqualFold(style, strings.ReplaceAll(name, " ", "")) {
			return prefix, true
		}
	}
	return "", false
}

func paragraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
