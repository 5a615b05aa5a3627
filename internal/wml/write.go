package wml

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// WriteDocx writes the document as a minimal OOXML package: content
// types, package relationships and word/document.xml. Styling beyond
// paragraph style references is the composition template's concern,
// not this writer's.
func WriteDocx(w io.Writer, doc *Document) error {
	zw := zip.NewWriter(w)

	parts := []struct {
		name    string
		content string
	}{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", relsXML},
		{"word/document.xml", DocumentXML(doc)},
	}
	for _, part := range parts {
		f, err := zw.Create(part.name)
		if err != nil {
			return fmt.Errorf("create %s: %w", part.name, err)
		}
		if _, err := io.WriteString(f, part.content); err != nil {
			return fmt.Errorf("write %s: %w", part.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("close package: %w", err)
	}
	return nil
}

const contentTypesXML = xml.Header + `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
	`<Default Extension="xml" ContentType="application/xml"/>` +
	`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
	`</Types>`

const relsXML = xml.Header + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`</Relationships>`

// DocumentXML serializes the block stream to WordprocessingML.
func DocumentXML(doc *Document) string {
	var sb strings.Builder
	sb.WriteString(xml.Header)
	sb.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">`)
	sb.WriteString(`<w:body>`)
	for _, b := range doc.Blocks {
		switch blk := b.(type) {
		case *Paragraph:
			writeParagraph(&sb, blk)
		case *TableBlock:
			writeTable(&sb, blk)
		}
	}
	sb.WriteString(`</w:body></w:document>`)
	return sb.String()
}

func writeParagraph(sb *strings.Builder, p *Paragraph) {
	sb.WriteString(`<w:p>`)
	if p.Style != "" || len(p.TabStops) > 0 {
		sb.WriteString(`<w:pPr>`)
		if p.Style != "" {
			sb.WriteString(`<w:pStyle w:val="` + escape(styleID(p.Style)) + `"/>`)
		}
		if len(p.TabStops) > 0 {
			sb.WriteString(`<w:tabs>`)
			for _, ts := range p.TabStops {
				sb.WriteString(`<w:tab w:val="` + string(ts.Alignment) + `" w:pos="` + strconv.Itoa(ts.Twips) + `"/>`)
			}
			sb.WriteString(`</w:tabs>`)
		}
		sb.WriteString(`</w:pPr>`)
	}
	for _, child := range p.Children {
		writeNode(sb, child)
	}
	sb.WriteString(`</w:p>`)
}

func writeNode(sb *strings.Builder, n Node) {
	switch c := n.(type) {
	case *Run:
		writeRun(sb, c)
	case *Hyperlink:
		sb.WriteString(`<w:hyperlink w:anchor="` + escape(c.Anchor) + `">`)
		for _, r := range c.Runs {
			writeRun(sb, r)
		}
		sb.WriteString(`</w:hyperlink>`)
	case *BookmarkStart:
		sb.WriteString(`<w:bookmarkStart w:id="` + escape(c.ID) + `" w:name="` + escape(c.Name) + `"/>`)
	case *BookmarkEnd:
		sb.WriteString(`<w:bookmarkEnd w:id="` + escape(c.ID) + `"/>`)
	}
}

func writeRun(sb *strings.Builder, r *Run) {
	sb.WriteString(`<w:r>`)
	for _, c := range r.Children {
		switch rc := c.(type) {
		case *Text:
			if rc.PreserveSpace {
				sb.WriteString(`<w:t xml:space="preserve">` + escape(rc.Value) + `</w:t>`)
			} else {
				sb.WriteString(`<w:t>` + escape(rc.Value) + `</w:t>`)
			}
		case *FieldChar:
			sb.WriteString(`<w:fldChar w:fldCharType="` + string(rc.Type) + `"/>`)
		case *InstrText:
			sb.WriteString(`<w:instrText xml:space="preserve">` + escape(rc.Value) + `</w:instrText>`)
		case *Tab:
			sb.WriteString(`<w:tab/>`)
		}
	}
	sb.WriteString(`</w:r>`)
}

func writeTable(sb *strings.Builder, t *TableBlock) {
	sb.WriteString(`<w:tbl>`)
	for _, row := range t.Rows {
		sb.WriteString(`<w:tr>`)
		for _, cell := range row {
			sb.WriteString(`<w:tc>`)
			for _, p := range cell.Paragraphs {
				writeParagraph(sb, p)
			}
			sb.WriteString(`</w:tc>`)
		}
		sb.WriteString(`</w:tr>`)
	}
	sb.WriteString(`</w:tbl>`)
}

// styleID maps a display style name to its id form ("Image Caption" ->
// "ImageCaption").
func styleID(name string) string {
	return strings.ReplaceAll(name, " ", "")
}

func escape(s string) string {
	var sb strings.Builder
	xml.EscapeText(&sb, []byte(s))
	return sb.String()
}
