// Package inspect audits produced documents: a structural scan of a
// docx (styles, captions, headings) and a rendered-PDF text scan that
// finds broken references after field evaluation.
package inspect

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/fumiama/go-docx"
	pdflib "github.com/ledongthuc/pdf"
)

// DocxReport summarizes the structure of one docx.
type DocxReport struct {
	Paragraphs int            `json:"paragraphs"`
	Headings   int            `json:"headings"`
	Styles     map[string]int `json:"styles"`
	Captions   []string       `json:"captions"`
}

// captionStyles are the paragraph styles counted as captions.
var captionStyles = map[string]bool{
	"Image Caption":    true,
	"ImageCaption":     true,
	"Table Caption":    true,
	"TableCaption":     true,
	"Captioned Figure": true,
}

// Docx scans a produced document's paragraph stream.
func Docx(data []byte) (*DocxReport, error) {
	parsed, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	report := &DocxReport{Styles: make(map[string]int)}
	for _, item := range parsed.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		report.Paragraphs++

		style := ""
		if para.Properties != nil && para.Properties.Style != nil {
			style = para.Properties.Style.Val
		}
		if style != "" {
			report.Styles[style]++
		}
		if strings.HasPrefix(strings.ToLower(style), "heading") {
			report.Headings++
		}
		if captionStyles[style] {
			report.Captions = append(report.Captions, paragraphText(para))
		}
	}
	return report, nil
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

// PDFReport summarizes a rendered PDF's reference health.
type PDFReport struct {
	Pages      int            `json:"pages"`
	BrokenRefs int            `json:"broken_refs"`
	Mentions   map[string]int `json:"mentions"`
}

// brokenRefText is what a word processor renders for a REF field whose
// bookmark no longer exists.
const brokenRefText = "Error! Reference source not found"

var mentionRe = regexp.MustCompile(`(?:Figure|Table|Eq\.?)\s+[A-Z0-9]+-\d+`)

// PDF scans a rendered PDF's plain text for broken reference markers
// and resolved label mentions.
func PDF(path string) (*PDFReport, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	report := &PDFReport{Mentions: make(map[string]int)}
	report.Pages = reader.NumPage()
	for i := 1; i <= report.Pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		report.BrokenRefs += strings.Count(text, brokenRefText)
		for _, m := range mentionRe.FindAllString(text, -1) {
			report.Mentions[m]++
		}
	}
	return report, nil
}
