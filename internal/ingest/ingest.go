// Package ingest turns input files into the normalized document tree.
// Pandoc JSON is decoded directly; markdown and docx inputs are parsed
// and lifted into the same tree shape, including pandoc-crossref style
// ids ({#fig:x}) and citations ([@fig:x]).
package ingest

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Krande/paradoc-go/internal/pandoc"
)

// SupportedExtensions lists file extensions the compiler can ingest.
var SupportedExtensions = map[string]bool{
	".json":     true,
	".md":       true,
	".markdown": true,
	".docx":     true,
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// Parse dispatches on the file extension and returns the document tree.
func Parse(filename string, data []byte) (*pandoc.Doc, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		return pandoc.Parse(data)
	case ".md", ".markdown":
		return ParseMarkdown(data)
	case ".docx":
		return ParseDocx(data)
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", filepath.Ext(filename))
	}
}

// attrTagRe matches a trailing pandoc-crossref attribute tag such as
// "{#fig:overview}"; citeRe matches an in-text citation key.
var (
	attrTagRe = regexp.MustCompile(`\{#((?:fig|tbl|eq)[:_][A-Za-z0-9_.\-]+)[^}]*\}`)
	// Interior dots are part of an id; a trailing dot is sentence
	// punctuation.
	citeRe = regexp.MustCompile(`\[?@((?:fig|tbl|eq)[:_][A-Za-z0-9_\-]+(?:[.][A-Za-z0-9_\-]+)*)\]?`)
)

// splitAttrTag strips a trailing attribute tag from text and returns
// the cleaned text and the id, if any.
func splitAttrTag(text string) (string, string) {
	m := attrTagRe.FindStringSubmatchIndex(text)
	if m == nil {
		return text, ""
	}
	id := text[m[2]:m[3]]
	cleaned := strings.TrimSpace(text[:m[0]] + text[m[1]:])
	return cleaned, id
}

// inlineNodes splits text on citation keys, producing Str nodes
// interleaved with Cite nodes so the extractor sees citations the same
// way it does in decoded pandoc JSON.
func inlineNodes(text string) []pandoc.Node {
	var nodes []pandoc.Node
	last := 0
	for _, m := range citeRe.FindAllStringSubmatchIndex(text, -1) {
		if m[0] > last {
			nodes = append(nodes, pandoc.Node{Kind: "Str", Text: text[last:m[0]]})
		}
		id := text[m[2]:m[3]]
		nodes = append(nodes, pandoc.Node{
			Kind:      "Cite",
			Citations: []string{id},
			Children:  []pandoc.Node{{Kind: "Str", Text: text[m[0]:m[1]]}},
		})
		last = m[1]
	}
	if last < len(text) {
		nodes = append(nodes, pandoc.Node{Kind: "Str", Text: text[last:]})
	}
	return nodes
}
