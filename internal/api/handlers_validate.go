package api

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/Krande/paradoc-go/internal/crossref"
	exporthtml "github.com/Krande/paradoc-go/internal/export/html"
	"github.com/Krande/paradoc-go/internal/ingest"
	"github.com/Krande/paradoc-go/internal/inspect"
)

// handleValidate parses the upload and returns the cross-reference
// statistics without producing a document.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	filename, data, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	doc, err := ingest.Parse(filename, data)
	if err != nil {
		jsonError(w, "parse: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	model := crossref.Extract(doc)
	stats := model.Validate()
	structure := crossref.ExtractStructure(doc)

	dangling := make([]string, 0, len(model.Dangling))
	for _, c := range model.Dangling {
		dangling = append(dangling, c.FullID)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"filename": filename,
		"stats":    stats,
		"sections": len(structure.Sections),
		"dangling": dangling,
	})
}

// handlePreview renders the upload as resolved HTML.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	filename, data, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	doc, err := ingest.Parse(filename, data)
	if err != nil {
		jsonError(w, "parse: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	e := &exporthtml.Exporter{Title: strings.TrimSuffix(filename, filepath.Ext(filename))}
	out, err := e.Export(doc)
	if err != nil {
		jsonError(w, "export: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(out)
}

// handleInspect audits an uploaded docx.
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	filename, data, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	if !strings.EqualFold(filepath.Ext(filename), ".docx") {
		jsonError(w, "inspect requires a .docx upload", http.StatusBadRequest)
		return
	}
	report, err := inspect.Docx(data)
	if err != nil {
		jsonError(w, "inspect: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}
