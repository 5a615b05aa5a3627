// Package compile runs the full document compilation pipeline: extract
// the cross-reference model, compose the paragraph stream, rebuild
// captions with numbering field chains, convert citations to REF fields
// and serialize the result. An orchestrator runs compilations as
// background jobs for the HTTP API.
package compile

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Krande/paradoc-go/internal/caption"
	"github.com/Krande/paradoc-go/internal/compose"
	"github.com/Krande/paradoc-go/internal/config"
	"github.com/Krande/paradoc-go/internal/convert"
	"github.com/Krande/paradoc-go/internal/crossref"
	"github.com/Krande/paradoc-go/internal/fieldeval"
	"github.com/Krande/paradoc-go/internal/pandoc"
	"github.com/Krande/paradoc-go/internal/registry"
	"github.com/Krande/paradoc-go/internal/wml"
)

// Compiler runs one-shot compilations. Evaluator may be nil; field
// results then stay as placeholders until the document is opened in a
// word processor.
type Compiler struct {
	Profile   config.Profile
	Evaluator *fieldeval.Client
	Log       *slog.Logger
}

// NewCompiler returns a Compiler for the given profile.
func NewCompiler(profile config.Profile, evaluator *fieldeval.Client, log *slog.Logger) *Compiler {
	if log == nil {
		log = slog.Default()
	}
	return &Compiler{Profile: profile, Evaluator: evaluator, Log: log}
}

// Report summarizes one compilation.
type Report struct {
	Stats      crossref.Stats `json:"stats"`
	Sections   int            `json:"sections"`
	Registered map[string]int `json:"registered"`
	Evaluated  bool           `json:"evaluated"`
	Warnings   []string       `json:"warnings,omitempty"`
}

// Compile runs the pipeline over a parsed document tree and returns the
// produced document bytes.
func (c *Compiler) Compile(ctx context.Context, doc *pandoc.Doc) ([]byte, *Report, error) {
	report := &Report{}

	// Phase 1: cross-reference model and validation.
	model := crossref.Extract(doc)
	report.Stats = model.Validate()
	for _, d := range model.Dangling {
		c.Log.Warn("dangling citation", "id", d.FullID, "context", d.Context)
		report.Warnings = append(report.Warnings, fmt.Sprintf("dangling citation %s", d.FullID))
	}
	structure := crossref.ExtractStructure(doc)
	report.Sections = len(structure.Sections)

	// Phase 2: compose the paragraph stream.
	result := compose.New(c.Profile, c.Log).Compose(doc)

	// Phase 3: rebuild captions with field chains and bookmark the
	// numbering spans, registering items in document order.
	reg := registry.New(c.Log)
	b := caption.NewBuilder(reg, c.Log)
	b.MainHeadingStyle = c.Profile.MainHeadingStyle
	b.AppendixHeadingStyle = c.Profile.AppendixHeadingStyle
	b.EquationTabTwips = c.Profile.EquationTabTwips
	for _, slot := range result.Slots {
		switch slot.Kind {
		case crossref.Equation:
			b.RebuildEquation(slot.Paragraph, slot.RefID, slot.Caption, slot.IsAppendix, slot.Restart)
		default:
			b.RebuildCaption(slot.Paragraph, slot.Kind.Label(), slot.Caption, slot.IsAppendix, slot.Restart)
			b.BookmarkNumberingSpan(slot.Paragraph, slot.Kind, slot.RefID)
		}
	}
	reg.UpdateDisplayNumbers()
	report.Registered = reg.Counts()

	// Phase 4: convert in-text citations to reference fields.
	conv := convert.New(reg, c.Log)
	conv.CaptionStyles[c.Profile.FigureCaptionStyle] = true
	conv.CaptionStyles[c.Profile.TableCaptionStyle] = true
	switch c.Profile.Strategy {
	case "text":
		conv.ConvertByTextPattern(result.Document)
	default:
		conv.ConvertByHyperlinks(result.Document)
	}

	// Phase 5: serialize.
	var buf bytes.Buffer
	if err := wml.WriteDocx(&buf, result.Document); err != nil {
		return nil, report, fmt.Errorf("write document: %w", err)
	}
	out := buf.Bytes()

	// Phase 6: optional external field evaluation with retry. Failure
	// is not fatal; the unevaluated document is still valid.
	if c.Evaluator != nil {
		evaluated, err := c.evaluate(ctx, out)
		if err != nil {
			c.Log.Error("field evaluation failed, returning unevaluated document", "error", err)
			report.Warnings = append(report.Warnings, fmt.Sprintf("field evaluation: %s", err))
		} else {
			out = evaluated
			report.Evaluated = true
		}
	}

	return out, report, nil
}

func (c *Compiler) evaluate(ctx context.Context, document []byte) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < MaxRetries; attempt++ {
		out, err := c.Evaluator.Evaluate(ctx, document)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !IsRetryable(err) {
			return nil, err
		}
		c.Log.Warn("retryable evaluation error", "attempt", attempt, "error", err)
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}
