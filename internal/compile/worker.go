package compile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Krande/paradoc-go/internal/ingest"
)

// Worker processes a single compilation job.
type Worker struct {
	compiler *Compiler
	log      *slog.Logger
}

func NewWorker(compiler *Compiler, log *slog.Logger) *Worker {
	return &Worker{compiler: compiler, log: log}
}

// Process runs the full compilation for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	doc, err := ingest.Parse(job.Filename, job.FileData())
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	// Phase 2: Compile
	job.SetStatus(StatusCompiling, "compiling")
	if w.compiler.Evaluator != nil {
		job.SetStatus(StatusEvaluating, "evaluating")
	}
	out, report, err := w.compiler.Compile(ctx, doc)
	if err != nil {
		log.Error("compile failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "compiling")
		return
	}

	job.SetResult(out, report)
	log.Info("compilation complete",
		"targets", report.Stats.TotalTargets,
		"citations", report.Stats.TotalCitations,
		"dangling", report.Stats.DanglingCitations,
		"evaluated", report.Evaluated)
	job.SetStatus(StatusCompleted, "done")
}
