package compile

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/Krande/paradoc-go/internal/config"
	"github.com/Krande/paradoc-go/internal/pandoc"
)

func str(s string) pandoc.Node { return pandoc.Node{Kind: "Str", Text: s} }

func sampleDoc() *pandoc.Doc {
	return &pandoc.Doc{Blocks: []pandoc.Node{
		{Kind: "Header", Level: 1, Children: []pandoc.Node{str("Results")}},
		{Kind: "Figure", Attr: pandoc.Attr{ID: "fig:trends"}, Children: []pandoc.Node{
			{Kind: "Caption", Children: []pandoc.Node{{Kind: "Plain", Children: []pandoc.Node{str("Trend lines")}}}},
		}},
		{Kind: "Para", Children: []pandoc.Node{
			str("See"), {Kind: "Space"},
			{Kind: "Cite", Citations: []string{"fig:trends"}, Children: []pandoc.Node{str("Fig. 1")}},
			{Kind: "Space"}, str("and"), {Kind: "Space"},
			{Kind: "Cite", Citations: []string{"fig:missing"}, Children: []pandoc.Node{str("Fig. 2")}},
		}},
	}}
}

func TestCompile(t *testing.T) {
	c := NewCompiler(config.DefaultProfile(), nil, nil)
	out, report, err := c.Compile(context.Background(), sampleDoc())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	if report.Stats.TotalTargets != 1 || report.Stats.TotalCitations != 2 {
		t.Errorf("stats = %+v", report.Stats)
	}
	if report.Stats.DanglingCitations != 1 {
		t.Errorf("dangling = %d", report.Stats.DanglingCitations)
	}
	if report.Sections != 1 {
		t.Errorf("sections = %d", report.Sections)
	}
	if report.Evaluated {
		t.Error("evaluated without an evaluator")
	}
	if len(report.Warnings) == 0 {
		t.Error("dangling citation produced no warning")
	}

	// The output is a docx container with a document part.
	zr, err := zip.NewReader(bytes.NewReader(out), int64(len(out)))
	if err != nil {
		t.Fatalf("output is not a zip: %v", err)
	}
	found := false
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			found = true
			rc, err := f.Open()
			if err != nil {
				t.Fatal(err)
			}
			data, err := io.ReadAll(rc)
			rc.Close()
			if err != nil {
				t.Fatal(err)
			}
			xml := string(data)
			if !strings.Contains(xml, "STYLEREF") || !strings.Contains(xml, "SEQ Figure") {
				t.Error("document part missing caption field instructions")
			}
			if !strings.Contains(xml, "REF _Ref") {
				t.Error("document part missing citation REF field")
			}
		}
	}
	if !found {
		t.Error("word/document.xml missing from output")
	}
}

func TestJobLifecycle(t *testing.T) {
	store := NewJobStore(time.Hour)
	job := &Job{ID: NewJobID(), Status: StatusQueued, Filename: "report.md", UpdatedAt: time.Now()}
	store.Put(job)

	if store.Get(job.ID) != job {
		t.Fatal("job not retrievable")
	}

	job.SetStatus(StatusCompiling, "compiling")
	job.AddError("boom")
	snap := job.Snapshot()
	if snap.Status != StatusCompiling || snap.Phase != "compiling" {
		t.Errorf("snapshot = %+v", snap)
	}
	if len(snap.Errors) != 1 || snap.Errors[0] != "boom" {
		t.Errorf("snapshot errors = %v", snap.Errors)
	}

	job.SetResult([]byte("docx"), &Report{})
	out, report := job.Result()
	if string(out) != "docx" || report == nil {
		t.Error("result not stored")
	}
}

func TestJobStoreCleanup(t *testing.T) {
	store := NewJobStore(time.Millisecond)
	job := &Job{ID: NewJobID(), UpdatedAt: time.Now().Add(-time.Minute)}
	store.Put(job)
	store.Cleanup()
	if store.Get(job.ID) != nil {
		t.Error("expired job survived cleanup")
	}
}

func TestNewJobID(t *testing.T) {
	a, b := NewJobID(), NewJobID()
	if a == b {
		t.Error("job ids collide")
	}
	if len(a) != 32 {
		t.Errorf("job id length = %d", len(a))
	}
}

func TestBackoff(t *testing.T) {
	for attempt := 0; attempt < 10; attempt++ {
		d := Backoff(attempt)
		if d < time.Second || d > 45*time.Second {
			t.Errorf("attempt %d backoff out of range: %v", attempt, d)
		}
	}
}
