package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stellarlinkco/model-eval/internal/config"
	"github.com/stellarlinkco/model-eval/internal/sample"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func testReport(runID string) *sample.EvalReport {
	return &sample.EvalReport{
		EvalName:     "arithmetic",
		Model:        "stub-model-1",
		TotalSamples: 2,
		Correct:      1,
		Incorrect:    1,
		Score:        0.5,
		RunID:        runID,
		CreatedAt:    time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC),
		DurationMs:   1200,
		Metadata:     map[string]any{"limit": float64(2)},
		Results: []sample.EvalResult{
			{SampleID: "s1", Completion: "4", Score: 1, Passed: true, Reasoning: "matched"},
			{SampleID: "s2", Completion: "7", Score: 0, Passed: false, Reasoning: "no match"},
		},
	}
}

func TestSaveAndGetRun(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	ctx := context.Background()

	if err := st.SaveRun(ctx, testReport("run-1")); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	got, err := st.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.EvalName != "arithmetic" || got.Model != "stub-model-1" || got.Score != 0.5 {
		t.Fatalf("header: %+v", got)
	}
	if !got.CreatedAt.Equal(time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("created_at: got %v", got.CreatedAt)
	}
	if got.Metadata["limit"] != float64(2) {
		t.Fatalf("metadata: %v", got.Metadata)
	}
	if len(got.Results) != 2 || !got.Results[0].Passed || got.Results[1].Passed {
		t.Fatalf("results: %+v", got.Results)
	}
}

func TestGetResults(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	ctx := context.Background()
	if err := st.SaveRun(ctx, testReport("run-1")); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	results, err := st.GetResults(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetResults: %v", err)
	}
	if len(results) != 2 || results[0].SampleID != "s1" {
		t.Fatalf("results: %+v", results)
	}
}

func TestGetRunNotFound(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	if _, err := st.GetRun(context.Background(), "missing"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected ErrNoRows, got %v", err)
	}
}

func TestSaveRunValidation(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	ctx := context.Background()

	if err := st.SaveRun(ctx, nil); err == nil {
		t.Fatalf("nil report should fail")
	}
	if err := st.SaveRun(ctx, &sample.EvalReport{EvalName: "x"}); err == nil {
		t.Fatalf("empty run id should fail")
	}
	if err := st.SaveRun(ctx, &sample.EvalReport{RunID: "r"}); err == nil {
		t.Fatalf("empty eval name should fail")
	}

	if err := st.SaveRun(ctx, testReport("dup")); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if err := st.SaveRun(ctx, testReport("dup")); err == nil {
		t.Fatalf("duplicate run id should fail")
	}
}

func TestListRuns(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		r := testReport(fmt.Sprintf("run-%d", i))
		r.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		if i == 2 {
			r.EvalName = "geometry"
		}
		if err := st.SaveRun(ctx, r); err != nil {
			t.Fatalf("SaveRun %d: %v", i, err)
		}
	}

	{
		runs, err := st.ListRuns(ctx, RunFilter{})
		if err != nil {
			t.Fatalf("ListRuns: %v", err)
		}
		if len(runs) != 3 {
			t.Fatalf("runs: got %d", len(runs))
		}
		// Newest first.
		if runs[0].RunID != "run-2" || runs[2].RunID != "run-0" {
			t.Fatalf("order: %s .. %s", runs[0].RunID, runs[2].RunID)
		}
	}
	{
		runs, err := st.ListRuns(ctx, RunFilter{EvalName: "geometry"})
		if err != nil {
			t.Fatalf("ListRuns filtered: %v", err)
		}
		if len(runs) != 1 || runs[0].RunID != "run-2" {
			t.Fatalf("filtered: %+v", runs)
		}
	}
	{
		runs, err := st.ListRuns(ctx, RunFilter{Limit: 2})
		if err != nil {
			t.Fatalf("ListRuns limited: %v", err)
		}
		if len(runs) != 2 {
			t.Fatalf("limit: got %d", len(runs))
		}
	}
	{
		runs, err := st.ListRuns(ctx, RunFilter{Since: base.Add(90 * time.Minute)})
		if err != nil {
			t.Fatalf("ListRuns since: %v", err)
		}
		if len(runs) != 1 || runs[0].RunID != "run-2" {
			t.Fatalf("since: %+v", runs)
		}
	}
}

func TestOpen(t *testing.T) {
	t.Parallel()

	{
		st, err := Open(config.StorageConfig{Type: "memory"})
		if err != nil {
			t.Fatalf("Open memory: %v", err)
		}
		_ = st.Close()
	}
	{
		path := filepath.Join(t.TempDir(), "nested", "runs.db")
		st, err := Open(config.StorageConfig{Type: "sqlite", Path: path})
		if err != nil {
			t.Fatalf("Open sqlite: %v", err)
		}
		_ = st.Close()
	}
	{
		if _, err := Open(config.StorageConfig{Type: "postgres"}); err == nil {
			t.Fatalf("unknown storage type should fail")
		}
	}
}

func TestNilStoreGuards(t *testing.T) {
	t.Parallel()

	var st *SQLiteStore
	if err := st.Close(); err != nil {
		t.Fatalf("nil close: %v", err)
	}
	if err := st.SaveRun(context.Background(), testReport("r")); err == nil {
		t.Fatalf("nil save should fail")
	}
	if _, err := st.GetRun(context.Background(), "r"); err == nil {
		t.Fatalf("nil get should fail")
	}
	if _, err := st.ListRuns(context.Background(), RunFilter{}); err == nil {
		t.Fatalf("nil list should fail")
	}
}
