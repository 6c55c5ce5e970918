package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/stellarlinkco/model-eval/internal/config"
	"github.com/stellarlinkco/model-eval/internal/llm"
	"github.com/stellarlinkco/model-eval/internal/sample"
	"github.com/stellarlinkco/model-eval/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeStore keeps reports in memory.
type fakeStore struct {
	saved []*sample.EvalReport
}

func (f *fakeStore) SaveRun(ctx context.Context, report *sample.EvalReport) error {
	f.saved = append(f.saved, report)
	return nil
}

func (f *fakeStore) GetRun(ctx context.Context, id string) (*sample.EvalReport, error) {
	for _, r := range f.saved {
		if r.RunID == id {
			return r, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeStore) GetResults(ctx context.Context, id string) ([]sample.EvalResult, error) {
	r, err := f.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.Results, nil
}

func (f *fakeStore) ListRuns(ctx context.Context, filter store.RunFilter) ([]*store.RunSummary, error) {
	var out []*store.RunSummary
	for _, r := range f.saved {
		if filter.EvalName != "" && r.EvalName != filter.EvalName {
			continue
		}
		out = append(out, &store.RunSummary{RunID: r.RunID, EvalName: r.EvalName, Model: r.Model})
	}
	return out, nil
}

// stubAPIProvider answers every question with a fixed reply.
type stubAPIProvider struct{ reply string }

func (p *stubAPIProvider) Name() string  { return "stub" }
func (p *stubAPIProvider) Model() string { return "stub-model-1" }

func (p *stubAPIProvider) Complete(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	return &llm.Response{Content: p.reply, Model: p.Model()}, nil
}

func testConfig(evalsDir string) *config.Config {
	return &config.Config{
		LLM:      config.LLMConfig{DefaultProvider: "stub"},
		EvalsDir: evalsDir,
	}
}

func newTestServer(t *testing.T, cfg *config.Config, st RunStore) *Server {
	t.Helper()
	t.Setenv("MODEL_EVAL_API_KEY", "")
	t.Setenv("MODEL_EVAL_DISABLE_AUTH", "true")

	reg := llm.NewRegistry()
	reg.Register(&stubAPIProvider{reply: "4"})

	s, err := NewServer(cfg, st, reg, nil)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func writeEvalDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	datasetPath := filepath.Join(dir, "arithmetic.jsonl")
	if err := os.WriteFile(datasetPath, []byte(`{"input": "2+2?", "ideal": "4"}`+"\n"), 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	def := "name: arithmetic\ndataset: arithmetic.jsonl\ngrader:\n  type: match\n  mode: exact\n"
	if err := os.WriteFile(filepath.Join(dir, "arithmetic.yaml"), []byte(def), 0o644); err != nil {
		t.Fatalf("write def: %v", err)
	}
	return dir
}

func TestServerRequiresAuthConfig(t *testing.T) {
	t.Setenv("MODEL_EVAL_API_KEY", "")
	t.Setenv("MODEL_EVAL_DISABLE_AUTH", "")

	if _, err := NewServer(testConfig(t.TempDir()), &fakeStore{}, llm.NewRegistry(), nil); err == nil {
		t.Fatalf("server without auth configuration should fail")
	}
}

func TestAPIKeyAuth(t *testing.T) {
	t.Setenv("MODEL_EVAL_API_KEY", "secret")
	t.Setenv("MODEL_EVAL_DISABLE_AUTH", "")

	s, err := NewServer(testConfig(t.TempDir()), &fakeStore{}, llm.NewRegistry(), nil)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	{
		w := doRequest(s, http.MethodGet, "/api/health", "")
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("without key: got %d", w.Code)
		}
	}
	{
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.Header.Set("X-API-Key", "secret")
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("with key: got %d", w.Code)
		}
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, testConfig(t.TempDir()), &fakeStore{})

	w := doRequest(s, http.MethodGet, "/api/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("health: got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Fatalf("body: %s", w.Body.String())
	}
}

func TestListEvals(t *testing.T) {
	s := newTestServer(t, testConfig(writeEvalDir(t)), &fakeStore{})

	w := doRequest(s, http.MethodGet, "/api/evals", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list evals: got %d body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"name":"arithmetic"`) {
		t.Fatalf("body: %s", w.Body.String())
	}
}

func TestGetEval(t *testing.T) {
	s := newTestServer(t, testConfig(writeEvalDir(t)), &fakeStore{})

	if w := doRequest(s, http.MethodGet, "/api/evals/arithmetic", ""); w.Code != http.StatusOK {
		t.Fatalf("get eval: got %d", w.Code)
	}
	if w := doRequest(s, http.MethodGet, "/api/evals/geometry", ""); w.Code != http.StatusNotFound {
		t.Fatalf("unknown eval: got %d", w.Code)
	}
}

func TestStartRun(t *testing.T) {
	st := &fakeStore{}
	s := newTestServer(t, testConfig(writeEvalDir(t)), st)

	w := doRequest(s, http.MethodPost, "/api/runs", `{"eval": "arithmetic"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("start run: got %d body=%s", w.Code, w.Body.String())
	}

	var report sample.EvalReport
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.TotalSamples != 1 || report.Correct != 1 || report.Score != 1.0 {
		t.Fatalf("report: %+v", report)
	}
	if len(st.saved) != 1 {
		t.Fatalf("saved runs: got %d", len(st.saved))
	}
}

func TestStartRunErrors(t *testing.T) {
	s := newTestServer(t, testConfig(writeEvalDir(t)), &fakeStore{})

	if w := doRequest(s, http.MethodPost, "/api/runs", `{}`); w.Code != http.StatusBadRequest {
		t.Fatalf("missing eval: got %d", w.Code)
	}
	if w := doRequest(s, http.MethodPost, "/api/runs", `{"eval": "missing"}`); w.Code != http.StatusNotFound {
		t.Fatalf("unknown eval: got %d", w.Code)
	}
	if w := doRequest(s, http.MethodPost, "/api/runs", `{"eval": "arithmetic", "provider": "nope"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("unknown provider: got %d", w.Code)
	}
	if w := doRequest(s, http.MethodPost, "/api/runs", `not json`); w.Code != http.StatusBadRequest {
		t.Fatalf("bad body: got %d", w.Code)
	}
}

func TestRunLookups(t *testing.T) {
	st := &fakeStore{saved: []*sample.EvalReport{{
		RunID:    "run-1",
		EvalName: "arithmetic",
		Model:    "stub-model-1",
		Results:  []sample.EvalResult{{SampleID: "s1", Passed: true}},
	}}}
	s := newTestServer(t, testConfig(t.TempDir()), st)

	if w := doRequest(s, http.MethodGet, "/api/runs", ""); w.Code != http.StatusOK {
		t.Fatalf("list runs: got %d", w.Code)
	}
	if w := doRequest(s, http.MethodGet, "/api/runs/run-1", ""); w.Code != http.StatusOK {
		t.Fatalf("get run: got %d", w.Code)
	}
	if w := doRequest(s, http.MethodGet, "/api/runs/run-1/results", ""); w.Code != http.StatusOK {
		t.Fatalf("get results: got %d", w.Code)
	}
	if w := doRequest(s, http.MethodGet, "/api/runs/missing", ""); w.Code != http.StatusNotFound {
		t.Fatalf("missing run: got %d", w.Code)
	}
	if w := doRequest(s, http.MethodGet, "/api/runs?limit=zero", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("bad limit: got %d", w.Code)
	}
	if w := doRequest(s, http.MethodGet, "/api/runs?since=yesterday", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("bad since: got %d", w.Code)
	}
}
