package api

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stellarlinkco/model-eval/internal/dataset"
	"github.com/stellarlinkco/model-eval/internal/evaldef"
	"github.com/stellarlinkco/model-eval/internal/grader"
	"github.com/stellarlinkco/model-eval/internal/runner"
	"github.com/stellarlinkco/model-eval/internal/store"
)

type runRequest struct {
	Eval        string `json:"eval"`
	Provider    string `json:"provider,omitempty"`
	Limit       *int   `json:"limit,omitempty"`
	Concurrency *int   `json:"concurrency,omitempty"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleListEvals(c *gin.Context) {
	if s == nil || s.config == nil {
		respondError(c, http.StatusInternalServerError, errors.New("server not initialized"))
		return
	}

	defs, err := evaldef.LoadFromDir(s.config.EvalsDir)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, defs)
}

func (s *Server) handleGetEval(c *gin.Context) {
	if s == nil || s.config == nil {
		respondError(c, http.StatusInternalServerError, errors.New("server not initialized"))
		return
	}

	name := strings.TrimSpace(c.Param("name"))
	if name == "" {
		respondError(c, http.StatusBadRequest, errors.New("missing eval name"))
		return
	}

	def, err := evaldef.Find(s.config.EvalsDir, name)
	if err != nil {
		respondError(c, http.StatusNotFound, err)
		return
	}
	c.JSON(http.StatusOK, def)
}

func (s *Server) handleStartRun(c *gin.Context) {
	if s == nil || s.store == nil || s.providers == nil || s.config == nil {
		respondError(c, http.StatusInternalServerError, errors.New("server not initialized"))
		return
	}

	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	evalName := strings.TrimSpace(req.Eval)
	if evalName == "" {
		respondError(c, http.StatusBadRequest, errors.New("missing eval name"))
		return
	}

	def, err := evaldef.Find(s.config.EvalsDir, evalName)
	if err != nil {
		respondError(c, http.StatusNotFound, err)
		return
	}

	providerName := strings.TrimSpace(req.Provider)
	if providerName == "" {
		providerName = strings.TrimSpace(s.config.LLM.DefaultProvider)
	}
	provider, ok := s.providers.Get(providerName)
	if !ok {
		respondError(c, http.StatusBadRequest, fmt.Errorf("provider %q not configured (available: %s)",
			providerName, strings.Join(s.providers.Names(), ", ")))
		return
	}

	judge, ok := s.providers.Get(s.config.LLM.DefaultProvider)
	if !ok {
		judge = provider
	}
	g, err := grader.New(&def.Grader, grader.Deps{Judge: judge, Embedder: s.embedder})
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	ctx := c.Request.Context()
	samples, err := dataset.Load(ctx, def.Dataset)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	limit := s.config.Evaluation.Limit
	if req.Limit != nil {
		limit = *req.Limit
	}
	concurrency := s.config.Evaluation.Concurrency
	if req.Concurrency != nil {
		concurrency = *req.Concurrency
	}

	r := runner.New(provider, g, s.results, runner.Config{
		Concurrency:       concurrency,
		Timeout:           s.config.Evaluation.Timeout,
		Limit:             limit,
		GraderFingerprint: def.Grader.Fingerprint(),
	})

	report, err := r.Run(ctx, def.Name, samples)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	if err := s.store.SaveRun(ctx, report); err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusCreated, report)
}

func (s *Server) handleListRuns(c *gin.Context) {
	if s == nil || s.store == nil {
		respondError(c, http.StatusInternalServerError, errors.New("server not initialized"))
		return
	}

	limit, err := parseLimitParam(c.Query("limit"), 20)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	since, err := parseTimeParam(c.Query("since"))
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	until, err := parseTimeParam(c.Query("until"))
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	filter := store.RunFilter{
		EvalName: strings.TrimSpace(c.Query("eval")),
		Model:    strings.TrimSpace(c.Query("model")),
		Since:    since,
		Until:    until,
		Limit:    limit,
	}

	runs, err := s.store.ListRuns(c.Request.Context(), filter)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, runs)
}

func (s *Server) handleGetRun(c *gin.Context) {
	if s == nil || s.store == nil {
		respondError(c, http.StatusInternalServerError, errors.New("server not initialized"))
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		respondError(c, http.StatusBadRequest, errors.New("missing run id"))
		return
	}

	run, err := s.store.GetRun(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(c, http.StatusNotFound, fmt.Errorf("run %q not found", id))
			return
		}
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, run)
}

func (s *Server) handleGetRunResults(c *gin.Context) {
	if s == nil || s.store == nil {
		respondError(c, http.StatusInternalServerError, errors.New("server not initialized"))
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		respondError(c, http.StatusBadRequest, errors.New("missing run id"))
		return
	}

	results, err := s.store.GetResults(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(c, http.StatusNotFound, fmt.Errorf("run %q not found", id))
			return
		}
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, results)
}

func respondError(c *gin.Context, status int, err error) {
	if err == nil {
		c.Status(status)
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func parseLimitParam(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid limit %q", raw)
	}
	if v <= 0 {
		return 0, fmt.Errorf("limit must be > 0")
	}
	return v, nil
}

func parseTimeParam(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	layouts := []string{time.RFC3339, "2006-01-02"}
	for _, layout := range layouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q (expected RFC3339 or YYYY-MM-DD)", raw)
}
