// Package api exposes evaluation runs over HTTP.
package api

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/stellarlinkco/model-eval/internal/cache"
	"github.com/stellarlinkco/model-eval/internal/config"
	"github.com/stellarlinkco/model-eval/internal/embedding"
	"github.com/stellarlinkco/model-eval/internal/llm"
	"github.com/stellarlinkco/model-eval/internal/sample"
	"github.com/stellarlinkco/model-eval/internal/store"
)

// RunStore is the persistence surface the server needs.
type RunStore interface {
	SaveRun(ctx context.Context, report *sample.EvalReport) error
	GetRun(ctx context.Context, id string) (*sample.EvalReport, error)
	GetResults(ctx context.Context, id string) ([]sample.EvalResult, error)
	ListRuns(ctx context.Context, filter store.RunFilter) ([]*store.RunSummary, error)
}

type Server struct {
	router    *gin.Engine
	store     RunStore
	providers *llm.Registry
	embedder  embedding.Embedder
	config    *config.Config
	results   cache.ResultCache
}

func NewServer(cfg *config.Config, st RunStore, providers *llm.Registry, embedder embedding.Embedder) (*Server, error) {
	r := gin.New()

	var results cache.ResultCache = cache.Nop{}
	if cfg != nil && cfg.Evaluation.Cache {
		results = cache.NewResults(0)
	}

	s := &Server{
		router:    r,
		store:     st,
		providers: providers,
		embedder:  embedder,
		config:    cfg,
		results:   results,
	}
	s.registerMiddleware()
	if err := s.registerRoutes(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) Run(addr string) error {
	if s == nil || s.router == nil {
		return errors.New("api: nil server")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		addr = ":8080"
	}
	return s.router.Run(addr)
}
