// Package runner executes an evaluation: it collects a completion for every
// sample, grades it, and reduces the graded results into a report. A failing
// sample never aborts the run; its failure is recorded as a failed result and
// the remaining samples proceed.
package runner

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stellarlinkco/model-eval/internal/cache"
	"github.com/stellarlinkco/model-eval/internal/dataset"
	"github.com/stellarlinkco/model-eval/internal/grader"
	"github.com/stellarlinkco/model-eval/internal/llm"
	"github.com/stellarlinkco/model-eval/internal/sample"
)

// Runner drives one evaluation at a time over a provider and a grader.
type Runner struct {
	provider llm.Provider
	grader   grader.Grader
	results  cache.ResultCache
	cfg      Config

	sem   chan struct{}
	state atomic.Int32
}

// New creates a Runner. A nil results cache disables caching.
func New(provider llm.Provider, g grader.Grader, results cache.ResultCache, cfg Config) *Runner {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if results == nil {
		results = cache.Nop{}
	}

	return &Runner{
		provider: provider,
		grader:   g,
		results:  results,
		cfg:      cfg,
		sem:      make(chan struct{}, cfg.Concurrency),
	}
}

// State reports the run's current lifecycle phase.
func (r *Runner) State() State {
	if r == nil {
		return StateIdle
	}
	return State(r.state.Load())
}

func (r *Runner) setState(s State) {
	r.state.Store(int32(s))
}

// Run evaluates every sample and returns the aggregated report. Individual
// sample failures are recorded in the report, not returned as errors; Run
// itself fails only on setup problems.
func (r *Runner) Run(ctx context.Context, evalName string, samples []*sample.Sample) (*sample.EvalReport, error) {
	if r == nil {
		return nil, errors.New("runner: nil runner")
	}
	if ctx == nil {
		return nil, errors.New("runner: nil context")
	}
	if r.provider == nil {
		return nil, errors.New("runner: nil provider")
	}
	if r.grader == nil {
		return nil, errors.New("runner: nil grader")
	}

	start := time.Now()

	r.setState(StateLoading)
	if len(samples) == 0 {
		r.setState(StateIdle)
		return nil, errors.New("runner: no samples")
	}
	samples = dataset.Limit(samples, r.cfg.Limit)

	r.setState(StateRunning)
	results := make([]sample.EvalResult, len(samples))

	var wg sync.WaitGroup
	for i := range samples {
		idx := i
		s := samples[i]

		wg.Add(1)
		go func() {
			defer wg.Done()

			if err := r.acquire(ctx); err != nil {
				results[idx] = *failedResult(s, err)
				return
			}
			defer r.release()

			results[idx] = *r.runSample(ctx, s)
		}()
	}
	wg.Wait()

	r.setState(StateReporting)
	report := &sample.EvalReport{
		EvalName:     evalName,
		Model:        r.provider.Model(),
		TotalSamples: len(results),
		Results:      results,
		RunID:        newRunID(),
		CreatedAt:    start.UTC(),
	}
	for i := range results {
		if results[i].Passed {
			report.Correct++
		} else {
			report.Incorrect++
		}
	}
	if report.TotalSamples > 0 {
		report.Score = float64(report.Correct) / float64(report.TotalSamples)
	}
	report.DurationMs = time.Since(start).Milliseconds()

	r.setState(StateDone)
	return report, nil
}

// runSample produces the graded result for one sample: cache lookup, model
// call, then grading.
func (r *Runner) runSample(ctx context.Context, s *sample.Sample) *sample.EvalResult {
	if s == nil {
		return failedResult(nil, errors.New("runner: nil sample"))
	}
	if err := ctx.Err(); err != nil {
		return failedResult(s, err)
	}

	sampleID := s.ID()
	model := r.provider.Model()
	if res, ok := r.results.Get(model, sampleID, r.cfg.GraderFingerprint); ok {
		return res
	}

	completion, err := r.complete(ctx, s)
	if err != nil {
		return failedResult(s, err)
	}

	res := r.grade(ctx, s, completion.Content)
	if res == nil {
		return failedResult(s, errors.New("runner: grader returned no result"))
	}
	if res.Metadata == nil {
		res.Metadata = map[string]any{}
	}
	res.Metadata["model"] = completion.Model

	if res.Metadata[grader.MetaGradingError] != true {
		r.results.Put(model, sampleID, r.cfg.GraderFingerprint, res)
	}
	return res
}

// grade runs the grader under the same per-call timeout as the model call, so
// a hung judge or embedding backend fails the sample instead of the run.
func (r *Runner) grade(ctx context.Context, s *sample.Sample, completion string) *sample.EvalResult {
	callCtx := ctx
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}
	return r.grader.Grade(callCtx, s, completion)
}

func (r *Runner) complete(ctx context.Context, s *sample.Sample) (*sample.CompletionResult, error) {
	callCtx := ctx
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	req := &llm.Request{MaxTokens: r.cfg.MaxTokens}
	for _, m := range s.Input {
		if m.Role == sample.RoleSystem {
			if req.System != "" {
				req.System += "\n"
			}
			req.System += m.Content
			continue
		}
		req.Messages = append(req.Messages, llm.Message{Role: m.Role, Content: m.Content})
	}
	if len(req.Messages) == 0 {
		return nil, errors.New("runner: sample has no user messages")
	}

	res, err := r.provider.Complete(callCtx, req)
	if err != nil {
		return nil, fmt.Errorf("runner: model call: %w", err)
	}

	out := &sample.CompletionResult{
		Content:      res.Content,
		Model:        res.Model,
		FinishReason: res.FinishReason,
	}
	if res.Usage != (llm.Usage{}) {
		out.Usage = &sample.TokenUsage{
			PromptTokens:     res.Usage.InputTokens,
			CompletionTokens: res.Usage.OutputTokens,
			TotalTokens:      res.Usage.InputTokens + res.Usage.OutputTokens,
		}
	}
	return out, nil
}

func (r *Runner) acquire(ctx context.Context) error {
	select {
	case r.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) release() {
	<-r.sem
}

// failedResult records a sample whose completion or grading infrastructure
// failed. Scored zero and never cached.
func failedResult(s *sample.Sample, err error) *sample.EvalResult {
	res := &sample.EvalResult{
		Score:     0,
		Passed:    false,
		Reasoning: "sample failed: " + err.Error(),
		Metadata: map[string]any{
			grader.MetaGradingError: true,
		},
	}
	if s != nil {
		res.SampleID = s.ID()
		res.Input = s.Input
		res.Ideal = s.Ideal
	}
	return res
}

func newRunID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 16)
	}
	return hex.EncodeToString(b)
}
