package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stellarlinkco/model-eval/internal/cache"
	"github.com/stellarlinkco/model-eval/internal/dataset"
	"github.com/stellarlinkco/model-eval/internal/embedding"
	"github.com/stellarlinkco/model-eval/internal/evaldef"
	"github.com/stellarlinkco/model-eval/internal/grader"
	"github.com/stellarlinkco/model-eval/internal/llm"
	"github.com/stellarlinkco/model-eval/internal/runner"
	"github.com/stellarlinkco/model-eval/internal/store"
)

var errEvalFailed = errors.New("model-eval: samples failed")

type runOptions struct {
	provider    string
	limit       int
	concurrency int
	output      string
	noSave      bool
}

func newRunCmd(st *cliState) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run <eval>",
		Short: "Run an evaluation",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(st)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluation(cmd, st, args[0], &opts)
		},
	}

	cmd.Flags().StringVar(&opts.provider, "provider", "", "target provider (overrides config default)")
	cmd.Flags().IntVar(&opts.limit, "limit", -1, "cap the number of samples (overrides config)")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", -1, "concurrent model calls (overrides config)")
	cmd.Flags().StringVar(&opts.output, "output", "", "output format: table|json|github (overrides config)")
	cmd.Flags().BoolVar(&opts.noSave, "no-save", false, "skip saving the run to storage")

	return cmd
}

func runEvaluation(cmd *cobra.Command, st *cliState, evalName string, opts *runOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("run: missing config (internal error)")
	}
	if opts == nil {
		return fmt.Errorf("run: nil options")
	}

	evalName = strings.TrimSpace(evalName)
	if evalName == "" {
		return fmt.Errorf("run: missing eval name")
	}

	output, err := resolveOutputFormat(opts.output, st.cfg.Evaluation.OutputFormat)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	def, err := evaldef.Find(st.cfg.EvalsDir, evalName)
	if err != nil {
		return err
	}

	provider, err := llm.ProviderFromConfig(st.cfg, opts.provider)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	g, err := buildGrader(st, def, provider)
	if err != nil {
		return err
	}

	limit := st.cfg.Evaluation.Limit
	if opts.limit >= 0 {
		limit = opts.limit
	}
	concurrency := st.cfg.Evaluation.Concurrency
	if opts.concurrency > 0 {
		concurrency = opts.concurrency
	}

	var results cache.ResultCache
	if st.cfg.Evaluation.Cache {
		results = cache.NewResults(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	samples, err := dataset.Load(ctx, def.Dataset)
	if err != nil {
		return err
	}

	r := runner.New(provider, g, results, runner.Config{
		Concurrency:       concurrency,
		Timeout:           st.cfg.Evaluation.Timeout,
		Limit:             limit,
		GraderFingerprint: def.Grader.Fingerprint(),
	})

	report, err := r.Run(ctx, def.Name, samples)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprint(cmd.OutOrStdout(), FormatReport(report, output))

	if !opts.noSave {
		stor, err := store.Open(st.cfg.Storage)
		if err != nil {
			return fmt.Errorf("run: open store: %w", err)
		}
		defer stor.Close()

		if err := stor.SaveRun(ctx, report); err != nil {
			return fmt.Errorf("run: save run: %w", err)
		}
	}

	if report.Incorrect > 0 {
		return errEvalFailed
	}
	return nil
}

// buildGrader wires the judge and embedder a grader spec needs. The configured
// default provider judges; the target model never grades itself unless it is
// also the default.
func buildGrader(st *cliState, def *evaldef.Definition, provider llm.Provider) (grader.Grader, error) {
	deps := grader.Deps{}

	switch def.Grader.Type {
	case grader.TypeModelGraded, grader.TypeChoice:
		judge, err := llm.DefaultProviderFromConfig(st.cfg)
		if err != nil {
			judge = provider
		}
		deps.Judge = judge
	case grader.TypeSemantic:
		emb, err := embedding.FromConfig(st.cfg)
		if err != nil {
			return nil, fmt.Errorf("run: %w", err)
		}
		deps.Embedder = emb
	}

	return grader.New(&def.Grader, deps)
}
