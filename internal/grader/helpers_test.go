package grader

import (
	"context"
	"errors"

	"github.com/stellarlinkco/model-eval/internal/llm"
	"github.com/stellarlinkco/model-eval/internal/sample"
)

// fakeJudge replies with a canned string and records requests.
type fakeJudge struct {
	reply    string
	err      error
	requests []*llm.Request
}

func (f *fakeJudge) Name() string  { return "fake" }
func (f *fakeJudge) Model() string { return "fake-judge-1" }

func (f *fakeJudge) Complete(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Response{Content: f.reply, Model: f.Model()}, nil
}

// fixedEmbedder returns configured vectors per input text.
type fixedEmbedder struct {
	vectors map[string][]float64
	err     error
}

func (f *fixedEmbedder) Name() string  { return "fixed" }
func (f *fixedEmbedder) Model() string { return "fixed-embed-1" }

func (f *fixedEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	v, ok := f.vectors[text]
	if !ok {
		return nil, errors.New("no vector for " + text)
	}
	return v, nil
}

func userSample(question string, ideal ...string) *sample.Sample {
	return &sample.Sample{
		Input: []sample.ChatMessage{{Role: sample.RoleUser, Content: question}},
		Ideal: ideal,
	}
}
