// Package dataset loads evaluation samples from JSONL and YAML files.
package dataset

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/stellarlinkco/model-eval/internal/sample"
)

// record is the on-disk shape of one sample. Input accepts either a plain
// string (shorthand for a single user message) or a list of role/content
// messages; ideal accepts a string or a list of strings.
type record struct {
	Input    any            `json:"input" yaml:"input"`
	Ideal    any            `json:"ideal" yaml:"ideal"`
	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Load reads samples from path, dispatching on the file extension. ".jsonl"
// files are streamed line by line; ".yaml"/".yml" files hold a list of
// records.
func Load(ctx context.Context, path string) ([]*sample.Sample, error) {
	switch strings.ToLower(filepath.Ext(strings.TrimSpace(path))) {
	case ".jsonl":
		return LoadJSONL(ctx, path)
	case ".yaml", ".yml":
		return LoadYAML(path)
	default:
		return nil, fmt.Errorf("dataset: unsupported file type %q", path)
	}
}

// LoadJSONL reads one JSON record per line, skipping blank lines.
func LoadJSONL(ctx context.Context, path string) ([]*sample.Sample, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("dataset: empty path")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %q: %w", path, err)
	}
	defer f.Close()

	return decodeJSONL(ctx, path, f)
}

func decodeJSONL(ctx context.Context, path string, r io.Reader) ([]*sample.Sample, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 2*1024*1024)

	var out []*sample.Sample
	line := 0
	for sc.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}

		var rec record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("dataset: %s:%d: %w", path, line, err)
		}
		s, err := toSample(&rec)
		if err != nil {
			return nil, fmt.Errorf("dataset: %s:%d: %w", path, line, err)
		}
		out = append(out, s)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("dataset: read %q: %w", path, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("dataset: %q: no samples", path)
	}
	return out, nil
}

// LoadYAML reads a YAML file holding a list of records.
func LoadYAML(path string) ([]*sample.Sample, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: read %q: %w", path, err)
	}

	var recs []record
	if err := yaml.Unmarshal(b, &recs); err != nil {
		return nil, fmt.Errorf("dataset: parse %q: %w", path, err)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("dataset: %q: no samples", path)
	}

	out := make([]*sample.Sample, 0, len(recs))
	for i := range recs {
		s, err := toSample(&recs[i])
		if err != nil {
			return nil, fmt.Errorf("dataset: %s: samples[%d]: %w", path, i, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func toSample(rec *record) (*sample.Sample, error) {
	input, err := parseInput(rec.Input)
	if err != nil {
		return nil, err
	}
	ideal, err := parseIdeal(rec.Ideal)
	if err != nil {
		return nil, err
	}
	return &sample.Sample{
		Input:    input,
		Ideal:    ideal,
		Metadata: rec.Metadata,
	}, nil
}

func parseInput(v any) ([]sample.ChatMessage, error) {
	switch in := v.(type) {
	case string:
		if strings.TrimSpace(in) == "" {
			return nil, errors.New("empty input")
		}
		return []sample.ChatMessage{{Role: sample.RoleUser, Content: in}}, nil
	case []any:
		if len(in) == 0 {
			return nil, errors.New("empty input")
		}
		msgs := make([]sample.ChatMessage, 0, len(in))
		for i, item := range in {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("input[%d]: expected a role/content message", i)
			}
			msg, err := parseMessage(m)
			if err != nil {
				return nil, fmt.Errorf("input[%d]: %w", i, err)
			}
			msgs = append(msgs, msg)
		}
		return msgs, nil
	case nil:
		return nil, errors.New("missing input")
	default:
		return nil, fmt.Errorf("input: unsupported type %T", v)
	}
}

func parseMessage(m map[string]any) (sample.ChatMessage, error) {
	role, _ := m["role"].(string)
	content, _ := m["content"].(string)

	switch role {
	case sample.RoleSystem, sample.RoleUser, sample.RoleAssistant:
	case "":
		return sample.ChatMessage{}, errors.New("missing role")
	default:
		return sample.ChatMessage{}, fmt.Errorf("unknown role %q", role)
	}
	if strings.TrimSpace(content) == "" {
		return sample.ChatMessage{}, errors.New("missing content")
	}
	return sample.ChatMessage{Role: role, Content: content}, nil
}

func parseIdeal(v any) ([]string, error) {
	switch ideal := v.(type) {
	case string:
		if strings.TrimSpace(ideal) == "" {
			return nil, errors.New("empty ideal")
		}
		return []string{ideal}, nil
	case []any:
		if len(ideal) == 0 {
			return nil, errors.New("empty ideal")
		}
		out := make([]string, 0, len(ideal))
		for i, item := range ideal {
			s, ok := item.(string)
			if !ok || strings.TrimSpace(s) == "" {
				return nil, fmt.Errorf("ideal[%d]: expected a non-empty string", i)
			}
			out = append(out, s)
		}
		return out, nil
	case nil:
		return nil, errors.New("missing ideal")
	default:
		return nil, fmt.Errorf("ideal: unsupported type %T", v)
	}
}

// Limit returns at most n samples from in, or all of them when n <= 0.
func Limit(in []*sample.Sample, n int) []*sample.Sample {
	if n <= 0 || n >= len(in) {
		return in
	}
	out := make([]*sample.Sample, 0, n)
	return append(out, in[:n]...)
}
