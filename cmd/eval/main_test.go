package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeCLIFixture builds a config file, an evals directory with one
// definition, and its dataset, all under a temp dir.
func writeCLIFixture(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	evalsDir := filepath.Join(dir, "evals")
	if err := os.MkdirAll(evalsDir, 0o755); err != nil {
		t.Fatalf("mkdir evals: %v", err)
	}

	dataset := `{"input": "What is 2+2?", "ideal": "4"}` + "\n"
	if err := os.WriteFile(filepath.Join(evalsDir, "arithmetic.jsonl"), []byte(dataset), 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}

	def := "name: arithmetic\n" +
		"description: basic sums\n" +
		"dataset: arithmetic.jsonl\n" +
		"grader:\n" +
		"  type: match\n" +
		"  mode: exact\n"
	if err := os.WriteFile(filepath.Join(evalsDir, "arithmetic.yaml"), []byte(def), 0o644); err != nil {
		t.Fatalf("write definition: %v", err)
	}

	cfgPath := filepath.Join(dir, "config.yaml")
	cfg := fmt.Sprintf("evals_dir: %s\nstorage:\n  type: memory\n", evalsDir)
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return cfgPath
}

func executeCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestListCommand(t *testing.T) {
	t.Parallel()

	cfgPath := writeCLIFixture(t)
	out, err := executeCLI(t, "list", "--config", cfgPath)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, want := range []string{"NAME", "arithmetic", "match", "basic sums"} {
		if !strings.Contains(out, want) {
			t.Fatalf("list output missing %q:\n%s", want, out)
		}
	}
}

func TestListCommandMissingConfig(t *testing.T) {
	t.Parallel()

	_, err := executeCLI(t, "list", "--config", filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatalf("expected error for missing config")
	}
}

func TestHistoryCommandEmpty(t *testing.T) {
	t.Parallel()

	cfgPath := writeCLIFixture(t)
	out, err := executeCLI(t, "history", "--config", cfgPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "RUN") || !strings.Contains(out, "EVAL") {
		t.Fatalf("history output missing header:\n%s", out)
	}
}

func TestHistoryShowMissingRun(t *testing.T) {
	t.Parallel()

	cfgPath := writeCLIFixture(t)
	_, err := executeCLI(t, "history", "show", "deadbeef", "--config", cfgPath)
	if err == nil {
		t.Fatalf("expected error for missing run")
	}
	if !strings.Contains(err.Error(), "deadbeef") {
		t.Fatalf("error should name the run id: %v", err)
	}
}

func TestRunUnknownEval(t *testing.T) {
	t.Parallel()

	cfgPath := writeCLIFixture(t)
	_, err := executeCLI(t, "run", "nosuch", "--config", cfgPath)
	if err == nil {
		t.Fatalf("expected error for unknown eval")
	}
	if !strings.Contains(err.Error(), "unknown eval") {
		t.Fatalf("got %v", err)
	}
}

func TestRunInvalidOutputFormat(t *testing.T) {
	t.Parallel()

	cfgPath := writeCLIFixture(t)
	_, err := executeCLI(t, "run", "arithmetic", "--config", cfgPath, "--output", "xml")
	if err == nil {
		t.Fatalf("expected error for invalid output format")
	}
	if !strings.Contains(err.Error(), "invalid --output") {
		t.Fatalf("got %v", err)
	}
}
