package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/stellarlinkco/model-eval/internal/sample"
)

type OutputFormat string

const (
	FormatTable  OutputFormat = "table"
	FormatJSON   OutputFormat = "json"
	FormatGitHub OutputFormat = "github"
)

const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
)

func parseOutputFormat(s string) OutputFormat {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "table":
		return FormatTable
	case "json", "jsonl":
		return FormatJSON
	case "github", "gh":
		return FormatGitHub
	default:
		return ""
	}
}

func resolveOutputFormat(flagValue string, configValue string) (OutputFormat, error) {
	if strings.TrimSpace(flagValue) != "" {
		out := parseOutputFormat(flagValue)
		if out == "" {
			return "", fmt.Errorf("invalid --output %q (expected table|json|github)", flagValue)
		}
		return out, nil
	}
	if out := parseOutputFormat(configValue); out != "" {
		return out, nil
	}
	return FormatTable, nil
}

func coloredStatus(passed bool) string {
	if passed {
		return colorGreen + "PASS" + colorReset
	}
	return colorRed + "FAIL" + colorReset
}

func FormatReport(report *sample.EvalReport, format OutputFormat) string {
	switch format {
	case FormatTable:
		return formatReportTable(report)
	case FormatJSON:
		return formatReportJSON(report)
	case FormatGitHub:
		return formatReportGitHub(report)
	default:
		return fmt.Sprintf("error: unknown output format %q\n", format)
	}
}

func formatReportTable(report *sample.EvalReport) string {
	if report == nil {
		return "Eval: <nil> " + coloredStatus(false) + "\n\n"
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Eval: %s %s\n", report.EvalName, coloredStatus(report.Incorrect == 0))
	fmt.Fprintf(&buf, "Model: %s run=%s\n", report.Model, report.RunID)
	fmt.Fprintf(&buf, "Samples: %d correct=%d incorrect=%d score=%.3f duration_ms=%d\n",
		report.TotalSamples, report.Correct, report.Incorrect, report.Score, report.DurationMs)

	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SAMPLE\tRESULT\tSCORE\tREASONING")
	for _, r := range report.Results {
		fmt.Fprintf(tw, "%s\t%s\t%.3f\t%s\n",
			r.SampleID, coloredStatus(r.Passed), r.Score, truncate(r.Reasoning, 80))
	}
	_ = tw.Flush()
	buf.WriteByte('\n')
	return buf.String()
}

func formatReportJSON(report *sample.EvalReport) string {
	if report == nil {
		return "{\"error\":\"nil report\"}\n"
	}
	b, err := json.Marshal(report)
	if err != nil {
		return fmt.Sprintf("{\"error\":%q}\n", err.Error())
	}
	return string(b) + "\n"
}

func formatReportGitHub(report *sample.EvalReport) string {
	if report == nil {
		return "::error::nil report\n"
	}

	var buf strings.Builder
	for _, r := range report.Results {
		if r.Passed {
			continue
		}
		msg := fmt.Sprintf("eval=%s sample=%s score=%.3f reason=%s",
			report.EvalName, r.SampleID, r.Score, r.Reasoning)
		buf.WriteString("::error::")
		buf.WriteString(sanitizeGitHubAnnotation(msg))
		buf.WriteByte('\n')
	}

	buf.WriteString(fmt.Sprintf("Summary: eval=%s model=%s samples=%d correct=%d incorrect=%d score=%.3f\n",
		report.EvalName, report.Model, report.TotalSamples, report.Correct, report.Incorrect, report.Score))
	return buf.String()
}

func sanitizeGitHubAnnotation(s string) string {
	// GitHub Actions commands treat CR/LF specially. Flatten them.
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}

func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if max <= 3 || len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
