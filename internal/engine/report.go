package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"text/template"

	"github.com/wesleyorama2/thunderbench/internal/output"
)

const runReportTemplate = `# {{ .Name }}
{{ if .Description }}
{{ .Description }}
{{ end }}
- Run ID: ` + "`{{ .RunID }}`" + `
- Started: {{ .StartTime.Format "2006-01-02 15:04:05 MST" }}
- Duration: {{ duration .Duration }}
{{ range .Groups }}
## Group: {{ .Name }}

| Setting | Value |
|---|---|
| Base URL | {{ .BaseURL }} |
| Mode | {{ .ExecutionMode }} |
| Threads | {{ .Threads }} |
| Connections | {{ .Connections }} |
| Duration | {{ duration .Duration }} |
| Timeout | {{ duration .Timeout }} |

| Metric | Value |
|---|---|
| Requests | {{ number .Metrics.TotalRequests }} |
| Requests/sec | {{ printf "%.2f" .Metrics.RPS }} |
| Transfer/sec | {{ bytes .Metrics.BytesPerSec }} |
| Errors | {{ number .Metrics.FailedRequests }} ({{ percent .Metrics.ErrorRate }}) |
| Socket errors | {{ number .Metrics.TransportErrors }} |
| Timeouts | {{ number .Metrics.Timeouts }} |
{{ if .Latency }}
### Latency

| Avg | P50 | P75 | P90 | P99 | Max |
|---|---|---|---|---|---|
| {{ latency .Metrics.Latency.Mean }} | {{ latency .Metrics.Latency.P50 }} | {{ latency .Metrics.Latency.P75 }} | {{ latency .Metrics.Latency.P90 }} | {{ latency .Metrics.Latency.P99 }} | {{ latency .Metrics.Latency.Max }} |
{{ end }}
### Tests

| Test | Request | Weight | Share | Requests | Failed | P95 |
|---|---|---|---|---|---|---|
{{ range .Tests }}| {{ .Name }} | {{ .Method }} {{ .URL }} | {{ .Weight }} | {{ percent .Share }} | {{ number .Requests }} | {{ number .Failed }} | {{ latency .Latency.P95 }} |
{{ end }}{{ with statusCodes .Metrics.StatusCodes }}
### Status codes

| Code | Count |
|---|---|
{{ range . }}| {{ .Code }} | {{ number .Count }} |
{{ end }}{{ end }}{{ end }}`

var runReport = template.Must(template.New("run").Funcs(templateFuncs()).Parse(runReportTemplate))

type statusCount struct {
	Code  int
	Count int64
}

// templateFuncs returns the template helper functions.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"duration": output.FormatDuration,
		"latency":  output.FormatLatency,
		"number":   output.FormatNumber,
		"bytes":    output.FormatBytes,
		"percent": func(f float64) string {
			return fmt.Sprintf("%.2f%%", f*100)
		},
		"statusCodes": func(codes map[int]int64) []statusCount {
			out := make([]statusCount, 0, len(codes))
			for code, n := range codes {
				out = append(out, statusCount{Code: code, Count: n})
			}
			sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
			return out
		},
	}
}

// RenderMarkdown renders a run result as a markdown document.
func RenderMarkdown(result *Result) ([]byte, error) {
	var buf bytes.Buffer
	if err := runReport.Execute(&buf, result); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	return buf.Bytes(), nil
}

// writeRunReports writes <dir>/<slug>-<timestamp>.json and .md.
func writeRunReports(dir string, result *Result) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	base := filepath.Join(dir, fmt.Sprintf("%s-%s", Slug(result.Name), result.StartTime.Format("20060102-150405")))

	jsonData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	markdown, err := RenderMarkdown(result)
	if err != nil {
		return nil, err
	}

	paths := []string{base + ".json", base + ".md"}
	for i, data := range [][]byte{jsonData, markdown} {
		if err := os.WriteFile(paths[i], data, 0644); err != nil {
			return nil, fmt.Errorf("failed to write report: %w", err)
		}
	}
	return paths, nil
}
