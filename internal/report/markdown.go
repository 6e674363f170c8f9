package report

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/wesleyorama2/thunderbench/internal/comparison"
	"github.com/wesleyorama2/thunderbench/internal/output"
)

const markdownTemplate = `# {{ .Name }}
{{ if .Description }}
{{ .Description }}
{{ end }}
- Run ID: ` + "`{{ .RunID }}`" + `
- Started: {{ .StartTime.Format "2006-01-02 15:04:05 MST" }}
- Duration: {{ duration .Duration }}
- Workload: {{ .Workload.Threads }} threads, {{ .Workload.Connections }} connections, {{ .Workload.DurationSec }}s per server
{{ with .Ranking }}
## Ranking

| # | Server | Requests/sec | Relative |
|---|---|---|---|
{{ range . }}| {{ .Rank }} | {{ .Server }} | {{ printf "%.2f" .RPS }} | {{ percent .Relative }} |
{{ end }}{{ end }}
## Servers

| Server | Requests | Errors | Avg | P50 | P99 | Max | Transfer/sec |
|---|---|---|---|---|---|---|---|
{{ range .Servers }}{{ if .Metrics }}| {{ .Name }} | {{ number .Metrics.TotalRequests }} | {{ number .Metrics.FailedRequests }} ({{ percent .Metrics.ErrorRate }}) | {{ latency .Metrics.Latency.Mean }} | {{ latency .Metrics.Latency.P50 }} | {{ latency .Metrics.Latency.P99 }} | {{ latency .Metrics.Latency.Max }} | {{ bytes .Metrics.BytesPerSec }} |
{{ else }}| {{ .Name }} | failed: {{ .Error }} | | | | | | |
{{ end }}{{ end }}
## Scenarios
{{ range .Servers }}{{ if .Scenarios }}
### {{ .Name }}

| Scenario | Request | Share | Requests | Failed | P50 | P95 | P99 |
|---|---|---|---|---|---|---|---|
{{ range .Scenarios }}| {{ .Name }} | {{ .Method }} {{ .URL }} | {{ percent .Share }} | {{ number .Requests }} | {{ number .Failed }} | {{ latency .Latency.P50 }} | {{ latency .Latency.P95 }} | {{ latency .Latency.P99 }} |
{{ end }}{{ end }}{{ end }}
## Resources

| Server | Startup | CPU avg | CPU max | Memory avg | Memory max |
|---|---|---|---|---|---|
{{ range .Servers }}{{ if .Resources }}| {{ .Name }} | {{ duration .StartupTime }} | {{ cpu .Resources.CPUAvgPercent }} | {{ cpu .Resources.CPUMaxPercent }} | {{ mem .Resources.MemAvgBytes }} | {{ mem .Resources.MemMaxBytes }} |
{{ end }}{{ end }}`

var markdownReport = template.Must(template.New("comparison").Funcs(templateFuncs()).Parse(markdownTemplate))

// templateFuncs returns the helpers shared by the markdown and HTML reports.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"duration": output.FormatDuration,
		"latency":  output.FormatLatency,
		"number":   output.FormatNumber,
		"bytes":    output.FormatBytes,
		"percent": func(f float64) string {
			return fmt.Sprintf("%.2f%%", f*100)
		},
		"cpu": func(f float64) string {
			return fmt.Sprintf("%.1f%%", f)
		},
		"mem": func(n uint64) string {
			return output.FormatBytes(float64(n))
		},
	}
}

// RenderMarkdown renders a comparison result as a markdown document.
func RenderMarkdown(result *comparison.Result) ([]byte, error) {
	var buf bytes.Buffer
	if err := markdownReport.Execute(&buf, result); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	return buf.Bytes(), nil
}
