package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"

	"github.com/wesleyorama2/thunderbench/internal/comparison"
)

// htmlData is the view model of the HTML report.
type htmlData struct {
	*comparison.Result
	ChartJSON template.JS
}

// chartPoint is one bar group in the throughput chart.
type chartPoint struct {
	Server    string  `json:"server"`
	RPS       float64 `json:"rps"`
	P50Millis float64 `json:"p50"`
	P99Millis float64 `json:"p99"`
}

var htmlReport = template.Must(template.New("comparison").Funcs(templateFuncs()).Parse(htmlTemplate))

// RenderHTML renders a comparison result as a standalone HTML page.
func RenderHTML(result *comparison.Result) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("result cannot be nil")
	}

	chart, err := chartJSON(result)
	if err != nil {
		return nil, fmt.Errorf("failed to convert chart data: %w", err)
	}

	var buf bytes.Buffer
	if err := htmlReport.Execute(&buf, htmlData{Result: result, ChartJSON: template.JS(chart)}); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.Bytes(), nil
}

// chartJSON serializes the ranked servers for the chart, fastest first.
func chartJSON(result *comparison.Result) (string, error) {
	byName := make(map[string]*comparison.ServerResult, len(result.Servers))
	for i := range result.Servers {
		byName[result.Servers[i].Name] = &result.Servers[i]
	}

	points := make([]chartPoint, 0, len(result.Ranking))
	for _, entry := range result.Ranking {
		s, ok := byName[entry.Server]
		if !ok || s.Metrics == nil {
			continue
		}
		points = append(points, chartPoint{
			Server:    entry.Server,
			RPS:       entry.RPS,
			P50Millis: float64(s.Metrics.Latency.P50.Microseconds()) / 1000,
			P99Millis: float64(s.Metrics.Latency.P99.Microseconds()) / 1000,
		})
	}

	data, err := json.Marshal(points)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Name}} - Comparison Report</title>
    <script src="https://cdn.jsdelivr.net/npm/chart.js"></script>
    <style>
        :root {
            --bg: #f8fafc;
            --card: #ffffff;
            --text: #1e293b;
            --muted: #64748b;
            --border: #e2e8f0;
            --accent: #3b82f6;
            --success: #22c55e;
            --error: #ef4444;
        }
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif;
            background: var(--bg);
            color: var(--text);
            line-height: 1.6;
        }
        .container { max-width: 1200px; margin: 0 auto; padding: 2rem; }
        .card {
            background: var(--card);
            border-radius: 12px;
            padding: 1.5rem;
            margin-bottom: 1.5rem;
            box-shadow: 0 1px 3px rgba(0, 0, 0, 0.1);
        }
        h1 { font-size: 1.75rem; }
        h2 { font-size: 1.2rem; margin-bottom: 1rem; }
        .meta { color: var(--muted); font-size: 0.9rem; }
        .meta span { margin-right: 1.5rem; }
        .winner { color: var(--success); font-weight: 700; }
        .failed { color: var(--error); }
        table { width: 100%; border-collapse: collapse; font-size: 0.9rem; }
        th, td { text-align: left; padding: 0.5rem 0.75rem; border-bottom: 1px solid var(--border); }
        th { color: var(--muted); font-weight: 600; }
        .chart { position: relative; height: 320px; }
    </style>
</head>
<body>
    <div class="container">
        <header class="card">
            <h1>{{.Name}}</h1>
            {{if .Description}}<p>{{.Description}}</p>{{end}}
            <div class="meta">
                <span>Started {{.StartTime.Format "2006-01-02 15:04:05"}}</span>
                <span>Took {{duration .Duration}}</span>
                <span>{{.Workload.Threads}} threads / {{.Workload.Connections}} connections / {{.Workload.DurationSec}}s</span>
            </div>
            {{with .Winner}}<p class="winner">Fastest: {{.}}</p>{{end}}
        </header>

        <section class="card">
            <h2>Throughput</h2>
            <div class="chart"><canvas id="throughput"></canvas></div>
        </section>

        <section class="card">
            <h2>Ranking</h2>
            <table>
                <thead><tr><th>#</th><th>Server</th><th>Requests/sec</th><th>Relative</th></tr></thead>
                <tbody>
                {{range .Ranking}}<tr><td>{{.Rank}}</td><td>{{.Server}}</td><td>{{printf "%.2f" .RPS}}</td><td>{{percent .Relative}}</td></tr>
                {{end}}
                </tbody>
            </table>
        </section>

        <section class="card">
            <h2>Servers</h2>
            <table>
                <thead><tr><th>Server</th><th>Requests</th><th>Errors</th><th>P50</th><th>P95</th><th>P99</th><th>CPU avg</th><th>Memory max</th></tr></thead>
                <tbody>
                {{range .Servers}}{{if .Metrics}}<tr>
                    <td>{{.Name}}</td>
                    <td>{{number .Metrics.TotalRequests}}</td>
                    <td>{{percent .Metrics.ErrorRate}}</td>
                    <td>{{latency .Metrics.Latency.P50}}</td>
                    <td>{{latency .Metrics.Latency.P95}}</td>
                    <td>{{latency .Metrics.Latency.P99}}</td>
                    <td>{{with .Resources}}{{cpu .CPUAvgPercent}}{{else}}-{{end}}</td>
                    <td>{{with .Resources}}{{mem .MemMaxBytes}}{{else}}-{{end}}</td>
                </tr>{{else}}<tr><td>{{.Name}}</td><td class="failed" colspan="7">{{.Error}}</td></tr>{{end}}
                {{end}}
                </tbody>
            </table>
        </section>
    </div>

    <script>
        const points = {{.ChartJSON}};
        new Chart(document.getElementById('throughput'), {
            data: {
                labels: points.map(p => p.server),
                datasets: [
                    { type: 'bar', label: 'Requests/sec', data: points.map(p => p.rps), backgroundColor: '#3b82f6', yAxisID: 'rps' },
                    { type: 'line', label: 'P50 (ms)', data: points.map(p => p.p50), borderColor: '#22c55e', yAxisID: 'latency' },
                    { type: 'line', label: 'P99 (ms)', data: points.map(p => p.p99), borderColor: '#ef4444', yAxisID: 'latency' }
                ]
            },
            options: {
                maintainAspectRatio: false,
                scales: {
                    rps: { type: 'linear', position: 'left', beginAtZero: true },
                    latency: { type: 'linear', position: 'right', beginAtZero: true, grid: { drawOnChartArea: false } }
                }
            }
        });
    </script>
</body>
</html>
`
