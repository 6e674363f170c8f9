// Command generate-sample-report writes a comparison report built from
// synthetic results, for previewing the report formats.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/wesleyorama2/thunderbench/internal/comparison"
	"github.com/wesleyorama2/thunderbench/internal/engine"
	"github.com/wesleyorama2/thunderbench/internal/metrics"
	"github.com/wesleyorama2/thunderbench/internal/report"
)

func main() {
	outputDir := "sample-report"
	if len(os.Args) > 1 {
		outputDir = os.Args[1]
	}

	paths, err := report.Generate(createSampleResult(), report.Options{
		OutputDir: outputDir,
		Formats:   report.Formats(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	for _, path := range paths {
		fmt.Printf("Sample report generated: %s\n", path)
	}
}

func createSampleResult() *comparison.Result {
	now := time.Now()

	servers := []comparison.ServerResult{
		sampleServer("fastify", 3002, 41250.4, 2*time.Millisecond, 9*time.Millisecond, 38.5, 92.1, 71<<20),
		sampleServer("express", 3001, 14870.9, 6*time.Millisecond, 31*time.Millisecond, 21.0, 99.6, 84<<20),
		sampleServer("koa", 3003, 27310.2, 3*time.Millisecond, 15*time.Millisecond, 30.2, 97.3, 66<<20),
		{
			Name:    "hapi",
			Command: "node",
			Port:    3004,
			Error:   "health check failed: server not healthy after 10s: connection refused",
		},
	}

	result := &comparison.Result{
		RunID:       "6f1c2f0e-5d1b-4a8e-9a57-3c1f1e9d2b44",
		Name:        "Node.js Framework Comparison",
		Description: "Hello world and JSON endpoints under 100 connections",
		StartTime:   now.Add(-3 * time.Minute),
		EndTime:     now,
		Duration:    3 * time.Minute,
		Workload:    comparison.Workload{Threads: 4, Connections: 100, DurationSec: 30},
		Servers:     servers,
	}

	leader := servers[0].Metrics.RPS
	for i, name := range []string{"fastify", "koa", "express"} {
		for _, s := range servers {
			if s.Name == name {
				result.Ranking = append(result.Ranking, comparison.RankEntry{
					Rank:     i + 1,
					Server:   name,
					RPS:      s.Metrics.RPS,
					Relative: s.Metrics.RPS / leader,
				})
			}
		}
	}
	return result
}

func sampleServer(name string, port int, rps float64, p50, p99 time.Duration, cpuAvg, cpuMax float64, mem uint64) comparison.ServerResult {
	total := int64(rps * 30)
	latency := metrics.LatencyStats{
		Min:   p50 / 4,
		Max:   p99 * 3,
		Mean:  p50 + p50/5,
		P50:   p50,
		P75:   p50 * 2,
		P90:   p99 / 2,
		P95:   p99 * 3 / 4,
		P99:   p99,
		Count: total,
	}

	return comparison.ServerResult{
		Name:        name,
		Command:     "node",
		Port:        port,
		StartupTime: 700 * time.Millisecond,
		Warmup:      100,
		Metrics: &metrics.Snapshot{
			TotalRequests:   total,
			SuccessRequests: total,
			TotalBytes:      total * 180,
			BytesPerSec:     rps * 180,
			RPS:             rps,
			Latency:         latency,
			StatusCodes:     map[int]int64{200: total},
			ActiveVUs:       100,
			Elapsed:         30 * time.Second,
		},
		Scenarios: []engine.TestResult{
			{Name: "hello", Method: "GET", URL: "/", Weight: 70, Share: 0.7, Requests: total * 7 / 10, Latency: latency},
			{Name: "json", Method: "GET", URL: "/api/test", Weight: 30, Share: 0.3, Requests: total * 3 / 10, Latency: latency},
		},
		Resources: &comparison.ResourceUsage{
			Samples:       30,
			CPUAvgPercent: cpuAvg,
			CPUMaxPercent: cpuMax,
			MemAvgBytes:   mem * 9 / 10,
			MemMaxBytes:   mem,
		},
	}
}
