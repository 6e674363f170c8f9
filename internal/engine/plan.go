package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/wesleyorama2/thunderbench/internal/config"
)

// Plan is the request mix a group executes, written to disk before the
// group starts so a run can be inspected or replayed.
type Plan struct {
	RunID         string            `json:"runId"`
	Group         string            `json:"group"`
	BaseURL       string            `json:"baseUrl"`
	Headers       map[string]string `json:"headers,omitempty"`
	ExecutionMode string            `json:"executionMode"`
	Threads       int               `json:"threads"`
	Connections   int               `json:"connections"`
	DurationSec   int               `json:"durationSec"`
	TimeoutMs     int64             `json:"timeoutMs"`
	Tests         []PlanEntry       `json:"tests"`
}

// PlanEntry is one weighted request of a Plan.
type PlanEntry struct {
	Name    string            `json:"name"`
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    interface{}       `json:"body,omitempty"`
	Weight  float64           `json:"weight"`
	Share   float64           `json:"share"`
}

// NewPlan builds the plan of a group.
func NewPlan(runID, name string, group *config.TestGroup) *Plan {
	plan := &Plan{
		RunID:         runID,
		Group:         name,
		BaseURL:       group.HTTP.BaseURL,
		Headers:       group.HTTP.Headers,
		ExecutionMode: group.ExecutionMode,
		Threads:       group.Threads,
		Connections:   group.Connections,
		DurationSec:   group.Duration,
		TimeoutMs:     RequestTimeout(*group).Milliseconds(),
	}

	for _, r := range testResults(group.Tests, nil) {
		plan.Tests = append(plan.Tests, PlanEntry{
			Name:   r.Name,
			Method: r.Method,
			URL:    r.URL,
			Weight: r.Weight,
			Share:  r.Share,
		})
	}
	for i, test := range group.Tests {
		plan.Tests[i].Headers = test.Request.Headers
		plan.Tests[i].Body = test.Request.Body
	}
	return plan
}

func writePlan(dir, runID, name string, group *config.TestGroup) (string, error) {
	data, err := json.MarshalIndent(NewPlan(runID, name, group), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode request plan: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s-%s.json", runID, Slug(name)))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write request plan: %w", err)
	}
	return path, nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug turns a display name into a file name fragment.
func Slug(name string) string {
	s := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if s == "" {
		return "run"
	}
	return s
}
