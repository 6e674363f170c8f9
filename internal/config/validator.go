package config

import (
	"fmt"
	"math"
	"net/url"
	"strings"
)

var validMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "DELETE": true,
	"PATCH": true, "HEAD": true, "OPTIONS": true,
}

// Gate is the validation boundary every configuration passes before any
// traffic is generated.
type Gate struct{}

// NewGate creates a validation gate.
func NewGate() *Gate {
	return &Gate{}
}

// Validate discriminates the document shape and runs the matching
// validator. Unknown shapes fail with ErrUnrecognizedShape before any
// shape-specific rule runs.
func (g *Gate) Validate(doc *Document) error {
	if doc == nil {
		return ErrUnrecognizedShape
	}

	switch doc.Kind {
	case KindBenchmark:
		return g.ValidateBenchmark(doc.Benchmark)
	case KindComparison:
		return g.ValidateComparison(doc.Comparison)
	default:
		return fmt.Errorf("%w: expected 'groups' (benchmark) or 'servers' and 'testConfig' (comparison)", ErrUnrecognizedShape)
	}
}

// ValidateBenchmark validates a single-target configuration.
//
// Returns nil if valid, or a *ConfigurationError containing all violations.
func (g *Gate) ValidateBenchmark(cfg *BenchmarkConfig) error {
	errs := &ConfigurationError{}
	if cfg == nil {
		errs.Add("", "benchmark config is missing")
		return errs
	}

	encodable := true
	for i, group := range cfg.Groups {
		prefix := fmt.Sprintf("groups[%d]", i)
		if !validateTests(prefix, group.Tests, errs) {
			encodable = false
		}
		validateBaseURL(prefix+".http.baseUrl", group.HTTP.BaseURL, errs)
	}

	// Non-finite weights cannot be encoded as JSON; they are already reported.
	if encodable {
		checkSchema(benchmarkJSONSchema, cfg, errs)
	}

	return errs.orNil()
}

// ValidateComparison validates a multi-server comparison configuration.
func (g *Gate) ValidateComparison(cfg *ComparisonConfig) error {
	errs := &ConfigurationError{}
	if cfg == nil {
		errs.Add("", "comparison config is missing")
		return errs
	}

	seen := make(map[string]int)
	for i, server := range cfg.Servers {
		prefix := fmt.Sprintf("servers[%d]", i)
		if server.Name != "" {
			if first, dup := seen[server.Name]; dup {
				errs.Add(prefix+".name", fmt.Sprintf("duplicate server name %q (also servers[%d])", server.Name, first))
			} else {
				seen[server.Name] = i
			}
		}
		if server.HealthCheckPath != "" && !strings.HasPrefix(server.HealthCheckPath, "/") {
			errs.Add(prefix+".healthCheckPath", "must start with '/'")
		}
	}

	encodable := true
	for i, scenario := range cfg.TestConfig.Scenarios {
		prefix := fmt.Sprintf("testConfig.scenarios[%d]", i)
		if !validateWeight(prefix+".weight", scenario.Weight, errs) {
			encodable = false
		}
		validateMethod(prefix+".method", scenario.Method, errs)
	}
	if len(cfg.TestConfig.Scenarios) > 0 && !hasPositiveWeight(cfg.TestConfig.Tests()) {
		errs.Add("testConfig.scenarios", "at least one scenario must have a positive weight")
	}

	if encodable {
		checkSchema(comparisonJSONSchema, cfg, errs)
	}

	return errs.orNil()
}

// validateTests checks the rules the schema cannot express. It returns
// false when a weight is not finite.
func validateTests(prefix string, tests []WeightedTest, errs *ConfigurationError) bool {
	finite := true
	for i, test := range tests {
		testPrefix := fmt.Sprintf("%s.tests[%d]", prefix, i)
		if !validateWeight(testPrefix+".weight", test.Weight, errs) {
			finite = false
		}
		validateMethod(testPrefix+".request.method", test.Request.Method, errs)
	}

	if len(tests) > 0 && !hasPositiveWeight(tests) {
		errs.Add(prefix+".tests", "at least one test must have a positive weight")
	}
	return finite
}

// validateWeight reports non-finite weights. Negative weights are left to
// the schema.
func validateWeight(field string, weight float64, errs *ConfigurationError) bool {
	if math.IsNaN(weight) || math.IsInf(weight, 0) {
		errs.Add(field, "weight must be a finite number")
		return false
	}
	return true
}

func validateMethod(field, method string, errs *ConfigurationError) {
	if method == "" {
		return
	}
	if !validMethods[strings.ToUpper(method)] {
		errs.Add(field, fmt.Sprintf("invalid HTTP method: %s", method))
	}
}

func validateBaseURL(field, baseURL string, errs *ConfigurationError) {
	if baseURL == "" {
		return
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		errs.Add(field, fmt.Sprintf("invalid URL: %v", err))
		return
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		errs.Add(field, "URL scheme must be http or https")
	}
	if u.Host == "" {
		errs.Add(field, "URL must include a host")
	}
}

func hasPositiveWeight(tests []WeightedTest) bool {
	for _, t := range tests {
		if t.Weight > 0 {
			return true
		}
	}
	return false
}
