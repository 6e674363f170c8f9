package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/wesleyorama2/thunderbench/pkg/jsonschema"
)

// benchmarkSchema is the structural schema of a BenchmarkConfig.
const benchmarkSchema = `{
  "type": "object",
  "required": ["name", "description", "groups"],
  "properties": {
    "version": {"type": "integer", "const": 1},
    "name": {"type": "string", "minLength": 1},
    "description": {"type": "string", "minLength": 1},
    "groups": {
      "type": "array",
      "minItems": 1,
      "items": {"$ref": "#/$defs/group"}
    }
  },
  "$defs": {
    "headers": {
      "type": "object",
      "additionalProperties": {"type": "string"}
    },
    "group": {
      "type": "object",
      "required": ["http", "threads", "connections", "duration", "timeout", "executionMode", "tests"],
      "properties": {
        "name": {"type": "string"},
        "http": {
          "type": "object",
          "required": ["baseUrl"],
          "properties": {
            "baseUrl": {"type": "string", "minLength": 1},
            "headers": {"$ref": "#/$defs/headers"},
            "timeout": {"type": "integer", "minimum": 0}
          }
        },
        "threads": {"type": "integer", "minimum": 1},
        "connections": {"type": "integer", "minimum": 1},
        "duration": {"type": "integer", "minimum": 1},
        "timeout": {"type": "integer", "minimum": 1},
        "latency": {"type": "boolean"},
        "executionMode": {"enum": ["parallel", "serial"]},
        "tests": {
          "type": "array",
          "minItems": 1,
          "items": {"$ref": "#/$defs/test"}
        }
      }
    },
    "test": {
      "type": "object",
      "required": ["name", "request", "weight"],
      "properties": {
        "name": {"type": "string", "minLength": 1},
        "request": {
          "type": "object",
          "required": ["method", "url"],
          "properties": {
            "method": {"type": "string", "minLength": 1},
            "url": {"type": "string", "minLength": 1},
            "headers": {"$ref": "#/$defs/headers"}
          }
        },
        "weight": {"type": "number", "minimum": 0}
      }
    }
  }
}`

// comparisonSchema is the structural schema of a ComparisonConfig.
const comparisonSchema = `{
  "type": "object",
  "required": ["servers", "testConfig"],
  "properties": {
    "version": {"type": "integer", "const": 1},
    "servers": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["name", "command", "port", "healthCheckPath", "startupTimeout", "warmupRequests"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "command": {"type": "string", "minLength": 1},
          "args": {"type": "array", "items": {"type": "string"}},
          "env": {"type": "object", "additionalProperties": {"type": "string"}},
          "port": {"type": "integer", "minimum": 1, "maximum": 65535},
          "healthCheckPath": {"type": "string", "minLength": 1},
          "startupTimeout": {"type": "integer", "minimum": 1},
          "warmupRequests": {"type": "integer", "minimum": 0}
        }
      }
    },
    "testConfig": {
      "type": "object",
      "required": ["name", "threads", "connections", "duration", "scenarios"],
      "properties": {
        "name": {"type": "string", "minLength": 1},
        "description": {"type": "string"},
        "threads": {"type": "integer", "minimum": 1},
        "connections": {"type": "integer", "minimum": 1},
        "duration": {"type": "integer", "minimum": 1},
        "timeout": {"type": "integer", "minimum": 0},
        "scenarios": {
          "type": "array",
          "minItems": 1,
          "items": {
            "type": "object",
            "required": ["name", "method", "path", "weight"],
            "properties": {
              "name": {"type": "string", "minLength": 1},
              "method": {"type": "string", "minLength": 1},
              "path": {"type": "string", "minLength": 1},
              "headers": {"type": "object", "additionalProperties": {"type": "string"}},
              "weight": {"type": "number", "minimum": 0}
            }
          }
        }
      }
    }
  }
}`

var (
	benchmarkJSONSchema  = jsonschema.MustCompile("benchmark.json", benchmarkSchema)
	comparisonJSONSchema = jsonschema.MustCompile("comparison.json", comparisonSchema)
)

// checkSchema marshals v and validates it against schema, adding every
// violation to errs.
func checkSchema(schema *jsonschema.Schema, v interface{}, errs *ConfigurationError) {
	data, err := json.Marshal(v)
	if err != nil {
		errs.Add("", fmt.Sprintf("config cannot be encoded: %v", err))
		return
	}

	for _, violation := range schema.ValidateJSON(data) {
		errs.Add(pointerToField(violation.Location), violation.Message)
	}
}

// pointerToField converts a JSON pointer such as "/groups/0/threads" into
// the dotted form used in validation messages: "groups[0].threads".
func pointerToField(pointer string) string {
	if pointer == "" || pointer == "/" {
		return ""
	}

	var sb strings.Builder
	for _, token := range strings.Split(strings.TrimPrefix(pointer, "/"), "/") {
		token = strings.ReplaceAll(strings.ReplaceAll(token, "~1", "/"), "~0", "~")
		if _, err := strconv.Atoi(token); err == nil {
			sb.WriteString("[" + token + "]")
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString(".")
		}
		sb.WriteString(token)
	}
	return sb.String()
}
