package jsonschema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const personSchema = `{
	"type": "object",
	"required": ["name"],
	"properties": {
		"name": {"type": "string", "minLength": 1},
		"age": {"type": "integer", "minimum": 0},
		"tags": {"type": "array", "items": {"type": "string"}}
	}
}`

func TestCompile(t *testing.T) {
	_, err := Compile("person.json", personSchema)
	require.NoError(t, err)

	_, err = Compile("broken.json", `{"type": `)
	assert.Error(t, err)

	assert.Panics(t, func() {
		MustCompile("broken.json", `{"type": 12}`)
	})
}

func TestSchema_ValidateJSON(t *testing.T) {
	schema := MustCompile("person.json", personSchema)

	tests := []struct {
		name      string
		json      string
		locations []string
	}{
		{
			name: "valid",
			json: `{"name": "Ada", "age": 36, "tags": ["math"]}`,
		},
		{
			name:      "missing required property",
			json:      `{"age": 30}`,
			locations: []string{""},
		},
		{
			name:      "wrong type",
			json:      `{"name": "Ada", "age": "old"}`,
			locations: []string{"/age"},
		},
		{
			name:      "nested array item",
			json:      `{"name": "Ada", "tags": ["ok", 7]}`,
			locations: []string{"/tags/1"},
		},
		{
			name:      "multiple violations",
			json:      `{"name": "", "age": -1}`,
			locations: []string{"/name", "/age"},
		},
		{
			name:      "malformed json",
			json:      `{"name": `,
			locations: []string{""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			violations := schema.ValidateJSON([]byte(tt.json))
			if len(tt.locations) == 0 {
				assert.Nil(t, violations)
				return
			}

			require.Len(t, violations, len(tt.locations))
			got := make([]string, 0, len(violations))
			for _, v := range violations {
				got = append(got, v.Location)
				assert.NotEmpty(t, v.Message)
			}
			assert.ElementsMatch(t, tt.locations, got)
		})
	}
}

func TestValidationErrors_Error(t *testing.T) {
	assert.Equal(t, "", ValidationErrors{}.Error())

	errs := ValidationErrors{
		{Message: "missing properties: 'name'"},
		{Location: "/age", Message: "expected integer"},
	}
	assert.Equal(t,
		"validation error at root: missing properties: 'name'; validation error at /age: expected integer",
		errs.Error())
}
