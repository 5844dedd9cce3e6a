package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanMarkdownWrapper(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", `{"Dairy": [0]}`, `{"Dairy": [0]}`},
		{"json fence", "```json\n{\"Dairy\": [0]}\n```", `{"Dairy": [0]}`},
		{"bare fence", "```\n{\"Dairy\": [0]}\n```", `{"Dairy": [0]}`},
		{"single line fence", "```json {\"Dairy\": [0]}```", `{"Dairy": [0]}`},
		{"surrounding chatter", "Here you go:\n{\"Dairy\": [0]}\nThanks!", `{"Dairy": [0]}`},
		{"whitespace", "  \n{}\n  ", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanMarkdownWrapper(tt.input))
		})
	}
}

func TestParseCategoryMapping(t *testing.T) {
	mapping, err := ParseCategoryMapping("```json\n{\"Beverages\": [0, 2], \"Snacks\": [1]}\n```")
	require.NoError(t, err)
	assert.Equal(t, map[string][]int{"Beverages": {0, 2}, "Snacks": {1}}, mapping)

	mapping, err = ParseCategoryMapping(`{}`)
	require.NoError(t, err)
	assert.Empty(t, mapping)
}

func TestParseCategoryMappingErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"not json", "I cannot help with that"},
		{"array", `[0, 1]`},
		{"wrong value type", `{"Dairy": "0"}`},
		{"null", `null`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCategoryMapping(tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnparsableResponse)
		})
	}
}
