package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnparsableResponse is returned when a reply is not a category mapping.
var ErrUnparsableResponse = errors.New("unparsable classification response")

// cleanMarkdownWrapper removes code fences and any chatter around the JSON object.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		if nl := strings.IndexByte(content, '\n'); nl >= 0 && !strings.ContainsAny(content[:nl], "{[") {
			content = content[nl+1:]
		} else {
			content = strings.TrimPrefix(content, "json")
		}
		content = strings.TrimSpace(content)
	}
	content = strings.TrimSpace(strings.TrimSuffix(content, "```"))

	start := strings.IndexByte(content, '{')
	end := strings.LastIndexByte(content, '}')
	if start >= 0 && end > start {
		content = content[start : end+1]
	}

	return content
}

// ParseCategoryMapping decodes a reply of the form {"Category": [0, 2]}.
// Category names are returned as given; validating them is up to the caller.
func ParseCategoryMapping(raw string) (map[string][]int, error) {
	content := cleanMarkdownWrapper(raw)
	if content == "" {
		return nil, fmt.Errorf("%w: empty response", ErrUnparsableResponse)
	}

	var mapping map[string][]int
	if err := json.Unmarshal([]byte(content), &mapping); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnparsableResponse, err)
	}
	if mapping == nil {
		return nil, fmt.Errorf("%w: response is not an object", ErrUnparsableResponse)
	}

	return mapping, nil
}
