package generator

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Normalize parses a provider's message content into at most count hooks.
//
// Accepted shapes: a JSON array, or an object carrying the array under "hooks".
// Array elements may be plain strings or objects with "content" or "text".
// Markdown code fences around the JSON are ignored. Elements without usable
// text are skipped; a result with no usable element is an error.
func Normalize(raw string, style Style, count int) ([]Hook, error) {
	content := stripFences(raw)
	if content == "" {
		return nil, fmt.Errorf("empty provider content")
	}

	items, err := extractItems([]byte(content))
	if err != nil {
		return nil, err
	}

	hooks := make([]Hook, 0, len(items))
	for _, item := range items {
		h, ok := normalizeItem(item, style)
		if !ok {
			continue
		}
		hooks = append(hooks, h)
		if count > 0 && len(hooks) == count {
			break
		}
	}
	if len(hooks) == 0 {
		return nil, fmt.Errorf("provider returned no usable hooks")
	}
	return hooks, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func extractItems(data []byte) ([]json.RawMessage, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err == nil {
		return items, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("parse provider content: %w", err)
	}
	raw, ok := obj["hooks"]
	if !ok {
		return nil, fmt.Errorf("provider content has no hooks array")
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("parse hooks array: %w", err)
	}
	return items, nil
}

type rawHook struct {
	Style   string `json:"style"`
	Content string `json:"content"`
	Text    string `json:"text"`
}

func normalizeItem(item json.RawMessage, requested Style) (Hook, bool) {
	var text string
	if err := json.Unmarshal(item, &text); err == nil {
		text = strings.TrimSpace(text)
		return Hook{Style: requested, Content: text}, text != ""
	}

	var rh rawHook
	if err := json.Unmarshal(item, &rh); err != nil {
		return Hook{}, false
	}
	text = strings.TrimSpace(rh.Content)
	if text == "" {
		text = strings.TrimSpace(rh.Text)
	}
	if text == "" {
		return Hook{}, false
	}

	style := requested
	if ValidStyle(rh.Style) {
		style = Style(rh.Style)
	}
	return Hook{Style: style, Content: text}, true
}
