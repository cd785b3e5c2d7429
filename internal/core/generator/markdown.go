package generator

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Models answer with markdown fences around the code more often than not.
// These helpers strip them and fall back sensibly when they are absent.

var (
	fenceOpenRe  = regexp.MustCompile("(?i)^```[a-z]*\n")
	fenceCloseRe = regexp.MustCompile("\n```$")
	codeBlockRe  = regexp.MustCompile("(?s)```(\\w+)\n(.*?)\n```")
	jsonObjectRe = regexp.MustCompile(`(?s)(\{.*\})`)
)

// StripFence removes a surrounding markdown code fence, if any, and returns
// the trimmed body. Text without a fence comes back trimmed but otherwise
// untouched.
func StripFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = fenceOpenRe.ReplaceAllString(text, "")
	text = fenceCloseRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// ExtractBlocks collects every fenced code block keyed by its language tag.
// Blocks with the same tag are concatenated in order.
func ExtractBlocks(text string) map[string]string {
	out := make(map[string]string)
	for _, m := range codeBlockRe.FindAllStringSubmatch(text, -1) {
		lang, code := m[1], strings.TrimSpace(m[2])
		if existing, ok := out[lang]; ok {
			out[lang] = existing + "\n" + code
		} else {
			out[lang] = code
		}
	}
	return out
}

// DecodeJSON parses a JSON object out of a model response, tolerating a
// markdown fence and surrounding prose.
func DecodeJSON(text string, v any) error {
	body := StripFence(text)
	if err := json.Unmarshal([]byte(body), v); err == nil {
		return nil
	}
	m := jsonObjectRe.FindStringSubmatch(body)
	if m == nil {
		return fmt.Errorf("no JSON object found in response")
	}
	if err := json.Unmarshal([]byte(m[1]), v); err != nil {
		return fmt.Errorf("decode extracted JSON: %w", err)
	}
	return nil
}
