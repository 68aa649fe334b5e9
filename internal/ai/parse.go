package ai

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
)

// ParseJSONObject extracts the JSON object from a model response. Models
// often wrap output in markdown code fences or surround it with prose, so
// the parser strips fences and slices from the first '{' to the last '}'
// before decoding. Anything that does not decode to an object fails.
func ParseJSONObject(raw string) (map[string]any, error) {
	s := strings.TrimSpace(raw)

	// Strip markdown code fences.
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return nil, eris.New("ai: no JSON object in response")
	}
	s = s[start : end+1]

	var out map[string]any
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, eris.Wrap(err, "ai: decode response object")
	}
	return out, nil
}
