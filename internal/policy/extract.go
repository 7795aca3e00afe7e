package policy

import "strings"

// ExtractJSONObject pulls the first balanced top-level JSON object out of
// model output. Models wrap JSON in prose or markdown fences; a plain
// json.Unmarshal of the whole text would fail on those. The matcher is
// string-aware so braces inside string values do not confuse the depth count.
func ExtractJSONObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
