package parser

import (
	"encoding/json"
	"strings"
)

// Repair recovers a best-effort JSON value from raw model output. Stages run
// cheapest and most-likely-correct first: envelope stripping and trailing-comma
// removal are lossless, the token balancer closes unterminated structures, and
// the truncation fallback runs last because it discards trailing content.
func Repair(text string) (any, error) {
	cleaned := stripEnvelope(text)
	cleaned = stripTrailingCommas(cleaned)

	if v, err := strictParse(cleaned); err == nil {
		return v, nil
	}
	if v, err := strictParse(balanceTokens(cleaned)); err == nil {
		return v, nil
	}
	if v, ok := truncationFallback(cleaned); ok {
		return v, nil
	}
	return nil, &UnrecoverableFormatError{TextLen: len(cleaned)}
}

// RepairOrDefault treats blank input as an empty result rather than a format
// error: the upstream model legitimately returns nothing for documents with
// no matching content, and the caller knows which empty shape it expects.
func RepairOrDefault(text string, def any) (any, error) {
	if strings.TrimSpace(text) == "" {
		return def, nil
	}
	return Repair(text)
}

func strictParse(text string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, err
	}
	return v, nil
}

// stripEnvelope removes a fenced code block wrapper and any prose the model
// put before the first opener or after the last closer.
func stripEnvelope(text string) string {
	s := strings.TrimSpace(text)

	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "```json") {
		s = s[len("```json"):]
	} else if strings.HasPrefix(s, "```") {
		s = s[len("```"):]
	}
	if strings.HasSuffix(strings.TrimSpace(s), "```") {
		s = strings.TrimSpace(s)
		s = s[:len(s)-len("```")]
	}
	s = strings.TrimSpace(s)

	if start := strings.IndexAny(s, "{["); start > 0 {
		s = s[start:]
	} else if start < 0 {
		return s
	}

	lastObj := strings.LastIndex(s, "}")
	lastArr := strings.LastIndex(s, "]")
	last := lastObj
	if lastArr > last {
		last = lastArr
	}
	if last >= 0 && last+1 < len(s) {
		s = s[:last+1]
	}
	return s
}

// stripTrailingCommas drops commas that appear immediately before a closing
// bracket. String literals are tracked so embedded commas are untouched.
func stripTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			b.WriteByte(c)
			continue
		}
		switch c {
		case '"':
			inString = true
		case ',':
			j := i + 1
			for j < len(s) && (s[j] == ' ' || s[j] == '\t' || s[j] == '\n' || s[j] == '\r') {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue // drop the comma, keep whitespace and closer
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// balanceTokens closes every unterminated JSON structure. It is a small state
// machine: an in-string flag, an escape flag, and a stack of expected closers.
// Brackets inside string literals must not be counted.
func balanceTokens(s string) string {
	var stack []byte
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) > 0 && stack[len(stack)-1] == c {
				stack = stack[:len(stack)-1]
			}
		}
	}

	out := s
	if inString {
		out += `"`
	}
	out = strings.TrimRight(out, " \t\r\n")
	if strings.HasSuffix(out, ",") {
		out = out[:len(out)-1]
	} else if strings.HasSuffix(out, ":") {
		out += "null"
	}
	// Closers were pushed outermost-first, so they are appended in reverse.
	for i := len(stack) - 1; i >= 0; i-- {
		out += string(stack[i])
	}
	return out
}

// closerSuffixes are tried in order against each truncation candidate.
var closerSuffixes = []string{"", "}", "]", "]}", "}}", "]}}"}

const maxTruncationCandidates = 5

// truncationFallback cuts the text back to a recent closing bracket and tries
// a fixed set of closer suffixes. It discards whatever followed the cut point,
// so a row truncated mid-way is dropped rather than fabricated.
func truncationFallback(s string) (any, bool) {
	candidates := 0
	for i := len(s) - 1; i >= 0 && candidates < maxTruncationCandidates; i-- {
		if s[i] != '}' && s[i] != ']' {
			continue
		}
		candidates++
		head := s[:i+1]
		for _, suffix := range closerSuffixes {
			if v, err := strictParse(head + suffix); err == nil {
				return v, true
			}
		}
	}
	return nil, false
}
