// Package ncm provides in-memory lookups over the Mercosur NCM
// classification-code master list.
package ncm

import (
	"strings"

	"plinvoice/internal/port"
)

const searchLimit = 20

// Match is one search result.
type Match struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Level is one step of a code's prefix hierarchy.
type Level struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Level       string `json:"level"`
}

// hierarchyLevels maps prefix length to its NCM level name.
var hierarchyLevels = map[int]string{
	2: "Capítulo",
	4: "Posição",
	6: "Subposição",
	8: "Item",
}

// Lookup provides fast lookups over the NCM master list. It is immutable
// after construction and safe for concurrent access.
type Lookup struct {
	byCode map[string]string
	codes  []string // insertion order, for deterministic search results
}

// NewLookup builds a Lookup from entries loaded from the database. Codes are
// stored without dot formatting.
func NewLookup(entries []port.NCMEntry) *Lookup {
	byCode := make(map[string]string, len(entries))
	codes := make([]string, 0, len(entries))
	for i := range entries {
		code := cleanCode(entries[i].Code)
		if code == "" {
			continue
		}
		if _, exists := byCode[code]; !exists {
			codes = append(codes, code)
		}
		byCode[code] = strings.TrimSpace(entries[i].Description)
	}
	return &Lookup{byCode: byCode, codes: codes}
}

// Len returns the number of distinct codes loaded.
func (l *Lookup) Len() int {
	return len(l.codes)
}

// Description returns the description for a code, accepting both dotted
// ("8517.13.00") and bare ("85171300") forms.
func (l *Lookup) Description(code string) (string, bool) {
	desc, ok := l.byCode[cleanCode(code)]
	return desc, ok
}

// Search matches the term against codes (dot-stripped) and descriptions
// (case-insensitive substring), returning at most 20 results.
func (l *Lookup) Search(term string) []Match {
	termCode := cleanCode(term)
	termLower := strings.ToLower(strings.TrimSpace(term))

	results := make([]Match, 0, searchLimit)
	for _, code := range l.codes {
		desc := l.byCode[code]
		if (termCode != "" && strings.Contains(code, termCode)) ||
			strings.Contains(strings.ToLower(desc), termLower) {
			results = append(results, Match{Code: code, Description: desc})
			if len(results) >= searchLimit {
				break
			}
		}
	}
	return results
}

// Hierarchy resolves the chapter/position/subposition/item chain for a code
// by checking progressively longer prefixes. Levels missing from the master
// list are skipped.
func (l *Lookup) Hierarchy(code string) []Level {
	clean := cleanCode(code)

	levels := make([]Level, 0, len(hierarchyLevels))
	for _, length := range []int{2, 4, 6, 8} {
		if len(clean) < length {
			break
		}
		prefix := clean[:length]
		if desc, ok := l.byCode[prefix]; ok {
			levels = append(levels, Level{
				Code:        prefix,
				Description: desc,
				Level:       hierarchyLevels[length],
			})
		}
	}
	return levels
}

func cleanCode(code string) string {
	return strings.TrimSpace(strings.ReplaceAll(code, ".", ""))
}
