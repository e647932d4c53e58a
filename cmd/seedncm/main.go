// Command seedncm converts the Siscomex NCM nomenclature dump into a SQL
// seed file. The source is fetched over HTTP (or read from a local file
// passed as the first argument) and accepts both published layouts: the
// official {"Nomenclaturas": [{"Codigo", "Descricao"}]} object and the
// older [["code", "description"], ...] array of pairs.
// Usage: go run ./cmd/seedncm [ncm.json]
// Output: db/seeds/ncm_codes.sql
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	sourceURL = "https://cdn.jsdelivr.net/gh/leogregianin/siscomex-ncm@master/ncm.json"
	outPath   = "db/seeds/ncm_codes.sql"
	batchSize = 500
)

type ncmEntry struct {
	code        string
	description string
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	var raw []byte
	var err error
	if len(os.Args) > 1 {
		raw, err = os.ReadFile(os.Args[1])
		if err != nil {
			return fmt.Errorf("read input file: %w", err)
		}
	} else {
		raw, err = fetch(sourceURL)
		if err != nil {
			return fmt.Errorf("fetch NCM source: %w", err)
		}
	}

	entries, err := parseEntries(raw)
	if err != nil {
		return fmt.Errorf("parse NCM source: %w", err)
	}
	log.Printf("parsed %d NCM entries", len(entries))

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer func() { _ = out.Close() }()

	w := func(s string) error { _, werr := fmt.Fprintln(out, s); return werr }

	for _, line := range []string{
		"-- NCM code seed data generated from the Siscomex nomenclature dump.",
		fmt.Sprintf("-- %d entries in batches of %d.", len(entries), batchSize),
		"-- Run: make seed-ncm",
		"BEGIN;",
		"",
	} {
		if werr := w(line); werr != nil {
			return fmt.Errorf("write header: %w", werr)
		}
	}

	for i := 0; i < len(entries); i += batchSize {
		end := i + batchSize
		if end > len(entries) {
			end = len(entries)
		}
		if err := writeBatch(out, entries[i:end]); err != nil {
			return fmt.Errorf("write batch at offset %d: %w", i, err)
		}
	}

	for _, line := range []string{"", "COMMIT;"} {
		if werr := w(line); werr != nil {
			return fmt.Errorf("write footer: %w", werr)
		}
	}

	log.Printf("Generated %d total entries (%d batches) in %s",
		len(entries), (len(entries)+batchSize-1)/batchSize, outPath)
	return nil
}

func fetch(url string) ([]byte, error) {
	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	return io.ReadAll(resp.Body)
}

// parseEntries decodes either source layout into a deduplicated entry list.
// Codes are stored without the dotted formatting ("0101.21.00" -> "01012100").
func parseEntries(raw []byte) ([]ncmEntry, error) {
	var official struct {
		Nomenclaturas []struct {
			Codigo    string `json:"Codigo"`
			Descricao string `json:"Descricao"`
		} `json:"Nomenclaturas"`
	}
	if err := json.Unmarshal(raw, &official); err == nil && len(official.Nomenclaturas) > 0 {
		var entries []ncmEntry
		seen := make(map[string]bool)
		for _, n := range official.Nomenclaturas {
			entries = addEntry(entries, seen, n.Codigo, n.Descricao)
		}
		return entries, nil
	}

	var pairs [][]string
	if err := json.Unmarshal(raw, &pairs); err != nil {
		return nil, fmt.Errorf("input matches neither known NCM layout: %w", err)
	}

	var entries []ncmEntry
	seen := make(map[string]bool)
	for _, p := range pairs {
		if len(p) < 2 {
			continue
		}
		entries = addEntry(entries, seen, p[0], p[1])
	}
	return entries, nil
}

func addEntry(entries []ncmEntry, seen map[string]bool, code, description string) []ncmEntry {
	code = strings.ReplaceAll(strings.TrimSpace(code), ".", "")
	description = cleanDescription(description)
	if code == "" || !isNumeric(code) || seen[code] {
		return entries
	}
	seen[code] = true
	return append(entries, ncmEntry{code: code, description: description})
}

// cleanDescription strips the leading "-- " hierarchy markers the official
// dump uses for nested items.
func cleanDescription(s string) string {
	s = strings.TrimSpace(s)
	for strings.HasPrefix(s, "-") {
		s = strings.TrimSpace(strings.TrimPrefix(s, "-"))
	}
	return s
}

func writeBatch(out *os.File, batch []ncmEntry) error {
	if len(batch) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ncm_codes (code, description) VALUES\n")

	for i := range batch {
		e := &batch[i]
		if i > 0 {
			b.WriteString(",\n")
		}
		fmt.Fprintf(&b, "  ('%s', '%s')", escapeSQL(e.code), escapeSQL(e.description))
	}

	b.WriteString("\nON CONFLICT (code) DO UPDATE SET description = EXCLUDED.description;\n")

	_, err := out.WriteString(b.String())
	return err
}

func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return s != ""
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
