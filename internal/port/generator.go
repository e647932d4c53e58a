package port

import "context"

// GenerateInput carries one document-grounded generation request.
// The API key travels with the request because callers supply their own
// upstream credentials per extraction.
type GenerateInput struct {
	APIKey      string
	FileName    string
	FileBytes   []byte
	ContentType string
	Prompt      string
}

// Generator abstracts a single text-generation call against an LLM backend.
// The returned string is the raw response text, which is frequently not
// valid JSON and must go through repair before use.
type Generator interface {
	Generate(ctx context.Context, input GenerateInput) (string, error)
}
