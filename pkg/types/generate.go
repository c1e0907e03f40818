package types

import "context"

// GenerateRequest is the payload handed to an image generation provider.
// Seed is nil when the provider should choose.
type GenerateRequest struct {
	Prompt   string
	Image    []byte
	MimeType string
	Model    string
	Size     string
	Seed     *int64
}

// GenerateResult is a provider's answer. Success false with SeedRejected
// true means the provider refused the requested seed.
type GenerateResult struct {
	Success      bool
	Image        []byte
	MimeType     string
	Error        string
	SeedRejected bool
}

// ImageGenerator is the external generation capability. The ledger never
// calls it; callers run it around ledger operations.
type ImageGenerator interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error)
}
