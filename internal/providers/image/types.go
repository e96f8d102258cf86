// Package image adapts still-image providers to the contracts the shot
// pipeline and the batch orchestrator consume.
package image

import "context"

// Generator renders one still for prompt, optionally anchored on a reference
// image URL. It returns a URL, data URI or local path to the result.
type Generator interface {
	Generate(ctx context.Context, prompt, refURL string) (string, error)
}

// BatchRequest is one batch task's generation call.
type BatchRequest struct {
	Prompt         string
	NegativePrompt string
	ReferenceURLs  []string
	Resolution     string
	AspectRatio    string
	OutputFormat   string
	Variants       int
}

// BatchGenerator renders every variant of a batch task.
type BatchGenerator interface {
	GenerateBatch(ctx context.Context, req BatchRequest) ([]string, error)
}
