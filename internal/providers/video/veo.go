package video

import (
	"context"
	"fmt"

	"engine/internal/domain"
	"engine/internal/providers/genai"
	"engine/internal/storage"
)

// VeoGenerator animates stills through the Gemini Veo operation API.
type VeoGenerator struct {
	client  *genai.Client
	fetcher *storage.Fetcher
}

func NewVeoGenerator(client *genai.Client, fetcher *storage.Fetcher) *VeoGenerator {
	return &VeoGenerator{client: client, fetcher: fetcher}
}

func (g *VeoGenerator) Generate(ctx context.Context, imageRef, prompt string) (string, error) {
	if imageRef == "" {
		return "", fmt.Errorf("veo: %w: image is required for image-to-video", domain.ErrProviderFailure)
	}
	blob, err := g.fetcher.Fetch(ctx, imageRef)
	if err != nil {
		return "", fmt.Errorf("veo: %w: load image: %v", domain.ErrProviderFailure, err)
	}
	mime := blob.MIME
	if mime == "" {
		mime = "image/png"
	}
	return g.client.GenerateVideo(ctx, genai.InlineImage{MIME: mime, Data: blob.Data}, prompt)
}

var _ Generator = (*VeoGenerator)(nil)
