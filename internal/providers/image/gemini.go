package image

import (
	"context"
	"fmt"

	"engine/internal/domain"
	"engine/internal/providers/genai"
	"engine/internal/storage"
)

// LocalResolver maps a reference URL served by this process back to its file.
type LocalResolver func(url string) (string, bool)

// GeminiGenerator renders stills through Gemini generateContent. The reference
// is sent inline; URLs that resolve locally are read from disk instead of
// being downloaded.
type GeminiGenerator struct {
	client  *genai.Client
	fetcher *storage.Fetcher
	local   LocalResolver
}

// NewGeminiGenerator builds the adapter. local may be nil.
func NewGeminiGenerator(client *genai.Client, fetcher *storage.Fetcher, local LocalResolver) *GeminiGenerator {
	return &GeminiGenerator{client: client, fetcher: fetcher, local: local}
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompt, refURL string) (string, error) {
	var ref *genai.InlineImage
	if refURL != "" {
		src := refURL
		if g.local != nil {
			if p, ok := g.local(refURL); ok {
				src = p
			}
		}
		blob, err := g.fetcher.Fetch(ctx, src)
		if err != nil {
			return "", fmt.Errorf("gemini: %w: load reference: %v", domain.ErrProviderFailure, err)
		}
		ref = &genai.InlineImage{MIME: blob.MIME, Data: blob.Data}
	}
	return g.client.GenerateImage(ctx, prompt, ref)
}

var _ Generator = (*GeminiGenerator)(nil)
