package image

import (
	"context"

	"engine/internal/providers/kie"
)

// KieGenerator renders through Kie.ai Nano Banana. It serves both the single
// still contract and the batch contract.
type KieGenerator struct {
	client *kie.Client
}

func NewKieGenerator(client *kie.Client) *KieGenerator {
	return &KieGenerator{client: client}
}

func (g *KieGenerator) Generate(ctx context.Context, prompt, refURL string) (string, error) {
	var refs []string
	if refURL != "" {
		refs = []string{refURL}
	}
	urls, err := g.client.GenerateImages(ctx, kie.ImageRequest{
		Prompt:     prompt,
		ImageURLs:  refs,
		NumOutputs: 1,
	})
	if err != nil {
		return "", err
	}
	return urls[0], nil
}

func (g *KieGenerator) GenerateBatch(ctx context.Context, req BatchRequest) ([]string, error) {
	return g.client.GenerateImages(ctx, kie.ImageRequest{
		Prompt:         req.Prompt,
		NegativePrompt: req.NegativePrompt,
		ImageURLs:      req.ReferenceURLs,
		Resolution:     req.Resolution,
		AspectRatio:    req.AspectRatio,
		OutputFormat:   req.OutputFormat,
		NumOutputs:     req.Variants,
	})
}

var (
	_ Generator      = (*KieGenerator)(nil)
	_ BatchGenerator = (*KieGenerator)(nil)
)
