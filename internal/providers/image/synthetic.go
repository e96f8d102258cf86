package image

import (
	"context"
	"fmt"
	"strings"

	"engine/internal/domain"
	"engine/internal/providers/synthetic"
)

// SyntheticGenerator renders deterministic PNGs locally.
type SyntheticGenerator struct{}

func NewSyntheticGenerator() *SyntheticGenerator {
	return &SyntheticGenerator{}
}

func (g *SyntheticGenerator) Generate(ctx context.Context, prompt, refURL string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("synthetic: %w", domain.ErrEmptyPrompt)
	}
	return synthetic.DataURI("image/png", synthetic.ImagePNG(512, 512, synthetic.Seed(prompt, refURL))), nil
}

func (g *SyntheticGenerator) GenerateBatch(ctx context.Context, req BatchRequest) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("synthetic: %w", domain.ErrEmptyPrompt)
	}
	variants := max(req.Variants, 1)
	w, h := synthetic.Dimensions(req.AspectRatio)
	w, h = w/4, h/4
	seedBase := strings.Join(req.ReferenceURLs, ",")
	out := make([]string, variants)
	for i := range out {
		seed := synthetic.Seed(req.Prompt, req.NegativePrompt, seedBase, i)
		out[i] = synthetic.DataURI("image/png", synthetic.ImagePNG(w, h, seed))
	}
	return out, nil
}

var (
	_ Generator      = (*SyntheticGenerator)(nil)
	_ BatchGenerator = (*SyntheticGenerator)(nil)
)
