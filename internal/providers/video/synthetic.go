package video

import (
	"context"
	"fmt"
	"strings"

	"engine/internal/domain"
	"engine/internal/providers/synthetic"
)

// SyntheticGenerator returns placeholder clip bytes.
type SyntheticGenerator struct{}

func NewSyntheticGenerator() *SyntheticGenerator {
	return &SyntheticGenerator{}
}

func (g *SyntheticGenerator) Generate(ctx context.Context, imageRef, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("synthetic: %w", domain.ErrEmptyPrompt)
	}
	seed := synthetic.Seed(imageRef, prompt)
	return synthetic.DataURI("video/mp4", synthetic.VideoPlaceholder(seed, prompt)), nil
}

var _ Generator = (*SyntheticGenerator)(nil)
