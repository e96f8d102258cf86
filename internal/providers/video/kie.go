package video

import (
	"context"
	"fmt"
	"strings"

	"engine/internal/domain"
	"engine/internal/providers/kie"
)

// URLResolver maps a local file path to a URL the provider can reach.
type URLResolver func(localPath string) (string, error)

// KieGenerator animates stills through Kie.ai Veo. Local image paths are
// turned into public URLs before submission.
type KieGenerator struct {
	client  *kie.Client
	resolve URLResolver
}

func NewKieGenerator(client *kie.Client, resolve URLResolver) *KieGenerator {
	return &KieGenerator{client: client, resolve: resolve}
}

func (g *KieGenerator) Generate(ctx context.Context, imageRef, prompt string) (string, error) {
	var images []string
	if imageRef != "" {
		ref := imageRef
		if !strings.HasPrefix(ref, "http://") && !strings.HasPrefix(ref, "https://") {
			if g.resolve == nil {
				return "", fmt.Errorf("kie: %w: cannot publish local image %s", domain.ErrProviderFailure, imageRef)
			}
			url, err := g.resolve(imageRef)
			if err != nil {
				return "", fmt.Errorf("kie: %w: publish image: %v", domain.ErrProviderFailure, err)
			}
			ref = url
		}
		images = []string{ref}
	}
	return g.client.GenerateVideo(ctx, kie.VideoRequest{Prompt: prompt, ImageURLs: images})
}

var _ Generator = (*KieGenerator)(nil)
