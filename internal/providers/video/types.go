// Package video adapts image-to-video providers to the shot pipeline.
package video

import "context"

// Generator animates the image at imageRef (a local path or URL) following
// prompt and returns a URL, data URI or local path to the clip.
type Generator interface {
	Generate(ctx context.Context, imageRef, prompt string) (string, error)
}
