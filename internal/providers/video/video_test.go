package video

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"engine/internal/domain"
	"engine/internal/providers/kie"
)

func TestKieGeneratorPublishesLocalImage(t *testing.T) {
	var sent struct {
		ImageURLs []string `json:"imageUrls"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/veo/generate" {
			_ = json.NewDecoder(r.Body).Decode(&sent)
			_, _ = w.Write([]byte(`{"code":200,"data":{"taskId":"v"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"code":200,"data":{"successFlag":1,"response":{"resultUrls":["https://cdn/c.mp4"]}}}`))
	}))
	defer srv.Close()

	client := kie.NewClient(kie.Options{APIKey: "k", BaseURL: srv.URL, HTTPClient: srv.Client(), PollInterval: time.Millisecond})
	gen := NewKieGenerator(client, func(p string) (string, error) {
		return "https://engine.example/assets/" + p, nil
	})
	got, err := gen.Generate(context.Background(), "videos/v1/image.png", "motion")
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if got != "https://cdn/c.mp4" {
		t.Fatalf("url = %q", got)
	}
	if len(sent.ImageURLs) != 1 || sent.ImageURLs[0] != "https://engine.example/assets/videos/v1/image.png" {
		t.Fatalf("image urls = %v", sent.ImageURLs)
	}
}

func TestKieGeneratorResolverFailure(t *testing.T) {
	gen := NewKieGenerator(kie.NewClient(kie.Options{APIKey: "k"}), func(string) (string, error) {
		return "", errors.New("outside root")
	})
	if _, err := gen.Generate(context.Background(), "/tmp/x.png", "p"); !errors.Is(err, domain.ErrProviderFailure) {
		t.Fatalf("expected ErrProviderFailure, got %v", err)
	}
}

func TestSyntheticGenerator(t *testing.T) {
	g := NewSyntheticGenerator()
	a, err := g.Generate(context.Background(), "img.png", "motion")
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	b, _ := g.Generate(context.Background(), "img.png", "motion")
	if a != b {
		t.Fatalf("expected deterministic output")
	}
	if _, err := g.Generate(context.Background(), "img.png", ""); !errors.Is(err, domain.ErrEmptyPrompt) {
		t.Fatalf("expected ErrEmptyPrompt, got %v", err)
	}
}
