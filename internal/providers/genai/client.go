package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"engine/internal/domain"
)

// Options controls how the Gemini client is configured.
type Options struct {
	APIKey       string
	BaseURL      string
	ImageModel   string
	VideoModel   string
	HTTPClient   *http.Client
	Logger       *zerolog.Logger
	PollInterval time.Duration
	MaxPolls     int
}

// Client talks to the Gemini API: generateContent for stills and the Veo
// predictLongRunning operation for image-to-video.
type Client struct {
	apiKey       string
	baseURL      string
	imageModel   string
	videoModel   string
	httpClient   *http.Client
	logger       zerolog.Logger
	pollInterval time.Duration
	maxPolls     int
}

// InlineImage is image bytes sent alongside a prompt.
type InlineImage struct {
	MIME string
	Data []byte
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts,omitempty"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type geminiGenerationConfig struct {
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

type geminiGenerateContentRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
}

type geminiGenerateContentResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

type geminiError struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

type geminiErrorResponse struct {
	Error geminiError `json:"error"`
}

type veoImage struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	MimeType           string `json:"mimeType"`
}

type veoInstance struct {
	Prompt string    `json:"prompt"`
	Image  *veoImage `json:"image,omitempty"`
}

type veoRequest struct {
	Instances []veoInstance `json:"instances"`
}

type veoOperation struct {
	Name     string       `json:"name"`
	Done     bool         `json:"done"`
	Error    *geminiError `json:"error,omitempty"`
	Response struct {
		GenerateVideoResponse struct {
			GeneratedSamples []struct {
				Video struct {
					URI string `json:"uri"`
				} `json:"video"`
			} `json:"generatedSamples"`
		} `json:"generateVideoResponse"`
	} `json:"response"`
}

// NewClient constructs a Gemini client with defaults for every unset option.
func NewClient(opts Options) *Client {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	imageModel := opts.ImageModel
	if imageModel == "" {
		imageModel = "gemini-2.5-flash-image"
	}
	videoModel := opts.VideoModel
	if videoModel == "" {
		videoModel = "veo-3.1-generate-preview"
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("provider", "gemini").Logger()
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	maxPolls := opts.MaxPolls
	if maxPolls <= 0 {
		maxPolls = 60
	}

	return &Client{
		apiKey:       strings.TrimSpace(opts.APIKey),
		baseURL:      baseURL,
		imageModel:   imageModel,
		videoModel:   videoModel,
		httpClient:   client,
		logger:       logger,
		pollInterval: interval,
		maxPolls:     maxPolls,
	}
}

// ImageModel returns the configured still model identifier.
func (c *Client) ImageModel() string {
	return c.imageModel
}

// GenerateImage returns the first image part of the response as a data URI.
func (c *Client) GenerateImage(ctx context.Context, prompt string, ref *InlineImage) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("gemini: %w: GEMINI_API_KEY is not set", domain.ErrMissingCredentials)
	}
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("gemini: %w", domain.ErrEmptyPrompt)
	}

	parts := []geminiPart{{Text: prompt}}
	if ref != nil && len(ref.Data) > 0 {
		parts = append(parts, geminiPart{InlineData: &geminiInlineData{
			MimeType: ref.MIME,
			Data:     base64.StdEncoding.EncodeToString(ref.Data),
		}})
	}
	payload := geminiGenerateContentRequest{
		Contents:         []geminiContent{{Role: "user", Parts: parts}},
		GenerationConfig: &geminiGenerationConfig{ResponseModalities: []string{"IMAGE"}},
	}

	var response geminiGenerateContentResponse
	path := fmt.Sprintf("/models/%s:generateContent", url.PathEscape(c.imageModel))
	if err := c.do(ctx, http.MethodPost, c.baseURL+path, payload, &response); err != nil {
		return "", err
	}
	if len(response.Candidates) == 0 {
		return "", fmt.Errorf("gemini: %w: no candidates returned", domain.ErrProviderFailure)
	}
	for _, candidate := range response.Candidates {
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && part.InlineData.Data != "" {
				mime := part.InlineData.MimeType
				if mime == "" {
					mime = "image/png"
				}
				return "data:" + mime + ";base64," + part.InlineData.Data, nil
			}
			if part.Text != "" {
				c.logger.Warn().Str("text", truncate(part.Text, 120)).Msg("genai: model answered with text instead of an image")
			}
		}
	}
	return "", fmt.Errorf("gemini: %w: no image data in response", domain.ErrProviderFailure)
}

// GenerateVideo animates image with prompt and returns the clip as a data URI.
func (c *Client) GenerateVideo(ctx context.Context, image InlineImage, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("veo: %w: GEMINI_API_KEY is not set", domain.ErrMissingCredentials)
	}
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("veo: %w", domain.ErrEmptyPrompt)
	}
	if len(image.Data) == 0 {
		return "", fmt.Errorf("veo: %w: source image is required", domain.ErrProviderFailure)
	}

	payload := veoRequest{Instances: []veoInstance{{
		Prompt: prompt,
		Image: &veoImage{
			BytesBase64Encoded: base64.StdEncoding.EncodeToString(image.Data),
			MimeType:           image.MIME,
		},
	}}}
	var op veoOperation
	path := fmt.Sprintf("/models/%s:predictLongRunning", url.PathEscape(c.videoModel))
	if err := c.do(ctx, http.MethodPost, c.baseURL+path, payload, &op); err != nil {
		return "", err
	}
	if op.Name == "" {
		return "", fmt.Errorf("veo: %w: no operation name returned", domain.ErrProviderFailure)
	}
	c.logger.Info().Str("operation", op.Name).Msg("genai: veo job submitted")

	uri, err := c.pollOperation(ctx, op.Name)
	if err != nil {
		return "", err
	}
	data, err := c.download(ctx, uri)
	if err != nil {
		return "", err
	}
	c.logger.Info().Int("bytes", len(data)).Msg("genai: veo video downloaded")
	return "data:video/mp4;base64," + base64.StdEncoding.EncodeToString(data), nil
}

func (c *Client) pollOperation(ctx context.Context, name string) (string, error) {
	endpoint := c.baseURL + "/" + strings.TrimLeft(name, "/")
	for attempt := 1; attempt <= c.maxPolls; attempt++ {
		var op veoOperation
		if err := c.do(ctx, http.MethodGet, endpoint, nil, &op); err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			c.logger.Warn().Err(err).Int("attempt", attempt).Msg("genai: veo poll failed; retrying")
		} else {
			if op.Error != nil && op.Error.Message != "" {
				return "", fmt.Errorf("veo: %w: %s", domain.ErrProviderFailure, op.Error.Message)
			}
			if op.Done {
				samples := op.Response.GenerateVideoResponse.GeneratedSamples
				if len(samples) == 0 || samples[0].Video.URI == "" {
					return "", fmt.Errorf("veo: %w: no video in finished operation", domain.ErrProviderFailure)
				}
				return samples[0].Video.URI, nil
			}
		}
		if err := sleep(ctx, c.pollInterval); err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("veo: %w after %d polls", domain.ErrGenerationTimeout, c.maxPolls)
}

func (c *Client) download(ctx context.Context, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("veo: create download request: %w", err)
	}
	q := req.URL.Query()
	q.Set("key", c.apiKey)
	req.URL.RawQuery = q.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("veo: %w: download: %v", domain.ErrProviderFailure, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("veo: %w: download status %d", domain.ErrProviderFailure, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	q := req.URL.Query()
	q.Set("key", c.apiKey)
	req.URL.RawQuery = q.Encode()
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gemini: %w: %v", domain.ErrProviderFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		var apiErr geminiErrorResponse
		if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("gemini: %w: status %d: %s", domain.ErrProviderFailure, resp.StatusCode, apiErr.Error.Message)
		}
		return fmt.Errorf("gemini: %w: status %d: %s", domain.ErrProviderFailure, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("gemini: %w: decode response: %v", domain.ErrProviderFailure, err)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
