// Package kie is a client for the Kie.ai task API serving Nano Banana image
// jobs and Veo video jobs. Submissions return a task id that is polled until
// it succeeds, fails or the poll budget runs out.
package kie

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"engine/internal/domain"
)

// Options configures a Client.
type Options struct {
	APIKey        string
	BaseURL       string
	ImageModel    string
	VideoModel    string
	HTTPClient    *http.Client
	Logger        *zerolog.Logger
	PollInterval  time.Duration
	MaxPolls      int
	SubmitsPerMin int
}

// Client submits and polls Kie.ai tasks.
type Client struct {
	apiKey       string
	baseURL      string
	imageModel   string
	videoModel   string
	httpClient   *http.Client
	logger       zerolog.Logger
	pollInterval time.Duration
	maxPolls     int
	limiter      *rate.Limiter
}

// ImageRequest describes one Nano Banana job.
type ImageRequest struct {
	Prompt         string
	NegativePrompt string
	ImageURLs      []string
	Resolution     string
	AspectRatio    string
	OutputFormat   string
	NumOutputs     int
}

// VideoRequest describes one Veo job. ImageURLs must be publicly reachable.
type VideoRequest struct {
	Prompt      string
	ImageURLs   []string
	AspectRatio string
}

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type createdTask struct {
	TaskID string `json:"taskId"`
}

type jobRecord struct {
	State      string `json:"state"`
	ResultJSON string `json:"resultJson"`
	FailMsg    string `json:"failMsg"`
}

type veoRecord struct {
	SuccessFlag  int    `json:"successFlag"`
	ErrorMessage string `json:"errorMessage"`
	Response     struct {
		ResultURLs []string `json:"resultUrls"`
	} `json:"response"`
}

type jobInput struct {
	Prompt         string   `json:"prompt"`
	NegativePrompt string   `json:"negative_prompt,omitempty"`
	ImageInput     []string `json:"image_input"`
	OutputFormat   string   `json:"output_format,omitempty"`
	Resolution     string   `json:"resolution,omitempty"`
	AspectRatio    string   `json:"aspect_ratio,omitempty"`
	NumOutputs     int      `json:"num_outputs,omitempty"`
}

type jobPayload struct {
	Model string   `json:"model"`
	Input jobInput `json:"input"`
}

type veoPayload struct {
	Prompt      string   `json:"prompt"`
	ImageURLs   []string `json:"imageUrls,omitempty"`
	Model       string   `json:"model"`
	AspectRatio string   `json:"aspectRatio,omitempty"`
}

// NewClient builds a client, filling defaults for unset options.
func NewClient(opts Options) *Client {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.kie.ai"
	}
	imageModel := opts.ImageModel
	if imageModel == "" {
		imageModel = "google/nano-banana"
	}
	videoModel := opts.VideoModel
	if videoModel == "" {
		videoModel = "veo3_fast"
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("provider", "kie").Logger()
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	maxPolls := opts.MaxPolls
	if maxPolls <= 0 {
		maxPolls = 120
	}
	limit := rate.Inf
	if opts.SubmitsPerMin > 0 {
		limit = rate.Every(time.Minute / time.Duration(opts.SubmitsPerMin))
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
		limiter:      rate.NewLimiter(limit, 1),
	}
}

// GenerateImages runs a Nano Banana job and returns the result URLs.
func (c *Client) GenerateImages(ctx context.Context, req ImageRequest) ([]string, error) {
	if err := c.precheck(req.Prompt); err != nil {
		return nil, err
	}
	refs := req.ImageURLs
	if refs == nil {
		refs = []string{}
	}
	payload := jobPayload{
		Model: c.imageModel,
		Input: jobInput{
			Prompt:         req.Prompt,
			NegativePrompt: req.NegativePrompt,
			ImageInput:     refs,
			OutputFormat:   req.OutputFormat,
			Resolution:     strings.ToUpper(req.Resolution),
			AspectRatio:    req.AspectRatio,
			NumOutputs:     req.NumOutputs,
		},
	}
	c.logger.Info().Str("model", c.imageModel).Int("refs", len(refs)).Msg("kie: creating image task")
	taskID, err := c.submit(ctx, "/api/v1/jobs/createTask", payload)
	if err != nil {
		return nil, err
	}

	var urls []string
	err = c.poll(ctx, "/api/v1/jobs/recordInfo", taskID, func(data json.RawMessage) (bool, error) {
		var rec jobRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return false, fmt.Errorf("kie: %w: decode record: %v", domain.ErrProviderFailure, err)
		}
		switch rec.State {
		case "success":
			var result struct {
				ResultURLs []string `json:"resultUrls"`
			}
			if err := json.Unmarshal([]byte(rec.ResultJSON), &result); err != nil {
				return false, fmt.Errorf("kie: %w: parse resultJson: %v", domain.ErrProviderFailure, err)
			}
			urls = result.ResultURLs
			return true, nil
		case "fail":
			return false, fmt.Errorf("kie: %w: task failed: %s", domain.ErrProviderFailure, rec.FailMsg)
		default:
			return false, nil
		}
	})
	if err != nil {
		return nil, err
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("kie: %w: task %s returned no images", domain.ErrProviderFailure, taskID)
	}
	return urls, nil
}

// GenerateVideo runs a Veo job and returns the first result URL.
func (c *Client) GenerateVideo(ctx context.Context, req VideoRequest) (string, error) {
	if err := c.precheck(req.Prompt); err != nil {
		return "", err
	}
	payload := veoPayload{
		Prompt:      req.Prompt,
		ImageURLs:   req.ImageURLs,
		Model:       c.videoModel,
		AspectRatio: req.AspectRatio,
	}
	c.logger.Info().Str("model", c.videoModel).Int("images", len(req.ImageURLs)).Msg("kie: creating veo task")
	taskID, err := c.submit(ctx, "/api/v1/veo/generate", payload)
	if err != nil {
		return "", err
	}

	var videoURL string
	err = c.poll(ctx, "/api/v1/veo/record-info", taskID, func(data json.RawMessage) (bool, error) {
		var rec veoRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return false, fmt.Errorf("kie: %w: decode record: %v", domain.ErrProviderFailure, err)
		}
		switch rec.SuccessFlag {
		case 0:
			return false, nil
		case 1:
			if len(rec.Response.ResultURLs) == 0 {
				return false, fmt.Errorf("kie: %w: veo task %s returned no video", domain.ErrProviderFailure, taskID)
			}
			videoURL = rec.Response.ResultURLs[0]
			return true, nil
		default:
			return false, fmt.Errorf("kie: %w: veo task failed: %s", domain.ErrProviderFailure, rec.ErrorMessage)
		}
	})
	if err != nil {
		return "", err
	}
	return videoURL, nil
}

func (c *Client) precheck(prompt string) error {
	if c.apiKey == "" {
		return fmt.Errorf("kie: %w: KIE_API_KEY is not set", domain.ErrMissingCredentials)
	}
	if strings.TrimSpace(prompt) == "" {
		return fmt.Errorf("kie: %w", domain.ErrEmptyPrompt)
	}
	return nil
}

func (c *Client) submit(ctx context.Context, path string, payload any) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("kie: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("kie: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	env, status, err := c.call(req)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK || env.Code != http.StatusOK {
		return "", fmt.Errorf("kie: %w: api error %d: %s", domain.ErrProviderFailure, env.Code, env.Msg)
	}
	var created createdTask
	if err := json.Unmarshal(env.Data, &created); err != nil || created.TaskID == "" {
		return "", fmt.Errorf("kie: %w: no taskId returned", domain.ErrProviderFailure)
	}
	c.logger.Debug().Str("task", created.TaskID).Msg("kie: task created")
	return created.TaskID, nil
}

// poll queries path until check reports done or fails. Transport errors and
// non-success envelopes are retried within the poll budget.
func (c *Client) poll(ctx context.Context, path, taskID string, check func(json.RawMessage) (bool, error)) error {
	endpoint := c.baseURL + path + "?taskId=" + url.QueryEscape(taskID)
	for attempt := 1; attempt <= c.maxPolls; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("kie: create poll request: %w", err)
		}
		env, status, err := c.call(req)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn().Err(err).Int("attempt", attempt).Msg("kie: poll failed; retrying")
		case status != http.StatusOK:
			c.logger.Warn().Int("status", status).Int("attempt", attempt).Msg("kie: poll http error; retrying")
		case env.Code != http.StatusOK:
			c.logger.Warn().Int("code", env.Code).Str("msg", env.Msg).Msg("kie: poll api error; retrying")
		default:
			done, err := check(env.Data)
			if err != nil || done {
				return err
			}
		}
		if err := sleep(ctx, c.pollInterval); err != nil {
			return err
		}
	}
	return fmt.Errorf("kie: %w: task %s after %s", domain.ErrGenerationTimeout, taskID, time.Duration(c.maxPolls)*c.pollInterval)
}

func (c *Client) call(req *http.Request) (envelope, int, error) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return envelope{}, 0, fmt.Errorf("kie: %w: %v", domain.ErrProviderFailure, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return envelope{}, resp.StatusCode, fmt.Errorf("kie: read response: %w", err)
	}
	var env envelope
	if resp.StatusCode == http.StatusOK {
		if err := json.Unmarshal(data, &env); err != nil {
			return envelope{}, resp.StatusCode, fmt.Errorf("kie: %w: decode response: %v", domain.ErrProviderFailure, err)
		}
	} else {
		env.Msg = strings.TrimSpace(string(data))
	}
	return env, resp.StatusCode, nil
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
