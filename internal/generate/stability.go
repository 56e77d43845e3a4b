package generate

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/tattoo-studio/internal/compose"
)

// StabilityConfig configures a StabilityClient.
type StabilityConfig struct {
	APIKey     string
	BaseURL    string        // Default "https://api.stability.ai"
	Engine     string        // Default "stable-diffusion-xl-1024-v1-0"
	CFGScale   float64       // Default 7
	Steps      int           // Default 30
	Timeout    time.Duration // Per attempt. Default 60s
	Retries    int           // Extra attempts after a 429, 5xx or transport error
	RetryDelay time.Duration // Multiplied by the attempt number. Default 2s
}

// StabilityClient generates designs with the Stability AI text-to-image API.
type StabilityClient struct {
	cfg    StabilityConfig
	client *http.Client
	now    func() time.Time
}

// NewStabilityClient creates a client. It fails when no API key is set.
func NewStabilityClient(cfg StabilityConfig) (*StabilityClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("stability API key is not set")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.stability.ai"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Engine == "" {
		cfg.Engine = "stable-diffusion-xl-1024-v1-0"
	}
	if cfg.CFGScale == 0 {
		cfg.CFGScale = 7
	}
	if cfg.Steps == 0 {
		cfg.Steps = 30
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	return &StabilityClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		now:    time.Now,
	}, nil
}

type textPrompt struct {
	Text string `json:"text"`
}

type textToImageRequest struct {
	TextPrompts []textPrompt `json:"text_prompts"`
	CFGScale    float64      `json:"cfg_scale"`
	Height      int          `json:"height"`
	Width       int          `json:"width"`
	Samples     int          `json:"samples"`
	Steps       int          `json:"steps"`
}

type textToImageResponse struct {
	Artifacts []struct {
		Base64       string `json:"base64"`
		Seed         int64  `json:"seed"`
		FinishReason string `json:"finishReason"`
	} `json:"artifacts"`
}

type apiError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// Generate calls the API, retrying rate limits and server errors. The returned
// design's dimensions come from the decoded image, not from the request.
func (c *StabilityClient) Generate(ctx context.Context, req Request) (*Design, error) {
	req, err := req.Normalize()
	if err != nil {
		return nil, err
	}
	enhanced := EnhancePrompt(req.Prompt, req.Style)

	body, err := json.Marshal(textToImageRequest{
		TextPrompts: []textPrompt{{Text: enhanced}},
		CFGScale:    c.cfg.CFGScale,
		Height:      req.Height,
		Width:       req.Width,
		Samples:     1,
		Steps:       c.cfg.Steps,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	var lastErr *GenerationError
	for attempt := 0; attempt <= c.cfg.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, &GenerationError{Message: "cancelled while waiting to retry", Err: ctx.Err()}
			case <-time.After(time.Duration(attempt) * c.cfg.RetryDelay):
			}
		}

		data, seed, genErr := c.call(ctx, body)
		if genErr == nil {
			return c.design(req, enhanced, data, seed)
		}
		lastErr = genErr
		if ctx.Err() != nil || !genErr.retryable() {
			break
		}
	}
	return nil, lastErr
}

func (c *StabilityClient) call(ctx context.Context, body []byte) ([]byte, int64, *GenerationError) {
	url := fmt.Sprintf("%s/v1/generation/%s/text-to-image", c.cfg.BaseURL, c.cfg.Engine)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, 0, &GenerationError{Message: "failed to build request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, 0, &GenerationError{Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, &GenerationError{StatusCode: resp.StatusCode, Message: "failed to read response", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, 0, &GenerationError{StatusCode: resp.StatusCode, Message: errorMessage(payload)}
	}

	var out textToImageResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, 0, &GenerationError{StatusCode: resp.StatusCode, Message: "malformed response", Err: err}
	}
	if len(out.Artifacts) == 0 {
		return nil, 0, &GenerationError{StatusCode: resp.StatusCode, Message: "response contained no images"}
	}
	art := out.Artifacts[0]
	if art.FinishReason != "" && art.FinishReason != "SUCCESS" {
		return nil, 0, &GenerationError{StatusCode: resp.StatusCode, Message: "finish reason " + art.FinishReason}
	}
	data, err := base64.StdEncoding.DecodeString(art.Base64)
	if err != nil {
		return nil, 0, &GenerationError{StatusCode: resp.StatusCode, Message: "invalid base64 image", Err: err}
	}
	return data, art.Seed, nil
}

func (c *StabilityClient) design(req Request, enhanced string, data []byte, seed int64) (*Design, error) {
	img, err := compose.Decode(data)
	if err != nil {
		return nil, &GenerationError{Message: "provider returned an unreadable image", Err: err}
	}
	size := compose.SizeOf(img)
	return &Design{
		ID:             uuid.NewString(),
		Prompt:         req.Prompt,
		Style:          req.Style,
		EnhancedPrompt: enhanced,
		Width:          size.Width,
		Height:         size.Height,
		Seed:           seed,
		CreatedAt:      c.now().UTC(),
		Image:          data,
		MimeType:       http.DetectContentType(data),
	}, nil
}

// errorMessage extracts the message from a Stability error body.
func errorMessage(payload []byte) string {
	var e apiError
	if err := json.Unmarshal(payload, &e); err == nil && e.Message != "" {
		if e.Name != "" {
			return e.Name + ": " + e.Message
		}
		return e.Message
	}
	msg := strings.TrimSpace(string(payload))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
