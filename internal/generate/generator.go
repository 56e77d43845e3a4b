package generate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Generator produces a design image from a prompt.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Design, error)
}

// Request describes one design to generate.
type Request struct {
	// Prompt is the user's description, before style enhancement.
	Prompt string `json:"prompt"`

	// Style is one of Styles. Empty selects DefaultStyle.
	Style string `json:"style"`

	// Width and Height are the requested pixel dimensions.
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Normalize validates req and fills in the default style.
func (r Request) Normalize() (Request, error) {
	r.Prompt = strings.TrimSpace(r.Prompt)
	if r.Prompt == "" {
		return Request{}, errors.New("prompt is required")
	}
	style, err := NormalizeStyle(r.Style)
	if err != nil {
		return Request{}, err
	}
	r.Style = style
	if r.Width <= 0 || r.Height <= 0 {
		return Request{}, fmt.Errorf("invalid dimensions %dx%d", r.Width, r.Height)
	}
	return r, nil
}

// Key identifies a request for memoization: same prompt, style and size.
func (r Request) Key() string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s\x00%s\x00%dx%d", r.Prompt, r.Style, r.Width, r.Height)))
	return hex.EncodeToString(sum[:])
}

// Design is a generated tattoo design.
type Design struct {
	ID             string    `json:"id"`
	Prompt         string    `json:"prompt"`
	Style          string    `json:"style"`
	EnhancedPrompt string    `json:"enhanced_prompt"`
	Width          int       `json:"width"`
	Height         int       `json:"height"`
	Seed           int64     `json:"seed"`
	CreatedAt      time.Time `json:"created_at"`

	// Image holds the encoded image bytes exactly as the provider returned them.
	Image    []byte `json:"-"`
	MimeType string `json:"mime_type"`
}

// GenerationError reports a failed call to the image provider.
type GenerationError struct {
	// StatusCode is the provider's HTTP status, or 0 when no response arrived.
	StatusCode int

	// Message is the provider's error text.
	Message string

	// Err is the underlying transport error, if any.
	Err error
}

func (e *GenerationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("generation failed: status %d: %s", e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("generation failed: %s: %v", e.Message, e.Err)
	}
	return "generation failed: " + e.Message
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// retryable reports whether another attempt could succeed. Transport
// errors, including a per-attempt client timeout, are retryable; the caller
// checks its own context separately.
func (e *GenerationError) retryable() bool {
	if e.StatusCode == 0 {
		return e.Err != nil
	}
	return e.StatusCode == 429 || e.StatusCode >= 500
}
