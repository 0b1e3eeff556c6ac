// Package genai asks a generative image model to turn a card capture into
// a new background.
//
// Every failure is a *GenerationError whose Message is safe to show to the
// user as is.
package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Defaults for the hosted model.
const (
	DefaultModel   = "gemini-2.5-flash-image"
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
)

// Image is a generated raster.
type Image struct {
	MIME string
	Data []byte
}

// DataURL encodes the image as a base64 "data:" URL.
func (img Image) DataURL() string {
	return "data:" + img.MIME + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

// Editor produces a new background from the current capture and a prompt.
type Editor interface {
	EditImage(ctx context.Context, png []byte, prompt string, width, height int) (Image, error)
}

// GenerationError is a rejected, blocked or empty generation.
type GenerationError struct {
	Message string
	Err     error
}

func (e *GenerationError) Error() string { return e.Message }

func (e *GenerationError) Unwrap() error { return e.Err }

// IsGenerationError reports whether err is a GenerationError.
func IsGenerationError(err error) bool {
	var ge *GenerationError
	return errors.As(err, &ge)
}

func genErr(err error, format string, args ...any) *GenerationError {
	return &GenerationError{Message: fmt.Sprintf(format, args...), Err: err}
}

// aspectRatios are the ratios the model accepts, in preference order for ties.
var aspectRatios = []struct {
	id    string
	value float64
}{
	{"1:1", 1},
	{"3:4", 3.0 / 4},
	{"4:3", 4.0 / 3},
	{"9:16", 9.0 / 16},
	{"16:9", 16.0 / 9},
}

// ClosestAspectRatio snaps width/height to the nearest supported ratio.
func ClosestAspectRatio(width, height int) string {
	if width <= 0 || height <= 0 {
		return aspectRatios[0].id
	}
	target := float64(width) / float64(height)
	best := aspectRatios[0]
	for _, r := range aspectRatios[1:] {
		if math.Abs(r.value-target) < math.Abs(best.value-target) {
			best = r
		}
	}
	return best.id
}

// Prompt wraps the user's description in the background-generation
// instructions.
func Prompt(description, aspectRatio string) string {
	return fmt.Sprintf("Generate a high-quality abstract background image based on this design and the description: \"%s\".\n"+
		"The style should be artistic and suitable for a card background.\n"+
		"Maintain the aspect ratio %s.", description, aspectRatio)
}

// Client calls the generateContent REST endpoint.
type Client struct {
	apiKey  string
	model   string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// Options configure a Client.
type Options struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
	// RPS bounds outgoing requests per second. Zero means unlimited.
	RPS    float64
	Logger *slog.Logger
}

// New creates a Client.
func New(opts Options) *Client {
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	limit := rate.Inf
	if opts.RPS > 0 {
		limit = rate.Limit(opts.RPS)
	}
	return &Client{
		apiKey:  opts.APIKey,
		model:   opts.Model,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    &http.Client{Timeout: opts.Timeout},
		limiter: rate.NewLimiter(limit, 1),
		logger:  opts.Logger,
	}
}

// ── Wire types ──

type inlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type contentBlock struct {
	Parts []part `json:"parts"`
}

type imageConfig struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
}

type generationConfig struct {
	ResponseModalities []string     `json:"responseModalities,omitempty"`
	ImageConfig        *imageConfig `json:"imageConfig,omitempty"`
}

type generateRequest struct {
	Contents         []contentBlock    `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content      *contentBlock `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// EditImage sends the PNG capture with the wrapped prompt and returns the
// first image in the response.
func (c *Client) EditImage(ctx context.Context, png []byte, prompt string, width, height int) (Image, error) {
	if c.apiKey == "" {
		return Image{}, genErr(nil, "Background generation is not configured: set GEMINI_API_KEY.")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return Image{}, genErr(err, "Generation cancelled: %v", err)
	}

	ratio := ClosestAspectRatio(width, height)
	body, err := json.Marshal(generateRequest{
		Contents: []contentBlock{{Parts: []part{
			{Text: Prompt(prompt, ratio)},
			{InlineData: &inlineData{MIMEType: "image/png", Data: base64.StdEncoding.EncodeToString(png)}},
		}}},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"IMAGE"},
			ImageConfig:        &imageConfig{AspectRatio: ratio},
		},
	})
	if err != nil {
		return Image{}, genErr(err, "Failed to build the generation request.")
	}

	url := c.baseURL + "/v1beta/models/" + c.model + ":generateContent"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Image{}, genErr(err, "Failed to build the generation request.")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("generation request failed", "err", err)
		return Image{}, genErr(err, "Could not reach the image service: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return Image{}, genErr(err, "Could not read the image service response.")
	}
	c.logger.Info("generation finished", "status", resp.StatusCode, "aspect", ratio, "elapsed", time.Since(start))

	if resp.StatusCode == http.StatusBadRequest {
		c.logger.Warn("generation rejected", "detail", statusMessage(resp.StatusCode, raw))
		return Image{}, genErr(nil,
			"Request failed (400). The image or aspect ratio might not be supported. Try using a standard size like Square or Story.")
	}
	if resp.StatusCode != http.StatusOK {
		return Image{}, genErr(nil, "%s", statusMessage(resp.StatusCode, raw))
	}

	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return Image{}, genErr(err, "The image service returned an unreadable response.")
	}
	return extractImage(out)
}

func extractImage(out generateResponse) (Image, error) {
	if len(out.Candidates) == 0 {
		if out.PromptFeedback != nil && out.PromptFeedback.BlockReason != "" {
			return Image{}, genErr(nil, "AI Request blocked: %s", out.PromptFeedback.BlockReason)
		}
		return Image{}, genErr(nil, "AI returned no results. This might be due to safety filters or service load.")
	}

	cand := out.Candidates[0]
	if cand.FinishReason != "" && cand.FinishReason != "STOP" {
		return Image{}, genErr(nil, "Generation stopped due to: %s. Please try a different prompt.", cand.FinishReason)
	}
	if cand.Content == nil || len(cand.Content.Parts) == 0 {
		return Image{}, genErr(nil, "AI returned an empty content part.")
	}

	for _, p := range cand.Content.Parts {
		if p.InlineData == nil || p.InlineData.Data == "" {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
		if err != nil {
			return Image{}, genErr(err, "AI returned malformed image data.")
		}
		mime := p.InlineData.MIMEType
		if mime == "" {
			mime = "image/png"
		}
		return Image{MIME: mime, Data: data}, nil
	}
	return Image{}, genErr(nil, "AI generated a response but it contained no image data.")
}

func statusMessage(code int, raw []byte) string {
	var ae apiError
	if json.Unmarshal(raw, &ae) == nil && ae.Error.Message != "" {
		return fmt.Sprintf("Request failed (%d): %s", code, ae.Error.Message)
	}
	return fmt.Sprintf("Request failed (%d).", code)
}
