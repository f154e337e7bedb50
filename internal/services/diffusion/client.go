package diffusion

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"strings"
	"time"

	// Responses may carry JPEG payloads when the server is configured for it.
	_ "image/jpeg"

	"mediaflow/internal/config"
)

const (
	txt2imgPath        = "/sdapi/v1/txt2img"
	img2imgPath        = "/sdapi/v1/img2img"
	defaultHTTPTimeout = 300 * time.Second
	maxErrorSnippet    = 300
)

// Config captures the server location and generation defaults.
type Config struct {
	BaseURL        string
	Steps          int
	CFGScale       float64
	Width          int
	Height         int
	Sampler        string
	NegativePrompt string
	TimeoutSeconds int
}

// ConfigFrom maps the application configuration onto a client Config.
func ConfigFrom(cfg *config.Config) Config {
	if cfg == nil {
		return Config{}
	}
	d := cfg.Diffusion
	return Config{
		BaseURL:        d.BaseURL,
		Steps:          d.Steps,
		CFGScale:       d.CFGScale,
		Width:          d.Width,
		Height:         d.Height,
		Sampler:        d.Sampler,
		NegativePrompt: d.NegativePrompt,
		TimeoutSeconds: d.TimeoutSeconds,
	}
}

// Request describes one generation. Zero values fall back to the client
// configuration.
type Request struct {
	Prompt         string
	NegativePrompt string
	Steps          int
	CFGScale       float64
	Width          int
	Height         int
	Seed           int64
}

// Client talks to a WebUI instance.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a diffusion client.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	c := &Client{cfg: cfg, httpClient: &http.Client{Timeout: timeout}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the server root the client posts to.
func (c *Client) BaseURL() string {
	return c.cfg.BaseURL
}

type generationPayload struct {
	Prompt            string   `json:"prompt"`
	NegativePrompt    string   `json:"negative_prompt,omitempty"`
	Steps             int      `json:"steps"`
	CFGScale          float64  `json:"cfg_scale"`
	Width             int      `json:"width"`
	Height            int      `json:"height"`
	SamplerName       string   `json:"sampler_name,omitempty"`
	Seed              int64    `json:"seed"`
	InitImages        []string `json:"init_images,omitempty"`
	DenoisingStrength float64  `json:"denoising_strength,omitempty"`
}

type generationResponse struct {
	Images []string `json:"images"`
}

// TextToImage generates an image from a prompt.
func (c *Client) TextToImage(ctx context.Context, req Request) (image.Image, error) {
	payload, err := c.payload(req)
	if err != nil {
		return nil, err
	}
	return c.generate(ctx, txt2imgPath, payload)
}

// ImageToImage reworks init according to the prompt. Strength in (0, 1]
// controls how far the result may drift from init.
func (c *Client) ImageToImage(ctx context.Context, req Request, init image.Image, strength float64) (image.Image, error) {
	if init == nil {
		return nil, errors.New("diffusion img2img: init image required")
	}
	if strength <= 0 || strength > 1 {
		return nil, fmt.Errorf("diffusion img2img: strength %v outside (0, 1]", strength)
	}
	payload, err := c.payload(req)
	if err != nil {
		return nil, err
	}
	if req.Width == 0 && req.Height == 0 {
		b := init.Bounds()
		payload.Width, payload.Height = b.Dx(), b.Dy()
	}
	encoded, err := EncodeBase64PNG(init)
	if err != nil {
		return nil, err
	}
	payload.InitImages = []string{encoded}
	payload.DenoisingStrength = strength
	return c.generate(ctx, img2imgPath, payload)
}

func (c *Client) payload(req Request) (generationPayload, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return generationPayload{}, errors.New("diffusion: prompt required")
	}
	p := generationPayload{
		Prompt:         prompt,
		NegativePrompt: firstNonEmpty(req.NegativePrompt, c.cfg.NegativePrompt),
		Steps:          firstPositive(req.Steps, c.cfg.Steps),
		CFGScale:       req.CFGScale,
		Width:          firstPositive(req.Width, c.cfg.Width),
		Height:         firstPositive(req.Height, c.cfg.Height),
		SamplerName:    c.cfg.Sampler,
		Seed:           req.Seed,
	}
	if p.CFGScale <= 0 {
		p.CFGScale = c.cfg.CFGScale
	}
	if req.Seed == 0 {
		p.Seed = -1
	}
	return p, nil
}

func (c *Client) generate(ctx context.Context, path string, payload generationPayload) (image.Image, error) {
	if c.cfg.BaseURL == "" {
		return nil, errors.New("diffusion: base url not configured")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("diffusion: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("diffusion: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("diffusion %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("diffusion %s: read response: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("diffusion %s: status %d: %s", path, resp.StatusCode, snippet(data))
	}
	var decoded generationResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("diffusion %s: parse response: %w", path, err)
	}
	if len(decoded.Images) == 0 {
		return nil, fmt.Errorf("diffusion %s: response contained no images", path)
	}
	return DecodeBase64Image(decoded.Images[0])
}

// EncodeBase64PNG renders img as base64 PNG.
func EncodeBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode png: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodeBase64Image decodes a base64 image, tolerating a data URL prefix.
func DecodeBase64Image(value string) (image.Image, error) {
	if idx := strings.Index(value, ";base64,"); idx >= 0 {
		value = value[idx+len(";base64,"):]
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(value))
	if err != nil {
		return nil, fmt.Errorf("decode base64 image: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

func snippet(data []byte) string {
	text := strings.TrimSpace(string(data))
	if len(text) > maxErrorSnippet {
		text = text[:maxErrorSnippet] + "..."
	}
	return text
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
