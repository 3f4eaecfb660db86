package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"google.golang.org/genai"

	"github.com/Teletobimy/landingpage-irunica/internal/platform/config"
)

var (
	// ErrEmptyResponse is returned when the model produced no usable candidate.
	ErrEmptyResponse = errors.New("gemini: empty response")
	// ErrSchemaMismatch is returned when JSON output does not satisfy the requested schema.
	ErrSchemaMismatch = errors.New("gemini: response does not match schema")
	// ErrNoImage is returned when no candidate carries inline image data.
	ErrNoImage = errors.New("gemini: no inline image data")
)

// ContentGenerator is the subset of *genai.Models used by Client.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client wraps text, JSON and image generation against Gemini models.
type Client struct {
	models     ContentGenerator
	textModel  string
	imageModel string
	timeout    time.Duration
}

// New constructs a Client backed by the Gemini API.
func New(ctx context.Context, cfg config.GeminiConfig) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("gemini: api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return NewWithGenerator(client.Models, cfg), nil
}

// NewWithGenerator builds a Client over an arbitrary generator.
func NewWithGenerator(models ContentGenerator, cfg config.GeminiConfig) *Client {
	return &Client{
		models:     models,
		textModel:  cfg.TextModel,
		imageModel: cfg.ImageModel,
		timeout:    cfg.Timeout,
	}
}

// TextOptions tunes free-form text generation.
type TextOptions struct {
	Temperature     *float32
	MaxOutputTokens int32
}

// GenerateText returns the concatenated text parts of the first candidate.
func (c *Client) GenerateText(ctx context.Context, prompt string, opts TextOptions) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	cfg := &genai.GenerateContentConfig{
		Temperature:     opts.Temperature,
		MaxOutputTokens: opts.MaxOutputTokens,
	}
	resp, err := c.models.GenerateContent(ctx, c.textModel, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini: generate text: %w", err)
	}
	text := strings.TrimSpace(firstCandidateText(resp))
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// GenerateJSON requests JSON output, strips code fences, validates it against schema and decodes into out.
func (c *Client) GenerateJSON(ctx context.Context, prompt string, schema []byte, out any) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.models.GenerateContent(ctx, c.textModel, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("gemini: generate json: %w", err)
	}
	raw := StripCodeFence(firstCandidateText(resp))
	if raw == "" {
		return ErrEmptyResponse
	}
	return DecodeJSON([]byte(raw), schema, out)
}

// DecodeJSON validates doc against schema and unmarshals it into out.
func DecodeJSON(doc, schema []byte, out any) error {
	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schema), gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	if !result.Valid() {
		var sb strings.Builder
		for i, e := range result.Errors() {
			if i > 0 {
				sb.WriteString("; ")
			}
			sb.WriteString(e.String())
		}
		return fmt.Errorf("%w: %s", ErrSchemaMismatch, sb.String())
	}
	if err := json.Unmarshal(doc, out); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	return nil
}

// Image is raw inline image output.
type Image struct {
	MIMEType string
	Data     []byte
}

// GenerateImage requests a single image-only candidate and returns the first inline image part.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (Image, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.models.GenerateContent(ctx, c.imageModel, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE"},
		CandidateCount:     1,
	})
	if err != nil {
		return Image{}, fmt.Errorf("gemini: generate image: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return Image{}, ErrNoImage
	}
	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil {
		return Image{}, ErrNoImage
	}
	for _, part := range candidate.Content.Parts {
		if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}
		mimeType := part.InlineData.MIMEType
		if mimeType == "" {
			mimeType = "image/png"
		}
		return Image{MIMEType: mimeType, Data: part.InlineData.Data}, nil
	}
	return Image{}, ErrNoImage
}

// StripCodeFence removes a surrounding ```json or ``` fence from model output.
func StripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if newline := strings.IndexByte(trimmed, '\n'); newline >= 0 {
		if lang := strings.TrimSpace(trimmed[:newline]); !strings.ContainsAny(lang, "{[") {
			trimmed = trimmed[newline+1:]
		}
	} else {
		trimmed = strings.TrimPrefix(trimmed, "json")
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func firstCandidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil && !part.Thought {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}
