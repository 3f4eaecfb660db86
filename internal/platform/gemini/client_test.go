package gemini

import (
	"context"
	"errors"
	"sync"
	"testing"

	"google.golang.org/genai"

	"github.com/Teletobimy/landingpage-irunica/internal/platform/config"
)

type stubGenerator struct {
	mu     sync.Mutex
	calls  []stubCall
	respFn func(model string) (*genai.GenerateContentResponse, error)
}

type stubCall struct {
	model  string
	prompt string
	config *genai.GenerateContentConfig
}

func (s *stubGenerator) GenerateContent(_ context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prompt := ""
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		prompt = contents[0].Parts[0].Text
	}
	s.calls = append(s.calls, stubCall{model: model, prompt: prompt, config: cfg})
	return s.respFn(model)
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

var testConfig = config.GeminiConfig{TextModel: "text-model", ImageModel: "image-model"}

const greetingSchema = `{
  "type": "object",
  "required": ["greeting"],
  "properties": {"greeting": {"type": "string", "minLength": 1}}
}`

func TestGenerateJSONStripsFenceAndValidates(t *testing.T) {
	gen := &stubGenerator{respFn: func(string) (*genai.GenerateContentResponse, error) {
		return textResponse("```json\n{\"greeting\": \"hello\"}\n```"), nil
	}}
	client := NewWithGenerator(gen, testConfig)

	var out struct {
		Greeting string `json:"greeting"`
	}
	if err := client.GenerateJSON(context.Background(), "say hi", []byte(greetingSchema), &out); err != nil {
		t.Fatalf("GenerateJSON: %v", err)
	}
	if out.Greeting != "hello" {
		t.Fatalf("unexpected greeting %q", out.Greeting)
	}
	if len(gen.calls) != 1 {
		t.Fatalf("expected one call, got %d", len(gen.calls))
	}
	call := gen.calls[0]
	if call.model != "text-model" || call.prompt != "say hi" {
		t.Fatalf("unexpected call %+v", call)
	}
	if call.config.ResponseMIMEType != "application/json" {
		t.Fatalf("expected json mime type, got %q", call.config.ResponseMIMEType)
	}
}

func TestGenerateJSONRejectsShapeMismatch(t *testing.T) {
	cases := map[string]string{
		"wrong type":    `{"greeting": 3}`,
		"missing field": `{"other": "x"}`,
		"not json":      `Sure! Here is your JSON`,
		"empty string":  `{"greeting": ""}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			gen := &stubGenerator{respFn: func(string) (*genai.GenerateContentResponse, error) {
				return textResponse(body), nil
			}}
			client := NewWithGenerator(gen, testConfig)
			var out map[string]any
			err := client.GenerateJSON(context.Background(), "p", []byte(greetingSchema), &out)
			if !errors.Is(err, ErrSchemaMismatch) {
				t.Fatalf("expected ErrSchemaMismatch, got %v", err)
			}
		})
	}
}

func TestGenerateJSONEmptyAndTransportErrors(t *testing.T) {
	gen := &stubGenerator{respFn: func(string) (*genai.GenerateContentResponse, error) {
		return &genai.GenerateContentResponse{}, nil
	}}
	client := NewWithGenerator(gen, testConfig)
	var out map[string]any
	if err := client.GenerateJSON(context.Background(), "p", []byte(greetingSchema), &out); !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}

	boom := errors.New("unavailable")
	gen.respFn = func(string) (*genai.GenerateContentResponse, error) { return nil, boom }
	if err := client.GenerateJSON(context.Background(), "p", []byte(greetingSchema), &out); !errors.Is(err, boom) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestGenerateImageReturnsFirstInlinePart(t *testing.T) {
	gen := &stubGenerator{respFn: func(string) (*genai.GenerateContentResponse, error) {
		return &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{
					{Text: "here you go"},
					{InlineData: &genai.Blob{MIMEType: "image/jpeg", Data: []byte{1, 2, 3}}},
					{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte{9}}},
				}},
			}},
		}, nil
	}}
	client := NewWithGenerator(gen, testConfig)

	image, err := client.GenerateImage(context.Background(), "studio shot")
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if image.MIMEType != "image/jpeg" || len(image.Data) != 3 {
		t.Fatalf("unexpected image %+v", image)
	}
	call := gen.calls[0]
	if call.model != "image-model" {
		t.Fatalf("expected image model, got %s", call.model)
	}
	if len(call.config.ResponseModalities) != 1 || call.config.ResponseModalities[0] != "IMAGE" {
		t.Fatalf("expected image-only modality, got %v", call.config.ResponseModalities)
	}
	if call.config.CandidateCount != 1 {
		t.Fatalf("expected single candidate, got %d", call.config.CandidateCount)
	}
}

func TestGenerateImageWithoutInlineData(t *testing.T) {
	gen := &stubGenerator{respFn: func(string) (*genai.GenerateContentResponse, error) {
		return textResponse("I cannot draw that"), nil
	}}
	client := NewWithGenerator(gen, testConfig)
	if _, err := client.GenerateImage(context.Background(), "p"); !errors.Is(err, ErrNoImage) {
		t.Fatalf("expected ErrNoImage, got %v", err)
	}
}

func TestGenerateTextPassesOptions(t *testing.T) {
	gen := &stubGenerator{respFn: func(string) (*genai.GenerateContentResponse, error) {
		return textResponse("  Hola  "), nil
	}}
	client := NewWithGenerator(gen, testConfig)

	text, err := client.GenerateText(context.Background(), "translate", TextOptions{
		Temperature:     genai.Ptr[float32](0.3),
		MaxOutputTokens: 1000,
	})
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if text != "Hola" {
		t.Fatalf("unexpected text %q", text)
	}
	cfg := gen.calls[0].config
	if cfg.Temperature == nil || *cfg.Temperature != 0.3 || cfg.MaxOutputTokens != 1000 {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestStripCodeFence(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}\n```":     `{"a":1}`,
		"```json{\"a\":1}```":     `{"a":1}`,
		"  {\"a\":1}  ":           `{"a":1}`,
	}
	for in, want := range cases {
		if got := StripCodeFence(in); got != want {
			t.Fatalf("StripCodeFence(%q) = %q, want %q", in, got, want)
		}
	}
}
