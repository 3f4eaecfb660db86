package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	domain "github.com/Teletobimy/landingpage-irunica/internal/domain"
	"github.com/Teletobimy/landingpage-irunica/internal/platform/gemini"
)

const (
	translationTemperature = float32(0.3)
	translationMaxTokens   = int32(1000)
	translationMaxInput    = 8000
	defaultTranslationTTL  = 24 * time.Hour
)

// ErrTranslationFailed indicates the model call failed or returned no text.
var ErrTranslationFailed = errors.New("translation: no result")

// TextGenerator produces free-form text. *gemini.Client implements it.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string, opts gemini.TextOptions) (string, error)
}

// TranslationServiceDeps wires the translation service.
type TranslationServiceDeps struct {
	Model    TextGenerator
	CacheTTL time.Duration
	Logger   func(ctx context.Context, event string, fields map[string]any)
}

type translationService struct {
	model  TextGenerator
	cache  *gocache.Cache
	logger func(context.Context, string, map[string]any)
}

var _ TranslationService = (*translationService)(nil)

// NewTranslationService constructs the translation service with an in-process result cache.
func NewTranslationService(deps TranslationServiceDeps) (TranslationService, error) {
	if deps.Model == nil {
		return nil, errors.New("translation service: model is required")
	}
	ttl := deps.CacheTTL
	if ttl <= 0 {
		ttl = defaultTranslationTTL
	}
	return &translationService{
		model:  deps.Model,
		cache:  gocache.New(ttl, ttl/2),
		logger: loggerOrNop(deps.Logger),
	}, nil
}

func (s *translationService) Translate(ctx context.Context, cmd TranslateCommand) (string, error) {
	text := strings.TrimSpace(cmd.Text)
	target := strings.TrimSpace(cmd.TargetLang)
	if text == "" || target == "" {
		return "", fmt.Errorf("%w: text and targetLang are required", ErrInvalidInput)
	}
	if len(text) > translationMaxInput {
		return "", fmt.Errorf("%w: text exceeds %d bytes", ErrInvalidInput, translationMaxInput)
	}

	code := domain.LanguageCode(target)
	key := translationKey(code, text)
	if cached, ok := s.cache.Get(key); ok {
		return cached.(string), nil
	}

	temperature := translationTemperature
	out, err := s.model.GenerateText(ctx, translationPrompt(text, domain.LanguageName(code)), gemini.TextOptions{
		Temperature:     &temperature,
		MaxOutputTokens: translationMaxTokens,
	})
	if err != nil {
		s.logger(ctx, "translation.failed", map[string]any{"targetLang": code, "error": err})
		return "", fmt.Errorf("%w: %v", ErrTranslationFailed, err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		s.logger(ctx, "translation.failed", map[string]any{"targetLang": code, "error": "empty output"})
		return "", ErrTranslationFailed
	}
	s.cache.SetDefault(key, out)
	return out, nil
}

func translationKey(lang, text string) string {
	sum := sha256.Sum256([]byte(text))
	return lang + ":" + hex.EncodeToString(sum[:])
}

func translationPrompt(text, language string) string {
	return fmt.Sprintf(`Translate the following Korean beauty trend analysis to %s. Keep it natural and professional. Preserve any brand names or technical terms.

Text to translate:
%s

Respond with ONLY the translated text, no explanations or quotes.`, language, text)
}
