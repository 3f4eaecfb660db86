package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	domain "github.com/Teletobimy/landingpage-irunica/internal/domain"
	"github.com/Teletobimy/landingpage-irunica/internal/platform/gemini"
	pstorage "github.com/Teletobimy/landingpage-irunica/internal/platform/storage"
)

// ImageModel renders one image per prompt. *gemini.Client implements it.
type ImageModel interface {
	GenerateImage(ctx context.Context, prompt string) (gemini.Image, error)
}

// ProductImageGeneratorDeps wires the image generator.
type ProductImageGeneratorDeps struct {
	Model ImageModel
	// Stagger is the minimum gap between two dispatches. Zero dispatches all at once.
	Stagger       time.Duration
	FallbackImage string
	Logger        func(ctx context.Context, event string, fields map[string]any)
}

// ProductImageGenerator renders the product image set for a lead.
type ProductImageGenerator struct {
	model    ImageModel
	stagger  time.Duration
	fallback string
	logger   func(context.Context, string, map[string]any)
}

// NewProductImageGenerator constructs the generator.
func NewProductImageGenerator(deps ProductImageGeneratorDeps) (*ProductImageGenerator, error) {
	if deps.Model == nil {
		return nil, errors.New("product image generator: model is required")
	}
	if deps.Stagger < 0 {
		return nil, errors.New("product image generator: stagger must not be negative")
	}
	fallback := strings.TrimSpace(deps.FallbackImage)
	if fallback == "" {
		fallback = domain.DefaultFallbackImage
	}
	return &ProductImageGenerator{
		model:    deps.Model,
		stagger:  deps.Stagger,
		fallback: fallback,
		logger:   loggerOrNop(deps.Logger),
	}, nil
}

// Generate renders one prompt as a data URL. It reports false on any failure.
func (g *ProductImageGenerator) Generate(ctx context.Context, prompt string) (string, bool) {
	image, err := g.model.GenerateImage(ctx, prompt)
	if err != nil {
		g.logger(ctx, "image.generate.failed", map[string]any{"error": err})
		return "", false
	}
	return pstorage.EncodeDataURL(image.MIMEType, image.Data), true
}

// GenerateSet dispatches every prompt, staggered, and waits for all of them. The result keeps the
// prompt order and always has one entry per prompt: failed items point at the fallback image.
func (g *ProductImageGenerator) GenerateSet(ctx context.Context, prompts []domain.ImagePromptSpec) ([]ProductImage, int) {
	results := make([]ProductImage, len(prompts))
	failed := make([]bool, len(prompts))

	limit := rate.Inf
	if g.stagger > 0 {
		limit = rate.Every(g.stagger)
	}
	limiter := rate.NewLimiter(limit, 1)

	var group errgroup.Group
	for i, spec := range prompts {
		results[i] = ProductImage{ID: spec.ID, URL: g.fallback}
		if err := limiter.Wait(ctx); err != nil {
			failed[i] = true
			continue
		}
		group.Go(func() error {
			url, ok := g.Generate(ctx, spec.Prompt)
			if !ok {
				failed[i] = true
				g.logger(ctx, "image.item.fallback", map[string]any{"imageId": spec.ID})
				return nil
			}
			results[i].URL = url
			return nil
		})
	}
	_ = group.Wait()

	failures := 0
	for _, f := range failed {
		if f {
			failures++
		}
	}
	return results, failures
}
