package domain

import "fmt"

const kbeautyBase = "Korean skincare cosmetic product"

// ImageStyle is the per-industry visual direction used to template product prompts.
type ImageStyle struct {
	ProductStyle      string
	Atmosphere        string
	AdditionalContext string
}

// ImagePromptSpec is one templated prompt with its stable image id.
type ImagePromptSpec struct {
	ID     string
	Prompt string
}

var imageStyles = map[Industry]ImageStyle{
	IndustrySpa: {
		ProductStyle:      kbeautyBase + ", frosted glass serum bottle with botanical elements",
		Atmosphere:        "zen spa environment, bamboo accents, soft natural lighting",
		AdditionalContext: "relaxation and wellness skincare theme",
	},
	IndustryClinic: {
		ProductStyle:      kbeautyBase + ", medical-grade dropper serum bottle, clinical precision packaging",
		Atmosphere:        "clean clinical setting, professional lighting, sterile aesthetic",
		AdditionalContext: "dermatologist-approved professional skincare",
	},
	IndustryRetail: {
		ProductStyle:      kbeautyBase + ", trendy colorful skincare package with modern K-beauty design",
		Atmosphere:        "instagrammable flat lay, vibrant colors, lifestyle setting",
		AdditionalContext: "social media ready K-beauty consumer appeal",
	},
	IndustryHotel: {
		ProductStyle:      kbeautyBase + ", luxury skincare amenity bottle with elegant minimalist design",
		Atmosphere:        "5-star hotel bathroom, marble surfaces, premium ambiance",
		AdditionalContext: "hospitality luxury skincare, guest experience",
	},
	IndustryDistributor: {
		ProductStyle:      kbeautyBase + ", premium skincare serum bottle with wholesale presentation",
		Atmosphere:        "professional product showcase, clean backdrop, commercial display",
		AdditionalContext: "B2B skincare presentation, bulk cosmetics packaging",
	},
	IndustryUnknown: {
		ProductStyle:      kbeautyBase + ", premium frosted glass serum bottle with minimalist logo",
		Atmosphere:        "professional studio lighting, clean white background",
		AdditionalContext: "versatile premium K-beauty skincare",
	},
}

// StyleFor returns the visual direction for an industry, falling back to the unknown style.
func StyleFor(industry Industry) ImageStyle {
	if style, ok := imageStyles[industry]; ok {
		return style
	}
	return imageStyles[IndustryUnknown]
}

// BuildImagePrompts returns the five product prompts for a company, in render order.
func BuildImagePrompts(companyName string, industry Industry) []ImagePromptSpec {
	style := StyleFor(industry)
	core := fmt.Sprintf("%s with subtle '%s' branding", style.ProductStyle, companyName)

	return []ImagePromptSpec{
		{
			ID:     ImageStudio,
			Prompt: fmt.Sprintf("Professional studio shot of %s, %s, %s, 8k resolution, product photography", core, style.Atmosphere, style.AdditionalContext),
		},
		{
			ID:     ImageMacro,
			Prompt: fmt.Sprintf("Close-up detail of %s, macro shot, %s, professional cosmetic photography", core, style.Atmosphere),
		},
		{
			ID:     ImageArtistic,
			Prompt: fmt.Sprintf("Artistic composition of %s in %s, luxury K-beauty vibe", core, style.Atmosphere),
		},
		{
			ID:     ImageModel,
			Prompt: fmt.Sprintf("A professional model with flawless skin holding %s, %s, beauty magazine style, %s", core, style.Atmosphere, style.AdditionalContext),
		},
		{
			ID:     ImageLifestyle,
			Prompt: fmt.Sprintf("Luxury skincare lifestyle setting with %s, %s, soft morning light, K-beauty aesthetic", core, style.Atmosphere),
		},
	}
}
