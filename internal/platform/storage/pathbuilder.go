package storage

import (
	"fmt"
	"strings"
)

// AssetPurpose captures high-level intent for storage layout decisions.
type AssetPurpose string

const (
	// PurposeVIPImage is a generated product image belonging to one lead's landing page.
	PurposeVIPImage AssetPurpose = "vip-image"
)

// PathParams provide identifiers to compose storage object keys.
type PathParams struct {
	LeadID    string
	ImageID   string
	Extension string
}

// PathBuilder composes the object path for a given asset purpose.
type PathBuilder func(PathParams) (string, error)

var pathBuilders = map[AssetPurpose]PathBuilder{
	PurposeVIPImage: buildVIPImagePath,
}

// BuildObjectPath resolves the storage object path for the given purpose.
func BuildObjectPath(purpose AssetPurpose, params PathParams) (string, error) {
	builder, ok := pathBuilders[purpose]
	if !ok {
		return "", fmt.Errorf("storage: unsupported asset purpose %q", purpose)
	}
	return builder(params)
}

func buildVIPImagePath(params PathParams) (string, error) {
	leadID, err := validateSegment("leadID", params.LeadID)
	if err != nil {
		return "", err
	}
	imageID, err := validateSegment("imageID", params.ImageID)
	if err != nil {
		return "", err
	}
	ext := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(params.Extension)), ".")
	if ext == "" {
		ext = "png"
	}
	if _, err := validateSegment("extension", ext); err != nil {
		return "", err
	}
	return fmt.Sprintf("vip-images/%s/%s.%s", leadID, imageID, ext), nil
}

func validateSegment(name, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("storage: %s is required", name)
	}
	if strings.ContainsAny(value, "/\\") {
		return "", fmt.Errorf("storage: %s contains invalid path characters", name)
	}
	if strings.Contains(value, "..") {
		return "", fmt.Errorf("storage: %s contains invalid traversal sequence", name)
	}
	return value, nil
}
