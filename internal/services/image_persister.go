package services

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	pstorage "github.com/Teletobimy/landingpage-irunica/internal/platform/storage"
)

// ImageUploader stores one decoded image and returns its public URL. *storage.Uploader implements it.
type ImageUploader interface {
	UploadImage(ctx context.Context, leadID, imageID string, image pstorage.DataURL) (string, error)
}

// PersistStats counts what a persistence pass did.
type PersistStats struct {
	Uploaded int
	Failed   int
	Skipped  int
}

// ImagePersister moves inline images to durable storage.
type ImagePersister struct {
	uploader ImageUploader
	logger   func(context.Context, string, map[string]any)
}

// NewImagePersister constructs the persister.
func NewImagePersister(uploader ImageUploader, logger func(ctx context.Context, event string, fields map[string]any)) (*ImagePersister, error) {
	if uploader == nil {
		return nil, errors.New("image persister: uploader is required")
	}
	return &ImagePersister{uploader: uploader, logger: loggerOrNop(logger)}, nil
}

// Persist uploads every data: URL and rewrites it to the public object URL. Hosted URLs and
// local fallback paths pass through. An image whose upload fails keeps its data: URL.
func (p *ImagePersister) Persist(ctx context.Context, leadID string, images []ProductImage) ([]ProductImage, PersistStats) {
	out := cloneImages(images)
	uploaded := make([]bool, len(out))
	failed := make([]bool, len(out))

	var group errgroup.Group
	for i, image := range out {
		if !pstorage.IsDataURL(image.URL) {
			continue
		}
		group.Go(func() error {
			decoded, err := pstorage.ParseDataURL(image.URL)
			if err != nil {
				failed[i] = true
				p.logger(ctx, "image.persist.failed", map[string]any{"leadId": leadID, "imageId": image.ID, "error": err})
				return nil
			}
			url, err := p.uploader.UploadImage(ctx, leadID, image.ID, decoded)
			if err != nil {
				failed[i] = true
				p.logger(ctx, "image.persist.failed", map[string]any{"leadId": leadID, "imageId": image.ID, "error": err})
				return nil
			}
			out[i].URL = url
			uploaded[i] = true
			return nil
		})
	}
	_ = group.Wait()

	var stats PersistStats
	for i := range out {
		switch {
		case uploaded[i]:
			stats.Uploaded++
		case failed[i]:
			stats.Failed++
		default:
			stats.Skipped++
		}
	}
	return out, stats
}
