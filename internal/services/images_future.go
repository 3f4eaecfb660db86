package services

import (
	"context"
	"sync"
)

// ImagesFuture is a one-shot result holder for a lead's product images.
type ImagesFuture struct {
	once   sync.Once
	done   chan struct{}
	images []ProductImage
	err    error
}

func newImagesFuture() *ImagesFuture {
	return &ImagesFuture{done: make(chan struct{})}
}

// ResolvedImages returns a future already completed with images.
func ResolvedImages(images []ProductImage) *ImagesFuture {
	f := newImagesFuture()
	f.resolve(images, nil)
	return f
}

func (f *ImagesFuture) resolve(images []ProductImage, err error) {
	f.once.Do(func() {
		f.images = cloneImages(images)
		f.err = err
		close(f.done)
	})
}

// Done is closed once the images are known.
func (f *ImagesFuture) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the images are known or ctx ends. The returned slice is a copy.
func (f *ImagesFuture) Await(ctx context.Context) ([]ProductImage, error) {
	if f == nil {
		return []ProductImage{}, nil
	}
	select {
	case <-f.done:
		return cloneImages(f.images), f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func cloneImages(images []ProductImage) []ProductImage {
	out := make([]ProductImage, len(images))
	copy(out, images)
	return out
}
