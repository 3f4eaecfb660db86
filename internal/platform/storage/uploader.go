package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	gcs "cloud.google.com/go/storage"
)

const (
	publicCacheControl = "public, max-age=31536000"
	publicReadACL      = "publicRead"
)

var (
	errInvalidBucket = errors.New("storage: bucket name is required")
	errInvalidObject = errors.New("storage: object name is required")
)

// ObjectAttrs describes metadata applied to an uploaded object.
type ObjectAttrs struct {
	ContentType  string
	CacheControl string
	PublicRead   bool
}

// Sink writes object bytes to a backing store.
type Sink interface {
	Write(ctx context.Context, bucket, object string, data []byte, attrs ObjectAttrs) error
}

// GCSSink writes objects to Google Cloud Storage.
type GCSSink struct {
	client *gcs.Client
}

// NewGCSSink wraps a Cloud Storage client.
func NewGCSSink(client *gcs.Client) (*GCSSink, error) {
	if client == nil {
		return nil, errors.New("storage sink: client is required")
	}
	return &GCSSink{client: client}, nil
}

// Write streams data into bucket/object, applying the attributes on the writer.
func (s *GCSSink) Write(ctx context.Context, bucket, object string, data []byte, attrs ObjectAttrs) error {
	w := s.client.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = attrs.ContentType
	w.CacheControl = attrs.CacheControl
	if attrs.PublicRead {
		w.PredefinedACL = publicReadACL
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("storage: write %s/%s: %w", bucket, object, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("storage: finalize %s/%s: %w", bucket, object, err)
	}
	return nil
}

// Uploader persists generated images as public, long-cached objects.
type Uploader struct {
	sink          Sink
	bucket        string
	publicBaseURL string
}

// NewUploader binds a sink to the assets bucket.
func NewUploader(sink Sink, bucket, publicBaseURL string) (*Uploader, error) {
	if sink == nil {
		return nil, errors.New("storage uploader: sink is required")
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errInvalidBucket
	}
	base := strings.TrimRight(strings.TrimSpace(publicBaseURL), "/")
	if base == "" {
		base = "https://storage.googleapis.com"
	}
	return &Uploader{sink: sink, bucket: bucket, publicBaseURL: base}, nil
}

// UploadImage writes an image under vip-images/{leadID}/{imageID}.{ext} and returns its public URL.
func (u *Uploader) UploadImage(ctx context.Context, leadID, imageID string, image DataURL) (string, error) {
	object, err := BuildObjectPath(PurposeVIPImage, PathParams{
		LeadID:    leadID,
		ImageID:   imageID,
		Extension: image.Extension(),
	})
	if err != nil {
		return "", err
	}
	if err := u.sink.Write(ctx, u.bucket, object, image.Data, ObjectAttrs{
		ContentType:  image.MIMEType,
		CacheControl: publicCacheControl,
		PublicRead:   true,
	}); err != nil {
		return "", err
	}
	return u.PublicURL(object)
}

// PublicURL returns the anonymous URL for an object in the assets bucket. Each path
// segment is escaped so ids carrying spaces, # or ? still resolve.
func (u *Uploader) PublicURL(object string) (string, error) {
	object = strings.TrimLeft(strings.TrimSpace(object), "/")
	if object == "" {
		return "", errInvalidObject
	}
	segments := strings.Split(object, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return fmt.Sprintf("%s/%s/%s", u.publicBaseURL, url.PathEscape(u.bucket), strings.Join(segments, "/")), nil
}
