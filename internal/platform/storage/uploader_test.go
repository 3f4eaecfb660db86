package storage

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
)

type recordingSink struct {
	mu     sync.Mutex
	writes []sinkWrite
	err    error
}

type sinkWrite struct {
	bucket string
	object string
	data   []byte
	attrs  ObjectAttrs
}

func (s *recordingSink) Write(_ context.Context, bucket, object string, data []byte, attrs ObjectAttrs) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.writes = append(s.writes, sinkWrite{bucket: bucket, object: object, data: data, attrs: attrs})
	return nil
}

func TestUploaderUploadImage(t *testing.T) {
	sink := &recordingSink{}
	uploader, err := NewUploader(sink, "irunica-assets", "https://storage.googleapis.com/")
	if err != nil {
		t.Fatalf("NewUploader: %v", err)
	}

	image, err := ParseDataURL(EncodeDataURL("image/jpeg", []byte{0xff, 0xd8, 0xff}))
	if err != nil {
		t.Fatalf("ParseDataURL: %v", err)
	}

	publicURL, err := uploader.UploadImage(context.Background(), "lead-1", "p2", image)
	if err != nil {
		t.Fatalf("UploadImage: %v", err)
	}
	if publicURL != "https://storage.googleapis.com/irunica-assets/vip-images/lead-1/p2.jpeg" {
		t.Fatalf("unexpected public url %s", publicURL)
	}
	if len(sink.writes) != 1 {
		t.Fatalf("expected one write, got %d", len(sink.writes))
	}
	w := sink.writes[0]
	if w.bucket != "irunica-assets" || w.object != "vip-images/lead-1/p2.jpeg" {
		t.Fatalf("unexpected target %s/%s", w.bucket, w.object)
	}
	if w.attrs.ContentType != "image/jpeg" {
		t.Fatalf("unexpected content type %s", w.attrs.ContentType)
	}
	if w.attrs.CacheControl != "public, max-age=31536000" || !w.attrs.PublicRead {
		t.Fatalf("expected public long-lived object, got %+v", w.attrs)
	}
	if len(w.data) != 3 {
		t.Fatalf("expected decoded bytes, got %d", len(w.data))
	}
}

func TestUploaderEscapesLeadIDInPublicURL(t *testing.T) {
	sink := &recordingSink{}
	uploader, err := NewUploader(sink, "irunica-assets", "")
	if err != nil {
		t.Fatalf("NewUploader: %v", err)
	}

	got, err := uploader.UploadImage(context.Background(), "Acme Spa #1?x", "p1", DataURL{MIMEType: "image/png", Data: []byte{1}})
	if err != nil {
		t.Fatalf("UploadImage: %v", err)
	}
	want := "https://storage.googleapis.com/irunica-assets/vip-images/Acme%20Spa%20%231%3Fx/p1.png"
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
	parsed, err := url.Parse(got)
	if err != nil {
		t.Fatalf("public url does not parse: %v", err)
	}
	if parsed.RawQuery != "" || parsed.Fragment != "" {
		t.Fatalf("lead id leaked into query or fragment: %+v", parsed)
	}
	if parsed.Path != "/irunica-assets/vip-images/Acme Spa #1?x/p1.png" {
		t.Fatalf("unexpected decoded path %q", parsed.Path)
	}
	if sink.writes[0].object != "vip-images/Acme Spa #1?x/p1.png" {
		t.Fatalf("object name must stay unescaped, got %q", sink.writes[0].object)
	}
}

func TestUploaderPropagatesSinkError(t *testing.T) {
	sink := &recordingSink{err: errors.New("quota")}
	uploader, err := NewUploader(sink, "bucket", "")
	if err != nil {
		t.Fatalf("NewUploader: %v", err)
	}
	if _, err := uploader.UploadImage(context.Background(), "lead", "p1", DataURL{MIMEType: "image/png", Data: []byte{1}}); err == nil {
		t.Fatalf("expected sink error")
	}
}

func TestNewUploaderRequiresBucket(t *testing.T) {
	if _, err := NewUploader(&recordingSink{}, " ", ""); err == nil {
		t.Fatalf("expected bucket error")
	}
}

func TestParseDataURL(t *testing.T) {
	parsed, err := ParseDataURL("data:image/webp;base64,AAEC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed.MIMEType != "image/webp" || parsed.Extension() != "webp" {
		t.Fatalf("unexpected parse %+v", parsed)
	}
	if len(parsed.Data) != 3 {
		t.Fatalf("expected three bytes, got %d", len(parsed.Data))
	}

	if _, err := ParseDataURL("https://example.com/a.png"); !errors.Is(err, ErrNotDataURL) {
		t.Fatalf("expected ErrNotDataURL, got %v", err)
	}
	if _, err := ParseDataURL("data:image/png,plain"); !errors.Is(err, ErrNotDataURL) {
		t.Fatalf("expected non-base64 payload to be rejected, got %v", err)
	}
	if !IsDataURL(" data:image/png;base64,AA==") || IsDataURL("/assets/x.png") {
		t.Fatalf("unexpected IsDataURL result")
	}
	if (DataURL{MIMEType: "image/svg+xml"}).Extension() != "svg" {
		t.Fatalf("expected svg extension")
	}
}
