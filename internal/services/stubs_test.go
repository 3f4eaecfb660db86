package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	domain "github.com/Teletobimy/landingpage-irunica/internal/domain"
	"github.com/Teletobimy/landingpage-irunica/internal/platform/gemini"
	pstorage "github.com/Teletobimy/landingpage-irunica/internal/platform/storage"
)

// stubModel answers JSON and image requests the way the Gemini client would, including schema validation.
type stubModel struct {
	mu sync.Mutex

	classificationJSON string
	synergyJSON        string
	jsonErr            error
	failImage          func(prompt string) bool

	classifyCalls int
	textCalls     int
	imageCalls    int
	textPrompts   []string
	imagePrompts  []string
	imageDispatch []time.Time
}

func newStubModel() *stubModel {
	return &stubModel{
		classificationJSON: `{"industry":"spa","country":"kr","companySize":"small","confidence":0.9,"painPoints":["repeat visits"]}`,
		synergyJSON:        `{"headline":"Acme Spa, bottled","description":"Launch your signature serum with Irunica."}`,
	}
}

func (m *stubModel) GenerateJSON(_ context.Context, prompt string, schema []byte, out any) error {
	m.mu.Lock()
	var raw string
	if string(schema) == classificationSchema {
		m.classifyCalls++
		raw = m.classificationJSON
	} else {
		m.textCalls++
		m.textPrompts = append(m.textPrompts, prompt)
		raw = m.synergyJSON
	}
	err := m.jsonErr
	m.mu.Unlock()

	if err != nil {
		return err
	}
	if strings.TrimSpace(raw) == "" {
		return gemini.ErrEmptyResponse
	}
	return gemini.DecodeJSON([]byte(gemini.StripCodeFence(raw)), schema, out)
}

func (m *stubModel) GenerateImage(_ context.Context, prompt string) (gemini.Image, error) {
	m.mu.Lock()
	m.imageCalls++
	m.imagePrompts = append(m.imagePrompts, prompt)
	m.imageDispatch = append(m.imageDispatch, time.Now())
	fail := m.failImage
	m.mu.Unlock()

	if fail != nil && fail(prompt) {
		return gemini.Image{}, gemini.ErrNoImage
	}
	return gemini.Image{MIMEType: "image/png", Data: []byte(prompt)}, nil
}

func (m *stubModel) counts() (classify, text, image int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.classifyCalls, m.textCalls, m.imageCalls
}

type memoryLeadAssets struct {
	mu      sync.Mutex
	records map[string]LeadAssetRecord
	getErr  error
	putErr  error
	puts    int
}

func newMemoryLeadAssets() *memoryLeadAssets {
	return &memoryLeadAssets{records: map[string]LeadAssetRecord{}}
}

func (r *memoryLeadAssets) Get(_ context.Context, leadID string) (*LeadAssetRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	record, ok := r.records[leadID]
	if !ok {
		return nil, nil
	}
	record.ProductImages = cloneImages(record.ProductImages)
	return &record, nil
}

func (r *memoryLeadAssets) Put(_ context.Context, record LeadAssetRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.puts++
	if r.putErr != nil {
		return r.putErr
	}
	record.ProductImages = cloneImages(record.ProductImages)
	r.records[record.LeadID] = record
	return nil
}

func (r *memoryLeadAssets) DeleteUpdatedBefore(context.Context, time.Time) (int, error) {
	return 0, nil
}

func (r *memoryLeadAssets) record(leadID string) (LeadAssetRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[leadID]
	return record, ok
}

// memoryRateLimits mirrors the transactional counter: a full counter is not incremented.
type memoryRateLimits struct {
	mu       sync.Mutex
	counts   map[string]int
	err      error
	consumes int
}

func newMemoryRateLimits() *memoryRateLimits {
	return &memoryRateLimits{counts: map[string]int{}}
}

func (r *memoryRateLimits) Consume(_ context.Context, callerIP string, day time.Time, limit int) (domain.RateLimitCounter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.consumes++
	if r.err != nil {
		return domain.RateLimitCounter{}, r.err
	}
	key := domain.RateLimitKey(callerIP, day)
	if r.counts[key] >= limit {
		return domain.RateLimitCounter{Key: key, Count: r.counts[key], Allowed: false}, nil
	}
	r.counts[key]++
	return domain.RateLimitCounter{Key: key, Count: r.counts[key], Allowed: true}, nil
}

func (r *memoryRateLimits) DeleteBefore(context.Context, time.Time) (int, error) {
	return 0, nil
}

// waitRunner runs tasks on goroutines and lets tests wait for them. With hold set, tasks queue
// until runHeld executes them in submission order.
type waitRunner struct {
	wg     sync.WaitGroup
	mu     sync.Mutex
	names  []string
	errs   []error
	closed bool
	hold   bool
	held   []func(context.Context) error
}

func (r *waitRunner) Go(ctx context.Context, name string, fn func(ctx context.Context) error) (string, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return "", errors.New("runner closed")
	}
	r.names = append(r.names, name)
	if r.hold {
		r.held = append(r.held, fn)
		r.mu.Unlock()
		return fmt.Sprintf("task-%d", len(r.names)), nil
	}
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		if err := fn(context.WithoutCancel(ctx)); err != nil {
			r.mu.Lock()
			r.errs = append(r.errs, err)
			r.mu.Unlock()
		}
	}()
	return fmt.Sprintf("task-%d", len(r.names)), nil
}

func (r *waitRunner) runHeld() []error {
	r.mu.Lock()
	held := r.held
	r.held = nil
	r.mu.Unlock()

	var errs []error
	for _, fn := range held {
		if err := fn(context.Background()); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func (r *waitRunner) wait() []error {
	r.wg.Wait()
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

type stubUploader struct {
	mu      sync.Mutex
	fail    map[string]bool
	uploads []string
}

func (u *stubUploader) UploadImage(_ context.Context, leadID, imageID string, image pstorage.DataURL) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.fail[imageID] {
		return "", errors.New("bucket unavailable")
	}
	u.uploads = append(u.uploads, imageID)
	return fmt.Sprintf("https://storage.googleapis.com/test-bucket/vip-images/%s/%s.%s", leadID, imageID, image.Extension()), nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []AssetsReadyEvent
	err    error
}

func (p *recordingPublisher) PublishAssetsReady(_ context.Context, event AssetsReadyEvent) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	if p.err != nil {
		return "", p.err
	}
	return "msg-1", nil
}

type recordingMetrics struct {
	mu        sync.Mutex
	hits      int
	misses    int
	fallbacks map[string]int
	images    map[string]int
	decisions map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{fallbacks: map[string]int{}, images: map[string]int{}, decisions: map[string]int{}}
}

func (m *recordingMetrics) ObserveAssetLookup(hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if hit {
		m.hits++
	} else {
		m.misses++
	}
}

func (m *recordingMetrics) ObserveFallback(stage string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallbacks[stage]++
}

func (m *recordingMetrics) ObserveImages(outcome string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.images[outcome] += count
}

func (m *recordingMetrics) ObserveRateLimit(decision string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decisions[decision]++
}

type logRecorder struct {
	mu     sync.Mutex
	events []string
}

func (l *logRecorder) log(_ context.Context, event string, _ map[string]any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *logRecorder) has(event string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.events {
		if e == event {
			return true
		}
	}
	return false
}
