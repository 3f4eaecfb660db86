package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	domain "github.com/Teletobimy/landingpage-irunica/internal/domain"
)

func TestClassifyNormalisesOutput(t *testing.T) {
	model := newStubModel()
	model.classificationJSON = "```json\n" + `{"industry":"clinic","country":" us ","companySize":"large","confidence":0.75,"painPoints":[" retention ",""]}` + "\n```"
	now := time.Date(2025, 5, 4, 0, 0, 0, 0, time.UTC)
	classifier, err := NewCompanyClassifier(CompanyClassifierDeps{Model: model, Clock: func() time.Time { return now }})
	if err != nil {
		t.Fatalf("NewCompanyClassifier: %v", err)
	}

	got, ok := classifier.Classify(context.Background(), "Glow Derm")
	if !ok {
		t.Fatalf("expected success")
	}
	if got.Industry != domain.IndustryClinic || got.Country != "US" || got.CompanySize != domain.CompanySizeLarge {
		t.Fatalf("unexpected classification %+v", got)
	}
	if len(got.PainPoints) != 1 || got.PainPoints[0] != "retention" {
		t.Fatalf("unexpected pain points %+v", got.PainPoints)
	}
	if !got.ClassifiedAt.Equal(now) {
		t.Fatalf("expected classifiedAt %s, got %s", now, got.ClassifiedAt)
	}
}

func TestClassifyFallsBackToDefault(t *testing.T) {
	cases := map[string]func(m *stubModel){
		"transport error": func(m *stubModel) { m.jsonErr = errors.New("quota exceeded") },
		"malformed json":  func(m *stubModel) { m.classificationJSON = "not json" },
		"out of range": func(m *stubModel) {
			m.classificationJSON = `{"industry":"spa","country":"KR","companySize":"small","confidence":7,"painPoints":[]}`
		},
		"empty response": func(m *stubModel) { m.classificationJSON = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			model := newStubModel()
			mutate(model)
			logs := &logRecorder{}
			classifier, err := NewCompanyClassifier(CompanyClassifierDeps{Model: model, Logger: logs.log})
			if err != nil {
				t.Fatalf("NewCompanyClassifier: %v", err)
			}
			got, ok := classifier.Classify(context.Background(), "Acme")
			if ok {
				t.Fatalf("expected fallback")
			}
			if got.Industry != domain.IndustryUnknown || got.CompanySize != domain.CompanySizeUnknown || got.Confidence != 0 {
				t.Fatalf("expected default classification, got %+v", got)
			}
			if !logs.has("classification.fallback") {
				t.Fatalf("expected fallback log")
			}
		})
	}
}

func TestClassifyBlankNameSkipsModel(t *testing.T) {
	model := newStubModel()
	classifier, err := NewCompanyClassifier(CompanyClassifierDeps{Model: model})
	if err != nil {
		t.Fatalf("NewCompanyClassifier: %v", err)
	}
	if _, ok := classifier.Classify(context.Background(), "   "); ok {
		t.Fatalf("expected blank name to return the default")
	}
	if calls, _, _ := model.counts(); calls != 0 {
		t.Fatalf("expected no model call, got %d", calls)
	}
}

func TestSynergyPromptIncludesContext(t *testing.T) {
	prompt := synergyPrompt(CopyRequest{
		CompanyName: "Acme Spa",
		Classification: Classification{
			Industry:    domain.IndustrySpa,
			Country:     "KR",
			CompanySize: domain.CompanySizeSmall,
			Confidence:  0.9,
			PainPoints:  []string{"repeat visits"},
		},
		Language:       "ja",
		ResearchReport: "Opened a second branch in Busan.",
	})
	for _, want := range []string{`"Acme Spa"`, "Industry: spa", "Country: KR", "repeat visits", "second branch in Busan", "Japanese"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("expected prompt to contain %q:\n%s", want, prompt)
		}
	}

	bare := synergyPrompt(CopyRequest{CompanyName: "Acme", Classification: domain.DefaultClassification(time.Now())})
	if strings.Contains(bare, "What we know") {
		t.Fatalf("expected uninformative classification to be omitted")
	}
	if !strings.Contains(bare, "English") {
		t.Fatalf("expected default language English")
	}
}

func TestSynergyCopywriterFallback(t *testing.T) {
	model := newStubModel()
	model.synergyJSON = `{"headline":"  ","description":"x"}`
	writer, err := NewSynergyCopywriter(SynergyCopywriterDeps{Model: model})
	if err != nil {
		t.Fatalf("NewSynergyCopywriter: %v", err)
	}
	text, ok := writer.Write(context.Background(), CopyRequest{CompanyName: "Acme"})
	if ok {
		t.Fatalf("expected blank headline to fall back")
	}
	if text.Headline != "Elevate Acme" || text.Description != "Partner with Irunica." {
		t.Fatalf("unexpected fallback %+v", text)
	}

	model.synergyJSON = `{"headline":" Bottled for Acme ","description":" Launch with us. "}`
	text, ok = writer.Write(context.Background(), CopyRequest{CompanyName: "Acme"})
	if !ok || text.Headline != "Bottled for Acme" || text.Description != "Launch with us." {
		t.Fatalf("expected trimmed copy, got %+v %v", text, ok)
	}
}

func TestImagesFutureAwait(t *testing.T) {
	future := newImagesFuture()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := future.Await(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline while pending, got %v", err)
	}

	future.resolve([]ProductImage{{ID: "p1", URL: "/a.jpg"}}, nil)
	future.resolve(nil, errors.New("ignored"))
	images, err := future.Await(context.Background())
	if err != nil || len(images) != 1 {
		t.Fatalf("expected first resolution to win, got %v %v", images, err)
	}
	images[0].URL = "mutated"
	again, _ := future.Await(context.Background())
	if again[0].URL != "/a.jpg" {
		t.Fatalf("expected Await to return copies")
	}

	var nilFuture *ImagesFuture
	if images, err := nilFuture.Await(context.Background()); err != nil || len(images) != 0 {
		t.Fatalf("expected nil future to resolve empty")
	}
}
