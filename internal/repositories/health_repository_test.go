package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/Teletobimy/landingpage-irunica/internal/domain"
)

func TestDependencyHealthRepositoryAllHealthy(t *testing.T) {
	now := time.Date(2025, time.November, 3, 9, 0, 0, 0, time.UTC)
	repo, err := NewDependencyHealthRepository([]DependencyCheck{
		{Name: "firestore", Critical: true, Check: func(context.Context) error { return nil }},
		{Name: "storage", Check: func(context.Context) error { return nil }},
	}, WithDependencyClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("NewDependencyHealthRepository: %v", err)
	}

	report, err := repo.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if report.Status != domain.HealthStatusOK {
		t.Fatalf("expected ok, got %s", report.Status)
	}
	if len(report.Checks) != 2 {
		t.Fatalf("expected 2 checks, got %d", len(report.Checks))
	}
	if report.Checks["firestore"].CheckedAt != now || report.GeneratedAt != now {
		t.Fatalf("expected injected clock to be used, got %+v", report)
	}
}

func TestDependencyHealthRepositoryNonCriticalFailureDegrades(t *testing.T) {
	repo, err := NewDependencyHealthRepository([]DependencyCheck{
		{Name: "firestore", Critical: true, Check: func(context.Context) error { return nil }},
		{Name: "leads", Check: func(context.Context) error { return errors.New("connection refused") }},
	})
	if err != nil {
		t.Fatalf("NewDependencyHealthRepository: %v", err)
	}

	report, err := repo.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if report.Status != domain.HealthStatusDegraded {
		t.Fatalf("expected degraded, got %s", report.Status)
	}
	leads := report.Checks["leads"]
	if leads.Status != domain.HealthStatusDegraded || leads.Error != "connection refused" {
		t.Fatalf("unexpected leads check %+v", leads)
	}
}

func TestDependencyHealthRepositoryCriticalFailureErrors(t *testing.T) {
	repo, err := NewDependencyHealthRepository([]DependencyCheck{
		{Name: "firestore", Critical: true, Check: func(context.Context) error { return errors.New("unavailable") }},
	})
	if err != nil {
		t.Fatalf("NewDependencyHealthRepository: %v", err)
	}
	report, err := repo.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if report.Status != domain.HealthStatusError {
		t.Fatalf("expected error, got %s", report.Status)
	}
}

func TestDependencyHealthRepositoryTimeout(t *testing.T) {
	repo, err := NewDependencyHealthRepository([]DependencyCheck{
		{
			Name:    "secrets",
			Timeout: 5 * time.Millisecond,
			Check: func(ctx context.Context) error {
				select {
				case <-time.After(200 * time.Millisecond):
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			},
		},
	})
	if err != nil {
		t.Fatalf("NewDependencyHealthRepository: %v", err)
	}

	report, err := repo.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	check := report.Checks["secrets"]
	if report.Status != domain.HealthStatusError || check.Detail != "timeout" {
		t.Fatalf("expected timeout error, got %s / %+v", report.Status, check)
	}
}

func TestDependencyHealthRepositoryAppliesDefaultTimeout(t *testing.T) {
	repo, err := NewDependencyHealthRepository([]DependencyCheck{
		{
			Name: "redis",
			Check: func(ctx context.Context) error {
				select {
				case <-time.After(200 * time.Millisecond):
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			},
		},
	}, WithDependencyTimeout(5*time.Millisecond))
	if err != nil {
		t.Fatalf("NewDependencyHealthRepository: %v", err)
	}

	report, err := repo.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if check := report.Checks["redis"]; check.Detail != "timeout" {
		t.Fatalf("expected configured default timeout to apply, got %+v", check)
	}
}

func TestNewDependencyHealthRepositoryValidatesChecks(t *testing.T) {
	cases := map[string][]DependencyCheck{
		"empty":     nil,
		"no name":   {{Check: func(context.Context) error { return nil }}},
		"no func":   {{Name: "firestore"}},
		"duplicate": {{Name: "a", Check: func(context.Context) error { return nil }}, {Name: "a", Check: func(context.Context) error { return nil }}},
	}
	for name, checks := range cases {
		if _, err := NewDependencyHealthRepository(checks); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}
