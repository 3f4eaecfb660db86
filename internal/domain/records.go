package domain

import (
	"strings"
	"time"
)

// RateLimitCounter is the per caller, per calendar day generation counter.
type RateLimitCounter struct {
	Key     string
	Count   int
	Allowed bool
}

// VisitorLog is one landing page view.
type VisitorLog struct {
	VIPID     string
	UserAgent string
	Timestamp time.Time
}

// TrendType selects a trend analysis series.
type TrendType string

const (
	TrendCategory TrendType = "category"
	TrendColor    TrendType = "color"
)

// ParseTrendType accepts category or color, case-insensitively.
func ParseTrendType(raw string) (TrendType, bool) {
	switch TrendType(strings.ToLower(strings.TrimSpace(raw))) {
	case TrendCategory:
		return TrendCategory, true
	case TrendColor:
		return TrendColor, true
	default:
		return "", false
	}
}

// DocumentType is the value stored in the trend_analysis "type" field.
func (t TrendType) DocumentType() string {
	return string(t) + "_trends"
}

// TrendReport is the latest analysis document for a trend type.
type TrendReport struct {
	ID        string
	Type      TrendType
	Data      map[string]any
	UpdatedAt time.Time
}

// Brand is one partner brand shown in the portfolio module.
type Brand struct {
	Name        string
	ImageURL    string
	Description string
}

// RateLimitDay formats day as the UTC calendar date used to bucket counters.
func RateLimitDay(day time.Time) string {
	return day.UTC().Format("2006-01-02")
}

// RateLimitKey derives the counter key for a caller on a calendar day. Every
// non-alphanumeric byte of the address is replaced so IPv6 addresses stay key-safe.
func RateLimitKey(callerIP string, day time.Time) string {
	sanitized := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '_'
	}, strings.TrimSpace(callerIP))
	return "limit_" + sanitized + "_" + RateLimitDay(day)
}
