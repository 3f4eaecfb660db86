package pagination

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultLimit is used when the client omits limit.
	DefaultLimit = 50
	// DefaultMaxLimit caps limit when Options.MaxLimit is unset.
	DefaultMaxLimit = 200

	maxFilterValueLength = 128
)

// Params carries offset paging values extracted from a request.
type Params struct {
	Limit   int
	Offset  int
	Filters map[string]string
}

// Options control how Parse behaves for a given handler.
type Options struct {
	DefaultLimit int
	MaxLimit     int
	// AllowedFilters lists the query keys copied into Params.Filters.
	AllowedFilters []string
}

var (
	ErrInvalidLimit  = errors.New("pagination: invalid limit")
	ErrInvalidOffset = errors.New("pagination: invalid offset")
)

// FromRequest parses the supported query parameters from the supplied request.
func FromRequest(r *http.Request, opts Options) (Params, error) {
	if r == nil {
		return Params{}, errors.New("pagination: nil request")
	}
	return Parse(r.URL.Query(), opts)
}

// Parse validates limit and offset. Out of range values are rejected rather than clamped.
func Parse(values url.Values, opts Options) (Params, error) {
	if values == nil {
		values = url.Values{}
	}
	limit, err := parseLimit(values.Get("limit"), opts)
	if err != nil {
		return Params{}, err
	}
	offset, err := parseOffset(values.Get("offset"))
	if err != nil {
		return Params{}, err
	}
	params := Params{Limit: limit, Offset: offset}
	for _, key := range opts.AllowedFilters {
		value := sanitizeFilterValue(values.Get(key))
		if value == "" {
			continue
		}
		if params.Filters == nil {
			params.Filters = make(map[string]string, len(opts.AllowedFilters))
		}
		params.Filters[key] = value
	}
	return params, nil
}

// Query renders params back into query values for an upstream call.
func (p Params) Query() url.Values {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(p.Limit))
	query.Set("offset", strconv.Itoa(p.Offset))
	for key, value := range p.Filters {
		query.Set(key, value)
	}
	return query
}

func parseLimit(raw string, opts Options) (int, error) {
	maxLimit := opts.MaxLimit
	if maxLimit <= 0 {
		maxLimit = DefaultMaxLimit
	}
	defaultLimit := opts.DefaultLimit
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	if defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultLimit, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: must be an integer", ErrInvalidLimit)
	}
	if value < 1 || value > maxLimit {
		return 0, fmt.Errorf("%w: must be between 1 and %d", ErrInvalidLimit, maxLimit)
	}
	return value, nil
}

func parseOffset(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: must be an integer", ErrInvalidOffset)
	}
	if value < 0 {
		return 0, fmt.Errorf("%w: must be zero or greater", ErrInvalidOffset)
	}
	return value, nil
}

func sanitizeFilterValue(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	value = strings.Trim(value, "\"'")
	value = strings.ReplaceAll(value, "\n", " ")
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.TrimSpace(value)
	if len(value) > maxFilterValueLength {
		value = value[:maxFilterValueLength]
	}
	return value
}
