package storage

import (
	"encoding/base64"
	"errors"
	"strings"
)

// ErrNotDataURL is returned when a value is not a base64 data: URL.
var ErrNotDataURL = errors.New("storage: not a base64 data url")

// DataURL is a decoded inline image payload.
type DataURL struct {
	MIMEType string
	Data     []byte
}

// IsDataURL reports whether the value carries an inline base64 payload.
func IsDataURL(value string) bool {
	return strings.HasPrefix(strings.TrimSpace(value), "data:")
}

// EncodeDataURL renders raw bytes as a base64 data: URL.
func EncodeDataURL(mimeType string, data []byte) string {
	if strings.TrimSpace(mimeType) == "" {
		mimeType = "image/png"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ParseDataURL decodes data:{mime};base64,{payload}.
func ParseDataURL(value string) (DataURL, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(value), "data:")
	if !ok {
		return DataURL{}, ErrNotDataURL
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return DataURL{}, ErrNotDataURL
	}
	mimeType, ok := strings.CutSuffix(header, ";base64")
	if !ok {
		return DataURL{}, ErrNotDataURL
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return DataURL{}, err
	}
	if mimeType == "" {
		mimeType = "image/png"
	}
	return DataURL{MIMEType: mimeType, Data: data}, nil
}

// Extension derives the object extension from the MIME subtype, e.g. image/jpeg -> jpeg.
func (d DataURL) Extension() string {
	_, subtype, ok := strings.Cut(d.MIMEType, "/")
	if !ok || subtype == "" {
		return "png"
	}
	if idx := strings.IndexAny(subtype, "+;"); idx > 0 {
		subtype = subtype[:idx]
	}
	return strings.ToLower(subtype)
}
