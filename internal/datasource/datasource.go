// Package datasource defines how the ingestion pipeline obtains raw bytes.
package datasource

import (
	"context"
	"io"
)

// Source opens one readable document.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Location returns the path or URL a Source reads from, or "" when the
// source does not expose one.
func Location(src Source) string {
	switch s := src.(type) {
	case interface{ Path() string }:
		return s.Path()
	case interface{ URL() string }:
		return s.URL()
	}
	return ""
}
