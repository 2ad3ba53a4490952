// Package datasource defines where the raw energy table is read from.
package datasource

import (
	"context"
	"io"
)

// Source opens the raw input for reading. The caller closes the reader.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}
