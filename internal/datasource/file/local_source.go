// Package file implements the local filesystem source.
package file

import (
	"context"
	"io"
	"os"

	"github.com/rotisserie/eris"
)

// Local opens one file from the local disk.
type Local struct{ path string }

// NewLocal returns a Local source bound to path.
func NewLocal(path string) *Local { return &Local{path: path} }

// Path returns the bound path.
func (l *Local) Path() string { return l.path }

// Open returns the file at the bound path. A context that is already done
// short-circuits without touching the filesystem. Filesystem errors keep
// errors.Is compatibility (e.g. os.ErrNotExist).
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, eris.Wrapf(err, "open %s", l.path)
	}
	adviseSequential(f)
	return f, nil
}
