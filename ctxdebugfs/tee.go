package ctxdebugfs

import (
	"context"
	"io"

	"github.com/otofune/reddl/ctxlogger"
)

type teeReadCloser struct {
	io.Reader
	body io.Closer
	copy io.Closer
}

// Close closes the original body first; its error wins over the copy's.
func (r *teeReadCloser) Close() error {
	err := r.body.Close()
	if cerr := r.copy.Close(); err == nil {
		err = cerr
	}
	return err
}

// Tee returns r unchanged when ctx carries no DebugFS. Otherwise everything
// read from the result is also written to the debug file called filename.
func Tee(ctx context.Context, r io.ReadCloser, filename string) io.ReadCloser {
	fs := ExtractDebugFS(ctx)
	if fs == nil {
		return r
	}

	fd, err := fs.Open(filename)
	if err != nil {
		ctxlogger.ExtractLogger(ctx).Warnf("debug copy %s disabled: %v", filename, err)
		return r
	}
	ctxlogger.ExtractLogger(ctx).Debugf("saving debug copy %s", filename)

	return &teeReadCloser{
		Reader: io.TeeReader(r, fd),
		body:   r,
		copy:   fd,
	}
}
