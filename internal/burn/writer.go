package burn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
)

// DefaultCopyBufferSize is the chunk size used to copy the image.
const DefaultCopyBufferSize = 1024 * 1024

// syncer is implemented by destinations that can flush to stable storage.
type syncer interface {
	Sync() error
}

// transfer carries what the copy and compare loops share: the paths used to
// label failures, a buffer owned by one session, the progress reporter and an
// optional live byte counter.
type transfer struct {
	srcPath string
	dstPath string
	buf     []byte
	rep     *Reporter
	counter *atomic.Int64
}

func (t *transfer) add(n int64) int64 {
	if t.counter != nil {
		return t.counter.Add(n)
	}
	return n
}

// Copy writes everything read from src to dst through a buffer of bufSize
// bytes and flushes dst if it supports Sync. rep may be nil. The returned
// error is always an *Error.
func Copy(ctx context.Context, dst io.Writer, src io.Reader, bufSize int, rep *Reporter) (int64, error) {
	if bufSize <= 0 {
		bufSize = DefaultCopyBufferSize
	}
	if rep == nil {
		rep = NewReporter(PhaseWriting, 0, 0, nil)
	}
	t := &transfer{buf: make([]byte, bufSize), rep: rep}
	return t.copy(ctx, dst, src)
}

func (t *transfer) copy(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	if len(t.buf) == 0 {
		return 0, wrapError(KindIO, t.dstPath, errors.New("copy buffer has zero length"))
	}
	var written int64
	t.rep.Start()
	for {
		if err := ctx.Err(); err != nil {
			return written, wrapError(KindCancelled, t.dstPath, err)
		}

		n, rerr := src.Read(t.buf)
		if n > 0 {
			wn, werr := dst.Write(t.buf[:n])
			if werr == nil && wn != n {
				werr = fmt.Errorf("wrote %d of %d bytes at offset %d: %w", wn, n, written, io.ErrShortWrite)
			}
			if werr != nil {
				return written, classifyDevice(t.dstPath, werr)
			}
			written += int64(n)
			t.add(int64(n))
			t.rep.Update(written)
		}

		if errors.Is(rerr, io.EOF) || (n == 0 && rerr == nil) {
			break
		}
		if rerr != nil {
			return written, classifySource(t.srcPath, rerr)
		}
	}

	if s, ok := dst.(syncer); ok {
		if err := s.Sync(); err != nil {
			return written, classifyDevice(t.dstPath, fmt.Errorf("flush: %w", err))
		}
	}

	t.rep.Finish(written)
	return written, nil
}
