package burn

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
)

// DefaultVerifyBufferSize is the chunk size of the comparison pass.
const DefaultVerifyBufferSize = 64 * 1024

// Compare reads src and dst side by side and fails with
// KindVerificationFailed at the first difference. It stops when src is
// exhausted; dst may hold more data. rep may be nil.
func Compare(ctx context.Context, src, dst io.Reader, bufSize int, rep *Reporter) (int64, error) {
	if bufSize <= 0 {
		bufSize = DefaultVerifyBufferSize
	}
	if rep == nil {
		rep = NewReporter(PhaseVerifying, 0, 0, nil)
	}
	t := &transfer{buf: make([]byte, 2*bufSize), rep: rep}
	return t.compare(ctx, src, dst)
}

func (t *transfer) compare(ctx context.Context, src, dst io.Reader) (int64, error) {
	half := len(t.buf) / 2
	if half == 0 {
		return 0, wrapError(KindIO, t.dstPath, errors.New("verify buffer has zero length"))
	}
	want, got := t.buf[:half], t.buf[half:]

	var verified int64
	t.rep.Start()
	for {
		if err := ctx.Err(); err != nil {
			return verified, wrapError(KindCancelled, t.dstPath, err)
		}

		n, err := readChunk(src, want)
		if err != nil {
			return verified, classifySource(t.srcPath, err)
		}
		if n == 0 {
			break
		}

		m, err := readChunk(dst, got[:n])
		if err != nil {
			return verified, classifyDevice(t.dstPath, err)
		}
		if m != n {
			e := newError(KindVerificationFailed, t.dstPath)
			e.Offset = verified + int64(m)
			e.Detail = fmt.Sprintf("device returned %d bytes where the image has %d", m, n)
			return verified, e
		}
		if i := firstDiff(want[:n], got[:n]); i >= 0 {
			e := newError(KindVerificationFailed, t.dstPath)
			e.Offset = verified + int64(i)
			e.Detail = fmt.Sprintf("image byte 0x%02x, device byte 0x%02x", want[i], got[i])
			return verified, e
		}

		verified += int64(n)
		t.add(int64(n))
		t.rep.Update(verified)
	}

	t.rep.Finish(verified)
	return verified, nil
}

// readChunk fills p unless the reader ends first. End of stream is not an
// error; a zero count signals it.
func readChunk(r io.Reader, p []byte) (int, error) {
	n, err := io.ReadFull(r, p)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		err = nil
	}
	return n, err
}

func firstDiff(a, b []byte) int {
	if bytes.Equal(a, b) {
		return -1
	}
	for i := range a {
		if a[i] != b[i] {
			return i
		}
	}
	return len(a)
}
