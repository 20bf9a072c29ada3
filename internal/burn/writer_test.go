package burn

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingWriter keeps every write so tests can check chunking.
type recordingWriter struct {
	bytes.Buffer
	sizes  []int
	synced bool
}

func (w *recordingWriter) Write(p []byte) (int, error) {
	w.sizes = append(w.sizes, len(p))
	return w.Buffer.Write(p)
}

func (w *recordingWriter) Sync() error {
	w.synced = true
	return nil
}

type shortWriter struct{}

func (shortWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	return len(p) - 1, nil
}

type failingReader struct{ err error }

func (r failingReader) Read([]byte) (int, error) { return 0, r.err }

func randomBytes(t *testing.T, n int) []byte {
	t.Helper()
	data := make([]byte, n)
	_, err := rand.New(rand.NewSource(int64(n))).Read(data)
	require.NoError(t, err)
	return data
}

func TestCopyChunksThroughBuffer(t *testing.T) {
	src := randomBytes(t, 50)
	dst := &recordingWriter{}

	n, err := Copy(context.Background(), dst, bytes.NewReader(src), 16, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(50), n)
	assert.Equal(t, []int{16, 16, 16, 2}, dst.sizes)
	assert.Equal(t, src, dst.Bytes())
	assert.True(t, dst.synced, "destination must be flushed")
}

func TestCopyLengthsAndBuffers(t *testing.T) {
	for _, size := range []int{0, 1, 15, 16, 17, 4096, 100_003} {
		for _, buf := range []int{1, 7, 16, 4096} {
			t.Run(fmt.Sprintf("len=%d/buf=%d", size, buf), func(t *testing.T) {
				src := randomBytes(t, size)
				dst := &recordingWriter{}

				n, err := Copy(context.Background(), dst, bytes.NewReader(src), buf, nil)
				require.NoError(t, err)
				assert.Equal(t, int64(size), n)
				assert.Equal(t, src, dst.Bytes())
				for _, s := range dst.sizes {
					assert.LessOrEqual(t, s, buf)
				}
			})
		}
	}
}

func TestCopyEmptySourceFinishesAtHundredPercent(t *testing.T) {
	out := make(chan Sample, 1)
	rep := NewReporter(PhaseWriting, 0, 0, out)

	n, err := Copy(context.Background(), &recordingWriter{}, bytes.NewReader(nil), 16, rep)
	require.NoError(t, err)
	assert.Zero(t, n)

	s := <-out
	assert.Equal(t, float64(100), s.Percent)
	assert.Zero(t, s.BytesWritten)
}

func TestCopyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dst := &recordingWriter{}
	n, err := Copy(ctx, dst, bytes.NewReader(randomBytes(t, 64)), 16, nil)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindCancelled))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Zero(t, n)
	assert.Empty(t, dst.sizes)
}

func TestCopyShortWrite(t *testing.T) {
	_, err := Copy(context.Background(), shortWriter{}, bytes.NewReader(randomBytes(t, 32)), 16, nil)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindIO))
	assert.True(t, errors.Is(err, io.ErrShortWrite))
}

func TestCopyReadFailure(t *testing.T) {
	_, err := Copy(context.Background(), &recordingWriter{}, failingReader{err: errors.New("bad sector")}, 16, nil)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindIO))
	assert.Contains(t, err.Error(), "bad sector")
}
