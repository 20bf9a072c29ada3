package burn

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareIdentical(t *testing.T) {
	data := randomBytes(t, 10_000)
	for _, buf := range []int{1, 64, 4096, 1 << 16} {
		n, err := Compare(context.Background(), bytes.NewReader(data), bytes.NewReader(bytes.Clone(data)), buf, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(len(data)), n)
	}
}

func TestCompareReportsFirstMismatch(t *testing.T) {
	data := randomBytes(t, 5000)
	tests := []struct {
		name   string
		offset int
	}{
		{"first byte", 0},
		{"inside first chunk", 17},
		{"chunk boundary", 1024},
		{"last byte", 4999},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			corrupted := bytes.Clone(data)
			corrupted[tt.offset] ^= 0xff

			_, err := Compare(context.Background(), bytes.NewReader(data), bytes.NewReader(corrupted), 1024, nil)
			require.Error(t, err)

			var e *Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, KindVerificationFailed, e.Kind)
			assert.Equal(t, int64(tt.offset), e.Offset)
		})
	}
}

func TestCompareIsDeterministic(t *testing.T) {
	data := randomBytes(t, 3000)
	corrupted := bytes.Clone(data)
	corrupted[2222] = ^corrupted[2222]

	var offsets []int64
	for i := 0; i < 3; i++ {
		_, err := Compare(context.Background(), bytes.NewReader(data), bytes.NewReader(corrupted), 512, nil)
		var e *Error
		require.ErrorAs(t, err, &e)
		offsets = append(offsets, e.Offset)
	}
	assert.Equal(t, []int64{2222, 2222, 2222}, offsets)
}

func TestCompareLargerDestination(t *testing.T) {
	data := randomBytes(t, 1000)
	device := append(bytes.Clone(data), make([]byte, 4096)...)

	n, err := Compare(context.Background(), bytes.NewReader(data), bytes.NewReader(device), 300, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), n)
}

func TestCompareShortDestination(t *testing.T) {
	data := randomBytes(t, 1000)

	_, err := Compare(context.Background(), bytes.NewReader(data), bytes.NewReader(data[:600]), 256, nil)
	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, KindVerificationFailed, e.Kind)
	assert.Equal(t, int64(600), e.Offset)
}

func TestCompareCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	data := randomBytes(t, 100)

	_, err := Compare(ctx, bytes.NewReader(data), bytes.NewReader(data), 16, nil)
	assert.True(t, IsKind(err, KindCancelled))
}
