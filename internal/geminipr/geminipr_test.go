package geminipr

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEmptyFrame(t *testing.T) {
	c, err := Decode([frameSize]byte{0x80, 0, 0, 0, 0, 0})
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
}

func TestDecodeRejectsMissingFramingBit(t *testing.T) {
	_, err := Decode([frameSize]byte{0x00, 0, 0, 0, 0, 0})
	assert.ErrorIs(t, err, ErrBadFraming)
}

func TestDecodeRejectsStrayHighBit(t *testing.T) {
	_, err := Decode([frameSize]byte{0x80, 0x80, 0, 0, 0, 0})
	assert.ErrorIs(t, err, ErrBadFraming)
}

func TestReaderDecodesSequentialFrames(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0x80, 0, 0, 0, 0, 0, 0x80, 0x7F, 0, 0, 0, 0}))
	c1, err := r.Read(context.Background())
	require.NoError(t, err)
	assert.True(t, c1.IsEmpty())

	c2, err := r.Read(context.Background())
	require.NoError(t, err)
	assert.False(t, c2.IsEmpty())
}
