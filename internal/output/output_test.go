package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufferSinkAppendsAndRetracts(t *testing.T) {
	s := NewBufferSink()
	s.Write([]byte(" Batata"))
	assert.Equal(t, " Batata", s.String())

	s.Write([]byte{RetractByte, RetractByte})
	assert.Equal(t, " Bata", s.String())
}

func TestBufferSinkRetractOnEmptyIsNoop(t *testing.T) {
	s := NewBufferSink()
	s.Write([]byte{RetractByte})
	assert.Equal(t, "", s.String())
}

func TestStdoutSinkFlushesEachWrite(t *testing.T) {
	var buf bytes.Buffer
	s := NewStdoutSink(&buf)
	n, err := s.Write([]byte("hello"))
	assert.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", buf.String())
}
