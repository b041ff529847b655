package stenura

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCRC16CheckValue pins the table-driven implementation against the
// standard CRC-16/ARC check value.
func TestCRC16CheckValue(t *testing.T) {
	assert.Equal(t, uint16(0xBB3D), crc16([]byte("123456789")))
}

func TestDecodeEmptyStroke(t *testing.T) {
	got := decodeStroke([4]byte{0xAA, 0xAA, 0xAA, 0xAA})
	assert.True(t, got.IsEmpty())
}

func TestRequestEncodeResponseDecodeRoundTrip(t *testing.T) {
	req := Request{
		Seq:    7,
		Action: ActionReadC,
		P1:     1, P2: 1, P3: 512, P4: 0,
	}
	buf := req.Encode()
	require.Len(t, buf, requestHeaderSize)
	assert.Equal(t, byte(soh), buf[0])
	assert.Equal(t, byte(7), buf[1])

	resp := Response{
		Seq:    7,
		Action: ActionReadC,
		P1:     4,
		P2:     0,
		Data:   []byte{0xAA, 0xAA, 0xAA, 0xAA},
	}
	encoded := encodeResponseForTest(resp)
	decoded, err := DecodeResponse(encoded)
	require.NoError(t, err)
	assert.Equal(t, resp.Seq, decoded.Seq)
	assert.Equal(t, resp.Action, decoded.Action)
	assert.Equal(t, resp.Data, decoded.Data)
}

func TestDecodeResponseRejectsBadCRC(t *testing.T) {
	resp := Response{Seq: 1, Action: ActionDiag}
	encoded := encodeResponseForTest(resp)
	encoded[12] ^= 0xFF // corrupt the CRC
	_, err := DecodeResponse(encoded)
	assert.ErrorIs(t, err, ErrBadCRC)
}

// encodeResponseForTest builds a wire-format response packet the same way
// the device would, since Response has no Encode method of its own (the
// client only ever decodes responses, never constructs them).
func encodeResponseForTest(r Response) []byte {
	dataLen := 0
	if len(r.Data) > 0 {
		dataLen = len(r.Data) + dataCRCSize
	}
	buf := make([]byte, responseHeaderSize+len(r.Data)+dataCRCLen(r.Data))
	buf[0] = soh
	buf[1] = r.Seq
	putU16(buf[2:4], uint16(dataLen))
	putU16(buf[4:6], uint16(r.Action))
	putU16(buf[6:8], r.Err)
	putU16(buf[8:10], r.P1)
	putU16(buf[10:12], r.P2)
	putU16(buf[12:14], crc16(buf[1:12]))
	if len(r.Data) > 0 {
		copy(buf[responseHeaderSize:], r.Data)
		putU16(buf[responseHeaderSize+len(r.Data):], crc16(r.Data))
	}
	return buf
}

func putU16(b []byte, v uint16) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}
