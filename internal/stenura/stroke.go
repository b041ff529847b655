package stenura

import "github.com/writerslogic/stenod/internal/chord"

// strokeFrameSize is the width of one packed stroke as reported by the
// device's data channel.
const strokeFrameSize = 4

// byteKeyIndex maps each of the low 6 bits of a stroke byte (bit 5 down to
// bit 0, after XOR-ing the byte against the 0xAA baseline) to the chord.Chord
// key index it represents. Byte 1's 'W' is a duplicate of byte 0's: both
// happen to carry the left-bank W key, so they're OR'd into the same bit
// rather than treated as two independent keys.
//
// This mapping is derived, not transcribed: the device's own description of
// the framing ("top bits marked") doesn't square with its own example frame
// (0xAA 0xAA 0xAA 0xAA decoding to an empty stroke), since 0xAA's low six
// bits are 101010, not all zero. XOR-ing every byte against 0xAA first makes
// that example consistent (0xAA^0xAA = 0, all keys up) and is the only
// scheme found that both satisfies the example and preserves "six key bits
// per byte".
var byteKeyIndex = [strokeFrameSize][6]int{
	{0, 1, 2, 3, 4, 5},     // byte 0, bit5..bit0: #, S, T, K, P, W
	{5, 6, 7, 8, 9, 10},    // byte 1, bit5..bit0: W, H, R, A, O, *
	{11, 12, 13, 14, 15, 16}, // byte 2, bit5..bit0: E, U, F, R, P, B
	{17, 18, 19, 20, 21, 22}, // byte 3, bit5..bit0: L, G, T, S, D, Z
}

// decodeStroke converts one 4-byte packed stroke frame into a Chord.
func decodeStroke(frame [strokeFrameSize]byte) chord.Chord {
	var bits uint32
	for byteIdx, b := range frame {
		keyBits := (b ^ 0xAA) & 0x3F
		for bitPos := 0; bitPos < 6; bitPos++ {
			// bitPos 0 is bit 5 of the byte (the first key named for that
			// byte), bitPos 5 is bit 0 (the last key named).
			if keyBits&(1<<uint(5-bitPos)) != 0 {
				bits |= 1 << uint(byteKeyIndex[byteIdx][bitPos])
			}
		}
	}
	return chord.FromBits(bits)
}

// decodeStrokes splits a run of raw poll data into individual strokes,
// discarding a trailing partial frame (it will arrive complete on the next
// poll).
func decodeStrokes(data []byte) []chord.Chord {
	n := len(data) / strokeFrameSize
	strokes := make([]chord.Chord, 0, n)
	for i := 0; i < n; i++ {
		var frame [strokeFrameSize]byte
		copy(frame[:], data[i*strokeFrameSize:(i+1)*strokeFrameSize])
		strokes = append(strokes, decodeStroke(frame))
	}
	return strokes
}
