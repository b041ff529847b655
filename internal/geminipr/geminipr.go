// Package geminipr decodes Gemini PR serial packets into chords. It is a
// decoder only: Gemini PR machines share the chord model with Stenura
// devices, but nothing else in the wire protocol warrants a second client.
package geminipr

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/writerslogic/stenod/internal/chord"
)

// frameSize is the width of one Gemini PR packet.
const frameSize = 6

// ErrBadFraming is returned when a supposed packet doesn't carry the Gemini
// PR framing marker: bit 7 set on byte 0, clear on every other byte.
var ErrBadFraming = errors.New("geminipr: bad packet framing")

// Decode converts a 6-byte Gemini PR frame into a Chord. Each byte carries
// up to 7 key bits in its low 7 bits, packed across the frame in
// canonicalOrder starting from byte 0; byte 0's bit 7 is the framing marker
// rather than a key bit, so its key data occupies only 7 of its 8 bits like
// every other byte.
func Decode(frame [frameSize]byte) (chord.Chord, error) {
	if frame[0]&0x80 == 0 {
		return chord.Chord{}, ErrBadFraming
	}
	for i := 1; i < frameSize; i++ {
		if frame[i]&0x80 != 0 {
			return chord.Chord{}, ErrBadFraming
		}
	}

	var bits uint32
	keyIdx := 0
	for _, b := range frame {
		for bitPos := 6; bitPos >= 0 && keyIdx < chord.NumKeys; bitPos-- {
			if b&(1<<uint(bitPos)) != 0 {
				bits |= 1 << uint(keyIdx)
			}
			keyIdx++
		}
	}
	return chord.FromBits(bits), nil
}

// Reader adapts an io.Reader of raw Gemini PR bytes into the InputSource
// interface the rest of the daemon drives the Stenura session with.
type Reader struct {
	r io.Reader
}

// NewReader wraps r, which must yield Gemini PR frames back to back with no
// interleaved bytes.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Read blocks until one full frame is available and decodes it. ctx
// cancellation does not interrupt an in-flight blocking read on r; callers
// that need that should instead close the underlying file from another
// goroutine to unblock it.
func (d *Reader) Read(ctx context.Context) (chord.Chord, error) {
	if err := ctx.Err(); err != nil {
		return chord.Chord{}, err
	}

	var buf [frameSize]byte
	if _, err := io.ReadFull(d.r, buf[:]); err != nil {
		return chord.Chord{}, fmt.Errorf("geminipr: read frame: %w", err)
	}
	return Decode(buf)
}
