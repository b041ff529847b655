// Package chord implements the bit-packed steno chord and its canonical
// string notation (e.g. "STKPWHR-FRPBLGTSDZ").
package chord

import (
	"fmt"
	"strings"
)

// canonicalOrder is the fixed steno key ordering. Index i corresponds to
// bit i of a Chord. Note that R, P and T each appear twice (once on the
// left bank, once on the right) — they are distinct keys at distinct bit
// positions that happen to share a letter.
var canonicalOrder = [...]rune{
	'#',
	'S', 'T', 'K', 'P', 'W', 'H', 'R', 'A', 'O',
	'*',
	'E', 'U', 'F', 'R', 'P', 'B', 'L', 'G', 'T', 'S', 'D', 'Z',
}

// NumKeys is the number of independent key bits in a Chord.
const NumKeys = len(canonicalOrder)

// Bit indices into canonicalOrder, named for the positions that need
// special handling during parse/format.
const (
	bitHash = 0
	bitStar = 10
	// bitRightStart is the first bit of the right bank (E).
	bitRightStart = 11
)

// bitA, bitO are the left-bank vowels; together with star and the
// right-bank vowels (E, U) they form the "middle" of a stroke. A stroke
// with no middle key pressed is ambiguous about where the left bank ends
// and the right bank begins, so it needs a disambiguating '-'.
const (
	bitA = 8
	bitO = 9
	bitE = 11
	bitU = 12
)

// middleMask covers the keys that sit between the left and right banks.
const middleMask = (1 << bitA) | (1 << bitO) | (1 << bitStar) | (1 << bitE) | (1 << bitU)

// digitIndex maps a digit rune to the canonicalOrder index it is a
// synonym for. Every digit also implies the '#' (number bar) bit.
var digitIndex = map[rune]int{
	'1': 1, // S
	'2': 2, // T
	'3': 4, // P (left)
	'4': 6, // H
	'5': 8, // A
	'0': 9, // O
	'6': 13, // F
	'7': 15, // P (right)
	'8': 17, // L
	'9': 19, // T (right)
}

// Chord is a single stroke: a value-equal, hashable set of key bits.
type Chord struct {
	bits uint32
}

// FromBits constructs a Chord directly from a bitmask. Exposed for callers
// (e.g. protocol decoders) that already have the bits in canonical order.
func FromBits(bits uint32) Chord { return Chord{bits: bits & ((1 << NumKeys) - 1)} }

// Bits returns the raw bitmask, canonicalOrder-indexed.
func (c Chord) Bits() uint32 { return c.bits }

// IsEmpty reports whether no keys are pressed.
func (c Chord) IsEmpty() bool { return c.bits == 0 }

// ErrorKind distinguishes the parse failure modes named in the spec.
type ErrorKind int

const (
	_ ErrorKind = iota
	InvalidKey
	MisplacedDash
)

// ParseError reports a parse failure with the offending rune and position.
type ParseError struct {
	Kind  ErrorKind
	Rune  rune
	Index int
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case MisplacedDash:
		return fmt.Sprintf("chord: misplaced dash at position %d", e.Index)
	default:
		return fmt.Sprintf("chord: invalid key %q at position %d", e.Rune, e.Index)
	}
}

// Parse converts a canonical steno string into a Chord.
//
// Algorithm: walk runes left-to-right, tracking a cursor into
// canonicalOrder. Each rune must match a canonicalOrder entry at or after
// the cursor; on a match the corresponding bit is set and the cursor
// advances past it. A literal '-' jumps the cursor to bitRightStart. A
// digit is translated to its letter equivalent (see digitIndex) and
// additionally sets the '#' bit.
func Parse(s string) (Chord, error) {
	var bits uint32
	cursor := 0

	for i, r := range s {
		if r == '-' {
			if cursor > bitRightStart {
				return Chord{}, &ParseError{Kind: MisplacedDash, Rune: r, Index: i}
			}
			cursor = bitRightStart
			continue
		}

		r = toCanonicalCase(r)

		if idx, ok := digitIndex[r]; ok {
			if idx < cursor {
				return Chord{}, &ParseError{Kind: InvalidKey, Rune: r, Index: i}
			}
			bits |= 1 << bitHash
			bits |= 1 << idx
			cursor = idx + 1
			continue
		}

		idx := indexAtOrAfter(r, cursor)
		if idx < 0 {
			return Chord{}, &ParseError{Kind: InvalidKey, Rune: r, Index: i}
		}
		bits |= 1 << idx
		cursor = idx + 1
	}

	return Chord{bits: bits}, nil
}

// indexAtOrAfter returns the smallest canonicalOrder index >= cursor whose
// letter equals r, or -1 if none exists.
func indexAtOrAfter(r rune, cursor int) int {
	for i := cursor; i < NumKeys; i++ {
		if canonicalOrder[i] == r {
			return i
		}
	}
	return -1
}

// toCanonicalCase upper-cases letters; '#' and '*' are unaffected.
func toCanonicalCase(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - ('a' - 'A')
	}
	return r
}

// needsDash reports whether the short-form rendering of bits requires a
// disambiguating '-' at the left/right bank boundary: true whenever the
// stroke is non-empty and has no "middle" key (a vowel or star) pressed,
// since only a middle key otherwise marks where the left bank ends and
// the right bank begins.
func needsDash(bits uint32) bool {
	return bits != 0 && bits&middleMask == 0
}

// Format renders a Chord in canonical order. width == 0 renders the short
// form (only set keys, plus a disambiguating '-' where required). Any
// other width renders the full form: every position emits its letter if
// set, or '_' otherwise, with no disambiguation needed since every
// position is explicit.
func (c Chord) Format(width int) string {
	if width == 0 {
		return c.String()
	}

	var b strings.Builder
	b.Grow(NumKeys)
	for i, r := range canonicalOrder {
		if c.bits&(1<<i) != 0 {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// String renders the short canonical form, e.g. "STKPWHR-FRPBLGTSDZ",
// "S-" or "-R".
func (c Chord) String() string {
	dash := needsDash(c.bits)
	dashEmitted := false

	var b strings.Builder
	for i, r := range canonicalOrder {
		if c.bits&(1<<i) == 0 {
			continue
		}
		if i >= bitRightStart && dash && !dashEmitted {
			b.WriteByte('-')
			dashEmitted = true
		}
		b.WriteRune(r)
	}
	if dash && !dashEmitted {
		// Every set bit was in the left bank: the dash marks that no
		// right-bank key follows.
		b.WriteByte('-')
	}
	return b.String()
}
