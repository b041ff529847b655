package translator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/writerslogic/stenod/internal/chord"
	"github.com/writerslogic/stenod/internal/dictionary"
)

func mustInsert(t *testing.T, d *dictionary.Dictionary, path, raw string) {
	t.Helper()
	v, err := dictionary.Parse(raw)
	require.NoError(t, err)
	require.NoError(t, d.Insert(path, v))
}

func mustChord(t *testing.T, s string) chord.Chord {
	t.Helper()
	c, err := chord.Parse(s)
	require.NoError(t, err)
	return c
}

// screen simulates an output sink applying the writer's byte stream: every
// retractByte deletes the character before the cursor, everything else is
// typed.
type screen struct {
	runes []rune
}

func (s *screen) apply(out string) {
	for _, r := range out {
		if r == retractByte {
			if len(s.runes) > 0 {
				s.runes = s.runes[:len(s.runes)-1]
			}
			continue
		}
		s.runes = append(s.runes, r)
	}
}

func (s *screen) String() string { return string(s.runes) }

// TestUndoOverwritesShorterHypothesis reproduces the Batata/Tomate/Cebola
// scenario: S and T are each complete words on their own, S/T/K is a longer
// word overriding both, and a bare * is the undo stroke.
func TestUndoOverwritesShorterHypothesis(t *testing.T) {
	d := dictionary.New()
	mustInsert(t, d, "S", "Batata")
	mustInsert(t, d, "T", "Tomate")
	mustInsert(t, d, "S/T/K", "Cebola")
	mustInsert(t, d, "*", "=undo")

	w := NewWriter(New(d))
	var scr screen
	apply := func(s string) { scr.apply(w.Stroke(mustChord(t, s))) }

	apply("S")
	assert.Equal(t, " Batata", scr.String())

	apply("T")
	assert.Equal(t, " Batata Tomate", scr.String())

	apply("K")
	assert.Equal(t, " Cebola", scr.String())

	apply("*")
	assert.Equal(t, " Batata Tomate", scr.String())

	apply("*")
	assert.Equal(t, " Batata", scr.String())

	apply("*")
	assert.Equal(t, "", scr.String())

	apply("*")
	assert.Equal(t, "", scr.String())
}

// TestUnmatchedChordFallsBackToLiteral covers the no-match fallback (case
// c) and its retraction by an immediately following undo.
func TestUnmatchedChordFallsBackToLiteral(t *testing.T) {
	d := dictionary.New()
	mustInsert(t, d, "*", "=undo")

	w := NewWriter(New(d))
	var scr screen

	scr.apply(w.Stroke(mustChord(t, "S")))
	assert.Equal(t, "S-", scr.String())

	scr.apply(w.Stroke(mustChord(t, "*")))
	assert.Equal(t, "", scr.String())
}

// TestLongerPathBeatsIntermediateNoValue covers a dictionary where the
// first two strokes of a three-stroke entry have no value of their own, and
// a competing single-stroke word is written in between.
func TestLongerPathBeatsIntermediateNoValue(t *testing.T) {
	d := dictionary.New()
	mustInsert(t, d, "H", "Cebola")
	mustInsert(t, d, "K", "Chocolate")
	mustInsert(t, d, "P", "Pimenta")
	mustInsert(t, d, "*", "=undo")
	mustInsert(t, d, "T/P/H", "Tomate")

	w := NewWriter(New(d))
	var scr screen
	apply := func(s string) { scr.apply(w.Stroke(mustChord(t, s))) }

	apply("T")
	assert.Equal(t, "", scr.String())

	apply("P")
	assert.Equal(t, " Pimenta", scr.String())

	apply("H")
	assert.Equal(t, " Tomate", scr.String())
}

// TestGenericUndoEmptiesState exercises the host-level Undo API (distinct
// from the dictionary's own =undo entries): translating N strokes and then
// undoing N times must return possibleBranches to empty.
func TestGenericUndoEmptiesState(t *testing.T) {
	d := dictionary.New()
	mustInsert(t, d, "S/T/K", "Cebola")

	tr := New(d)
	strokes := []string{"S", "T", "K"}
	for _, s := range strokes {
		tr.Translate(mustChord(t, s))
	}
	assert.Equal(t, 1, tr.Depth())

	for range strokes {
		_, ok := tr.Undo()
		require.True(t, ok)
	}
	assert.Equal(t, 0, tr.Depth())
	assert.Equal(t, 0, tr.UndoListLen())

	_, ok := tr.Undo()
	assert.False(t, ok)
}

func TestAttachPrefixSuppressesLeadingSpace(t *testing.T) {
	d := dictionary.New()
	mustInsert(t, d, "S", "hello")
	mustInsert(t, d, "T", "{^ing}")

	w := NewWriter(New(d))
	var scr screen
	scr.apply(w.Stroke(mustChord(t, "S")))
	scr.apply(w.Stroke(mustChord(t, "T")))
	assert.Equal(t, " helloing", scr.String())
}

func TestCapitalizeNextAppliesToFollowingWord(t *testing.T) {
	d := dictionary.New()
	mustInsert(t, d, "S", "{-|}")
	mustInsert(t, d, "T", "world")

	w := NewWriter(New(d))
	var scr screen
	scr.apply(w.Stroke(mustChord(t, "S")))
	scr.apply(w.Stroke(mustChord(t, "T")))
	assert.Equal(t, " World", scr.String())
}
