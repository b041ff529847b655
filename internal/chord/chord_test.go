package chord

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormatRoundTrip(t *testing.T) {
	cases := []string{
		"STKPWHRAO*EUFRPBLGTSDZ",
		"TPHAO",
		"S",
		"-R",
		"R-R",
		"SWRAO",
		"#ST",
		"1",
		"-PB",
		"",
	}

	for _, raw := range cases {
		raw := raw
		t.Run(raw, func(t *testing.T) {
			c, err := Parse(raw)
			require.NoError(t, err)

			short := c.Format(0)
			c2, err := Parse(short)
			require.NoError(t, err)
			assert.Equal(t, c, c2, "round trip via short form %q", short)
		})
	}
}

func TestParseDigits(t *testing.T) {
	c, err := Parse("1")
	require.NoError(t, err)
	want, _ := Parse("#S")
	assert.Equal(t, want, c)
}

func TestParseInvalidKey(t *testing.T) {
	_, err := Parse("Q")
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, InvalidKey, pe.Kind)
}

func TestParseOutOfOrder(t *testing.T) {
	// H (left-bank only, index 6) followed by W (left-bank only, index
	// 5) can never match: W has no later occurrence in canonical order.
	_, err := Parse("HW")
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, InvalidKey, pe.Kind)
}

func TestParseMisplacedDash(t *testing.T) {
	_, err := Parse("-R-B")
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, MisplacedDash, pe.Kind)
}

func TestFormatShortDash(t *testing.T) {
	s, err := Parse("S")
	require.NoError(t, err)
	assert.Equal(t, "S-", s.Format(0))

	r, err := Parse("-R")
	require.NoError(t, err)
	assert.Equal(t, "-R", r.Format(0))
}

func TestFormatFullWidth(t *testing.T) {
	c, err := Parse("S")
	require.NoError(t, err)
	full := c.Format(1)
	assert.Len(t, full, NumKeys)
	assert.Equal(t, byte('S'), full[1])
	assert.Equal(t, byte('_'), full[0])
}
