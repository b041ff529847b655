package dictjson

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/writerslogic/stenod/internal/chord"
	"github.com/writerslogic/stenod/internal/dictionary"
	"github.com/writerslogic/stenod/internal/logging"
)

func TestLoadParsesEntries(t *testing.T) {
	raw := `{"S/T/K": "Cebola", "S": "Batata"}`
	d, err := Load(strings.NewReader(raw), nil)
	require.NoError(t, err)

	c, err := chord.Parse("S")
	require.NoError(t, err)
	node, ok := d.Child(dictionary.RootRef, c)
	require.True(t, ok)

	k, err := chord.Parse("T")
	require.NoError(t, err)
	node, ok = d.Child(node, k)
	require.True(t, ok)

	p, err := chord.Parse("K")
	require.NoError(t, err)
	node, ok = d.Child(node, p)
	require.True(t, ok)
	assert.NotNil(t, d.Value(node))
}

func TestLoadRejectsNonObjectTopLevel(t *testing.T) {
	_, err := Load(strings.NewReader(`["not", "an", "object"]`), nil)
	assert.Error(t, err)
}

func TestLoadRejectsNonStringValue(t *testing.T) {
	_, err := Load(strings.NewReader(`{"S": 5}`), nil)
	assert.Error(t, err)
}

// TestLoadSkipsInvalidDictionaryValue covers the recommended behavior of
// skip-and-log: a single entry that fails to parse doesn't abort the file,
// and the entries around it still land in the dictionary.
func TestLoadSkipsInvalidDictionaryValue(t *testing.T) {
	raw := `{"S": "{unterminated", "T": "Trigo"}`
	d, err := Load(strings.NewReader(raw), logging.Default())
	require.NoError(t, err)

	s, err := chord.Parse("S")
	require.NoError(t, err)
	_, ok := d.Child(dictionary.RootRef, s)
	assert.False(t, ok, "entry with a bad value should be skipped, not inserted")

	k, err := chord.Parse("T")
	require.NoError(t, err)
	node, ok := d.Child(dictionary.RootRef, k)
	require.True(t, ok, "a good entry should still be inserted despite a bad sibling")
	assert.NotNil(t, d.Value(node))
}
