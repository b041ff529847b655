// Package dictjson loads a dictionary from an external collaborator's JSON
// file: a flat object mapping a canonical chord-path string (e.g.
// "S/T/K") to a raw dictionary value string (e.g. "Cebola"). This sits
// outside the translator/trie core; it is the boundary a JSON file crosses
// on its way into a dictionary.Dictionary.
package dictjson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/writerslogic/stenod/internal/dictionary"
	"github.com/writerslogic/stenod/internal/logging"
)

// schemaJSON constrains the raw file to an object of string->string before
// any of it reaches dictionary.Value.Parse, so a malformed file (an array,
// a nested object, a numeric value) is rejected with a precise JSON-Schema
// error pointer rather than an opaque parse failure three layers down.
const schemaJSON = `{
  "type": "object",
  "additionalProperties": {"type": "string"}
}`

var compiledSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("dictionary.schema.json", bytes.NewReader([]byte(schemaJSON))); err != nil {
		panic(fmt.Sprintf("dictjson: invalid bundled schema: %v", err))
	}
	s, err := compiler.Compile("dictionary.schema.json")
	if err != nil {
		panic(fmt.Sprintf("dictjson: compile bundled schema: %v", err))
	}
	return s
}

// Load reads a JSON dictionary file from r, validates its shape against the
// bundled schema, parses every value, and inserts each entry into a fresh
// dictionary.Dictionary. A malformed top-level document (not JSON, not an
// object of strings) is fatal. A single bad entry — a value that fails to
// parse, or a path that is not a valid chord sequence — is logged and
// skipped so one typo in a large file
// doesn't take down the whole dictionary.
func Load(r io.Reader, log *logging.Logger) (*dictionary.Dictionary, error) {
	if log == nil {
		log = logging.Default()
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("dictjson: read: %w", err)
	}

	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return nil, fmt.Errorf("dictjson: invalid json: %w", err)
	}

	if err := compiledSchema.Validate(instance); err != nil {
		return nil, fmt.Errorf("dictjson: schema validation: %w", err)
	}

	entries, ok := instance.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("dictjson: expected a JSON object at the top level")
	}

	d := dictionary.New()
	for path, rawValue := range entries {
		s, ok := rawValue.(string)
		if !ok {
			return nil, fmt.Errorf("dictjson: entry %q: expected a string value", path)
		}
		v, err := dictionary.Parse(s)
		if err != nil {
			log.Warn("dictjson: skipping entry", "path", path, "error", err)
			continue
		}
		if err := d.Insert(path, v); err != nil {
			log.Warn("dictjson: skipping entry", "path", path, "error", err)
			continue
		}
	}
	return d, nil
}
