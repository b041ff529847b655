// stenoctl replays a dictionary file against a list of chord strokes
// through the translator, for offline testing of dictionary entries
// without a Stenura machine attached.
//
//	stenoctl -dict path/to/dict.json STK -P PLT
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/writerslogic/stenod/internal/chord"
	"github.com/writerslogic/stenod/internal/dictionary"
	"github.com/writerslogic/stenod/internal/dictjson"
	"github.com/writerslogic/stenod/internal/output"
	"github.com/writerslogic/stenod/internal/translator"
)

func main() {
	dictPath := flag.String("dict", "", "path to a JSON dictionary file")
	flag.Parse()

	strokes := flag.Args()
	if len(strokes) == 0 {
		fmt.Fprintln(os.Stderr, "usage: stenoctl -dict FILE STROKE [STROKE...]")
		os.Exit(1)
	}

	dict, err := loadDictionary(*dictPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "stenoctl: %v\n", err)
		os.Exit(1)
	}

	w := translator.NewWriter(translator.New(dict))
	sink := output.NewStdoutSink(os.Stdout)

	for _, raw := range strokes {
		c, err := chord.Parse(raw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "stenoctl: %q: %v\n", raw, err)
			os.Exit(1)
		}
		out := w.Stroke(c)
		if _, err := sink.Write([]byte(out)); err != nil {
			fmt.Fprintf(os.Stderr, "stenoctl: write: %v\n", err)
			os.Exit(1)
		}
	}
	fmt.Println()
}

func loadDictionary(path string) (*dictionary.Dictionary, error) {
	if path == "" {
		return dictionary.New(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return dictjson.Load(f, nil)
}
