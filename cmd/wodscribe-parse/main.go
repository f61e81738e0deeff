package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/claude/wodscribe/internal/config"
	"github.com/claude/wodscribe/internal/ingest"
	"github.com/claude/wodscribe/internal/parse"
	"gopkg.in/yaml.v3"
)

type output struct {
	Workout any                `json:"workout"`
	Lines   []parse.TaggedLine `json:"lines,omitempty"`
}

func main() {
	format := flag.String("format", "json", "output format: json or yaml")
	spans := flag.Bool("spans", false, "include the tagged spans of every line")
	lexiconPath := flag.String("lexicon", "", "lexicon file (default is the built-in lexicon)")
	grouping := flag.String("grouping", "prefix", "group code policy: prefix or none")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: wodscribe-parse [flags] [file]\n\nReads a workout description from file or stdin.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := run(os.Stdout, *format, *spans, *lexiconPath, *grouping, flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "wodscribe-parse: %v\n", err)
		os.Exit(1)
	}
}

func run(w io.Writer, format string, spans bool, lexiconPath, grouping, path string) error {
	parser, err := config.ParserConfig{LexiconPath: lexiconPath, Grouping: grouping}.NewParser()
	if err != nil {
		return err
	}

	in := io.Reader(os.Stdin)
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	text, err := ingest.ReadText(in, parser.MaxInput())
	if err != nil {
		return err
	}

	workout, err := parser.Parse(text)
	if err != nil {
		return err
	}
	out := output{Workout: workout}
	if spans {
		if out.Lines, err = parser.Tag(text); err != nil {
			return err
		}
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case "yaml":
		// Round-trip through JSON so YAML keys match the JSON field names.
		data, err := json.Marshal(out)
		if err != nil {
			return err
		}
		var doc any
		if err := json.Unmarshal(data, &doc); err != nil {
			return err
		}
		return yaml.NewEncoder(w).Encode(doc)
	}
	return fmt.Errorf("unknown format %q (want json or yaml)", format)
}
