package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"veridoc/internal/infra/fingerprint"
)

// runHash fingerprints a file, either raw bytes or a JSON object hashed
// over its canonical form. It needs no service, store, or ledger: a
// holder can recompute a document hash entirely offline.
func runHash(args []string) int {
	fs := flag.NewFlagSet("hash", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var inPath string
	var structured bool
	var outPath string

	fs.StringVar(&inPath, "in", "", "input file path")
	fs.BoolVar(&structured, "structured", false, "treat input as a JSON object and hash its canonical form")
	fs.StringVar(&outPath, "out", "", "output path (default stdout)")

	if err := fs.Parse(args); err != nil {
		return 1
	}
	if inPath == "" {
		fmt.Fprintln(os.Stderr, "hash requires --in")
		return 1
	}

	raw, err := os.ReadFile(inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read input: %v\n", err)
		return 1
	}

	var digest []byte
	if structured {
		var fields map[string]any
		if err := json.Unmarshal(raw, &fields); err != nil {
			fmt.Fprintf(os.Stderr, "decode fields: %v\n", err)
			return 1
		}
		digest, err = fingerprint.HashStructured(fields)
		if err != nil {
			fmt.Fprintf(os.Stderr, "canonicalize fields: %v\n", err)
			return 1
		}
	} else {
		digest = fingerprint.HashBytes(raw)
	}

	if err := writeOutput(outPath, []byte(fingerprint.Hex(digest))); err != nil {
		fmt.Fprintf(os.Stderr, "write output: %v\n", err)
		return 1
	}
	return 0
}
