package main

import (
	"fmt"
	"os"
	"strings"
)

func main() {
	args := os.Args[1:]
	cmd := "serve"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd = args[0]
		args = args[1:]
	}
	switch cmd {
	case "serve":
		os.Exit(runServe(args))
	case "hash":
		os.Exit(runHash(args))
	case "root":
		os.Exit(runRoot(args))
	case "prove":
		os.Exit(runProve(args))
	case "verify":
		os.Exit(runVerifyProof(args))
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
		fmt.Fprintln(os.Stderr, "usage: veridoc [serve|hash|root|prove|verify] [flags]")
		os.Exit(1)
	}
}
