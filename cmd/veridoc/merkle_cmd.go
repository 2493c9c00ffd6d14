package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"veridoc/internal/infra/fingerprint"
	"veridoc/internal/infra/merkle"
	"veridoc/internal/usecase"
)

// readLeaves loads one hex digest per line, blank lines skipped.
func readLeaves(path string) ([][]byte, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	var leaves [][]byte
	var hexes []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		leaf, err := fingerprint.ParseHex(strings.ToLower(line))
		if err != nil {
			return nil, nil, fmt.Errorf("leaf %q: %v", line, err)
		}
		leaves = append(leaves, leaf)
		hexes = append(hexes, fingerprint.Hex(leaf))
	}
	return leaves, hexes, scanner.Err()
}

func runRoot(args []string) int {
	fs := flag.NewFlagSet("root", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var leavesPath string
	var outPath string
	fs.StringVar(&leavesPath, "leaves", "", "file with one hex leaf hash per line")
	fs.StringVar(&outPath, "out", "", "output path (default stdout)")

	if err := fs.Parse(args); err != nil {
		return 1
	}
	if leavesPath == "" {
		fmt.Fprintln(os.Stderr, "root requires --leaves")
		return 1
	}

	leaves, _, err := readLeaves(leavesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read leaves: %v\n", err)
		return 1
	}
	root, err := merkle.Root(leaves)
	if err != nil {
		fmt.Fprintf(os.Stderr, "compute root: %v\n", err)
		return 1
	}
	if err := writeOutput(outPath, []byte(fingerprint.Hex(root))); err != nil {
		fmt.Fprintf(os.Stderr, "write output: %v\n", err)
		return 1
	}
	return 0
}

func runProve(args []string) int {
	fs := flag.NewFlagSet("prove", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var leavesPath string
	var leafHex string
	var outPath string
	fs.StringVar(&leavesPath, "leaves", "", "file with one hex leaf hash per line")
	fs.StringVar(&leafHex, "leaf", "", "hex leaf hash to prove")
	fs.StringVar(&outPath, "out", "", "output path (default stdout)")

	if err := fs.Parse(args); err != nil {
		return 1
	}
	if leavesPath == "" || leafHex == "" {
		fmt.Fprintln(os.Stderr, "prove requires --leaves and --leaf")
		return 1
	}

	leaves, _, err := readLeaves(leavesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read leaves: %v\n", err)
		return 1
	}
	leaf, err := fingerprint.ParseHex(strings.ToLower(leafHex))
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse leaf: %v\n", err)
		return 1
	}
	index, path, err := merkle.ProveLeaf(leaves, leaf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "prove: %v\n", err)
		return 1
	}
	root, err := merkle.Root(leaves)
	if err != nil {
		fmt.Fprintf(os.Stderr, "compute root: %v\n", err)
		return 1
	}

	pathHex := make([]string, len(path))
	for i, sibling := range path {
		pathHex[i] = fingerprint.Hex(sibling)
	}
	payload, err := json.MarshalIndent(usecase.ProofResult{
		MerkleRoot: fingerprint.Hex(root),
		LeafHash:   fingerprint.Hex(leaf),
		LeafIndex:  index,
		Path:       pathHex,
	}, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode proof: %v\n", err)
		return 1
	}
	if err := writeOutput(outPath, payload); err != nil {
		fmt.Fprintf(os.Stderr, "write output: %v\n", err)
		return 1
	}
	return 0
}

func runVerifyProof(args []string) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var proofPath string
	var leafHex string
	var rootHex string
	fs.StringVar(&proofPath, "proof", "", "proof JSON path (as produced by prove)")
	fs.StringVar(&leafHex, "leaf", "", "hex leaf hash (overrides proof's leaf)")
	fs.StringVar(&rootHex, "root", "", "expected hex root (overrides proof's root)")

	if err := fs.Parse(args); err != nil {
		return 1
	}
	if proofPath == "" {
		fmt.Fprintln(os.Stderr, "verify requires --proof")
		return 1
	}

	payload, err := os.ReadFile(proofPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read proof: %v\n", err)
		return 1
	}
	var proof usecase.ProofResult
	if err := json.Unmarshal(payload, &proof); err != nil {
		fmt.Fprintf(os.Stderr, "decode proof: %v\n", err)
		return 1
	}
	if leafHex == "" {
		leafHex = proof.LeafHash
	}
	if rootHex == "" {
		rootHex = proof.MerkleRoot
	}

	ok, err := usecase.VerifyProof(leafHex, proof.Path, rootHex)
	if err != nil {
		fmt.Fprintf(os.Stderr, "verify: %v\n", err)
		return 1
	}
	if !ok {
		fmt.Fprintln(os.Stderr, "proof INVALID")
		return 1
	}
	fmt.Println("proof valid")
	return 0
}
