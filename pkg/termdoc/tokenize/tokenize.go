package tokenize

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"
)

// Fields splits a line on runs of whitespace, dropping empty fragments.
func Fields(line string) []string {
	return strings.Fields(line)
}

// Reader yields the tokens of r in line order, left to right within a line.
// A read error is yielded once with an empty token and ends the sequence.
func Reader(r io.Reader) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		br := bufio.NewReader(r)
		for {
			line, err := br.ReadString('\n')
			for _, tok := range Fields(line) {
				if !yield(tok, nil) {
					return
				}
			}
			if err == io.EOF {
				return
			}
			if err != nil {
				yield("", err)
				return
			}
		}
	}
}

// Source is a restartable token stream backed by a file.
type Source struct {
	Path string
}

// File returns a Source for path. Nothing is opened until Tokens is ranged over.
func File(path string) Source {
	return Source{Path: path}
}

// Tokens opens the file afresh on every iteration, so each pass yields
// the same sequence.
func (s Source) Tokens() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		f, err := os.Open(s.Path)
		if err != nil {
			yield("", fmt.Errorf("open %s: %w", s.Path, err))
			return
		}
		defer f.Close()

		for tok, err := range Reader(f) {
			if !yield(tok, err) {
				return
			}
		}
	}
}

// Collect drains a token sequence into a slice.
func Collect(seq iter.Seq2[string, error]) ([]string, error) {
	var out []string
	for tok, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, tok)
	}
	return out, nil
}
