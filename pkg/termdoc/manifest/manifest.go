package manifest

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cognicore/termdoc/pkg/termdoc/internalerr"
)

// Supported tuple sizes.
const (
	ArityPair   = 2 // url, filename
	ArityRanged = 3 // url, filename, "front_end end_start"
)

// Range is the inclusive span of zero-based line indices to keep.
type Range struct {
	FrontEnd int
	EndStart int
}

// Contains reports whether line index i is kept.
func (r Range) Contains(i int) bool {
	return i >= r.FrontEnd && i <= r.EndStart
}

func (r Range) String() string {
	return fmt.Sprintf("%d %d", r.FrontEnd, r.EndStart)
}

// Validate checks 0 <= FrontEnd <= EndStart.
func (r Range) Validate() error {
	if r.FrontEnd < 0 || r.EndStart < 0 {
		return fmt.Errorf("range %q has negative bound: %w", r.String(), internalerr.ErrInvalidInput)
	}
	if r.FrontEnd > r.EndStart {
		return fmt.Errorf("range %q starts after it ends: %w", r.String(), internalerr.ErrInvalidInput)
	}
	return nil
}

// Entry describes one document to fetch and clean.
// Range is nil for pair manifests.
type Entry struct {
	URL      string
	Filename string
	Range    *Range
}

// Load reads a manifest file and parses it.
func Load(path string, arity int) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	return Parse(string(data), arity)
}

// Parse groups the meaningful lines of a manifest into entries.
// Lines are trimmed; blank lines and lines starting with '#' are skipped.
// A trailing group shorter than arity is dropped silently.
func Parse(text string, arity int) ([]Entry, error) {
	if arity != ArityPair && arity != ArityRanged {
		return nil, fmt.Errorf("manifest arity %d: %w", arity, internalerr.ErrInvalidInput)
	}

	fields := Lines(text)
	entries := make([]Entry, 0, len(fields)/arity)

	for i := 0; i+arity <= len(fields); i += arity {
		e := Entry{URL: fields[i], Filename: fields[i+1]}
		if arity == ArityRanged {
			r, err := ParseRange(fields[i+2])
			if err != nil {
				return nil, fmt.Errorf("entry %s: %w", e.Filename, err)
			}
			e.Range = &r
		}
		entries = append(entries, e)
	}

	return entries, nil
}

// Lines returns the trimmed, non-blank, non-comment lines of text in order.
func Lines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}

// ParseRange parses "front_end end_start".
func ParseRange(field string) (Range, error) {
	parts := strings.Fields(field)
	if len(parts) != 2 {
		return Range{}, fmt.Errorf("range %q needs two numbers: %w", field, internalerr.ErrInvalidInput)
	}

	front, err := strconv.Atoi(parts[0])
	if err != nil {
		return Range{}, fmt.Errorf("range %q: %w", field, internalerr.ErrInvalidInput)
	}
	end, err := strconv.Atoi(parts[1])
	if err != nil {
		return Range{}, fmt.Errorf("range %q: %w", field, internalerr.ErrInvalidInput)
	}

	r := Range{FrontEnd: front, EndStart: end}
	if err := r.Validate(); err != nil {
		return Range{}, err
	}
	return r, nil
}
