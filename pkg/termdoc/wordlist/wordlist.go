package wordlist

import (
	"fmt"
	"os"
	"sort"

	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

// Filter decides which tokens are counted. A nil *Filter keeps every token unchanged.
type Filter struct {
	fold  bool
	caser cases.Caser
	allow map[string]struct{}
	deny  map[string]struct{}
}

// Options configures a Filter.
type Options struct {
	FoldCase bool     // case-fold tokens before matching and counting
	Allow    []string // when non-empty, only these words are counted
	Deny     []string // never counted
}

// New creates a filter. List entries are folded when FoldCase is set so
// "The" in a deny list matches "the" in the text.
func New(opts Options) *Filter {
	f := &Filter{
		fold:  opts.FoldCase,
		caser: cases.Fold(),
		allow: make(map[string]struct{}, len(opts.Allow)),
		deny:  make(map[string]struct{}, len(opts.Deny)),
	}
	for _, w := range opts.Allow {
		f.allow[f.normalize(w)] = struct{}{}
	}
	for _, w := range opts.Deny {
		f.deny[f.normalize(w)] = struct{}{}
	}
	return f
}

func (f *Filter) normalize(w string) string {
	if f.fold {
		return f.caser.String(w)
	}
	return w
}

// Apply returns the form of token to count and whether to count it at all.
func (f *Filter) Apply(token string) (string, bool) {
	if f == nil {
		return token, true
	}
	word := f.normalize(token)
	if _, ok := f.deny[word]; ok {
		return "", false
	}
	if len(f.allow) > 0 {
		if _, ok := f.allow[word]; !ok {
			return "", false
		}
	}
	return word, true
}

// IsDenied checks if a word is on the deny list
func (f *Filter) IsDenied(word string) bool {
	_, ok := f.deny[f.normalize(word)]
	return ok
}

// Deny adds a word to the deny list
func (f *Filter) Deny(word string) {
	f.deny[f.normalize(word)] = struct{}{}
}

// Undeny removes a word from the deny list
func (f *Filter) Undeny(word string) {
	delete(f.deny, f.normalize(word))
}

// Denied returns the deny list, sorted.
func (f *Filter) Denied() []string {
	out := make([]string, 0, len(f.deny))
	for w := range f.deny {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// Terms is the on-disk word list format.
type Terms struct {
	Terms []string `yaml:"terms"`
}

// LoadTerms loads a word list from a YAML file with a top-level "terms" list.
func LoadTerms(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var t Terms
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse word list %s: %w", path, err)
	}
	return t.Terms, nil
}
