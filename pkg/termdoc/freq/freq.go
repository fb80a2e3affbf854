package freq

import (
	"iter"
	"sort"

	"github.com/cognicore/termdoc/pkg/termdoc/tokenize"
	"github.com/cognicore/termdoc/pkg/termdoc/wordlist"
)

// Counter maps each distinct token of one document to its occurrence count
type Counter map[string]int64

// Count tallies a token sequence. Tokens rejected by f are skipped; f may be nil.
func Count(seq iter.Seq2[string, error], f *wordlist.Filter) (Counter, error) {
	c := make(Counter)
	for tok, err := range seq {
		if err != nil {
			return nil, err
		}
		if word, ok := f.Apply(tok); ok {
			c[word]++
		}
	}
	return c, nil
}

// CountFile tallies the tokens of a clean document on disk.
func CountFile(path string, f *wordlist.Filter) (Counter, error) {
	return Count(tokenize.File(path).Tokens(), f)
}

// Get returns the count for word, 0 if absent
func (c Counter) Get(word string) int64 {
	return c[word]
}

// Total returns the number of counted tokens
func (c Counter) Total() int64 {
	var n int64
	for _, v := range c {
		n += v
	}
	return n
}

// Words returns the distinct tokens, sorted
func (c Counter) Words() []string {
	words := make([]string, 0, len(c))
	for w := range c {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}

// Entry is a word with its count.
type Entry struct {
	Word  string
	Count int64
}

// Top returns the n most frequent words, ties broken alphabetically.
// n <= 0 returns all of them.
func (c Counter) Top(n int) []Entry {
	out := make([]Entry, 0, len(c))
	for w, v := range c {
		out = append(out, Entry{Word: w, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Word < out[j].Word
	})
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}
