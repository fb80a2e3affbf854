package matrix

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/cognicore/termdoc/pkg/termdoc/freq"
)

// TermDoc is a dense word×document count matrix.
// Counts[i][j] is the count of Words[i] in Docs[j]. Both index lists are
// sorted lexicographically and every consumer relies on that positionally.
type TermDoc struct {
	Counts [][]int64
	Words  []string
	Docs   []string

	wordIdx map[string]int
	docIdx  map[string]int
}

// Build assembles the matrix from one counter per document, keyed by filename.
// The counters are not modified.
func Build(counts map[string]freq.Counter) *TermDoc {
	docs := make([]string, 0, len(counts))
	vocab := make(map[string]struct{})
	for name, c := range counts {
		docs = append(docs, name)
		for w := range c {
			vocab[w] = struct{}{}
		}
	}
	sort.Strings(docs)

	words := make([]string, 0, len(vocab))
	for w := range vocab {
		words = append(words, w)
	}
	sort.Strings(words)

	cells := make([]int64, len(words)*len(docs))
	rows := make([][]int64, len(words))
	for i := range rows {
		rows[i] = cells[i*len(docs) : (i+1)*len(docs) : (i+1)*len(docs)]
	}

	// Few documents, large vocabulary: documents outside, words inside.
	for j, d := range docs {
		c := counts[d]
		for i, w := range words {
			rows[i][j] = c.Get(w)
		}
	}

	return newTermDoc(rows, words, docs)
}

func newTermDoc(rows [][]int64, words, docs []string) *TermDoc {
	td := &TermDoc{
		Counts:  rows,
		Words:   words,
		Docs:    docs,
		wordIdx: make(map[string]int, len(words)),
		docIdx:  make(map[string]int, len(docs)),
	}
	for i, w := range words {
		td.wordIdx[w] = i
	}
	for j, d := range docs {
		td.docIdx[d] = j
	}
	return td
}

// FromCells rebuilds a matrix from its index lists and non-zero cells,
// e.g. after loading it back from a store.
func FromCells(words, docs []string, cells []Cell) *TermDoc {
	rows := make([][]int64, len(words))
	for i := range rows {
		rows[i] = make([]int64, len(docs))
	}
	for _, c := range cells {
		rows[c.Row][c.Col] = c.Count
	}
	return newTermDoc(rows, words, docs)
}

// Cell is one non-zero matrix entry.
type Cell struct {
	Row, Col int
	Count    int64
}

// NonZero lists the non-zero cells in row-major order.
func (td *TermDoc) NonZero() []Cell {
	var out []Cell
	for i, row := range td.Counts {
		for j, v := range row {
			if v != 0 {
				out = append(out, Cell{Row: i, Col: j, Count: v})
			}
		}
	}
	return out
}

// Dims returns (number of words, number of documents).
func (td *TermDoc) Dims() (int, int) {
	return len(td.Words), len(td.Docs)
}

// WordIndex returns the row of word, or -1.
func (td *TermDoc) WordIndex(word string) int {
	if i, ok := td.wordIdx[word]; ok {
		return i
	}
	return -1
}

// DocIndex returns the column of doc, or -1.
func (td *TermDoc) DocIndex(doc string) int {
	if j, ok := td.docIdx[doc]; ok {
		return j
	}
	return -1
}

// At returns the count of word in doc, 0 when either is unknown.
func (td *TermDoc) At(word, doc string) int64 {
	i, j := td.WordIndex(word), td.DocIndex(doc)
	if i < 0 || j < 0 {
		return 0
	}
	return td.Counts[i][j]
}

// Row returns the document counts for word, nil if unknown.
func (td *TermDoc) Row(word string) []int64 {
	i := td.WordIndex(word)
	if i < 0 {
		return nil
	}
	return td.Counts[i]
}

// Dense converts the counts to a gonum matrix with the same layout.
// An empty matrix (no words or no documents) returns nil.
func (td *TermDoc) Dense() *mat.Dense {
	r, c := td.Dims()
	if r == 0 || c == 0 {
		return nil
	}
	data := make([]float64, 0, r*c)
	for _, row := range td.Counts {
		for _, v := range row {
			data = append(data, float64(v))
		}
	}
	return mat.NewDense(r, c, data)
}
