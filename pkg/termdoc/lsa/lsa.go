package lsa

import (
	"fmt"

	"github.com/e-gun/nlp"
	"github.com/e-gun/sparse"
	"gonum.org/v1/gonum/mat"

	"github.com/cognicore/termdoc/pkg/termdoc/internalerr"
)

// Weighting schemes applied to the counts before decomposition.
const (
	WeightRaw   = "raw"
	WeightTfidf = "tfidf"
)

// Point is one labelled row of the projection.
type Point struct {
	Label  string
	Coords []float64
}

// X returns the first coordinate.
func (p Point) X() float64 { return p.coord(0) }

// Y returns the second coordinate.
func (p Point) Y() float64 { return p.coord(1) }

func (p Point) coord(i int) float64 {
	if i < len(p.Coords) {
		return p.Coords[i]
	}
	return 0
}

// Projection is the rank-k view of a term-document matrix.
type Projection struct {
	K      int
	Values []float64 // all singular values, descending
	Words  []Point   // U[i,:k] scaled by the singular values
	Docs   []Point   // V[j,:k] scaled by the singular values
}

// Project factorizes m (words × docs) and keeps the top k directions.
// Directions beyond the rank of m are reported as 0.
func Project(m mat.Matrix, words, docs []string, k int) (*Projection, error) {
	if m == nil {
		return nil, fmt.Errorf("project empty matrix: %w", internalerr.ErrEmptyCorpus)
	}
	r, c := m.Dims()
	if r != len(words) || c != len(docs) {
		return nil, fmt.Errorf("matrix is %dx%d but labels are %dx%d: %w", r, c, len(words), len(docs), internalerr.ErrInvalidInput)
	}
	if k <= 0 {
		return nil, fmt.Errorf("k = %d: %w", k, internalerr.ErrInvalidInput)
	}

	var svd mat.SVD
	if ok := svd.Factorize(m, mat.SVDThin); !ok {
		return nil, fmt.Errorf("svd did not converge")
	}

	values := svd.Values(nil)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	return &Projection{
		K:      k,
		Values: values,
		Words:  scale(&u, values, words, k),
		Docs:   scale(&v, values, docs, k),
	}, nil
}

func scale(basis *mat.Dense, values []float64, labels []string, k int) []Point {
	points := make([]Point, len(labels))
	for i, label := range labels {
		coords := make([]float64, k)
		for d := 0; d < k && d < len(values); d++ {
			coords[d] = basis.At(i, d) * values[d]
		}
		points[i] = Point{Label: label, Coords: coords}
	}
	return points
}

// Weight applies a weighting scheme to a words × docs count matrix.
func Weight(m *mat.Dense, scheme string) (*mat.Dense, error) {
	switch scheme {
	case "", WeightRaw:
		return m, nil
	case WeightTfidf:
		r, c := m.Dims()
		dok := sparse.NewDOK(r, c)
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				if v := m.At(i, j); v != 0 {
					dok.Set(i, j, v)
				}
			}
		}
		weighted, err := nlp.NewTfidfTransformer().FitTransform(dok.ToCSR())
		if err != nil {
			return nil, fmt.Errorf("tfidf: %w", err)
		}
		return mat.DenseCopyOf(weighted), nil
	default:
		return nil, fmt.Errorf("weighting %q: %w", scheme, internalerr.ErrInvalidConfig)
	}
}

// Explained returns the share of the squared singular values carried by the first k.
func (p *Projection) Explained() float64 {
	var total, kept float64
	for i, s := range p.Values {
		total += s * s
		if i < p.K {
			kept += s * s
		}
	}
	if total == 0 {
		return 0
	}
	return kept / total
}
