package store

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/termdoc/pkg/termdoc/matrix"
)

// Store persists pipeline runs so a matrix and its decomposition can be
// inspected or replotted without fetching again.
type Store interface {
	Close() error

	SaveRun(ctx context.Context, r Run) error
	GetRun(ctx context.Context, id string) (Run, error)
	LatestRun(ctx context.Context) (Run, bool, error)
	ListRuns(ctx context.Context, limit int) ([]RunSummary, error)
}

// Run is one persisted execution of the matrix and decomposition stages
type Run struct {
	ID        string
	CreatedAt time.Time
	Weighting string
	Words     []string
	Docs      []string
	Cells     []matrix.Cell // non-zero counts only
	Values    []float64     // singular values, descending
}

// RunSummary is the listing view of a run
type RunSummary struct {
	ID        string
	CreatedAt time.Time
	Words     int
	Docs      int
}

// Matrix rebuilds the dense term-document matrix of the run
func (r Run) Matrix() *matrix.TermDoc {
	return matrix.FromCells(r.Words, r.Docs, r.Cells)
}

// Builder stamps runs with monotonic ULIDs
type Builder struct {
	entropy *ulid.MonotonicEntropy
}

// NewBuilder creates a run builder
func NewBuilder() *Builder {
	return &Builder{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// Build creates a run for td with a fresh, time-ordered ID.
func (b *Builder) Build(td *matrix.TermDoc, weighting string, values []float64) Run {
	now := time.Now().UTC()
	return Run{
		ID:        ulid.MustNew(ulid.Timestamp(now), b.entropy).String(),
		CreatedAt: now,
		Weighting: weighting,
		Words:     td.Words,
		Docs:      td.Docs,
		Cells:     td.NonZero(),
		Values:    values,
	}
}
