package termdoc

import (
	"context"
	"fmt"
	"log"

	"github.com/cognicore/termdoc/pkg/termdoc/clean"
	"github.com/cognicore/termdoc/pkg/termdoc/fetch"
	"github.com/cognicore/termdoc/pkg/termdoc/freq"
	"github.com/cognicore/termdoc/pkg/termdoc/internalerr"
	"github.com/cognicore/termdoc/pkg/termdoc/lsa"
	"github.com/cognicore/termdoc/pkg/termdoc/manifest"
	"github.com/cognicore/termdoc/pkg/termdoc/matrix"
	"github.com/cognicore/termdoc/pkg/termdoc/store"
	"github.com/cognicore/termdoc/pkg/termdoc/wordlist"
)

// Pipeline runs the corpus stages in order: fetch, clean, count, build
// and decompose.
type Pipeline struct {
	fetcher    *fetch.Fetcher
	cleaner    *clean.Cleaner
	filter     *wordlist.Filter
	store      store.Store
	runs       *store.Builder
	weighting  string
	dimensions int
	refetch    bool
	logger     *log.Logger
}

// Options configures a Pipeline
type Options struct {
	Fetcher    *fetch.Fetcher
	Cleaner    *clean.Cleaner
	Filter     *wordlist.Filter // nil counts every token
	Store      store.Store      // nil skips persisting runs
	Weighting  string
	Dimensions int
	Refetch    bool // download entries whose raw file already exists
	Logger     *log.Logger
}

// New creates a pipeline with the given stages
func New(opts Options) *Pipeline {
	p := &Pipeline{
		fetcher:    opts.Fetcher,
		cleaner:    opts.Cleaner,
		filter:     opts.Filter,
		store:      opts.Store,
		runs:       store.NewBuilder(),
		weighting:  opts.Weighting,
		dimensions: opts.Dimensions,
		refetch:    opts.Refetch,
		logger:     opts.Logger,
	}
	if p.weighting == "" {
		p.weighting = lsa.WeightRaw
	}
	if p.dimensions <= 0 {
		p.dimensions = 2
	}
	if p.logger == nil {
		p.logger = log.Default()
	}
	return p
}

// Result is what one run produced
type Result struct {
	Entries    []manifest.Entry // entries that made it into the corpus
	Counts     map[string]freq.Counter
	Matrix     *matrix.TermDoc
	Projection *lsa.Projection
	RunID      string // empty when no store is configured
}

// Run executes every stage for the manifest entries.
func (p *Pipeline) Run(ctx context.Context, entries []manifest.Entry) (*Result, error) {
	available, err := p.Download(ctx, entries)
	if err != nil {
		return nil, err
	}
	if len(available) == 0 {
		return nil, fmt.Errorf("no documents downloaded: %w", internalerr.ErrEmptyCorpus)
	}

	if err := p.cleaner.CleanAll(available); err != nil {
		return nil, fmt.Errorf("clean corpus: %w", err)
	}

	counts, err := p.Count(available)
	if err != nil {
		return nil, err
	}

	td := matrix.Build(counts)
	proj, err := p.Analyze(td)
	if err != nil {
		return nil, err
	}

	res := &Result{Entries: available, Counts: counts, Matrix: td, Projection: proj}
	if p.store != nil {
		run := p.runs.Build(td, p.weighting, proj.Values)
		if err := p.store.SaveRun(ctx, run); err != nil {
			return nil, fmt.Errorf("save run: %w", err)
		}
		res.RunID = run.ID
	}
	return res, nil
}

// Download fetches the entries that need it and returns every entry with
// a raw file, in manifest order. Without Refetch, existing raw files are
// reused.
func (p *Pipeline) Download(ctx context.Context, entries []manifest.Entry) ([]manifest.Entry, error) {
	todo := entries
	if !p.refetch {
		todo = p.fetcher.Missing(entries)
		if skipped := len(entries) - len(todo); skipped > 0 {
			p.logger.Printf("Reusing %d raw documents already in place", skipped)
		}
	}

	fetched, err := p.fetcher.FetchAll(ctx, todo)
	if err != nil {
		return nil, fmt.Errorf("fetch corpus: %w", err)
	}

	ok := make(map[string]bool, len(entries))
	for _, e := range fetched {
		ok[e.Filename] = true
	}
	pending := make(map[string]bool, len(todo))
	for _, e := range todo {
		pending[e.Filename] = true
	}

	var out []manifest.Entry
	for _, e := range entries {
		if ok[e.Filename] || !pending[e.Filename] {
			out = append(out, e)
		}
	}
	return out, nil
}

// Count tokenizes the clean copy of each entry and counts its words.
func (p *Pipeline) Count(entries []manifest.Entry) (map[string]freq.Counter, error) {
	counts := make(map[string]freq.Counter, len(entries))
	for _, e := range entries {
		c, err := freq.CountFile(p.cleaner.Path(e.Filename), p.filter)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", e.Filename, err)
		}
		counts[e.Filename] = c
	}
	return counts, nil
}

// Analyze weights the matrix and projects it onto its top directions.
func (p *Pipeline) Analyze(td *matrix.TermDoc) (*lsa.Projection, error) {
	return p.analyze(td, p.weighting)
}

func (p *Pipeline) analyze(td *matrix.TermDoc, weighting string) (*lsa.Projection, error) {
	dense := td.Dense()
	if dense == nil {
		return nil, fmt.Errorf("matrix has no words: %w", internalerr.ErrEmptyCorpus)
	}
	weighted, err := lsa.Weight(dense, weighting)
	if err != nil {
		return nil, err
	}
	proj, err := lsa.Project(weighted, td.Words, td.Docs, p.dimensions)
	if err != nil {
		return nil, fmt.Errorf("decompose: %w", err)
	}
	return proj, nil
}

// Replay reprojects a stored run with the weighting it was saved with,
// without touching the corpus. An empty id replays the latest run.
func (p *Pipeline) Replay(ctx context.Context, id string) (*Result, error) {
	if p.store == nil {
		return nil, fmt.Errorf("replay needs a store: %w", internalerr.ErrInvalidConfig)
	}

	var (
		run store.Run
		err error
	)
	if id == "" {
		var found bool
		run, found, err = p.store.LatestRun(ctx)
		if err == nil && !found {
			err = fmt.Errorf("latest run: %w", internalerr.ErrNotFound)
		}
	} else {
		run, err = p.store.GetRun(ctx, id)
	}
	if err != nil {
		return nil, err
	}

	td := run.Matrix()
	proj, err := p.analyze(td, run.Weighting)
	if err != nil {
		return nil, err
	}
	return &Result{Matrix: td, Projection: proj, RunID: run.ID}, nil
}
