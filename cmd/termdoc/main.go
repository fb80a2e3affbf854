package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/cognicore/termdoc/pkg/termdoc"
	"github.com/cognicore/termdoc/pkg/termdoc/clean"
	"github.com/cognicore/termdoc/pkg/termdoc/config"
	"github.com/cognicore/termdoc/pkg/termdoc/fetch"
	"github.com/cognicore/termdoc/pkg/termdoc/plot"
	"github.com/cognicore/termdoc/pkg/termdoc/store/sqlite"
)

const topValues = 5

func main() {
	var (
		configPath = flag.String("config", config.DefaultPath, "Configuration file (optional)")
		refetch    = flag.Bool("refetch", false, "Download documents even if a raw copy exists")
		replay     = flag.String("replay", "", "Replot a stored run by ID, or \"latest\", without touching the corpus")
		listRuns   = flag.Bool("runs", false, "List stored runs and exit")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	if *listRuns {
		if err := printRuns(ctx, cfg); err != nil {
			log.Fatalf("Failed to list runs: %v", err)
		}
		return
	}

	pipeline, comp, cleanup, err := buildPipeline(ctx, cfg, *refetch, *replay == "")
	if err != nil {
		log.Fatal("Failed to set up pipeline:", err)
	}
	defer cleanup()

	var res *termdoc.Result
	if *replay != "" {
		id := *replay
		if id == "latest" {
			id = ""
		}
		res, err = pipeline.Replay(ctx, id)
	} else {
		log.Printf("Loaded %d manifest entries from %s", len(comp.Entries), cfg.Manifest)
		res, err = pipeline.Run(ctx, comp.Entries)
	}
	if err != nil {
		log.Fatalf("Pipeline failed: %v", err)
	}

	report(res)

	opts := plot.DefaultOptions()
	opts.MaxWords = cfg.MaxPlotted
	if res.RunID != "" {
		opts.Subtitle = "run " + res.RunID
	}
	if err := plot.WriteFile(cfg.Output, res.Projection, opts); err != nil {
		log.Fatalf("Failed to write plot: %v", err)
	}
	log.Printf("Wrote %s", cfg.Output)
}

// buildPipeline wires the configured stages. The manifest is only read
// when withManifest is set.
func buildPipeline(ctx context.Context, cfg *config.Config, refetch, withManifest bool) (*termdoc.Pipeline, *config.Components, func(), error) {
	cleanup := func() {}

	var (
		comp *config.Components
		err  error
	)
	if withManifest {
		comp, err = cfg.Components()
	} else {
		comp = &config.Components{}
		if comp.Filter, err = cfg.Filter(); err == nil {
			comp.Documents, err = cfg.CleanDocuments()
		}
	}
	if err != nil {
		return nil, nil, cleanup, err
	}

	opts := termdoc.Options{
		Fetcher: fetch.New(fetch.Options{
			Client: &http.Client{Timeout: cfg.HTTPTimeout},
			RawDir: cfg.RawDir,
		}),
		Cleaner: clean.New(clean.Options{
			RawDir:    cfg.RawDir,
			CleanDir:  cfg.CleanDir,
			Documents: comp.Documents,
		}),
		Filter:     comp.Filter,
		Weighting:  cfg.Weighting,
		Dimensions: cfg.Dimensions,
		Refetch:    refetch,
	}

	if cfg.Database != "" {
		st, err := sqlite.OpenSQLite(ctx, cfg.Database)
		if err != nil {
			return nil, nil, cleanup, err
		}
		opts.Store = st
		cleanup = func() { st.Close() }
	}

	return termdoc.New(opts), comp, cleanup, nil
}

func report(res *termdoc.Result) {
	p := message.NewPrinter(language.English)

	words, docs := res.Matrix.Dims()
	log.Print(p.Sprintf("Vocabulary: %d words across %d documents", words, docs))

	var total int64
	for _, c := range res.Counts {
		total += c.Total()
	}
	if total > 0 {
		log.Print(p.Sprintf("Counted %d tokens", total))
	}

	values := res.Projection.Values
	if len(values) > topValues {
		values = values[:topValues]
	}
	for i, v := range values {
		log.Print(p.Sprintf("  σ%d = %.4f", i+1, v))
	}
	log.Print(p.Sprintf("Top %d directions carry %.1f%% of the variance", res.Projection.K, 100*res.Projection.Explained()))
}

func printRuns(ctx context.Context, cfg *config.Config) error {
	if cfg.Database == "" {
		log.Print("No database configured")
		return nil
	}
	st, err := sqlite.OpenSQLite(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRuns(ctx, 20)
	if err != nil {
		return err
	}
	p := message.NewPrinter(language.English)
	for _, r := range runs {
		log.Print(p.Sprintf("%s  %s  %d words × %d docs", r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Words, r.Docs))
	}
	return nil
}
