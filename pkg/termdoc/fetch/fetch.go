package fetch

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/cognicore/termdoc/pkg/termdoc/manifest"
)

// Doer is the subset of *http.Client the fetcher needs.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options configures a Fetcher.
type Options struct {
	Client Doer        // defaults to http.DefaultClient
	RawDir string      // destination for raw documents
	Logger *log.Logger // defaults to log.Default()
}

// Fetcher downloads manifest entries into the raw corpus directory, one at a time.
type Fetcher struct {
	client Doer
	rawDir string
	logger *log.Logger
}

// New creates a fetcher.
func New(opts Options) *Fetcher {
	f := &Fetcher{
		client: opts.Client,
		rawDir: opts.RawDir,
		logger: opts.Logger,
	}
	if f.client == nil {
		f.client = http.DefaultClient
	}
	if f.logger == nil {
		f.logger = log.Default()
	}
	return f
}

// FetchAll downloads every entry in order and returns the ones that were written.
// A non-200 response is logged and the entry skipped; a transport error aborts.
func (f *Fetcher) FetchAll(ctx context.Context, entries []manifest.Entry) ([]manifest.Entry, error) {
	fetched := make([]manifest.Entry, 0, len(entries))
	for _, e := range entries {
		ok, err := f.Fetch(ctx, e)
		if err != nil {
			return fetched, err
		}
		if ok {
			fetched = append(fetched, e)
		}
	}
	return fetched, nil
}

// Fetch downloads one entry. It returns false when the server answered
// with anything other than 200.
func (f *Fetcher) Fetch(ctx context.Context, e manifest.Entry) (bool, error) {
	f.logger.Printf("Downloading %s from %s...", e.Filename, e.URL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.URL, nil)
	if err != nil {
		return false, fmt.Errorf("build request for %s: %w", e.Filename, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("get %s: %w", e.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		f.logger.Printf("\tError: %d %s (%s)", resp.StatusCode, reason(resp), e.Filename)
		// Drain so the connection can be reused for the next entry.
		_, _ = io.Copy(io.Discard, resp.Body)
		return false, nil
	}

	if err := f.write(e.Filename, resp.Body); err != nil {
		return false, err
	}
	return true, nil
}

// Path returns where the raw copy of filename lives.
func (f *Fetcher) Path(filename string) string {
	return filepath.Join(f.rawDir, filename)
}

func (f *Fetcher) write(filename string, body io.Reader) error {
	if err := os.MkdirAll(f.rawDir, 0o755); err != nil {
		return fmt.Errorf("create raw dir: %w", err)
	}

	dst := f.Path(filename)
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}

	if _, err := io.Copy(out, body); err != nil {
		out.Close()
		return fmt.Errorf("write %s: %w", dst, err)
	}
	return out.Close()
}

// reason extracts the text after the status code, e.g. "Not Found".
func reason(resp *http.Response) string {
	code := fmt.Sprintf("%d", resp.StatusCode)
	if r := strings.TrimSpace(strings.TrimPrefix(resp.Status, code)); r != "" {
		return r
	}
	return http.StatusText(resp.StatusCode)
}

// Missing returns the entries whose raw file does not exist yet.
func (f *Fetcher) Missing(entries []manifest.Entry) []manifest.Entry {
	var out []manifest.Entry
	for _, e := range entries {
		if _, err := os.Stat(f.Path(e.Filename)); err != nil {
			out = append(out, e)
		}
	}
	return out
}
