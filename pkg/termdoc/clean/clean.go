package clean

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/cognicore/termdoc/pkg/termdoc/internalerr"
	"github.com/cognicore/termdoc/pkg/termdoc/manifest"
)

// Punctuation matches bracketed footnote markers like [73] and the
// punctuation characters removed before tokenizing.
var Punctuation = regexp.MustCompile(`\[[0-9]+\]|[:?!(),."“”;_]`)

// Document holds per-document cleaning settings keyed by filename.
type Document struct {
	Range *manifest.Range
	HTML  bool // raw body is HTML; extract its text before trimming
}

// Options configures a Cleaner.
type Options struct {
	RawDir    string
	CleanDir  string
	Documents map[string]Document // fallback ranges for entries without one
	Pattern   *regexp.Regexp      // defaults to Punctuation
	Logger    *log.Logger
}

// Cleaner turns raw documents into clean ones.
type Cleaner struct {
	rawDir   string
	cleanDir string
	docs     map[string]Document
	pattern  *regexp.Regexp
	logger   *log.Logger
}

// New creates a cleaner.
func New(opts Options) *Cleaner {
	c := &Cleaner{
		rawDir:   opts.RawDir,
		cleanDir: opts.CleanDir,
		docs:     opts.Documents,
		pattern:  opts.Pattern,
		logger:   opts.Logger,
	}
	if c.pattern == nil {
		c.pattern = Punctuation
	}
	if c.logger == nil {
		c.logger = log.Default()
	}
	return c
}

// Line replaces every punctuation or footnote match in s with one space.
func Line(s string) string {
	return Punctuation.ReplaceAllString(s, " ")
}

// Path returns where the clean copy of filename lives.
func (c *Cleaner) Path(filename string) string {
	return filepath.Join(c.cleanDir, filename)
}

// CleanAll cleans every entry in order. The first failure aborts the pass.
func (c *Cleaner) CleanAll(entries []manifest.Entry) error {
	if err := os.MkdirAll(c.cleanDir, 0o755); err != nil {
		return fmt.Errorf("create clean dir: %w", err)
	}
	for _, e := range entries {
		rng, err := c.rangeFor(e)
		if err != nil {
			return err
		}
		c.logger.Printf("Cleaning %s (keeping lines %d-%d)...", e.Filename, rng.FrontEnd, rng.EndStart)
		if err := c.CleanFile(e.Filename, rng); err != nil {
			return err
		}
	}
	return nil
}

func (c *Cleaner) rangeFor(e manifest.Entry) (manifest.Range, error) {
	if e.Range != nil {
		return *e.Range, nil
	}
	if d, ok := c.docs[e.Filename]; ok && d.Range != nil {
		return *d.Range, nil
	}
	return manifest.Range{}, fmt.Errorf("no clean range for %s: %w", e.Filename, internalerr.ErrInvalidConfig)
}

// CleanFile writes the clean version of one raw document.
func (c *Cleaner) CleanFile(filename string, rng manifest.Range) error {
	src := filepath.Join(c.rawDir, filename)
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open raw document: %w", err)
	}
	defer in.Close()

	var r io.Reader = in
	if c.docs[filename].HTML {
		text, err := ExtractText(in)
		if err != nil {
			return fmt.Errorf("extract text from %s: %w", src, err)
		}
		r = strings.NewReader(text)
	}

	if err := os.MkdirAll(c.cleanDir, 0o755); err != nil {
		return fmt.Errorf("create clean dir: %w", err)
	}
	dst := c.Path(filename)
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}

	w := bufio.NewWriter(out)
	if err := c.Filter(w, r, rng); err != nil {
		out.Close()
		return fmt.Errorf("clean %s: %w", src, err)
	}
	if err := w.Flush(); err != nil {
		out.Close()
		return fmt.Errorf("write %s: %w", dst, err)
	}
	return out.Close()
}

// Filter copies the lines of r whose zero-based index falls inside rng
// to w, substituting the cleaner's pattern on each. A line keeps its
// newline if it had one; "\r\n" is written as "\n".
func (c *Cleaner) Filter(w io.Writer, r io.Reader, rng manifest.Range) error {
	br := bufio.NewReader(r)
	for i := 0; ; i++ {
		line, err := br.ReadString('\n')
		if len(line) > 0 && rng.Contains(i) {
			text, nl := splitNewline(line)
			if _, werr := io.WriteString(w, c.pattern.ReplaceAllString(text, " ")+nl); werr != nil {
				return werr
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if i >= rng.EndStart {
			// Nothing after EndStart is kept.
			return nil
		}
	}
}

func splitNewline(line string) (string, string) {
	if strings.HasSuffix(line, "\n") {
		line = strings.TrimSuffix(line, "\n")
		return strings.TrimSuffix(line, "\r"), "\n"
	}
	return line, ""
}

// String cleans an in-memory document.
func (c *Cleaner) String(text string, rng manifest.Range) (string, error) {
	var buf bytes.Buffer
	if err := c.Filter(&buf, strings.NewReader(text), rng); err != nil {
		return "", err
	}
	return buf.String(), nil
}
