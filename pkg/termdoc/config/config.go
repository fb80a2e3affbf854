package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/termdoc/pkg/termdoc/internalerr"
	"github.com/cognicore/termdoc/pkg/termdoc/lsa"
	"github.com/cognicore/termdoc/pkg/termdoc/manifest"
)

// DefaultPath is where the command looks for its configuration.
const DefaultPath = "termdoc.yaml"

// Config describes one pipeline run.
type Config struct {
	Manifest    string              `yaml:"manifest"`
	Arity       int                 `yaml:"arity"`
	RawDir      string              `yaml:"raw_dir"`
	CleanDir    string              `yaml:"clean_dir"`
	Output      string              `yaml:"output"`
	Database    string              `yaml:"database"` // empty disables the run store
	Weighting   string              `yaml:"weighting"`
	Dimensions  int                 `yaml:"dimensions"`
	MaxPlotted  int                 `yaml:"max_plotted"`
	HTTPTimeout time.Duration       `yaml:"http_timeout"`
	Words       Words               `yaml:"words"`
	Documents   map[string]Document `yaml:"documents"`
}

// Words configures which tokens are counted.
type Words struct {
	FoldCase  bool     `yaml:"fold_case"`
	Allow     []string `yaml:"allow"`
	Deny      []string `yaml:"deny"`
	AllowFile string   `yaml:"allow_file"` // YAML file with a "terms" list
	DenyFile  string   `yaml:"deny_file"`
}

// Document holds per-document cleaning settings, keyed by manifest filename.
type Document struct {
	Range []int `yaml:"range"` // [front_end, end_start]
	HTML  bool  `yaml:"html"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Manifest:    "sources.txt",
		Arity:       manifest.ArityRanged,
		RawDir:      "texts/raw",
		CleanDir:    "texts/clean",
		Output:      "out/plot.html",
		Database:    "out/termdoc.db",
		Weighting:   lsa.WeightRaw,
		Dimensions:  2,
		MaxPlotted:  0,
		HTTPTimeout: 60 * time.Second,
	}
}

// Load reads a YAML config on top of the defaults. A missing file is not
// an error and yields Default().
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that would otherwise fail late.
func (c *Config) Validate() error {
	if c.Manifest == "" {
		return fmt.Errorf("manifest path is empty: %w", internalerr.ErrInvalidConfig)
	}
	if c.Arity != manifest.ArityPair && c.Arity != manifest.ArityRanged {
		return fmt.Errorf("arity must be 2 or 3, got %d: %w", c.Arity, internalerr.ErrInvalidConfig)
	}
	if c.RawDir == "" || c.CleanDir == "" {
		return fmt.Errorf("raw_dir and clean_dir are required: %w", internalerr.ErrInvalidConfig)
	}
	if c.RawDir == c.CleanDir {
		return fmt.Errorf("raw_dir and clean_dir must differ: %w", internalerr.ErrInvalidConfig)
	}
	if c.Dimensions < 1 {
		return fmt.Errorf("dimensions must be positive, got %d: %w", c.Dimensions, internalerr.ErrInvalidConfig)
	}
	switch c.Weighting {
	case "", lsa.WeightRaw, lsa.WeightTfidf:
	default:
		return fmt.Errorf("unknown weighting %q: %w", c.Weighting, internalerr.ErrInvalidConfig)
	}
	for name, d := range c.Documents {
		if d.Range == nil {
			continue
		}
		if _, err := d.ParsedRange(); err != nil {
			return fmt.Errorf("document %s: %w", name, err)
		}
	}
	return nil
}

// ParsedRange converts the [front_end, end_start] pair, or returns nil
// when the document has no range.
func (d Document) ParsedRange() (*manifest.Range, error) {
	if d.Range == nil {
		return nil, nil
	}
	if len(d.Range) != 2 {
		return nil, fmt.Errorf("range needs two numbers, got %v: %w", d.Range, internalerr.ErrInvalidConfig)
	}
	r := manifest.Range{FrontEnd: d.Range[0], EndStart: d.Range[1]}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", internalerr.ErrInvalidConfig, err)
	}
	return &r, nil
}
