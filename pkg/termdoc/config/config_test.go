package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cognicore/termdoc/pkg/termdoc/internalerr"
	"github.com/cognicore/termdoc/pkg/termdoc/manifest"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "termdoc.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	def := Default()
	if cfg.Manifest != def.Manifest || cfg.Arity != manifest.ArityRanged || cfg.Dimensions != 2 {
		t.Errorf("Expected defaults, got %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Defaults should validate: %v", err)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "termdoc.yaml", `manifest: books.txt
arity: 2
raw_dir: corpus/raw
clean_dir: corpus/clean
weighting: tfidf
http_timeout: 5s
words:
  fold_case: true
  deny: [the, and]
documents:
  hamlet.txt:
    range: [120, 6000]
  faustus.html:
    range: [10, 200]
    html: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Manifest != "books.txt" || cfg.Arity != 2 {
		t.Errorf("Unexpected manifest settings %q/%d", cfg.Manifest, cfg.Arity)
	}
	if cfg.Output != Default().Output {
		t.Errorf("Unset fields should keep defaults, output = %q", cfg.Output)
	}
	if cfg.HTTPTimeout != 5*time.Second {
		t.Errorf("HTTPTimeout = %v, want 5s", cfg.HTTPTimeout)
	}
	if !cfg.Words.FoldCase || len(cfg.Words.Deny) != 2 {
		t.Errorf("Unexpected words %+v", cfg.Words)
	}

	docs, err := cfg.CleanDocuments()
	if err != nil {
		t.Fatalf("CleanDocuments: %v", err)
	}
	h := docs["hamlet.txt"]
	if h.Range == nil || *h.Range != (manifest.Range{FrontEnd: 120, EndStart: 6000}) || h.HTML {
		t.Errorf("hamlet = %+v", h)
	}
	if !docs["faustus.html"].HTML {
		t.Error("faustus.html should be marked html")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "bad arity", mutate: func(c *Config) { c.Arity = 5 }},
		{name: "empty manifest", mutate: func(c *Config) { c.Manifest = "" }},
		{name: "same dirs", mutate: func(c *Config) { c.CleanDir = c.RawDir }},
		{name: "zero dimensions", mutate: func(c *Config) { c.Dimensions = 0 }},
		{name: "unknown weighting", mutate: func(c *Config) { c.Weighting = "bm25" }},
		{name: "short range", mutate: func(c *Config) { c.Documents = map[string]Document{"a": {Range: []int{1}}} }},
		{name: "reversed range", mutate: func(c *Config) { c.Documents = map[string]Document{"a": {Range: []int{9, 1}}} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, internalerr.ErrInvalidConfig) {
				t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := writeFile(t, t.TempDir(), "termdoc.yaml", "arity: 7\n")
	if _, err := Load(path); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "termdoc.yaml", "words: [unclosed\n")
	if _, err := Load(path); err == nil {
		t.Error("Expected parse error")
	}
}

func TestComponents(t *testing.T) {
	dir := t.TempDir()
	manifestPath := writeFile(t, dir, "sources.txt", "# books\nhttp://example.com/a.txt\na.txt\n0 10\n")
	denyPath := writeFile(t, dir, "deny.yaml", "terms:\n  - thee\n  - thou\n")

	cfg := Default()
	cfg.Manifest = manifestPath
	cfg.Words.Deny = []string{"the"}
	cfg.Words.DenyFile = denyPath

	comp, err := cfg.Components()
	if err != nil {
		t.Fatalf("Components: %v", err)
	}
	if len(comp.Entries) != 1 || comp.Entries[0].Filename != "a.txt" {
		t.Errorf("Unexpected entries %+v", comp.Entries)
	}
	for _, w := range []string{"the", "thee", "thou"} {
		if _, ok := comp.Filter.Apply(w); ok {
			t.Errorf("%q should be denied", w)
		}
	}
	if _, ok := comp.Filter.Apply("ghost"); !ok {
		t.Error("ghost should pass the filter")
	}
}

func TestComponentsMissingManifest(t *testing.T) {
	cfg := Default()
	cfg.Manifest = filepath.Join(t.TempDir(), "nope.txt")
	if _, err := cfg.Components(); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected not-exist error, got %v", err)
	}
}

func TestFilterMissingListFile(t *testing.T) {
	cfg := Default()
	cfg.Words.AllowFile = filepath.Join(t.TempDir(), "allow.yaml")
	if _, err := cfg.Filter(); err == nil {
		t.Error("Expected error for missing allow file")
	}
}
