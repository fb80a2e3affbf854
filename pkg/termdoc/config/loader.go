package config

import (
	"fmt"

	"github.com/cognicore/termdoc/pkg/termdoc/clean"
	"github.com/cognicore/termdoc/pkg/termdoc/manifest"
	"github.com/cognicore/termdoc/pkg/termdoc/wordlist"
)

// Components holds the configured pipeline inputs
type Components struct {
	Entries   []manifest.Entry
	Filter    *wordlist.Filter
	Documents map[string]clean.Document
}

// Components reads the manifest and word list files and returns the
// values the pipeline stages are built from.
func (c *Config) Components() (*Components, error) {
	entries, err := manifest.Load(c.Manifest, c.Arity)
	if err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	}

	filter, err := c.Filter()
	if err != nil {
		return nil, err
	}

	docs, err := c.CleanDocuments()
	if err != nil {
		return nil, err
	}

	return &Components{Entries: entries, Filter: filter, Documents: docs}, nil
}

// Filter builds the word filter, merging inline lists with list files.
func (c *Config) Filter() (*wordlist.Filter, error) {
	allow := append([]string(nil), c.Words.Allow...)
	deny := append([]string(nil), c.Words.Deny...)

	if c.Words.AllowFile != "" {
		terms, err := wordlist.LoadTerms(c.Words.AllowFile)
		if err != nil {
			return nil, fmt.Errorf("load allow list: %w", err)
		}
		allow = append(allow, terms...)
	}
	if c.Words.DenyFile != "" {
		terms, err := wordlist.LoadTerms(c.Words.DenyFile)
		if err != nil {
			return nil, fmt.Errorf("load deny list: %w", err)
		}
		deny = append(deny, terms...)
	}

	return wordlist.New(wordlist.Options{
		FoldCase: c.Words.FoldCase,
		Allow:    allow,
		Deny:     deny,
	}), nil
}

// CleanDocuments converts the per-document table for the cleaner.
func (c *Config) CleanDocuments() (map[string]clean.Document, error) {
	out := make(map[string]clean.Document, len(c.Documents))
	for name, d := range c.Documents {
		r, err := d.ParsedRange()
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", name, err)
		}
		out[name] = clean.Document{Range: r, HTML: d.HTML}
	}
	return out, nil
}
