package clean

import (
	"errors"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cognicore/termdoc/pkg/termdoc/internalerr"
	"github.com/cognicore/termdoc/pkg/termdoc/manifest"
)

func TestLine(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "footnote marker", input: "Mephistophilis[73] appears", want: "Mephistophilis  appears"},
		{name: "multi digit footnote", input: "word[1234]", want: "word "},
		{name: "punctuation", input: "To be, or not to be: that is the question;", want: "To be  or not to be  that is the question "},
		{name: "curly quotes", input: "“Hello,” she said.", want: " Hello   she said "},
		{name: "straight quotes and parens", input: `(“a”) "b"`, want: "  a    b "},
		{name: "underscore and bang", input: "_Exit_ Ghost!", want: " Exit  Ghost "},
		{name: "question", input: "Who's there?", want: "Who's there "},
		{name: "letters and digits untouched", input: "Act 3 Scene 1", want: "Act 3 Scene 1"},
		{name: "bracket without digits kept", input: "[Exit] [a1]", want: "[Exit] [a1]"},
		{name: "bare digits kept", input: "1818", want: "1818"},
		{name: "apostrophe and hyphen kept", input: "launch'd well-known", want: "launch'd well-known"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Line(tt.input); got != tt.want {
				t.Errorf("Line(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLineOneSpacePerMatch(t *testing.T) {
	input := `:?!(),."“”;_[7]`
	got := Line(input)
	// 12 single characters plus one footnote marker
	if got != strings.Repeat(" ", 13) {
		t.Errorf("Line(%q) = %q (%d chars), want 13 spaces", input, got, len(got))
	}
}

func TestFilterKeepsInclusiveRange(t *testing.T) {
	c := New(Options{})
	text := "line0\nline1\nline2\nline3\nline4\n"

	tests := []struct {
		name string
		rng  manifest.Range
		want string
	}{
		{name: "middle", rng: manifest.Range{FrontEnd: 1, EndStart: 3}, want: "line1\nline2\nline3\n"},
		{name: "single line", rng: manifest.Range{FrontEnd: 2, EndStart: 2}, want: "line2\n"},
		{name: "from start", rng: manifest.Range{FrontEnd: 0, EndStart: 0}, want: "line0\n"},
		{name: "past end", rng: manifest.Range{FrontEnd: 3, EndStart: 100}, want: "line3\nline4\n"},
		{name: "entirely past end", rng: manifest.Range{FrontEnd: 50, EndStart: 60}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.String(text, tt.rng)
			if err != nil {
				t.Fatalf("String: %v", err)
			}
			if got != tt.want {
				t.Errorf("String(%v) = %q, want %q", tt.rng, got, tt.want)
			}
		})
	}
}

func TestFilterLineEndings(t *testing.T) {
	c := New(Options{})

	got, err := c.String("a.\r\nb,\r\nc", manifest.Range{FrontEnd: 0, EndStart: 2})
	if err != nil {
		t.Fatalf("String: %v", err)
	}
	if got != "a \nb \nc" {
		t.Errorf("String = %q, want %q", got, "a \nb \nc")
	}
}

func TestCleanFileScenario(t *testing.T) {
	dir := t.TempDir()
	rawDir := filepath.Join(dir, "raw")
	cleanDir := filepath.Join(dir, "clean")
	if err := os.MkdirAll(rawDir, 0o755); err != nil {
		t.Fatal(err)
	}
	raw := "*** START OF THE PROJECT GUTENBERG EBOOK ***\nWho's there?\nNay, answer me[3].\n"
	if err := os.WriteFile(filepath.Join(rawDir, "a.txt"), []byte(raw), 0644); err != nil {
		t.Fatal(err)
	}

	c := New(Options{RawDir: rawDir, CleanDir: cleanDir})
	if err := c.CleanFile("a.txt", manifest.Range{FrontEnd: 1, EndStart: 2}); err != nil {
		t.Fatalf("CleanFile: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(cleanDir, "a.txt"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	want := "Who's there \nNay  answer me  \n"
	if string(got) != want {
		t.Errorf("clean = %q, want %q", got, want)
	}

	// Raw document is untouched.
	after, _ := os.ReadFile(filepath.Join(rawDir, "a.txt"))
	if string(after) != raw {
		t.Error("Raw document should not be modified")
	}
}

func TestCleanAllMissingRawFileAborts(t *testing.T) {
	dir := t.TempDir()
	rawDir := filepath.Join(dir, "raw")
	cleanDir := filepath.Join(dir, "clean")
	os.MkdirAll(rawDir, 0o755)
	os.WriteFile(filepath.Join(rawDir, "c.txt"), []byte("x\n"), 0644)

	rng := &manifest.Range{FrontEnd: 0, EndStart: 10}
	entries := []manifest.Entry{
		{Filename: "b.txt", Range: rng},
		{Filename: "c.txt", Range: rng},
	}

	c := New(Options{RawDir: rawDir, CleanDir: cleanDir, Logger: quietLogger()})
	err := c.CleanAll(entries)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("Expected not-exist error, got %v", err)
	}

	if _, err := os.Stat(filepath.Join(cleanDir, "c.txt")); !errors.Is(err, fs.ErrNotExist) {
		t.Error("Entries after the failure should not be cleaned")
	}
}

func TestCleanAllRangeFallback(t *testing.T) {
	dir := t.TempDir()
	rawDir := filepath.Join(dir, "raw")
	cleanDir := filepath.Join(dir, "clean")
	os.MkdirAll(rawDir, 0o755)
	os.WriteFile(filepath.Join(rawDir, "hamlet.txt"), []byte("front\nbody\nback\n"), 0644)

	c := New(Options{
		RawDir:   rawDir,
		CleanDir: cleanDir,
		Documents: map[string]Document{
			"hamlet.txt": {Range: &manifest.Range{FrontEnd: 1, EndStart: 1}},
		},
		Logger: quietLogger(),
	})

	if err := c.CleanAll([]manifest.Entry{{Filename: "hamlet.txt"}}); err != nil {
		t.Fatalf("CleanAll: %v", err)
	}
	got, _ := os.ReadFile(filepath.Join(cleanDir, "hamlet.txt"))
	if string(got) != "body\n" {
		t.Errorf("clean = %q, want %q", got, "body\n")
	}

	err := c.CleanAll([]manifest.Entry{{Filename: "unknown.txt"}})
	if !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for entry without range, got %v", err)
	}
}

func TestCleanFileHTML(t *testing.T) {
	dir := t.TempDir()
	rawDir := filepath.Join(dir, "raw")
	os.MkdirAll(rawDir, 0o755)
	page := "<html><head><title>Hamlet</title><style>p{}</style></head><body><p>To be, or not.</p><p>Ay[2]; there's the rub!</p></body></html>"
	os.WriteFile(filepath.Join(rawDir, "hamlet.html"), []byte(page), 0644)

	c := New(Options{
		RawDir:    rawDir,
		CleanDir:  filepath.Join(dir, "clean"),
		Documents: map[string]Document{"hamlet.html": {HTML: true}},
	})
	if err := c.CleanFile("hamlet.html", manifest.Range{FrontEnd: 1, EndStart: 2}); err != nil {
		t.Fatalf("CleanFile: %v", err)
	}

	got, _ := os.ReadFile(c.Path("hamlet.html"))
	want := "To be  or not \nAy   there's the rub \n"
	if string(got) != want {
		t.Errorf("clean = %q, want %q", got, want)
	}
}

func TestExtractText(t *testing.T) {
	got, err := ExtractText(strings.NewReader("<div>one<script>var x = 1;</script></div><p>two</p>"))
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if got != "one\ntwo\n" {
		t.Errorf("ExtractText = %q, want %q", got, "one\ntwo\n")
	}
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}
