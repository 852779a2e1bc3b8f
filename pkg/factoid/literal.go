package factoid

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethanbaker/bucket/pkg/store"
)

// Dumper publishes a full listing of factoids and returns where it can be read
type Dumper interface {
	Dump(name string, rows []*store.Factoid) (string, error)
}

// FileDumper writes literal listings as text files into a directory that is served under BaseURL
type FileDumper struct {
	Dir     string
	BaseURL string
}

// NewFileDumper creates a file dumper, making sure the base URL ends with a slash
func NewFileDumper(dir, baseURL string) *FileDumper {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &FileDumper{Dir: dir, BaseURL: baseURL}
}

// Dump writes one literal line per row to <dir>/<name>.txt and returns the public link
func (d *FileDumper) Dump(name string, rows []*store.Factoid) (string, error) {
	if err := os.MkdirAll(d.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create literal directory: %w", err)
	}

	// Keep the file inside the dump directory whatever the fact looks like
	filename := strings.ReplaceAll(strings.ToLower(name), string(filepath.Separator), "_") + ".txt"

	var b strings.Builder
	for _, row := range rows {
		b.WriteString(Literal(row))
		b.WriteString("\n")
	}

	if err := os.WriteFile(filepath.Join(d.Dir, filename), []byte(b.String()), 0644); err != nil {
		return "", fmt.Errorf("failed to write literal file: %w", err)
	}

	return d.BaseURL + url.PathEscape(filename), nil
}
