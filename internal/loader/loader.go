package loader

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"InstrumentsMonitor/internal/infrastructure/csvtable"
	"InstrumentsMonitor/internal/infrastructure/htmltable"
	"InstrumentsMonitor/internal/ports"
)

// Request carries what a format needs to open a source.
type Request struct {
	Path      string
	Delimiter rune
	Selector  string
	Logger    *slog.Logger
}

// Format captures one table encoding (delimited text, HTML export, ...).
type Format interface {
	Name() string
	Extensions() []string
	Writable() bool
	Open(req Request) ports.TableSource
}

// Registry keeps a mapping from format names to their implementations.
type Registry struct {
	formats map[string]Format
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{formats: map[string]Format{}}
}

// Default returns a registry with the delimited and HTML formats.
func Default() *Registry {
	r := NewRegistry()
	r.Register(Delimited{})
	r.Register(HTML{})
	return r
}

// Register adds or replaces a format implementation.
func (r *Registry) Register(f Format) {
	if r.formats == nil {
		r.formats = map[string]Format{}
	}
	r.formats[f.Name()] = f
}

// Resolve returns a format by name, or by the extension of path when name is
// empty or "auto".
func (r *Registry) Resolve(name, path string) (Format, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name != "" && name != "auto" {
		if f, ok := r.formats[name]; ok {
			return f, nil
		}
		return nil, fmt.Errorf("format %s is not registered", name)
	}

	ext := strings.ToLower(filepath.Ext(path))
	for _, n := range r.names() {
		for _, e := range r.formats[n].Extensions() {
			if e == ext {
				return r.formats[n], nil
			}
		}
	}
	return nil, fmt.Errorf("no format registered for extension %q", ext)
}

func (r *Registry) names() []string {
	names := make([]string, 0, len(r.formats))
	for n := range r.formats {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Delimited is the comma/semicolon/tab/pipe separated format.
type Delimited struct{}

func (Delimited) Name() string         { return "csv" }
func (Delimited) Extensions() []string { return []string{".csv", ".tsv", ".txt"} }
func (Delimited) Writable() bool       { return true }

func (Delimited) Open(req Request) ports.TableSource {
	return csvtable.NewSource(req.Path, req.Delimiter, req.Logger)
}

// HTML is a spreadsheet export published as an HTML table.
type HTML struct{}

func (HTML) Name() string         { return "html" }
func (HTML) Extensions() []string { return []string{".html", ".htm"} }
func (HTML) Writable() bool       { return false }

func (HTML) Open(req Request) ports.TableSource {
	return htmltable.NewSource(req.Path, req.Selector, req.Logger)
}
