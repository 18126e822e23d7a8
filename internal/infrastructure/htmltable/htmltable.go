// Package htmltable loads the instruments table from a spreadsheet "publish as HTML" export.
package htmltable

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"InstrumentsMonitor/internal/domain"
	"InstrumentsMonitor/internal/ports"
)

const defaultSelector = "table"

// Source reads the first table matching selector from an HTML file.
type Source struct {
	path     string
	selector string
	logger   *slog.Logger
}

var _ ports.TableSource = (*Source)(nil)

// NewSource wires a file path; an empty selector picks the first <table>.
func NewSource(path, selector string, logger *slog.Logger) *Source {
	if strings.TrimSpace(selector) == "" {
		selector = defaultSelector
	}
	return &Source{path: path, selector: selector, logger: logger}
}

// Load parses the HTML export. A missing file yields domain.ErrSourceNotFound.
func (s *Source) Load(ctx context.Context) (domain.Table, error) {
	if err := ctx.Err(); err != nil {
		return domain.Table{}, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Table{}, fmt.Errorf("%s: %w", s.path, domain.ErrSourceNotFound)
		}
		return domain.Table{}, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	table, err := Read(f, s.selector)
	if err != nil {
		return domain.Table{}, fmt.Errorf("read %s: %w", s.path, err)
	}

	if s.logger != nil {
		s.logger.Debug("html table loaded", "path", s.path, "records", len(table.Records))
	}
	return table, nil
}

// Read extracts header and rows from the first table matching selector. The header
// is the first row holding <th> cells, or the first row when there are none.
func Read(r io.Reader, selector string) (domain.Table, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return domain.Table{}, fmt.Errorf("parse document: %w", err)
	}
	if selector == "" {
		selector = defaultSelector
	}

	tbl := doc.Find(selector).First()
	if tbl.Length() == 0 {
		return domain.Table{}, fmt.Errorf("no table matches %q", selector)
	}

	rows := tbl.Find("tr")
	headerIdx := 0
	rows.EachWithBreak(func(i int, tr *goquery.Selection) bool {
		if tr.Find("th").Length() > 0 {
			headerIdx = i
			return false
		}
		return true
	})

	table := domain.Table{Delimiter: ','}
	rows.Each(func(i int, tr *goquery.Selection) {
		if i < headerIdx {
			return
		}
		cells := cellTexts(tr)
		if i == headerIdx {
			table.Header = cells
			return
		}
		if blank(cells) {
			return
		}
		rec := make(domain.Record, len(table.Header))
		for j, h := range table.Header {
			if j < len(cells) {
				rec[h] = cells[j]
			} else {
				rec[h] = ""
			}
		}
		table.Records = append(table.Records, rec)
	})

	return table, nil
}

func cellTexts(tr *goquery.Selection) []string {
	var cells []string
	tr.Find("th, td").Each(func(_ int, c *goquery.Selection) {
		cells = append(cells, strings.TrimSpace(c.Text()))
	})
	return cells
}

func blank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
