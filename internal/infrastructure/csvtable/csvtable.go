// Package csvtable reads and writes the delimited instruments table.
package csvtable

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"InstrumentsMonitor/internal/domain"
	"InstrumentsMonitor/internal/ports"
)

var bom = []byte("\ufeff")

// Candidates are the separators recognised by DetectDelimiter, in tie-break order.
var Candidates = []rune{',', ';', '\t', '|'}

// Source loads a delimited file from disk.
type Source struct {
	path      string
	delimiter rune
	logger    *slog.Logger
}

var _ ports.TableSource = (*Source)(nil)

// NewSource builds a file source; a zero delimiter means auto-detect.
func NewSource(path string, delimiter rune, logger *slog.Logger) *Source {
	return &Source{path: path, delimiter: delimiter, logger: logger}
}

// Load reads the whole table. A missing file yields domain.ErrSourceNotFound.
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

	table, err := Read(f, s.delimiter)
	if err != nil {
		return domain.Table{}, fmt.Errorf("read %s: %w", s.path, err)
	}

	if s.logger != nil {
		s.logger.Debug("table loaded", "path", s.path, "records", len(table.Records),
			"columns", len(table.Header), "delimiter", string(table.Delimiter))
	}
	return table, nil
}

// Read parses a UTF-8 table whose first row is the header. Blank rows are skipped
// and short rows are padded with empty values.
func Read(r io.Reader, delimiter rune) (domain.Table, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return domain.Table{}, fmt.Errorf("read input: %w", err)
	}
	raw = bytes.TrimPrefix(raw, bom)

	if delimiter == 0 {
		delimiter = DetectDelimiter(firstLine(raw))
	}

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return domain.Table{Delimiter: delimiter}, nil
	}
	if err != nil {
		return domain.Table{}, fmt.Errorf("read header: %w", err)
	}

	table := domain.Table{Header: header, Delimiter: delimiter}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.Table{}, fmt.Errorf("read row: %w", err)
		}
		if blank(row) {
			continue
		}

		rec := make(domain.Record, len(header))
		for i, h := range header {
			if i < len(row) {
				rec[h] = row[i]
			} else {
				rec[h] = ""
			}
		}
		table.Records = append(table.Records, rec)
	}

	return table, nil
}

// DetectDelimiter picks the candidate occurring most often in the header line,
// defaulting to a comma.
func DetectDelimiter(line string) rune {
	best, bestCount := ',', 0
	for _, c := range Candidates {
		if n := strings.Count(line, string(c)); n > bestCount {
			best, bestCount = c, n
		}
	}
	return best
}

// Write serializes table with its delimiter (comma when unset).
func Write(w io.Writer, table domain.Table) error {
	writer := csv.NewWriter(w)
	if table.Delimiter != 0 {
		writer.Comma = table.Delimiter
	}

	if err := writer.Write(table.Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := make([]string, len(table.Header))
	for _, rec := range table.Records {
		for i, h := range table.Header {
			row[i] = rec[h]
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteFile replaces path atomically with the serialized table.
func WriteFile(path string, table domain.Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if err := Write(tmp, table); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

func firstLine(raw []byte) string {
	for _, line := range bytes.Split(raw, []byte("\n")) {
		if len(bytes.TrimSpace(line)) > 0 {
			return string(line)
		}
	}
	return ""
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
