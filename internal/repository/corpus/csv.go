package corpus

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/soclens/internal/domain"
	"github.com/kailas-cloud/soclens/internal/domain/incident"
)

// CSVLoader reads the corpus from a CSV file with a header row.
type CSVLoader struct {
	path   string
	logger *zap.Logger
}

// NewCSVLoader creates a loader for path.
func NewCSVLoader(path string, logger *zap.Logger) *CSVLoader {
	return &CSVLoader{path: path, logger: logger}
}

// Load reads and parses the file.
func (l *CSVLoader) Load(ctx context.Context) (incident.Corpus, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return incident.Corpus{}, fmt.Errorf("%w: open %s: %w", domain.ErrCorpusUnavailable, l.path, err)
	}
	defer func() { _ = f.Close() }()

	return ReadCSV(ctx, "csv:"+l.path, f, l.logger)
}

// ReadCSV parses a CSV stream into a corpus. Short rows are padded with
// empty cells; a missing header row makes the corpus unavailable.
func ReadCSV(ctx context.Context, source string, r io.Reader, logger *zap.Logger) (incident.Corpus, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return incident.Corpus{}, fmt.Errorf("%w: %s has no header row", domain.ErrCorpusUnavailable, source)
		}
		return incident.Corpus{}, fmt.Errorf("%w: read header: %w", domain.ErrCorpusUnavailable, err)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	var rows []row
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return incident.Corpus{}, fmt.Errorf("read csv: %w", err)
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return incident.Corpus{}, fmt.Errorf("%w: line %d: %w", domain.ErrCorpusUnavailable, line, err)
		}

		rw := make(row, len(header))
		for i, h := range header {
			if i < len(rec) {
				rw[h] = rec[i]
			}
		}
		rows = append(rows, rw)
	}

	return build(source, header, rows, logger), nil
}
