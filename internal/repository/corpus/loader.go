// Package corpus loads the historical incident corpus from CSV files or a
// Postgres table into an immutable snapshot.
package corpus

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/soclens/internal/domain/incident"
)

// Loader produces a corpus snapshot.
type Loader interface {
	Load(ctx context.Context) (incident.Corpus, error)
}

// build resolves the schema once and converts rows into records.
func build(source string, headers []string, rows []row, logger *zap.Logger) incident.Corpus {
	schema := incident.NewSchema(headers)
	extra := schema.Extra()

	records := make([]incident.Record, len(rows))
	var badTimestamps int
	for i, r := range rows {
		a := r.attrs(extra)
		if a.Timestamp == nil && schema.Has(incident.ColTimestamp) && toText(r[string(incident.ColTimestamp)]) != "" {
			badTimestamps++
		}
		records[i] = incident.New(i, a)
	}

	if missing := schema.MissingGuaranteed(); len(missing) > 0 {
		logger.Warn("Corpus is missing expected columns; defaults will be used",
			zap.String("source", source),
			zap.Any("columns", missing),
		)
	}
	if badTimestamps > 0 {
		logger.Warn("Corpus has unparseable timestamps; treated as missing",
			zap.String("source", source),
			zap.Int("rows", badTimestamps),
		)
	}

	c := incident.NewCorpus(source, schema, records)
	logger.Info("Corpus loaded",
		zap.String("source", source),
		zap.Int("records", c.Len()),
		zap.String("fingerprint", c.Fingerprint()),
	)
	return c
}
