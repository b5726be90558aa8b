package service

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"go-pos-rd/internal/model"
	"go-pos-rd/pkg/rnc"
)

const defaultImportBatch = 1000

type ImportStats struct {
	Read     int `json:"read"`
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Batches  int `json:"batches"`
}

// Import reads lines shaped RNC|NOMBRE|NOMBRE COMERCIAL|ACTIVIDAD|...|ESTADO|REGIMEN.
// Lines without a valid identifier or name, the header included, are skipped.
// A later line for the same RNC wins.
func (s *rncService) Import(ctx context.Context, r io.Reader, batchSize int) (ImportStats, error) {
	if batchSize <= 0 {
		batchSize = defaultImportBatch
	}

	cr := csv.NewReader(r)
	cr.Comma = '|'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	var stats ImportStats
	batch := make([]model.RncRegistry, 0, batchSize)
	index := make(map[string]int, batchSize)
	now := time.Now()

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.repo.UpsertBatch(batch); err != nil {
			return err
		}
		stats.Imported += len(batch)
		stats.Batches++
		if stats.Batches%100 == 0 {
			s.log.Info("rnc import progress", zap.Int("imported", stats.Imported), zap.Int("skipped", stats.Skipped))
		}
		batch = batch[:0]
		clear(index)
		return nil
	}

	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			stats.Read++
			stats.Skipped++
			continue
		}
		if err != nil {
			return stats, err
		}
		stats.Read++

		rec, ok := registryRecord(fields, now)
		if !ok {
			stats.Skipped++
			continue
		}
		if i, dup := index[rec.RNC]; dup {
			batch[i] = rec
			stats.Skipped++
			continue
		}
		index[rec.RNC] = len(batch)
		batch = append(batch, rec)

		if len(batch) >= batchSize {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			if err := flush(); err != nil {
				return stats, err
			}
		}
	}
	if err := flush(); err != nil {
		return stats, err
	}

	s.log.Info("rnc import finished",
		zap.Int("read", stats.Read),
		zap.Int("imported", stats.Imported),
		zap.Int("skipped", stats.Skipped))
	return stats, nil
}

func registryRecord(fields []string, now time.Time) (model.RncRegistry, bool) {
	if len(fields) < 2 {
		return model.RncRegistry{}, false
	}
	number, _, err := rnc.Parse(fields[0])
	if err != nil {
		return model.RncRegistry{}, false
	}
	name := field(fields, 1)
	if name == "" {
		return model.RncRegistry{}, false
	}

	rec := model.RncRegistry{
		RNC:            number,
		Name:           truncate(name, 255),
		CommercialName: truncate(field(fields, 2), 255),
		Activity:       truncate(field(fields, 3), 255),
		UpdatedAt:      now,
	}
	// Status and regime are always the last two columns.
	if len(fields) >= 6 {
		rec.Status = truncate(field(fields, len(fields)-2), 30)
		rec.PaymentRegime = truncate(field(fields, len(fields)-1), 50)
	}
	return rec, true
}

func field(fields []string, i int) string {
	if i >= len(fields) {
		return ""
	}
	return strings.Join(strings.Fields(fields[i]), " ")
}
