// Package harvest drives a bounded listing of remote records into a Sample.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"OAIHealthCheck/internal/domain"
	"OAIHealthCheck/internal/metrics"
	"OAIHealthCheck/internal/ports"
)

// ProgressFunc receives the number of records consumed so far and the limit.
type ProgressFunc func(done, limit int)

// Harvester materializes up to limit records from a RecordSource.
type Harvester struct {
	source ports.RecordSource
	logger *slog.Logger
	now    func() time.Time
}

// NewHarvester wires a record source; logger may be nil.
func NewHarvester(source ports.RecordSource, logger *slog.Logger) *Harvester {
	return &Harvester{source: source, logger: logger, now: time.Now}
}

// Harvest consumes records until limit is reached or the source is
// exhausted. Any failure discards the partial result.
func (h *Harvester) Harvest(ctx context.Context, endpoint string, limit int, progress ProgressFunc) (domain.Sample, error) {
	if endpoint == "" {
		return domain.Sample{}, domain.ErrEmptyEndpoint
	}
	if limit <= 0 {
		return domain.Sample{}, fmt.Errorf("limit %d: %w", limit, domain.ErrInvalidLimit)
	}
	if h.source == nil {
		return domain.Sample{}, fmt.Errorf("record source is not configured")
	}

	start := h.now()
	info := domain.SampleInfo{
		RunID:       uuid.New(),
		Endpoint:    endpoint,
		Limit:       limit,
		HarvestedAt: start.UTC(),
	}
	h.debug("harvest started", "run_id", info.RunID, "endpoint", endpoint, "limit", limit)

	every := progressInterval(limit)
	reported := 0
	rows := make([]domain.Row, 0, min(limit, 1024))
	cols := newColumnSet()

	for rec, err := range h.source.ListRecords(ctx, endpoint) {
		if err != nil {
			return domain.Sample{}, h.fail(info, len(rows), err)
		}

		row := Flatten(rec)
		cols.observe(rec, row)
		rows = append(rows, row)

		if progress != nil && len(rows)%every == 0 {
			progress(len(rows), limit)
			reported = len(rows)
		}
		if len(rows) >= limit {
			break
		}
	}
	if err := ctx.Err(); err != nil {
		return domain.Sample{}, h.fail(info, len(rows), err)
	}
	if progress != nil && reported != len(rows) {
		progress(len(rows), limit)
	}

	elapsed := h.now().Sub(start)
	metrics.HarvestRecordsTotal.Add(float64(len(rows)))
	metrics.HarvestDuration.Observe(elapsed.Seconds())
	h.info("harvest finished", "run_id", info.RunID, "records", len(rows), "elapsed", elapsed)

	return domain.NewSample(info, cols.columns(), rows), nil
}

func (h *Harvester) fail(info domain.SampleInfo, consumed int, err error) error {
	metrics.HarvestFailuresTotal.Inc()
	if h.logger != nil {
		h.logger.Error("harvest failed", "run_id", info.RunID, "endpoint", info.Endpoint, "discarded", consumed, "error", err)
	}

	var te *domain.TransportError
	if errors.As(err, &te) {
		return err
	}
	return &domain.TransportError{Op: "harvest", Endpoint: info.Endpoint, Err: err}
}

// progressInterval reports at least every 10 records and at least once per 1% of limit.
func progressInterval(limit int) int {
	return max(1, min(10, limit/100))
}

func (h *Harvester) debug(msg string, args ...any) {
	if h.logger != nil {
		h.logger.Debug(msg, args...)
	}
}

func (h *Harvester) info(msg string, args ...any) {
	if h.logger != nil {
		h.logger.Info(msg, args...)
	}
}
