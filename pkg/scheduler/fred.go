package scheduler

import (
	"context"
	"fmt"
	"log"

	"github.com/DONECHAE/Daegu2025/pkg/core/fred"
	"github.com/DONECHAE/Daegu2025/pkg/core/store"
)

// FredScheduler keeps the macro series tables current: the 10-year treasury
// yield and PCE inflation, each appended incrementally from the last stored
// observation date.
type FredScheduler struct {
	client         *fred.Client
	treasurySeries string
	pceSeries      string
	treasury       *store.SeriesRepo
	pce            *store.SeriesRepo
}

// NewFredScheduler wires the macro series job.
func NewFredScheduler(client *fred.Client, treasurySeries, pceSeries string) *FredScheduler {
	return &FredScheduler{
		client:         client,
		treasurySeries: treasurySeries,
		pceSeries:      pceSeries,
		treasury:       store.NewTreasuryRepo(),
		pce:            store.NewPCERepo(),
	}
}

// Run updates both series. A failure on one series does not block the other.
func (s *FredScheduler) Run(ctx context.Context) error {
	log.Printf("[FRED] scheduler start")

	var firstErr error
	for _, job := range []struct {
		series string
		repo   *store.SeriesRepo
	}{
		{s.treasurySeries, s.treasury},
		{s.pceSeries, s.pce},
	} {
		if err := s.updateSeries(ctx, job.series, job.repo); err != nil {
			log.Printf("[FRED] %s update failed: %v", job.series, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	log.Printf("[FRED] scheduler done")
	return firstErr
}

func (s *FredScheduler) updateSeries(ctx context.Context, seriesID string, repo *store.SeriesRepo) error {
	latest, err := repo.LatestDate(ctx)
	if err != nil {
		return fmt.Errorf("failed to read latest date: %w", err)
	}

	obs, err := s.client.Observations(ctx, seriesID, latest)
	if err != nil {
		return fmt.Errorf("failed to fetch observations: %w", err)
	}
	if len(obs) == 0 {
		log.Printf("[FRED] %s is up to date", seriesID)
		return nil
	}

	if err := repo.InsertObservations(ctx, obs); err != nil {
		return fmt.Errorf("failed to insert observations: %w", err)
	}
	log.Printf("[FRED] %s appended %d observations", seriesID, len(obs))
	return nil
}
