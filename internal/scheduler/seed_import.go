// Package scheduler runs the periodic seed-file importer that fills a
// fresh deployment's bookmark list. It reloads on a timer and on a
// manual trigger channel fed by the reload endpoint.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/smartmark/smartmark/internal/logger"
	"github.com/smartmark/smartmark/internal/sources/seedfile"
	"github.com/smartmark/smartmark/internal/store"
)

// SeedImporter periodically imports the seed file for a fixed owner.
// Entries are deduplicated by URL against the owner's existing
// bookmarks, so re-imports are idempotent.
type SeedImporter struct {
	loader        *seedfile.Loader
	store         store.Store
	ownerID       string
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

func NewSeedImporter(
	seedFile string,
	st store.Store,
	ownerID string,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *SeedImporter {
	return &SeedImporter{
		loader:        seedfile.NewLoader(seedFile),
		store:         st,
		ownerID:       ownerID,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start performs an initial import and launches the periodic loop.
func (s *SeedImporter) Start(ctx context.Context) error {
	if err := s.Import(ctx); err != nil {
		return fmt.Errorf("initial seed import failed: %w", err)
	}

	ticker := time.NewTicker(s.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := s.Import(ctx); err != nil {
					s.logger.Error("scheduled seed import failed", logger.Error(err))
				}
			case <-s.manualTrigger:
				s.logger.Info("manual seed import triggered")
				if err := s.Import(ctx); err != nil {
					s.logger.Error("manual seed import failed", logger.Error(err))
				}
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop halts the periodic loop.
func (s *SeedImporter) Stop() {
	close(s.stopCh)
}

// Import loads the seed file and inserts entries the owner does not have
// yet. Inserts go through the store, so live sessions pick new seed
// bookmarks up through the normal change-event stream.
func (s *SeedImporter) Import(ctx context.Context) error {
	seed, err := s.loader.Load()
	if err != nil {
		return err
	}

	entries, err := seedfile.Map(seed)
	if err != nil {
		return err
	}

	existing, err := s.store.ListByOwner(ctx, s.ownerID)
	if err != nil {
		return fmt.Errorf("failed to list existing bookmarks: %w", err)
	}
	seen := make(map[string]struct{}, len(existing))
	for _, b := range existing {
		seen[b.URL] = struct{}{}
	}

	imported := 0
	for _, e := range entries {
		if _, ok := seen[e.URL]; ok {
			continue
		}
		if _, err := s.store.Insert(ctx, s.ownerID, e.Title, e.URL); err != nil {
			s.logger.Warn("failed to import seed bookmark",
				logger.String("url", e.URL),
				logger.Error(err))
			continue
		}
		seen[e.URL] = struct{}{}
		imported++
	}

	if imported > 0 {
		s.logger.Info("seed import completed",
			logger.Int("imported", imported),
			logger.Int("total_entries", len(entries)))
	} else {
		s.logger.Debug("seed import found nothing new")
	}

	return nil
}
