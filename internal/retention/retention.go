// Package retention periodically deletes expired stories. Reads already
// exclude expired documents, so the sweep only reclaims storage.
package retention

import (
	"context"
	"log"
	"time"

	"github.com/nuumi-app/backend/internal/repositories"
)

// DefaultInterval is used when the configured interval fails to parse.
const DefaultInterval = 10 * time.Minute

// Sweeper deletes expired stories on a fixed interval
type Sweeper struct {
	storyRepository repositories.StoryRepository
	interval        time.Duration
}

// NewSweeper creates a sweeper. The interval is parsed from a duration
// string like "10m"; invalid values fall back to DefaultInterval.
func NewSweeper(storyRepo repositories.StoryRepository, interval string) *Sweeper {
	d, err := time.ParseDuration(interval)
	if err != nil || d <= 0 {
		d = DefaultInterval
	}
	return &Sweeper{storyRepository: storyRepo, interval: d}
}

// Run sweeps until the context is cancelled. Blocks, so run it in its
// own goroutine.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	deleted, err := s.storyRepository.DeleteExpiredStories(ctx)
	if err != nil {
		log.Printf("Story sweep failed: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("Story sweep removed %d expired stories", deleted)
	}
}
