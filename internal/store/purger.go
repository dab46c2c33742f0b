package store

import (
	"context"
	"time"

	"github.com/fmuoria/interview-review-agent/internal/logger"
)

// Purger periodically deletes expired candidate records
type Purger struct {
	records  *Records
	interval time.Duration
}

// NewPurger creates a purger running every interval
func NewPurger(records *Records, interval time.Duration) *Purger {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Purger{records: records, interval: interval}
}

// Run purges once immediately and then on every tick until ctx is done
func (p *Purger) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.purgeOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (p *Purger) purgeOnce(ctx context.Context) {
	n, err := p.records.PurgeExpired(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logger.Error().Err(err).Msg("purging expired candidate records failed")
		}
		return
	}
	if n > 0 {
		logger.Info().Int64("deleted", n).Msg("purged expired candidate records")
	}
}
