// Package retention expires stale link records. Instead of per-record timers
// or a scan on every message, a persisted per-chat counter triggers one
// batched sweep every threshold messages, amortizing the cost independently of
// chat volume.
package retention

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/linkpatrol/linkpatrol/internal/store"
)

// Defaults match the production deployment: one sweep per 365 messages,
// records kept for 365 days.
const (
	DefaultThreshold = 365
	DefaultWindow    = 365 * 24 * time.Hour
)

// Sweeper drives amortized expiry for all chats.
type Sweeper struct {
	links     *store.LinkStore
	threshold int64
	window    time.Duration
	clock     clockwork.Clock
	log       zerolog.Logger
}

// New creates a sweeper that fires every threshold counted messages and drops
// records older than window. Age is measured from record creation time;
// reactions and later sightings do not extend retention.
func New(links *store.LinkStore, threshold int64, window time.Duration, clock clockwork.Clock, log zerolog.Logger) *Sweeper {
	return &Sweeper{
		links:     links,
		threshold: threshold,
		window:    window,
		clock:     clock,
		log:       log.With().Str("component", "sweeper").Logger(),
	}
}

// MaybeSweep bumps the chat's message counter and runs a sweep once the
// counter reaches the threshold. All failures are logged and swallowed:
// retention must never break message processing.
func (s *Sweeper) MaybeSweep(ctx context.Context, chatID int64) {
	count, err := s.links.IncrCounter(ctx, chatID)
	if err != nil {
		if !errors.Is(err, store.ErrUnavailable) {
			s.log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to increment sweep counter")
		}
		return
	}
	if count < s.threshold {
		return
	}
	if err := s.links.ResetCounter(ctx, chatID); err != nil {
		s.log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to reset sweep counter")
	}
	s.sweep(ctx, chatID)
}

func (s *Sweeper) sweep(ctx context.Context, chatID int64) {
	records, err := s.links.ListAll(ctx, chatID)
	if err != nil {
		s.log.Error().Err(err).Int64("chat_id", chatID).Msg("sweep aborted: failed to list records")
		return
	}

	now := s.clock.Now()
	var expired []string
	for url, record := range records {
		if now.Sub(record.CreatedAt) > s.window {
			expired = append(expired, url)
		}
	}
	if len(expired) == 0 {
		return
	}

	if err := s.links.DeleteMany(ctx, chatID, expired); err != nil {
		s.log.Error().Err(err).Int64("chat_id", chatID).Msg("sweep failed to delete expired records")
		return
	}
	s.log.Info().Int64("chat_id", chatID).Int("expired", len(expired)).Msg("swept expired links")
}
