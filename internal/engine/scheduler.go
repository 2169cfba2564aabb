package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/linkpatrol/linkpatrol/internal/transport"
)

const deleteTimeout = 10 * time.Second

// Scheduler runs fire-and-forget delayed message deletions. Jobs are not
// cancellable; a target that is already gone counts as done, not as a failure.
type Scheduler struct {
	clock clockwork.Clock
	log   zerolog.Logger
}

// NewScheduler creates a scheduler on the given clock.
func NewScheduler(clock clockwork.Clock, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		clock: clock,
		log:   log.With().Str("component", "scheduler").Logger(),
	}
}

// DeleteAfter deletes a message once delay has elapsed. The job runs detached;
// process shutdown does not wait for it.
func (s *Scheduler) DeleteAfter(t transport.Transport, chatID int64, messageID int, delay time.Duration) {
	jobID := uuid.NewString()
	s.log.Debug().
		Str("job_id", jobID).
		Int64("chat_id", chatID).
		Int("message_id", messageID).
		Dur("delay", delay).
		Msg("scheduled delayed deletion")

	go func() {
		<-s.clock.After(delay)

		ctx, cancel := context.WithTimeout(context.Background(), deleteTimeout)
		defer cancel()

		err := t.DeleteMessage(ctx, chatID, messageID)
		switch {
		case err == nil, errors.Is(err, transport.ErrNotFound):
			s.log.Debug().Str("job_id", jobID).Int("message_id", messageID).Msg("delayed deletion done")
		default:
			s.log.Warn().Err(err).Str("job_id", jobID).Int("message_id", messageID).Msg("delayed deletion failed")
		}
	}()
}
