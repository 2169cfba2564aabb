package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// ReactionKind names a vote type attached to a stored link. The set is closed
// so the per-user idempotence invariant stays enforceable.
type ReactionKind string

const (
	ReactionLike     ReactionKind = "like"
	ReactionThumbsUp ReactionKind = "thumbs_up"
)

// ReactionKinds lists all known kinds in rendering order.
var ReactionKinds = []ReactionKind{ReactionLike, ReactionThumbsUp}

// LinkRecord is the stored metadata for one normalized URL within one chat.
// Reactions maps a kind to (userID -> displayName); membership is unique per
// user per kind, so a repeat vote overwrites rather than accumulates.
type LinkRecord struct {
	MessageID  int                                `json:"message_id"`
	CreatedAt  time.Time                          `json:"created_at"`
	LastSeenAt time.Time                          `json:"last_seen_at"`
	Reactions  map[ReactionKind]map[string]string `json:"reactions,omitempty"`
}

// Voters returns the voter set for a kind, never nil.
func (r *LinkRecord) Voters(kind ReactionKind) map[string]string {
	if r.Reactions == nil {
		return map[string]string{}
	}
	if voters, ok := r.Reactions[kind]; ok {
		return voters
	}
	return map[string]string{}
}

// LinkStore keeps at most one LinkRecord per normalized URL per chat, JSON
// encoded as one field of the chat's hash. A nil engine puts the store into
// degraded mode: every operation returns ErrUnavailable.
type LinkStore struct {
	engine Store
	clock  clockwork.Clock
	log    zerolog.Logger
}

// NewLinkStore wraps the backing engine. engine may be nil (degraded mode).
func NewLinkStore(engine Store, clock clockwork.Clock, log zerolog.Logger) *LinkStore {
	return &LinkStore{
		engine: engine,
		clock:  clock,
		log:    log.With().Str("component", "linkstore").Logger(),
	}
}

// Available reports whether a backing engine is configured.
func (s *LinkStore) Available() bool {
	return s.engine != nil
}

func chatLinksKey(chatID int64) string {
	return fmt.Sprintf("chat:%d:links", chatID)
}

func chatCounterKey(chatID int64) string {
	return fmt.Sprintf("chat:%d:counter", chatID)
}

// Get returns the record stored for url, or ErrNotFound.
func (s *LinkStore) Get(ctx context.Context, chatID int64, url string) (*LinkRecord, error) {
	if s.engine == nil {
		return nil, ErrUnavailable
	}
	data, err := s.engine.HGet(ctx, chatLinksKey(chatID), url)
	if err != nil {
		return nil, err
	}
	var record LinkRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, errors.Wrap(err, "failed to decode link record")
	}
	return &record, nil
}

// Put writes a fresh record for url with the given origin message. It is an
// upsert: two near-simultaneous first-sightings of the same URL may both pass
// the duplicate check and both land here, in which case the later write wins.
// The outcome is still a single live record, only the origin message id is
// unpredictable; accepted at expected chat volumes.
func (s *LinkStore) Put(ctx context.Context, chatID int64, url string, messageID int) error {
	if s.engine == nil {
		return ErrUnavailable
	}
	now := s.clock.Now().UTC()
	record := LinkRecord{
		MessageID:  messageID,
		CreatedAt:  now,
		LastSeenAt: now,
	}
	data, err := json.Marshal(&record)
	if err != nil {
		return errors.Wrap(err, "failed to encode link record")
	}
	return s.engine.HSet(ctx, chatLinksKey(chatID), url, data)
}

// ListAll enumerates every record of a chat. Records that fail to decode are
// skipped with a log line so a poison record never blocks a sweep or a
// statistics run.
func (s *LinkStore) ListAll(ctx context.Context, chatID int64) (map[string]*LinkRecord, error) {
	if s.engine == nil {
		return nil, ErrUnavailable
	}
	raw, err := s.engine.HGetAll(ctx, chatLinksKey(chatID))
	if err != nil {
		return nil, err
	}
	records := make(map[string]*LinkRecord, len(raw))
	for url, data := range raw {
		var record LinkRecord
		if err := json.Unmarshal([]byte(data), &record); err != nil {
			s.log.Warn().Err(err).Int64("chat_id", chatID).Str("url", url).Msg("skipping malformed link record")
			continue
		}
		records[url] = &record
	}
	return records, nil
}

// Count returns the number of stored links for a chat.
func (s *LinkStore) Count(ctx context.Context, chatID int64) (int64, error) {
	if s.engine == nil {
		return 0, ErrUnavailable
	}
	return s.engine.HLen(ctx, chatLinksKey(chatID))
}

// DeleteMany removes the given urls in one batched call.
func (s *LinkStore) DeleteMany(ctx context.Context, chatID int64, urls []string) error {
	if s.engine == nil {
		return ErrUnavailable
	}
	if len(urls) == 0 {
		return nil
	}
	return s.engine.HDel(ctx, chatLinksKey(chatID), urls...)
}

// AddReaction records a vote of kind by userID on url, overwriting any earlier
// vote by the same user for the same kind. Returns false when no record exists
// for url.
//
// This is a read-modify-write without compare-and-swap: two concurrent
// reactions to the same URL can race and one update may be lost. Known and
// accepted at expected chat volumes.
func (s *LinkStore) AddReaction(ctx context.Context, chatID int64, url string, kind ReactionKind, userID int64, displayName string) (bool, error) {
	if s.engine == nil {
		return false, ErrUnavailable
	}
	record, err := s.Get(ctx, chatID, url)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if record.Reactions == nil {
		record.Reactions = make(map[ReactionKind]map[string]string)
	}
	if record.Reactions[kind] == nil {
		record.Reactions[kind] = make(map[string]string)
	}
	record.Reactions[kind][strconv.FormatInt(userID, 10)] = displayName

	data, err := json.Marshal(record)
	if err != nil {
		return false, errors.Wrap(err, "failed to encode link record")
	}
	if err := s.engine.HSet(ctx, chatLinksKey(chatID), url, data); err != nil {
		return false, err
	}
	return true, nil
}

// IncrCounter bumps the chat's processed-message counter and returns the new
// value. The counter is persisted so sweep cadence survives restarts.
func (s *LinkStore) IncrCounter(ctx context.Context, chatID int64) (int64, error) {
	if s.engine == nil {
		return 0, ErrUnavailable
	}
	return s.engine.Incr(ctx, chatCounterKey(chatID))
}

// ResetCounter sets the chat's counter back to zero.
func (s *LinkStore) ResetCounter(ctx context.Context, chatID int64) error {
	if s.engine == nil {
		return ErrUnavailable
	}
	return s.engine.Set(ctx, chatCounterKey(chatID), "0")
}
