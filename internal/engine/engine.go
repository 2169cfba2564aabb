// Package engine orchestrates message moderation: extract links, detect and
// remove reposts, store first sightings, trigger retention sweeps and collect
// reactions.
package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/linkpatrol/linkpatrol/internal/links"
	"github.com/linkpatrol/linkpatrol/internal/reactions"
	"github.com/linkpatrol/linkpatrol/internal/retention"
	"github.com/linkpatrol/linkpatrol/internal/store"
	"github.com/linkpatrol/linkpatrol/internal/transport"
)

// Config carries the engine's tunables.
type Config struct {
	// WarnTTL is how long a duplicate warning stays before auto-deletion.
	WarnTTL time.Duration
	// ConfirmTTL is how long reaction confirmations stay.
	ConfirmTTL time.Duration
	// Retention is the record lifetime, used in user-facing status text.
	Retention time.Duration
}

// Engine processes one inbound message at a time; every path through
// HandleMessage terminates the processing of that message, and no state is
// shared across messages beyond what the store persists.
type Engine struct {
	transport transport.Transport
	links     *store.LinkStore
	sweeper   *retention.Sweeper
	reactions *reactions.Aggregator
	scheduler *Scheduler
	cfg       Config
	log       zerolog.Logger
}

// New wires the engine from its collaborators.
func New(
	t transport.Transport,
	linkStore *store.LinkStore,
	sweeper *retention.Sweeper,
	aggregator *reactions.Aggregator,
	scheduler *Scheduler,
	cfg Config,
	log zerolog.Logger,
) *Engine {
	return &Engine{
		transport: t,
		links:     linkStore,
		sweeper:   sweeper,
		reactions: aggregator,
		scheduler: scheduler,
		cfg:       cfg,
		log:       log.With().Str("component", "engine").Logger(),
	}
}

// HandleMessage runs the per-message state machine.
func (e *Engine) HandleMessage(ctx context.Context, msg *transport.Message) {
	if msg == nil || msg.ChannelPost || msg.SenderID == e.transport.SelfID() {
		return
	}

	urls := links.Extract(msg)
	if len(urls) == 0 {
		e.handleReactionIntent(ctx, msg)
		return
	}

	if !e.links.Available() {
		// Degraded mode: no duplicate detection, no storage, pass through.
		return
	}

	dupURL, origin, found := e.findDuplicate(ctx, msg.ChatID, urls)
	if found {
		e.handleDuplicate(ctx, msg, dupURL, origin)
		return
	}

	stored := 0
	for _, url := range urls {
		if err := e.links.Put(ctx, msg.ChatID, url, msg.MessageID); err != nil {
			e.log.Error().Err(err).Int64("chat_id", msg.ChatID).Str("url", url).Msg("failed to store link")
			continue
		}
		stored++
	}
	if stored == 0 {
		return
	}
	e.log.Info().Int64("chat_id", msg.ChatID).Int("links", stored).Msg("stored new links")

	e.sweeper.MaybeSweep(ctx, msg.ChatID)

	if msg.ChatType != transport.ChatTypePrivate {
		e.solicitReactions(ctx, msg)
	}
}

// findDuplicate scans the extracted URLs in order and returns the first one
// with an existing record. The scan stops at the first hit: ties among several
// duplicate candidates in one message resolve to extraction order.
func (e *Engine) findDuplicate(ctx context.Context, chatID int64, urls []string) (string, *store.LinkRecord, bool) {
	for _, url := range urls {
		record, err := e.links.Get(ctx, chatID, url)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				e.log.Error().Err(err).Int64("chat_id", chatID).Str("url", url).Msg("duplicate lookup failed")
			}
			continue
		}
		return url, record, true
	}
	return "", nil, false
}

// handleDuplicate deletes the repost and points back at the original. A
// missing delete permission aborts the path with an admin-visible warning;
// any other delete failure just ends processing of this message.
func (e *Engine) handleDuplicate(ctx context.Context, msg *transport.Message, url string, origin *store.LinkRecord) {
	err := e.transport.DeleteMessage(ctx, msg.ChatID, msg.MessageID)
	switch {
	case errors.Is(err, transport.ErrPermissionDenied):
		e.log.Error().Int64("chat_id", msg.ChatID).Msg("missing delete permission")
		if _, replyErr := e.transport.Reply(ctx, msg.ChatID, msg.MessageID,
			"⚠️ I don't have permission to delete messages! Please check my admin rights.", nil); replyErr != nil {
			e.log.Error().Err(replyErr).Int64("chat_id", msg.ChatID).Msg("failed to send permission warning")
		}
		return
	case err != nil:
		e.log.Error().Err(err).Int64("chat_id", msg.ChatID).Int("message_id", msg.MessageID).Msg("failed to delete duplicate")
		return
	}

	text := fmt.Sprintf(
		"👮 <b>Duplicate link detected!</b>\n\n"+
			"This link has already been shared here:\n<code>%s</code>\n\n"+
			"<a href=\"%s\">→ Jump to the original</a>",
		url, originLink(msg.ChatID, origin.MessageID),
	)
	warnID, err := e.transport.SendMessage(ctx, msg.ChatID, text, transport.SendOptions{DisableLinkPreview: true})
	if err != nil {
		e.log.Error().Err(err).Int64("chat_id", msg.ChatID).Msg("failed to send duplicate warning")
		return
	}
	e.scheduler.DeleteAfter(e.transport, msg.ChatID, warnID, e.cfg.WarnTTL)
}

// solicitReactions attaches like/thumbs-up controls to a freshly stored link.
func (e *Engine) solicitReactions(ctx context.Context, msg *transport.Message) {
	buttons := []transport.Button{
		{Label: "❤️ Like", CallbackData: reactionCallbackData(store.ReactionLike, msg.MessageID)},
		{Label: "👍 Thumbs up", CallbackData: reactionCallbackData(store.ReactionThumbsUp, msg.MessageID)},
	}
	if _, err := e.transport.Reply(ctx, msg.ChatID, msg.MessageID, "Rate this link:", buttons); err != nil {
		e.log.Warn().Err(err).Int64("chat_id", msg.ChatID).Msg("failed to attach reaction controls")
	}
}

// handleReactionIntent treats a link-less reply carrying reaction text as a
// vote on the links of the replied-to message.
func (e *Engine) handleReactionIntent(ctx context.Context, msg *transport.Message) {
	if msg.ReplyTo == nil {
		return
	}
	kind, ok := reactionIntent(msg.Text)
	if !ok {
		return
	}
	targetURLs := links.Extract(msg.ReplyTo)
	if len(targetURLs) == 0 {
		return
	}

	recorded := false
	for _, url := range targetURLs {
		added, err := e.reactions.React(ctx, msg.ChatID, url, kind, msg.SenderID, msg.SenderName)
		if err != nil {
			if !errors.Is(err, store.ErrUnavailable) {
				e.log.Warn().Err(err).Int64("chat_id", msg.ChatID).Str("url", url).Msg("failed to record reaction")
			}
			continue
		}
		recorded = recorded || added
	}
	if !recorded {
		return
	}

	confirmID, err := e.transport.Reply(ctx, msg.ChatID, msg.MessageID, "✅ Your reaction has been counted!", nil)
	if err != nil {
		e.log.Warn().Err(err).Int64("chat_id", msg.ChatID).Msg("failed to confirm reaction")
		return
	}
	e.scheduler.DeleteAfter(e.transport, msg.ChatID, confirmID, e.cfg.ConfirmTTL)
}

// reactionIntent classifies reply text as a vote. Likes are checked first.
func reactionIntent(text string) (store.ReactionKind, bool) {
	t := strings.ToLower(strings.TrimSpace(text))
	switch {
	case t == "like", t == "❤️", strings.Contains(t, "❤"):
		return store.ReactionLike, true
	case strings.Contains(t, "👍"), strings.Contains(t, "thumb"), t == "+1":
		return store.ReactionThumbsUp, true
	}
	return "", false
}

// originLink builds a t.me deep link to a message. Supergroup chat ids carry a
// -100 prefix that the /c/ link format omits.
func originLink(chatID int64, messageID int) string {
	part := strconv.FormatInt(chatID, 10)
	part = strings.TrimPrefix(part, "-100")
	return fmt.Sprintf("https://t.me/c/%s/%d", part, messageID)
}
