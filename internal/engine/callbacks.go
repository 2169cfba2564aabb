package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/linkpatrol/linkpatrol/internal/links"
	"github.com/linkpatrol/linkpatrol/internal/store"
	"github.com/linkpatrol/linkpatrol/internal/transport"
)

const callbackPrefix = "reaction"

// reactionCallbackData encodes a vote control: reaction_<kind>_<messageID>,
// where messageID is the message whose links the vote applies to.
func reactionCallbackData(kind store.ReactionKind, messageID int) string {
	short := "like"
	if kind == store.ReactionThumbsUp {
		short = "thumbs"
	}
	return fmt.Sprintf("%s_%s_%d", callbackPrefix, short, messageID)
}

func parseReactionCallback(data string) (store.ReactionKind, int, error) {
	parts := strings.Split(data, "_")
	if len(parts) != 3 || parts[0] != callbackPrefix {
		return "", 0, errors.Errorf("unrecognized callback data %q", data)
	}
	var kind store.ReactionKind
	switch parts[1] {
	case "like":
		kind = store.ReactionLike
	case "thumbs":
		kind = store.ReactionThumbsUp
	default:
		return "", 0, errors.Errorf("unknown reaction kind %q", parts[1])
	}
	messageID, err := strconv.Atoi(parts[2])
	if err != nil {
		return "", 0, errors.Wrapf(err, "bad message id in callback data %q", data)
	}
	return kind, messageID, nil
}

// HandleCallback processes an inline-control press: re-fetch the message the
// control points at, re-extract its links and record the vote on each.
func (e *Engine) HandleCallback(ctx context.Context, cb *transport.Callback) {
	if cb == nil {
		return
	}
	kind, messageID, err := parseReactionCallback(cb.Data)
	if err != nil {
		e.log.Warn().Err(err).Str("data", cb.Data).Msg("dropping malformed callback")
		e.answerCallback(ctx, cb.ID, "❌ Something went wrong")
		return
	}

	msg, err := e.transport.GetMessage(ctx, cb.ChatID, messageID)
	if err != nil {
		if !errors.Is(err, transport.ErrNotFound) {
			e.log.Warn().Err(err).Int64("chat_id", cb.ChatID).Int("message_id", messageID).Msg("failed to fetch voted message")
		}
		e.answerCallback(ctx, cb.ID, "❌ Links not found")
		return
	}
	targetURLs := links.Extract(msg)
	if len(targetURLs) == 0 {
		e.answerCallback(ctx, cb.ID, "❌ Links not found")
		return
	}

	for _, url := range targetURLs {
		if _, err := e.reactions.React(ctx, cb.ChatID, url, kind, cb.UserID, cb.UserName); err != nil {
			if !errors.Is(err, store.ErrUnavailable) {
				e.log.Warn().Err(err).Int64("chat_id", cb.ChatID).Str("url", url).Msg("failed to record reaction")
			}
		}
	}

	emoji := "❤️"
	if kind == store.ReactionThumbsUp {
		emoji = "👍"
	}
	e.answerCallback(ctx, cb.ID, emoji+" Your reaction has been counted!")

	// The control prompt has served its purpose once a vote lands.
	if err := e.transport.DeleteMessage(ctx, cb.ChatID, cb.MessageID); err != nil && !errors.Is(err, transport.ErrNotFound) {
		e.log.Warn().Err(err).Int64("chat_id", cb.ChatID).Int("message_id", cb.MessageID).Msg("failed to remove reaction prompt")
	}
}

func (e *Engine) answerCallback(ctx context.Context, callbackID, text string) {
	if err := e.transport.AnswerCallback(ctx, callbackID, text); err != nil {
		e.log.Warn().Err(err).Msg("failed to answer callback")
	}
}
