package engine

import (
	"context"
	"fmt"

	"github.com/linkpatrol/linkpatrol/internal/transport"
)

const greeting = "🛡️ I'm an anti-duplicate link bot with persistent memory!\n\n" +
	"Add me to a group as an administrator with rights to:\n" +
	"• delete messages\n" +
	"• read message history\n\n" +
	"I remember every link, even across restarts, and I collect reaction stats per link."

// HandleCommand serves the user-facing commands.
func (e *Engine) HandleCommand(ctx context.Context, msg *transport.Message, command string) {
	if msg == nil {
		return
	}
	switch command {
	case "start":
		if msg.ChatType == transport.ChatTypePrivate {
			e.send(ctx, msg.ChatID, greeting)
		}
	case "status":
		e.handleStatus(ctx, msg)
	case "stats":
		e.handleStats(ctx, msg)
	}
}

func (e *Engine) handleStatus(ctx context.Context, msg *transport.Message) {
	if !e.links.Available() {
		e.send(ctx, msg.ChatID,
			"ℹ️ Running without persistent storage. Links are not remembered and duplicates are not detected.")
		return
	}
	count, err := e.links.Count(ctx, msg.ChatID)
	if err != nil {
		e.log.Error().Err(err).Int64("chat_id", msg.ChatID).Msg("failed to count links")
		return
	}
	days := int(e.cfg.Retention.Hours() / 24)
	e.send(ctx, msg.ChatID, fmt.Sprintf(
		"📊 <b>Storage status</b>\n\n• Links remembered: <b>%d</b>\n• Retention: %d days", count, days))
}

func (e *Engine) handleStats(ctx context.Context, msg *transport.Message) {
	summary, err := e.reactions.Summarize(ctx, msg.ChatID)
	if err != nil {
		e.log.Error().Err(err).Int64("chat_id", msg.ChatID).Msg("failed to build reaction stats")
		return
	}
	e.send(ctx, msg.ChatID, summary)
}

func (e *Engine) send(ctx context.Context, chatID int64, text string) {
	if _, err := e.transport.SendMessage(ctx, chatID, text, transport.SendOptions{DisableLinkPreview: true}); err != nil {
		e.log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to send message")
	}
}
