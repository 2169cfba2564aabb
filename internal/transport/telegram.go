package transport

import (
	"context"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// messageCacheTTL bounds how long a message stays resolvable through
// GetMessage. Inline controls older than this answer with "not found".
const messageCacheTTL = 24 * time.Hour

const pollTimeoutSeconds = 30

// Telegram adapts the Telegram Bot API to the Transport interface.
//
// The Bot API has no call to fetch an arbitrary message, so GetMessage is
// served from a TTL cache of messages the adapter has already seen.
type Telegram struct {
	api   *tgbotapi.BotAPI
	cache *messageCache
	log   zerolog.Logger
}

// NewTelegram authenticates against the Bot API with the given token.
func NewTelegram(token string, log zerolog.Logger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, errors.Wrap(err, "failed to authenticate bot")
	}
	return &Telegram{
		api:   api,
		cache: newMessageCache(messageCacheTTL),
		log:   log.With().Str("component", "telegram").Logger(),
	}, nil
}

// SelfID returns the bot's own user id.
func (t *Telegram) SelfID() int64 {
	return t.api.Self.ID
}

// BotUsername returns the authenticated bot's username.
func (t *Telegram) BotUsername() string {
	return t.api.Self.UserName
}

// Run long-polls for updates and dispatches each one on its own goroutine
// until ctx is canceled.
func (t *Telegram) Run(ctx context.Context, h Handler) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeoutSeconds
	updates := t.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			t.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go t.dispatch(ctx, h, update)
		}
	}
}

func (t *Telegram) dispatch(ctx context.Context, h Handler, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		msg := fromTelegramMessage(update.Message)
		t.cache.put(msg)
		if update.Message.IsCommand() {
			h.HandleCommand(ctx, msg, update.Message.Command())
		} else {
			h.HandleMessage(ctx, msg)
		}
	case update.CallbackQuery != nil:
		cb := fromTelegramCallback(update.CallbackQuery)
		if cb != nil {
			h.HandleCallback(ctx, cb)
		}
	}
}

// DeleteMessage removes a message from a chat.
func (t *Telegram) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	_, err := t.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID))
	return mapTelegramError(err)
}

// SendMessage posts a standalone HTML-formatted message.
func (t *Telegram) SendMessage(ctx context.Context, chatID int64, text string, opts SendOptions) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = opts.DisableLinkPreview

	sent, err := t.api.Send(msg)
	if err != nil {
		return 0, mapTelegramError(err)
	}
	return sent.MessageID, nil
}

// Reply posts a message referencing toMessageID, with optional inline controls
// rendered as a single keyboard row.
func (t *Telegram) Reply(ctx context.Context, chatID int64, toMessageID int, text string, buttons []Button) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyToMessageID = toMessageID
	if len(buttons) > 0 {
		row := make([]tgbotapi.InlineKeyboardButton, 0, len(buttons))
		for _, b := range buttons {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.CallbackData))
		}
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(row)
	}

	sent, err := t.api.Send(msg)
	if err != nil {
		return 0, mapTelegramError(err)
	}
	return sent.MessageID, nil
}

// AnswerCallback acknowledges an inline-control press.
func (t *Telegram) AnswerCallback(ctx context.Context, callbackID, text string) error {
	_, err := t.api.Request(tgbotapi.NewCallback(callbackID, text))
	return mapTelegramError(err)
}

// GetMessage serves a previously seen message from the adapter cache.
func (t *Telegram) GetMessage(ctx context.Context, chatID int64, messageID int) (*Message, error) {
	if msg, ok := t.cache.get(chatID, messageID); ok {
		return msg, nil
	}
	return nil, ErrNotFound
}

// fromTelegramMessage converts a Bot API message into the transport-neutral
// model, one reply level deep.
func fromTelegramMessage(m *tgbotapi.Message) *Message {
	if m == nil {
		return nil
	}
	msg := &Message{
		ChatID:          m.Chat.ID,
		MessageID:       m.MessageID,
		ChatType:        m.Chat.Type,
		ChannelPost:     m.From == nil || m.SenderChat != nil,
		Text:            m.Text,
		Caption:         m.Caption,
		Entities:        fromTelegramEntities(m.Entities),
		CaptionEntities: fromTelegramEntities(m.CaptionEntities),
	}
	if m.From != nil {
		msg.SenderID = m.From.ID
		msg.SenderName = m.From.UserName
	}
	if m.ReplyToMessage != nil {
		reply := *m.ReplyToMessage
		reply.ReplyToMessage = nil // one level is enough
		msg.ReplyTo = fromTelegramMessage(&reply)
	}
	return msg
}

func fromTelegramEntities(entities []tgbotapi.MessageEntity) []Entity {
	if len(entities) == 0 {
		return nil
	}
	out := make([]Entity, 0, len(entities))
	for _, e := range entities {
		out = append(out, Entity{
			Type:   e.Type,
			Offset: e.Offset,
			Length: e.Length,
			URL:    e.URL,
		})
	}
	return out
}

func fromTelegramCallback(q *tgbotapi.CallbackQuery) *Callback {
	if q == nil || q.Message == nil || q.From == nil {
		return nil
	}
	return &Callback{
		ID:        q.ID,
		ChatID:    q.Message.Chat.ID,
		MessageID: q.Message.MessageID,
		Data:      q.Data,
		UserID:    q.From.ID,
		UserName:  q.From.UserName,
	}
}

// mapTelegramError translates Bot API failures into the transport sentinels.
func mapTelegramError(err error) error {
	if err == nil {
		return nil
	}
	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) {
		msg := strings.ToLower(tgErr.Message)
		switch {
		case tgErr.Code == 403,
			strings.Contains(msg, "not enough rights"),
			strings.Contains(msg, "message can't be deleted"):
			return ErrPermissionDenied
		case strings.Contains(msg, "message to delete not found"),
			strings.Contains(msg, "message not found"):
			return ErrNotFound
		}
	}
	return errors.Wrap(err, "telegram request failed")
}
