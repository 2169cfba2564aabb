package transport

import (
	"context"

	"github.com/pkg/errors"
)

// Sentinel errors the engine branches on. Adapter implementations map their
// platform's error codes onto these.
var (
	// ErrNotFound means the target message no longer exists (or was never seen).
	ErrNotFound = errors.New("transport: message not found")
	// ErrPermissionDenied means the bot lacks the rights for the operation,
	// typically message deletion without admin permissions.
	ErrPermissionDenied = errors.New("transport: permission denied")
)

// Entity span types as reported by the chat platform.
const (
	EntityURL      = "url"       // the span slices the raw text
	EntityTextLink = "text_link" // the span carries its own target URL
)

// Entity is a rich-text annotation over a byte range of a message.
// Offset and Length are measured in UTF-16 code units (Telegram convention).
type Entity struct {
	Type   string
	Offset int
	Length int
	URL    string
}

// ChatTypePrivate marks one-on-one chats; reaction solicitation is skipped there.
const ChatTypePrivate = "private"

// Message is the transport-neutral view of an inbound chat message.
type Message struct {
	ChatID          int64
	MessageID       int
	SenderID        int64
	SenderName      string
	ChatType        string
	ChannelPost     bool
	Text            string
	Caption         string
	Entities        []Entity
	CaptionEntities []Entity
	ReplyTo         *Message
}

// Callback is an inline-control press delivered by the chat platform.
type Callback struct {
	ID        string
	ChatID    int64
	MessageID int // the message the control is attached to
	Data      string
	UserID    int64
	UserName  string
}

// SendOptions tweaks outgoing messages.
type SendOptions struct {
	DisableLinkPreview bool
}

// Button is an inline control attached to a reply.
type Button struct {
	Label        string
	CallbackData string
}

// Transport is the narrow chat-platform surface the moderation engine consumes.
type Transport interface {
	// DeleteMessage removes a message. Returns ErrPermissionDenied when the
	// bot lacks delete rights and ErrNotFound when the message is already gone.
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	// SendMessage posts a standalone message and returns its id.
	SendMessage(ctx context.Context, chatID int64, text string, opts SendOptions) (int, error)
	// Reply posts a message referencing another one, optionally with inline controls.
	Reply(ctx context.Context, chatID int64, toMessageID int, text string, buttons []Button) (int, error)
	// AnswerCallback acknowledges an inline-control press with a short notice.
	AnswerCallback(ctx context.Context, callbackID, text string) error
	// GetMessage re-fetches a previously seen message, or ErrNotFound.
	GetMessage(ctx context.Context, chatID int64, messageID int) (*Message, error)
	// SelfID is the bot's own user id, used to skip self-messages.
	SelfID() int64
}

// Handler receives dispatched updates. Each call runs on its own goroutine.
type Handler interface {
	HandleMessage(ctx context.Context, msg *Message)
	HandleCommand(ctx context.Context, msg *Message, command string)
	HandleCallback(ctx context.Context, cb *Callback)
}
