package flow

import (
	"time"

	"github.com/bowerhall/albumbot/internal/media"
	"github.com/bowerhall/albumbot/internal/messages"
	"github.com/bowerhall/albumbot/internal/registry"
	"github.com/bowerhall/albumbot/internal/session"
	"github.com/bowerhall/albumbot/internal/stats"
)

type EventKind int

const (
	EventCommand EventKind = iota
	EventText
	EventPhoto
	EventCallback
)

// Event is one inbound occurrence from the transport: a command, a
// text message, a photo attachment, or an inline button press.
type Event struct {
	Kind     EventKind
	UserID   int64
	Username string
	FullName string

	Command string
	Text    string

	Photo   media.Ref
	GroupID media.GroupID

	// Callback press: the button's ID plus the handle of the message
	// carrying the buttons, so the prompt can be withdrawn.
	CallbackID  string
	PromptMsgID int
}

// Button callback IDs understood by the machine.
const (
	CallbackSendAlbum = "send_album"
	CallbackWriteText = "write_text"
)

type Button struct {
	Label      string
	CallbackID string
}

// Transport is the outbound side of the chat gateway.
type Transport interface {
	SendText(chatID int64, text string) error
	SendMenu(chatID int64, text string, buttons []string) error
	SendWithButtons(chatID int64, text string, buttons []Button) (messageID int, err error)
	SendAlbum(chatID int64, refs []media.Ref, caption string) error
	DeleteMessage(chatID int64, messageID int) error
}

// Registry is the durable user store.
type Registry interface {
	Get(userID int64) (*registry.UserRecord, error)
	Put(rec registry.UserRecord) error
	ListAll() ([]int64, error)
	Count() (int, error)
}

// Archiver copies a sent album to long-term storage, best-effort.
type Archiver interface {
	Archive(userID int64, refs []media.Ref)
}

// Machine drives per-user sessions: it owns the session store, feeds
// photo arrivals to each session's aggregator, and turns settled
// batches and user choices into outbound sends.
type Machine struct {
	sessions  *session.Store
	registry  Registry
	transport Transport
	msgs      messages.Messages

	adminID int64
	window  time.Duration

	archiver Archiver
	newTimer media.NewTimer
	now      func() time.Time
	snapshot func() stats.Snapshot
}
