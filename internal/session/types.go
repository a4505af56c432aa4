package session

import (
	"sync"
	"time"

	"github.com/bowerhall/albumbot/internal/media"
)

// State tags the user's position in the collect-confirm conversation.
type State int

const (
	Idle State = iota
	CollectingPhotos
	AwaitingText
	AwaitingBroadcastText
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case CollectingPhotos:
		return "collecting_photos"
	case AwaitingText:
		return "awaiting_text"
	case AwaitingBroadcastText:
		return "awaiting_broadcast_text"
	default:
		return "unknown"
	}
}

// Session holds one user's conversation state. All fields are guarded
// by the handling lock: every event for the user (messages, button
// presses, group settle timers) runs under Acquire/Release, so one
// user's events are processed strictly one at a time.
type Session struct {
	handling sync.Mutex

	State      State
	Photos     []media.Ref
	Caption    string
	PromptSent bool
	// PromptMsgID is the transport handle of the last choice prompt,
	// kept so the prompt can be deleted when a button is pressed.
	PromptMsgID int

	// Groups buffers multi-photo bursts until they settle.
	Groups *media.Aggregator

	LastActivity time.Time
}

type Store struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}
