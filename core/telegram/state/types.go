package state

import "time"

// State identifies a conversation step.
type State string

const (
	// StateIdle indicates there is no active conversation with the user.
	StateIdle State = "idle"
)

// Session stores conversation state and temporary data for a user.
type Session struct {
	State    State
	TempData map[string]any
	// Touched is the last time the session was read or written through the manager.
	Touched time.Time
}

// Manager orchestrates user sessions and state transitions.
type Manager interface {
	SetTemp(userID int64, key string, value any)
	GetTemp(userID int64, key string) (any, bool)
	GetTempString(userID int64, key string) (string, bool)
	ClearTemp(userID int64, key string)
	Clear(userID int64)

	SetState(userID int64, st State)
	GetState(userID int64) State
	HasState(userID int64) bool
	InProgress(userID int64) bool

	// Sweep drops sessions idle for longer than maxIdle and reports how many were removed.
	Sweep(maxIdle time.Duration) int
	Len() int
}
