package domain

import (
	"time"

	"github.com/google/uuid"
)

// SessionID identifies a stateful session. Values are UUID strings minted by NewSessionID.
type SessionID string

// NewSessionID mints a random (v4) session identity.
func NewSessionID() SessionID {
	return SessionID(uuid.NewString())
}

// Session is a stateful conversation with one bean. Affinity is a session affinity fixed when the
// session was opened and never changes for the session's lifetime. Node is the node that created the
// session and holds its state: calls through a cluster target go there first and fall back to the
// other members only while it cannot serve them.
type Session struct {
	ID        SessionID
	Bean      BeanIdentifier
	Affinity  Affinity
	Node      string
	CreatedAt time.Time
}
