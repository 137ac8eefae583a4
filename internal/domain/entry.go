package domain

import "time"

type EntryKind string

const (
	EntryMessage EntryKind = "message"
	EntryStop    EntryKind = "stop"
	EntryFailure EntryKind = "failure"
)

// Entry is one record of the shared conversation log. Entries are never
// modified after they are appended; Seq is the 1-based append position.
type Entry struct {
	Seq       int
	Author    PersonaID
	Kind      EntryKind
	Content   string
	Timestamp time.Time
}

func (e Entry) IsMessage() bool {
	return e.Kind == EntryMessage
}

// Turn is one of an agent's own past responses, kept privately by its loop.
type Turn struct {
	Content   string
	Timestamp time.Time
}
