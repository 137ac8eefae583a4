package application

import (
	"fmt"

	"github.com/bnema/agent-council/internal/domain"
	"github.com/bnema/agent-council/internal/ports"
)

type logOp int

const (
	logOpAppend logOp = iota
	logOpRecent
	logOpEntries
	logOpClose
)

type logRequest struct {
	op        logOp
	author    domain.PersonaID
	kind      domain.EntryKind
	content   string
	n         int
	excluding domain.PersonaID
	reply     chan logReply
}

type logReply struct {
	entry   domain.Entry
	entries []domain.Entry
	err     error
}

// ConversationLog is the shared, append-only record every agent reads and
// writes. A single owner goroutine holds the entries and serves requests
// over a channel, so readers never see a half-appended entry.
type ConversationLog struct {
	requests chan logRequest
	done     chan struct{}
	frozen   []domain.Entry
}

func NewConversationLog(clock ports.Clock) *ConversationLog {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	l := &ConversationLog{
		requests: make(chan logRequest),
		done:     make(chan struct{}),
	}
	go l.own(clock)

	return l
}

func (l *ConversationLog) own(clock ports.Clock) {
	entries := make([]domain.Entry, 0, 32)

	for req := range l.requests {
		switch req.op {
		case logOpAppend:
			timestamp := clock.Now()
			if n := len(entries); n > 0 && timestamp.Before(entries[n-1].Timestamp) {
				timestamp = entries[n-1].Timestamp
			}
			entry := domain.Entry{
				Seq:       len(entries) + 1,
				Author:    req.author,
				Kind:      req.kind,
				Content:   req.content,
				Timestamp: timestamp,
			}
			entries = append(entries, entry)
			req.reply <- logReply{entry: entry}
		case logOpRecent:
			req.reply <- logReply{entries: recentExcluding(entries, req.n, req.excluding)}
		case logOpEntries:
			req.reply <- logReply{entries: cloneEntries(entries)}
		case logOpClose:
			l.frozen = entries
			close(l.done)
			req.reply <- logReply{}
			return
		}
	}
}

func (l *ConversationLog) call(req logRequest) (logReply, bool) {
	req.reply = make(chan logReply, 1)

	select {
	case l.requests <- req:
		return <-req.reply, true
	case <-l.done:
		return logReply{}, false
	}
}

// Append records content under author and returns the stored entry.
func (l *ConversationLog) Append(author domain.PersonaID, kind domain.EntryKind, content string) (domain.Entry, error) {
	reply, ok := l.call(logRequest{op: logOpAppend, author: author, kind: kind, content: content})
	if !ok {
		return domain.Entry{}, fmt.Errorf("append entry for %s: %w", author, domain.ErrLogClosed)
	}

	return reply.entry, nil
}

// Recent returns up to n of the newest entries not written by excluding,
// oldest first.
func (l *ConversationLog) Recent(n int, excluding domain.PersonaID) []domain.Entry {
	reply, ok := l.call(logRequest{op: logOpRecent, n: n, excluding: excluding})
	if !ok {
		return recentExcluding(l.frozen, n, excluding)
	}

	return reply.entries
}

func (l *ConversationLog) Entries() []domain.Entry {
	reply, ok := l.call(logRequest{op: logOpEntries})
	if !ok {
		return cloneEntries(l.frozen)
	}

	return reply.entries
}

// Close freezes the log. Later appends fail with ErrLogClosed; reads keep
// returning the frozen sequence. Close is idempotent.
func (l *ConversationLog) Close() {
	l.call(logRequest{op: logOpClose})
}

func recentExcluding(entries []domain.Entry, n int, excluding domain.PersonaID) []domain.Entry {
	if n <= 0 {
		return []domain.Entry{}
	}

	result := make([]domain.Entry, 0, n)
	for i := len(entries) - 1; i >= 0 && len(result) < n; i-- {
		if entries[i].Author == excluding {
			continue
		}
		result = append(result, entries[i])
	}

	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}

	return result
}

func cloneEntries(entries []domain.Entry) []domain.Entry {
	result := make([]domain.Entry, len(entries))
	copy(result, entries)
	return result
}
