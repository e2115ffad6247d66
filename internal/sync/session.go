// Package sync holds the client-session reconciliation core: ordered
// message history with idempotent merge, unread counters, optimistic
// relation toggles with rollback, and the comment reply tree. Everything
// here is pure in-memory state driven by the caller; network and storage
// stay behind small interfaces.
package sync

import (
	stdsync "sync"

	"github.com/nuumi-app/backend/internal/models"
)

// Session is the local view state of one mounted conversation. Messages
// merge idempotently by ID, so a change event arriving for a message the
// session already inserted optimistically (or fetched in the initial
// load) leaves exactly one entry.
type Session struct {
	mu       stdsync.Mutex
	selfID   uint
	closed   bool
	messages []models.Message
	index    map[uint]bool
	unread   int64
}

// NewSession creates a session for the given user
func NewSession(selfID uint) *Session {
	return &Session{
		selfID: selfID,
		index:  make(map[uint]bool),
	}
}

// Load merges the initial history fetch. Duplicates against already
// merged messages are ignored.
func (s *Session) Load(history []models.Message) {
	for i := range history {
		s.Merge(history[i])
	}
}

// Merge inserts a message into the ordered history unless its ID is
// already present. Returns true when the message was added. Messages from
// other senders that are unread increment the unread counter. Merging
// after Close is a no-op, so a dangling delivery cannot touch a torn-down
// view.
func (s *Session) Merge(msg models.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.index[msg.ID] {
		return false
	}
	s.index[msg.ID] = true

	// Events normally arrive in send order; scan from the tail for the
	// occasional out-of-order delivery.
	pos := len(s.messages)
	for pos > 0 {
		prev := s.messages[pos-1]
		if prev.CreatedAt.Before(msg.CreatedAt) ||
			(prev.CreatedAt.Equal(msg.CreatedAt) && prev.ID < msg.ID) {
			break
		}
		pos--
	}
	s.messages = append(s.messages, models.Message{})
	copy(s.messages[pos+1:], s.messages[pos:])
	s.messages[pos] = msg

	if msg.SenderID != s.selfID && !msg.Read {
		s.unread++
	}
	return true
}

// Messages returns a copy of the ordered history
func (s *Session) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of merged messages
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// UnreadCount returns the current unread counter
func (s *Session) UnreadCount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread
}

// MarkRead flips the read flag on the given messages. Only messages that
// actually transition decrement the unread counter, so marking twice
// changes the total exactly as much as marking once. The counter never
// goes below zero. Returns the number of messages transitioned.
func (s *Session) MarkRead(ids []uint) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0
	}
	want := make(map[uint]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var transitioned int64
	for i := range s.messages {
		m := &s.messages[i]
		if want[m.ID] && !m.Read {
			m.Read = true
			if m.SenderID != s.selfID {
				transitioned++
			}
		}
	}
	s.unread -= transitioned
	if s.unread < 0 {
		s.unread = 0
	}
	return transitioned
}

// Close marks the session torn down; subsequent merges and read marks
// are no-ops
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}
