package sync

import (
	"testing"
	"time"

	"github.com/nuumi-app/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func msg(id uint, sender uint, at time.Time, read bool) models.Message {
	return models.Message{
		ID:             id,
		ConversationID: 1,
		SenderID:       sender,
		Content:        "hi",
		Read:           read,
		CreatedAt:      at,
	}
}

func TestSessionMergeDeduplicatesByID(t *testing.T) {
	s := NewSession(1)
	base := time.Now()

	m := msg(10, 2, base, false)
	assert.True(t, s.Merge(m))
	// The change event for the optimistically inserted message arrives.
	assert.False(t, s.Merge(m))

	assert.Equal(t, 1, s.Len())
	assert.Equal(t, int64(1), s.UnreadCount())
}

func TestSessionMergeKeepsOrder(t *testing.T) {
	s := NewSession(1)
	base := time.Now()

	s.Merge(msg(1, 1, base, false))
	s.Merge(msg(3, 2, base.Add(2*time.Second), false))
	// Out-of-order delivery lands between the two.
	s.Merge(msg(2, 2, base.Add(time.Second), false))

	got := s.Messages()
	require.Len(t, got, 3)
	assert.Equal(t, uint(1), got[0].ID)
	assert.Equal(t, uint(2), got[1].ID)
	assert.Equal(t, uint(3), got[2].ID)
}

func TestSessionMergeSameTimestampOrdersByID(t *testing.T) {
	s := NewSession(1)
	at := time.Now()

	s.Merge(msg(5, 2, at, false))
	s.Merge(msg(4, 2, at, false))

	got := s.Messages()
	require.Len(t, got, 2)
	assert.Equal(t, uint(4), got[0].ID)
	assert.Equal(t, uint(5), got[1].ID)
}

func TestSessionUnreadCountsOnlyOthers(t *testing.T) {
	s := NewSession(1)
	base := time.Now()

	s.Merge(msg(1, 1, base, false))                    // own message
	s.Merge(msg(2, 2, base.Add(time.Second), false))   // unread from other
	s.Merge(msg(3, 2, base.Add(2*time.Second), true))  // already read
	s.Merge(msg(4, 2, base.Add(3*time.Second), false)) // unread from other

	assert.Equal(t, int64(2), s.UnreadCount())
}

func TestSessionMarkReadIsIdempotent(t *testing.T) {
	s := NewSession(1)
	base := time.Now()

	s.Merge(msg(1, 2, base, false))
	s.Merge(msg(2, 2, base.Add(time.Second), false))

	assert.Equal(t, int64(2), s.MarkRead([]uint{1, 2}))
	assert.Equal(t, int64(0), s.UnreadCount())

	// The same batch again transitions nothing.
	assert.Equal(t, int64(0), s.MarkRead([]uint{1, 2}))
	assert.Equal(t, int64(0), s.UnreadCount())
}

func TestSessionMarkReadNeverGoesNegative(t *testing.T) {
	s := NewSession(1)
	base := time.Now()

	s.Merge(msg(1, 2, base, false))
	s.MarkRead([]uint{1})
	s.MarkRead([]uint{1, 99})

	assert.Equal(t, int64(0), s.UnreadCount())
}

func TestSessionMarkReadIgnoresUnknownIDs(t *testing.T) {
	s := NewSession(1)
	s.Merge(msg(1, 2, time.Now(), false))

	assert.Equal(t, int64(0), s.MarkRead([]uint{42}))
	assert.Equal(t, int64(1), s.UnreadCount())
}

func TestSessionClosedIgnoresMerges(t *testing.T) {
	s := NewSession(1)
	s.Merge(msg(1, 2, time.Now(), false))
	s.Close()

	assert.False(t, s.Merge(msg(2, 2, time.Now(), false)))
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, int64(0), s.MarkRead([]uint{1}))
}

func TestSessionLoadMergesHistoryOnce(t *testing.T) {
	s := NewSession(1)
	base := time.Now()
	history := []models.Message{
		msg(1, 2, base, true),
		msg(2, 2, base.Add(time.Second), false),
	}

	s.Load(history)
	s.Load(history)

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, int64(1), s.UnreadCount())
}
