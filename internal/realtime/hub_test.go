package realtime

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func messageEvent(conversationID uint, id uint) Event {
	return Event{
		Table:  TableMessages,
		Action: ActionInsert,
		Row: map[string]interface{}{
			"id":              id,
			"conversation_id": conversationID,
		},
	}
}

func TestHubDeliversInPublishOrder(t *testing.T) {
	h := NewHub()
	defer h.Close()

	sub, err := h.Subscribe(TableMessages, nil)
	require.NoError(t, err)
	defer sub.Close()

	for i := uint(1); i <= 5; i++ {
		h.Publish(messageEvent(7, i))
	}

	for i := uint(1); i <= 5; i++ {
		ev := <-sub.Events()
		assert.Equal(t, i, ev.Row["id"])
	}
}

func TestHubFilterMatchesEquality(t *testing.T) {
	h := NewHub()
	defer h.Close()

	sub, err := h.Subscribe(TableMessages, Filter{"conversation_id": "7"})
	require.NoError(t, err)
	defer sub.Close()

	h.Publish(messageEvent(9, 1)) // other conversation
	h.Publish(messageEvent(7, 2))

	ev := <-sub.Events()
	assert.Equal(t, uint(2), ev.Row["id"])
	assert.Empty(t, sub.Events())
}

func TestHubFilterMatchesNumericStringForms(t *testing.T) {
	f := Filter{"user_id": "42"}

	assert.True(t, f.Matches(Event{Row: map[string]interface{}{"user_id": uint(42)}}))
	assert.True(t, f.Matches(Event{Row: map[string]interface{}{"user_id": "42"}}))
	assert.False(t, f.Matches(Event{Row: map[string]interface{}{"user_id": 43}}))
	assert.False(t, f.Matches(Event{Row: map[string]interface{}{}}))
}

func TestHubTableIsolation(t *testing.T) {
	h := NewHub()
	defer h.Close()

	sub, err := h.Subscribe(TableNotifications, nil)
	require.NoError(t, err)
	defer sub.Close()

	h.Publish(messageEvent(7, 1))

	assert.Empty(t, sub.Events())
}

func TestSubscriptionCloseIsIdempotent(t *testing.T) {
	h := NewHub()
	defer h.Close()

	sub, err := h.Subscribe(TableMessages, nil)
	require.NoError(t, err)

	sub.Close()
	// A second close must not panic or double-close the channel.
	sub.Close()

	_, open := <-sub.Events()
	assert.False(t, open)
}

func TestHubNoDeliveryAfterClose(t *testing.T) {
	h := NewHub()
	defer h.Close()

	sub, err := h.Subscribe(TableMessages, nil)
	require.NoError(t, err)
	sub.Close()

	h.Publish(messageEvent(7, 1))

	_, open := <-sub.Events()
	assert.False(t, open)
}

func TestHubDropsWhenBufferFull(t *testing.T) {
	h := NewHub()
	defer h.Close()

	sub, err := h.Subscribe(TableMessages, nil)
	require.NoError(t, err)
	defer sub.Close()

	// Nobody is draining; overflow past the buffer must not block.
	for i := 0; i < defaultBuffer+10; i++ {
		h.Publish(messageEvent(7, uint(i)))
	}

	assert.Len(t, sub.Events(), defaultBuffer)
}

func TestHubSubscribeAfterCloseFails(t *testing.T) {
	h := NewHub()
	h.Close()

	_, err := h.Subscribe(TableMessages, nil)
	assert.ErrorIs(t, err, ErrHubClosed)
}

func TestHubCloseClosesAllSubscriptions(t *testing.T) {
	h := NewHub()

	subs := make([]*Subscription, 0, 3)
	for i := 0; i < 3; i++ {
		sub, err := h.Subscribe(TableStories, Filter{"n": strconv.Itoa(i)})
		require.NoError(t, err)
		subs = append(subs, sub)
	}

	h.Close()

	for _, sub := range subs {
		_, open := <-sub.Events()
		assert.False(t, open)
	}
}
