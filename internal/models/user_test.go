package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayNameOf(t *testing.T) {
	assert.Equal(t, "Anonymous", DisplayNameOf(nil))
	assert.Equal(t, "Anonymous", DisplayNameOf(&User{}))
	assert.Equal(t, "kai", DisplayNameOf(&User{Username: "kai"}))
	assert.Equal(t, "Kai M", DisplayNameOf(&User{Username: "kai", DisplayName: "Kai M"}))
}

func TestNotificationText(t *testing.T) {
	cases := []struct {
		notifType string
		actor     string
		want      string
	}{
		{NotificationTypeLike, "Kai", "Kai liked your post"},
		{NotificationTypeComment, "Kai", "Kai commented on your post"},
		{NotificationTypeFollow, "Kai", "Kai started following you"},
		{NotificationTypeMessage, "Kai", "Kai sent you a message"},
		{NotificationTypeLike, "", "Someone liked your post"},
		{"unknown", "Kai", "You have a new notification"},
	}
	for _, tc := range cases {
		got := NotificationText(&Notification{Type: tc.notifType}, tc.actor)
		assert.Equal(t, tc.want, got)
	}
}
