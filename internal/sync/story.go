package sync

import (
	"time"

	"github.com/nuumi-app/backend/internal/models"
)

// StoryActive reports whether a story is still visible at the given
// instant. A story is ACTIVE strictly before its expiry and EXPIRED from
// that instant on; there is no explicit transition event.
func StoryActive(story *models.Story, now time.Time) bool {
	return now.Before(story.ExpiresAt)
}

// FilterActiveStories keeps only the stories visible at the given instant
func FilterActiveStories(stories []models.Story, now time.Time) []models.Story {
	active := stories[:0:0]
	for i := range stories {
		if StoryActive(&stories[i], now) {
			active = append(active, stories[i])
		}
	}
	return active
}
