package sync

import (
	"testing"
	"time"

	"github.com/nuumi-app/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoryActive(t *testing.T) {
	now := time.Now()
	story := &models.Story{ExpiresAt: now.Add(time.Hour)}

	assert.True(t, StoryActive(story, now))
	// Expiry is exclusive: at the boundary instant the story is gone.
	assert.False(t, StoryActive(story, story.ExpiresAt))
	assert.False(t, StoryActive(story, story.ExpiresAt.Add(time.Second)))
}

func TestFilterActiveStories(t *testing.T) {
	now := time.Now()
	stories := []models.Story{
		{Caption: "fresh", ExpiresAt: now.Add(time.Hour)},
		{Caption: "expired", ExpiresAt: now.Add(-time.Minute)},
		{Caption: "boundary", ExpiresAt: now},
	}

	active := FilterActiveStories(stories, now)

	require.Len(t, active, 1)
	assert.Equal(t, "fresh", active[0].Caption)
}
