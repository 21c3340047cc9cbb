package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPostIsDue(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past, exact, future := now.Add(-time.Minute), now, now.Add(time.Minute)

	assert.True(t, (&Post{ScheduledDate: &past}).IsDue(now))
	assert.True(t, (&Post{ScheduledDate: &exact}).IsDue(now))
	assert.False(t, (&Post{ScheduledDate: &future}).IsDue(now))
	assert.False(t, (&Post{}).IsDue(now), "posts without a date are never due")
}
