package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTodayTruncatesToUTCMidnight(t *testing.T) {
	loc := time.FixedZone("WIB", 7*3600)
	fake := NewFakeClock(time.Date(2025, 3, 1, 2, 30, 0, 0, loc))

	assert.Equal(t, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC), Today(fake))

	fake.Advance(24 * time.Hour)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), Today(fake))
}

func TestStartOfMonth(t *testing.T) {
	got := StartOfMonth(time.Date(2025, 12, 31, 23, 59, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), got)
}
