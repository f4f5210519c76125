package announce

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaultSlots = []string{"12:15", "15:00", "18:00", "20:00", "22:30"}

func TestSlotsNext(t *testing.T) {
	s, err := ParseSlots(defaultSlots, "UTC")
	require.NoError(t, err)

	day := func(h, m int) time.Time { return time.Date(2024, 3, 4, h, m, 0, 0, time.UTC) }

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"morning", day(9, 0), day(12, 15)},
		{"exactly on a slot is not after it", day(12, 15), day(15, 0)},
		{"between slots", day(16, 30), day(18, 0)},
		{"after last slot rolls to tomorrow", day(23, 0), time.Date(2024, 3, 5, 12, 15, 0, 0, time.UTC)},
		{"month rollover", time.Date(2024, 3, 31, 23, 0, 0, 0, time.UTC), time.Date(2024, 4, 1, 12, 15, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Next(tt.now)
			assert.True(t, got.Equal(tt.want), "got %s want %s", got, tt.want)
			assert.True(t, got.After(tt.now))
		})
	}
}

func TestSlotsNext_Timezone(t *testing.T) {
	s, err := ParseSlots([]string{"18:00", "12:15"}, "Africa/Addis_Ababa") // UTC+3, unsorted input
	require.NoError(t, err)

	// 10:00 UTC is 13:00 local → next is 18:00 local = 15:00 UTC
	got := s.Next(time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2024, 3, 4, 15, 0, 0, 0, time.UTC), got)
	assert.Equal(t, time.UTC, got.Location())

	// 22:00 UTC is 01:00 local next day → 12:15 local that day
	got = s.Next(time.Date(2024, 3, 4, 22, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2024, 3, 5, 9, 15, 0, 0, time.UTC), got)
}

func TestParseSlots_Invalid(t *testing.T) {
	_, err := ParseSlots(nil, "UTC")
	assert.Error(t, err)
	_, err = ParseSlots([]string{"25:99"}, "UTC")
	assert.Error(t, err)
	_, err = ParseSlots(defaultSlots, "Mars/Olympus")
	assert.Error(t, err)
}
