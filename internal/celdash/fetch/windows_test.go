package fetch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindows(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	week := 7 * 24 * time.Hour

	t.Run("31 days in 7 day windows", func(t *testing.T) {
		ws := Windows(from, from.AddDate(0, 0, 31), week)
		require.Len(t, ws, 5)
		assert.Equal(t, from, ws[0].From)
		for i := 1; i < len(ws); i++ {
			assert.Equal(t, ws[i-1].To, ws[i].From, "windows must be contiguous")
		}
		assert.Equal(t, 3*24*time.Hour, ws[4].To.Sub(ws[4].From))
		assert.Equal(t, from.AddDate(0, 0, 31), ws[4].To)
	})

	t.Run("exact multiple", func(t *testing.T) {
		ws := Windows(from, from.Add(2*week), week)
		assert.Len(t, ws, 2)
	})

	t.Run("shorter than one window", func(t *testing.T) {
		ws := Windows(from, from.Add(time.Hour), week)
		assert.Equal(t, []Window{{From: from, To: from.Add(time.Hour)}}, ws)
	})

	t.Run("empty range", func(t *testing.T) {
		assert.Empty(t, Windows(from, from, week))
		assert.Empty(t, Windows(from, from.Add(-time.Hour), week))
	})

	t.Run("no size", func(t *testing.T) {
		assert.Len(t, Windows(from, from.AddDate(0, 0, 31), 0), 1)
	})
}
