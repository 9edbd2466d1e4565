package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTicketStatus(t *testing.T) {
	t.Run("Accepts the four states", func(t *testing.T) {
		for _, s := range []string{"open", "in_progress", "resolved", "closed"} {
			status, ok := ParseTicketStatus(s)
			assert.True(t, ok, s)
			assert.Equal(t, TicketStatus(s), status)
		}
	})

	t.Run("Rejects everything else", func(t *testing.T) {
		for _, s := range []string{"", "Open", "RESOLVED", "pending", "done"} {
			_, ok := ParseTicketStatus(s)
			assert.False(t, ok, s)
		}
	})
}
