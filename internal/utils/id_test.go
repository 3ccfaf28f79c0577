package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIDIsShortAndUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewID()
		require.Len(t, id, 12)
		require.False(t, seen[id], "duplicate id %q", id)
		seen[id] = true
	}
}

func TestGuestName(t *testing.T) {
	name := GuestName()
	assert.True(t, IsGuestName(name))
	assert.Len(t, name, len("guest-")+6)
	assert.False(t, IsGuestName("alice"))
	assert.False(t, IsGuestName("gues"))
}
