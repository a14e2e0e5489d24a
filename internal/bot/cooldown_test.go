package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCooldownClaim(t *testing.T) {
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cd := NewCooldown(30 * time.Second)
	cd.now = func() time.Time { return clock }

	assert.Zero(t, cd.Remaining(1))
	_, ok := cd.Claim(1)
	assert.True(t, ok)

	clock = clock.Add(10 * time.Second)
	rem, ok := cd.Claim(1)
	assert.False(t, ok)
	assert.Equal(t, 20*time.Second, rem)

	// A rejected claim must not move the window.
	clock = clock.Add(20 * time.Second)
	_, ok = cd.Claim(1)
	assert.True(t, ok)

	cd.Reset(1)
	assert.Zero(t, cd.Remaining(1))
}

func TestCooldownSweep(t *testing.T) {
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cd := NewCooldown(0)
	cd.now = func() time.Time { return clock }
	assert.Equal(t, DefaultAdCooldown, cd.Window())

	cd.Claim(1)
	clock = clock.Add(20 * time.Second)
	cd.Claim(2)

	clock = clock.Add(15 * time.Second)
	assert.Equal(t, 1, cd.Sweep())
	assert.Equal(t, 1, cd.Len())
	assert.Equal(t, 15*time.Second, cd.Remaining(2))
}

func TestSecondsRoundsUp(t *testing.T) {
	assert.Equal(t, 1, seconds(200*time.Millisecond))
	assert.Equal(t, 30, seconds(30*time.Second))
	assert.Equal(t, 0, seconds(0))
}
