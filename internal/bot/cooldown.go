package bot

import (
	"math"
	"sync"
	"time"
)

// DefaultAdCooldown is the minimum spacing between accepted ad claims.
const DefaultAdCooldown = 30 * time.Second

// Cooldown tracks the last accepted ad claim per user.
type Cooldown struct {
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	last map[int64]time.Time
}

// NewCooldown creates a gate with the given window; non-positive selects DefaultAdCooldown.
func NewCooldown(window time.Duration) *Cooldown {
	if window <= 0 {
		window = DefaultAdCooldown
	}
	return &Cooldown{window: window, now: time.Now, last: make(map[int64]time.Time)}
}

// Window returns the configured spacing.
func (c *Cooldown) Window() time.Duration { return c.window }

func (c *Cooldown) remainingLocked(userID int64, now time.Time) time.Duration {
	last, ok := c.last[userID]
	if !ok {
		return 0
	}
	if rem := c.window - now.Sub(last); rem > 0 {
		return rem
	}
	return 0
}

// Remaining reports how long the user must still wait. It never records a claim.
func (c *Cooldown) Remaining(userID int64) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remainingLocked(userID, c.now())
}

// Claim records a claim if the window has passed. Otherwise it reports the wait
// and false, leaving the previous claim time untouched.
func (c *Cooldown) Claim(userID int64) (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if rem := c.remainingLocked(userID, now); rem > 0 {
		return rem, false
	}
	c.last[userID] = now
	return 0, true
}

// Reset forgets the user's last claim.
func (c *Cooldown) Reset(userID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.last, userID)
}

// Sweep drops entries whose window has elapsed and reports how many were removed.
func (c *Cooldown) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	removed := 0
	for id := range c.last {
		if c.remainingLocked(id, now) == 0 {
			delete(c.last, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of tracked users.
func (c *Cooldown) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.last)
}

// seconds rounds a wait up to whole seconds for display.
func seconds(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}
