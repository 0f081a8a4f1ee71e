// Package emit decides whether a candidate pick is actually published.
// Staking may run concurrently across matches, but every allow/suppress
// decision goes through one mutex so the recent-emission index has a single
// writer.
package emit

import (
	"fmt"
	"sync"
	"time"

	"github.com/kzharov/pitchsignal/internal/domain"
)

// Config holds the dedup/cooldown parameters.
type Config struct {
	// Cooldown is the minimum gap between two emissions for the same key.
	Cooldown time.Duration
	// MinEdgeDelta and MinPriceDelta gate re-emission after the cooldown:
	// at least one of them must have moved by this much.
	MinEdgeDelta  float64
	MinPriceDelta float64
	// MinEdge rejects priced picks whose edge is below this floor, even
	// though the signal itself qualified.
	MinEdge float64
}

// DefaultConfig returns the emission parameters used when none are configured.
func DefaultConfig() Config {
	return Config{
		Cooldown:      10 * time.Minute,
		MinEdgeDelta:  0.02,
		MinPriceDelta: 0.10,
		MinEdge:       0.02,
	}
}

// Decision is the outcome of one emission check. Reason is set on suppression
// and is logged as a policy decision, never an error.
type Decision struct {
	Allow  bool
	Reason string
}

type lastEmission struct {
	at    time.Time
	edge  *float64
	price *float64
}

// Controller is the process-wide dedup/cooldown gate. Safe for concurrent
// use; the decision and index update happen under one lock.
type Controller struct {
	cfg Config
	now func() time.Time

	mu   sync.Mutex
	last map[string]lastEmission
}

// New creates a Controller.
func New(cfg Config) *Controller {
	return &Controller{
		cfg:  cfg,
		now:  time.Now,
		last: make(map[string]lastEmission),
	}
}

// Decide applies the emission policy to a candidate pick against the cycle's
// risk snapshot. On allow, the recent-emission index is updated atomically
// with the decision.
func (c *Controller) Decide(pick domain.Pick, risk domain.RiskState) Decision {
	if risk.Paused {
		return Decision{Reason: "risk throttle paused for the day"}
	}

	if pick.Edge != nil && *pick.Edge < c.cfg.MinEdge {
		return Decision{Reason: fmt.Sprintf("edge %.3f below minimum %.3f", *pick.Edge, c.cfg.MinEdge)}
	}

	key := pick.Signal.Key()

	c.mu.Lock()
	defer c.mu.Unlock()

	prev, seen := c.last[key]
	if seen {
		if elapsed := c.now().Sub(prev.at); elapsed < c.cfg.Cooldown {
			return Decision{Reason: fmt.Sprintf("cooldown: %s since last emission, need %s", elapsed.Round(time.Second), c.cfg.Cooldown)}
		}
		if !c.materiallyChanged(prev, pick) {
			return Decision{Reason: "edge and price unchanged since last emission"}
		}
	}

	c.last[key] = lastEmission{at: c.now(), edge: pick.Edge, price: pick.Price}
	return Decision{Allow: true}
}

// materiallyChanged reports whether the pick moved enough from the previous
// emission for the same key. A pick gaining or losing its price entirely
// counts as a material change.
func (c *Controller) materiallyChanged(prev lastEmission, pick domain.Pick) bool {
	if (prev.price == nil) != (pick.Price == nil) {
		return true
	}
	if prev.price != nil && pick.Price != nil {
		if abs(*pick.Price-*prev.price) >= c.cfg.MinPriceDelta {
			return true
		}
	}
	if prev.edge != nil && pick.Edge != nil {
		if abs(*pick.Edge-*prev.edge) >= c.cfg.MinEdgeDelta {
			return true
		}
	}
	return false
}

// Prune drops index entries older than ttl. Called periodically so the index
// does not grow without bound across match days.
func (c *Controller) Prune(ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := c.now().Add(-ttl)
	for key, e := range c.last {
		if e.at.Before(cutoff) {
			delete(c.last, key)
		}
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
