// Package throttle limits events in total and per key
package throttle

import (
	"sync"
	"time"

	"github.com/Laisky/errors/v2"
	"golang.org/x/time/rate"
)

// maxKeys bounds the per key limiters, the map starts over when exceeded
const maxKeys = 10000

// Config configuration for Throttle
type Config struct {
	// TotalPerHour events allowed per hour across all keys
	TotalPerHour, TotalBurst int
	// EachPerHour events allowed per hour for a single key
	EachPerHour, EachBurst int
}

// Throttle allows an event only when both the key's and the total budget allow it
type Throttle struct {
	mu    sync.Mutex
	cfg   Config
	total *rate.Limiter
	keys  map[string]*rate.Limiter
}

// New create new Throttle
func New(cfg Config) (*Throttle, error) {
	if cfg.TotalPerHour <= 0 || cfg.EachPerHour <= 0 {
		return nil, errors.New("PerHour must bigger than 0")
	}
	if cfg.TotalBurst <= 0 || cfg.EachBurst <= 0 {
		return nil, errors.New("burst must bigger than 0")
	}

	return &Throttle{
		cfg:   cfg,
		total: rate.NewLimiter(perHour(cfg.TotalPerHour), cfg.TotalBurst),
		keys:  make(map[string]*rate.Limiter),
	}, nil
}

func perHour(n int) rate.Limit {
	return rate.Every(time.Hour / time.Duration(n))
}

// Allow reports whether an event for key may happen now.
// A denied key does not consume the total budget.
func (t *Throttle) Allow(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	each, ok := t.keys[key]
	if !ok {
		if len(t.keys) >= maxKeys {
			t.keys = make(map[string]*rate.Limiter)
		}
		each = rate.NewLimiter(perHour(t.cfg.EachPerHour), t.cfg.EachBurst)
		t.keys[key] = each
	}

	if !each.Allow() {
		return false
	}
	return t.total.Allow()
}
