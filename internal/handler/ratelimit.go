package handler

import (
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"github.com/statsbasket/internal/domain"
)

// maxIdleLimiters is the bucket count above which full buckets are swept
const maxIdleLimiters = 256

// gameLimiter holds one token bucket per game so a noisy scorer cannot
// starve the others
type gameLimiter struct {
	mu         sync.RWMutex
	limiters   map[int64]*rate.Limiter
	rps        float64
	burst      int
	maxTracked int
}

func newGameLimiter(rps float64, burst int) *gameLimiter {
	return &gameLimiter{
		limiters:   make(map[int64]*rate.Limiter),
		rps:        rps,
		burst:      burst,
		maxTracked: maxIdleLimiters,
	}
}

func (l *gameLimiter) get(gameID int64) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[gameID]
	l.mu.RUnlock()
	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if limiter, exists := l.limiters[gameID]; exists {
		return limiter
	}
	if len(l.limiters) >= l.maxTracked {
		l.sweep()
	}
	limiter = rate.NewLimiter(rate.Limit(l.rps), l.burst)
	l.limiters[gameID] = limiter
	return limiter
}

// sweep drops buckets that refilled completely; a fresh bucket behaves the
// same. Callers hold mu.
func (l *gameLimiter) sweep() {
	for id, limiter := range l.limiters {
		if limiter.Tokens() >= float64(l.burst) {
			delete(l.limiters, id)
		}
	}
}

// Enabled reports whether limiting is configured
func (l *gameLimiter) Enabled() bool {
	return l.rps > 0
}

// Allow reports whether a request for the game may proceed. A zero rate
// disables limiting.
func (l *gameLimiter) Allow(gameID int64) bool {
	if !l.Enabled() {
		return true
	}
	return l.get(gameID).Allow()
}

// Forget drops a game's bucket once it no longer takes events
func (l *gameLimiter) Forget(gameID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.limiters, gameID)
}

// Len returns the number of tracked buckets
func (l *gameLimiter) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.limiters)
}

// rateLimit throttles event ingestion per game. Buckets are only allocated
// for games that exist.
func (h *Handler) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.limiter.Enabled() {
			next.ServeHTTP(w, r)
			return
		}
		gameID, ok := pathID(r, "gameID")
		if !ok {
			h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
			return
		}
		if _, err := h.service.GetGame(r.Context(), gameID); err != nil {
			h.writeServiceError(w, err, "rate limit lookup")
			return
		}
		if !h.limiter.Allow(gameID) {
			h.metrics.RecordRateLimited()
			h.writeError(w, http.StatusTooManyRequests, domain.ErrRateLimited)
			return
		}
		next.ServeHTTP(w, r)
	})
}
