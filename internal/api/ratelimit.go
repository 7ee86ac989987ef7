package api

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/navikt/roombooking/internal/utils"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// idleLimiterTTL is how long an unused limiter is kept
const idleLimiterTTL = 10 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RequesterLimiter limits requests per requester, falling back to the client IP
type RequesterLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	limit     rate.Limit
	burst     int
	lastPrune time.Time
	logger    *zap.Logger
}

// NewRequesterLimiter allows perMinute requests per requester with the given burst
func NewRequesterLimiter(perMinute, burst int, logger *zap.Logger) *RequesterLimiter {
	if burst <= 0 {
		burst = 1
	}
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
	}
	return &RequesterLimiter{
		limiters:  make(map[string]*limiterEntry),
		limit:     limit,
		burst:     burst,
		lastPrune: time.Now(),
		logger:    logger,
	}
}

// getLimiter returns the limiter for key, creating one if it doesn't exist
func (l *RequesterLimiter) getLimiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.lastPrune) > idleLimiterTTL {
		for k, e := range l.limiters {
			if now.Sub(e.lastSeen) > idleLimiterTTL {
				delete(l.limiters, k)
			}
		}
		l.lastPrune = now
	}

	entry, exists := l.limiters[key]
	if !exists {
		entry = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

// Limit wraps a handler with the rate limit
func (l *RequesterLimiter) Limit(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		key := requesterKey(r)
		if !l.getLimiter(key).Allow() {
			l.logger.Warn("Rate limit exceeded", zap.String("requester", utils.SanitizeLogString(key)))
			writeError(w, l.logger, &AppError{
				Code:       CodeRateLimited,
				Message:    "rate limit exceeded, try again later",
				HTTPStatus: http.StatusTooManyRequests,
			})
			return
		}
		next(w, r, ps)
	}
}

func requesterKey(r *http.Request) string {
	if id := r.Header.Get(UserIDHeader); id != "" {
		return "user:" + id
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
