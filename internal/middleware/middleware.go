package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	ClientIDHeader  = "X-Client-ID"
	RequestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// RateLimiter allows one request per client and route every limit. Clients
// are identified by X-Client-ID, falling back to the remote IP.
type RateLimiter struct {
	clients map[string]time.Time
	mu      sync.Mutex
	limit   time.Duration
	now     func() time.Time
}

func NewRateLimiter(limit time.Duration) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]time.Time),
		limit:   limit,
		now:     time.Now,
	}
}

func (r *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := c.GetHeader(ClientIDHeader)
		if clientID == "" {
			clientID = c.ClientIP()
		}
		if !r.allow(clientID + " " + c.FullPath()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

func (r *RateLimiter) allow(clientID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	last, exists := r.clients[clientID]
	if exists && now.Sub(last) < r.limit {
		return false
	}
	r.clients[clientID] = now
	if len(r.clients) > 10000 {
		r.sweep(now)
	}
	return true
}

// sweep drops clients idle for longer than the limit. Caller holds mu.
func (r *RateLimiter) sweep(now time.Time) {
	for id, last := range r.clients {
		if now.Sub(last) >= r.limit {
			delete(r.clients, id)
		}
	}
}

// RequestID propagates X-Request-ID or assigns a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// GetRequestID returns the id set by RequestID, if any.
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// AccessLog writes one structured line per request.
func AccessLog(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		ev := log.Info()
		if status >= http.StatusInternalServerError {
			ev = log.Error()
		}
		ev.Str("request_id", GetRequestID(c)).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Str("query", c.Request.URL.RawQuery).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("http request")
	}
}
