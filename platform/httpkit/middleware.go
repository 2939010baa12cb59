// Package httpkit provides HTTP middleware infrastructure.
// This is part of the platform layer and contains no business logic.
package httpkit

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"departure_finder/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	// ContextRequestIDKey is the gin context key for the request ID.
	ContextRequestIDKey = "requestID"
	// HeaderRequestID carries the request ID in and out of the service.
	HeaderRequestID = "X-Request-ID"
	// MsgRateLimited is the error text of a refused request.
	MsgRateLimited = "rate limit exceeded"
)

var placeholderRegex = regexp.MustCompile(`\{[^}]*\}`)

// RequestID assigns every request an ID, reusing a well-formed incoming one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(HeaderRequestID))
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}

		c.Set(ContextRequestIDKey, requestID)
		c.Header(HeaderRequestID, requestID)
		ctx := context.WithValue(c.Request.Context(), logger.RequestIDKey, requestID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequestLogger logs HTTP requests with timing.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		clientIP := c.ClientIP()

		reqLog := log.WithContext(c.Request.Context())
		if len(c.Errors) > 0 {
			reqLog.HTTPError(c.Request.Method, path, status, c.Errors.Last(), clientIP)
			return
		}
		reqLog.HTTPRequest(c.Request.Method, path, status, float64(latency.Milliseconds()), clientIP)
	}
}

// SecurityHeaders adds security headers to responses.
// The map page loads Leaflet from unpkg and tiles from tileOrigins, so the
// content policy allows exactly those origins next to 'self'.
func SecurityHeaders(tileOrigins ...string) gin.HandlerFunc {
	imgSrc := []string{"img-src 'self' data: https://unpkg.com"}
	for _, origin := range tileOrigins {
		if origin != "" {
			imgSrc = append(imgSrc, origin)
		}
	}
	policy := strings.Join([]string{
		"default-src 'self'",
		"script-src 'self' https://unpkg.com",
		"style-src 'self' 'unsafe-inline' https://unpkg.com",
		strings.Join(imgSrc, " "),
		"connect-src 'self'",
	}, "; ")

	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", policy)
		c.Header("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

		if c.Request.TLS != nil {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}

// TileOrigin turns a Leaflet tile URL template into a CSP source. A leading
// placeholder label such as "{s}" becomes the "*" wildcard; a placeholder
// anywhere else in the host widens the source to the scheme. Templates
// without a scheme yield "".
func TileOrigin(tileURL string) string {
	scheme, rest, ok := strings.Cut(strings.TrimSpace(tileURL), "://")
	if !ok || scheme == "" {
		return ""
	}
	host, _, _ := strings.Cut(rest, "/")
	host = placeholderRegex.ReplaceAllString(host, "*")
	if host == "" {
		return ""
	}
	if strings.Contains(strings.TrimPrefix(host, "*."), "*") {
		return scheme + ":"
	}
	return scheme + "://" + host
}

// IPRateLimiter manages per-IP rate limiters.
type IPRateLimiter struct {
	limiters sync.Map
	rate     rate.Limit
	burst    int
	log      *logger.Logger
}

// NewIPRateLimiter creates a new IP-based rate limiter.
func NewIPRateLimiter(r rate.Limit, burst int, log *logger.Logger) *IPRateLimiter {
	return &IPRateLimiter{
		rate:  r,
		burst: burst,
		log:   log,
	}
}

// NewPerMinuteLimiter creates a limiter allowing perMinute requests per IP,
// bursting up to the same amount. A non-positive value disables limiting.
func NewPerMinuteLimiter(perMinute int, log *logger.Logger) *IPRateLimiter {
	if perMinute <= 0 {
		return NewIPRateLimiter(rate.Inf, 0, log)
	}
	return NewIPRateLimiter(rate.Limit(float64(perMinute)/60.0), perMinute, log)
}

func (i *IPRateLimiter) getLimiter(ip string) *rate.Limiter {
	limiter, _ := i.limiters.LoadOrStore(ip, rate.NewLimiter(i.rate, i.burst))
	return limiter.(*rate.Limiter)
}

// RateLimit returns a middleware that rate limits by IP.
func (i *IPRateLimiter) RateLimit() gin.HandlerFunc {
	return i.RateLimitWith(func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{
			Error: MsgRateLimited,
		})
	})
}

// RateLimitWith rate limits by IP and lets reject answer refused requests.
// reject must abort the chain.
func (i *IPRateLimiter) RateLimitWith(reject gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		limiter := i.getLimiter(ip)

		if !limiter.Allow() {
			if i.log != nil {
				i.log.RateLimitExceeded(ip, c.Request.URL.Path)
			}
			reject(c)
			c.Abort()
			return
		}

		c.Next()
	}
}
