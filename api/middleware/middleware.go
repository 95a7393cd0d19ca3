package middleware

import (
	"net/http"
	"sync"
	"time"

	"duoadmin/api/ctxutil"
	"duoadmin/api/response"
	"duoadmin/config"
	"duoadmin/domain/session"
	"duoadmin/infrastructure/persistence"
	"duoadmin/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// RequestIDHeader Request ID header
	RequestIDHeader = "X-Request-ID"
)

// RequestIDMiddleware Request ID middleware
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set(response.RequestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)
		// Application services read it from the request context
		c.Request = c.Request.WithContext(persistence.ContextWithRequestID(c.Request.Context(), requestID))

		c.Next()
	}
}

// LoggingMiddleware Logging middleware
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		log := logger.WithRequestID(response.GetRequestID(c))

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("body_size", c.Writer.Size()),
		}
		if s, ok := ctxutil.Session(c); ok {
			fields = append(fields, zap.String("actor", s.Actor()))
		}

		switch {
		case c.Writer.Status() >= 500:
			log.Error("HTTP Request", fields...)
		case c.Writer.Status() >= 400:
			log.Warn("HTTP Request", fields...)
		default:
			log.Info("HTTP Request", fields...)
		}
	}
}

// RecoveryMiddleware Recovery middleware
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if recovered := recover(); recovered != nil {
				reqID := response.GetRequestID(c)

				logger.Error("Panic recovered",
					zap.String("request_id", reqID),
					zap.Any("error", recovered),
					zap.String("path", c.Request.URL.Path))

				c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
					Success:   false,
					Error:     "INTERNAL_ERROR",
					Message:   "internal server error",
					Code:      http.StatusInternalServerError,
					RequestID: reqID,
				})
			}
		}()

		c.Next()
	}
}

// CORSMiddleware CORS middleware
func CORSMiddleware(cfg *config.CORSConfig) gin.HandlerFunc {
	corsCfg := cors.Config{
		AllowMethods:     cfg.AllowMethods,
		AllowHeaders:     cfg.AllowHeaders,
		ExposeHeaders:    []string{RequestIDHeader, "Content-Disposition"},
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	}
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			corsCfg.AllowOriginFunc = func(string) bool { return true }
			return cors.New(corsCfg)
		}
	}
	corsCfg.AllowOrigins = cfg.AllowOrigins
	return cors.New(corsCfg)
}

// SessionMiddleware requires a bearer token and exposes the operator session
// to handlers. The token is forwarded upstream as-is; the upstream decides
// whether it is still valid.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := session.FromAuthorization(c.GetHeader("Authorization"))
		if err != nil {
			response.HandleAppError(c, err)
			c.Abort()
			return
		}
		if s.Expired(time.Now()) {
			logger.WithRequestID(response.GetRequestID(c)).Debug("Forwarding expired token",
				zap.String("actor", s.Actor()))
		}
		ctxutil.SetSession(c, s)
		c.Next()
	}
}

const (
	defaultMaxClients = 10000
	defaultIdleTTL    = 10 * time.Minute
)

// RateLimiter Rate limiter
//
// 每个 IP 一个令牌桶，空闲超过 idleTTL 或超出容量的 IP 被淘汰
type RateLimiter struct {
	mu       sync.Mutex
	limiters *expirable.LRU[string, *rate.Limiter]
	rate     rate.Limit
	burst    int
}

// NewRateLimiter Create rate limiter
func NewRateLimiter(r float64, burst, maxClients int, idleTTL time.Duration) *RateLimiter {
	if maxClients <= 0 {
		maxClients = defaultMaxClients
	}
	if idleTTL <= 0 {
		idleTTL = defaultIdleTTL
	}
	return &RateLimiter{
		limiters: expirable.NewLRU[string, *rate.Limiter](maxClients, nil, idleTTL),
		rate:     rate.Limit(r),
		burst:    burst,
	}
}

// getLimiter Get or create rate limiter for IP
func (rl *RateLimiter) getLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	// 重新 Add 以延长空闲期限
	if limiter, ok := rl.limiters.Get(ip); ok {
		rl.limiters.Add(ip, limiter)
		return limiter
	}
	limiter := rate.NewLimiter(rl.rate, rl.burst)
	rl.limiters.Add(ip, limiter)
	return limiter
}

// RateLimitMiddleware Rate limiting middleware
func RateLimitMiddleware(cfg *config.RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	limiter := NewRateLimiter(cfg.Rate, cfg.Burst, cfg.MaxClients, cfg.IdleTTL)

	return func(c *gin.Context) {
		ip := c.ClientIP()
		l := limiter.getLimiter(ip)

		if !l.Allow() {
			reqID := response.GetRequestID(c)

			logger.Warn("Rate limit exceeded",
				zap.String("request_id", reqID),
				zap.String("client_ip", ip))

			c.AbortWithStatusJSON(http.StatusTooManyRequests, response.Response{
				Success:   false,
				Error:     "TOO_MANY_REQUESTS",
				Message:   "Too many requests, please try again later",
				Code:      http.StatusTooManyRequests,
				RequestID: reqID,
			})
			return
		}

		c.Next()
	}
}
