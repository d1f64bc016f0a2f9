package utils

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger is the logging surface handlers depend on.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
	Slog() *slog.Logger
}

type slogLogger struct {
	l *slog.Logger
}

// NewSlogLogger wraps a *slog.Logger.
func NewSlogLogger(l *slog.Logger) Logger {
	if l == nil {
		l = slog.Default()
	}
	return &slogLogger{l: l}
}

func (s *slogLogger) Debug(msg string, args ...any) { s.l.Debug(msg, args...) }
func (s *slogLogger) Info(msg string, args ...any)  { s.l.Info(msg, args...) }
func (s *slogLogger) Warn(msg string, args ...any)  { s.l.Warn(msg, args...) }
func (s *slogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }
func (s *slogLogger) With(args ...any) Logger       { return &slogLogger{l: s.l.With(args...)} }
func (s *slogLogger) Slog() *slog.Logger            { return s.l }

const loggerKey = "logger"

type ctxLoggerKey struct{}

// ContextLogger stores a request scoped logger carrying request_id in the gin
// context and in the request context.
func ContextLogger(logger Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		l := logger
		if id, ok := c.Get("request_id"); ok {
			l = logger.With("request_id", id)
		}
		c.Set(loggerKey, l)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), ctxLoggerKey{}, l))
		c.Next()
	}
}

// GetLogger returns the request logger set by ContextLogger.
func GetLogger(c *gin.Context) Logger {
	if v, ok := c.Get(loggerKey); ok {
		if l, ok := v.(Logger); ok {
			return l
		}
	}
	return NewSlogLogger(nil)
}

// FromContext returns the request logger stored in ctx, or fallback.
func FromContext(ctx context.Context, fallback Logger) Logger {
	if l, ok := ctx.Value(ctxLoggerKey{}).(Logger); ok {
		return l
	}
	return fallback
}

// LoggerMiddleware logs one line per request.
func LoggerMiddleware(logger Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		l := GetLogger(c)
		args := []any{
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			l.Error("Request failed", append(args, "errors", c.Errors.String())...)
			return
		}
		if c.Writer.Status() >= 500 {
			l.Error("Request completed", args...)
			return
		}
		l.Info("Request completed", args...)
	}
}
