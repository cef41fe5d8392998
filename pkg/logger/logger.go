package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger wraps slog.Logger with additional functionality
type Logger struct {
	*slog.Logger
}

// New creates a new logger instance
func New() *Logger {
	level := getLogLevel(os.Getenv("LOG_LEVEL"))

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	// Text handler for development, JSON for production
	var handler slog.Handler
	if gin.Mode() == gin.DebugMode {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// getLogLevel converts string to slog.Level
func getLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithError adds error to logger context
func (l *Logger) WithError(err error) *Logger {
	return &Logger{
		Logger: l.Logger.With(slog.String("error", err.Error())),
	}
}

// WithFields adds multiple fields to logger context
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, slog.Any(k, v))
	}
	return &Logger{
		Logger: l.Logger.With(args...),
	}
}

// HTTP logging methods

// LogHTTPRequest logs an HTTP request
func (l *Logger) LogHTTPRequest(c *gin.Context, duration time.Duration) {
	l.Logger.InfoContext(c.Request.Context(),
		"HTTP Request",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.String("query", c.Request.URL.RawQuery),
		slog.Int("status", c.Writer.Status()),
		slog.Duration("duration", duration),
		slog.String("ip", c.ClientIP()),
		slog.Int("size", c.Writer.Size()),
	)
}

// Inventory logging methods

// LogSeatTransition logs a single seat status change with before/after status.
// Every ledger mutation goes through this for audit.
func (l *Logger) LogSeatTransition(ctx context.Context, eventID, seatRef, before, after, holdID string) {
	l.Logger.InfoContext(ctx,
		"Seat Transition",
		slog.String("event_id", eventID),
		slog.String("seat", seatRef),
		slog.String("before", before),
		slog.String("after", after),
		slog.String("hold_id", holdID),
	)
}

// LogHoldTaken logs a successful seat hold
func (l *Logger) LogHoldTaken(ctx context.Context, holdID, eventID string, seatCount int, expiresAt time.Time) {
	l.Logger.InfoContext(ctx,
		"Hold Taken",
		slog.String("hold_id", holdID),
		slog.String("event_id", eventID),
		slog.Int("seats", seatCount),
		slog.Time("expires_at", expiresAt),
	)
}

// LogHoldSwept logs a hold reclaimed by the expiry sweeper
func (l *Logger) LogHoldSwept(ctx context.Context, holdID, eventID string, seatCount int) {
	l.Logger.InfoContext(ctx,
		"Hold Swept",
		slog.String("hold_id", holdID),
		slog.String("event_id", eventID),
		slog.Int("seats", seatCount),
	)
}

// Business logic logging methods

// LogEventCreated logs when an event is created
func (l *Logger) LogEventCreated(ctx context.Context, eventID, userID string) {
	l.Logger.InfoContext(ctx,
		"Event Created",
		slog.String("event_id", eventID),
		slog.String("user_id", userID),
	)
}

// LogBookingCreated logs when a booking is created
func (l *Logger) LogBookingCreated(ctx context.Context, bookingID, eventID, userID string) {
	l.Logger.InfoContext(ctx,
		"Booking Created",
		slog.String("booking_id", bookingID),
		slog.String("event_id", eventID),
		slog.String("user_id", userID),
	)
}

// LogBookingExpired logs a checkout cancelled by the hold sweeper
func (l *Logger) LogBookingExpired(ctx context.Context, bookingID, eventID, holdID string) {
	l.Logger.InfoContext(ctx,
		"Booking Expired",
		slog.String("booking_id", bookingID),
		slog.String("event_id", eventID),
		slog.String("hold_id", holdID),
	)
}

// LogTicketTransition logs a ticket lifecycle transition
func (l *Logger) LogTicketTransition(ctx context.Context, ticketID, before, after string) {
	l.Logger.InfoContext(ctx,
		"Ticket Transition",
		slog.String("ticket_id", ticketID),
		slog.String("before", before),
		slog.String("after", after),
	)
}

// Helper methods for common patterns

// InfoWithContext logs an info message with context
func (l *Logger) InfoWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, slog.Any(k, v))
	}
	l.Logger.InfoContext(ctx, msg, args...)
}

// ErrorWithContext logs an error message with context
func (l *Logger) ErrorWithContext(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	args := make([]interface{}, 0, len(fields)*2+2)
	args = append(args, slog.String("error", err.Error()))
	for k, v := range fields {
		args = append(args, slog.Any(k, v))
	}
	l.Logger.ErrorContext(ctx, msg, args...)
}

// Global logger instance (can be replaced with dependency injection)
var defaultLogger = New()

// GetDefault returns the default logger instance
func GetDefault() *Logger {
	return defaultLogger
}

// SetDefault sets the default logger instance
func SetDefault(logger *Logger) {
	defaultLogger = logger
}
