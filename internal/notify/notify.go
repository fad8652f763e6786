// Package notify carries user-facing notifications (toasts) from the engine to whatever
// presents them: the CLI, the web console, the log, a Lark chat.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Level is the severity of a notification
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// DefaultHistory is how many notifications a Center remembers
const DefaultHistory = 50

// Notification is one message shown to the user
type Notification struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Publisher accepts notifications
type Publisher interface {
	Publish(ctx context.Context, level Level, message string)
}

// Sink receives every published notification. Sinks must not block for long.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, n Notification) error
}

// Center fans notifications out to sinks and keeps a bounded history
type Center struct {
	mu      sync.RWMutex
	sinks   []Sink
	history []Notification
	limit   int
	clock   clockwork.Clock
	logger  *zap.Logger
}

// Option configures a Center
type Option func(*Center)

// WithHistory sets how many notifications are kept for Recent
func WithHistory(n int) Option {
	return func(c *Center) {
		if n > 0 {
			c.limit = n
		}
	}
}

// WithClock sets the clock used to stamp notifications
func WithClock(clock clockwork.Clock) Option {
	return func(c *Center) {
		c.clock = clock
	}
}

// NewCenter creates a notification center
func NewCenter(logger *zap.Logger, opts ...Option) *Center {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Center{
		limit:  DefaultHistory,
		clock:  clockwork.NewRealClock(),
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddSink registers a sink for all later notifications
func (c *Center) AddSink(s Sink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sinks = append(c.sinks, s)
}

// Publish records a notification and delivers it to every sink.
// A failing sink is logged and does not stop delivery to the others.
func (c *Center) Publish(ctx context.Context, level Level, message string) {
	n := Notification{Level: level, Message: message, At: c.clock.Now()}

	c.mu.Lock()
	c.history = append(c.history, n)
	if over := len(c.history) - c.limit; over > 0 {
		c.history = append([]Notification(nil), c.history[over:]...)
	}
	sinks := append([]Sink(nil), c.sinks...)
	c.mu.Unlock()

	for _, s := range sinks {
		if err := s.Deliver(ctx, n); err != nil {
			c.logger.Warn("Notification sink failed",
				zap.String("sink", s.Name()),
				zap.String("level", string(level)),
				zap.Error(err))
		}
	}
}

// Recent returns up to n notifications, newest first. n <= 0 returns all.
func (c *Center) Recent(n int) []Notification {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if n <= 0 || n > len(c.history) {
		n = len(c.history)
	}
	out := make([]Notification, 0, n)
	for i := len(c.history) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, c.history[i])
	}
	return out
}

func (c *Center) Success(ctx context.Context, msg string) { c.Publish(ctx, LevelSuccess, msg) }
func (c *Center) Info(ctx context.Context, msg string)    { c.Publish(ctx, LevelInfo, msg) }
func (c *Center) Warning(ctx context.Context, msg string) { c.Publish(ctx, LevelWarning, msg) }
func (c *Center) Error(ctx context.Context, msg string)   { c.Publish(ctx, LevelError, msg) }

// Discard drops every notification
type Discard struct{}

func (Discard) Publish(context.Context, Level, string) {}
