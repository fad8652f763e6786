package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// LogSink writes notifications to a zap logger
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Deliver(_ context.Context, n Notification) error {
	fields := []zap.Field{zap.String("level", string(n.Level)), zap.Time("at", n.At)}
	switch n.Level {
	case LevelError:
		s.logger.Error(n.Message, fields...)
	case LevelWarning:
		s.logger.Warn(n.Message, fields...)
	default:
		s.logger.Info(n.Message, fields...)
	}
	return nil
}

// TextSender posts text to a chat. lark.MessageAPI satisfies it.
type TextSender interface {
	SendText(ctx context.Context, text string) (string, error)
}

// ChatSink mirrors selected notifications to a team chat
type ChatSink struct {
	sender TextSender
	levels map[Level]bool
	prefix string
}

// NewChatSink creates a chat sink forwarding only the given levels.
// With no levels it forwards warnings and errors.
func NewChatSink(sender TextSender, prefix string, levels ...Level) *ChatSink {
	if len(levels) == 0 {
		levels = []Level{LevelWarning, LevelError}
	}
	set := make(map[Level]bool, len(levels))
	for _, l := range levels {
		set[l] = true
	}
	return &ChatSink{sender: sender, levels: set, prefix: prefix}
}

func (s *ChatSink) Name() string { return "chat" }

func (s *ChatSink) Deliver(ctx context.Context, n Notification) error {
	if !s.levels[n.Level] {
		return nil
	}
	text := fmt.Sprintf("[%s] %s", n.Level, n.Message)
	if s.prefix != "" {
		text = s.prefix + " " + text
	}
	if _, err := s.sender.SendText(ctx, text); err != nil {
		return fmt.Errorf("failed to mirror notification: %w", err)
	}
	return nil
}
