// Package notify delivers user-facing notifications. The stores and the HTTP
// adapter report outcomes here instead of surfacing raw errors to callers.
package notify

import "github.com/rs/zerolog"

// Notifier receives user-facing messages. Implementations must be safe for
// concurrent use.
type Notifier interface {
	Success(message string)
	Error(message string)
}

// LogNotifier writes notifications to a structured logger.
type LogNotifier struct {
	log zerolog.Logger
}

// NewLogNotifier wraps a zerolog logger as a Notifier.
func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Success(message string) {
	n.log.Info().Str("notice", "success").Msg(message)
}

func (n *LogNotifier) Error(message string) {
	n.log.Warn().Str("notice", "error").Msg(message)
}

// Nop discards all notifications.
type Nop struct{}

func (Nop) Success(string) {}
func (Nop) Error(string)   {}
