package notify

import "github.com/rs/zerolog"

// Notifier is the transient user-notification port. UIs plug in their own
// toast implementation; everything here only distinguishes positive from
// negative messages.
type Notifier interface {
	Positive(message string)
	Negative(message string)
}

// LogNotifier writes notifications to a zerolog logger. It is the default
// sink for headless consumers (tests, CLIs, server-side use of the SDK).
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Positive(message string) {
	n.log.Info().Str("kind", "positive").Msg(message)
}

func (n *LogNotifier) Negative(message string) {
	n.log.Warn().Str("kind", "negative").Msg(message)
}

var _ Notifier = (*LogNotifier)(nil)
