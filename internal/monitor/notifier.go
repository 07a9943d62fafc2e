package monitor

import (
	"github.com/rs/zerolog"
)

// Notifier delivers alert content to the outside world. Delivery is
// best-effort: the push record is the durable artifact, not the send.
type Notifier interface {
	Send(content string) error
	Available() bool
}

// LogNotifier writes alerts to the structured log. It is the default sink;
// real channels (webhooks, IM bots) implement Notifier the same way.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log.With().Str("component", "notifier").Logger()}
}

func (n *LogNotifier) Send(content string) error {
	n.log.Info().Msg(content)
	return nil
}

func (n *LogNotifier) Available() bool { return true }
