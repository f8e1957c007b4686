package runtime

import (
	"os"
	"os/signal"
)

// Signals define methods for handling signals
type Signals interface {
	// Notify returns a channel for receiving notifications of the given signals
	Notify(...os.Signal) <-chan os.Signal
	// Reset stops receiving signal notifications in this channel.
	// If no signal is specified, all signals are cleared
	Reset(...os.Signal)
}

type signals struct {
	channel chan os.Signal
}

// DefaultSignals returns a signal handler backed by os/signal
func DefaultSignals() Signals {
	return &signals{
		channel: make(chan os.Signal, 1),
	}
}

func (s *signals) Notify(sigs ...os.Signal) <-chan os.Signal {
	signal.Notify(s.channel, sigs...)

	return s.channel
}

func (s *signals) Reset(sigs ...os.Signal) {
	if len(sigs) == 0 {
		signal.Stop(s.channel)
		return
	}

	signal.Reset(sigs...)
}
