package outbox

import (
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// PGListener turns Postgres NOTIFY messages on the outbox channel into event ids.
type PGListener struct {
	listener *pq.Listener
	notes    chan string
	done     chan struct{}
}

// NewPGListener opens a dedicated LISTEN connection on channel.
func NewPGListener(databaseURL, channel string) (*PGListener, error) {
	l := pq.NewListener(
		databaseURL,
		10*time.Second,
		time.Minute,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				log.Error().Err(err).Msg("listener event")
			}
		},
	)
	if err := l.Listen(channel); err != nil {
		l.Close()
		return nil, fmt.Errorf("failed to listen to channel: %w", err)
	}

	log.Info().Str("channel", channel).Msg("listening for notifications")

	p := &PGListener{listener: l, notes: make(chan string), done: make(chan struct{})}
	go p.forward()
	return p, nil
}

func (p *PGListener) forward() {
	defer close(p.notes)
	for {
		select {
		case <-p.done:
			return
		case note, ok := <-p.listener.Notify:
			if !ok {
				return
			}
			if note == nil {
				// nil notification means the connection was re-established;
				// the relay's fallback poll picks up anything missed.
				continue
			}
			select {
			case p.notes <- note.Extra:
			case <-p.done:
				return
			}
		}
	}
}

func (p *PGListener) Notifications() <-chan string { return p.notes }

func (p *PGListener) Ping() error { return p.listener.Ping() }

func (p *PGListener) Close() error {
	select {
	case <-p.done:
		return nil
	default:
		close(p.done)
	}
	return p.listener.Close()
}
