package room

import "github.com/rs/zerolog/log"

// Channel is the per-connection push sink: bounded, ordered, one receiver.
// The room holds it only while the player is connected; its lifetime is the
// connection's, not the room's.
type Channel struct {
	events chan Event
}

func NewChannel(buffer int) *Channel {
	if buffer <= 0 {
		buffer = 8
	}
	return &Channel{events: make(chan Event, buffer)}
}

func (c *Channel) Events() <-chan Event { return c.events }

// TrySend delivers without blocking. A full or closed channel drops the
// event; the subscription finalizer will observe the dead connection soon
// enough, so drops are logged and swallowed.
func (c *Channel) TrySend(ev Event) bool {
	defer func() {
		if recover() != nil {
			metricSendDropsTotal.Add(1)
			log.Warn().Str("event", string(ev.Kind)).Msg("send on closed channel dropped")
		}
	}()
	select {
	case c.events <- ev:
		return true
	default:
		metricSendDropsTotal.Add(1)
		log.Warn().Str("event", string(ev.Kind)).Msg("channel full, event dropped")
		return false
	}
}

// Close is safe to call more than once.
func (c *Channel) Close() {
	defer func() { _ = recover() }()
	close(c.events)
}

// Fanout pushes ev to every target, fire-and-forget per recipient. Callers
// run it after releasing the registry lock, over a channel snapshot taken
// under the lock.
func Fanout(targets []*Channel, ev Event) {
	metricBroadcastTotal.Add(1)
	for _, ch := range targets {
		ch.TrySend(ev)
	}
}
