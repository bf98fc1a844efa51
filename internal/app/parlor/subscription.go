package parlor

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"parlor/internal/game"
	"parlor/internal/room"
)

// Subscription is one player's live event feed. Its lifetime is the
// connection's: the transport closes it when the socket dies, and Close runs
// the full disconnect sequence exactly once.
type Subscription struct {
	ID       string
	RoomID   string
	PlayerID string

	svc  *Service
	ch   *room.Channel
	once sync.Once
}

func (s *Subscription) Events() <-chan room.Event { return s.ch.Events() }

// Subscribe attaches a fresh channel to the player and announces the
// connection. A second subscription for the same player replaces the first
// channel; the stale subscription keeps draining until its transport closes
// it.
func (s *Service) Subscribe(roomID, playerID string) (*Subscription, error) {
	ch := room.NewChannel(s.channelBuffer)
	var (
		connected game.Player
		snap      *room.Snapshot
		targets   []*room.Channel
	)
	err := s.reg.WithWrite(roomID, func(r *room.Room) error {
		p, ok := r.GetPlayer(playerID)
		if !ok {
			return room.ErrPlayerNotInRoom
		}
		if err := r.SetChannel(playerID, ch); err != nil {
			return err
		}
		connected = p
		snap = r.Snapshot()
		targets = r.Channels()
		return nil
	})
	if err != nil {
		return nil, err
	}
	sub := &Subscription{
		ID:       uuid.NewString(),
		RoomID:   roomID,
		PlayerID: playerID,
		svc:      s,
		ch:       ch,
	}
	log.Info().Str("room", roomID).Str("player", playerID).Str("subscription", sub.ID).Msg("player connected")
	room.Fanout(targets, room.NewEvent(room.EventPlayerConnected, &connected, snap))
	return sub, nil
}

// Close is the disconnect finalizer: detach the channel, hand the turn
// onward if the player held it, run the end-of-game check, and remove the
// room once nobody is connected. Safe to call from any goroutine, any number
// of times.
func (sub *Subscription) Close() {
	sub.once.Do(sub.finalize)
}

func (sub *Subscription) finalize() {
	var (
		left    *game.Player
		snap    *room.Snapshot
		targets []*room.Channel
		empty   bool
	)
	err := sub.svc.reg.WithWrite(sub.RoomID, func(r *room.Room) error {
		p, ok := r.GetPlayer(sub.PlayerID)
		if ok {
			left = &p
		}
		detached, err := r.DetachChannel(sub.PlayerID, sub.ch)
		if err != nil {
			return err
		}
		// Emptiness is judged before the end-of-game check: a game ending
		// here clears every channel, and that must not count as "everyone
		// gone" for this finalizer.
		empty = r.IsEmpty()
		if !detached || empty {
			// Not detached means the player was already off this channel,
			// either re-subscribed (newer channel) or swept by a game end.
			return nil
		}
		r.RebalanceTurn(sub.PlayerID)
		r.EvaluateGameEnd()
		snap = r.Snapshot()
		targets = r.Channels()
		return nil
	})
	switch {
	case err != nil:
		// Room already gone or player no longer on the roster. Nothing to
		// unwind; finalizers log and move on.
		log.Debug().Err(err).Str("room", sub.RoomID).Str("player", sub.PlayerID).Msg("subscription finalizer found nothing to detach")
	case empty:
		sub.svc.reg.Remove(sub.RoomID)
		log.Info().Str("room", sub.RoomID).Msg("room removed, last connection gone")
	case snap != nil:
		room.Fanout(targets, room.NewEvent(room.EventPlayerLeft, left, snap))
	}
	sub.ch.Close()
}
