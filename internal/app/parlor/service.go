// Package parlor is the application service over rooms: it owns the
// registry, runs every operation under its lock and fans events out to
// subscribers afterwards. Transport handlers call into this package and
// nothing below it.
package parlor

import (
	"github.com/rs/zerolog/log"

	"parlor/internal/game"
	"parlor/internal/registry"
	"parlor/internal/room"
)

type Service struct {
	reg *registry.Registry

	codeLength    int
	channelBuffer int
}

const createRetries = 5

func NewService(codeLength, channelBuffer int) *Service {
	return &Service{
		reg:           registry.New(),
		codeLength:    codeLength,
		channelBuffer: channelBuffer,
	}
}

func (s *Service) Registry() *registry.Registry { return s.reg }

// CreateRoom makes a room with a fresh code and the creator as its first
// lobby member. Code collisions are retried a few times before giving up.
func (s *Service) CreateRoom(creator game.Player) (*room.Snapshot, error) {
	for i := 0; i < createRetries; i++ {
		r := room.New(room.NewCode(s.codeLength), creator)
		if err := s.reg.Create(r); err != nil {
			continue
		}
		log.Info().Str("room", r.ID).Str("player", creator.ID).Msg("room created")
		return r.Snapshot(), nil
	}
	return nil, room.ErrCannotCreate
}

// JoinRoom adds the player to the lobby roster (idempotent for ids already
// present) and tells everyone connected.
func (s *Service) JoinRoom(roomID string, p game.Player) (*room.Snapshot, error) {
	var (
		snap    *room.Snapshot
		targets []*room.Channel
	)
	err := s.reg.WithWrite(roomID, func(r *room.Room) error {
		if err := r.AddPlayer(p); err != nil {
			return err
		}
		snap = r.Snapshot()
		targets = r.Channels()
		return nil
	})
	if err != nil {
		return nil, err
	}
	room.Fanout(targets, room.NewEvent(room.EventPlayerJoined, &p, snap))
	return snap, nil
}

// LeaveRoom drops the player from the roster entirely. The room itself stays
// even when the roster empties; only the disconnect finalizer removes rooms.
func (s *Service) LeaveRoom(roomID, playerID string) error {
	var (
		left    game.Player
		snap    *room.Snapshot
		targets []*room.Channel
	)
	err := s.reg.WithWrite(roomID, func(r *room.Room) error {
		r.RebalanceTurn(playerID)
		p, err := r.RemovePlayer(playerID)
		if err != nil {
			return err
		}
		left = p
		r.EvaluateGameEnd()
		snap = r.Snapshot()
		targets = r.Channels()
		return nil
	})
	if err != nil {
		return err
	}
	log.Info().Str("room", roomID).Str("player", playerID).Msg("player left room")
	room.Fanout(targets, room.NewEvent(room.EventPlayerRemoved, &left, snap))
	return nil
}

// Chat relays a text line to everyone connected. Read lock only; chat never
// mutates room state.
func (s *Service) Chat(roomID, playerID, text string) error {
	var (
		from    game.Player
		targets []*room.Channel
	)
	err := s.reg.WithRead(roomID, func(r *room.Room) error {
		p, ok := r.GetPlayer(playerID)
		if !ok {
			return room.ErrPlayerNotInRoom
		}
		from = p
		targets = r.Channels()
		return nil
	})
	if err != nil {
		return err
	}
	ev := room.NewEvent(room.EventChat, &from, nil)
	ev.Text = text
	room.Fanout(targets, ev)
	return nil
}

// StartGame builds the variant engine from the start payload and flips the
// room into game mode.
func (s *Service) StartGame(roomID, playerID string, cfg game.StartConfig) (*room.Snapshot, error) {
	var (
		snap    *room.Snapshot
		targets []*room.Channel
	)
	err := s.reg.WithWrite(roomID, func(r *room.Room) error {
		if err := r.HandleStart(playerID, cfg); err != nil {
			return err
		}
		snap = r.Snapshot()
		targets = r.Channels()
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("room", roomID).Str("player", playerID).Str("variant", string(cfg.Variant())).Msg("game started")
	starter := playerOf(snap, playerID)
	room.Fanout(targets, room.NewEvent(room.EventGameStarted, starter, snap))
	return snap, nil
}

// SubmitMove applies one in-game message and pushes the updated room.
func (s *Service) SubmitMove(roomID, playerID string, raw []byte) (*room.Snapshot, error) {
	var (
		snap    *room.Snapshot
		targets []*room.Channel
	)
	err := s.reg.WithWrite(roomID, func(r *room.Room) error {
		if err := r.HandleMove(playerID, raw); err != nil {
			return err
		}
		snap = r.Snapshot()
		targets = r.Channels()
		return nil
	})
	if err != nil {
		return nil, err
	}
	mover := playerOf(snap, playerID)
	room.Fanout(targets, room.NewEvent(room.EventRoomUpdated, mover, snap))
	return snap, nil
}

// GetSnapshot is the poll-style read of the room.
func (s *Service) GetSnapshot(roomID string) (*room.Snapshot, error) {
	var snap *room.Snapshot
	err := s.reg.WithRead(roomID, func(r *room.Room) error {
		snap = r.Snapshot()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func playerOf(snap *room.Snapshot, playerID string) *game.Player {
	if snap == nil {
		return nil
	}
	for _, pv := range snap.Players {
		if pv.Player.ID == playerID {
			p := pv.Player
			return &p
		}
	}
	return nil
}
