package room

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"parlor/internal/game"
)

// Room composes a roster with either a lobby or a running game. It carries no
// lock of its own: the registry serializes all access, and every method here
// assumes the caller holds the room's lock. Broadcast fan-out is the one
// thing that must happen after the lock is released; Channels() exists to
// snapshot the targets while it is still held.
type Room struct {
	ID string

	members  []*member
	engine   game.Engine // nil while the room is a lobby
	lastGame *LastGame
}

// member is one roster entry. Seat is shared with the engine (which mutates
// Seat.Data and reads Seat.Connected); the channel stays room-private.
type member struct {
	seat    *game.Seat
	channel *Channel
}

func New(id string, creator game.Player) *Room {
	return &Room{
		ID:      id,
		members: []*member{{seat: &game.Seat{Player: creator}}},
	}
}

func (r *Room) InGame() bool { return r.engine != nil }

// AddPlayer admits a player. In the lobby a duplicate id is a no-op so that
// rejoin is idempotent. In a game only ids already on the roster may return
// (reconnect); everyone else is refused.
func (r *Room) AddPlayer(p game.Player) error {
	if r.memberByID(p.ID) != nil {
		return nil
	}
	if r.engine != nil {
		return game.ErrGameRunning
	}
	r.members = append(r.members, &member{seat: &game.Seat{Player: p}})
	return nil
}

// SetChannel attaches a live connection to the named player, replacing any
// previous channel.
func (r *Room) SetChannel(playerID string, ch *Channel) error {
	m := r.memberByID(playerID)
	if m == nil {
		return ErrPlayerNotFound
	}
	m.channel = ch
	m.seat.Connected = true
	return nil
}

// DisconnectPlayer clears the channel but keeps the roster entry, preserving
// turn order and game state for a possible reconnect.
func (r *Room) DisconnectPlayer(playerID string) error {
	m := r.memberByID(playerID)
	if m == nil {
		return ErrPlayerNotFound
	}
	m.channel = nil
	m.seat.Connected = false
	return nil
}

// DetachChannel disconnects the player only if ch is still their current
// channel. A re-subscribe replaces the channel, and the stale connection's
// finalizer must not tear down the replacement.
func (r *Room) DetachChannel(playerID string, ch *Channel) (bool, error) {
	m := r.memberByID(playerID)
	if m == nil {
		return false, ErrPlayerNotFound
	}
	if m.channel != ch {
		return false, nil
	}
	m.channel = nil
	m.seat.Connected = false
	return true, nil
}

// RemovePlayer deletes the roster entry entirely and returns the removed
// player. Used for explicit leave, not for connection loss.
func (r *Room) RemovePlayer(playerID string) (game.Player, error) {
	for i, m := range r.members {
		if m.seat.Player.ID == playerID {
			r.members = append(r.members[:i], r.members[i+1:]...)
			if r.engine != nil {
				r.engine.HandleLeave(playerID, r.seats())
			}
			return m.seat.Player, nil
		}
	}
	return game.Player{}, ErrPlayerNotFound
}

// IsEmpty is the destruction criterion: nobody connected, regardless of
// roster size.
func (r *Room) IsEmpty() bool {
	for _, m := range r.members {
		if m.channel != nil {
			return false
		}
	}
	return true
}

func (r *Room) GetPlayer(playerID string) (game.Player, bool) {
	if m := r.memberByID(playerID); m != nil {
		return m.seat.Player, true
	}
	return game.Player{}, false
}

// Channels snapshots the live targets for post-lock fan-out.
func (r *Room) Channels() []*Channel {
	targets := make([]*Channel, 0, len(r.members))
	for _, m := range r.members {
		if m.channel != nil {
			targets = append(targets, m.channel)
		}
	}
	return targets
}

// HandleStart builds the engine and per-seat data from the lobby roster and
// swaps the room into game mode.
func (r *Room) HandleStart(playerID string, cfg game.StartConfig) error {
	if r.engine != nil {
		return game.ErrGameRunning
	}
	if r.memberByID(playerID) == nil {
		return ErrPlayerNotFound
	}
	players := r.players()
	engine, err := game.Start(cfg, players, playerID)
	if err != nil {
		return err
	}
	for _, m := range r.members {
		m.seat.Data = game.NewPlayerData(cfg, players, m.seat.Player.ID)
	}
	r.engine = engine
	r.EvaluateGameEnd()
	return nil
}

// HandleMove decodes and applies one in-game message, then runs the
// end-of-game check like every other mutation.
func (r *Room) HandleMove(playerID string, raw json.RawMessage) error {
	if r.engine == nil {
		return game.ErrGameNotRunning
	}
	if r.memberByID(playerID) == nil {
		return ErrPlayerNotFound
	}
	msg, err := r.engine.DecodeMessage(raw)
	if err != nil {
		return err
	}
	if err := r.engine.HandleMessage(playerID, r.seats(), msg); err != nil {
		return err
	}
	r.EvaluateGameEnd()
	return nil
}

// RebalanceTurn hands the turn onward if playerID holds it. Called on the
// disconnect and leave paths so a departed holder never blocks the game.
func (r *Room) RebalanceTurn(playerID string) {
	if r.engine == nil || !r.engine.CanChangeTurn(playerID) {
		return
	}
	if next, ok := r.engine.NextTurnPlayer(r.seats()); ok {
		r.engine.ChangeTurn(next)
	} else {
		log.Debug().Str("room", r.ID).Str("player", playerID).Msg("no eligible player to take the turn")
	}
}

// EvaluateGameEnd archives the leaderboard and falls back to a lobby when
// the engine reports the terminal condition. Channels are cleared, not
// closed: the connections stay open and each client re-attaches with a fresh
// subscription against the new lobby roster. A player who never
// re-subscribes stops receiving events while remaining on the roster.
func (r *Room) EvaluateGameEnd() {
	if r.engine == nil || !r.engine.IsEnd(r.seats()) {
		return
	}
	r.lastGame = &LastGame{
		Variant:     r.engine.Variant(),
		Leaderboard: r.engine.Rankings(r.seats()),
	}
	for _, m := range r.members {
		m.channel = nil
		m.seat.Connected = false
		m.seat.Data = nil
	}
	r.engine = nil
	log.Info().Str("room", r.ID).Str("variant", string(r.lastGame.Variant)).Msg("game ended, room back to lobby")
}

// Snapshot clones the observable room state for serialization. The clone is
// transient; the registry-held Room stays the only source of truth.
func (r *Room) Snapshot() *Snapshot {
	snap := &Snapshot{
		ID:       r.ID,
		Phase:    PhaseLobby,
		Players:  make([]PlayerView, 0, len(r.members)),
		LastGame: r.lastGame,
	}
	for _, m := range r.members {
		snap.Players = append(snap.Players, PlayerView{
			Player:    m.seat.Player,
			Connected: m.channel != nil,
			Data:      m.seat.Data,
		})
	}
	if r.engine != nil {
		snap.Phase = PhaseGame
		snap.Game = &GameView{
			Variant:     r.engine.Variant(),
			Running:     r.engine.IsRunning(),
			State:       r.engine,
			Leaderboard: r.engine.Rankings(r.seats()),
		}
	}
	return snap
}

func (r *Room) memberByID(playerID string) *member {
	for _, m := range r.members {
		if m.seat.Player.ID == playerID {
			return m
		}
	}
	return nil
}

func (r *Room) seats() []*game.Seat {
	seats := make([]*game.Seat, 0, len(r.members))
	for _, m := range r.members {
		seats = append(seats, m.seat)
	}
	return seats
}

func (r *Room) players() []game.Player {
	players := make([]game.Player, 0, len(r.members))
	for _, m := range r.members {
		players = append(players, m.seat.Player)
	}
	return players
}
