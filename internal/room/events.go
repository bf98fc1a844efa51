package room

import (
	"time"

	"parlor/internal/game"
)

type EventKind string

const (
	EventPlayerJoined    EventKind = "player_joined"
	EventPlayerConnected EventKind = "player_connected"
	EventPlayerLeft      EventKind = "player_left"
	EventPlayerRemoved   EventKind = "player_removed"
	EventGameStarted     EventKind = "game_started"
	EventRoomUpdated     EventKind = "room_updated"
	EventChat            EventKind = "chat"
)

// Event is the envelope every subscriber receives. It always carries a full
// room snapshot; clients never diff, they replace.
type Event struct {
	ID       string       `json:"event_id"`
	Kind     EventKind    `json:"event"`
	ServerTS int64        `json:"server_ts"`
	Player   *game.Player `json:"player,omitempty"`
	Text     string       `json:"text,omitempty"`
	Room     *Snapshot    `json:"room,omitempty"`
}

func NewEvent(kind EventKind, player *game.Player, snap *Snapshot) Event {
	return Event{
		ID:       newEventID(),
		Kind:     kind,
		ServerTS: time.Now().UnixMilli(),
		Player:   player,
		Room:     snap,
	}
}

// Snapshot is the transient serializable clone of a room; never the source
// of truth. Channels are deliberately absent.
type Snapshot struct {
	ID       string       `json:"id"`
	Phase    Phase        `json:"phase"`
	Players  []PlayerView `json:"players"`
	Game     *GameView    `json:"game,omitempty"`
	LastGame *LastGame    `json:"last_game,omitempty"`
}

type Phase string

const (
	PhaseLobby Phase = "lobby"
	PhaseGame  Phase = "game"
)

type PlayerView struct {
	Player    game.Player     `json:"player"`
	Connected bool            `json:"connected"`
	Data      game.PlayerData `json:"data,omitempty"`
}

type GameView struct {
	Variant     game.Variant `json:"variant"`
	Running     bool         `json:"running"`
	State       game.Engine  `json:"state"`
	Leaderboard []game.Rank  `json:"leaderboard"`
}

// LastGame is the leaderboard archived when a game ends and the room falls
// back to a lobby.
type LastGame struct {
	Variant     game.Variant `json:"variant"`
	Leaderboard []game.Rank  `json:"leaderboard"`
}
