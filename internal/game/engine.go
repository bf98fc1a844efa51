package game

import "encoding/json"

// Player is the immutable identity a client supplies when it enters a room.
// IDs are opaque strings; uniqueness is enforced at the room boundary.
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Variant string

const (
	VariantBingo Variant = "bingo"
	VariantBluff Variant = "bluff"
	VariantBoxes Variant = "boxes"
)

// Seat is one player's slot in a running game. Data points at the
// variant-specific per-player state and is mutated in place by the engine.
// Connected mirrors whether the room currently holds a live channel for the
// player; engines use it to skip offline players when cycling turns.
type Seat struct {
	Player    Player     `json:"player"`
	Data      PlayerData `json:"data,omitempty"`
	Connected bool       `json:"connected"`
}

// PlayerData is the closed union of per-player game state
// (*BingoPlayerData, *BluffPlayerData, *BoxesPlayerData).
type PlayerData interface {
	playerData()
}

// Rank is one leaderboard row. Rankings are derived on demand and never
// stored; tied players share a rank number.
type Rank struct {
	Rank   int    `json:"rank"`
	Player Player `json:"player"`
}

// Message is the closed union of in-game moves. Concrete types are decoded by
// the active engine's DecodeMessage so payload shapes stay variant-private.
type Message interface {
	message()
}

// Engine is the contract every variant satisfies. The room driver treats all
// variants uniformly through it: move handling, turn cycling, ranking and the
// terminal predicate. Engines never touch channels; connectivity reaches them
// only through Seat.Connected.
type Engine interface {
	Variant() Variant
	IsRunning() bool

	// CanChangeTurn reports whether playerID currently holds the turn.
	// Simultaneous phases (Bingo board creation) report false for everyone.
	CanChangeTurn(playerID string) bool

	// NextTurnPlayer scans cyclically from just after the current holder,
	// skipping disconnected seats and seats that are done for this variant.
	// ok is false when no eligible seat remains.
	NextTurnPlayer(seats []*Seat) (id string, ok bool)

	// ChangeTurn reassigns the turn unconditionally. The disconnect path uses
	// it directly to keep the turn valid when the holder drops.
	ChangeTurn(playerID string)

	Rankings(seats []*Seat) []Rank

	// HandleMessage is the only place move legality is enforced. It validates
	// before mutating; on success it usually advances the turn itself.
	HandleMessage(playerID string, seats []*Seat, msg Message) error

	// HandleLeave tells the engine playerID was removed from the roster.
	// seats is the post-removal roster. Phases gated on "every seat did X"
	// re-check here, since the leaver no longer counts toward X.
	HandleLeave(playerID string, seats []*Seat)

	IsEnd(seats []*Seat) bool

	DecodeMessage(raw json.RawMessage) (Message, error)
}

// StartConfig is the closed union of variant start parameters.
type StartConfig interface {
	Variant() Variant

	build(players []Player, starterID string) (Engine, error)
	playerData(players []Player, playerID string) PlayerData
}

// DecodeStart parses a start payload. The variant field selects the concrete
// config; the remaining fields are variant-specific.
func DecodeStart(raw json.RawMessage) (StartConfig, error) {
	var head struct {
		Variant Variant `json:"variant"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, ErrUnknownVariant
	}
	switch head.Variant {
	case VariantBingo:
		var cfg BingoStart
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	case VariantBluff:
		var cfg BluffStart
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	case VariantBoxes:
		var cfg BoxesStart
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	default:
		return nil, ErrUnknownVariant
	}
}

// Start builds the engine for cfg. starterID is the player who issued the
// start action; variants that need an initial turn holder use it.
func Start(cfg StartConfig, players []Player, starterID string) (Engine, error) {
	return cfg.build(players, starterID)
}

// NewPlayerData builds the per-player state for one player. Deterministic for
// a given config and roster, so every seat can be built independently.
func NewPlayerData(cfg StartConfig, players []Player, playerID string) PlayerData {
	return cfg.playerData(players, playerID)
}

// nextEligible walks the roster cyclically starting just after currentID and
// returns the first connected seat satisfying eligible. Every variant's turn
// cycling reduces to this scan.
func nextEligible(seats []*Seat, currentID string, eligible func(*Seat) bool) (string, bool) {
	pos := -1
	for i, s := range seats {
		if s.Player.ID == currentID {
			pos = i
			break
		}
	}
	if pos < 0 {
		return "", false
	}
	for off := 1; off <= len(seats); off++ {
		s := seats[(pos+off)%len(seats)]
		if s.Connected && eligible(s) {
			return s.Player.ID, true
		}
	}
	return "", false
}

func seatByID(seats []*Seat, playerID string) *Seat {
	for _, s := range seats {
		if s.Player.ID == playerID {
			return s
		}
	}
	return nil
}

// assignRanks turns seats already sorted best-first into leaderboard rows.
// The rank number advances only when the sort key changes, so ties share.
func assignRanks(sorted []*Seat, sameKey func(a, b *Seat) bool) []Rank {
	ranks := make([]Rank, 0, len(sorted))
	rank := 0
	for i, s := range sorted {
		if i == 0 || !sameKey(sorted[i-1], s) {
			rank++
		}
		ranks = append(ranks, Rank{Rank: rank, Player: s.Player})
	}
	return ranks
}

func connectedCount(seats []*Seat) int {
	n := 0
	for _, s := range seats {
		if s.Connected {
			n++
		}
	}
	return n
}
