package game

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
)

// Bingo is a grid completion race. Players first submit private n×n boards
// (simultaneous phase), then take turns calling numbers; a called number is
// struck on every board. Score is the count of fully struck rows, columns and
// the two diagonals; a board is complete at score ≥ n.
type Bingo struct {
	BoardSize int            `json:"board_size"`
	Creation  *BoardCreation `json:"creation,omitempty"`
	Running   *BingoRunning  `json:"running,omitempty"`
}

// BoardCreation collects board submissions until every seat is ready.
type BoardCreation struct {
	Ready []string `json:"ready"`
}

// BingoRunning holds the turn and the ordered call history. The history
// order matters: rankings compare how early a score was reached.
type BingoRunning struct {
	Turn     string           `json:"turn"`
	Selected []SelectedNumber `json:"selected_numbers"`
}

type SelectedNumber struct {
	Value      int    `json:"value"`
	SelectedBy string `json:"selected_by"`
}

type BingoPlayerData struct {
	Board *Board `json:"board,omitempty"`
}

func (*BingoPlayerData) playerData() {}

type BingoStart struct {
	BoardSize int `json:"board_size"`
}

func (BingoStart) Variant() Variant { return VariantBingo }

func (c BingoStart) build(players []Player, starterID string) (Engine, error) {
	if c.BoardSize < 2 || c.BoardSize > 10 {
		return nil, fmt.Errorf("%w: board size %d", ErrInvalidMove, c.BoardSize)
	}
	return &Bingo{
		BoardSize: c.BoardSize,
		Creation:  &BoardCreation{Ready: []string{}},
	}, nil
}

func (c BingoStart) playerData(players []Player, playerID string) PlayerData {
	return &BingoPlayerData{}
}

type BingoReadyBoard struct {
	Board *Board
}

type BingoMove struct {
	Number int
}

func (BingoReadyBoard) message() {}
func (BingoMove) message()       {}

func (g *Bingo) Variant() Variant { return VariantBingo }

func (g *Bingo) IsRunning() bool { return g.Running != nil }

func (g *Bingo) CanChangeTurn(playerID string) bool {
	// Board creation is simultaneous; nobody holds the turn.
	return g.Running != nil && g.Running.Turn == playerID
}

func (g *Bingo) ChangeTurn(playerID string) {
	if g.Running != nil {
		g.Running.Turn = playerID
	}
}

func (g *Bingo) NextTurnPlayer(seats []*Seat) (string, bool) {
	if g.Running == nil {
		return "", false
	}
	return nextEligible(seats, g.Running.Turn, func(s *Seat) bool {
		b := bingoBoard(s)
		return b != nil && !b.Completed(g.Running.Selected)
	})
}

func (g *Bingo) HandleMessage(playerID string, seats []*Seat, msg Message) error {
	switch m := msg.(type) {
	case BingoReadyBoard:
		return g.handleReadyBoard(playerID, seats, m.Board)
	case BingoMove:
		return g.handleMove(playerID, seats, m.Number)
	default:
		return fmt.Errorf("%w: not a bingo message", ErrInvalidMove)
	}
}

func (g *Bingo) handleReadyBoard(playerID string, seats []*Seat, board *Board) error {
	if g.Running != nil {
		return ErrGameRunning
	}
	for _, id := range g.Creation.Ready {
		if id == playerID {
			return fmt.Errorf("%w: board already submitted", ErrInvalidMove)
		}
	}
	seat := seatByID(seats, playerID)
	if seat == nil {
		return ErrPlayerNotFound
	}
	if d, ok := seat.Data.(*BingoPlayerData); ok {
		d.Board = board
	}
	g.Creation.Ready = append(g.Creation.Ready, playerID)
	g.beginIfAllReady(seats)
	return nil
}

// beginIfAllReady flips BoardCreation into the running phase once every seat
// on the roster has a board in. Called on submit and on roster shrink; a
// leaver must not hold the start hostage.
func (g *Bingo) beginIfAllReady(seats []*Seat) {
	if g.Running != nil || len(seats) == 0 || len(g.Creation.Ready) != len(seats) {
		return
	}
	first := seats[rand.Intn(len(seats))]
	g.Creation = nil
	g.Running = &BingoRunning{Turn: first.Player.ID, Selected: []SelectedNumber{}}
}

// HandleLeave prunes the leaver's ready mark and re-checks the start
// condition against the shrunken roster.
func (g *Bingo) HandleLeave(playerID string, seats []*Seat) {
	if g.Creation == nil {
		return
	}
	ready := g.Creation.Ready[:0]
	for _, id := range g.Creation.Ready {
		if id != playerID {
			ready = append(ready, id)
		}
	}
	g.Creation.Ready = ready
	g.beginIfAllReady(seats)
}

func (g *Bingo) handleMove(playerID string, seats []*Seat, number int) error {
	if g.Running == nil {
		return ErrGameNotRunning
	}
	if g.Running.Turn != playerID {
		return ErrNotYourTurn
	}
	if number < 1 || number > g.BoardSize*g.BoardSize {
		return fmt.Errorf("%w: number %d out of range", ErrInvalidMove, number)
	}
	for _, sel := range g.Running.Selected {
		if sel.Value == number {
			return fmt.Errorf("%w: number %d already called", ErrInvalidMove, number)
		}
	}
	g.Running.Selected = append(g.Running.Selected, SelectedNumber{Value: number, SelectedBy: playerID})
	if next, ok := g.NextTurnPlayer(seats); ok {
		g.ChangeTurn(next)
	}
	return nil
}

func (g *Bingo) IsEnd(seats []*Seat) bool {
	if g.Running == nil {
		return connectedCount(seats) <= 1
	}
	racing := 0
	for _, s := range seats {
		if !s.Connected {
			continue
		}
		if b := bingoBoard(s); b != nil && b.Score(g.Running.Selected) < g.BoardSize {
			racing++
		}
	}
	return racing <= 1
}

// Rankings orders players by (score desc, earliest call-history prefix at
// which that score was reached asc). Replaying every prefix of the call
// history rewards the player who got there first, not merely who is ahead
// when the game stops.
func (g *Bingo) Rankings(seats []*Seat) []Rank {
	if g.Running == nil {
		return nil
	}
	type progress struct {
		score    int
		earliest int
	}
	best := make(map[string]progress, len(seats))
	for l := 1; l <= len(g.Running.Selected); l++ {
		prefix := g.Running.Selected[:l]
		for _, s := range seats {
			score := 0
			if b := bingoBoard(s); b != nil {
				score = b.Score(prefix)
				if score > g.BoardSize {
					score = g.BoardSize
				}
			}
			if p := best[s.Player.ID]; score > p.score {
				best[s.Player.ID] = progress{score: score, earliest: l}
			}
		}
	}
	sorted := append([]*Seat(nil), seats...)
	sort.SliceStable(sorted, func(i, j int) bool {
		pi, pj := best[sorted[i].Player.ID], best[sorted[j].Player.ID]
		if pi.score != pj.score {
			return pi.score > pj.score
		}
		return pi.earliest < pj.earliest
	})
	return assignRanks(sorted, func(a, b *Seat) bool {
		return best[a.Player.ID] == best[b.Player.ID]
	})
}

func (g *Bingo) DecodeMessage(raw json.RawMessage) (Message, error) {
	var head struct {
		Type   string  `json:"type"`
		Number int     `json:"number"`
		Board  [][]int `json:"board"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("%w: malformed bingo payload", ErrInvalidMove)
	}
	switch head.Type {
	case "ready_board":
		board, err := NewBoard(head.Board, g.BoardSize)
		if err != nil {
			return nil, err
		}
		return BingoReadyBoard{Board: board}, nil
	case "move":
		return BingoMove{Number: head.Number}, nil
	default:
		return nil, fmt.Errorf("%w: unknown bingo message %q", ErrInvalidMove, head.Type)
	}
}

func bingoBoard(s *Seat) *Board {
	if d, ok := s.Data.(*BingoPlayerData); ok {
		return d.Board
	}
	return nil
}

// Board is an n×n grid of distinct numbers in [1, n²]. Boards are private to
// their owner until broadcast in a snapshot.
type Board struct {
	Numbers [][]int `json:"numbers"`
}

// NewBoard validates shape, range and uniqueness in one pass.
func NewBoard(numbers [][]int, size int) (*Board, error) {
	if len(numbers) != size {
		return nil, fmt.Errorf("%w: board must have %d rows", ErrInvalidMove, size)
	}
	seen := make(map[int]bool, size*size)
	for _, row := range numbers {
		if len(row) != size {
			return nil, fmt.Errorf("%w: board rows must have %d cells", ErrInvalidMove, size)
		}
		for _, v := range row {
			if v < 1 || v > size*size {
				return nil, fmt.Errorf("%w: cell value %d out of range", ErrInvalidMove, v)
			}
			if seen[v] {
				return nil, fmt.Errorf("%w: duplicate cell value %d", ErrInvalidMove, v)
			}
			seen[v] = true
		}
	}
	return &Board{Numbers: numbers}, nil
}

// Score counts fully struck rows, columns and the two diagonals.
func (b *Board) Score(selected []SelectedNumber) int {
	called := make(map[int]bool, len(selected))
	for _, sel := range selected {
		called[sel.Value] = true
	}
	n := len(b.Numbers)
	score := 0
	for i := 0; i < n; i++ {
		row, col := true, true
		for j := 0; j < n; j++ {
			if !called[b.Numbers[i][j]] {
				row = false
			}
			if !called[b.Numbers[j][i]] {
				col = false
			}
		}
		if row {
			score++
		}
		if col {
			score++
		}
	}
	diag, anti := true, true
	for i := 0; i < n; i++ {
		if !called[b.Numbers[i][i]] {
			diag = false
		}
		if !called[b.Numbers[i][n-1-i]] {
			anti = false
		}
	}
	if diag {
		score++
	}
	if anti {
		score++
	}
	return score
}

func (b *Board) WinningPoints() int { return len(b.Numbers) }

func (b *Board) Completed(selected []SelectedNumber) bool {
	return b.Score(selected) >= b.WinningPoints()
}
