package game

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Boxes is the dots-and-boxes grid: players take turns claiming edges, and a
// cell belongs to whoever placed its final edge. Closing at least one cell
// keeps the turn.
type Boxes struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	// Vertical edges are the left/right cell borders (Height rows of
	// Width+1), horizontal edges the top/bottom borders (Height+1 rows of
	// Width). Edge ids are stable across the whole game.
	Vertical   [][]Edge `json:"vertical_edges"`
	Horizontal [][]Edge `json:"horizontal_edges"`
	Turn       string   `json:"turn"`
}

// Edge is unoccupied while MoveNo is zero.
type Edge struct {
	ID         int    `json:"id"`
	OccupiedBy string `json:"occupied_by,omitempty"`
	MoveNo     int    `json:"move_no,omitempty"`
}

type BoxesPlayerData struct {
	Color string `json:"color"`
}

func (*BoxesPlayerData) playerData() {}

type BoxesStart struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (BoxesStart) Variant() Variant { return VariantBoxes }

func (c BoxesStart) build(players []Player, starterID string) (Engine, error) {
	if c.Width < 1 || c.Height < 1 || c.Width > 20 || c.Height > 20 {
		return nil, fmt.Errorf("%w: board %dx%d", ErrInvalidMove, c.Width, c.Height)
	}
	id := 0
	vertical := make([][]Edge, c.Height)
	for i := range vertical {
		vertical[i] = make([]Edge, c.Width+1)
		for j := range vertical[i] {
			id++
			vertical[i][j] = Edge{ID: id}
		}
	}
	horizontal := make([][]Edge, c.Height+1)
	for i := range horizontal {
		horizontal[i] = make([]Edge, c.Width)
		for j := range horizontal[i] {
			id++
			horizontal[i][j] = Edge{ID: id}
		}
	}
	return &Boxes{
		Width:      c.Width,
		Height:     c.Height,
		Vertical:   vertical,
		Horizontal: horizontal,
		Turn:       players[rand.Intn(len(players))].ID,
	}, nil
}

// playerData assigns each player a distinct color, hues spaced evenly around
// the wheel.
func (c BoxesStart) playerData(players []Player, playerID string) PlayerData {
	idx := 0
	for i, p := range players {
		if p.ID == playerID {
			idx = i
			break
		}
	}
	hue := float64(idx) * 360.0 / float64(len(players))
	return &BoxesPlayerData{Color: hslToHex(hue, 1.0, 0.5)}
}

type BoxesMove struct {
	EdgeID int
}

func (BoxesMove) message() {}

func (g *Boxes) Variant() Variant { return VariantBoxes }

func (g *Boxes) IsRunning() bool { return true }

func (g *Boxes) CanChangeTurn(playerID string) bool { return g.Turn == playerID }

func (g *Boxes) ChangeTurn(playerID string) { g.Turn = playerID }

func (g *Boxes) NextTurnPlayer(seats []*Seat) (string, bool) {
	if g.allCellsOwned() {
		return "", false
	}
	return nextEligible(seats, g.Turn, func(*Seat) bool { return true })
}

func (g *Boxes) HandleMessage(playerID string, seats []*Seat, msg Message) error {
	m, ok := msg.(BoxesMove)
	if !ok {
		return fmt.Errorf("%w: not a boxes message", ErrInvalidMove)
	}
	if g.Turn != playerID {
		return ErrNotYourTurn
	}
	edge := g.findEdge(m.EdgeID)
	if edge == nil {
		return fmt.Errorf("%w: no edge %d", ErrInvalidMove, m.EdgeID)
	}
	if edge.MoveNo != 0 {
		return fmt.Errorf("%w: edge %d already claimed", ErrInvalidMove, m.EdgeID)
	}
	before := g.ownedCellCount()
	edge.OccupiedBy = playerID
	edge.MoveNo = g.maxMoveNo() + 1
	// Closing a cell earns another move; otherwise the turn passes on.
	if g.ownedCellCount() <= before {
		if next, ok := g.NextTurnPlayer(seats); ok {
			g.ChangeTurn(next)
		}
	}
	return nil
}

// HandleLeave is a no-op: edges keep their owner and the room rebalances
// the turn before the seat goes.
func (g *Boxes) HandleLeave(playerID string, seats []*Seat) {}

func (g *Boxes) IsEnd(seats []*Seat) bool {
	return connectedCount(seats) <= 1 || g.allCellsOwned()
}

// Rankings: most owned cells first, ties share.
func (g *Boxes) Rankings(seats []*Seat) []Rank {
	cells := g.Cells()
	owned := make(map[string]int, len(seats))
	for _, row := range cells {
		for _, owner := range row {
			if owner != "" {
				owned[owner]++
			}
		}
	}
	sorted := append([]*Seat(nil), seats...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return owned[sorted[i].Player.ID] > owned[sorted[j].Player.ID]
	})
	return assignRanks(sorted, func(a, b *Seat) bool {
		return owned[a.Player.ID] == owned[b.Player.ID]
	})
}

func (g *Boxes) DecodeMessage(raw json.RawMessage) (Message, error) {
	var head struct {
		Type   string `json:"type"`
		EdgeID int    `json:"edge_id"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("%w: malformed boxes payload", ErrInvalidMove)
	}
	if head.Type != "move" {
		return nil, fmt.Errorf("%w: unknown boxes message %q", ErrInvalidMove, head.Type)
	}
	return BoxesMove{EdgeID: head.EdgeID}, nil
}

// Cells resolves ownership: a cell with all four edges claimed belongs to the
// player who placed the edge with the highest move number.
func (g *Boxes) Cells() [][]string {
	cells := make([][]string, g.Height)
	for i := 0; i < g.Height; i++ {
		cells[i] = make([]string, g.Width)
		for j := 0; j < g.Width; j++ {
			edges := [4]Edge{
				g.Vertical[i][j],
				g.Vertical[i][j+1],
				g.Horizontal[i][j],
				g.Horizontal[i+1][j],
			}
			last := Edge{}
			closed := true
			for _, e := range edges {
				if e.MoveNo == 0 {
					closed = false
					break
				}
				if e.MoveNo > last.MoveNo {
					last = e
				}
			}
			if closed {
				cells[i][j] = last.OccupiedBy
			}
		}
	}
	return cells
}

func (g *Boxes) Score(playerID string) int {
	n := 0
	for _, row := range g.Cells() {
		for _, owner := range row {
			if owner == playerID {
				n++
			}
		}
	}
	return n
}

func (g *Boxes) findEdge(id int) *Edge {
	for i := range g.Vertical {
		for j := range g.Vertical[i] {
			if g.Vertical[i][j].ID == id {
				return &g.Vertical[i][j]
			}
		}
	}
	for i := range g.Horizontal {
		for j := range g.Horizontal[i] {
			if g.Horizontal[i][j].ID == id {
				return &g.Horizontal[i][j]
			}
		}
	}
	return nil
}

func (g *Boxes) maxMoveNo() int {
	max := 0
	for i := range g.Vertical {
		for j := range g.Vertical[i] {
			if g.Vertical[i][j].MoveNo > max {
				max = g.Vertical[i][j].MoveNo
			}
		}
	}
	for i := range g.Horizontal {
		for j := range g.Horizontal[i] {
			if g.Horizontal[i][j].MoveNo > max {
				max = g.Horizontal[i][j].MoveNo
			}
		}
	}
	return max
}

func (g *Boxes) ownedCellCount() int {
	n := 0
	for _, row := range g.Cells() {
		for _, owner := range row {
			if owner != "" {
				n++
			}
		}
	}
	return n
}

func (g *Boxes) allCellsOwned() bool {
	return g.ownedCellCount() == g.Width*g.Height
}

func hslToHex(h, s, l float64) string {
	c := (1 - math.Abs(2*l-1)) * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := l - c/2
	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return fmt.Sprintf("#%02x%02x%02x",
		int(math.Round((r+m)*255)),
		int(math.Round((g+m)*255)),
		int(math.Round((b+m)*255)))
}
