package game

import (
	"errors"
	"testing"
)

func boxesSeats(t *testing.T, raw string, ids ...string) ([]*Seat, *Boxes) {
	t.Helper()
	players := make([]Player, 0, len(ids))
	for _, id := range ids {
		players = append(players, Player{ID: id, Name: id})
	}
	seats := seatsFor(players...)
	engine := startEngine(t, raw, ids[0], seats)
	return seats, engine.(*Boxes)
}

func TestBoxesStart(t *testing.T) {
	_, g := boxesSeats(t, `{"variant":"boxes","width":2,"height":3}`, "a", "b")
	if len(g.Vertical) != 3 || len(g.Vertical[0]) != 3 {
		t.Fatalf("vertical grid = %dx%d, want 3x3", len(g.Vertical), len(g.Vertical[0]))
	}
	if len(g.Horizontal) != 4 || len(g.Horizontal[0]) != 2 {
		t.Fatalf("horizontal grid = %dx%d, want 4x2", len(g.Horizontal), len(g.Horizontal[0]))
	}
	// Ids are dense over both edge sets: H*(W+1) + (H+1)*W.
	want := 3*3 + 4*2
	seen := make(map[int]bool, want)
	for _, row := range g.Vertical {
		for _, e := range row {
			seen[e.ID] = true
		}
	}
	for _, row := range g.Horizontal {
		for _, e := range row {
			seen[e.ID] = true
		}
	}
	for id := 1; id <= want; id++ {
		if !seen[id] {
			t.Fatalf("edge id %d missing", id)
		}
	}
	if g.Turn != "a" && g.Turn != "b" {
		t.Fatalf("turn = %q, want a roster member", g.Turn)
	}
}

func TestBoxesStartValidation(t *testing.T) {
	players := []Player{{ID: "a"}, {ID: "b"}}
	for _, cfg := range []BoxesStart{{Width: 0, Height: 2}, {Width: 2, Height: 0}, {Width: 21, Height: 2}} {
		if _, err := Start(cfg, players, "a"); !errors.Is(err, ErrInvalidMove) {
			t.Fatalf("%+v: err = %v, want %v", cfg, err, ErrInvalidMove)
		}
	}
}

func TestBoxesPlayerColorsDistinct(t *testing.T) {
	players := []Player{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	cfg := BoxesStart{Width: 2, Height: 2}
	seen := map[string]bool{}
	for _, p := range players {
		data := cfg.playerData(players, p.ID).(*BoxesPlayerData)
		if len(data.Color) != 7 || data.Color[0] != '#' {
			t.Fatalf("color = %q, want #rrggbb", data.Color)
		}
		if seen[data.Color] {
			t.Fatalf("color %s assigned twice", data.Color)
		}
		seen[data.Color] = true
	}
}

func TestBoxesMoveValidation(t *testing.T) {
	seats, g := boxesSeats(t, `{"variant":"boxes","width":2,"height":2}`, "a", "b")
	holder := g.Turn
	other := "a"
	if holder == "a" {
		other = "b"
	}

	if err := g.HandleMessage(other, seats, BoxesMove{EdgeID: 1}); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("out of turn = %v, want %v", err, ErrNotYourTurn)
	}
	if err := g.HandleMessage(holder, seats, BoxesMove{EdgeID: 99}); !errors.Is(err, ErrInvalidMove) {
		t.Fatalf("unknown edge = %v, want %v", err, ErrInvalidMove)
	}
	if err := g.HandleMessage(holder, seats, BoxesMove{EdgeID: 1}); err != nil {
		t.Fatalf("move: %v", err)
	}
	if g.Turn != other {
		t.Fatalf("turn = %q, want %q after a non-closing move", g.Turn, other)
	}
	if err := g.HandleMessage(other, seats, BoxesMove{EdgeID: 1}); !errors.Is(err, ErrInvalidMove) {
		t.Fatalf("occupied edge = %v, want %v", err, ErrInvalidMove)
	}
}

func TestBoxesClosingCellKeepsTurn(t *testing.T) {
	seats, g := boxesSeats(t, `{"variant":"boxes","width":1,"height":1}`, "a", "b")
	// 1x1: vertical edges 1,2 then horizontal edges 3,4. Let the turn
	// bounce through the first three, then whoever holds it closes the cell.
	for _, id := range []int{1, 2, 3} {
		if err := g.HandleMessage(g.Turn, seats, BoxesMove{EdgeID: id}); err != nil {
			t.Fatalf("edge %d: %v", id, err)
		}
	}
	closer := g.Turn
	if err := g.HandleMessage(closer, seats, BoxesMove{EdgeID: 4}); err != nil {
		t.Fatalf("closing move: %v", err)
	}
	if g.Turn != closer {
		t.Fatalf("turn = %q, want %q kept after closing a cell", g.Turn, closer)
	}

	cells := g.Cells()
	if cells[0][0] != closer {
		t.Fatalf("cell owner = %q, want %q", cells[0][0], closer)
	}
	if !g.IsEnd(seats) {
		t.Fatal("full grid should end the game")
	}
	if g.Score(closer) != 1 {
		t.Fatalf("score = %d, want 1", g.Score(closer))
	}
}

func TestBoxesOwnershipByLastEdge(t *testing.T) {
	seats, g := boxesSeats(t, `{"variant":"boxes","width":1,"height":1}`, "a", "b")
	// Claim edges in a fixed pattern regardless of whose turn the engine
	// picked: force the turn before each move.
	order := []struct {
		player string
		edge   int
	}{{"a", 1}, {"b", 2}, {"a", 3}, {"b", 4}}
	for _, step := range order {
		g.Turn = step.player
		if err := g.HandleMessage(step.player, seats, BoxesMove{EdgeID: step.edge}); err != nil {
			t.Fatalf("%s edge %d: %v", step.player, step.edge, err)
		}
	}
	// b placed the fourth and final edge.
	if got := g.Cells()[0][0]; got != "b" {
		t.Fatalf("owner = %q, want b", got)
	}
	ranks := g.Rankings(seats)
	if ranks[0].Player.ID != "b" || ranks[0].Rank != 1 {
		t.Fatalf("rank 1 = %+v, want b", ranks[0])
	}
	if ranks[1].Player.ID != "a" || ranks[1].Rank != 2 {
		t.Fatalf("rank 2 = %+v, want a", ranks[1])
	}
}

func TestBoxesEndOnDisconnect(t *testing.T) {
	seats, g := boxesSeats(t, `{"variant":"boxes","width":3,"height":3}`, "a", "b")
	if g.IsEnd(seats) {
		t.Fatal("fresh game is not terminal")
	}
	seats[1].Connected = false
	if !g.IsEnd(seats) {
		t.Fatal("one connected player left, game should end")
	}
}

func TestBoxesRankingsShareTies(t *testing.T) {
	seats, g := boxesSeats(t, `{"variant":"boxes","width":2,"height":1}`, "a", "b")
	ranks := g.Rankings(seats)
	if len(ranks) != 2 || ranks[0].Rank != 1 || ranks[1].Rank != 1 {
		t.Fatalf("ranks with no cells owned = %v, want shared rank 1", ranks)
	}
}
