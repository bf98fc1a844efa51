package registry

import (
	"errors"
	"sync"
	"testing"

	"parlor/internal/game"
	"parlor/internal/room"
)

func TestCreateAndLookup(t *testing.T) {
	reg := New()
	r := room.New("AAAA", game.Player{ID: "a", Name: "Alice"})
	if err := reg.Create(r); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := reg.Create(room.New("AAAA", game.Player{ID: "b", Name: "Bob"})); !errors.Is(err, room.ErrRoomExists) {
		t.Fatalf("duplicate create = %v, want %v", err, room.ErrRoomExists)
	}
	if reg.Len() != 1 {
		t.Fatalf("len = %d, want 1", reg.Len())
	}

	var gotID string
	err := reg.WithRead("AAAA", func(r *room.Room) error {
		gotID = r.ID
		return nil
	})
	if err != nil {
		t.Fatalf("with read: %v", err)
	}
	if gotID != "AAAA" {
		t.Fatalf("room id = %q, want AAAA", gotID)
	}
}

func TestMissingRoom(t *testing.T) {
	reg := New()
	err := reg.WithWrite("NOPE", func(r *room.Room) error { return nil })
	if !errors.Is(err, room.ErrRoomNotFound) {
		t.Fatalf("with write on missing = %v, want %v", err, room.ErrRoomNotFound)
	}
	err = reg.WithRead("NOPE", func(r *room.Room) error { return nil })
	if !errors.Is(err, room.ErrRoomNotFound) {
		t.Fatalf("with read on missing = %v, want %v", err, room.ErrRoomNotFound)
	}
	reg.Remove("NOPE") // no-op, must not panic
}

func TestWithWritePropagatesError(t *testing.T) {
	reg := New()
	if err := reg.Create(room.New("AAAA", game.Player{ID: "a", Name: "Alice"})); err != nil {
		t.Fatalf("create: %v", err)
	}
	sentinel := errors.New("boom")
	if err := reg.WithWrite("AAAA", func(r *room.Room) error { return sentinel }); !errors.Is(err, sentinel) {
		t.Fatalf("err = %v, want %v", err, sentinel)
	}
}

func TestConcurrentWrites(t *testing.T) {
	reg := New()
	if err := reg.Create(room.New("AAAA", game.Player{ID: "p0", Name: "P0"})); err != nil {
		t.Fatalf("create: %v", err)
	}
	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = reg.WithWrite("AAAA", func(r *room.Room) error {
				return r.AddPlayer(game.Player{ID: "p" + string(rune('a'+n)), Name: "P"})
			})
		}(i)
	}
	wg.Wait()

	var players int
	_ = reg.WithRead("AAAA", func(r *room.Room) error {
		players = len(r.Snapshot().Players)
		return nil
	})
	if players != 21 {
		t.Fatalf("players = %d, want 21", players)
	}
}
