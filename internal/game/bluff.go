package game

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
)

// Bluff is a card shedding game built around unverifiable claims. The turn
// holder discards cards face down under a claim; later players may pass,
// continue dealing under the same claim, or flip the last pile to challenge
// it. Whoever ends up wrong takes the whole center. First to shed every card
// ranks first.
type Bluff struct {
	// RoundLeader opened the current round and collects the center when a
	// challenge exposes a lie.
	RoundLeader string   `json:"round_leader"`
	Turn        string   `json:"turn"`
	Center      [][]Card `json:"center"`
	// Reserve holds the cards left over when 52 doesn't divide evenly.
	Reserve []Card `json:"reserve"`
	Claimed *Card  `json:"claimed,omitempty"`
}

type BluffPlayerData struct {
	Cards         []Card `json:"cards"`
	VotedRoundEnd bool   `json:"voted_round_end"`
}

func (*BluffPlayerData) playerData() {}

type BluffStart struct {
	// Seed drives the deal; the same seed and roster produce the same hands.
	Seed int64 `json:"seed"`
}

func (BluffStart) Variant() Variant { return VariantBluff }

func (c BluffStart) build(players []Player, starterID string) (Engine, error) {
	if len(players) < 2 {
		return nil, fmt.Errorf("%w: bluff needs at least 2 players", ErrInvalidMove)
	}
	dealt := dealBluffHands(c.Seed, players)
	inHand := make(map[Card]bool, 52)
	for _, hand := range dealt {
		for _, card := range hand {
			inHand[card] = true
		}
	}
	reserve := []Card{}
	for _, card := range fullDeck() {
		if !inHand[card] {
			reserve = append(reserve, card)
		}
	}
	return &Bluff{
		RoundLeader: starterID,
		Turn:        starterID,
		Center:      [][]Card{},
		Reserve:     reserve,
	}, nil
}

func (c BluffStart) playerData(players []Player, playerID string) PlayerData {
	return &BluffPlayerData{Cards: dealBluffHands(c.Seed, players)[playerID]}
}

// dealBluffHands splits 52/len(players) cards to each player in roster order.
// One seeded shuffle keeps every per-player call consistent with the others.
func dealBluffHands(seed int64, players []Player) map[string][]Card {
	deck := fullDeck()
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
	per := 52 / len(players)
	hands := make(map[string][]Card, len(players))
	for i, p := range players {
		hands[p.ID] = append([]Card(nil), deck[i*per:(i+1)*per]...)
	}
	return hands
}

type BluffDeal struct {
	Cards []Card
	Claim Card
}

type BluffPass struct{}

type BluffFlip struct{}

type BluffVoteRoundEnd struct{}

func (BluffDeal) message()         {}
func (BluffPass) message()         {}
func (BluffFlip) message()         {}
func (BluffVoteRoundEnd) message() {}

func (g *Bluff) Variant() Variant { return VariantBluff }

func (g *Bluff) IsRunning() bool { return true }

func (g *Bluff) CanChangeTurn(playerID string) bool { return g.Turn == playerID }

func (g *Bluff) ChangeTurn(playerID string) { g.Turn = playerID }

func (g *Bluff) NextTurnPlayer(seats []*Seat) (string, bool) {
	return nextEligible(seats, g.Turn, bluffHasCards)
}

func (g *Bluff) HandleMessage(playerID string, seats []*Seat, msg Message) error {
	switch m := msg.(type) {
	case BluffDeal:
		return g.handleDeal(playerID, seats, m)
	case BluffPass:
		return g.handlePass(playerID, seats)
	case BluffFlip:
		return g.handleFlip(playerID, seats)
	case BluffVoteRoundEnd:
		return g.handleVote(playerID, seats)
	default:
		return fmt.Errorf("%w: not a bluff message", ErrInvalidMove)
	}
}

func (g *Bluff) handleDeal(playerID string, seats []*Seat, m BluffDeal) error {
	if g.Turn != playerID {
		return ErrNotYourTurn
	}
	if len(m.Cards) == 0 {
		return fmt.Errorf("%w: deal must include cards", ErrInvalidMove)
	}
	if g.Claimed != nil && *g.Claimed != m.Claim {
		return fmt.Errorf("%w: claim is fixed for the round", ErrInvalidMove)
	}
	seat := seatByID(seats, playerID)
	if seat == nil {
		return ErrPlayerNotFound
	}
	data, ok := seat.Data.(*BluffPlayerData)
	if !ok {
		return ErrPlayerNotFound
	}
	hand := make(map[Card]bool, len(data.Cards))
	for _, c := range data.Cards {
		hand[c] = true
	}
	for _, c := range m.Cards {
		if !hand[c] {
			return fmt.Errorf("%w: card %s not in hand", ErrInvalidMove, c)
		}
	}
	kept := data.Cards[:0]
	for _, c := range data.Cards {
		discard := false
		for _, d := range m.Cards {
			if c == d {
				discard = true
				break
			}
		}
		if !discard {
			kept = append(kept, c)
		}
	}
	data.Cards = kept
	g.Center = append(g.Center, append([]Card(nil), m.Cards...))
	claim := m.Claim
	g.Claimed = &claim
	if next, ok := g.NextTurnPlayer(seats); ok {
		g.ChangeTurn(next)
	}
	return nil
}

func (g *Bluff) handlePass(playerID string, seats []*Seat) error {
	if g.Turn != playerID {
		return ErrNotYourTurn
	}
	if next, ok := g.NextTurnPlayer(seats); ok {
		g.ChangeTurn(next)
	}
	return nil
}

// handleFlip resolves a challenge against the last dealt pile. A truthful
// claim punishes the challenger with the whole center; a lie hands it to the
// round leader. The taker leads the next round.
func (g *Bluff) handleFlip(playerID string, seats []*Seat) error {
	if g.Turn != playerID {
		return ErrNotYourTurn
	}
	if len(g.Center) == 0 || g.Claimed == nil {
		return fmt.Errorf("%w: nothing to flip", ErrInvalidMove)
	}
	last := g.Center[len(g.Center)-1]
	truthful := true
	for _, c := range last {
		if c.Face != g.Claimed.Face {
			truthful = false
			break
		}
	}
	taker := g.RoundLeader
	if truthful {
		taker = playerID
	}
	seat := seatByID(seats, taker)
	if seat == nil {
		return ErrPlayerNotFound
	}
	if data, ok := seat.Data.(*BluffPlayerData); ok {
		for _, pile := range g.Center {
			data.Cards = append(data.Cards, pile...)
		}
	}
	g.Center = g.Center[:0]
	g.Turn = taker
	g.RoundLeader = taker
	g.Claimed = nil
	return nil
}

// handleVote lets a round die without a challenge. Once every seat has
// voted, the center sinks into the reserve and the next player after the
// round leader opens a fresh round.
func (g *Bluff) handleVote(playerID string, seats []*Seat) error {
	seat := seatByID(seats, playerID)
	if seat == nil {
		return ErrPlayerNotFound
	}
	if data, ok := seat.Data.(*BluffPlayerData); ok {
		data.VotedRoundEnd = true
	}
	g.endRoundIfAllVoted(seats)
	return nil
}

func (g *Bluff) endRoundIfAllVoted(seats []*Seat) {
	for _, s := range seats {
		if d, ok := s.Data.(*BluffPlayerData); ok && !d.VotedRoundEnd {
			return
		}
	}
	next, ok := nextEligible(seats, g.RoundLeader, bluffHasCards)
	if !ok {
		return
	}
	g.Turn = next
	g.RoundLeader = next
	for _, s := range seats {
		if d, ok := s.Data.(*BluffPlayerData); ok {
			d.VotedRoundEnd = false
		}
	}
	for _, pile := range g.Center {
		g.Reserve = append(g.Reserve, pile...)
	}
	g.Center = g.Center[:0]
	g.Claimed = nil
}

// HandleLeave re-checks the round-end vote: the leaver may have been the
// only seat still holding it open.
func (g *Bluff) HandleLeave(playerID string, seats []*Seat) {
	g.endRoundIfAllVoted(seats)
}

func (g *Bluff) IsEnd(seats []*Seat) bool {
	if connectedCount(seats) <= 1 {
		return true
	}
	holding := 0
	for _, s := range seats {
		if bluffHasCards(s) {
			holding++
		}
	}
	return holding <= 1
}

// Rankings: fewest cards left ranks first, ties share.
func (g *Bluff) Rankings(seats []*Seat) []Rank {
	sorted := append([]*Seat(nil), seats...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(bluffCards(sorted[i])) < len(bluffCards(sorted[j]))
	})
	return assignRanks(sorted, func(a, b *Seat) bool {
		return len(bluffCards(a)) == len(bluffCards(b))
	})
}

func (g *Bluff) DecodeMessage(raw json.RawMessage) (Message, error) {
	var head struct {
		Type  string `json:"type"`
		Cards []int  `json:"cards"`
		Claim int    `json:"claim"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("%w: malformed bluff payload", ErrInvalidMove)
	}
	switch head.Type {
	case "deal":
		cards := make([]Card, 0, len(head.Cards))
		for _, n := range head.Cards {
			c, err := CardFromIndex(n)
			if err != nil {
				return nil, err
			}
			cards = append(cards, c)
		}
		claim, err := CardFromIndex(head.Claim)
		if err != nil {
			return nil, err
		}
		return BluffDeal{Cards: cards, Claim: claim}, nil
	case "pass":
		return BluffPass{}, nil
	case "flip":
		return BluffFlip{}, nil
	case "vote_round_end":
		return BluffVoteRoundEnd{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown bluff message %q", ErrInvalidMove, head.Type)
	}
}

func bluffCards(s *Seat) []Card {
	if d, ok := s.Data.(*BluffPlayerData); ok {
		return d.Cards
	}
	return nil
}

func bluffHasCards(s *Seat) bool { return len(bluffCards(s)) > 0 }
