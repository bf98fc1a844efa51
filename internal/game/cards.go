package game

import "fmt"

type Suit int

type Face int

const (
	Spades Suit = iota
	Hearts
	Clubs
	Diamonds
)

const (
	Ace Face = iota
	Two
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
)

// Card is one of the 52 standard playing cards. The wire encoding is the
// index 0..51 where suit = index/13 and face = index%13.
type Card struct {
	Face Face `json:"face"`
	Suit Suit `json:"suit"`
}

func CardFromIndex(n int) (Card, error) {
	if n < 0 || n > 51 {
		return Card{}, fmt.Errorf("%w: card index %d out of range", ErrInvalidMove, n)
	}
	return Card{Face: Face(n % 13), Suit: Suit(n / 13)}, nil
}

func (c Card) Index() int {
	return int(c.Suit)*13 + int(c.Face)
}

func (c Card) String() string {
	f := map[Face]string{
		Ace: "A", Two: "2", Three: "3", Four: "4", Five: "5", Six: "6", Seven: "7",
		Eight: "8", Nine: "9", Ten: "T", Jack: "J", Queen: "Q", King: "K",
	}[c.Face]
	s := map[Suit]string{Spades: "s", Hearts: "h", Clubs: "c", Diamonds: "d"}[c.Suit]
	return f + s
}

func fullDeck() []Card {
	cards := make([]Card, 0, 52)
	for i := 0; i < 52; i++ {
		c, _ := CardFromIndex(i)
		cards = append(cards, c)
	}
	return cards
}
