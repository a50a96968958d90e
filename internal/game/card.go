// internal/game/card.go
package game

import (
	"fmt"
	"math/rand"
	"strings"
)

// Suit is one of the four German suits.
type Suit string

// Rank is the face of a card.
type Rank string

const (
	Eichel   Suit = "eichel"
	Gruen    Suit = "gruen"
	Herz     Suit = "herz"
	Schellen Suit = "schellen"
)

const (
	As     Rank = "as"
	Zehn   Rank = "zehn"
	Koenig Rank = "koenig"
	Ober   Rank = "ober"
	Unter  Rank = "unter"
	Neun   Rank = "neun"
)

// Suits lists the suits in precedence order, highest first.
var Suits = []Suit{Eichel, Gruen, Herz, Schellen}

// Ranks lists the ranks in plain-suit order, highest first.
var Ranks = []Rank{As, Zehn, Koenig, Ober, Unter, Neun}

// Card ids of the cards the rules single out.
const (
	Dulle       = "herz-zehn"
	Fuchs       = "schellen-as"
	Karlchen    = "eichel-unter"
	EichelOber  = "eichel-ober"
	DeckSize    = 40
	TotalPoints = 240
	HandSize    = 10
)

var rankValues = map[Rank]int{
	As:     11,
	Zehn:   10,
	Koenig: 4,
	Ober:   3,
	Unter:  2,
	Neun:   0,
}

// Card is one physical card. ID names the face ("herz-zehn") and is shared by
// both copies; Instance tells the copies apart.
type Card struct {
	ID       string `json:"id"`
	Suit     Suit   `json:"suit"`
	Rank     Rank   `json:"rank"`
	Value    int    `json:"value"`
	Instance string `json:"instance"`
}

// CardID builds the face id of a suit and rank.
func CardID(s Suit, r Rank) string {
	return string(s) + "-" + string(r)
}

// ParseCardID splits a face id into suit and rank.
func ParseCardID(id string) (Suit, Rank, error) {
	idx := strings.Index(id, "-")
	if idx < 0 {
		return "", "", fmt.Errorf("malformed card id %q", id)
	}
	s, r := Suit(id[:idx]), Rank(id[idx+1:])
	if suitIndex(s) < 0 || rankIndex(r) < 0 {
		return "", "", fmt.Errorf("unknown card %q", id)
	}
	return s, r, nil
}

// NewCard returns the face card for suit and rank with the given copy number.
func NewCard(s Suit, r Rank, copyNo int) Card {
	id := CardID(s, r)
	return Card{
		ID:       id,
		Suit:     s,
		Rank:     r,
		Value:    rankValues[r],
		Instance: fmt.Sprintf("%s:%d", id, copyNo),
	}
}

// MustCard is NewCard for a face id. It panics on an unknown id and is meant
// for tables and tests.
func MustCard(id string, copyNo int) Card {
	s, r, err := ParseCardID(id)
	if err != nil {
		panic(err)
	}
	return NewCard(s, r, copyNo)
}

// NewDeck returns the 40 card deck without nines, two copies of each face.
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for _, s := range Suits {
		for _, r := range Ranks {
			if r == Neun {
				continue
			}
			for c := 0; c < 2; c++ {
				deck = append(deck, NewCard(s, r, c))
			}
		}
	}
	return deck
}

// shuffleCards shuffles in place. A nil source uses the global generator.
func shuffleCards(cards []Card, rng *rand.Rand) {
	swap := func(i, j int) { cards[i], cards[j] = cards[j], cards[i] }
	if rng == nil {
		rand.Shuffle(len(cards), swap)
		return
	}
	rng.Shuffle(len(cards), swap)
}

func points(cards []Card) int {
	sum := 0
	for _, c := range cards {
		sum += c.Value
	}
	return sum
}

func suitIndex(s Suit) int {
	for i, x := range Suits {
		if x == s {
			return i
		}
	}
	return -1
}

func rankIndex(r Rank) int {
	for i, x := range Ranks {
		if x == r {
			return i
		}
	}
	return -1
}

// indexOfCard returns the position of the first card with the given face id.
func indexOfCard(cards []Card, id string) int {
	for i, c := range cards {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func countCard(cards []Card, id string) int {
	n := 0
	for _, c := range cards {
		if c.ID == id {
			n++
		}
	}
	return n
}
