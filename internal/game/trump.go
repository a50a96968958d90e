// internal/game/trump.go
package game

// GameType is the contract of a round, decided during the health check.
type GameType string

const (
	Normal    GameType = "gesund"
	Marriage  GameType = "hochzeit"
	SuitSolo  GameType = "farbsolo"
	QueenSolo GameType = "obersolo"
	JackSolo  GameType = "untersolo"
	KingSolo  GameType = "koenigsolo"
	Meatless  GameType = "fleischloser"
)

// SubSchweinerei marks a normal game or marriage in which one seat holds
// both foxes.
const SubSchweinerei = "schweinerei"

// IsSolo reports whether t is played one against three.
func (t GameType) IsSolo() bool {
	switch t {
	case SuitSolo, QueenSolo, JackSolo, KingSolo, Meatless:
		return true
	}
	return false
}

// Valid reports whether t is a known game type.
func (t GameType) Valid() bool {
	return t == Normal || t == Marriage || t.IsSolo()
}

// hasExtras reports whether tricks can earn bonus tags.
func (t GameType) hasExtras() bool {
	return t == Normal || t == Marriage
}

func (t GameType) in(types ...GameType) bool {
	for _, x := range types {
		if x == t {
			return true
		}
	}
	return false
}

// IsTrump classifies c under the given round contract. The answer depends
// on the round, so it is never stored on the card.
func IsTrump(c Card, t GameType, subType string) bool {
	if c.ID == Dulle {
		return t.in(Normal, Marriage, SuitSolo)
	}
	switch c.Rank {
	case Ober:
		return t.in(Normal, Marriage, SuitSolo, QueenSolo)
	case Unter:
		return t.in(Normal, Marriage, SuitSolo, JackSolo)
	}
	if t == SuitSolo && string(c.Suit) == subType {
		return true
	}
	if t == KingSolo && c.Rank == Koenig {
		return true
	}
	if c.Suit == Schellen {
		return t.in(Normal, Marriage)
	}
	return false
}

// CompareFehl orders two plain cards. Cards of one suit compare by rank,
// different suits by suit precedence. Negative means a ranks above b.
func CompareFehl(a, b Card) int {
	if a.Suit == b.Suit {
		return rankIndex(a.Rank) - rankIndex(b.Rank)
	}
	return suitIndex(a.Suit) - suitIndex(b.Suit)
}

// CompareTrump orders two trump cards. Negative means a ranks above b.
func CompareTrump(a, b Card, t GameType, subType string) int {
	if subType == SubSchweinerei {
		if a.ID == Fuchs {
			if b.ID == Fuchs {
				return 0
			}
			return -1
		}
		if b.ID == Fuchs {
			return 1
		}
	}

	if a.ID == Dulle {
		if b.ID == Dulle {
			return 0
		}
		return -1
	}
	if b.ID == Dulle {
		return 1
	}

	if c, ok := compareCourt(a, b, Ober); ok {
		return c
	}
	if c, ok := compareCourt(a, b, Unter); ok {
		return c
	}
	if t == KingSolo {
		if c, ok := compareCourt(a, b, Koenig); ok {
			return c
		}
	}
	return CompareFehl(a, b)
}

// compareCourt ranks cards of rank r above everything else and among each
// other by suit. ok is false when neither card has rank r.
func compareCourt(a, b Card, r Rank) (int, bool) {
	switch {
	case a.Rank == r && b.Rank == r:
		return suitIndex(a.Suit) - suitIndex(b.Suit), true
	case a.Rank == r:
		return -1, true
	case b.Rank == r:
		return 1, true
	}
	return 0, false
}
