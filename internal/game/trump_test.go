package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundContext struct {
	gameType GameType
	subType  string
}

var contexts = []roundContext{
	{Normal, ""},
	{Normal, SubSchweinerei},
	{Marriage, ""},
	{SuitSolo, string(Eichel)},
	{SuitSolo, string(Herz)},
	{QueenSolo, ""},
	{JackSolo, ""},
	{KingSolo, ""},
	{Meatless, ""},
}

// faces returns one card per face of the dealt deck.
func faces() []Card {
	var out []Card
	for _, c := range NewDeck() {
		if c.Instance[len(c.Instance)-1] == '0' {
			out = append(out, c)
		}
	}
	return out
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

func TestDeck(t *testing.T) {
	deck := NewDeck()
	require.Len(t, deck, DeckSize)
	assert.Equal(t, TotalPoints, points(deck))

	seen := map[string]bool{}
	for _, c := range deck {
		assert.False(t, seen[c.Instance], c.Instance)
		seen[c.Instance] = true
		assert.NotEqual(t, Neun, c.Rank)
		assert.Equal(t, 2, countCard(deck, c.ID))
	}
}

func TestParseCardID(t *testing.T) {
	s, r, err := ParseCardID("herz-zehn")
	require.NoError(t, err)
	assert.Equal(t, Herz, s)
	assert.Equal(t, Zehn, r)

	for _, bad := range []string{"", "herz", "herz-sieben", "blau-as"} {
		_, _, err := ParseCardID(bad)
		assert.Error(t, err, bad)
	}
}

func TestIsTrump(t *testing.T) {
	tests := []struct {
		card    string
		gt      GameType
		subType string
		want    bool
	}{
		{"schellen-koenig", Normal, "", true},
		{"schellen-koenig", SuitSolo, "herz", false},
		{"schellen-koenig", KingSolo, "", true},
		{"gruen-koenig", KingSolo, "", true},
		{"gruen-koenig", Normal, "", false},
		{"herz-as", SuitSolo, "herz", true},
		{"herz-as", Normal, "", false},
		{"gruen-unter", JackSolo, "", true},
		{"gruen-unter", QueenSolo, "", false},
		{"gruen-ober", QueenSolo, "", true},
		{"gruen-ober", JackSolo, "", false},
		{"eichel-ober", SuitSolo, "schellen", true},
		{"schellen-as", QueenSolo, "", false},
		{"schellen-as", Marriage, "", true},
		{"eichel-ober", Meatless, "", false},
		{"herz-zehn", Meatless, "", false},
	}
	for _, tt := range tests {
		got := IsTrump(MustCard(tt.card, 0), tt.gt, tt.subType)
		assert.Equal(t, tt.want, got, "%s in %s/%s", tt.card, tt.gt, tt.subType)
	}
}

func TestIsTrumpPureAndDulle(t *testing.T) {
	dulle := MustCard(Dulle, 1)
	for _, ctx := range contexts {
		want := ctx.gameType == Normal || ctx.gameType == Marriage || ctx.gameType == SuitSolo
		assert.Equal(t, want, IsTrump(dulle, ctx.gameType, ctx.subType), ctx.gameType)
		for _, c := range faces() {
			first := IsTrump(c, ctx.gameType, ctx.subType)
			assert.Equal(t, first, IsTrump(c, ctx.gameType, ctx.subType))
		}
	}
}

func TestCompareTrumpOrder(t *testing.T) {
	ctx := roundContext{Normal, ""}
	ranked := []string{
		"herz-zehn",
		"eichel-ober", "gruen-ober", "herz-ober", "schellen-ober",
		"eichel-unter", "gruen-unter", "herz-unter", "schellen-unter",
		"schellen-as", "schellen-zehn", "schellen-koenig",
	}
	for i := 0; i+1 < len(ranked); i++ {
		a, b := MustCard(ranked[i], 0), MustCard(ranked[i+1], 0)
		assert.Negative(t, CompareTrump(a, b, ctx.gameType, ctx.subType), "%s above %s", a.ID, b.ID)
	}

	fox := MustCard(Fuchs, 0)
	assert.Negative(t, CompareTrump(fox, MustCard(Dulle, 0), Normal, SubSchweinerei))
	assert.Zero(t, CompareTrump(fox, MustCard(Fuchs, 1), Normal, SubSchweinerei))
	assert.Positive(t, CompareTrump(fox, MustCard(Dulle, 0), Normal, ""))

	assert.Negative(t, CompareTrump(MustCard("schellen-koenig", 0), MustCard("eichel-as", 0), KingSolo, ""))
	assert.Negative(t, CompareTrump(MustCard("eichel-koenig", 0), MustCard("herz-koenig", 0), KingSolo, ""))
}

func TestCompareIsAntisymmetricAndTransitive(t *testing.T) {
	for _, ctx := range contexts {
		var trumps []Card
		bySuit := map[Suit][]Card{}
		for _, c := range faces() {
			if IsTrump(c, ctx.gameType, ctx.subType) {
				trumps = append(trumps, c)
			} else {
				bySuit[c.Suit] = append(bySuit[c.Suit], c)
			}
		}
		cmpTrump := func(a, b Card) int { return CompareTrump(a, b, ctx.gameType, ctx.subType) }
		checkOrder(t, string(ctx.gameType)+"/"+ctx.subType+" trump", trumps, cmpTrump)
		for s, cards := range bySuit {
			checkOrder(t, string(ctx.gameType)+" "+string(s), cards, CompareFehl)
		}
	}
}

func checkOrder(t *testing.T, name string, cards []Card, cmp func(a, b Card) int) {
	t.Helper()
	for _, a := range cards {
		assert.Zero(t, cmp(a, a), "%s: %s vs itself", name, a.ID)
		for _, b := range cards {
			assert.Equal(t, sign(cmp(a, b)), -sign(cmp(b, a)), "%s: %s vs %s", name, a.ID, b.ID)
			if a.ID != b.ID {
				assert.NotZero(t, cmp(a, b), "%s: %s vs %s tie", name, a.ID, b.ID)
			}
			for _, c := range cards {
				if cmp(a, b) < 0 && cmp(b, c) < 0 {
					assert.Negative(t, cmp(a, c), "%s: %s > %s > %s", name, a.ID, b.ID, c.ID)
				}
			}
		}
	}
}
