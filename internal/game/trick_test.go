package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cards(ids ...string) []Card {
	copies := map[string]int{}
	out := make([]Card, len(ids))
	for i, id := range ids {
		out[i] = MustCard(id, copies[id])
		copies[id]++
	}
	return out
}

func TestTrickWinner(t *testing.T) {
	tests := []struct {
		name    string
		cards   []Card
		gt      GameType
		subType string
		want    int
	}{
		{"second dulle beats first", cards("herz-zehn", "eichel-ober", "herz-zehn", "schellen-as"), Normal, "", 2},
		{"second dulle in suit solo", cards("herz-zehn", "herz-zehn", "herz-as", "gruen-ober"), SuitSolo, "herz", 1},
		{"equal obers keep the first", cards("gruen-ober", "gruen-ober", "herz-unter", "gruen-koenig"), Normal, "", 0},
		{"trump beats plain", cards("gruen-as", "gruen-zehn", "schellen-koenig", "gruen-as"), Normal, "", 2},
		{"off suit plain never wins", cards("gruen-zehn", "eichel-as", "gruen-koenig", "herz-as"), Normal, "", 0},
		{"higher plain of led suit", cards("gruen-koenig", "gruen-as", "gruen-zehn", "eichel-as"), Normal, "", 1},
		{"herz-zehn is plain in queen solo", cards("herz-as", "herz-zehn", "gruen-as", "herz-koenig"), QueenSolo, "", 0},
		{"queen solo ober", cards("herz-as", "schellen-ober", "eichel-unter", "herz-as"), QueenSolo, "", 1},
		{"schweinerei fox on top", cards("herz-zehn", "schellen-as", "eichel-ober", "herz-zehn"), Normal, SubSchweinerei, 1},
		{"meatless has no trump", cards("eichel-ober", "eichel-as", "herz-ober", "eichel-zehn"), Meatless, "", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TrickWinner(tt.cards, tt.gt, tt.subType))
		})
	}
}

func TestCheckPlay(t *testing.T) {
	t.Run("void in suit and trump plays anything", func(t *testing.T) {
		g := runningGame(t, Normal, "", [Seats][]string{{"gruen-as"}, {"eichel-as", "herz-koenig"}, {}, {}})
		_, err := g.PlayCard(0, "gruen-as")
		require.NoError(t, err)
		assert.NoError(t, g.CheckPlay(1, "eichel-as"))
		assert.NoError(t, g.CheckPlay(1, "herz-koenig"))
	})
	t.Run("must follow plain suit", func(t *testing.T) {
		g := runningGame(t, Normal, "", [Seats][]string{{"gruen-as"}, {"gruen-koenig", "schellen-as"}, {}, {}})
		_, err := g.PlayCard(0, "gruen-as")
		require.NoError(t, err)
		assert.ErrorIs(t, g.CheckPlay(1, "schellen-as"), ErrMustFollowSuit)
		assert.NoError(t, g.CheckPlay(1, "gruen-koenig"))
	})
	t.Run("trump of the led suit does not follow it", func(t *testing.T) {
		g := runningGame(t, Normal, "", [Seats][]string{{"gruen-as"}, {"gruen-ober", "eichel-as"}, {}, {}})
		_, err := g.PlayCard(0, "gruen-as")
		require.NoError(t, err)
		assert.NoError(t, g.CheckPlay(1, "eichel-as"))
		assert.NoError(t, g.CheckPlay(1, "gruen-ober"))
	})
	t.Run("must follow trump", func(t *testing.T) {
		g := runningGame(t, Normal, "", [Seats][]string{{"herz-unter"}, {"gruen-as", "schellen-zehn"}, {}, {}})
		_, err := g.PlayCard(0, "herz-unter")
		require.NoError(t, err)
		assert.ErrorIs(t, g.CheckPlay(1, "gruen-as"), ErrMustFollowTrump)
	})
	t.Run("no trump is never forced", func(t *testing.T) {
		g := runningGame(t, Normal, "", [Seats][]string{{"herz-unter"}, {"gruen-as", "eichel-koenig"}, {}, {}})
		_, err := g.PlayCard(0, "herz-unter")
		require.NoError(t, err)
		assert.NoError(t, g.CheckPlay(1, "gruen-as"))
		assert.Equal(t, []string{"gruen-as", "eichel-koenig"}, g.LegalCards(1))
	})
	t.Run("turn and hand", func(t *testing.T) {
		g := runningGame(t, Normal, "", [Seats][]string{{"gruen-as"}, {"gruen-koenig"}, {"gruen-zehn"}, {}})
		assert.ErrorIs(t, g.CheckPlay(2, "gruen-zehn"), ErrNotYourTurn)
		assert.ErrorIs(t, g.CheckPlay(0, "gruen-zehn"), ErrCardNotInHand)
		g.Status = StatusPrecheck
		assert.ErrorIs(t, g.CheckPlay(0, "gruen-as"), ErrWrongPhase)
	})
}

func TestResolveTrickIsIdempotent(t *testing.T) {
	g := runningGame(t, Normal, "", [Seats][]string{
		{"herz-zehn", "gruen-as"}, {"schellen-as"}, {"eichel-ober"}, {"gruen-as"},
	})
	plays := []string{"herz-zehn", "schellen-as", "eichel-ober", "gruen-as"}
	for seat, id := range plays {
		complete, err := g.PlayCard(seat, id)
		require.NoError(t, err)
		assert.Equal(t, seat == 3, complete)
	}
	_, err := g.PlayCard(0, "gruen-as")
	assert.ErrorIs(t, err, ErrTrickPending)

	require.NoError(t, g.ResolveTrick())
	r := g.Round()
	first := r.Tricks[0]
	assert.Equal(t, 0, first.WinnerIdx)
	assert.Empty(t, first.Extras, "fox owner's party is still unknown")
	assert.Equal(t, []int{2}, r.RePlayers)
	require.Len(t, r.Tricks, 2)
	assert.Equal(t, 0, r.Tricks[1].StarterIdx)
	assert.Len(t, g.PlayerState["anna"].DiscardPile, 4)
	assert.Empty(t, g.TurnCards)

	extras := make([]string, len(first.Extras))
	copy(extras, first.Extras)
	require.NoError(t, g.ResolveTrick())
	assert.Equal(t, 0, first.WinnerIdx)
	assert.Equal(t, extras, first.Extras)
	assert.Len(t, r.Tricks, 2)
}

func TestCaughtFoxFollowsPartyResolution(t *testing.T) {
	g := runningGame(t, Normal, "", [Seats][]string{
		{"herz-zehn", "eichel-ober"}, {"schellen-as"}, {"eichel-ober"}, {"gruen-as"},
	})
	var events []PartyEvent
	g.OnPartyResolved(func(_ *Game, ev PartyEvent) { events = append(events, ev) })

	for seat, id := range []string{"herz-zehn", "schellen-as", "eichel-ober", "gruen-as"} {
		_, err := g.PlayCard(seat, id)
		require.NoError(t, err)
	}
	require.NoError(t, g.ResolveTrick())
	trick := g.Round().Tricks[0]
	assert.Empty(t, trick.Extras)

	_, err := g.PlayCard(0, "eichel-ober")
	require.NoError(t, err)
	r := g.Round()
	assert.Equal(t, []int{2, 0}, r.RePlayers)
	assert.Equal(t, []int{1, 3}, r.KontraPlayers)
	assert.Equal(t, []string{ExtraFuchs}, trick.Extras)

	require.Len(t, events, 2)
	assert.False(t, events[0].Complete)
	assert.True(t, events[1].Complete)
	assert.Equal(t, Re, events[1].Party)

	g.recomputeCaughtCards()
	g.recomputeCaughtCards()
	assert.Equal(t, []string{ExtraFuchs}, trick.Extras)
}

func TestDoppelkopfExtra(t *testing.T) {
	g := runningGame(t, Normal, "", [Seats][]string{
		{"herz-zehn"}, {"herz-zehn"}, {"schellen-as"}, {"gruen-as"},
	})
	for seat, id := range []string{"herz-zehn", "herz-zehn", "schellen-as", "gruen-as"} {
		_, err := g.PlayCard(seat, id)
		require.NoError(t, err)
	}
	require.NoError(t, g.ResolveTrick())
	trick := g.Round().Tricks[0]
	assert.Equal(t, 1, trick.WinnerIdx)
	assert.Contains(t, trick.Extras, ExtraDoppelkopf)
}

func TestNoExtrasInSolo(t *testing.T) {
	g := runningGame(t, QueenSolo, "", [Seats][]string{
		{"herz-as"}, {"herz-zehn"}, {"herz-as"}, {"herz-zehn"},
	})
	g.playAlone(0)
	for seat, id := range []string{"herz-as", "herz-zehn", "herz-as", "herz-zehn"} {
		_, err := g.PlayCard(seat, id)
		require.NoError(t, err)
	}
	require.NoError(t, g.ResolveTrick())
	trick := g.Round().Tricks[0]
	assert.Equal(t, 0, trick.WinnerIdx)
	assert.Empty(t, trick.Extras)
}

func TestMarriagePartnerAndCaughtFox(t *testing.T) {
	g := runningGame(t, Marriage, "", [Seats][]string{
		{"herz-unter"}, {"eichel-ober"}, {"schellen-as"}, {"schellen-koenig"},
	})
	r := g.Round()
	r.Announcements[0] = []string{string(Marriage)}
	r.RePlayers = []int{0}
	assert.Equal(t, "", g.NextAnnouncement(1), "marriage not settled yet")

	for seat, id := range []string{"herz-unter", "eichel-ober", "schellen-as", "schellen-koenig"} {
		_, err := g.PlayCard(seat, id)
		require.NoError(t, err)
	}
	require.NoError(t, g.ResolveTrick())

	assert.Equal(t, []int{0, 1}, r.RePlayers)
	assert.Equal(t, []int{2, 3}, r.KontraPlayers)
	assert.Equal(t, []string{ExtraFuchs}, r.Tricks[0].Extras)
	assert.Equal(t, 0, r.clarificationTrick())
}

func TestMarriageWithoutPartnerPlaysAlone(t *testing.T) {
	g := runningGame(t, Marriage, "", [Seats][]string{
		{"eichel-ober", "eichel-ober", "herz-zehn"},
		{"gruen-unter", "gruen-unter", "herz-unter"},
		{"herz-unter", "schellen-unter", "schellen-unter"},
		{"schellen-koenig", "schellen-koenig", "schellen-zehn"},
	})
	r := g.Round()
	r.Announcements[0] = []string{string(Marriage)}
	r.RePlayers = []int{0}

	leads := []string{"eichel-ober", "eichel-ober", "herz-zehn"}
	follows := [][]string{
		{"gruen-unter", "herz-unter", "schellen-koenig"},
		{"gruen-unter", "schellen-unter", "schellen-koenig"},
		{"herz-unter", "schellen-unter", "schellen-zehn"},
	}
	for i, lead := range leads {
		_, err := g.PlayCard(0, lead)
		require.NoError(t, err)
		for seat := 1; seat < Seats; seat++ {
			_, err := g.PlayCard(seat, follows[i][seat-1])
			require.NoError(t, err)
		}
		require.NoError(t, g.ResolveTrick())
		assert.Equal(t, 0, r.Tricks[i].WinnerIdx)
		if i < 2 {
			assert.Equal(t, -1, r.clarificationTrick())
		}
	}
	assert.Equal(t, []int{0}, r.RePlayers)
	assert.Equal(t, []int{1, 2, 3}, r.KontraPlayers)
	assert.Equal(t, 2, r.clarificationTrick())
}

func TestSilentMarriage(t *testing.T) {
	g := runningGame(t, Normal, "", [Seats][]string{
		{"eichel-ober", "eichel-ober"}, {"herz-unter", "gruen-as"}, {"herz-unter", "gruen-as"}, {"schellen-koenig", "gruen-koenig"},
	})
	for seat, id := range []string{"eichel-ober", "herz-unter", "herz-unter", "schellen-koenig"} {
		_, err := g.PlayCard(seat, id)
		require.NoError(t, err)
	}
	require.NoError(t, g.ResolveTrick())
	r := g.Round()
	assert.Equal(t, []int{0}, r.RePlayers)
	assert.Empty(t, r.KontraPlayers)

	_, err := g.PlayCard(0, "eichel-ober")
	require.NoError(t, err)
	assert.Equal(t, []int{0}, r.RePlayers)
	assert.Equal(t, []int{1, 2, 3}, r.KontraPlayers)
}
