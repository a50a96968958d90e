package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewHidesOtherHands(t *testing.T) {
	g := precheckGame(t)
	v := g.ViewFor("ben")

	assert.Equal(t, 1, v.Seat)
	assert.Equal(t, 0, v.NextHealthSeat)
	assert.Equal(t, g.PlayerState["ben"].Hand, v.PlayerState["ben"].Hand)
	for _, id := range []string{"anna", "cara", "dirk"} {
		assert.Nil(t, v.PlayerState[id].Hand, id)
		assert.Equal(t, HandSize, v.PlayerState[id].HandSize, id)
	}

	raw, err := json.Marshal(v)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "eichel-ober:0", "cara's cards never leave the server")
}

func TestViewMasksReservations(t *testing.T) {
	g := precheckGame(t)
	require.NoError(t, g.ReportHealth(0, SuitSolo, "herz"))
	require.NoError(t, g.ReportHealth(1, Normal, ""))

	anna := g.ViewFor("anna")
	assert.Equal(t, []string{"farbsolo_herz"}, anna.Rounds[0].Announcements[0])

	ben := g.ViewFor("ben")
	assert.Equal(t, []string{hiddenVorbehalt}, ben.Rounds[0].Announcements[0])
	assert.Equal(t, []string{HealthNormal}, ben.Rounds[0].Announcements[1])
	assert.Equal(t, []string{"farbsolo_herz"}, g.Round().Announcements[0], "the game itself is untouched")
	assert.Same(t, g.Rounds[1], ben.Rounds[1])
}

func TestViewWhileRunning(t *testing.T) {
	g := normalRunningGame(t)
	_, err := g.PlayCard(0, "gruen-as")
	require.NoError(t, err)

	v := g.ViewFor("ben")
	assert.Equal(t, []string{"gruen-as", "gruen-koenig"}, v.LegalCards)
	assert.Equal(t, AnnounceKontra, v.NextAnnouncement)
	assert.Equal(t, -1, v.NextHealthSeat)

	cara := g.ViewFor("cara")
	assert.Equal(t, AnnounceRe, cara.NextAnnouncement)
	assert.Empty(t, cara.LegalCards, "not cara's turn")

	stranger := g.ViewFor("erik")
	assert.Equal(t, -1, stranger.Seat)
	assert.Empty(t, stranger.LegalCards)
	assert.Empty(t, stranger.NextAnnouncement)
}

func TestViewOpensCardsAfterRound(t *testing.T) {
	g := scoredGame(t, Normal, []int{0, 1}, 125)
	require.NoError(t, g.ResolveRound())

	v := g.ViewFor("ben")
	assert.NotEmpty(t, v.PlayerState["anna"].DiscardPile)
	assert.Equal(t, len(g.PlayerState["cara"].DiscardPile), v.PlayerState["cara"].DiscardSize)
}
