package game

// PlayerView is one seat's state as seen by some viewer. Cards are only
// filled in for the viewer's own seat; everyone else gets the counts.
type PlayerView struct {
	Hand        []Card `json:"hand,omitempty"`
	HandSize    int    `json:"handSize"`
	DiscardPile []Card `json:"discardPile,omitempty"`
	DiscardSize int    `json:"discardSize"`
	Online      bool   `json:"online"`
}

// GameView is the document sent to one player.
type GameView struct {
	GameID           string                `json:"gameId"`
	Instance         int                   `json:"instance"`
	Rev              int                   `json:"rev"`
	Status           Status                `json:"gameStatus"`
	CurrentRound     int                   `json:"currentRound"`
	Rounds           []*Round              `json:"rounds"`
	Players          [Seats]string         `json:"players"`
	PlayerState      map[string]PlayerView `json:"playerState"`
	TurnCards        []Card                `json:"turnCards"`
	DeckSize         int                   `json:"deckSize"`
	Chat             []LogEntry            `json:"chat"`
	ViewLastTrickIdx *int                  `json:"viewLastTrickIdx"`
	StartTime        int64                 `json:"startTime"`
	Timestamp        string                `json:"timestamp"`

	Seat             int      `json:"seat"`
	LegalCards       []string `json:"legalCards"`
	NextAnnouncement string   `json:"nextAnnouncement,omitempty"`
	NextHealthSeat   int      `json:"nextHealthSeat"`
}

// hiddenVorbehalt replaces another seat's reservation during precheck.
const hiddenVorbehalt = "vorbehalt"

// ViewFor builds the document for playerID. Shared slices are not copied,
// so the view must be serialized before the game changes again.
func (g *Game) ViewFor(playerID string) GameView {
	seat := g.SeatOf(playerID)
	v := GameView{
		GameID:           g.GameID,
		Instance:         g.Instance,
		Rev:              g.Rev,
		Status:           g.Status,
		CurrentRound:     g.CurrentRound,
		Rounds:           g.Rounds,
		Players:          g.Players,
		PlayerState:      make(map[string]PlayerView, len(g.PlayerState)),
		TurnCards:        g.TurnCards,
		DeckSize:         len(g.Deck),
		Chat:             g.Chat,
		ViewLastTrickIdx: g.ViewLastTrickIdx,
		StartTime:        g.StartTime,
		Timestamp:        g.Timestamp,
		Seat:             seat,
		LegalCards:       []string{},
		NextHealthSeat:   -1,
	}

	open := g.Status == StatusRoundResults || g.Status == StatusResolved
	for id, ps := range g.PlayerState {
		pv := PlayerView{
			HandSize:    len(ps.Hand),
			DiscardSize: len(ps.DiscardPile),
			Online:      ps.Online,
		}
		if id == playerID || open {
			pv.Hand = ps.Hand
			pv.DiscardPile = ps.DiscardPile
		}
		v.PlayerState[id] = pv
	}

	switch g.Status {
	case StatusPrecheck:
		v.NextHealthSeat = g.NextHealthSeat()
		v.Rounds = g.maskReservations(seat)
	case StatusRunning:
		v.LegalCards = g.LegalCards(seat)
		v.NextAnnouncement = g.NextAnnouncement(seat)
	}
	return v
}

// maskReservations copies the round list with other seats' health
// declarations of the current round hidden.
func (g *Game) maskReservations(seat int) []*Round {
	rounds := make([]*Round, len(g.Rounds))
	copy(rounds, g.Rounds)
	masked := *g.Round()
	for s := range masked.Announcements {
		a := masked.Announcements[s]
		if s == seat || len(a) == 0 || a[0] == HealthNormal {
			continue
		}
		hidden := append([]string{hiddenVorbehalt}, a[1:]...)
		masked.Announcements[s] = hidden
	}
	rounds[g.CurrentRound] = &masked
	return rounds
}
