// internal/game/game.go
package game

import (
	"fmt"
	"html"
	"time"

	log "github.com/sirupsen/logrus"
)

// Status is the phase of a game.
type Status string

const (
	StatusInit         Status = "init"
	StatusPrecheck     Status = "precheck"
	StatusRunning      Status = "running"
	StatusRoundResults Status = "roundResults"
	StatusResolved     Status = "resolved"
)

// Seats is the fixed table size.
const Seats = 4

// DefaultRounds is the session length used when none is given.
const DefaultRounds = 16

// Trick is one round of four cards.
type Trick struct {
	StarterIdx int      `json:"starterIdx"`
	CardIDs    []string `json:"cardIds"`
	WinnerIdx  int      `json:"winnerIdx"`
	Extras     []string `json:"extras"`
}

func newTrick(starter int) *Trick {
	return &Trick{StarterIdx: starter, CardIDs: []string{}, WinnerIdx: -1, Extras: []string{}}
}

// Complete reports whether all four cards are in.
func (t *Trick) Complete() bool { return len(t.CardIDs) == Seats }

// Resolved reports whether a winner has been fixed.
func (t *Trick) Resolved() bool { return t.WinnerIdx > -1 }

// ownerOf returns the seat that played the card at position pos.
func (t *Trick) ownerOf(pos int) int { return (t.StarterIdx + pos) % Seats }

// ScoreEntry is one line of a round's score sheet.
type ScoreEntry struct {
	Desc  string `json:"desc"`
	Party Party  `json:"party"`
	Value int    `json:"value"`
}

// Round is one deal.
type Round struct {
	StarterIdx    int             `json:"starterIdx"`
	ForcedSoloIdx int             `json:"forcedSoloIdx"`
	GameType      GameType        `json:"gameType"`
	GameSubType   string          `json:"gameSubType"`
	Announcements [Seats][]string `json:"announcements"`
	RePlayers     []int           `json:"rePlayers"`
	KontraPlayers []int           `json:"kontraPlayers"`
	Tricks        []*Trick        `json:"tricks"`
	ScoreAccepted [Seats]bool     `json:"scoreAccepted"`
	Score         [Seats + 1]int  `json:"score"`
	ScoreDetails  []ScoreEntry    `json:"scoreDetails"`
	Summary       string          `json:"summary"`
	WinnerParty   Party           `json:"winnerParty"`
}

func newRound() *Round {
	r := &Round{
		ForcedSoloIdx: -1,
		RePlayers:     []int{},
		KontraPlayers: []int{},
		Tricks:        []*Trick{},
		ScoreDetails:  []ScoreEntry{},
	}
	for i := range r.Announcements {
		r.Announcements[i] = []string{}
	}
	return r
}

// currentTrick returns the trick being played, or nil before the first one.
func (r *Round) currentTrick() *Trick {
	if len(r.Tricks) == 0 {
		return nil
	}
	return r.Tricks[len(r.Tricks)-1]
}

// PlayerState is what the server keeps per player id.
type PlayerState struct {
	Hand        []Card `json:"hand"`
	DiscardPile []Card `json:"discardPile"`
	Online      bool   `json:"online"`
}

// LogEntry is a line of the table transcript: chat or a game message.
type LogEntry struct {
	PlayerID string    `json:"playerId,omitempty"`
	Time     time.Time `json:"time"`
	Message  string    `json:"message"`
}

// Game is the whole persisted document of one table.
type Game struct {
	GameID           string                  `json:"gameId"`
	Instance         int                     `json:"instance"`
	Rev              int                     `json:"rev"`
	Status           Status                  `json:"gameStatus"`
	CurrentRound     int                     `json:"currentRound"`
	Rounds           []*Round                `json:"rounds"`
	Players          [Seats]string           `json:"players"`
	PlayerState      map[string]*PlayerState `json:"playerState"`
	TurnCards        []Card                  `json:"turnCards"`
	Deck             []Card                  `json:"deck"`
	Chat             []LogEntry              `json:"chat"`
	ViewLastTrickIdx *int                    `json:"viewLastTrickIdx"`
	StartTime        int64                   `json:"startTime"`
	Timestamp        string                  `json:"timestamp"`
	PrevTimestamp    string                  `json:"prevTimestamp"`
	VacatedBy        [Seats]string           `json:"vacatedBy"`

	listeners []PartyListener
}

// NewGame creates a table with the given number of pre-allocated rounds.
func NewGame(id string, rounds int) *Game {
	if rounds <= 0 {
		rounds = DefaultRounds
	}
	g := &Game{
		GameID:      id,
		Status:      StatusInit,
		Rounds:      make([]*Round, rounds),
		PlayerState: make(map[string]*PlayerState),
		TurnCards:   []Card{},
		Deck:        NewDeck(),
		Chat:        []LogEntry{},
		StartTime:   time.Now().UnixMilli(),
	}
	for i := range g.Rounds {
		g.Rounds[i] = newRound()
	}
	g.Rounds[0].StarterIdx = 0
	return g
}

// Round returns the round in play.
func (g *Game) Round() *Round {
	return g.Rounds[g.CurrentRound]
}

// SeatOf returns the seat of a player id or -1.
func (g *Game) SeatOf(playerID string) int {
	if playerID == "" {
		return -1
	}
	for i, p := range g.Players {
		if p == playerID {
			return i
		}
	}
	return -1
}

// seatHolder returns the player whose cards belong to seat. That is whoever
// sits there, or whoever left it while it stays empty.
func (g *Game) seatHolder(seat int) string {
	if p := g.Players[seat]; p != "" {
		return p
	}
	return g.VacatedBy[seat]
}

// seatState returns the cards of seat. A seat nobody ever held has none.
func (g *Game) seatState(seat int) *PlayerState {
	if ps, ok := g.PlayerState[g.seatHolder(seat)]; ok {
		return ps
	}
	return &PlayerState{Hand: []Card{}, DiscardPile: []Card{}}
}

// gameLog prepends a line to the transcript.
func (g *Game) gameLog(playerID, msg string) {
	g.Chat = append([]LogEntry{{PlayerID: playerID, Time: time.Now(), Message: msg}}, g.Chat...)
	log.WithField("game", g.GameID).Debugf("gameLog(%s): %s", playerID, msg)
}

// Join seats a player. A known player gets the old seat back, a new one the
// first free seat. started reports whether the table just filled up and
// the first round should be dealt.
func (g *Game) Join(playerID string) (seat int, started bool, err error) {
	seat = g.SeatOf(playerID)
	if seat < 0 {
		seat = g.freeSeatFor(playerID)
		if seat < 0 {
			return -1, false, ErrGameFull
		}
		g.Players[seat] = playerID
		g.inheritSeat(seat, playerID)
	}
	ps, ok := g.PlayerState[playerID]
	if !ok {
		ps = &PlayerState{Hand: []Card{}, DiscardPile: []Card{}}
		g.PlayerState[playerID] = ps
	}
	ps.Online = true

	for _, p := range g.Players {
		if p == "" {
			return seat, false, nil
		}
	}
	return seat, g.Status == StatusInit, nil
}

// freeSeatFor picks the seat playerID left earlier if it is still empty,
// else the first empty seat, else -1.
func (g *Game) freeSeatFor(playerID string) int {
	free := -1
	for i, p := range g.Players {
		if p != "" {
			continue
		}
		if g.VacatedBy[i] == playerID {
			return i
		}
		if free < 0 {
			free = i
		}
	}
	return free
}

// inheritSeat hands the cards of whoever left seat to the player taking it.
// Whatever state the newcomer had from an earlier visit holds no cards of
// the current deal, since its own empty seat would have been picked first.
func (g *Game) inheritSeat(seat int, playerID string) {
	prev := g.VacatedBy[seat]
	g.VacatedBy[seat] = ""
	if prev == "" || prev == playerID {
		return
	}
	if ps, ok := g.PlayerState[prev]; ok {
		g.PlayerState[playerID] = ps
		delete(g.PlayerState, prev)
	}
}

// SetOnline flips the connection flag of a player without touching the seat.
func (g *Game) SetOnline(playerID string, online bool) {
	if ps, ok := g.PlayerState[playerID]; ok {
		ps.Online = online
	}
}

// RemovePlayer handles an explicit leave. With removeSeat the seat is
// blanked so someone else can take it; otherwise the player is only marked
// offline.
func (g *Game) RemovePlayer(playerID string, removeSeat bool) error {
	seat := g.SeatOf(playerID)
	if seat < 0 {
		return ErrNotSeated
	}
	if removeSeat {
		g.Players[seat] = ""
		g.VacatedBy[seat] = playerID
		g.gameLog("", fmt.Sprintf("%s left the table", playerID))
	}
	g.SetOnline(playerID, false)
	return nil
}

// PostChat adds a player message to the transcript.
func (g *Game) PostChat(playerID, text string) error {
	if g.SeatOf(playerID) < 0 {
		return ErrNotSeated
	}
	g.gameLog(playerID, html.EscapeString(text))
	return nil
}

// ViewLastTrick toggles showing the last completed trick to the table.
func (g *Game) ViewLastTrick(playerID string) error {
	seat := g.SeatOf(playerID)
	if seat < 0 {
		return ErrNotSeated
	}
	if g.Status != StatusRunning {
		return ErrWrongPhase
	}
	completed := 0
	for _, t := range g.Round().Tricks {
		if t.Resolved() {
			completed++
		}
	}
	if completed == 0 {
		return ErrNothingToView
	}
	if g.ViewLastTrickIdx != nil {
		g.ViewLastTrickIdx = nil
		return nil
	}
	g.ViewLastTrickIdx = &seat
	g.gameLog("", fmt.Sprintf("%s looks at the last trick", playerID))
	return nil
}

// CardCount returns the number of card instances the document holds.
func (g *Game) CardCount() int {
	n := len(g.Deck) + len(g.TurnCards)
	for _, ps := range g.PlayerState {
		n += len(ps.Hand) + len(ps.DiscardPile)
	}
	return n
}
