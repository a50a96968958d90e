package game

import (
	"fmt"
	"math/rand"
	"sort"
	"time"
)

// dealPattern is the number of cards each seat gets per pass.
var dealPattern = []int{3, 4, 3}

// forcedSoloWindow is how close to the end of the session the forced solo
// rule starts to look at who still owes a solo.
const forcedSoloWindow = 4

func (g *Game) seatsFilled() bool {
	for _, p := range g.Players {
		if p == "" {
			return false
		}
	}
	return true
}

// StartRound collects all cards, shuffles and deals the current round, then
// opens the health check. A nil rng uses the global source.
func (g *Game) StartRound(rng *rand.Rand) error {
	if !g.seatsFilled() {
		return ErrTableNotFull
	}
	g.Deck = append(g.Deck, g.TurnCards...)
	g.TurnCards = []Card{}
	ids := make([]string, 0, len(g.PlayerState))
	for id := range g.PlayerState {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		ps := g.PlayerState[id]
		g.Deck = append(g.Deck, ps.DiscardPile...)
		g.Deck = append(g.Deck, ps.Hand...)
		ps.DiscardPile = []Card{}
		ps.Hand = []Card{}
	}
	if len(g.Deck) != DeckSize {
		return &IntegrityError{
			GameID: g.GameID,
			Reason: fmt.Sprintf("deck holds %d cards, want %d", len(g.Deck), DeckSize),
		}
	}
	shuffleCards(g.Deck, rng)

	r := g.Round()
	starter := r.StarterIdx
	*r = *newRound()
	r.StarterIdx = starter
	g.gameLog("", fmt.Sprintf("%s deals...", g.Players[starter]))
	for _, n := range dealPattern {
		for i := 0; i < Seats; i++ {
			ps := g.seatState((starter + i) % Seats)
			for j := 0; j < n; j++ {
				last := len(g.Deck) - 1
				ps.Hand = append(ps.Hand, g.Deck[last])
				g.Deck = g.Deck[:last]
			}
		}
	}

	if solo := g.forcedSoloSeat(); solo > -1 {
		r.ForcedSoloIdx = solo
		if g.CurrentRound < len(g.Rounds)-1 {
			g.Rounds[g.CurrentRound+1].StarterIdx = starter
		}
		r.StarterIdx = solo
		g.gameLog("", fmt.Sprintf("%s has to play the mandatory solo now.", g.Players[solo]))
	}
	g.Status = StatusPrecheck
	return nil
}

// forcedSoloSeat returns the seat that must play its solo this round, or -1.
// A solo is forced once the seats still owing one are as many as the rounds
// left, starting with the first such seat from the starter.
func (g *Game) forcedSoloSeat() int {
	remaining := len(g.Rounds) - g.CurrentRound
	if remaining > forcedSoloWindow {
		return -1
	}
	owing := 0
	for seat := 0; seat < Seats; seat++ {
		if !g.pflichtsoloPlayed(seat) {
			owing++
		}
	}
	if owing == 0 || owing != remaining {
		return -1
	}
	starter := g.Round().StarterIdx
	for i := 0; i < Seats; i++ {
		seat := (starter + i) % Seats
		if !g.pflichtsoloPlayed(seat) {
			return seat
		}
	}
	return -1
}

// AllAccepted reports whether every seat accepted the round's score.
func (g *Game) AllAccepted() bool {
	for _, ok := range g.Round().ScoreAccepted {
		if !ok {
			return false
		}
	}
	return true
}

// AcceptScore records a seat's answer to the round result. all reports
// whether the table is now ready for the next deal.
func (g *Game) AcceptScore(seat int, ok bool) (all bool, err error) {
	if g.Status != StatusRoundResults {
		return false, ErrWrongPhase
	}
	if seat < 0 || seat >= Seats {
		return false, ErrNotSeated
	}
	r := g.Round()
	if r.ScoreAccepted[seat] {
		return false, ErrAlreadyAccepted
	}
	r.ScoreAccepted[seat] = ok
	return g.AllAccepted(), nil
}

// IsLastRound reports whether the current round is the session's last.
func (g *Game) IsLastRound() bool {
	return g.CurrentRound == len(g.Rounds)-1
}

// Advance deals the next round once every seat accepted the result, or
// restarts the session after the last one. It does nothing otherwise.
func (g *Game) Advance(rng *rand.Rand) error {
	if g.Status != StatusRoundResults || !g.AllAccepted() {
		return nil
	}
	if !g.seatsFilled() {
		return ErrTableNotFull
	}
	if g.IsLastRound() {
		return g.Restart(rng)
	}
	g.CurrentRound++
	return g.StartRound(rng)
}

// Restart replaces the document with a fresh session for the same table.
// The instance counter moves on so snapshots of both sessions stay apart.
func (g *Game) Restart(rng *rand.Rand) error {
	fresh := NewGame(g.GameID, len(g.Rounds))
	fresh.Instance = g.Instance + 1
	fresh.Rev = g.Rev
	fresh.Players = g.Players
	fresh.PlayerState = g.PlayerState
	fresh.Timestamp = g.Timestamp
	fresh.StartTime = time.Now().UnixMilli()
	fresh.listeners = g.listeners
	for _, ps := range fresh.PlayerState {
		ps.Hand = []Card{}
		ps.DiscardPile = []Card{}
	}
	*g = *fresh
	g.gameLog("", "A new session starts.")
	return g.StartRound(rng)
}

// roundFinished reports whether the last trick of the round is complete.
func (r *Round) roundFinished() bool {
	return len(r.Tricks) == tricksPerRound && r.Tricks[tricksPerRound-1].Complete()
}

// NeedsReplay reports whether a loaded document stopped between an action
// and the step that should have followed it.
func (g *Game) NeedsReplay() bool {
	r := g.Round()
	switch g.Status {
	case StatusRunning:
		return len(g.TurnCards) == Seats || (r.roundFinished() && r.Summary == "")
	case StatusRoundResults:
		return g.AllAccepted()
	}
	return false
}

// Replay runs the pending follow-up steps of a loaded document. Each step
// checks its own precondition, so replaying a settled document is a no-op.
func (g *Game) Replay(rng *rand.Rand) error {
	if g.Status == StatusRunning && len(g.TurnCards) == Seats {
		if err := g.ResolveTrick(); err != nil {
			return err
		}
	}
	if r := g.Round(); g.Status == StatusRunning && r.roundFinished() && r.Summary == "" {
		if err := g.ResolveRound(); err != nil {
			return err
		}
	}
	return g.Advance(rng)
}
