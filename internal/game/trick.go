package game

import "fmt"

// Bonus tags a trick can earn.
const (
	ExtraDoppelkopf     = "Doppelkopf"
	ExtraKarlchen       = "Karlchen"
	ExtraKarlchenCaught = "Karlchen gefangen"
	ExtraFuchs          = "Fuchs"
)

const (
	doppelkopfMinPoints = 40
	tricksPerRound      = HandSize
	marriageTricks      = 3
)

// TrickWinner returns the position of the winning card among cards played in
// order. A later trump beats any plain card, plain cards only count when they
// follow the suit led, and equal cards go to the earlier one. The second
// herz-zehn is the exception: it beats the first wherever it is trump.
func TrickWinner(cards []Card, t GameType, subType string) int {
	best := 0
	trump := IsTrump(cards[0], t, subType)
	for i := 1; i < len(cards); i++ {
		c := cards[i]
		isTrump := IsTrump(c, t, subType)
		switch {
		case trump && isTrump:
			cmp := CompareTrump(c, cards[best], t, subType)
			if cmp < 0 || (cmp == 0 && c.ID == Dulle && t.in(Normal, Marriage, SuitSolo)) {
				best = i
			}
		case isTrump:
			trump = true
			best = i
		case !trump && c.Suit == cards[best].Suit:
			if CompareFehl(c, cards[best]) < 0 {
				best = i
			}
		}
	}
	return best
}

// expectedSeat is the seat that has to play the next card of trick.
func (g *Game) expectedSeat(t *Trick) int {
	return (t.StarterIdx + len(g.TurnCards)) % Seats
}

// CheckPlay validates a card play without changing anything.
func (g *Game) CheckPlay(seat int, cardID string) error {
	if g.Status != StatusRunning {
		return ErrWrongPhase
	}
	if seat < 0 || seat >= Seats {
		return ErrNotSeated
	}
	if len(g.TurnCards) == Seats {
		return ErrTrickPending
	}
	r := g.Round()
	t := r.currentTrick()
	if t == nil || t.Resolved() {
		return ErrWrongPhase
	}
	if g.expectedSeat(t) != seat {
		return ErrNotYourTurn
	}
	hand := g.seatState(seat).Hand
	idx := indexOfCard(hand, cardID)
	if idx < 0 {
		return ErrCardNotInHand
	}
	if len(g.TurnCards) == 0 {
		return nil
	}

	card, first := hand[idx], g.TurnCards[0]
	isTrump := func(c Card) bool { return IsTrump(c, r.GameType, r.GameSubType) }
	if isTrump(first) {
		if !isTrump(card) && anyCard(hand, isTrump) {
			return ErrMustFollowTrump
		}
		return nil
	}
	if card.Suit != first.Suit || isTrump(card) {
		follows := func(c Card) bool { return c.Suit == first.Suit && !isTrump(c) }
		if anyCard(hand, follows) {
			return fmt.Errorf("%w: %s", ErrMustFollowSuit, first.Suit)
		}
	}
	return nil
}

// LegalCards returns the face ids seat may play now.
func (g *Game) LegalCards(seat int) []string {
	out := []string{}
	if seat < 0 || seat >= Seats || g.Players[seat] == "" {
		return out
	}
	for _, c := range g.seatState(seat).Hand {
		if containsString(out, c.ID) {
			continue
		}
		if g.CheckPlay(seat, c.ID) == nil {
			out = append(out, c.ID)
		}
	}
	return out
}

func anyCard(cards []Card, pred func(Card) bool) bool {
	for _, c := range cards {
		if pred(c) {
			return true
		}
	}
	return false
}

// PlayCard puts a card of seat into the current trick. complete reports
// whether the trick now holds four cards and waits for ResolveTrick.
func (g *Game) PlayCard(seat int, cardID string) (complete bool, err error) {
	if err := g.CheckPlay(seat, cardID); err != nil {
		return false, err
	}
	r := g.Round()
	t := r.currentTrick()
	ps := g.seatState(seat)

	if r.GameType == Normal && cardID == EichelOber {
		g.revealEichelOber(seat)
	}

	idx := indexOfCard(ps.Hand, cardID)
	card := ps.Hand[idx]
	ps.Hand = append(ps.Hand[:idx], ps.Hand[idx+1:]...)
	g.TurnCards = append(g.TurnCards, card)
	t.CardIDs = append(t.CardIDs, card.ID)
	return len(g.TurnCards) == Seats, nil
}

// revealEichelOber handles the eichel-ober in a normal game: it shows its
// owner as Re, and a second one from the same lone Re player is a silent
// marriage.
func (g *Game) revealEichelOber(seat int) {
	r := g.Round()
	if r.KnownParty(seat) != Re {
		g.gameLog("", fmt.Sprintf("%s shows Re", g.seatHolder(seat)))
		g.addToParty(Re, seat)
		return
	}
	if len(r.RePlayers) != 1 {
		return
	}
	played := indexOfCard(g.TurnCards, EichelOber) >= 0
	for _, t := range r.Tricks {
		if containsString(t.CardIDs, EichelOber) {
			played = true
			break
		}
	}
	if played {
		g.playAlone(seat)
	}
}

// ResolveTrick settles a full trick. It is a no-op unless the current trick
// holds four cards and has no winner yet, so it is safe to call again after
// a restart.
func (g *Game) ResolveTrick() error {
	if g.Status != StatusRunning || len(g.TurnCards) != Seats {
		return nil
	}
	r := g.Round()
	t := r.currentTrick()
	if t == nil || !t.Complete() || t.Resolved() {
		return nil
	}

	pos := TrickWinner(g.TurnCards, r.GameType, r.GameSubType)
	winner := t.ownerOf(pos)
	t.WinnerIdx = winner
	g.gameLog("", fmt.Sprintf("The trick goes to %s.", g.seatHolder(winner)))

	last := len(r.Tricks) == tricksPerRound
	if r.GameType.hasExtras() {
		if points(g.TurnCards) >= doppelkopfMinPoints {
			t.Extras = append(t.Extras, ExtraDoppelkopf)
			g.gameLog("", fmt.Sprintf("%s takes a Doppelkopf.", g.seatHolder(winner)))
		}
		if last && g.TurnCards[pos].ID == Karlchen {
			t.Extras = append(t.Extras, ExtraKarlchen)
			g.gameLog("", fmt.Sprintf("%s takes the last trick with a Karlchen.", g.seatHolder(winner)))
		}
	}

	if r.GameType == Marriage && len(r.RePlayers) == 1 {
		trickNo := len(r.Tricks)
		switch {
		case winner != r.RePlayers[0] && trickNo <= marriageTricks:
			g.gameLog("", fmt.Sprintf("%s marries %s.", g.seatHolder(r.RePlayers[0]), g.seatHolder(winner)))
			g.addToParty(Re, winner)
		case trickNo == marriageTricks:
			g.gameLog("", fmt.Sprintf("Nobody married %s.", g.seatHolder(r.RePlayers[0])))
			g.playAlone(r.RePlayers[0])
		}
	}
	g.recomputeCaughtCards()
	for _, x := range t.Extras {
		if x == ExtraFuchs || x == ExtraKarlchenCaught {
			g.gameLog("", fmt.Sprintf("%s caught a %s.", g.seatHolder(winner), x))
		}
	}

	ws := g.seatState(winner)
	ws.DiscardPile = append(ws.DiscardPile, g.TurnCards...)
	g.TurnCards = []Card{}
	if !last {
		r.Tricks = append(r.Tricks, newTrick(winner))
		return nil
	}
	return g.ResolveRound()
}

// recomputeCaughtCards rebuilds the caught-card tags of every resolved trick
// of the round from the current party sets. A card counts as caught only
// when both its owner's and the winner's parties are known and differ.
func (g *Game) recomputeCaughtCards() {
	r := g.Round()
	if !r.GameType.hasExtras() {
		return
	}
	for i, t := range r.Tricks {
		if !t.Resolved() || !t.Complete() {
			continue
		}
		kept := make([]string, 0, len(t.Extras))
		for _, x := range t.Extras {
			if x != ExtraFuchs && x != ExtraKarlchenCaught {
				kept = append(kept, x)
			}
		}
		t.Extras = kept

		winPos := (t.WinnerIdx - t.StarterIdx + Seats) % Seats
		winCard := MustCard(t.CardIDs[winPos], 0)
		if !IsTrump(winCard, r.GameType, r.GameSubType) {
			continue
		}
		winnerParty := r.KnownParty(t.WinnerIdx)
		if winnerParty == NoParty {
			continue
		}
		for pos, id := range t.CardIDs {
			if pos == winPos {
				continue
			}
			var tag string
			switch {
			case id == Fuchs && r.GameSubType != SubSchweinerei:
				tag = ExtraFuchs
			case id == Karlchen && i == tricksPerRound-1:
				tag = ExtraKarlchenCaught
			default:
				continue
			}
			owner := r.KnownParty(t.ownerOf(pos))
			if owner != NoParty && owner != winnerParty {
				t.Extras = append(t.Extras, tag)
			}
		}
	}
}
