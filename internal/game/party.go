package game

// Party is one side of a round.
type Party string

const (
	Re      Party = "Re"
	Kontra  Party = "Kontra"
	NoParty Party = ""
)

// Opponent returns the other side. NoParty has no opponent.
func (p Party) Opponent() Party {
	switch p {
	case Re:
		return Kontra
	case Kontra:
		return Re
	}
	return NoParty
}

// PartyEvent is emitted whenever a seat's side becomes known. Complete is
// set once every seat has a side.
type PartyEvent struct {
	Round    int
	Seat     int
	Party    Party
	Complete bool
}

// PartyListener reacts to party resolution. Listeners run synchronously
// while the caller holds the game.
type PartyListener func(g *Game, ev PartyEvent)

// builtinPartyListeners are subscribed on every game. Caught bonus cards
// depend on who plays with whom and are recomputed here.
var builtinPartyListeners = []PartyListener{
	func(g *Game, ev PartyEvent) { g.recomputeCaughtCards() },
}

// OnPartyResolved subscribes l to party events of this game. Subscriptions
// are not persisted.
func (g *Game) OnPartyResolved(l PartyListener) {
	g.listeners = append(g.listeners, l)
}

func (g *Game) emitParty(ev PartyEvent) {
	ev.Round = g.CurrentRound
	for _, l := range builtinPartyListeners {
		l(g, ev)
	}
	for _, l := range g.listeners {
		l(g, ev)
	}
}

func containsSeat(seats []int, seat int) bool {
	for _, s := range seats {
		if s == seat {
			return true
		}
	}
	return false
}

// complement returns the seats not in seats, in seat order.
func complement(seats []int) []int {
	out := []int{}
	for s := 0; s < Seats; s++ {
		if !containsSeat(seats, s) {
			out = append(out, s)
		}
	}
	return out
}

// KnownParty returns the side a seat has been revealed on, or NoParty.
func (r *Round) KnownParty(seat int) Party {
	if containsSeat(r.RePlayers, seat) {
		return Re
	}
	if containsSeat(r.KontraPlayers, seat) {
		return Kontra
	}
	return NoParty
}

// PartiesComplete reports whether every seat has a side.
func (r *Round) PartiesComplete() bool {
	return len(r.RePlayers)+len(r.KontraPlayers) == Seats
}

// PlayerParty is the side of a seat as far as the seat itself knows it. In
// a normal game an unrevealed seat knows from its own hand: holding the
// eichel-ober makes it Re.
func (g *Game) PlayerParty(seat int) Party {
	r := g.Round()
	if p := r.KnownParty(seat); p != NoParty {
		return p
	}
	if r.GameType == Normal {
		if indexOfCard(g.seatState(seat).Hand, EichelOber) >= 0 {
			return Re
		}
		return Kontra
	}
	return NoParty
}

// addToParty reveals seat on side p. When the side reaches two seats the
// other side is whatever is left. A silent marriage is not known at that
// point, so two Kontra reveals before its second eichel-ober put the last
// Kontra seat on Re and the round is scored two against two.
func (g *Game) addToParty(p Party, seat int) {
	r := g.Round()
	if r.KnownParty(seat) != NoParty {
		return
	}
	switch p {
	case Re:
		r.RePlayers = append(r.RePlayers, seat)
		if len(r.RePlayers) == 2 {
			r.KontraPlayers = complement(r.RePlayers)
		}
	case Kontra:
		r.KontraPlayers = append(r.KontraPlayers, seat)
		if len(r.KontraPlayers) == 2 {
			r.RePlayers = complement(r.KontraPlayers)
		}
	default:
		return
	}
	complete := r.PartiesComplete()
	if complete {
		g.gameLog("", "The parties are settled.")
	}
	g.emitParty(PartyEvent{Seat: seat, Party: p, Complete: complete})
}

// playAlone puts seat alone on Re against the other three.
func (g *Game) playAlone(seat int) {
	r := g.Round()
	r.RePlayers = []int{seat}
	r.KontraPlayers = complement(r.RePlayers)
	g.emitParty(PartyEvent{Seat: seat, Party: Re, Complete: true})
}
