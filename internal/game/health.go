package game

import (
	"fmt"
	"strings"
)

// Health declarations recorded as the first announcement of a seat.
const (
	HealthNormal = string(Normal)
	Schweine     = "Schweine"
)

// healthDeclaration encodes a reported game type the way it is stored in the
// announcement list. A suit solo carries its suit: "farbsolo_herz".
func healthDeclaration(t GameType, subType string) string {
	if t == SuitSolo {
		return string(t) + "_" + subType
	}
	return string(t)
}

// splitDeclaration is the inverse of healthDeclaration.
func splitDeclaration(decl string) (GameType, string) {
	if i := strings.Index(decl, "_"); i >= 0 {
		return GameType(decl[:i]), decl[i+1:]
	}
	return GameType(decl), ""
}

func isSoloDeclaration(decl string) bool {
	t, _ := splitDeclaration(decl)
	return t.IsSolo()
}

// NextHealthSeat returns the seat whose health report is expected, or -1 once
// every seat has reported.
func (g *Game) NextHealthSeat() int {
	r := g.Round()
	for i := 0; i < Seats; i++ {
		seat := (r.StarterIdx + i) % Seats
		if len(r.Announcements[seat]) == 0 {
			return seat
		}
	}
	return -1
}

// pflichtsoloPlayed reports whether seat has declared a solo in any earlier
// round of this session.
func (g *Game) pflichtsoloPlayed(seat int) bool {
	for i := 0; i < g.CurrentRound; i++ {
		a := g.Rounds[i].Announcements[seat]
		if len(a) > 0 && isSoloDeclaration(a[0]) {
			return true
		}
	}
	return false
}

// schweineSeat returns the seat holding both schellen-as, or -1.
func (g *Game) schweineSeat() int {
	for seat := 0; seat < Seats; seat++ {
		if countCard(g.seatState(seat).Hand, Fuchs) == 2 {
			return seat
		}
	}
	return -1
}

// ReportHealth records a seat's health declaration during precheck. Seats
// report in order starting with the round's starter. With a forced solo the
// forced seat's declaration settles the round on its own.
func (g *Game) ReportHealth(seat int, t GameType, subType string) error {
	if g.Status != StatusPrecheck {
		return ErrWrongPhase
	}
	if seat < 0 || seat >= Seats {
		return ErrNotSeated
	}
	if !t.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownGameType, t)
	}
	if t == SuitSolo && suitIndex(Suit(subType)) < 0 {
		return fmt.Errorf("%w: farbsolo without suit %q", ErrUnknownGameType, subType)
	}
	next := g.NextHealthSeat()
	if next != seat {
		return ErrNotYourTurn
	}
	r := g.Round()
	if r.ForcedSoloIdx > -1 && seat == r.ForcedSoloIdx && !t.IsSolo() {
		return ErrSoloRequired
	}

	decl := healthDeclaration(t, subType)
	r.Announcements[seat] = append(r.Announcements[seat], decl)
	if decl != HealthNormal {
		g.gameLog(g.seatHolder(seat), "Vorbehalt")
	}

	if r.ForcedSoloIdx > -1 {
		g.gameLog("", fmt.Sprintf("%s must play a solo", g.seatHolder(r.ForcedSoloIdx)))
		for s := 0; s < Seats; s++ {
			if len(r.Announcements[s]) == 0 {
				r.Announcements[s] = append(r.Announcements[s], HealthNormal)
			}
		}
	}
	if g.NextHealthSeat() < 0 {
		g.resolveHealth()
	}
	return nil
}

// vorbehaltLevel ranks a reservation: marriage below a solo of a seat that
// already owes nothing, below any other solo.
func (g *Game) vorbehaltLevel(seat int) int {
	if g.Round().Announcements[seat][0] == string(Marriage) {
		return 1
	}
	if g.pflichtsoloPlayed(seat) {
		return 2
	}
	return 3
}

// resolveHealth settles the round's contract once all declarations are in
// and opens the first trick.
func (g *Game) resolveHealth() {
	r := g.Round()
	starter := r.StarterIdx
	var next *Round
	if g.CurrentRound < len(g.Rounds)-1 {
		next = g.Rounds[g.CurrentRound+1]
		if r.ForcedSoloIdx < 0 {
			next.StarterIdx = (starter + 1) % Seats
		}
	}

	schweine := g.schweineSeat()
	winner, level := -1, 0
	for i := 0; i < Seats; i++ {
		seat := (starter + i) % Seats
		if r.Announcements[seat][0] == HealthNormal {
			continue
		}
		if l := g.vorbehaltLevel(seat); l > level {
			winner, level = seat, l
		}
	}

	r.RePlayers = []int{}
	r.KontraPlayers = []int{}
	r.GameSubType = ""
	switch {
	case winner < 0:
		r.GameType = Normal
		g.gameLog("", "Normal game")
		if schweine > -1 {
			r.GameSubType = SubSchweinerei
			r.Announcements[schweine] = append(r.Announcements[schweine], Schweine)
			g.gameLog(g.seatHolder(schweine), "Schweinerei!")
		}
	default:
		r.GameType, r.GameSubType = splitDeclaration(r.Announcements[winner][0])
		r.RePlayers = []int{winner}
		if r.GameType == Marriage {
			g.gameLog("", fmt.Sprintf("%s announces a marriage", g.seatHolder(winner)))
			if schweine > -1 {
				r.GameSubType = SubSchweinerei
				r.Announcements[schweine] = append(r.Announcements[schweine], Schweine)
				g.gameLog(g.seatHolder(schweine), "Schweinerei!")
			}
		} else {
			g.gameLog("", fmt.Sprintf("%s plays a %s", g.seatHolder(winner), r.GameType))
			g.playAlone(winner)
		}
		if level > 1 {
			r.StarterIdx = winner
			if next != nil && r.ForcedSoloIdx < 0 {
				next.StarterIdx = starter
			}
		}
	}

	r.Tricks = append(r.Tricks, newTrick(r.StarterIdx))
	g.Status = StatusRunning
}
