package game

import "fmt"

// TrickExtra is a bonus tag together with the party that won its trick.
type TrickExtra struct {
	Party Party
	Tag   string
}

// RoundFacts is everything the scoring rules look at. It is computed once
// from a finished round and never changes while the rules run.
type RoundFacts struct {
	GameType            GameType
	ReScore             int
	KontraScore         int
	ReAnnouncements     []string
	KontraAnnouncements []string
	Re                  bool
	Kontra              bool
	ReAbsage            string
	KontraAbsage        string
	ReLost              bool
	KontraLost          bool
	Winner              Party
	Extras              []TrickExtra
}

func (f RoundFacts) winnerScore() int {
	if f.Winner == Kontra {
		return f.KontraScore
	}
	return f.ReScore
}

func (f RoundFacts) loserScore() int {
	if f.Winner == Kontra {
		return f.ReScore
	}
	return f.KontraScore
}

func (f RoundFacts) loserParty() Party {
	if f.Winner == Kontra {
		return Re
	}
	return Kontra
}

// winnerAnnouncements and loserAnnouncements treat a round without winner as
// won by Kontra for lookup purposes, while the scores above treat it as won
// by Re. The overshoot rules depend on exactly this pairing.
func (f RoundFacts) winnerAnnouncements() []string {
	if f.Winner == Re {
		return f.ReAnnouncements
	}
	return f.KontraAnnouncements
}

func (f RoundFacts) loserAnnouncements() []string {
	if f.Winner == Re {
		return f.KontraAnnouncements
	}
	return f.ReAnnouncements
}

// highestAbsage returns the strongest counter-declaration in anns or "".
func highestAbsage(anns []string) string {
	for i := len(absagen) - 1; i >= 0; i-- {
		if containsString(anns, absagen[i]) {
			return absagen[i]
		}
	}
	return ""
}

// absageFailed reports whether a party that declared absage let the other
// side reach opponentScore.
func absageFailed(absage string, opponentScore int) bool {
	switch absage {
	case Keine90:
		return opponentScore >= 90
	case Keine60:
		return opponentScore >= 60
	case Keine30:
		return opponentScore >= 30
	case Schwarz:
		return opponentScore > 0
	}
	return false
}

// decideWinner applies the counter-declarations first and the 120 point
// line second. At 120:120 Re wins only if Kontra was announced and Re was
// not.
func (f *RoundFacts) decideWinner() {
	f.ReLost = absageFailed(f.ReAbsage, f.KontraScore)
	f.KontraLost = absageFailed(f.KontraAbsage, f.ReScore)
	switch {
	case f.ReLost && f.KontraLost:
		f.Winner = NoParty
	case f.ReLost:
		f.Winner = Kontra
	case f.KontraLost:
		f.Winner = Re
	case f.ReScore > TotalPoints/2:
		f.Winner = Re
	case f.KontraScore > TotalPoints/2:
		f.Winner = Kontra
	case !f.Re && f.Kontra:
		f.Winner = Re
	default:
		f.Winner = Kontra
	}
}

// ScoringRule turns round facts into score sheet entries.
type ScoringRule struct {
	Name  string
	Apply func(f RoundFacts) []ScoreEntry
}

type threshold struct {
	absage string
	points int
	desc   string
}

var overshoots = []threshold{
	{Keine90, 120, "120 gegen Keine 90 erreicht"},
	{Keine60, 90, "90 gegen Keine 60 erreicht"},
	{Keine30, 60, "60 gegen Keine 30 erreicht"},
	{Schwarz, 30, "30 gegen Schwarz erreicht"},
}

// ScoringRules is applied in order. Every rule is independent of the others.
var ScoringRules = []ScoringRule{
	{Name: "won", Apply: func(f RoundFacts) []ScoreEntry {
		if f.Winner == NoParty {
			return nil
		}
		return []ScoreEntry{{Desc: "gewonnen", Party: f.Winner, Value: 1}}
	}},
	{Name: "against the old ones", Apply: func(f RoundFacts) []ScoreEntry {
		if f.Winner != Kontra || !f.GameType.in(Normal, Marriage) {
			return nil
		}
		return []ScoreEntry{{Desc: "gegen die Alten", Party: Kontra, Value: 1}}
	}},
	{Name: "party announcements", Apply: func(f RoundFacts) []ScoreEntry {
		if f.Winner == NoParty {
			return nil
		}
		var out []ScoreEntry
		if f.Re {
			out = append(out, ScoreEntry{Desc: "Re angesagt", Party: f.Winner, Value: 2})
		}
		if f.Kontra {
			out = append(out, ScoreEntry{Desc: "Kontra angesagt", Party: f.Winner, Value: 2})
		}
		return out
	}},
	{Name: "absagen", Apply: func(f RoundFacts) []ScoreEntry {
		if f.Winner == NoParty {
			return nil
		}
		var out []ScoreEntry
		sides := []struct {
			party Party
			anns  []string
		}{
			{f.Winner, f.winnerAnnouncements()},
			{f.loserParty(), f.loserAnnouncements()},
		}
		for _, side := range sides {
			for _, a := range absagen {
				if containsString(side.anns, a) {
					desc := fmt.Sprintf("%s abgesagt (%s)", a, side.party)
					out = append(out, ScoreEntry{Desc: desc, Party: f.Winner, Value: 1})
				}
			}
		}
		return out
	}},
	{Name: "played below", Apply: func(f RoundFacts) []ScoreEntry {
		var out []ScoreEntry
		loser := f.loserScore()
		for _, limit := range []int{90, 60, 30} {
			if loser < limit {
				out = append(out, ScoreEntry{Desc: fmt.Sprintf("Unter %d gespielt", limit), Party: f.Winner, Value: 1})
			}
		}
		if loser == 0 {
			out = append(out, ScoreEntry{Desc: "Schwarz gespielt", Party: f.Winner, Value: 1})
		}
		return out
	}},
	{Name: "overshoot", Apply: func(f RoundFacts) []ScoreEntry {
		var out []ScoreEntry
		winnerSide := Re
		if f.Winner == Kontra {
			winnerSide = Kontra
		}
		for _, t := range overshoots {
			if f.winnerScore() >= t.points && containsString(f.loserAnnouncements(), t.absage) {
				out = append(out, ScoreEntry{Desc: t.desc, Party: winnerSide, Value: 1})
			}
		}
		for _, t := range overshoots {
			if f.loserScore() >= t.points && containsString(f.winnerAnnouncements(), t.absage) {
				out = append(out, ScoreEntry{Desc: t.desc, Party: f.loserParty(), Value: 1})
			}
		}
		return out
	}},
	{Name: "extras", Apply: func(f RoundFacts) []ScoreEntry {
		var out []ScoreEntry
		for _, p := range []Party{Re, Kontra} {
			for _, x := range f.Extras {
				if x.Party == p {
					out = append(out, ScoreEntry{Desc: x.Tag, Party: x.Party, Value: 1})
				}
			}
		}
		return out
	}},
}

// ScoreSheet runs every rule against f.
func ScoreSheet(f RoundFacts) []ScoreEntry {
	out := []ScoreEntry{}
	for _, rule := range ScoringRules {
		out = append(out, rule.Apply(f)...)
	}
	return out
}

// partyPoints sums the card points won by seats.
func (g *Game) partyPoints(seats []int) int {
	sum := 0
	for _, s := range seats {
		sum += points(g.seatState(s).DiscardPile)
	}
	return sum
}

// roundFacts collects the facts of the current round.
func (g *Game) roundFacts() RoundFacts {
	r := g.Round()
	f := RoundFacts{
		GameType:            r.GameType,
		ReScore:             g.partyPoints(r.RePlayers),
		KontraScore:         g.partyPoints(r.KontraPlayers),
		ReAnnouncements:     []string{},
		KontraAnnouncements: []string{},
	}
	for seat, anns := range r.Announcements {
		if len(anns) < 2 {
			continue
		}
		switch r.KnownParty(seat) {
		case Re:
			f.ReAnnouncements = append(f.ReAnnouncements, anns[1:]...)
		case Kontra:
			f.KontraAnnouncements = append(f.KontraAnnouncements, anns[1:]...)
		}
	}
	f.Re = containsString(f.ReAnnouncements, AnnounceRe)
	f.Kontra = containsString(f.KontraAnnouncements, AnnounceKontra)
	f.ReAbsage = highestAbsage(f.ReAnnouncements)
	f.KontraAbsage = highestAbsage(f.KontraAnnouncements)
	f.decideWinner()

	for _, t := range r.Tricks {
		p := Kontra
		if containsSeat(r.RePlayers, t.WinnerIdx) {
			p = Re
		}
		for _, x := range t.Extras {
			f.Extras = append(f.Extras, TrickExtra{Party: p, Tag: x})
		}
	}
	return f
}

// ResolveRound scores the finished round. A round that already has a summary
// is left alone. Card points that do not add up to 240 are an integrity
// error and nothing is written.
func (g *Game) ResolveRound() error {
	r := g.Round()
	if r.Summary != "" {
		return nil
	}
	f := g.roundFacts()
	if f.ReScore+f.KontraScore != TotalPoints {
		return &IntegrityError{
			GameID: g.GameID,
			Reason: fmt.Sprintf("card points add up to %d, want %d", f.ReScore+f.KontraScore, TotalPoints),
		}
	}
	g.gameLog("", "The round is over.")

	sheet := ScoreSheet(f)
	total := 0
	for _, e := range sheet {
		if e.Party == f.Winner {
			total += e.Value
		} else {
			total -= e.Value
		}
	}

	winners := r.RePlayers
	switch f.Winner {
	case Re:
		g.gameLog("", fmt.Sprintf("Re wins with %d points.", f.ReScore))
		r.Summary = fmt.Sprintf("Re gewinnt mit %d Augen.", f.ReScore)
	case Kontra:
		winners = r.KontraPlayers
		g.gameLog("", fmt.Sprintf("Kontra wins with %d points.", f.KontraScore))
		r.Summary = fmt.Sprintf("Kontra gewinnt mit %d Augen.", f.KontraScore)
	default:
		g.gameLog("", fmt.Sprintf("Both parties missed their absage %s / %s.", f.ReAbsage, f.KontraAbsage))
		r.Summary = fmt.Sprintf("Keine Partei gewinnt. Re erreichte %d Augen.", f.ReScore)
	}
	winnerFactor, loserFactor := 1, 1
	if len(winners) == 1 {
		winnerFactor = 3
	}
	if len(winners) == 3 {
		loserFactor = 3
	}
	for seat := 0; seat < Seats; seat++ {
		if containsSeat(winners, seat) {
			r.Score[seat] = winnerFactor * total
		} else {
			r.Score[seat] = -loserFactor * total
		}
	}
	r.Score[Seats] = total
	r.ScoreDetails = sheet
	r.WinnerParty = f.Winner
	r.ScoreAccepted = [Seats]bool{}
	g.Status = StatusRoundResults
	g.ViewLastTrickIdx = nil
	return nil
}
