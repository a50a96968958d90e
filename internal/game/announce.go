package game

// Announcement chain. Each party may climb it one step at a time.
const (
	AnnounceRe     = "Re"
	AnnounceKontra = "Kontra"
	Keine90        = "Keine 90"
	Keine60        = "Keine 60"
	Keine30        = "Keine 30"
	Schwarz        = "Schwarz"
)

// absagen lists the counter-declarations, lowest first.
var absagen = []string{Keine90, Keine60, Keine30, Schwarz}

func isAnnouncement(v string) bool {
	if v == AnnounceRe || v == AnnounceKontra {
		return true
	}
	return containsString(absagen, v)
}

func containsString(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

// clarificationTrick returns the index of the trick that settled a marriage,
// -1 while the marriage is still open. Other game types are settled from the
// start.
func (r *Round) clarificationTrick() int {
	if r.GameType != Marriage {
		return 0
	}
	declarer := -1
	for seat, a := range r.Announcements {
		if len(a) > 0 && a[0] == string(Marriage) {
			declarer = seat
			break
		}
	}
	for i, t := range r.Tricks {
		if i > 2 {
			break
		}
		if t.Resolved() && t.WinnerIdx != declarer {
			return i
		}
	}
	if len(r.Tricks) < 4 {
		return -1
	}
	return 2
}

// NextAnnouncement returns the only announcement seat may make right now, or
// "" when there is none. The deadline is counted in cards left in hand: nine
// for the party announcement, one fewer per step already taken, one fewer
// again when answering the other party, and shifted back by the trick that
// settled a marriage.
func (g *Game) NextAnnouncement(seat int) string {
	if g.Status != StatusRunning || seat < 0 || seat >= Seats {
		return ""
	}
	r := g.Round()
	offset := r.clarificationTrick()
	if offset < 0 {
		return ""
	}
	party := g.PlayerParty(seat)
	if party == NoParty {
		return ""
	}

	var own, opponent []string
	for idx, a := range r.Announcements {
		if len(a) < 2 {
			continue
		}
		last := a[len(a)-1]
		switch p := r.KnownParty(idx); {
		case idx == seat || p == party:
			own = append(own, last)
		case p == party.Opponent():
			opponent = append(opponent, last)
		}
	}
	opponentAnnounced := false
	for _, a := range opponent {
		if isAnnouncement(a) {
			opponentAnnounced = true
			break
		}
	}
	if containsString(own, Schwarz) {
		return ""
	}
	if containsString(own, Keine30) {
		own = append(own, Keine60)
	}
	if containsString(own, Keine60) {
		own = append(own, Keine90)
	}
	if containsString(own, Keine90) {
		own = append(own, string(party))
	}

	limit := 9 - offset
	next := string(party)
	for _, step := range absagen {
		if !containsString(own, next) {
			break
		}
		next = step
		limit--
	}
	if opponentAnnounced && next == string(party) {
		limit--
	}
	if len(g.seatState(seat).Hand) >= limit {
		return next
	}
	return ""
}

// Announce makes the next announcement for seat. The seat reveals its party
// by doing so.
func (g *Game) Announce(seat int, value string) error {
	if g.Status != StatusRunning {
		return ErrWrongPhase
	}
	if seat < 0 || seat >= Seats {
		return ErrNotSeated
	}
	if !isAnnouncement(value) {
		return ErrInvalidAnnouncement
	}
	next := g.NextAnnouncement(seat)
	if next == "" {
		return ErrNoAnnouncement
	}
	if next != value {
		return ErrAnnouncementOrder
	}

	party := g.PlayerParty(seat)
	g.gameLog(g.seatHolder(seat), value)
	g.addToParty(party, seat)
	r := g.Round()
	if !containsString(r.Announcements[seat], string(party)) && value != string(party) {
		r.Announcements[seat] = append(r.Announcements[seat], string(party))
	}
	r.Announcements[seat] = append(r.Announcements[seat], value)
	return nil
}
