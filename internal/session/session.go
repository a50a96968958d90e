package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/jason-s-yu/doko/internal/cache"
	"github.com/jason-s-yu/doko/internal/game"
	"github.com/sirupsen/logrus"
)

// ErrNothingToRevert is returned when no earlier snapshot can be restored.
var ErrNothingToRevert = errors.New("no earlier state to revert to")

// Session owns one game document. Every read and write of the document goes
// through the session mutex, so actions on one game run one at a time while
// different games proceed independently.
type Session struct {
	id      string
	mu      sync.Mutex
	g       *game.Game
	store   *Store
	rng     *rand.Rand
	lastTS  time.Time
	pending map[string]bool
	log     *logrus.Entry
}

func newSession(st *Store, g *game.Game) *Session {
	s := &Session{
		id:      g.GameID,
		store:   st,
		rng:     st.newRNG(),
		pending: make(map[string]bool),
		log:     st.log.WithField("game", g.GameID),
	}
	if ts, err := parseTimestamp(g.Timestamp); err == nil {
		s.lastTS = ts
	}
	s.attach(g)
	return s
}

// attach makes g the session's document and subscribes the session to its
// party events. Subscriptions are not persisted, so loaded documents need
// this again.
func (s *Session) attach(g *game.Game) {
	g.OnPartyResolved(s.onPartyResolved)
	s.g = g
}

// ID returns the game id.
func (s *Session) ID() string {
	return s.id
}

// Read runs fn with the document locked. fn must not keep references to
// the document after it returns.
func (s *Session) Read(fn func(g *game.Game)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.g)
}

// ViewJSON renders the document as seen by playerID.
func (s *Session) ViewJSON(playerID string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return json.Marshal(s.g.ViewFor(playerID))
}

// Join seats playerID, or marks a seated player online again. The first
// round is dealt when the fourth seat fills.
func (s *Session) Join(ctx context.Context, playerID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.g
	known := g.SeatOf(playerID) >= 0
	seat, started, err := g.Join(playerID)
	if err != nil {
		return -1, err
	}
	if started {
		if err := g.StartRound(s.rng); err != nil {
			s.fail(err)
			return -1, err
		}
	}
	s.log.WithFields(logrus.Fields{"player": playerID, "seat": seat}).Info("player joined")

	err = s.commit(ctx, playerID, "join", map[string]int{"seat": seat}, !known || started)
	s.schedule()
	return seat, err
}

// Disconnect marks playerID offline. Presence is not persisted.
func (s *Session) Disconnect(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.g.SeatOf(playerID) < 0 {
		return
	}
	s.g.SetOnline(playerID, false)
	if err := s.commit(context.Background(), playerID, "disconnect", nil, false); err != nil {
		s.log.WithError(err).Warn("disconnect commit failed")
	}
}

// Apply runs one player action. Rule violations leave the document
// untouched and are returned to the caller. A failed snapshot write is
// returned too, but the new state is still broadcast.
func (s *Session) Apply(ctx context.Context, playerID string, a Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.g
	seat := g.SeatOf(playerID)
	if seat < 0 {
		return game.ErrNotSeated
	}

	var err error
	persist := true
	switch a := a.(type) {
	case ReportHealth:
		err = g.ReportHealth(seat, a.GameType, a.GameSubType)
	case Announce:
		err = g.Announce(seat, a.Value)
	case PlayCard:
		_, err = g.PlayCard(seat, a.CardID)
	case AcceptScore:
		_, err = g.AcceptScore(seat, a.Accept)
	case Leave:
		err = g.RemovePlayer(playerID, a.RemoveSeat)
		persist = a.RemoveSeat
	case ViewLastTrick:
		err = g.ViewLastTrick(playerID)
	case Chat:
		err = g.PostChat(playerID, a.Text)
	case Revert:
		return s.revertLocked(ctx, playerID)
	case ClientPing:
		return nil
	default:
		return fmt.Errorf("%w: unsupported action %T", ErrInvalidAction, a)
	}
	if err != nil {
		if game.IsIntegrityError(err) {
			s.fail(err)
		}
		return err
	}

	err = s.commit(ctx, playerID, a.Command(), a, persist)
	s.schedule()
	return err
}

// Revert restores the previous persisted state of the game.
func (s *Session) Revert(ctx context.Context, actorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revertLocked(ctx, actorID)
}

// revertLocked walks the snapshot lineage back from the current document.
// Snapshots that stopped right before an automatic step are skipped, since
// loading one would replay straight back to where the table is now. When the
// lineage is broken the newest older snapshot is used instead.
func (s *Session) revertLocked(ctx context.Context, actorID string) error {
	st := s.store
	refs, err := st.listSnapshots(ctx, s.g.GameID)
	if err != nil {
		return err
	}
	byTS := make(map[string]snapshotRef, len(refs))
	for _, r := range refs {
		byTS[r.Timestamp] = r
	}

	tried := make(map[string]bool)
	for target := s.g.PrevTimestamp; target != "" && !tried[target]; {
		ref, ok := byTS[target]
		if !ok {
			s.log.WithField("timestamp", target).Warn("snapshot lineage broken, scanning instead")
			break
		}
		tried[target] = true
		cand, err := st.loadSnapshot(ctx, ref.Name)
		if err != nil {
			return err
		}
		if !cand.NeedsReplay() {
			return s.adopt(ctx, actorID, cand)
		}
		target = cand.PrevTimestamp
	}

	for i := len(refs) - 1; i >= 0; i-- {
		ref := refs[i]
		if ref.Timestamp >= s.g.Timestamp || tried[ref.Timestamp] {
			continue
		}
		cand, err := st.loadSnapshot(ctx, ref.Name)
		if err != nil {
			s.log.WithError(err).Warn("skipping unreadable snapshot")
			continue
		}
		if !cand.NeedsReplay() {
			return s.adopt(ctx, actorID, cand)
		}
	}
	return ErrNothingToRevert
}

// adopt replaces the document with a reverted one. Presence and the rev
// counter carry over from the live document. The reverted state continues
// the lineage of its own predecessor, so reverting again goes further back.
func (s *Session) adopt(ctx context.Context, actorID string, cand *game.Game) error {
	for id, ps := range cand.PlayerState {
		cur, ok := s.g.PlayerState[id]
		ps.Online = ok && cur.Online
	}
	cand.Rev = s.g.Rev
	restored := cand.Timestamp
	cand.Timestamp = cand.PrevTimestamp
	s.attach(cand)
	s.log.WithFields(logrus.Fields{"actor": actorID, "restored": restored}).Info("game reverted")

	err := s.commit(ctx, actorID, Revert{}.Command(), map[string]string{"restored": restored}, true)
	s.schedule()
	return err
}

// commit finishes a change: bump rev, persist, broadcast, and log the
// action. Called with the lock held.
func (s *Session) commit(ctx context.Context, actorID, command string, payload any, persist bool) error {
	s.g.Rev++
	var err error
	if persist {
		err = s.persist(ctx)
		if err != nil {
			s.log.WithError(err).Error("snapshot write failed")
		}
	}
	s.store.broadcaster.Broadcast(s.g)
	s.record(actorID, command, payload)
	return err
}

// schedule arms the automatic follow-up of the current state, if any.
func (s *Session) schedule() {
	g := s.g
	switch {
	case g.Status == game.StatusRunning && len(g.TurnCards) == game.Seats:
		s.after("resolveTrick", s.store.opts.TrickDelay, s.resolveStep)
	case g.Status == game.StatusRoundResults && g.AllAccepted():
		s.after("advance", s.store.opts.AdvanceDelay, s.advanceStep)
	}
}

// after runs step once d has passed, or inline for d <= 0. A step of the
// same name is armed at most once. The step re-checks its own precondition
// since the document may have moved on in the meantime.
func (s *Session) after(name string, d time.Duration, step func() (bool, error)) {
	if s.pending[name] {
		return
	}
	if d <= 0 {
		s.runStep(name, step)
		return
	}
	s.pending[name] = true
	time.AfterFunc(d, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.pending, name)
		s.runStep(name, step)
	})
}

func (s *Session) runStep(name string, step func() (bool, error)) {
	changed, err := step()
	switch {
	case err == nil:
	case game.IsIntegrityError(err):
		s.fail(err)
		return
	case errors.Is(err, game.ErrTableNotFull):
		s.log.Info("waiting for the table to fill before the next round")
		return
	default:
		s.log.WithError(err).WithField("step", name).Error("follow-up step failed")
		return
	}
	if !changed {
		return
	}
	if err := s.commit(context.Background(), "", name, nil, true); err != nil {
		s.log.WithError(err).WithField("step", name).Warn("follow-up not persisted")
	}
	s.schedule()
}

func (s *Session) resolveStep() (bool, error) {
	g := s.g
	if g.Status != game.StatusRunning || len(g.TurnCards) != game.Seats {
		return false, nil
	}
	if err := g.ResolveTrick(); err != nil {
		return false, err
	}
	if g.Status == game.StatusRoundResults {
		s.recordRoundResult()
	}
	return true, nil
}

func (s *Session) advanceStep() (bool, error) {
	g := s.g
	if g.Status != game.StatusRoundResults || !g.AllAccepted() {
		return false, nil
	}
	if err := g.Advance(s.rng); err != nil {
		return false, err
	}
	return true, nil
}

// replay brings a freshly loaded document forward. It reports whether
// anything changed.
func (s *Session) replay() (bool, error) {
	g := s.g
	if !g.NeedsReplay() {
		return false, nil
	}
	before := g.Status
	err := g.Replay(s.rng)
	if before == game.StatusRunning && g.Status == game.StatusRoundResults {
		s.recordRoundResult()
	}
	if errors.Is(err, game.ErrTableNotFull) {
		s.log.Info("recovered game waits for the table to fill")
		return true, nil
	}
	return err == nil, err
}

func (s *Session) fail(err error) {
	s.log.WithError(err).Error("game state integrity violated")
	s.store.opts.Fatal(err)
}

func (s *Session) onPartyResolved(g *game.Game, ev game.PartyEvent) {
	s.record("", cache.ActionPartyResolved, ev)
}

func (s *Session) recordRoundResult() {
	g := s.g
	r := g.Round()
	s.record("", cache.ActionRoundResult, cache.RoundResult{
		GameType: string(r.GameType),
		Winner:   string(r.WinnerParty),
		Players:  g.Players,
		Score:    r.Score,
		Summary:  r.Summary,
	})
}

// record queues an action record for the action log, if one is configured.
// It never blocks the session.
func (s *Session) record(actorID, command string, payload any) {
	st := s.store
	if st.actions == nil {
		return
	}
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			s.log.WithError(err).Warn("action payload not encodable")
		} else {
			raw = data
		}
	}
	rec := cache.ActionRecord{
		GameID:     s.g.GameID,
		Instance:   s.g.Instance,
		Rev:        s.g.Rev,
		Round:      s.g.CurrentRound,
		ActorID:    actorID,
		ActionType: command,
		Payload:    raw,
		Timestamp:  time.Now().UnixMilli(),
	}
	select {
	case st.actions <- rec:
	default:
		s.log.WithField("action", command).Warn("action log queue full, record dropped")
	}
}
