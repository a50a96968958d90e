package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/jason-s-yu/doko/internal/cache"
	"github.com/jason-s-yu/doko/internal/game"
	"github.com/jason-s-yu/doko/internal/storage"
	"github.com/sirupsen/logrus"
)

var (
	ErrGameNotFound  = errors.New("game not found")
	ErrGameExists    = errors.New("game already exists")
	ErrInvalidGameID = errors.New("game id may only contain letters, digits and '-'")
)

var gameIDPattern = regexp.MustCompile(`^[A-Za-z0-9-]{1,64}$`)

// Broadcaster pushes a changed document to the connected players. It is
// called with the session locked and must not keep g after returning.
type Broadcaster interface {
	Broadcast(g *game.Game)
}

// ActionPublisher ships action records to the action log.
type ActionPublisher interface {
	Publish(ctx context.Context, rec cache.ActionRecord) error
}

type nopBroadcaster struct{}

func (nopBroadcaster) Broadcast(*game.Game) {}

// Options configures a Store. Zero values fall back to sensible defaults
// except for the delays, where zero means the follow-up runs inline.
type Options struct {
	Logger      *logrus.Logger
	Broadcaster Broadcaster
	ActionLog   ActionPublisher

	// QueueSize bounds the records waiting for the action log.
	QueueSize int

	Rounds       int
	TrickDelay   time.Duration
	AdvanceDelay time.Duration

	// Seed fixes the shuffles. Zero seeds from the clock.
	Seed int64

	// Fatal handles integrity violations. It defaults to Logger.Fatal.
	Fatal func(error)
}

// Summary is one entry of the game listing.
type Summary struct {
	ID              string             `json:"id"`
	Players         [game.Seats]string `json:"players"`
	Rounds          int                `json:"rounds"`
	CompletedRounds int                `json:"completedRounds"`
	Status          game.Status        `json:"gameStatus"`
	Online          map[string]bool    `json:"online"`
	Extras          []string           `json:"extras"`
}

// Store holds every live session and the blob store their snapshots go to.
type Store struct {
	blobs       storage.BlobStore
	opts        Options
	log         *logrus.Logger
	broadcaster Broadcaster

	mu       sync.RWMutex
	sessions map[string]*Session

	seedMu sync.Mutex
	seeds  *rand.Rand

	actions chan cache.ActionRecord
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewStore creates an empty store. When opts.ActionLog is set a background
// goroutine ships action records until Close is called.
func NewStore(blobs storage.BlobStore, opts Options) *Store {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Rounds <= 0 {
		opts.Rounds = game.DefaultRounds
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 1024
	}
	if opts.Fatal == nil {
		logger := opts.Logger
		opts.Fatal = func(err error) { logger.WithError(err).Fatal("halting on corrupted game state") }
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	st := &Store{
		blobs:       blobs,
		opts:        opts,
		log:         opts.Logger,
		broadcaster: opts.Broadcaster,
		sessions:    make(map[string]*Session),
		seeds:       rand.New(rand.NewSource(seed)),
	}
	if st.broadcaster == nil {
		st.broadcaster = nopBroadcaster{}
	}
	if opts.ActionLog != nil {
		ctx, cancel := context.WithCancel(context.Background())
		st.actions = make(chan cache.ActionRecord, opts.QueueSize)
		st.cancel = cancel
		st.wg.Add(1)
		go st.publishLoop(ctx)
	}
	return st
}

// newRNG derives a per-session shuffle source from the store's seed.
func (st *Store) newRNG() *rand.Rand {
	st.seedMu.Lock()
	defer st.seedMu.Unlock()
	return rand.New(rand.NewSource(st.seeds.Int63()))
}

// Get returns the live session of a game.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}
	return s, nil
}

// Create opens a new game with the given number of rounds and writes its
// first snapshot.
func (st *Store) Create(ctx context.Context, id string, rounds int) (*Session, error) {
	if !gameIDPattern.MatchString(id) {
		return nil, ErrInvalidGameID
	}
	if rounds <= 0 {
		rounds = st.opts.Rounds
	}

	st.mu.Lock()
	if _, ok := st.sessions[id]; ok {
		st.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrGameExists, id)
	}
	s := newSession(st, game.NewGame(id, rounds))
	st.sessions[id] = s
	st.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.log.WithField("rounds", rounds).Info("game created")
	if err := s.commit(ctx, "", "create", map[string]int{"rounds": rounds}, true); err != nil {
		return s, err
	}
	return s, nil
}

// List summarizes every game, ordered by id.
func (st *Store) List() []Summary {
	st.mu.RLock()
	sessions := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		sessions = append(sessions, s)
	}
	st.mu.RUnlock()

	out := make([]Summary, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Summary describes the game for the listing.
func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.g
	sum := Summary{
		ID:              g.GameID,
		Players:         g.Players,
		Rounds:          len(g.Rounds),
		CompletedRounds: completedRounds(g),
		Status:          g.Status,
		Online:          make(map[string]bool),
		Extras:          []string{},
	}
	for _, p := range g.Players {
		if ps, ok := g.PlayerState[p]; ok && p != "" {
			sum.Online[p] = ps.Online
		}
	}
	return sum
}

func completedRounds(g *game.Game) int {
	n := 0
	for _, r := range g.Rounds {
		if r.Summary != "" {
			n++
		}
	}
	return n
}

// Recover loads the newest snapshot of every game in the blob store. All
// players start offline and pending automatic steps are replayed. It
// returns the number of games restored.
func (st *Store) Recover(ctx context.Context) (int, error) {
	refs, err := st.listSnapshots(ctx, "")
	if err != nil {
		return 0, err
	}
	latest := make(map[string]snapshotRef)
	for _, r := range refs {
		if cur, ok := latest[r.GameID]; !ok || r.newer(cur) {
			latest[r.GameID] = r
		}
	}
	ids := make([]string, 0, len(latest))
	for id := range latest {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	restored := 0
	for _, id := range ids {
		ref := latest[id]
		entry := st.log.WithFields(logrus.Fields{"game": id, "snapshot": ref.Name})
		g, err := st.loadSnapshot(ctx, ref.Name)
		if err != nil {
			entry.WithError(err).Error("could not restore game")
			continue
		}
		for _, ps := range g.PlayerState {
			ps.Online = false
		}

		s := newSession(st, g)
		s.mu.Lock()
		changed, err := s.replay()
		if err != nil {
			s.mu.Unlock()
			if game.IsIntegrityError(err) {
				s.fail(err)
			}
			entry.WithError(err).Error("replay failed")
			continue
		}
		if changed {
			if err := s.commit(ctx, "", "replay", nil, true); err != nil {
				entry.WithError(err).Warn("replayed state not persisted")
			}
		}
		s.mu.Unlock()

		st.mu.Lock()
		st.sessions[id] = s
		st.mu.Unlock()
		restored++
		entry.WithField("replayed", changed).Info("game restored")
	}
	return restored, nil
}

// Revert restores the previous state of a game.
func (st *Store) Revert(ctx context.Context, id, actorID string) error {
	s, err := st.Get(id)
	if err != nil {
		return err
	}
	return s.Revert(ctx, actorID)
}

// Close stops the action log shipper. Records still queued are flushed
// with a short deadline.
func (st *Store) Close() {
	if st.cancel == nil {
		return
	}
	st.cancel()
	st.wg.Wait()
}

func (st *Store) publishLoop(ctx context.Context) {
	defer st.wg.Done()
	for {
		select {
		case <-ctx.Done():
			st.drain()
			return
		case rec := <-st.actions:
			st.publish(rec)
		}
	}
}

func (st *Store) drain() {
	for {
		select {
		case rec := <-st.actions:
			st.publish(rec)
		default:
			return
		}
	}
}

func (st *Store) publish(rec cache.ActionRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := st.opts.ActionLog.Publish(ctx, rec); err != nil {
		st.log.WithError(err).WithFields(logrus.Fields{
			"game":   rec.GameID,
			"action": rec.ActionType,
		}).Warn("failed to publish action record")
	}
}
