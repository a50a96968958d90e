package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jason-s-yu/doko/internal/game"
)

const (
	snapshotDir = "gameStates/"
	snapshotExt = ".snapshot"
	// legacyExt is accepted when reading so older exports still load.
	legacyExt = ".json"

	timestampLayout = "2006-01-02T15-04-05.000Z"
)

// snapshotRef is a parsed snapshot name.
type snapshotRef struct {
	Name      string
	GameID    string
	Instance  int
	Timestamp string
}

// SnapshotName returns the blob name of a game document.
func SnapshotName(gameID string, instance int, timestamp string) string {
	return fmt.Sprintf("%s%s_%d_%s%s", snapshotDir, gameID, instance, timestamp, snapshotExt)
}

// FormatTimestamp renders t the way snapshot names and the document's
// timestamp field carry it: ISO-8601 in UTC with ':' replaced by '-'.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(s string) (time.Time, error) {
	return time.Parse(timestampLayout, s)
}

func parseSnapshotName(name string) (snapshotRef, bool) {
	base, ok := strings.CutPrefix(name, snapshotDir)
	if !ok {
		return snapshotRef{}, false
	}
	switch {
	case strings.HasSuffix(base, snapshotExt):
		base = strings.TrimSuffix(base, snapshotExt)
	case strings.HasSuffix(base, legacyExt):
		base = strings.TrimSuffix(base, legacyExt)
	default:
		return snapshotRef{}, false
	}
	parts := strings.SplitN(base, "_", 3)
	if len(parts) != 3 || parts[0] == "" || parts[2] == "" {
		return snapshotRef{}, false
	}
	instance, err := strconv.Atoi(parts[1])
	if err != nil || instance < 0 {
		return snapshotRef{}, false
	}
	return snapshotRef{Name: name, GameID: parts[0], Instance: instance, Timestamp: parts[2]}, true
}

// newer orders snapshots of one game: higher instance first, then the later
// timestamp.
func (r snapshotRef) newer(o snapshotRef) bool {
	if r.Instance != o.Instance {
		return r.Instance > o.Instance
	}
	return r.Timestamp > o.Timestamp
}

// listSnapshots returns the parsed snapshots of gameID, or of every game for
// an empty id, oldest timestamp first.
func (st *Store) listSnapshots(ctx context.Context, gameID string) ([]snapshotRef, error) {
	prefix := snapshotDir
	if gameID != "" {
		prefix += gameID + "_"
	}
	names, err := st.blobs.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	refs := make([]snapshotRef, 0, len(names))
	for _, n := range names {
		ref, ok := parseSnapshotName(n)
		if !ok || (gameID != "" && ref.GameID != gameID) {
			st.log.WithField("name", n).Debug("skipping foreign blob")
			continue
		}
		refs = append(refs, ref)
	}
	sort.SliceStable(refs, func(i, j int) bool { return refs[i].Timestamp < refs[j].Timestamp })
	return refs, nil
}

// loadSnapshot reads and decodes one document.
func (st *Store) loadSnapshot(ctx context.Context, name string) (*game.Game, error) {
	data, err := st.blobs.Read(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", name, err)
	}
	var g game.Game
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", name, err)
	}
	if g.PlayerState == nil {
		g.PlayerState = map[string]*game.PlayerState{}
	}
	if len(g.Rounds) == 0 {
		return nil, fmt.Errorf("decode snapshot %s: document has no rounds", name)
	}
	return &g, nil
}

// persist writes the document under a fresh timestamp. Timestamps are kept
// strictly increasing per session so names never collide and sort in write
// order. The previous timestamp is recorded as the lineage link.
func (s *Session) persist(ctx context.Context) error {
	g := s.g
	ts := time.Now().UTC().Truncate(time.Millisecond)
	if !ts.After(s.lastTS) {
		ts = s.lastTS.Add(time.Millisecond)
	}
	s.lastTS = ts
	g.PrevTimestamp = g.Timestamp
	g.Timestamp = FormatTimestamp(ts)

	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return fmt.Errorf("encode game %s: %w", g.GameID, err)
	}
	name := SnapshotName(g.GameID, g.Instance, g.Timestamp)
	if err := s.store.blobs.Write(ctx, name, data); err != nil {
		return fmt.Errorf("persist game %s: %w", g.GameID, err)
	}
	s.log.WithField("snapshot", name).Debug("snapshot written")
	return nil
}
