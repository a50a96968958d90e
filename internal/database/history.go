// internal/database/history.go
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/doko/internal/cache"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS game_actions (
		id          UUID PRIMARY KEY,
		game_id     TEXT NOT NULL,
		instance    INT NOT NULL,
		rev         INT NOT NULL,
		round       INT NOT NULL,
		actor_id    TEXT,
		action_type TEXT NOT NULL,
		payload     JSONB,
		created_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS round_results (
		game_id    TEXT NOT NULL,
		instance   INT NOT NULL,
		round      INT NOT NULL,
		game_type  TEXT NOT NULL,
		winner     TEXT NOT NULL,
		players    TEXT[] NOT NULL,
		score      INT[] NOT NULL,
		summary    TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (game_id, instance, round)
	)`,
}

// EnsureSchema creates the history tables if they are missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, q := range schema {
		if _, err := pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// RoundResultRow is one scored round as stored in round_results.
type RoundResultRow struct {
	GameID    string
	Instance  int
	Round     int
	GameType  string
	Winner    string
	Players   []string
	Score     []int32
	Summary   string
	CreatedAt time.Time
}

// SaveActions writes a batch of action records in one transaction. Round
// result records also land in round_results.
func SaveActions(ctx context.Context, pool *pgxpool.Pool, recs []cache.ActionRecord) error {
	err := pgx.BeginTxFunc(ctx, pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range recs {
			if err := insertActionTx(ctx, tx, rec); err != nil {
				return fmt.Errorf("insert action %s: %w", rec.ID, err)
			}
			if rec.ActionType != cache.ActionRoundResult {
				continue
			}
			if err := insertRoundResultTx(ctx, tx, rec); err != nil {
				return fmt.Errorf("insert round result %s/%d: %w", rec.GameID, rec.Round, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save %d actions: %w", len(recs), err)
	}
	return nil
}

func insertActionTx(ctx context.Context, tx pgx.Tx, rec cache.ActionRecord) error {
	q := `
		INSERT INTO game_actions (id, game_id, instance, rev, round, actor_id, action_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`
	var payload []byte
	if len(rec.Payload) > 0 {
		payload = rec.Payload
	}
	_, err := tx.Exec(ctx, q,
		rec.ID, rec.GameID, rec.Instance, rec.Rev, rec.Round, rec.ActorID, rec.ActionType, payload,
		time.UnixMilli(rec.Timestamp),
	)
	return err
}

// insertRoundResultTx upserts so a round replayed after recovery does not
// fail the batch.
func insertRoundResultTx(ctx context.Context, tx pgx.Tx, rec cache.ActionRecord) error {
	var res cache.RoundResult
	if err := json.Unmarshal(rec.Payload, &res); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	q := `
		INSERT INTO round_results (game_id, instance, round, game_type, winner, players, score, summary, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (game_id, instance, round)
		DO UPDATE SET game_type = $4, winner = $5, players = $6, score = $7, summary = $8, created_at = $9
	`
	_, err := tx.Exec(ctx, q,
		rec.GameID, rec.Instance, rec.Round, res.GameType, res.Winner, res.Players[:], res.Score[:], res.Summary,
		time.UnixMilli(rec.Timestamp),
	)
	return err
}

// RoundResults returns the scored rounds of a game, oldest first.
func RoundResults(ctx context.Context, pool *pgxpool.Pool, gameID string) ([]RoundResultRow, error) {
	q := `
		SELECT game_id, instance, round, game_type, winner, players, score, summary, created_at
		FROM round_results
		WHERE game_id = $1
		ORDER BY instance, round
	`
	rows, err := pool.Query(ctx, q, gameID)
	if err != nil {
		return nil, fmt.Errorf("query round results: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByPos[RoundResultRow])
	if err != nil {
		return nil, fmt.Errorf("scan round results: %w", err)
	}
	return out, nil
}
