package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

// Repository stores finished games in Postgres.
type Repository struct {
	db *sql.DB
}

const schema = `CREATE TABLE IF NOT EXISTS lanchess_games (
    id TEXT PRIMARY KEY,
    room TEXT NOT NULL,
    color TEXT NOT NULL,
    result TEXT NOT NULL,
    reason TEXT NOT NULL,
    moves_uci JSONB NOT NULL,
    moves_san JSONB NOT NULL,
    pgn TEXT NOT NULL,
    final_fen TEXT NOT NULL DEFAULT '',
    ended_at TIMESTAMPTZ NOT NULL
)`

func NewRepository(databaseURL string) (*Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Save upserts rec by id.
func (r *Repository) Save(ctx context.Context, rec Record) error {
	if r == nil || r.db == nil {
		return nil
	}
	uciRaw, _ := json.Marshal(rec.MovesUCI)
	sanRaw, _ := json.Marshal(rec.MovesSAN)

	q := `INSERT INTO lanchess_games (
        id, room, color, result, reason, moves_uci, moves_san, pgn, final_fen, ended_at
      ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
      ON CONFLICT (id) DO UPDATE SET
        room=EXCLUDED.room,
        color=EXCLUDED.color,
        result=EXCLUDED.result,
        reason=EXCLUDED.reason,
        moves_uci=EXCLUDED.moves_uci,
        moves_san=EXCLUDED.moves_san,
        pgn=EXCLUDED.pgn,
        final_fen=EXCLUDED.final_fen,
        ended_at=EXCLUDED.ended_at`

	_, err := r.db.ExecContext(ctx, q,
		rec.ID, rec.Room, rec.Color, rec.Result, rec.Reason,
		string(uciRaw), string(sanRaw), rec.PGN, rec.FinalFEN, rec.EndedAt,
	)
	if err != nil {
		return fmt.Errorf("save game %s: %w", rec.ID, err)
	}
	return nil
}
