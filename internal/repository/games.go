package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// GameRecord is one stored game snapshot row.
type GameRecord struct {
	GameID    string
	Turn      int
	Phase     string
	Checksum  string
	Snapshot  []byte
	Ended     bool
	UpdatedAt time.Time
}

// GameRepository persists game snapshots. The snapshot column holds the
// gob-encoded state; the checksum column guards against corruption.
type GameRepository struct {
	db *DB
}

// NewGameRepository creates a repository over the shared pool.
func NewGameRepository(db *DB) *GameRepository {
	return &GameRepository{db: db}
}

// SaveSnapshot upserts the latest snapshot of a game.
func (r *GameRepository) SaveSnapshot(ctx context.Context, rec GameRecord) error {
	const query = `
		INSERT INTO games (game_id, turn, phase, checksum, snapshot, ended, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (game_id) DO UPDATE SET
			turn = EXCLUDED.turn,
			phase = EXCLUDED.phase,
			checksum = EXCLUDED.checksum,
			snapshot = EXCLUDED.snapshot,
			ended = EXCLUDED.ended,
			updated_at = NOW()`
	_, err := r.db.Pool().Exec(ctx, query,
		rec.GameID, rec.Turn, rec.Phase, rec.Checksum, rec.Snapshot, rec.Ended)
	if err != nil {
		return fmt.Errorf("failed to save game %s: %w", rec.GameID, err)
	}
	return nil
}

// LoadSnapshot fetches a stored game by ID.
func (r *GameRepository) LoadSnapshot(ctx context.Context, gameID string) (*GameRecord, error) {
	const query = `
		SELECT game_id, turn, phase, checksum, snapshot, ended, updated_at
		FROM games WHERE game_id = $1`
	var rec GameRecord
	err := r.db.Pool().QueryRow(ctx, query, gameID).Scan(
		&rec.GameID, &rec.Turn, &rec.Phase, &rec.Checksum, &rec.Snapshot, &rec.Ended, &rec.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("game %s not found", gameID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load game %s: %w", gameID, err)
	}
	return &rec, nil
}

// ListActive returns the IDs of games that have not ended, most recently
// updated first.
func (r *GameRepository) ListActive(ctx context.Context, limit int) ([]string, error) {
	const query = `
		SELECT game_id FROM games
		WHERE NOT ended
		ORDER BY updated_at DESC
		LIMIT $1`
	rows, err := r.db.Pool().Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan game id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteGame removes a stored game.
func (r *GameRepository) DeleteGame(ctx context.Context, gameID string) error {
	_, err := r.db.Pool().Exec(ctx, `DELETE FROM games WHERE game_id = $1`, gameID)
	if err != nil {
		return fmt.Errorf("failed to delete game %s: %w", gameID, err)
	}
	return nil
}
