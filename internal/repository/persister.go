package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/landsraad/dune-server-go/internal/game"
	"go.uber.org/zap"
)

const (
	persistInterval   = 30 * time.Second
	restoreBatchLimit = 200
)

// Persister periodically snapshots every running game into the database so a
// restarted server can recover them.
type Persister struct {
	engine *game.DuneEngine
	repo   *GameRepository
	logger *zap.Logger
}

// NewPersister creates a snapshot persister.
func NewPersister(engine *game.DuneEngine, repo *GameRepository, logger *zap.Logger) *Persister {
	return &Persister{engine: engine, repo: repo, logger: logger}
}

// Run persists snapshots on a fixed interval until the context is cancelled.
func (p *Persister) Run(ctx context.Context) {
	ticker := time.NewTicker(persistInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			p.PersistAll(ctx)
			return
		case <-ticker.C:
			p.PersistAll(ctx)
		}
	}
}

// RestoreAll loads every unfinished stored game back into the engine and
// returns how many were recovered. Rows whose snapshot fails to decode or no
// longer matches its recorded checksum are dropped from the store.
func (p *Persister) RestoreAll(ctx context.Context, maxTurns int) int {
	ids, err := p.repo.ListActive(ctx, restoreBatchLimit)
	if err != nil {
		p.logger.Warn("failed to list stored games", zap.Error(err))
		return 0
	}
	restored := 0
	for _, gameID := range ids {
		rec, err := p.repo.LoadSnapshot(ctx, gameID)
		if err != nil {
			p.logger.Warn("failed to load snapshot",
				zap.String("game_id", gameID),
				zap.Error(err),
			)
			continue
		}
		state, err := game.DeserializeFromBytes(rec.Snapshot)
		if err != nil {
			p.dropCorrupt(ctx, gameID, err)
			continue
		}
		checksum, err := state.ComputeChecksum()
		if err != nil || checksum.Hash != rec.Checksum {
			p.dropCorrupt(ctx, gameID, fmt.Errorf("checksum mismatch"))
			continue
		}
		if err := p.engine.RestoreGame(state, maxTurns); err != nil {
			p.logger.Warn("failed to restore game",
				zap.String("game_id", gameID),
				zap.Error(err),
			)
			continue
		}
		restored++
	}
	return restored
}

func (p *Persister) dropCorrupt(ctx context.Context, gameID string, cause error) {
	p.logger.Warn("dropping corrupt snapshot",
		zap.String("game_id", gameID),
		zap.Error(cause),
	)
	if err := p.repo.DeleteGame(ctx, gameID); err != nil {
		p.logger.Warn("failed to delete corrupt snapshot",
			zap.String("game_id", gameID),
			zap.Error(err),
		)
	}
}

// PersistAll writes one snapshot per registered game.
func (p *Persister) PersistAll(ctx context.Context) {
	for _, gameID := range p.engine.GameIDs() {
		if err := p.persistGame(ctx, gameID); err != nil {
			p.logger.Warn("failed to persist game",
				zap.String("game_id", gameID),
				zap.Error(err),
			)
		}
	}
}

func (p *Persister) persistGame(ctx context.Context, gameID string) error {
	state, err := p.engine.State(gameID)
	if err != nil {
		return err
	}
	snapshot, err := state.SerializeToBytes()
	if err != nil {
		return err
	}
	checksum, err := state.ComputeChecksum()
	if err != nil {
		return err
	}
	return p.repo.SaveSnapshot(ctx, GameRecord{
		GameID:   gameID,
		Turn:     state.Turn,
		Phase:    state.Phase.String(),
		Checksum: checksum.Hash,
		Snapshot: snapshot,
		Ended:    state.Ended,
	})
}
