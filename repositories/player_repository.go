package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/Dosada05/association-tournaments/models"
	"github.com/jmoiron/sqlx"
)

// PlayerRepository is the read side of the member directory.
type PlayerRepository interface {
	Exists(ctx context.Context, id string) (bool, error)
	GetByID(ctx context.Context, id string) (*models.Player, error)
}

type sqlPlayerRepository struct {
	db *sqlx.DB
}

func NewSQLPlayerRepository(db *sqlx.DB) PlayerRepository {
	return &sqlPlayerRepository{db: db}
}

func (r *sqlPlayerRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	query := r.db.Rebind(`SELECT EXISTS (SELECT 1 FROM players WHERE id = ? AND deleted_at IS NULL)`)
	if err := r.db.GetContext(ctx, &exists, query, id); err != nil {
		return false, fmt.Errorf("failed to check player %s: %w", id, err)
	}
	return exists, nil
}

func (r *sqlPlayerRepository) GetByID(ctx context.Context, id string) (*models.Player, error) {
	var p models.Player
	query := r.db.Rebind(`SELECT id, first_name, last_name, email FROM players WHERE id = ? AND deleted_at IS NULL`)
	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to get player %s: %w", id, err)
	}
	return &p, nil
}

// MemoryPlayerRepository serves a fixed roster, for local runs and tests.
type MemoryPlayerRepository struct {
	mu      sync.RWMutex
	players map[string]models.Player
}

func NewMemoryPlayerRepository(players ...models.Player) *MemoryPlayerRepository {
	r := &MemoryPlayerRepository{players: make(map[string]models.Player, len(players))}
	for _, p := range players {
		r.players[p.ID] = p
	}
	return r
}

func (r *MemoryPlayerRepository) Add(p models.Player) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.players[p.ID] = p
}

func (r *MemoryPlayerRepository) Exists(ctx context.Context, id string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.players[id]
	return ok, nil
}

func (r *MemoryPlayerRepository) GetByID(ctx context.Context, id string) (*models.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.players[id]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	return &p, nil
}
