package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Dosada05/association-tournaments/models"
	"github.com/Dosada05/association-tournaments/repositories"
)

const maxSaveAttempts = 5

// errNoChange lets a mutation report that nothing needs saving.
var errNoChange = errors.New("no change")

// aggregateLocks is an arena of per-tournament mutexes. Entries are reference
// counted and dropped when the last holder releases them, so the map only
// holds tournaments that are currently being modified.
type aggregateLocks struct {
	mu    sync.Mutex
	locks map[string]*aggregateLock
}

type aggregateLock struct {
	mu   sync.Mutex
	refs int
}

func newAggregateLocks() *aggregateLocks {
	return &aggregateLocks{locks: make(map[string]*aggregateLock)}
}

func (l *aggregateLocks) lock(id string) (unlock func()) {
	l.mu.Lock()
	entry, ok := l.locks[id]
	if !ok {
		entry = &aggregateLock{}
		l.locks[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

func (l *aggregateLocks) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

// AggregateStore serializes read-modify-write cycles on one tournament.
// Within a process the per-id lock orders writers; across processes the
// repository's version check rejects stale saves, which are retried.
type AggregateStore struct {
	repo  repositories.TournamentRepository
	locks *aggregateLocks
}

func NewAggregateStore(repo repositories.TournamentRepository) *AggregateStore {
	return &AggregateStore{repo: repo, locks: newAggregateLocks()}
}

// mutate loads the tournament, applies fn and saves the result. fn returns the
// registrations it added or changed, or errNoChange to skip the save. fn may
// run more than once and must derive everything from the aggregate it gets.
func (s *AggregateStore) mutate(ctx context.Context, id string, fn func(t *models.Tournament) ([]models.Registration, error)) (*models.Tournament, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	for attempt := 1; attempt <= maxSaveAttempts; attempt++ {
		t, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, translateRepoError(err)
		}

		changed, err := fn(t)
		if errors.Is(err, errNoChange) {
			return t, nil
		}
		if err != nil {
			return nil, err
		}

		err = s.repo.Save(ctx, t, changed...)
		switch {
		case err == nil:
			return t, nil
		case errors.Is(err, repositories.ErrVersionConflict):
			continue
		default:
			return nil, translateRepoError(err)
		}
	}
	return nil, ErrConcurrentUpdate
}

func (s *AggregateStore) load(ctx context.Context, id string) (*models.Tournament, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(err)
	}
	return t, nil
}

func translateRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return ErrTournamentNotFound
	case errors.Is(err, repositories.ErrPlayerNotFound):
		return ErrPlayerNotFound
	case errors.Is(err, repositories.ErrRegistrationConflict):
		return ErrAlreadyRegistered
	case errors.Is(err, repositories.ErrVersionConflict):
		return ErrConcurrentUpdate
	default:
		return fmt.Errorf("tournament store: %w", err)
	}
}
