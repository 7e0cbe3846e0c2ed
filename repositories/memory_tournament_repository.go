package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Dosada05/association-tournaments/models"
)

// MemoryTournamentRepository keeps aggregates in process memory with the
// same optimistic-save contract as the SQL store. Callers always receive
// copies, so mutating a returned aggregate never leaks into the store.
type MemoryTournamentRepository struct {
	mu          sync.RWMutex
	tournaments map[string]*models.Tournament
}

func NewMemoryTournamentRepository() *MemoryTournamentRepository {
	return &MemoryTournamentRepository{tournaments: make(map[string]*models.Tournament)}
}

func (r *MemoryTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := t.Clone()
	stored.Registrations = nil
	r.tournaments[t.ID] = stored
	return nil
}

func (r *MemoryTournamentRepository) GetByID(ctx context.Context, id string) (*models.Tournament, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tournaments[id]
	if !ok {
		return nil, ErrTournamentNotFound
	}
	return t.Clone(), nil
}

func (r *MemoryTournamentRepository) Exists(ctx context.Context, id string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tournaments[id]
	return ok, nil
}

func (r *MemoryTournamentRepository) List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]models.Tournament, 0, len(r.tournaments))
	for _, t := range r.tournaments {
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.Featured != nil && t.IsFeatured != *filter.Featured {
			continue
		}
		row := *t
		row.Registrations = nil
		result = append(result, row)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})

	if filter.Limit > 0 {
		if filter.Offset >= len(result) {
			return []models.Tournament{}, nil
		}
		end := filter.Offset + filter.Limit
		if end > len(result) {
			end = len(result)
		}
		result = result[filter.Offset:end]
	}
	return result, nil
}

func (r *MemoryTournamentRepository) Save(ctx context.Context, t *models.Tournament, changed ...models.Registration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.tournaments[t.ID]
	if !ok {
		return ErrTournamentNotFound
	}
	if stored.Version != t.Version {
		return ErrVersionConflict
	}

	registrations := make([]models.Registration, len(stored.Registrations))
	copy(registrations, stored.Registrations)
	for _, reg := range changed {
		idx := -1
		for i := range registrations {
			if registrations[i].ID == reg.ID {
				idx = i
				break
			}
		}
		if reg.Status.IsActive() {
			for i := range registrations {
				if i != idx && registrations[i].PlayerID == reg.PlayerID && registrations[i].Status.IsActive() {
					return ErrRegistrationConflict
				}
			}
		}
		if idx >= 0 {
			registrations[idx].Status = reg.Status
			registrations[idx].PaymentStatus = reg.PaymentStatus
			registrations[idx].PaymentAmountCents = reg.PaymentAmountCents
			registrations[idx].PaymentReference = reg.PaymentReference
			registrations[idx].Notes = reg.Notes
		} else {
			registrations = append(registrations, reg)
		}
	}
	sort.SliceStable(registrations, func(i, j int) bool { return registrations[i].Sequence < registrations[j].Sequence })

	next := t.Clone()
	next.Registrations = registrations
	next.Version = stored.Version + 1
	next.CreatedAt = stored.CreatedAt
	r.tournaments[t.ID] = next
	t.Version = next.Version
	return nil
}

func (r *MemoryTournamentRepository) ListDueForStatusSweep(ctx context.Context, now time.Time) ([]models.Tournament, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	due := make([]models.Tournament, 0)
	for _, t := range r.tournaments {
		if dueForSweep(t, now) {
			row := *t
			row.Registrations = nil
			due = append(due, row)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ID < due[j].ID })
	return due, nil
}

func dueForSweep(t *models.Tournament, now time.Time) bool {
	switch t.Status {
	case models.StatusRegistrationOpen:
		return t.RegistrationEnd != nil && t.RegistrationEnd.Before(now)
	case models.StatusRegistrationClosed:
		return t.StartDate != nil && !t.StartDate.After(now)
	case models.StatusOngoing:
		return t.EndDate != nil && t.EndDate.Before(now)
	}
	return false
}
