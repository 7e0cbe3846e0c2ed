package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/association-tournaments/brackets"
	"github.com/Dosada05/association-tournaments/models"
	"github.com/Dosada05/association-tournaments/repositories"
	"github.com/Dosada05/association-tournaments/utils"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

type RegisterInput struct {
	PlayerID           string  `json:"player_id"`
	PaymentAmountCents int64   `json:"payment_amount_cents"`
	PaymentReference   *string `json:"payment_reference"`
	Notes              *string `json:"notes"`
}

type RegistrationService interface {
	Register(ctx context.Context, tournamentID string, input RegisterInput) (*models.Registration, error)
	ListRegistrations(ctx context.Context, tournamentID string, status *models.RegistrationStatus) ([]models.Registration, error)
	UpdateRegistrationStatus(ctx context.Context, tournamentID, registrationID string, status models.RegistrationStatus) (*models.Registration, error)
}

type registrationService struct {
	store    *AggregateStore
	players  repositories.PlayerRepository
	dispatch *NotificationDispatcher
	clock    clockwork.Clock
	logger   *slog.Logger
}

func NewRegistrationService(
	store *AggregateStore,
	players repositories.PlayerRepository,
	dispatch *NotificationDispatcher,
	clock clockwork.Clock,
	logger *slog.Logger,
) RegistrationService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &registrationService{
		store:    store,
		players:  players,
		dispatch: dispatch,
		clock:    clock,
		logger:   logger,
	}
}

// Register admits a player to a tournament. The checks run in a fixed order
// and the first failing one decides the error: tournament exists, player
// exists, registration window, capacity, duplicate.
func (s *registrationService) Register(ctx context.Context, tournamentID string, input RegisterInput) (*models.Registration, error) {
	playerID := strings.TrimSpace(input.PlayerID)
	if playerID == "" {
		return nil, ErrPlayerIDRequired
	}
	if input.PaymentAmountCents < 0 {
		return nil, ErrInvalidPaymentAmount
	}

	playerChecked := false
	var created models.Registration
	t, err := s.store.mutate(ctx, tournamentID, func(t *models.Tournament) ([]models.Registration, error) {
		if !playerChecked {
			exists, err := s.players.Exists(ctx, playerID)
			if err != nil {
				return nil, fmt.Errorf("failed to check player: %w", err)
			}
			if !exists {
				return nil, ErrPlayerNotFound
			}
			playerChecked = true
		}

		now := s.clock.Now().UTC()
		if !t.RegistrationWindowOpen(now) {
			return nil, ErrRegistrationNotOpen
		}
		if t.IsFull() {
			return nil, ErrTournamentFull
		}
		if _, ok := t.ActiveRegistrationFor(playerID); ok {
			return nil, ErrAlreadyRegistered
		}

		created = models.Registration{
			ID:                 uuid.NewString(),
			TournamentID:       t.ID,
			PlayerID:           playerID,
			RegisteredAt:       now,
			PaymentStatus:      models.PaymentStatusFor(input.PaymentAmountCents, t.EntryFeeCents),
			PaymentAmountCents: input.PaymentAmountCents,
			PaymentReference:   utils.StringOrNil(input.PaymentReference),
			Notes:              utils.StringOrNil(input.Notes),
			Status:             models.RegistrationConfirmed,
			Sequence:           nextSequence(t),
		}
		t.Registrations = append(t.Registrations, created)
		t.UpdatedAt = now
		return []models.Registration{created}, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Player registered",
		slog.String("tournament_id", t.ID),
		slog.String("player_id", playerID),
		slog.String("registration_id", created.ID))

	s.dispatch.Notify(ctx, playerID, "Registration confirmed",
		fmt.Sprintf("Your registration for %s is confirmed.", t.Name))
	s.dispatch.Publish(ctx, brackets.TournamentRoom(t.ID), EventRegistrationCreated, NewRegistrationEvent(created))

	return &created, nil
}

func (s *registrationService) ListRegistrations(ctx context.Context, tournamentID string, status *models.RegistrationStatus) ([]models.Registration, error) {
	if status != nil && !status.IsValid() {
		return nil, ErrRegistrationInvalidStatus
	}
	t, err := s.store.load(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	result := make([]models.Registration, 0, len(t.Registrations))
	for _, r := range t.Registrations {
		if status == nil || r.Status == *status {
			result = append(result, r)
		}
	}
	return result, nil
}

// UpdateRegistrationStatus changes a registration's status. Reactivating a
// cancelled or withdrawn registration is subject to the same capacity and
// duplicate rules as a new registration.
func (s *registrationService) UpdateRegistrationStatus(ctx context.Context, tournamentID, registrationID string, status models.RegistrationStatus) (*models.Registration, error) {
	if !status.IsValid() {
		return nil, ErrRegistrationInvalidStatus
	}

	var updated models.Registration
	changed := false
	t, err := s.store.mutate(ctx, tournamentID, func(t *models.Tournament) ([]models.Registration, error) {
		idx := -1
		for i := range t.Registrations {
			if t.Registrations[i].ID == registrationID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, ErrRegistrationNotFound
		}

		reg := t.Registrations[idx]
		if reg.Status == status {
			updated = reg
			changed = false
			return nil, errNoChange
		}
		if status.IsActive() && !reg.Status.IsActive() {
			if t.IsFull() {
				return nil, ErrTournamentFull
			}
			if _, ok := t.ActiveRegistrationFor(reg.PlayerID); ok {
				return nil, ErrAlreadyRegistered
			}
		}

		reg.Status = status
		t.Registrations[idx] = reg
		t.UpdatedAt = s.clock.Now().UTC()
		updated = reg
		changed = true
		return []models.Registration{reg}, nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.logger.Info("Registration status changed",
			slog.String("tournament_id", t.ID),
			slog.String("registration_id", updated.ID),
			slog.String("status", string(status)))
		s.dispatch.Publish(ctx, brackets.TournamentRoom(t.ID), EventRegistrationUpdated, NewRegistrationEvent(updated))
	}
	return &updated, nil
}

func nextSequence(t *models.Tournament) int {
	next := 1
	for _, r := range t.Registrations {
		if r.Sequence >= next {
			next = r.Sequence + 1
		}
	}
	return next
}
