package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/association-tournaments/brackets"
	"github.com/Dosada05/association-tournaments/models"
	"github.com/Dosada05/association-tournaments/repositories"
	"github.com/Dosada05/association-tournaments/utils"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/jonboulle/clockwork"
)

type CreateTournamentInput struct {
	Name              string                `json:"name"`
	Description       *string               `json:"description"`
	Venue             *string               `json:"venue"`
	StartDate         *time.Time            `json:"start_date"`
	EndDate           *time.Time            `json:"end_date"`
	RegistrationStart *time.Time            `json:"registration_start"`
	RegistrationEnd   *time.Time            `json:"registration_end"`
	MaxParticipants   *int                  `json:"max_participants"`
	EntryFeeCents     int64                 `json:"entry_fee_cents"`
	PrizePoolCents    int64                 `json:"prize_pool_cents"`
	Type              models.TournamentType `json:"tournament_type"`
	AgeCategory       *string               `json:"age_category"`
	GenderCategory    models.GenderCategory `json:"gender_category"`
	IsFeatured        bool                  `json:"is_featured"`
}

type ListTournamentsFilter struct {
	Status   *models.TournamentStatus
	Featured *bool
	Limit    int
	Offset   int
}

type TournamentService interface {
	CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error)
	GetTournament(ctx context.Context, id string) (*models.Tournament, error)
	ListTournaments(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error)
	UpdateTournamentStatus(ctx context.Context, id string, status models.TournamentStatus) (*models.Tournament, error)
	SweepStatusesByDate(ctx context.Context) error
}

type tournamentService struct {
	repo     repositories.TournamentRepository
	store    *AggregateStore
	policy   TransitionPolicy
	dispatch *NotificationDispatcher
	clock    clockwork.Clock
	logger   *slog.Logger
}

func NewTournamentService(
	repo repositories.TournamentRepository,
	store *AggregateStore,
	policy TransitionPolicy,
	dispatch *NotificationDispatcher,
	clock clockwork.Clock,
	logger *slog.Logger,
) TournamentService {
	if policy == nil {
		policy = PermissiveTransitions()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &tournamentService{
		repo:     repo,
		store:    store,
		policy:   policy,
		dispatch: dispatch,
		clock:    clock,
		logger:   logger,
	}
}

func (s *tournamentService) CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	if err := validateCreateTournamentInput(&input); err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	t := &models.Tournament{
		ID:                uuid.NewString(),
		Name:              strings.TrimSpace(input.Name),
		Description:       utils.StringOrNil(input.Description),
		Venue:             utils.StringOrNil(input.Venue),
		StartDate:         utils.UTC(input.StartDate),
		EndDate:           utils.UTC(input.EndDate),
		RegistrationStart: utils.UTC(input.RegistrationStart),
		RegistrationEnd:   utils.UTC(input.RegistrationEnd),
		MaxParticipants:   input.MaxParticipants,
		EntryFeeCents:     input.EntryFeeCents,
		PrizePoolCents:    input.PrizePoolCents,
		Type:              input.Type,
		AgeCategory:       utils.StringOrNil(input.AgeCategory),
		GenderCategory:    input.GenderCategory,
		IsFeatured:        input.IsFeatured,
		Status:            models.StatusDraft,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	t.Slug = slug.Make(t.Name)

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}

	s.logger.Info("Tournament created",
		slog.String("tournament_id", t.ID),
		slog.String("slug", t.Slug))
	return t, nil
}

func (s *tournamentService) GetTournament(ctx context.Context, id string) (*models.Tournament, error) {
	return s.store.load(ctx, id)
}

func (s *tournamentService) ListTournaments(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error) {
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, ErrTournamentInvalidStatus
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	tournaments, err := s.repo.List(ctx, repositories.ListTournamentsFilter{
		Status:   filter.Status,
		Featured: filter.Featured,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	return tournaments, nil
}

// UpdateTournamentStatus moves the tournament to status. Moving to the current
// status changes nothing and has no side effects. Side effects run after the
// new status is saved and never undo it.
func (s *tournamentService) UpdateTournamentStatus(ctx context.Context, id string, status models.TournamentStatus) (*models.Tournament, error) {
	if !status.IsValid() {
		return nil, ErrTournamentInvalidStatus
	}

	var previous models.TournamentStatus
	changed := false
	t, err := s.store.mutate(ctx, id, func(t *models.Tournament) ([]models.Registration, error) {
		if t.Status == status {
			changed = false
			return nil, errNoChange
		}
		if !s.policy.Allows(t.Status, status) {
			return nil, fmt.Errorf("%w: %s to %s", ErrStatusTransitionNotAllowed, t.Status, status)
		}
		previous = t.Status
		t.Status = status
		t.UpdatedAt = s.clock.Now().UTC()
		changed = true
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return t, nil
	}

	s.logger.Info("Tournament status changed",
		slog.String("tournament_id", t.ID),
		slog.String("from", string(previous)),
		slog.String("to", string(status)))

	s.announceTransition(ctx, t, previous)
	return t, nil
}

func (s *tournamentService) announceTransition(ctx context.Context, t *models.Tournament, previous models.TournamentStatus) {
	s.dispatch.Publish(ctx, brackets.TournamentRoom(t.ID), EventStatusChanged, statusChangedPayload{
		TournamentID: t.ID,
		From:         string(previous),
		To:           string(t.Status),
	})

	notice, ok := statusNotices[t.Status]
	if !ok {
		return
	}
	switch notice.audience {
	case audienceLobby:
		s.dispatch.Publish(ctx, brackets.LobbyRoom, notice.event, map[string]string{
			"tournament_id": t.ID,
			"name":          t.Name,
			"message":       notice.render(t),
		})
	case audiencePlayers:
		active := t.ActiveRegistrations()
		recipients := make([]string, 0, len(active))
		for _, r := range active {
			recipients = append(recipients, r.PlayerID)
		}
		s.dispatch.NotifyAll(ctx, recipients, notice.subject, notice.render(t))
		s.logger.Info("Tournament players notification queued",
			slog.String("tournament_id", t.ID),
			slog.String("status", string(t.Status)),
			slog.Int("recipients", len(recipients)))
	}
}

// SweepStatusesByDate advances every tournament whose dates have passed by one
// lifecycle stage. A failure on one tournament does not stop the others.
func (s *tournamentService) SweepStatusesByDate(ctx context.Context) error {
	now := s.clock.Now().UTC()
	due, err := s.repo.ListDueForStatusSweep(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to list tournaments due for status sweep: %w", err)
	}

	var errs []error
	for i := range due {
		next, ok := nextStatusByDate(&due[i])
		if !ok {
			continue
		}
		if _, err := s.UpdateTournamentStatus(ctx, due[i].ID, next); err != nil {
			s.logger.Error("Status sweep failed for tournament",
				slog.String("tournament_id", due[i].ID),
				slog.String("target_status", string(next)),
				slog.Any("error", err))
			errs = append(errs, fmt.Errorf("tournament %s: %w", due[i].ID, err))
		}
	}
	return errors.Join(errs...)
}

func validateCreateTournamentInput(input *CreateTournamentInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return ErrTournamentNameRequired
	}
	if input.StartDate != nil && input.EndDate != nil && input.EndDate.Before(*input.StartDate) {
		return ErrTournamentInvalidDateRange
	}
	if input.RegistrationStart != nil && input.RegistrationEnd != nil && input.RegistrationEnd.Before(*input.RegistrationStart) {
		return ErrTournamentInvalidRegDates
	}
	if input.MaxParticipants != nil && *input.MaxParticipants <= 0 {
		return ErrTournamentInvalidCapacity
	}
	if input.EntryFeeCents < 0 || input.PrizePoolCents < 0 {
		return ErrTournamentInvalidAmount
	}
	if input.Type == "" {
		input.Type = models.TypeSingles
	}
	if !input.Type.IsValid() {
		return ErrTournamentInvalidType
	}
	if input.GenderCategory == "" {
		input.GenderCategory = models.GenderOpen
	}
	if !input.GenderCategory.IsValid() {
		return ErrTournamentInvalidGender
	}
	return nil
}
