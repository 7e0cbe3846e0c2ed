package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Dosada05/association-tournaments/brackets"
	"github.com/Dosada05/association-tournaments/models"
	"github.com/Dosada05/association-tournaments/repositories"
	"github.com/Dosada05/association-tournaments/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTournament(t *testing.T) {
	env := newTestEnv(t)
	start := time.Date(2026, 7, 1, 9, 0, 0, 0, time.FixedZone("CEST", 2*3600))

	created, err := env.tournaments.CreateTournament(context.Background(), CreateTournamentInput{
		Name:            "  Summer Smash Open  ",
		Venue:           utils.Ptr("Court 1"),
		StartDate:       utils.Ptr(start),
		EndDate:         utils.Ptr(start.Add(48 * time.Hour)),
		MaxParticipants: utils.Ptr(16),
		EntryFeeCents:   2500,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Summer Smash Open", created.Name)
	assert.Equal(t, "summer-smash-open", created.Slug)
	assert.Equal(t, models.StatusDraft, created.Status)
	assert.Equal(t, models.TypeSingles, created.Type)
	assert.Equal(t, models.GenderOpen, created.GenderCategory)
	assert.Equal(t, time.UTC, created.StartDate.Location())
	assert.True(t, start.Equal(*created.StartDate))
	assert.True(t, testStart.Equal(created.CreatedAt))

	stored, err := env.tournaments.GetTournament(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Name, stored.Name)
}

func TestCreateTournament_Validation(t *testing.T) {
	now := testStart
	cases := map[string]struct {
		input CreateTournamentInput
		want  error
	}{
		"blank name":           {CreateTournamentInput{Name: "   "}, ErrTournamentNameRequired},
		"end before start":     {CreateTournamentInput{Name: "x", StartDate: utils.Ptr(now), EndDate: utils.Ptr(now.Add(-time.Hour))}, ErrTournamentInvalidDateRange},
		"reg end before start": {CreateTournamentInput{Name: "x", RegistrationStart: utils.Ptr(now), RegistrationEnd: utils.Ptr(now.Add(-time.Hour))}, ErrTournamentInvalidRegDates},
		"zero capacity":        {CreateTournamentInput{Name: "x", MaxParticipants: utils.Ptr(0)}, ErrTournamentInvalidCapacity},
		"negative fee":         {CreateTournamentInput{Name: "x", EntryFeeCents: -1}, ErrTournamentInvalidAmount},
		"negative prize pool":  {CreateTournamentInput{Name: "x", PrizePoolCents: -5}, ErrTournamentInvalidAmount},
		"unknown type":         {CreateTournamentInput{Name: "x", Type: "QUADS"}, ErrTournamentInvalidType},
		"unknown gender":       {CreateTournamentInput{Name: "x", GenderCategory: "ANY"}, ErrTournamentInvalidGender},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv(t)
			_, err := env.tournaments.CreateTournament(context.Background(), tc.input)
			assert.ErrorIs(t, err, tc.want)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestListTournaments(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.createTournament(t, nil)
	env.openTournament(t, 0)

	open := models.StatusRegistrationOpen
	list, err := env.tournaments.ListTournaments(ctx, ListTournamentsFilter{Status: &open})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = env.tournaments.ListTournaments(ctx, ListTournamentsFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	bogus := models.TournamentStatus("PAUSED")
	_, err = env.tournaments.ListTournaments(ctx, ListTournamentsFilter{Status: &bogus})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateTournamentStatus_SameStatusIsNoop(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tournament := env.openTournament(t, 0)
	ids := env.addPlayers(2)
	for _, id := range ids {
		env.register(t, tournament.ID, id)
	}
	_, err := env.tournaments.UpdateTournamentStatus(ctx, tournament.ID, models.StatusOngoing)
	require.NoError(t, err)

	before, err := env.tournaments.GetTournament(ctx, tournament.ID)
	require.NoError(t, err)
	events := env.broadcaster.count()
	starting := len(env.delivered(t, "Tournament starting"))

	again, err := env.tournaments.UpdateTournamentStatus(ctx, tournament.ID, models.StatusOngoing)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOngoing, again.Status)
	assert.Equal(t, before.Version, again.Version)
	assert.Equal(t, events, env.broadcaster.count())
	assert.Len(t, env.delivered(t, "Tournament starting"), starting)
}

func TestUpdateTournamentStatus_OngoingNotifiesEachActivePlayerOnce(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tournament := env.openTournament(t, 0)
	ids := env.addPlayers(4)
	var regs []*models.Registration
	for _, id := range ids {
		regs = append(regs, env.register(t, tournament.ID, id))
	}
	_, err := env.registrations.UpdateRegistrationStatus(ctx, tournament.ID, regs[3].ID, models.RegistrationCancelled)
	require.NoError(t, err)
	env.notifier.failOn(ids[0], errors.New("mailbox full"))
	env.notifier.panicOn(ids[1])

	updated, err := env.tournaments.UpdateTournamentStatus(ctx, tournament.ID, models.StatusOngoing)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOngoing, updated.Status)

	starting := env.delivered(t, "Tournament starting")
	assert.ElementsMatch(t, ids[:3], recipients(starting))

	stored, err := env.tournaments.GetTournament(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOngoing, stored.Status, "notification failures never roll back the transition")

	changes := env.broadcaster.ofType(EventStatusChanged)
	require.NotEmpty(t, changes)
	last := changes[len(changes)-1]
	assert.Equal(t, brackets.TournamentRoom(tournament.ID), last.room)
	assert.Equal(t, statusChangedPayload{TournamentID: tournament.ID, From: string(models.StatusRegistrationOpen), To: string(models.StatusOngoing)}, last.payload)
}

func TestUpdateTournamentStatus_ReturnsBeforePlayersAreNotified(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tournament := env.openTournament(t, 0)
	ids := env.addPlayers(3)
	for _, id := range ids {
		env.register(t, tournament.ID, id)
	}
	env.drain(t)
	release := env.notifier.hold(t)

	done := make(chan error, 1)
	go func() {
		_, err := env.tournaments.UpdateTournamentStatus(ctx, tournament.ID, models.StatusOngoing)
		done <- err
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("the transition waited for player notifications")
	}

	release()
	assert.ElementsMatch(t, ids, recipients(env.delivered(t, "Tournament starting")))
}

func TestUpdateTournamentStatus_CompletedNotifiesPlayers(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tournament := env.openTournament(t, 0)
	ids := env.addPlayers(2)
	for _, id := range ids {
		env.register(t, tournament.ID, id)
	}

	_, err := env.tournaments.UpdateTournamentStatus(ctx, tournament.ID, models.StatusCompleted)
	require.NoError(t, err)
	assert.ElementsMatch(t, ids, recipients(env.delivered(t, "Tournament completed")))
}

func TestUpdateTournamentStatus_RegistrationOpenBroadcastsOnce(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tournament := env.createTournament(t, nil)

	_, err := env.tournaments.UpdateTournamentStatus(ctx, tournament.ID, models.StatusRegistrationOpen)
	require.NoError(t, err)
	_, err = env.tournaments.UpdateTournamentStatus(ctx, tournament.ID, models.StatusRegistrationOpen)
	require.NoError(t, err)

	open := env.broadcaster.ofType(EventRegistrationOpen)
	require.Len(t, open, 1)
	assert.Equal(t, brackets.LobbyRoom, open[0].room)
	env.drain(t)
	assert.Empty(t, env.notifier.sent, "opening registration does not notify individual players")
}

func TestUpdateTournamentStatus_Errors(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tournament := env.createTournament(t, nil)

	_, err := env.tournaments.UpdateTournamentStatus(ctx, tournament.ID, models.TournamentStatus("ARCHIVED"))
	assert.ErrorIs(t, err, ErrTournamentInvalidStatus)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.tournaments.UpdateTournamentStatus(ctx, uuid.NewString(), models.StatusOngoing)
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}

func TestUpdateTournamentStatus_PermissiveByDefault(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tournament := env.createTournament(t, nil)

	for _, status := range []models.TournamentStatus{models.StatusCompleted, models.StatusDraft, models.StatusOngoing, models.StatusCancelled, models.StatusRegistrationOpen} {
		updated, err := env.tournaments.UpdateTournamentStatus(ctx, tournament.ID, status)
		require.NoError(t, err)
		assert.Equal(t, status, updated.Status)
	}
}

func TestUpdateTournamentStatus_StrictPolicy(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, withPolicy(StrictTransitions()))
	tournament := env.createTournament(t, nil)

	_, err := env.tournaments.UpdateTournamentStatus(ctx, tournament.ID, models.StatusOngoing)
	assert.ErrorIs(t, err, ErrStatusTransitionNotAllowed)
	assert.ErrorIs(t, err, ErrInvalidState)

	for _, status := range []models.TournamentStatus{models.StatusRegistrationOpen, models.StatusRegistrationClosed, models.StatusOngoing, models.StatusCompleted} {
		_, err := env.tournaments.UpdateTournamentStatus(ctx, tournament.ID, status)
		require.NoError(t, err, "to %s", status)
	}
	_, err = env.tournaments.UpdateTournamentStatus(ctx, tournament.ID, models.StatusCancelled)
	assert.ErrorIs(t, err, ErrStatusTransitionNotAllowed, "terminal states stay terminal")
}

func TestTransitionPolicies(t *testing.T) {
	permissive := PermissiveTransitions()
	for _, from := range models.TournamentStatuses {
		for _, to := range models.TournamentStatuses {
			assert.True(t, permissive.Allows(from, to))
		}
	}

	strict := StrictTransitions()
	assert.True(t, strict.Allows(models.StatusRegistrationClosed, models.StatusRegistrationOpen))
	assert.True(t, strict.Allows(models.StatusOngoing, models.StatusCancelled))
	assert.False(t, strict.Allows(models.StatusCompleted, models.StatusCancelled))
	assert.False(t, strict.Allows(models.StatusOngoing, models.StatusDraft))
	assert.False(t, strict.Allows(models.StatusDraft, models.TournamentStatus("UNKNOWN")))
}

func TestSweepStatusesByDate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	tournament := env.createTournament(t, func(in *CreateTournamentInput) {
		in.RegistrationEnd = utils.Ptr(testStart.Add(time.Hour))
		in.StartDate = utils.Ptr(testStart.Add(3 * time.Hour))
		in.EndDate = utils.Ptr(testStart.Add(5 * time.Hour))
	})
	draft := env.createTournament(t, func(in *CreateTournamentInput) {
		in.RegistrationStart = utils.Ptr(testStart.Add(-time.Hour))
		in.StartDate = utils.Ptr(testStart.Add(-time.Hour))
	})
	_, err := env.tournaments.UpdateTournamentStatus(ctx, tournament.ID, models.StatusRegistrationOpen)
	require.NoError(t, err)
	ids := env.addPlayers(2)
	for _, id := range ids {
		env.register(t, tournament.ID, id)
	}

	status := func(id string) models.TournamentStatus {
		got, err := env.tournaments.GetTournament(ctx, id)
		require.NoError(t, err)
		return got.Status
	}

	require.NoError(t, env.tournaments.SweepStatusesByDate(ctx))
	assert.Equal(t, models.StatusRegistrationOpen, status(tournament.ID))

	env.clock.Advance(2 * time.Hour)
	require.NoError(t, env.tournaments.SweepStatusesByDate(ctx))
	assert.Equal(t, models.StatusRegistrationClosed, status(tournament.ID))

	env.clock.Advance(time.Hour)
	require.NoError(t, env.tournaments.SweepStatusesByDate(ctx))
	assert.Equal(t, models.StatusOngoing, status(tournament.ID))
	assert.ElementsMatch(t, ids, recipients(env.delivered(t, "Tournament starting")))

	env.clock.Advance(3 * time.Hour)
	require.NoError(t, env.tournaments.SweepStatusesByDate(ctx))
	assert.Equal(t, models.StatusCompleted, status(tournament.ID))
	assert.ElementsMatch(t, ids, recipients(env.delivered(t, "Tournament completed")))

	assert.Equal(t, models.StatusDraft, status(draft.ID), "drafts are never opened automatically")
}

func TestSweepStatusesByDate_ContinuesPastFailures(t *testing.T) {
	ctx := context.Background()
	var repo *failingRepo
	env := newTestEnv(t, withRepo(func(inner *repositories.MemoryTournamentRepository) repositories.TournamentRepository {
		repo = &failingRepo{MemoryTournamentRepository: inner}
		return repo
	}))

	var ids []string
	for range 3 {
		tournament := env.openTournament(t, 0)
		ids = append(ids, tournament.ID)
		loaded, err := env.memory.GetByID(ctx, tournament.ID)
		require.NoError(t, err)
		loaded.RegistrationEnd = utils.Ptr(testStart.Add(-time.Minute))
		require.NoError(t, env.memory.Save(ctx, loaded))
	}
	repo.failID = ids[1]

	err := env.tournaments.SweepStatusesByDate(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, errStoreDown)

	for i, id := range ids {
		got, err := env.memory.GetByID(ctx, id)
		require.NoError(t, err)
		if i == 1 {
			assert.Equal(t, models.StatusRegistrationOpen, got.Status)
		} else {
			assert.Equal(t, models.StatusRegistrationClosed, got.Status)
		}
	}
}

func TestTournamentView(t *testing.T) {
	tournament := &models.Tournament{
		MaxParticipants: utils.Ptr(3),
		Registrations: []models.Registration{
			{Status: models.RegistrationConfirmed},
			{Status: models.RegistrationCancelled},
			{Status: models.RegistrationWaitlisted},
		},
	}
	view := NewTournamentView(tournament)
	assert.Equal(t, 2, view.ActiveRegistrations)
	assert.Equal(t, 1, utils.OrZero(view.RemainingSlots))

	tournament.MaxParticipants = nil
	assert.Nil(t, NewTournamentView(tournament).RemainingSlots)
}
