package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/association-tournaments/brackets"
	"github.com/Dosada05/association-tournaments/models"
	"github.com/Dosada05/association-tournaments/repositories"
	"github.com/Dosada05/association-tournaments/utils"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

var testStart = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

type sentNotification struct {
	recipient string
	subject   string
	body      string
}

type recordingNotifier struct {
	mu       sync.Mutex
	sent     []sentNotification
	failFor  map[string]error
	panicFor map[string]bool
	gate     chan struct{}
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{failFor: map[string]error{}, panicFor: map[string]bool{}}
}

func (n *recordingNotifier) Notify(ctx context.Context, recipientID, subject, body string) error {
	n.mu.Lock()
	n.sent = append(n.sent, sentNotification{recipient: recipientID, subject: subject, body: body})
	err := n.failFor[recipientID]
	shouldPanic := n.panicFor[recipientID]
	gate := n.gate
	n.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if shouldPanic {
		panic("mail relay exploded")
	}
	return err
}

func (n *recordingNotifier) failOn(recipientID string, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failFor[recipientID] = err
}

func (n *recordingNotifier) panicOn(recipientID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.panicFor[recipientID] = true
}

// hold makes every delivery block until release is called.
func (n *recordingNotifier) hold(t *testing.T) (release func()) {
	gate := make(chan struct{})
	n.mu.Lock()
	n.gate = gate
	n.mu.Unlock()
	var once sync.Once
	release = func() { once.Do(func() { close(gate) }) }
	t.Cleanup(release)
	return release
}

func (n *recordingNotifier) withSubject(subject string) []sentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []sentNotification
	for _, s := range n.sent {
		if s.subject == subject {
			out = append(out, s)
		}
	}
	return out
}

func recipients(sent []sentNotification) []string {
	out := make([]string, 0, len(sent))
	for _, s := range sent {
		out = append(out, s.recipient)
	}
	return out
}

type publishedEvent struct {
	room      string
	eventType string
	payload   any
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (b *recordingBroadcaster) Publish(ctx context.Context, room, eventType string, payload any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, publishedEvent{room: room, eventType: eventType, payload: payload})
	return b.err
}

func (b *recordingBroadcaster) ofType(eventType string) []publishedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []publishedEvent
	for _, e := range b.events {
		if e.eventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

func (b *recordingBroadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}

type testEnv struct {
	repo          repositories.TournamentRepository
	memory        *repositories.MemoryTournamentRepository
	players       *repositories.MemoryPlayerRepository
	clock         *clockwork.FakeClock
	notifier      *recordingNotifier
	broadcaster   *recordingBroadcaster
	dispatcher    *NotificationDispatcher
	aggregates    *AggregateStore
	tournaments   TournamentService
	registrations RegistrationService
	brackets      BracketService
}

type envOption func(*envConfig)

type envConfig struct {
	policy  TransitionPolicy
	wrap    func(*repositories.MemoryTournamentRepository) repositories.TournamentRepository
	seeds   SeedSource
	archive BracketArchiver
}

func withPolicy(p TransitionPolicy) envOption { return func(c *envConfig) { c.policy = p } }
func withRepo(wrap func(*repositories.MemoryTournamentRepository) repositories.TournamentRepository) envOption {
	return func(c *envConfig) { c.wrap = wrap }
}
func withSeeds(s SeedSource) envOption         { return func(c *envConfig) { c.seeds = s } }
func withArchive(a BracketArchiver) envOption { return func(c *envConfig) { c.archive = a } }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	cfg := envConfig{}
	for _, o := range opts {
		o(&cfg)
	}

	memory := repositories.NewMemoryTournamentRepository()
	var repo repositories.TournamentRepository = memory
	if cfg.wrap != nil {
		repo = cfg.wrap(memory)
	}

	env := &testEnv{
		repo:        repo,
		memory:      memory,
		players:     repositories.NewMemoryPlayerRepository(),
		clock:       clockwork.NewFakeClockAt(testStart),
		notifier:    newRecordingNotifier(),
		broadcaster: &recordingBroadcaster{},
	}
	logger := discardLogger()
	dispatcher := NewNotificationDispatcher(env.notifier, env.broadcaster, 4, logger)
	env.dispatcher = dispatcher
	env.aggregates = NewAggregateStore(repo)
	env.tournaments = NewTournamentService(repo, env.aggregates, cfg.policy, dispatcher, env.clock, logger)
	env.registrations = NewRegistrationService(env.aggregates, env.players, dispatcher, env.clock, logger)
	env.brackets = NewBracketService(env.aggregates, brackets.NewSingleEliminationGenerator(env.clock.Now), cfg.seeds, cfg.archive, dispatcher, logger)
	return env
}

// drain waits for every background notification started so far.
func (e *testEnv) drain(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, e.dispatcher.Drain(ctx))
}

// delivered drains pending notifications and returns those with subject.
func (e *testEnv) delivered(t *testing.T, subject string) []sentNotification {
	t.Helper()
	e.drain(t)
	return e.notifier.withSubject(subject)
}

func (e *testEnv) addPlayers(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = uuid.NewString()
		e.players.Add(models.Player{ID: ids[i], FirstName: fmt.Sprintf("Player %d", i+1)})
	}
	return ids
}

func (e *testEnv) createTournament(t *testing.T, configure func(*CreateTournamentInput)) *models.Tournament {
	t.Helper()
	input := CreateTournamentInput{Name: "Club Championship"}
	if configure != nil {
		configure(&input)
	}
	created, err := e.tournaments.CreateTournament(context.Background(), input)
	require.NoError(t, err)
	return created
}

// openTournament creates a tournament with the given capacity (0 = unbounded)
// and opens its registration.
func (e *testEnv) openTournament(t *testing.T, capacity int) *models.Tournament {
	t.Helper()
	created := e.createTournament(t, func(in *CreateTournamentInput) {
		if capacity > 0 {
			in.MaxParticipants = utils.Ptr(capacity)
		}
	})
	opened, err := e.tournaments.UpdateTournamentStatus(context.Background(), created.ID, models.StatusRegistrationOpen)
	require.NoError(t, err)
	return opened
}

func (e *testEnv) register(t *testing.T, tournamentID, playerID string) *models.Registration {
	t.Helper()
	reg, err := e.registrations.Register(context.Background(), tournamentID, RegisterInput{PlayerID: playerID})
	require.NoError(t, err)
	return reg
}

// conflictingRepo simulates another instance writing the same tournament
// just before each of the first conflicts saves.
type conflictingRepo struct {
	*repositories.MemoryTournamentRepository
	mu        sync.Mutex
	conflicts int
	saves     int
}

func (r *conflictingRepo) Save(ctx context.Context, t *models.Tournament, changed ...models.Registration) error {
	r.mu.Lock()
	r.saves++
	interfere := r.conflicts > 0
	if interfere {
		r.conflicts--
	}
	r.mu.Unlock()

	if interfere {
		current, err := r.MemoryTournamentRepository.GetByID(ctx, t.ID)
		if err != nil {
			return err
		}
		if err := r.MemoryTournamentRepository.Save(ctx, current); err != nil {
			return err
		}
	}
	return r.MemoryTournamentRepository.Save(ctx, t, changed...)
}

// failingRepo fails every save of one tournament.
type failingRepo struct {
	*repositories.MemoryTournamentRepository
	failID string
}

var errStoreDown = errors.New("store unavailable")

func (r *failingRepo) Save(ctx context.Context, t *models.Tournament, changed ...models.Registration) error {
	if t.ID == r.failID {
		return errStoreDown
	}
	return r.MemoryTournamentRepository.Save(ctx, t, changed...)
}
