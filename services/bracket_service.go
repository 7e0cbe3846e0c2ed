package services

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/association-tournaments/brackets"
	"github.com/Dosada05/association-tournaments/models"
)

// SeedSource yields the seed for one bracket shuffle.
type SeedSource func() (uint64, error)

// CryptoSeed draws a seed from crypto/rand, so every generation differs.
func CryptoSeed() (uint64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("failed to read random seed: %w", err)
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// FixedSeed always returns seed.
func FixedSeed(seed uint64) SeedSource {
	return func() (uint64, error) { return seed, nil }
}

// BracketArchiver persists a generated bracket and returns where it lives.
type BracketArchiver interface {
	Store(ctx context.Context, b *brackets.Bracket) (string, error)
}

// GeneratedBracket is a bracket plus its archive location, if it was archived.
type GeneratedBracket struct {
	*brackets.Bracket
	ArchiveURL string `json:"archive_url,omitempty"`
}

type BracketService interface {
	GenerateBracket(ctx context.Context, tournamentID string) (*GeneratedBracket, error)
}

type bracketService struct {
	store     *AggregateStore
	generator brackets.BracketGenerator
	seeds     SeedSource
	archive   BracketArchiver
	dispatch  *NotificationDispatcher
	logger    *slog.Logger
}

// NewBracketService builds the service. archive may be nil.
func NewBracketService(
	store *AggregateStore,
	generator brackets.BracketGenerator,
	seeds SeedSource,
	archive BracketArchiver,
	dispatch *NotificationDispatcher,
	logger *slog.Logger,
) BracketService {
	if seeds == nil {
		seeds = CryptoSeed
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &bracketService{
		store:     store,
		generator: generator,
		seeds:     seeds,
		archive:   archive,
		dispatch:  dispatch,
		logger:    logger,
	}
}

// GenerateBracket builds a single elimination bracket from one read of the
// tournament's confirmed registrations. The tournament is not modified.
func (s *bracketService) GenerateBracket(ctx context.Context, tournamentID string) (*GeneratedBracket, error) {
	t, err := s.store.load(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	playerIDs := make([]string, 0, len(t.Registrations))
	for _, r := range t.Registrations {
		if r.Status == models.RegistrationConfirmed {
			playerIDs = append(playerIDs, r.PlayerID)
		}
	}
	if len(playerIDs) == 0 {
		return nil, ErrNoConfirmedRegistrations
	}

	seed, err := s.seeds()
	if err != nil {
		return nil, err
	}

	bracket, err := s.generator.GenerateBracket(ctx, brackets.GenerateBracketParams{
		TournamentID: t.ID,
		PlayerIDs:    playerIDs,
		Seed:         seed,
	})
	if err != nil {
		if errors.Is(err, brackets.ErrNoParticipants) {
			return nil, ErrNoConfirmedRegistrations
		}
		return nil, fmt.Errorf("failed to generate bracket: %w", err)
	}

	result := &GeneratedBracket{Bracket: bracket}
	if s.archive != nil {
		location, err := s.archive.Store(context.WithoutCancel(ctx), bracket)
		if err != nil {
			s.logger.Warn("Bracket archive failed",
				slog.String("tournament_id", t.ID),
				slog.Any("error", err))
		} else {
			result.ArchiveURL = location
		}
	}

	s.logger.Info("Bracket generated",
		slog.String("tournament_id", t.ID),
		slog.String("format", s.generator.GetName()),
		slog.Int("participants", bracket.ParticipantCount),
		slog.Int("rounds", bracket.TotalRounds),
		slog.Uint64("seed", bracket.Seed))

	s.dispatch.Publish(ctx, brackets.TournamentRoom(t.ID), EventBracketGenerated, result)
	return result, nil
}
