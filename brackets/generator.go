package brackets

import (
	"context"
	"time"
)

type MatchStatus string

const (
	MatchPending  MatchStatus = "PENDING"
	MatchWalkover MatchStatus = "WALKOVER"
)

// Match is one pairing inside a round. Player2 is nil for a walkover.
type Match struct {
	Sequence int         `json:"sequence"`
	Player1  *string     `json:"player1,omitempty"`
	Player2  *string     `json:"player2,omitempty"`
	Status   MatchStatus `json:"status"`
	Winner   *string     `json:"winner,omitempty"`
}

type Round struct {
	Number  int     `json:"number"`
	Name    string  `json:"name"`
	Matches []Match `json:"matches"`
}

// Bracket is a freshly generated, non-persisted read model.
type Bracket struct {
	TournamentID     string    `json:"tournament_id"`
	Format           string    `json:"format"`
	GeneratedAt      time.Time `json:"generated_at"`
	Seed             uint64    `json:"seed"`
	ParticipantCount int       `json:"participant_count"`
	TotalRounds      int       `json:"total_rounds"`
	Rounds           []Round   `json:"rounds"`
}

// FirstRound returns round 1, or nil for an empty bracket.
func (b *Bracket) FirstRound() *Round {
	if len(b.Rounds) == 0 {
		return nil
	}
	return &b.Rounds[0]
}

type GenerateBracketParams struct {
	TournamentID string
	// PlayerIDs in registration order. The generator never mutates it.
	PlayerIDs []string
	// Seed feeds the shuffle; equal seeds over equal input give equal seeding.
	Seed uint64
}

type BracketGenerator interface {
	GenerateBracket(ctx context.Context, params GenerateBracketParams) (*Bracket, error)

	GetName() string
}
