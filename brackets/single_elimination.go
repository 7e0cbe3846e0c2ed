package brackets

import (
	"context"
	"errors"
	"fmt"
	"math/bits"
	"math/rand/v2"
	"time"
)

var ErrNoParticipants = errors.New("cannot generate bracket with zero participants")

type SingleEliminationGenerator struct {
	now func() time.Time
}

func NewSingleEliminationGenerator(now func() time.Time) BracketGenerator {
	if now == nil {
		now = time.Now
	}
	return &SingleEliminationGenerator{now: now}
}

func (g *SingleEliminationGenerator) GetName() string {
	return "SingleElimination"
}

// GenerateBracket shuffles the players with a PRNG seeded from params.Seed,
// pairs them two at a time for round 1 and lays out empty placeholder rounds
// up to the final. A trailing odd player gets a walkover.
func (g *SingleEliminationGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) (*Bracket, error) {
	n := len(params.PlayerIDs)
	if n == 0 {
		return nil, ErrNoParticipants
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seeded := make([]string, n)
	copy(seeded, params.PlayerIDs)
	rng := rand.New(rand.NewPCG(params.Seed, params.Seed^0x9e3779b97f4a7c15))
	rng.Shuffle(n, func(i, j int) { seeded[i], seeded[j] = seeded[j], seeded[i] })

	totalRounds := TotalRounds(n)
	rounds := make([]Round, 0, totalRounds)

	first := Round{Number: 1, Name: RoundName(1, totalRounds), Matches: make([]Match, 0, (n+1)/2)}
	for i := 0; i < n; i += 2 {
		p1 := seeded[i]
		m := Match{Sequence: len(first.Matches) + 1, Player1: &p1, Status: MatchPending}
		if i+1 < n {
			p2 := seeded[i+1]
			m.Player2 = &p2
		} else {
			m.Status = MatchWalkover
			m.Winner = &p1
		}
		first.Matches = append(first.Matches, m)
	}
	rounds = append(rounds, first)

	for r := 2; r <= totalRounds; r++ {
		rounds = append(rounds, Round{Number: r, Name: RoundName(r, totalRounds), Matches: []Match{}})
	}

	return &Bracket{
		TournamentID:     params.TournamentID,
		Format:           g.GetName(),
		GeneratedAt:      g.now().UTC(),
		Seed:             params.Seed,
		ParticipantCount: n,
		TotalRounds:      totalRounds,
		Rounds:           rounds,
	}, nil
}

// TotalRounds is ceil(log2(n)). A lone player still gets a one-round final.
func TotalRounds(n int) int {
	if n <= 2 {
		return 1
	}
	return bits.Len(uint(n - 1))
}

// RoundName names round r of total: the last three rounds are Final,
// Semi-Final and Quarter-Final, earlier ones "Round {r}".
func RoundName(r, total int) string {
	switch total - r {
	case 0:
		return "Final"
	case 1:
		return "Semi-Final"
	case 2:
		return "Quarter-Final"
	default:
		return fmt.Sprintf("Round %d", r)
	}
}
