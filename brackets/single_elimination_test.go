package brackets

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

func players(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("player-%02d", i+1)
	}
	return ids
}

func generate(t *testing.T, n int, seed uint64) *Bracket {
	t.Helper()
	g := NewSingleEliminationGenerator(func() time.Time { return fixedNow })
	b, err := g.GenerateBracket(context.Background(), GenerateBracketParams{
		TournamentID: "t-1",
		PlayerIDs:    players(n),
		Seed:         seed,
	})
	require.NoError(t, err)
	return b
}

func roundNames(b *Bracket) []string {
	names := make([]string, len(b.Rounds))
	for i, r := range b.Rounds {
		names[i] = r.Name
	}
	return names
}

func firstRoundOrder(b *Bracket) []string {
	var order []string
	for _, m := range b.FirstRound().Matches {
		order = append(order, *m.Player1)
		if m.Player2 != nil {
			order = append(order, *m.Player2)
		}
	}
	return order
}

func TestTotalRounds(t *testing.T) {
	cases := map[int]int{1: 1, 2: 1, 3: 2, 4: 2, 5: 3, 8: 3, 9: 4, 16: 4, 17: 5, 32: 5, 33: 6}
	for n, want := range cases {
		assert.Equal(t, want, TotalRounds(n), "n=%d", n)
	}
}

func TestRoundNames(t *testing.T) {
	assert.Equal(t, []string{"Final"}, roundNames(generate(t, 2, 1)))
	assert.Equal(t, []string{"Semi-Final", "Final"}, roundNames(generate(t, 4, 1)))
	assert.Equal(t, []string{"Quarter-Final", "Semi-Final", "Final"}, roundNames(generate(t, 5, 1)))
	assert.Equal(t, []string{"Round 1", "Quarter-Final", "Semi-Final", "Final"}, roundNames(generate(t, 16, 1)))
	assert.Equal(t, []string{"Round 1", "Round 2", "Quarter-Final", "Semi-Final", "Final"}, roundNames(generate(t, 32, 1)))
}

func TestGenerateBracket_SinglePlayerGetsWalkoverFinal(t *testing.T) {
	b := generate(t, 1, 7)

	require.Len(t, b.Rounds, 1)
	assert.Equal(t, 1, b.TotalRounds)
	final := b.Rounds[0]
	assert.Equal(t, "Final", final.Name)
	require.Len(t, final.Matches, 1)

	m := final.Matches[0]
	assert.Equal(t, MatchWalkover, m.Status)
	assert.Equal(t, "player-01", *m.Player1)
	assert.Nil(t, m.Player2)
	require.NotNil(t, m.Winner)
	assert.Equal(t, "player-01", *m.Winner)
}

func TestGenerateBracket_OddCountEndsWithWalkover(t *testing.T) {
	b := generate(t, 5, 42)

	assert.Equal(t, 5, b.ParticipantCount)
	assert.Equal(t, 3, b.TotalRounds)
	require.Len(t, b.Rounds, 3)

	first := b.FirstRound()
	require.Len(t, first.Matches, 3)
	for i, m := range first.Matches[:2] {
		assert.Equal(t, i+1, m.Sequence)
		assert.Equal(t, MatchPending, m.Status)
		assert.NotNil(t, m.Player2)
		assert.Nil(t, m.Winner)
	}
	last := first.Matches[2]
	assert.Equal(t, MatchWalkover, last.Status)
	assert.Nil(t, last.Player2)
	require.NotNil(t, last.Winner)
	assert.Equal(t, *last.Player1, *last.Winner)

	for _, r := range b.Rounds[1:] {
		assert.Empty(t, r.Matches)
	}
}

func TestGenerateBracket_EachPlayerSeededOnce(t *testing.T) {
	for _, n := range []int{2, 3, 7, 8, 13} {
		b := generate(t, n, uint64(n)*31)
		order := firstRoundOrder(b)
		assert.ElementsMatch(t, players(n), order, "n=%d", n)
		assert.Len(t, b.FirstRound().Matches, (n+1)/2)
	}
}

func TestGenerateBracket_Metadata(t *testing.T) {
	b := generate(t, 4, 99)
	assert.Equal(t, "t-1", b.TournamentID)
	assert.Equal(t, "SingleElimination", b.Format)
	assert.Equal(t, uint64(99), b.Seed)
	assert.True(t, fixedNow.Equal(b.GeneratedAt))
}

func TestGenerateBracket_SeedDeterminesOrder(t *testing.T) {
	a := firstRoundOrder(generate(t, 8, 1234))
	b := firstRoundOrder(generate(t, 8, 1234))
	assert.Equal(t, a, b)

	distinct := map[string]struct{}{}
	for seed := uint64(1); seed <= 20; seed++ {
		distinct[strings.Join(firstRoundOrder(generate(t, 8, seed)), ",")] = struct{}{}
	}
	assert.Greater(t, len(distinct), 1)
}

func TestGenerateBracket_DoesNotMutateInput(t *testing.T) {
	input := players(6)
	original := append([]string(nil), input...)

	g := NewSingleEliminationGenerator(nil)
	_, err := g.GenerateBracket(context.Background(), GenerateBracketParams{TournamentID: "t", PlayerIDs: input, Seed: 5})
	require.NoError(t, err)
	assert.Equal(t, original, input)
}

func TestGenerateBracket_ShuffleIsRoughlyUniform(t *testing.T) {
	const runs = 3000
	byeCounts := map[string]int{}
	for seed := uint64(0); seed < runs; seed++ {
		b := generate(t, 3, seed)
		byeCounts[*b.FirstRound().Matches[1].Player1]++
	}
	require.Len(t, byeCounts, 3)
	for player, count := range byeCounts {
		assert.InDelta(t, runs/3, count, 150, "player %s", player)
	}
}

func TestGenerateBracket_NoPlayers(t *testing.T) {
	g := NewSingleEliminationGenerator(nil)
	_, err := g.GenerateBracket(context.Background(), GenerateBracketParams{TournamentID: "t"})
	assert.ErrorIs(t, err, ErrNoParticipants)
}
