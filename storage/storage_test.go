package storage

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/Dosada05/association-tournaments/brackets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicURL(t *testing.T) {
	base, err := url.Parse("https://cdn.example.org/assets/")
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.org/assets/brackets/a.json", publicURL(base, "brackets/a.json"))
	assert.Equal(t, "https://cdn.example.org/assets/brackets/a.json", publicURL(base, "/brackets/a.json"))
	assert.Empty(t, publicURL(nil, "brackets/a.json"))
	assert.Empty(t, publicURL(base, ""))
}

func TestMemoryUploader(t *testing.T) {
	ctx := context.Background()
	u := NewMemoryUploader("https://cdn.example.org/assets")

	result, err := u.Upload(ctx, "a/b.json", "application/json", strings.NewReader(`{"ok":true}`))
	require.NoError(t, err)
	assert.Equal(t, "a/b.json", result.Key)
	assert.Equal(t, "https://cdn.example.org/assets/a/b.json", result.Location)

	data, ok := u.Object("a/b.json")
	require.True(t, ok)
	assert.JSONEq(t, `{"ok":true}`, string(data))
	assert.Equal(t, []string{"a/b.json"}, u.Keys())

	require.NoError(t, u.Delete(ctx, "a/b.json"))
	_, ok = u.Object("a/b.json")
	assert.False(t, ok)

	assert.Empty(t, NewMemoryUploader("").GetPublicURL("a/b.json"))
}

func TestBracketArchive(t *testing.T) {
	generatedAt := time.Date(2026, 6, 1, 12, 0, 0, 500, time.UTC)
	bracket := &brackets.Bracket{
		TournamentID: "t-1",
		Format:       "SingleElimination",
		GeneratedAt:  generatedAt,
		Seed:         7,
		TotalRounds:  1,
		Rounds:       []brackets.Round{{Number: 1, Name: "Final", Matches: []brackets.Match{}}},
	}
	assert.Equal(t, "brackets/t-1/2026-06-01T12:00:00.0000005Z.json", BracketKey(bracket))

	u := NewMemoryUploader("https://cdn.example.org/")
	location, err := NewBracketArchive(u).Store(context.Background(), bracket)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.org/"+BracketKey(bracket), location)

	data, ok := u.Object(BracketKey(bracket))
	require.True(t, ok)
	var stored brackets.Bracket
	require.NoError(t, json.Unmarshal(data, &stored))
	assert.Equal(t, *bracket, stored)
}
