package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Dosada05/association-tournaments/brackets"
)

// BracketArchive stores generated brackets as JSON documents.
type BracketArchive struct {
	uploader FileUploader
}

func NewBracketArchive(uploader FileUploader) *BracketArchive {
	return &BracketArchive{uploader: uploader}
}

// BracketKey is brackets/{tournament_id}/{generated_at}.json.
func BracketKey(b *brackets.Bracket) string {
	return fmt.Sprintf("brackets/%s/%s.json", b.TournamentID, b.GeneratedAt.UTC().Format(time.RFC3339Nano))
}

// Store uploads the bracket and returns its public URL, which is empty when
// the bucket has no public base URL.
func (a *BracketArchive) Store(ctx context.Context, b *brackets.Bracket) (string, error) {
	body, err := json.Marshal(b)
	if err != nil {
		return "", fmt.Errorf("failed to encode bracket: %w", err)
	}
	result, err := a.uploader.Upload(ctx, BracketKey(b), "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	return result.Location, nil
}
