package services

import (
	"time"

	"github.com/Dosada05/association-tournaments/models"
)

// TournamentView is a tournament with its registration figures.
type TournamentView struct {
	models.Tournament
	ActiveRegistrations int  `json:"active_registrations"`
	RemainingSlots      *int `json:"remaining_slots,omitempty"`
}

func NewTournamentView(t *models.Tournament) TournamentView {
	view := TournamentView{
		Tournament:          *t,
		ActiveRegistrations: t.CountActive(),
	}
	if t.MaxParticipants != nil {
		remaining := max(*t.MaxParticipants-view.ActiveRegistrations, 0)
		view.RemainingSlots = &remaining
	}
	return view
}

// RegistrationEvent is what tournament rooms see of a registration. Rooms are
// open to anonymous subscribers, so payment details and notes stay out.
type RegistrationEvent struct {
	ID           string                    `json:"id"`
	TournamentID string                    `json:"tournament_id"`
	PlayerID     string                    `json:"player_id"`
	Status       models.RegistrationStatus `json:"status"`
	RegisteredAt time.Time                 `json:"registered_at"`
}

func NewRegistrationEvent(r models.Registration) RegistrationEvent {
	return RegistrationEvent{
		ID:           r.ID,
		TournamentID: r.TournamentID,
		PlayerID:     r.PlayerID,
		Status:       r.Status,
		RegisteredAt: r.RegisteredAt,
	}
}
