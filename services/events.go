package services

// Live event types pushed to websocket rooms.
const (
	EventRegistrationOpen    = "REGISTRATION_OPEN"
	EventStatusChanged       = "TOURNAMENT_STATUS_CHANGED"
	EventRegistrationCreated = "REGISTRATION_CREATED"
	EventRegistrationUpdated = "REGISTRATION_UPDATED"
	EventBracketGenerated    = "BRACKET_GENERATED"
)

type statusChangedPayload struct {
	TournamentID string `json:"tournament_id"`
	From         string `json:"from"`
	To           string `json:"to"`
}
