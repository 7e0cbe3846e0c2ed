package services

import (
	"fmt"

	"github.com/Dosada05/association-tournaments/models"
)

// TransitionPolicy maps a target status to the statuses it may be entered
// from. A target missing from the map cannot be entered at all.
type TransitionPolicy map[models.TournamentStatus][]models.TournamentStatus

// Allows reports whether a tournament in from may move to to.
func (p TransitionPolicy) Allows(from, to models.TournamentStatus) bool {
	for _, allowed := range p[to] {
		if allowed == from {
			return true
		}
	}
	return false
}

// PermissiveTransitions accepts every move between known statuses.
func PermissiveTransitions() TransitionPolicy {
	policy := make(TransitionPolicy, len(models.TournamentStatuses))
	for _, to := range models.TournamentStatuses {
		policy[to] = append([]models.TournamentStatus(nil), models.TournamentStatuses...)
	}
	return policy
}

// StrictTransitions follows the lifecycle graph. Registration may be reopened
// after closing, and any non-terminal tournament may be cancelled.
func StrictTransitions() TransitionPolicy {
	return TransitionPolicy{
		models.StatusDraft:              {},
		models.StatusRegistrationOpen:   {models.StatusDraft, models.StatusRegistrationClosed},
		models.StatusRegistrationClosed: {models.StatusRegistrationOpen},
		models.StatusOngoing:            {models.StatusRegistrationClosed},
		models.StatusCompleted:          {models.StatusOngoing},
		models.StatusCancelled: {
			models.StatusDraft,
			models.StatusRegistrationOpen,
			models.StatusRegistrationClosed,
			models.StatusOngoing,
		},
	}
}

type audience int

const (
	audienceLobby audience = iota
	audiencePlayers
)

// statusNotice is the message sent when a tournament enters a status.
type statusNotice struct {
	audience audience
	event    string
	subject  string
	body     string
}

var statusNotices = map[models.TournamentStatus]statusNotice{
	models.StatusRegistrationOpen: {
		audience: audienceLobby,
		event:    EventRegistrationOpen,
		subject:  "Registration is open",
		body:     "Registration for %s is now open.",
	},
	models.StatusOngoing: {
		audience: audiencePlayers,
		subject:  "Tournament starting",
		body:     "%s is starting.",
	},
	models.StatusCompleted: {
		audience: audiencePlayers,
		subject:  "Tournament completed",
		body:     "%s has been completed. Thank you for taking part.",
	},
}

func (n statusNotice) render(t *models.Tournament) string {
	return fmt.Sprintf(n.body, t.Name)
}

// nextStatusByDate is the status the date sweep moves a tournament to, if any.
func nextStatusByDate(t *models.Tournament) (models.TournamentStatus, bool) {
	switch t.Status {
	case models.StatusRegistrationOpen:
		return models.StatusRegistrationClosed, true
	case models.StatusRegistrationClosed:
		return models.StatusOngoing, true
	case models.StatusOngoing:
		return models.StatusCompleted, true
	}
	return "", false
}
