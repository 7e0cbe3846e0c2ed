package models

import "time"

// TournamentStatus is the lifecycle state of a tournament.
type TournamentStatus string

const (
	StatusDraft              TournamentStatus = "DRAFT"
	StatusRegistrationOpen   TournamentStatus = "REGISTRATION_OPEN"
	StatusRegistrationClosed TournamentStatus = "REGISTRATION_CLOSED"
	StatusOngoing            TournamentStatus = "ONGOING"
	StatusCompleted          TournamentStatus = "COMPLETED"
	StatusCancelled          TournamentStatus = "CANCELLED"
)

// TournamentStatuses lists every status in lifecycle order.
var TournamentStatuses = []TournamentStatus{
	StatusDraft,
	StatusRegistrationOpen,
	StatusRegistrationClosed,
	StatusOngoing,
	StatusCompleted,
	StatusCancelled,
}

func (s TournamentStatus) IsValid() bool {
	for _, known := range TournamentStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further lifecycle progress is possible.
func (s TournamentStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type TournamentType string

const (
	TypeSingles      TournamentType = "SINGLES"
	TypeDoubles      TournamentType = "DOUBLES"
	TypeMixedDoubles TournamentType = "MIXED_DOUBLES"
	TypeTeam         TournamentType = "TEAM"
)

func (t TournamentType) IsValid() bool {
	switch t {
	case TypeSingles, TypeDoubles, TypeMixedDoubles, TypeTeam:
		return true
	}
	return false
}

type GenderCategory string

const (
	GenderMale   GenderCategory = "MALE"
	GenderFemale GenderCategory = "FEMALE"
	GenderMixed  GenderCategory = "MIXED"
	GenderOpen   GenderCategory = "OPEN"
)

func (g GenderCategory) IsValid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderMixed, GenderOpen:
		return true
	}
	return false
}

// Tournament is the aggregate root: the tournament row plus its registrations.
// Version is bumped by the store on every successful save.
type Tournament struct {
	ID                string           `json:"id" db:"id"`
	Name              string           `json:"name" db:"name"`
	Slug              string           `json:"slug" db:"slug"`
	Description       *string          `json:"description,omitempty" db:"description"`
	Venue             *string          `json:"venue,omitempty" db:"venue"`
	StartDate         *time.Time       `json:"start_date,omitempty" db:"start_date"`
	EndDate           *time.Time       `json:"end_date,omitempty" db:"end_date"`
	RegistrationStart *time.Time       `json:"registration_start,omitempty" db:"registration_start"`
	RegistrationEnd   *time.Time       `json:"registration_end,omitempty" db:"registration_end"`
	MaxParticipants   *int             `json:"max_participants,omitempty" db:"max_participants"`
	EntryFeeCents     int64            `json:"entry_fee_cents" db:"entry_fee_cents"`
	PrizePoolCents    int64            `json:"prize_pool_cents" db:"prize_pool_cents"`
	Type              TournamentType   `json:"tournament_type" db:"tournament_type"`
	AgeCategory       *string          `json:"age_category,omitempty" db:"age_category"`
	GenderCategory    GenderCategory   `json:"gender_category" db:"gender_category"`
	IsFeatured        bool             `json:"is_featured" db:"is_featured"`
	Status            TournamentStatus `json:"status" db:"status"`
	Version           int              `json:"version" db:"version"`
	CreatedAt         time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at" db:"updated_at"`

	Registrations []Registration `json:"-" db:"-"`
}

// ActiveRegistrations returns the active registrations in registration order.
func (t *Tournament) ActiveRegistrations() []Registration {
	active := make([]Registration, 0, len(t.Registrations))
	for _, r := range t.Registrations {
		if r.Status.IsActive() {
			active = append(active, r)
		}
	}
	return active
}

func (t *Tournament) CountActive() int {
	n := 0
	for _, r := range t.Registrations {
		if r.Status.IsActive() {
			n++
		}
	}
	return n
}

// ActiveRegistrationFor returns the player's active registration, if any.
func (t *Tournament) ActiveRegistrationFor(playerID string) (*Registration, bool) {
	for i := range t.Registrations {
		r := &t.Registrations[i]
		if r.PlayerID == playerID && r.Status.IsActive() {
			return r, true
		}
	}
	return nil, false
}

// IsFull reports whether the active registrations have reached capacity.
// A tournament without MaxParticipants is never full.
func (t *Tournament) IsFull() bool {
	if t.MaxParticipants == nil {
		return false
	}
	return t.CountActive() >= *t.MaxParticipants
}

// RegistrationWindowOpen reports whether a registration made at now is
// accepted by the status and the optional registration dates.
func (t *Tournament) RegistrationWindowOpen(now time.Time) bool {
	if t.Status != StatusRegistrationOpen {
		return false
	}
	if t.RegistrationStart != nil && now.Before(*t.RegistrationStart) {
		return false
	}
	if t.RegistrationEnd != nil && now.After(*t.RegistrationEnd) {
		return false
	}
	return true
}

// Clone returns a deep copy; the registration slice is not shared.
func (t *Tournament) Clone() *Tournament {
	c := *t
	c.Registrations = make([]Registration, len(t.Registrations))
	copy(c.Registrations, t.Registrations)
	return &c
}
