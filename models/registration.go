package models

import "time"

type RegistrationStatus string

const (
	RegistrationConfirmed  RegistrationStatus = "CONFIRMED"
	RegistrationWaitlisted RegistrationStatus = "WAITLISTED"
	RegistrationCancelled  RegistrationStatus = "CANCELLED"
	RegistrationWithdrawn  RegistrationStatus = "WITHDRAWN"
)

func (s RegistrationStatus) IsValid() bool {
	switch s {
	case RegistrationConfirmed, RegistrationWaitlisted, RegistrationCancelled, RegistrationWithdrawn:
		return true
	}
	return false
}

// IsActive is false only for cancelled and withdrawn registrations.
func (s RegistrationStatus) IsActive() bool {
	return s != RegistrationCancelled && s != RegistrationWithdrawn
}

// PaymentStatus is informational; payments are never processed here.
type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "UNPAID"
	PaymentPartial PaymentStatus = "PARTIAL"
	PaymentPaid    PaymentStatus = "PAID"
)

// PaymentStatusFor derives the payment status of an amount against a fee.
func PaymentStatusFor(amountCents, entryFeeCents int64) PaymentStatus {
	switch {
	case amountCents >= entryFeeCents:
		return PaymentPaid
	case amountCents > 0:
		return PaymentPartial
	default:
		return PaymentUnpaid
	}
}

type Registration struct {
	ID                 string             `json:"id" db:"id"`
	TournamentID       string             `json:"tournament_id" db:"tournament_id"`
	PlayerID           string             `json:"player_id" db:"player_id"`
	RegisteredAt       time.Time          `json:"registered_at" db:"registered_at"`
	PaymentStatus      PaymentStatus      `json:"payment_status" db:"payment_status"`
	PaymentAmountCents int64              `json:"payment_amount_cents" db:"payment_amount_cents"`
	PaymentReference   *string            `json:"payment_reference,omitempty" db:"payment_reference"`
	Notes              *string            `json:"notes,omitempty" db:"notes"`
	Status             RegistrationStatus `json:"status" db:"status"`
	Sequence           int                `json:"-" db:"sequence"`
}
