package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/association-tournaments/models"
	"github.com/jmoiron/sqlx"
)

type ListTournamentsFilter struct {
	Status   *models.TournamentStatus
	Featured *bool
	Limit    int
	Offset   int
}

// TournamentRepository stores Tournament aggregates. Save is optimistic: it
// succeeds only when t.Version matches the stored version and then bumps it.
type TournamentRepository interface {
	Create(ctx context.Context, t *models.Tournament) error
	GetByID(ctx context.Context, id string) (*models.Tournament, error)
	Exists(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error)
	// Save writes the tournament row and upserts the given registrations in
	// one transaction. Registrations not passed are left untouched.
	Save(ctx context.Context, t *models.Tournament, changed ...models.Registration) error
	// ListDueForStatusSweep returns tournaments whose dates say they should
	// have moved to the next lifecycle stage by now.
	ListDueForStatusSweep(ctx context.Context, now time.Time) ([]models.Tournament, error)
}

const tournamentColumns = `id, name, slug, description, venue, start_date, end_date,
	registration_start, registration_end, max_participants, entry_fee_cents, prize_pool_cents,
	tournament_type, age_category, gender_category, is_featured, status, version, created_at, updated_at`

const registrationColumns = `id, tournament_id, player_id, sequence, registered_at, payment_status,
	payment_amount_cents, payment_reference, notes, status`

type sqlTournamentRepository struct {
	db *sqlx.DB
}

func NewSQLTournamentRepository(db *sqlx.DB) TournamentRepository {
	return &sqlTournamentRepository{db: db}
}

func (r *sqlTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	query := `
		INSERT INTO tournaments (` + tournamentColumns + `)
		VALUES (:id, :name, :slug, :description, :venue, :start_date, :end_date,
			:registration_start, :registration_end, :max_participants, :entry_fee_cents, :prize_pool_cents,
			:tournament_type, :age_category, :gender_category, :is_featured, :status, :version, :created_at, :updated_at)`

	if _, err := r.db.NamedExecContext(ctx, query, t); err != nil {
		return fmt.Errorf("failed to create tournament: %w", err)
	}
	return nil
}

func (r *sqlTournamentRepository) GetByID(ctx context.Context, id string) (*models.Tournament, error) {
	var t models.Tournament
	query := r.db.Rebind(`SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = ?`)
	if err := r.db.GetContext(ctx, &t, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament %s: %w", id, err)
	}

	regQuery := r.db.Rebind(`SELECT ` + registrationColumns + ` FROM registrations WHERE tournament_id = ? ORDER BY sequence ASC`)
	registrations := make([]models.Registration, 0)
	if err := r.db.SelectContext(ctx, &registrations, regQuery, id); err != nil {
		return nil, fmt.Errorf("failed to list registrations of tournament %s: %w", id, err)
	}
	t.Registrations = registrations
	return &t, nil
}

func (r *sqlTournamentRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	query := r.db.Rebind(`SELECT EXISTS (SELECT 1 FROM tournaments WHERE id = ?)`)
	if err := r.db.GetContext(ctx, &exists, query, id); err != nil {
		return false, fmt.Errorf("failed to check tournament %s: %w", id, err)
	}
	return exists, nil
}

func (r *sqlTournamentRepository) List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error) {
	var queryBuilder strings.Builder
	args := []interface{}{}

	queryBuilder.WriteString(`SELECT ` + tournamentColumns + ` FROM tournaments WHERE 1=1`)
	if filter.Status != nil {
		queryBuilder.WriteString(" AND status = ?")
		args = append(args, *filter.Status)
	}
	if filter.Featured != nil {
		queryBuilder.WriteString(" AND is_featured = ?")
		args = append(args, *filter.Featured)
	}
	queryBuilder.WriteString(" ORDER BY created_at DESC, id ASC")
	if filter.Limit > 0 {
		queryBuilder.WriteString(" LIMIT ?")
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			queryBuilder.WriteString(" OFFSET ?")
			args = append(args, filter.Offset)
		}
	}

	tournaments := make([]models.Tournament, 0)
	if err := r.db.SelectContext(ctx, &tournaments, r.db.Rebind(queryBuilder.String()), args...); err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	return tournaments, nil
}

func (r *sqlTournamentRepository) Save(ctx context.Context, t *models.Tournament, changed ...models.Registration) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	update := tx.Rebind(`
		UPDATE tournaments SET
			name = ?, slug = ?, description = ?, venue = ?,
			start_date = ?, end_date = ?, registration_start = ?, registration_end = ?,
			max_participants = ?, entry_fee_cents = ?, prize_pool_cents = ?,
			tournament_type = ?, age_category = ?, gender_category = ?, is_featured = ?,
			status = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`)

	result, err := tx.ExecContext(ctx, update,
		t.Name, t.Slug, t.Description, t.Venue,
		t.StartDate, t.EndDate, t.RegistrationStart, t.RegistrationEnd,
		t.MaxParticipants, t.EntryFeeCents, t.PrizePoolCents,
		t.Type, t.AgeCategory, t.GenderCategory, t.IsFeatured,
		t.Status, t.UpdatedAt,
		t.ID, t.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update tournament %s: %w", t.ID, err)
	}
	if err = checkAffectedRows(result, ErrVersionConflict); err != nil {
		if errors.Is(err, ErrVersionConflict) {
			var exists bool
			if existsErr := tx.GetContext(ctx, &exists, tx.Rebind(`SELECT EXISTS (SELECT 1 FROM tournaments WHERE id = ?)`), t.ID); existsErr == nil && !exists {
				err = ErrTournamentNotFound
			}
		}
		return err
	}

	upsert := `
		INSERT INTO registrations (` + registrationColumns + `)
		VALUES (:id, :tournament_id, :player_id, :sequence, :registered_at, :payment_status,
			:payment_amount_cents, :payment_reference, :notes, :status)
		ON CONFLICT (id) DO UPDATE SET
			payment_status = excluded.payment_status,
			payment_amount_cents = excluded.payment_amount_cents,
			payment_reference = excluded.payment_reference,
			notes = excluded.notes,
			status = excluded.status`

	for _, reg := range changed {
		if _, err = tx.NamedExecContext(ctx, upsert, reg); err != nil {
			if isUniqueViolation(err) {
				err = ErrRegistrationConflict
				return err
			}
			return fmt.Errorf("failed to save registration %s: %w", reg.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tournament %s: %w", t.ID, err)
	}
	t.Version++
	return nil
}

func (r *sqlTournamentRepository) ListDueForStatusSweep(ctx context.Context, now time.Time) ([]models.Tournament, error) {
	query := r.db.Rebind(`
		SELECT ` + tournamentColumns + `
		FROM tournaments
		WHERE (status = ? AND registration_end IS NOT NULL AND registration_end < ?)
			OR (status = ? AND start_date IS NOT NULL AND start_date <= ?)
			OR (status = ? AND end_date IS NOT NULL AND end_date < ?)
		ORDER BY id ASC`)

	tournaments := make([]models.Tournament, 0)
	err := r.db.SelectContext(ctx, &tournaments, query,
		models.StatusRegistrationOpen, now,
		models.StatusRegistrationClosed, now,
		models.StatusOngoing, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query tournaments for status sweep: %w", err)
	}
	return tournaments, nil
}
