package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/emberfall/skirmish/internal/game/dice"
)

// ErrEncounterNotFound is returned when an encounter lookup yields no results.
var ErrEncounterNotFound = errors.New("encounter not found")

// Encounter is a persisted combat encounter record.
type Encounter struct {
	ID         uuid.UUID
	LocationID string
	Outcome    string
	StartedAt  time.Time
	EndedAt    *time.Time
}

// RollRecord is a persisted dice roll from an encounter transcript.
type RollRecord struct {
	ID          int64
	EncounterID uuid.UUID
	Roller      string
	Expression  string
	Description string
	Total       int
	Outcome     string
	CreatedAt   time.Time
}

// EncounterRepository persists encounter transcripts: the combat log shown to
// players and the dice rolls behind it.
type EncounterRepository struct {
	db *pgxpool.Pool
}

// NewEncounterRepository creates an EncounterRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewEncounterRepository(db *pgxpool.Pool) *EncounterRepository {
	return &EncounterRepository{db: db}
}

// Create inserts a new encounter record and returns it with timestamps set.
//
// Postcondition: Returns the created encounter with a fresh ID, or a non-nil error.
func (r *EncounterRepository) Create(ctx context.Context, locationID string) (*Encounter, error) {
	var out Encounter
	err := r.db.QueryRow(ctx, `
		INSERT INTO encounters (id, location_id)
		VALUES ($1, $2)
		RETURNING id, location_id, outcome, started_at, ended_at`,
		uuid.New(), locationID,
	).Scan(&out.ID, &out.LocationID, &out.Outcome, &out.StartedAt, &out.EndedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting encounter: %w", err)
	}
	return &out, nil
}

// GetByID retrieves an encounter by its primary key.
//
// Postcondition: Returns the Encounter or ErrEncounterNotFound.
func (r *EncounterRepository) GetByID(ctx context.Context, id uuid.UUID) (*Encounter, error) {
	var e Encounter
	err := r.db.QueryRow(ctx, `
		SELECT id, location_id, outcome, started_at, ended_at
		FROM encounters WHERE id = $1`,
		id,
	).Scan(&e.ID, &e.LocationID, &e.Outcome, &e.StartedAt, &e.EndedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEncounterNotFound
		}
		return nil, fmt.Errorf("querying encounter: %w", err)
	}
	return &e, nil
}

// Finish marks an encounter as ended with the given outcome.
//
// Precondition: outcome must be non-empty.
// Postcondition: Returns nil on success, ErrEncounterNotFound if no row updated.
func (r *EncounterRepository) Finish(ctx context.Context, id uuid.UUID, outcome string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE encounters SET outcome = $2, ended_at = NOW()
		WHERE id = $1`,
		id, outcome,
	)
	if err != nil {
		return fmt.Errorf("finishing encounter: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEncounterNotFound
	}
	return nil
}

// AppendMessages appends narration lines to the encounter transcript in order.
//
// Precondition: The encounter must exist.
// Postcondition: All messages are inserted, or none on error.
func (r *EncounterRepository) AppendMessages(ctx context.Context, id uuid.UUID, messages []string) error {
	if len(messages) == 0 {
		return nil
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, msg := range messages {
		if _, err := tx.Exec(ctx, `
			INSERT INTO encounter_messages (encounter_id, body)
			VALUES ($1, $2)`,
			id, msg,
		); err != nil {
			return fmt.Errorf("inserting transcript message: %w", err)
		}
	}
	return tx.Commit(ctx)
}

// AppendRolls appends dice rolls to the encounter transcript in order.
//
// Precondition: The encounter must exist.
// Postcondition: All rolls are inserted, or none on error.
func (r *EncounterRepository) AppendRolls(ctx context.Context, id uuid.UUID, rolls []dice.Roll) error {
	if len(rolls) == 0 {
		return nil
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, roll := range rolls {
		if _, err := tx.Exec(ctx, `
			INSERT INTO encounter_rolls (encounter_id, roller, expression, description, total, outcome)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			id, roll.Roller, roll.Expression, roll.Description, roll.Total, string(roll.Outcome),
		); err != nil {
			return fmt.Errorf("inserting transcript roll: %w", err)
		}
	}
	return tx.Commit(ctx)
}

// Tail returns the most recent transcript messages in chronological order.
//
// Precondition: limit must be > 0.
// Postcondition: Returns at most limit messages, oldest first.
func (r *EncounterRepository) Tail(ctx context.Context, id uuid.UUID, limit int) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT body FROM encounter_messages
		WHERE encounter_id = $1 ORDER BY id DESC LIMIT $2`,
		id, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying transcript tail: %w", err)
	}
	defer rows.Close()

	messages := make([]string, 0, limit)
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scanning transcript row: %w", err)
		}
		messages = append(messages, body)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Reverse into chronological order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// Rolls returns all persisted dice rolls for an encounter, oldest first.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *EncounterRepository) Rolls(ctx context.Context, id uuid.UUID) ([]*RollRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, encounter_id, roller, expression, description, total, outcome, created_at
		FROM encounter_rolls WHERE encounter_id = $1 ORDER BY id ASC`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("querying encounter rolls: %w", err)
	}
	defer rows.Close()

	records := make([]*RollRecord, 0)
	for rows.Next() {
		var rec RollRecord
		if err := rows.Scan(
			&rec.ID, &rec.EncounterID, &rec.Roller, &rec.Expression,
			&rec.Description, &rec.Total, &rec.Outcome, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning roll row: %w", err)
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}
