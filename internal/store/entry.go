package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/emodiary/apiserver/types"
)

const entryColumns = `id, user_id, entry_date, emotions, self_harm, suicidal_thoughts, stressful_events,
	medications_taken, medications_notes, notes, created_at, updated_at`

const entryDateConstraint = "diary_entries_user_date_key"

// EntryRepository handles persistence for diary entries. Every statement is scoped to the
// owning user.
type EntryRepository struct {
	db *sql.DB
}

func NewEntryRepository(db *sql.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

func scanEntry(row interface{ Scan(...any) error }) (types.DiaryEntry, error) {
	var entry types.DiaryEntry
	var emotionsJSON []byte
	err := row.Scan(
		&entry.ID,
		&entry.UserID,
		&entry.Date,
		&emotionsJSON,
		&entry.SelfHarm,
		&entry.SuicidalThoughts,
		&entry.StressfulEvents,
		&entry.MedicationsTaken,
		&entry.MedicationsNotes,
		&entry.Notes,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.DiaryEntry{}, ErrNotFound
		}
		return types.DiaryEntry{}, err
	}
	if err := json.Unmarshal(emotionsJSON, &entry.Emotions); err != nil {
		return types.DiaryEntry{}, fmt.Errorf("decode emotions: %w", err)
	}
	if entry.Emotions == nil {
		entry.Emotions = map[string]int{}
	}
	return entry, nil
}

func encodeEmotions(emotions map[string]int) ([]byte, error) {
	if emotions == nil {
		emotions = map[string]int{}
	}
	return json.Marshal(emotions)
}

// Create inserts the entry. The unique (user_id, entry_date) constraint decides races: when
// the date is taken no row is returned and ErrDuplicateDate is reported.
func (r *EntryRepository) Create(ctx context.Context, entry types.DiaryEntry) (types.DiaryEntry, error) {
	emotionsJSON, err := encodeEmotions(entry.Emotions)
	if err != nil {
		return types.DiaryEntry{}, err
	}

	now := time.Now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	const query = `
		INSERT INTO diary_entries (user_id, entry_date, emotions, self_harm, suicidal_thoughts, stressful_events,
			medications_taken, medications_notes, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id, entry_date) DO NOTHING
		RETURNING id`
	err = r.db.QueryRowContext(
		ctx,
		query,
		entry.UserID,
		entry.Date,
		emotionsJSON,
		entry.SelfHarm,
		entry.SuicidalThoughts,
		entry.StressfulEvents,
		entry.MedicationsTaken,
		entry.MedicationsNotes,
		entry.Notes,
		entry.CreatedAt,
		entry.UpdatedAt,
	).Scan(&entry.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.DiaryEntry{}, ErrDuplicateDate
		}
		return types.DiaryEntry{}, err
	}
	if entry.Emotions == nil {
		entry.Emotions = map[string]int{}
	}
	return entry, nil
}

func (r *EntryRepository) Get(ctx context.Context, userID, id int) (types.DiaryEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM diary_entries WHERE id = $1 AND user_id = $2`
	return scanEntry(r.db.QueryRowContext(ctx, query, id, userID))
}

// Update overwrites the mutable fields of an owned entry. Moving it onto a date the user
// already has yields ErrDuplicateDate.
func (r *EntryRepository) Update(ctx context.Context, entry types.DiaryEntry) (types.DiaryEntry, error) {
	emotionsJSON, err := encodeEmotions(entry.Emotions)
	if err != nil {
		return types.DiaryEntry{}, err
	}
	entry.UpdatedAt = time.Now().UTC()

	const query = `
		UPDATE diary_entries
		SET entry_date = $1,
			emotions = $2,
			self_harm = $3,
			suicidal_thoughts = $4,
			stressful_events = $5,
			medications_taken = $6,
			medications_notes = $7,
			notes = $8,
			updated_at = $9
		WHERE id = $10 AND user_id = $11
		RETURNING created_at`
	err = r.db.QueryRowContext(
		ctx,
		query,
		entry.Date,
		emotionsJSON,
		entry.SelfHarm,
		entry.SuicidalThoughts,
		entry.StressfulEvents,
		entry.MedicationsTaken,
		entry.MedicationsNotes,
		entry.Notes,
		entry.UpdatedAt,
		entry.ID,
		entry.UserID,
	).Scan(&entry.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.DiaryEntry{}, ErrNotFound
		}
		if isUniqueViolation(err, entryDateConstraint) {
			return types.DiaryEntry{}, ErrDuplicateDate
		}
		return types.DiaryEntry{}, err
	}
	if entry.Emotions == nil {
		entry.Emotions = map[string]int{}
	}
	return entry, nil
}

func (r *EntryRepository) Delete(ctx context.Context, userID, id int) error {
	const query = `DELETE FROM diary_entries WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// List returns the user's entries within the filter and the total number matching it
// before pagination. A zero Limit returns every match.
func (r *EntryRepository) List(ctx context.Context, userID int, filter types.EntryFilter) ([]types.DiaryEntry, int, error) {
	where := []string{"user_id = $1"}
	args := []any{userID}
	if filter.Start != nil {
		args = append(args, *filter.Start)
		where = append(where, fmt.Sprintf("entry_date >= $%d", len(args)))
	}
	if filter.End != nil {
		args = append(args, *filter.End)
		where = append(where, fmt.Sprintf("entry_date <= $%d", len(args)))
	}
	clause := strings.Join(where, " AND ")

	var total int
	countQuery := `SELECT COUNT(1) FROM diary_entries WHERE ` + clause
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order := "DESC"
	if filter.Ascending {
		order = "ASC"
	}
	listQuery := `SELECT ` + entryColumns + ` FROM diary_entries WHERE ` + clause + ` ORDER BY entry_date ` + order
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		listQuery += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		listQuery += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	entries := make([]types.DiaryEntry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// HasEntryOn reports whether the user has written an entry for date.
func (r *EntryRepository) HasEntryOn(ctx context.Context, userID int, date types.Date) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM diary_entries WHERE user_id = $1 AND entry_date = $2)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userID, date).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// LastEntryDate returns the most recent entry date of the user, or nil if there is none.
func (r *EntryRepository) LastEntryDate(ctx context.Context, userID int) (*types.Date, error) {
	const query = `SELECT MAX(entry_date) FROM diary_entries WHERE user_id = $1`
	var last sql.NullTime
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&last); err != nil {
		return nil, err
	}
	if !last.Valid {
		return nil, nil
	}
	date := types.DateOf(last.Time)
	return &date, nil
}
