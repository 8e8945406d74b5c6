package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/emodiary/apiserver/types"
)

// RelationshipRepository stores therapist to patient assignments.
type RelationshipRepository struct {
	db *sql.DB
}

func NewRelationshipRepository(db *sql.DB) *RelationshipRepository {
	return &RelationshipRepository{db: db}
}

// Link assigns the patient to the therapist. Linking an existing pair is a no-op and reports
// created=false.
func (r *RelationshipRepository) Link(ctx context.Context, therapistID, patientID int) (types.TherapistPatientLink, bool, error) {
	link := types.TherapistPatientLink{
		TherapistID: therapistID,
		PatientID:   patientID,
		CreatedAt:   time.Now().UTC(),
	}

	const insert = `
		INSERT INTO therapist_patient_links (therapist_id, patient_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (therapist_id, patient_id) DO NOTHING
		RETURNING created_at`
	err := r.db.QueryRowContext(ctx, insert, therapistID, patientID, link.CreatedAt).Scan(&link.CreatedAt)
	if err == nil {
		return link, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return types.TherapistPatientLink{}, false, err
	}

	const existing = `
		SELECT created_at
		FROM therapist_patient_links
		WHERE therapist_id = $1 AND patient_id = $2`
	if err := r.db.QueryRowContext(ctx, existing, therapistID, patientID).Scan(&link.CreatedAt); err != nil {
		return types.TherapistPatientLink{}, false, err
	}
	return link, false, nil
}

func (r *RelationshipRepository) Unlink(ctx context.Context, therapistID, patientID int) error {
	const query = `DELETE FROM therapist_patient_links WHERE therapist_id = $1 AND patient_id = $2`
	result, err := r.db.ExecContext(ctx, query, therapistID, patientID)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (r *RelationshipRepository) IsLinked(ctx context.Context, therapistID, patientID int) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM therapist_patient_links WHERE therapist_id = $1 AND patient_id = $2
		)`
	var linked bool
	if err := r.db.QueryRowContext(ctx, query, therapistID, patientID).Scan(&linked); err != nil {
		return false, err
	}
	return linked, nil
}

// PatientsOf lists the therapist's patients ordered by id.
func (r *RelationshipRepository) PatientsOf(ctx context.Context, therapistID int) ([]types.User, error) {
	const query = `
		SELECT u.id, u.email, u.first_name, u.last_name, u.role, u.password_hash, u.created_at
		FROM therapist_patient_links l
		JOIN users u ON u.id = l.patient_id
		WHERE l.therapist_id = $1
		ORDER BY u.id`
	return r.listUsers(ctx, query, therapistID)
}

// TherapistsOf lists the therapists a patient is assigned to, ordered by id.
func (r *RelationshipRepository) TherapistsOf(ctx context.Context, patientID int) ([]types.User, error) {
	const query = `
		SELECT u.id, u.email, u.first_name, u.last_name, u.role, u.password_hash, u.created_at
		FROM therapist_patient_links l
		JOIN users u ON u.id = l.therapist_id
		WHERE l.patient_id = $1
		ORDER BY u.id`
	return r.listUsers(ctx, query, patientID)
}

func (r *RelationshipRepository) listUsers(ctx context.Context, query string, id int) ([]types.User, error) {
	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]types.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}
