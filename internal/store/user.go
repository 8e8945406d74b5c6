package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/emodiary/apiserver/types"
)

const userColumns = `id, email, first_name, last_name, role, password_hash, created_at`

// UserRepository handles persistence for users and their role profiles.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row interface{ Scan(...any) error }) (types.User, error) {
	var user types.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.Role,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

// Create inserts the user together with an empty profile matching its role. Both rows are
// written in one transaction.
func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.User{}, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	user.CreatedAt = time.Now().UTC()

	const query = `
		INSERT INTO users (email, first_name, last_name, role, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	if err := tx.QueryRowContext(
		ctx,
		query,
		user.Email,
		user.FirstName,
		user.LastName,
		user.Role,
		user.PasswordHash,
		user.CreatedAt,
	).Scan(&user.ID); err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return types.User{}, ErrEmailTaken
		}
		return types.User{}, err
	}

	var profileQuery string
	switch user.Role {
	case types.RolePatient:
		profileQuery = `INSERT INTO patient_profiles (user_id) VALUES ($1)`
	case types.RoleTherapist:
		profileQuery = `INSERT INTO therapist_profiles (user_id) VALUES ($1)`
	default:
		return types.User{}, fmt.Errorf("unknown role %q", user.Role)
	}
	if _, err := tx.ExecContext(ctx, profileQuery, user.ID); err != nil {
		return types.User{}, fmt.Errorf("create profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetPatientProfile(ctx context.Context, userID int) (types.PatientProfile, error) {
	const query = `
		SELECT user_id, date_of_birth, gender, phone_number
		FROM patient_profiles
		WHERE user_id = $1`
	var profile types.PatientProfile
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&profile.UserID,
		&profile.DateOfBirth,
		&profile.Gender,
		&profile.PhoneNumber,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.PatientProfile{}, ErrNotFound
		}
		return types.PatientProfile{}, err
	}
	return profile, nil
}

func (r *UserRepository) UpdatePatientProfile(ctx context.Context, profile types.PatientProfile) (types.PatientProfile, error) {
	const query = `
		UPDATE patient_profiles
		SET date_of_birth = $1,
			gender = $2,
			phone_number = $3
		WHERE user_id = $4`
	result, err := r.db.ExecContext(ctx, query, profile.DateOfBirth, profile.Gender, profile.PhoneNumber, profile.UserID)
	if err != nil {
		return types.PatientProfile{}, err
	}
	if err := requireAffected(result); err != nil {
		return types.PatientProfile{}, err
	}
	return profile, nil
}

func (r *UserRepository) GetTherapistProfile(ctx context.Context, userID int) (types.TherapistProfile, error) {
	const query = `
		SELECT user_id, license_number, specialization, years_of_experience
		FROM therapist_profiles
		WHERE user_id = $1`
	var profile types.TherapistProfile
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&profile.UserID,
		&profile.LicenseNumber,
		&profile.Specialization,
		&profile.YearsOfExperience,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.TherapistProfile{}, ErrNotFound
		}
		return types.TherapistProfile{}, err
	}
	return profile, nil
}

func (r *UserRepository) UpdateTherapistProfile(ctx context.Context, profile types.TherapistProfile) (types.TherapistProfile, error) {
	const query = `
		UPDATE therapist_profiles
		SET license_number = $1,
			specialization = $2,
			years_of_experience = $3
		WHERE user_id = $4`
	result, err := r.db.ExecContext(ctx, query, profile.LicenseNumber, profile.Specialization, profile.YearsOfExperience, profile.UserID)
	if err != nil {
		return types.TherapistProfile{}, err
	}
	if err := requireAffected(result); err != nil {
		return types.TherapistProfile{}, err
	}
	return profile, nil
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
