package types

import "time"

// TherapistPatientLink assigns a patient to a therapist. It is the only thing that grants a
// therapist access to a patient's diary data.
type TherapistPatientLink struct {
	TherapistID int       `json:"therapist_id" db:"therapist_id"`
	PatientID   int       `json:"patient_id" db:"patient_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
