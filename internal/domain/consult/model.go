// Package consult records the doctor's findings for a visit: one diagnosis
// row per appointment, replaced wholesale on every save.
package consult

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrDiagnosisNotFound = errors.New("diagnosis not found")

// Diagnosis is the doctor's record for one appointment. MedicinesPrescribed
// is derived from the medicines text and never set directly.
type Diagnosis struct {
	AppointmentID       uuid.UUID `json:"appointment_id" db:"appointment_id"`
	ChiefComplaints     string    `json:"chief_complaints" db:"chief_complaints"`
	Symptoms            string    `json:"symptoms" db:"symptoms"`
	Mind                string    `json:"mind" db:"mind"`
	Psychology          string    `json:"psychology" db:"psychology"`
	Diagnosis           string    `json:"diagnosis" db:"diagnosis"`
	Medicines           string    `json:"medicines" db:"medicines"`
	Tests               string    `json:"tests" db:"tests"`
	NextVisit           string    `json:"next_visit" db:"next_visit"`
	DiagnosisSaved      bool      `json:"diagnosis_saved" db:"diagnosis_saved"`
	MedicinesPrescribed bool      `json:"medicines_prescribed" db:"medicines_prescribed"`
	UpdatedAt           time.Time `json:"updated_at" db:"updated_at"`
}

// SaveRequest is the JSON payload for POST /save_diagnosis/:id.
type SaveRequest struct {
	ChiefComplaints string `json:"chief_complaints" form:"chief_complaints"`
	Symptoms        string `json:"symptoms" form:"symptoms"`
	Mind            string `json:"mind" form:"mind"`
	Psychology      string `json:"psychology" form:"psychology"`
	Diagnosis       string `json:"diagnosis" form:"diagnosis"`
	Medicines       string `json:"medicines" form:"medicines"`
	Tests           string `json:"tests" form:"tests"`
	NextVisit       string `json:"next_visit" form:"next_visit"`
}
