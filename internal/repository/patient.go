package repository

import (
	"context"
	"time"

	"dentalclinic/internal/model"
)

// PatientRepository persists patient records.
type PatientRepository interface {
	// Create inserts the optional account and the patient in one transaction and
	// assigns the patient code from the generated id.
	Create(ctx context.Context, p *model.Patient, acct *model.Account) (*model.Patient, error)
	FindByCode(ctx context.Context, code string) (*model.Patient, error)
	FindByID(ctx context.Context, id int) (*model.Patient, error)
	List(ctx context.Context, q PatientListQuery) (*PageResult[model.Patient], error)
	// Update writes the profile columns of p. Status columns are changed only
	// through the targeted methods below so they never race with the no-show tracker.
	Update(ctx context.Context, p *model.Patient) error
	Deactivate(ctx context.Context, id int) error
	// Blacklist returns sql.ErrNoRows when the patient is missing or already blacklisted.
	Blacklist(ctx context.Context, id int, e BlacklistEntry) error
	// ClearBlacklist returns sql.ErrNoRows when the patient is not blacklisted.
	ClearBlacklist(ctx context.Context, id int) error
	// Unban resets the no-show streak and lifts the booking block. It returns
	// sql.ErrNoRows when the patient is not blocked.
	Unban(ctx context.Context, id int) error
	// PhoneExists ignores the patient with excludeID (0 to check all).
	PhoneExists(ctx context.Context, phone string, excludeID int) (bool, error)
	// FindDuplicateCandidates returns active patients sharing the name and birth date, or the phone.
	FindDuplicateCandidates(ctx context.Context, firstName, lastName string, dob *model.Date, phone *string) ([]model.Patient, error)
}

// BlacklistEntry is the audit data stored when a patient is blacklisted.
type BlacklistEntry struct {
	Reason string
	Notes  *string
	By     *string
	At     time.Time
}
