package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"dentalclinic/internal/database"
	"dentalclinic/internal/model"
	"dentalclinic/internal/repository"
	"dentalclinic/internal/security"
)

var errPatientNotFound = notFound("PATIENT_NOT_FOUND", "patient not found")

const temporaryPasswordLength = 12

// patientSortColumns whitelists the sort keys accepted by List.
var patientSortColumns = map[string]bool{
	"patient_code":  true,
	"first_name":    true,
	"last_name":     true,
	"created_at":    true,
	"date_of_birth": true,
}

type CreatePatientRequest struct {
	FirstName             string `json:"first_name" validate:"required,max=50"`
	LastName              string `json:"last_name" validate:"required,max=50"`
	Email                 string `json:"email" validate:"omitempty,email,max=100"`
	Phone                 string `json:"phone" validate:"omitempty,phone"`
	DateOfBirth           string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Address               string `json:"address" validate:"max=255"`
	Gender                string `json:"gender" validate:"omitempty,oneof=MALE FEMALE OTHER"`
	MedicalHistory        string `json:"medical_history"`
	Allergies             string `json:"allergies"`
	EmergencyContactName  string `json:"emergency_contact_name" validate:"max=100"`
	EmergencyContactPhone string `json:"emergency_contact_phone" validate:"omitempty,phone"`
	GuardianName          string `json:"guardian_name" validate:"max=100"`
	GuardianPhone         string `json:"guardian_phone" validate:"omitempty,phone"`
	GuardianRelationship  string `json:"guardian_relationship" validate:"max=50"`
	Username              string `json:"username" validate:"omitempty,min=3,max=50"`
}

// UpdatePatientRequest is a partial update; nil fields are left untouched.
type UpdatePatientRequest struct {
	FirstName             *string `json:"first_name" validate:"omitempty,min=1,max=50"`
	LastName              *string `json:"last_name" validate:"omitempty,min=1,max=50"`
	Email                 *string `json:"email" validate:"omitempty,email,max=100"`
	Phone                 *string `json:"phone" validate:"omitempty,phone"`
	DateOfBirth           *string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Address               *string `json:"address" validate:"omitempty,max=255"`
	Gender                *string `json:"gender" validate:"omitempty,oneof=MALE FEMALE OTHER"`
	MedicalHistory        *string `json:"medical_history"`
	Allergies             *string `json:"allergies"`
	EmergencyContactName  *string `json:"emergency_contact_name" validate:"omitempty,max=100"`
	EmergencyContactPhone *string `json:"emergency_contact_phone" validate:"omitempty,phone"`
	GuardianName          *string `json:"guardian_name" validate:"omitempty,max=100"`
	GuardianPhone         *string `json:"guardian_phone" validate:"omitempty,phone"`
	GuardianRelationship  *string `json:"guardian_relationship" validate:"omitempty,max=50"`
}

type DuplicateCheckRequest struct {
	FirstName   string `json:"first_name" validate:"required"`
	LastName    string `json:"last_name" validate:"required"`
	DateOfBirth string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Phone       string `json:"phone" validate:"omitempty,phone"`
}

type BlacklistRequest struct {
	Reason model.BlacklistReason `json:"reason" validate:"required"`
	Notes  string                `json:"notes" validate:"max=1000"`
}

// PatientListParams holds the list query parameters of the patient directory.
type PatientListParams struct {
	Page
	SortBy          string
	SortDirection   string
	Search          string
	IncludeInactive bool
}

// CreatedPatient is returned once after registration. TemporaryPassword is only set
// when an account was created and is never retrievable again.
type CreatedPatient struct {
	*model.Patient
	Username          string `json:"username,omitempty"`
	TemporaryPassword string `json:"temporary_password,omitempty"`
}

// PatientService manages the patient directory.
type PatientService interface {
	List(ctx context.Context, params PatientListParams) (*ListResult[model.Patient], error)
	// GetByCode hides inactive patients unless includeInactive is set.
	GetByCode(ctx context.Context, code string, includeInactive bool) (*model.Patient, error)
	Create(ctx context.Context, req CreatePatientRequest) (*CreatedPatient, error)
	Update(ctx context.Context, code string, req UpdatePatientRequest) (*model.Patient, error)
	// Delete deactivates the patient; records are never removed.
	Delete(ctx context.Context, code string) error
	CheckDuplicates(ctx context.Context, req DuplicateCheckRequest) (*model.DuplicateCheckResult, error)
	Blacklist(ctx context.Context, code string, req BlacklistRequest, by string) (*model.Patient, error)
	RemoveFromBlacklist(ctx context.Context, code string) (*model.Patient, error)
	// Unban lifts a no-show booking block and resets the no-show streak.
	Unban(ctx context.Context, code string) (*model.Patient, error)
}

type patientService struct {
	patients  repository.PatientRepository
	employees repository.EmployeeRepository
	accounts  repository.AccountRepository
	clock     clock
}

func NewPatientService(patients repository.PatientRepository, employees repository.EmployeeRepository, accounts repository.AccountRepository, loc *time.Location) PatientService {
	return &patientService{
		patients:  patients,
		employees: employees,
		accounts:  accounts,
		clock:     newClock(loc),
	}
}

func (s *patientService) List(ctx context.Context, params PatientListParams) (*ListResult[model.Patient], error) {
	pq, page := params.Page.PageQuery()
	sortBy := params.SortBy
	if !patientSortColumns[sortBy] {
		sortBy = "created_at"
	}
	res, err := s.patients.List(ctx, repository.PatientListQuery{
		PageQuery:       pq,
		Search:          strings.TrimSpace(params.Search),
		SortColumn:      sortBy,
		Descending:      strings.EqualFold(params.SortDirection, "desc"),
		IncludeInactive: params.IncludeInactive,
	})
	if err != nil {
		return nil, err
	}
	return newListResult(res, page), nil
}

func (s *patientService) GetByCode(ctx context.Context, code string, includeInactive bool) (*model.Patient, error) {
	p, err := s.patients.FindByCode(ctx, code)
	if err != nil {
		return nil, mapNotFound(err, errPatientNotFound)
	}
	if !p.IsActive && !includeInactive {
		return nil, errPatientNotFound
	}
	return p, nil
}

func (s *patientService) Create(ctx context.Context, req CreatePatientRequest) (*CreatedPatient, error) {
	if err := check(req); err != nil {
		return nil, err
	}
	dob, err := s.parseBirthDate(req.DateOfBirth)
	if err != nil {
		return nil, err
	}

	p := &model.Patient{
		FirstName:             strings.TrimSpace(req.FirstName),
		LastName:              strings.TrimSpace(req.LastName),
		Email:                 optional(req.Email),
		Phone:                 optional(req.Phone),
		DateOfBirth:           dob,
		Address:               optional(req.Address),
		Gender:                optional(req.Gender),
		MedicalHistory:        optional(req.MedicalHistory),
		Allergies:             optional(req.Allergies),
		EmergencyContactName:  optional(req.EmergencyContactName),
		EmergencyContactPhone: optional(req.EmergencyContactPhone),
		GuardianName:          optional(req.GuardianName),
		GuardianPhone:         optional(req.GuardianPhone),
		GuardianRelationship:  optional(req.GuardianRelationship),
		IsActive:              true,
	}
	if err := s.requireGuardian(p); err != nil {
		return nil, err
	}

	dups, err := s.findDuplicates(ctx, p.FirstName, p.LastName, p.DateOfBirth, p.Phone)
	if err != nil {
		return nil, err
	}
	if len(dups) > 0 && dups[0].MatchType == model.MatchExact {
		return nil, conflict("DUPLICATE_PATIENT", "patient "+dups[0].PatientCode+" has the same name, date of birth and phone")
	}

	if p.Phone != nil {
		if err := phoneAvailable(ctx, s.employees, s.patients, *p.Phone, 0); err != nil {
			return nil, err
		}
	}

	var (
		acct     *model.Account
		tempPass string
	)
	if req.Email != "" {
		if acct, tempPass, err = s.newPatientAccount(ctx, req.Email, req.Username); err != nil {
			return nil, err
		}
	}

	created, err := s.patients.Create(ctx, p, acct)
	if err != nil {
		if database.IsDuplicateKey(err) {
			return nil, conflict("PATIENT_EXISTS", "patient account or contact details already registered")
		}
		return nil, fmt.Errorf("create patient: %w", err)
	}
	out := &CreatedPatient{Patient: created, TemporaryPassword: tempPass}
	if acct != nil {
		out.Username = acct.Username
	}
	return out, nil
}

func (s *patientService) parseBirthDate(v string) (*model.Date, error) {
	if v == "" {
		return nil, nil
	}
	d, err := model.ParseDate(v)
	if err != nil {
		return nil, invalid("INVALID_DATE_OF_BIRTH", "date_of_birth must be YYYY-MM-DD")
	}
	today := model.NewDate(s.clock.Now())
	if d.After(today.Time) {
		return nil, invalid("INVALID_DATE_OF_BIRTH", "date_of_birth cannot be in the future")
	}
	return &d, nil
}

// requireGuardian enforces guardian contact details for minors.
func (s *patientService) requireGuardian(p *model.Patient) error {
	if p.DateOfBirth == nil || p.DateOfBirth.AgeAt(s.clock.Now()) >= model.GuardianRequiredUnderAge {
		return nil
	}
	if p.GuardianName == nil || *p.GuardianName == "" || p.GuardianPhone == nil || *p.GuardianPhone == "" {
		return invalid("GUARDIAN_REQUIRED",
			fmt.Sprintf("patients under %d require guardian name and phone", model.GuardianRequiredUnderAge))
	}
	return nil
}

func (s *patientService) newPatientAccount(ctx context.Context, email, username string) (*model.Account, string, error) {
	taken, err := s.accounts.EmailExists(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("check email: %w", err)
	}
	if taken {
		return nil, "", conflict("EMAIL_EXISTS", "email is already registered")
	}

	if username == "" {
		username = strings.ToLower(strings.SplitN(email, "@", 2)[0])
	}
	username, err = s.availableUsername(ctx, username)
	if err != nil {
		return nil, "", err
	}

	temp, err := security.TemporaryPassword(temporaryPasswordLength)
	if err != nil {
		return nil, "", fmt.Errorf("generate password: %w", err)
	}
	hash, err := security.HashPassword(temp)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}
	id := uuid.NewString()
	return &model.Account{
		ID:                 id,
		Code:               model.AccountCodeFor(id),
		Username:           username,
		Password:           hash,
		Email:              email,
		Status:             model.AccountPendingVerification,
		MustChangePassword: true,
		RoleID:             model.RolePatient,
	}, temp, nil
}

// availableUsername appends a numeric suffix until the name is free.
func (s *patientService) availableUsername(ctx context.Context, base string) (string, error) {
	candidate := base
	for i := 1; i <= 100; i++ {
		taken, err := s.accounts.UsernameExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check username: %w", err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = base + strconv.Itoa(i)
	}
	return "", conflict("USERNAME_EXISTS", "could not derive a free username from "+base)
}

func (s *patientService) Update(ctx context.Context, code string, req UpdatePatientRequest) (*model.Patient, error) {
	if err := check(req); err != nil {
		return nil, err
	}
	p, err := s.GetByCode(ctx, code, false)
	if err != nil {
		return nil, err
	}

	if req.Phone != nil && *req.Phone != "" && (p.Phone == nil || *p.Phone != *req.Phone) {
		if err := phoneAvailable(ctx, s.employees, s.patients, *req.Phone, p.ID); err != nil {
			return nil, err
		}
	}
	if req.DateOfBirth != nil {
		if p.DateOfBirth, err = s.parseBirthDate(*req.DateOfBirth); err != nil {
			return nil, err
		}
	}

	patchString(&p.FirstName, req.FirstName)
	patchString(&p.LastName, req.LastName)
	patchOptional(&p.Email, req.Email)
	patchOptional(&p.Phone, req.Phone)
	patchOptional(&p.Address, req.Address)
	patchOptional(&p.Gender, req.Gender)
	patchOptional(&p.MedicalHistory, req.MedicalHistory)
	patchOptional(&p.Allergies, req.Allergies)
	patchOptional(&p.EmergencyContactName, req.EmergencyContactName)
	patchOptional(&p.EmergencyContactPhone, req.EmergencyContactPhone)
	patchOptional(&p.GuardianName, req.GuardianName)
	patchOptional(&p.GuardianPhone, req.GuardianPhone)
	patchOptional(&p.GuardianRelationship, req.GuardianRelationship)

	if err := s.requireGuardian(p); err != nil {
		return nil, err
	}
	if err := s.patients.Update(ctx, p); err != nil {
		if database.IsDuplicateKey(err) {
			return nil, conflict("PHONE_EXISTS", "phone number is already registered")
		}
		return nil, fmt.Errorf("update patient: %w", err)
	}
	return p, nil
}

func patchString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

// patchOptional sets dst from v; an explicit empty string clears the column.
func patchOptional(dst **string, v *string) {
	if v != nil {
		*dst = optional(strings.TrimSpace(*v))
	}
}

func (s *patientService) Delete(ctx context.Context, code string) error {
	p, err := s.GetByCode(ctx, code, false)
	if err != nil {
		return err
	}
	if err := s.patients.Deactivate(ctx, p.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errPatientNotFound
		}
		return fmt.Errorf("deactivate patient: %w", err)
	}
	return nil
}

func (s *patientService) CheckDuplicates(ctx context.Context, req DuplicateCheckRequest) (*model.DuplicateCheckResult, error) {
	if err := check(req); err != nil {
		return nil, err
	}
	var dob *model.Date
	if req.DateOfBirth != "" {
		d, err := model.ParseDate(req.DateOfBirth)
		if err != nil {
			return nil, invalid("INVALID_DATE_OF_BIRTH", "date_of_birth must be YYYY-MM-DD")
		}
		dob = &d
	}
	matches, err := s.findDuplicates(ctx, strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName), dob, optional(req.Phone))
	if err != nil {
		return nil, err
	}
	res := &model.DuplicateCheckResult{
		HasDuplicates: len(matches) > 0,
		Matches:       matches,
		Message:       "No potential duplicates found",
	}
	if res.HasDuplicates {
		res.Message = fmt.Sprintf("Found %d potential duplicate patient(s)", len(matches))
	}
	return res, nil
}

// findDuplicates classifies candidate records, strongest match first.
func (s *patientService) findDuplicates(ctx context.Context, first, last string, dob *model.Date, phone *string) ([]model.DuplicateMatch, error) {
	candidates, err := s.patients.FindDuplicateCandidates(ctx, first, last, dob, phone)
	if err != nil {
		return nil, fmt.Errorf("find duplicate candidates: %w", err)
	}
	matches := []model.DuplicateMatch{}
	for i := range candidates {
		c := &candidates[i]
		t, ok := classifyDuplicate(c, first, last, dob, phone)
		if !ok {
			continue
		}
		matches = append(matches, model.DuplicateMatch{
			PatientCode:     c.Code,
			FullName:        c.FullName(),
			Phone:           c.Phone,
			DateOfBirth:     c.DateOfBirth,
			MatchType:       t,
			ConfidenceScore: t.Confidence(),
		})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].ConfidenceScore > matches[j].ConfidenceScore
	})
	return matches, nil
}

func classifyDuplicate(c *model.Patient, first, last string, dob *model.Date, phone *string) (model.DuplicateMatchType, bool) {
	name := strings.EqualFold(c.FirstName, first) && strings.EqualFold(c.LastName, last)
	sameDOB := dob != nil && c.DateOfBirth != nil && c.DateOfBirth.String() == dob.String()
	samePhone := phone != nil && c.Phone != nil && *c.Phone == *phone

	switch {
	case name && sameDOB && samePhone:
		return model.MatchExact, true
	case name && samePhone:
		return model.MatchNameAndPhone, true
	case name && sameDOB:
		return model.MatchNameAndDOB, true
	case samePhone:
		return model.MatchPhone, true
	}
	return "", false
}

func (s *patientService) Blacklist(ctx context.Context, code string, req BlacklistRequest, by string) (*model.Patient, error) {
	if err := check(req); err != nil {
		return nil, err
	}
	if !req.Reason.Valid() {
		return nil, invalid("INVALID_BLACKLIST_REASON", "unknown blacklist reason "+string(req.Reason))
	}
	p, err := s.GetByCode(ctx, code, false)
	if err != nil {
		return nil, err
	}
	errAlready := conflict("PATIENT_ALREADY_BLACKLISTED", "patient is already blacklisted")
	if p.IsBlacklisted {
		return nil, errAlready
	}
	entry := repository.BlacklistEntry{
		Reason: string(req.Reason),
		Notes:  optional(req.Notes),
		By:     optional(by),
		At:     s.clock.Now(),
	}
	if err := s.patients.Blacklist(ctx, p.ID, entry); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errAlready
		}
		return nil, fmt.Errorf("blacklist patient: %w", err)
	}
	p.IsBlacklisted = true
	p.BlacklistReason = &entry.Reason
	p.BlacklistNotes = entry.Notes
	p.BlacklistedBy = entry.By
	p.BlacklistedAt = &entry.At
	return p, nil
}

func (s *patientService) RemoveFromBlacklist(ctx context.Context, code string) (*model.Patient, error) {
	p, err := s.GetByCode(ctx, code, false)
	if err != nil {
		return nil, err
	}
	errNotBlacklisted := invalid("PATIENT_NOT_BLACKLISTED", "patient is not blacklisted")
	if !p.IsBlacklisted {
		return nil, errNotBlacklisted
	}
	if err := s.patients.ClearBlacklist(ctx, p.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errNotBlacklisted
		}
		return nil, fmt.Errorf("remove blacklist: %w", err)
	}
	p.IsBlacklisted = false
	p.BlacklistReason = nil
	p.BlacklistNotes = nil
	p.BlacklistedBy = nil
	p.BlacklistedAt = nil
	return p, nil
}

func (s *patientService) Unban(ctx context.Context, code string) (*model.Patient, error) {
	p, err := s.GetByCode(ctx, code, false)
	if err != nil {
		return nil, err
	}
	errNotBlocked := invalid("PATIENT_NOT_BLOCKED", "patient is not blocked from booking")
	if !p.IsBookingBlocked {
		return nil, errNotBlocked
	}
	if err := s.patients.Unban(ctx, p.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errNotBlocked
		}
		return nil, fmt.Errorf("unban patient: %w", err)
	}
	p.Unban()
	return p, nil
}
