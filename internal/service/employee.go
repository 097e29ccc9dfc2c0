package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"dentalclinic/internal/database"
	"dentalclinic/internal/model"
	"dentalclinic/internal/repository"
	"dentalclinic/internal/security"
)

var errEmployeeNotFound = notFound("EMPLOYEE_NOT_FOUND", "employee not found")

type CreateEmployeeRequest struct {
	FirstName           string               `json:"first_name" validate:"required,max=50"`
	LastName            string               `json:"last_name" validate:"required,max=50"`
	Phone               string               `json:"phone" validate:"omitempty,phone"`
	EmploymentType      model.EmploymentType `json:"employment_type" validate:"required,oneof=FULL_TIME PART_TIME"`
	SpecializationCodes []string             `json:"specialization_codes" validate:"dive,required"`
	Username            string               `json:"username" validate:"omitempty,min=3,max=50"`
	Password            string               `json:"password" validate:"required_with=Username,omitempty,min=8,max=72"`
	Email               string               `json:"email" validate:"required_with=Username,omitempty,email"`
	RoleID              string               `json:"role_id" validate:"required_with=Username"`
}

type AddShiftRequest struct {
	WorkDate  string `json:"work_date" validate:"required,datetime=2006-01-02"`
	StartTime string `json:"start_time" validate:"required,hhmm"`
	EndTime   string `json:"end_time" validate:"required,hhmm"`
}

// EmployeeService manages clinic staff and their working shifts.
type EmployeeService interface {
	Create(ctx context.Context, req CreateEmployeeRequest) (*model.Employee, error)
	Get(ctx context.Context, code string) (*model.Employee, error)
	List(ctx context.Context, page Page, activeOnly bool) (*ListResult[model.Employee], error)
	Deactivate(ctx context.Context, code string) error
	AddShift(ctx context.Context, code string, req AddShiftRequest) (*model.Shift, error)
	// ListShifts returns shifts between from and to inclusive ("YYYY-MM-DD").
	// Empty bounds default to today and thirty days after from.
	ListShifts(ctx context.Context, code, from, to string) ([]model.Shift, error)
	// DeleteShift removes one shift, e.g. for approved leave. Appointments already
	// booked in it are kept.
	DeleteShift(ctx context.Context, code string, shiftID int) error
}

type employeeService struct {
	employees repository.EmployeeRepository
	patients  repository.PatientRepository
	accounts  repository.AccountRepository
	clock     clock
}

func NewEmployeeService(employees repository.EmployeeRepository, patients repository.PatientRepository, accounts repository.AccountRepository, loc *time.Location) EmployeeService {
	return &employeeService{
		employees: employees,
		patients:  patients,
		accounts:  accounts,
		clock:     newClock(loc),
	}
}

func (s *employeeService) Create(ctx context.Context, req CreateEmployeeRequest) (*model.Employee, error) {
	if err := check(req); err != nil {
		return nil, err
	}
	if req.Phone != "" {
		if err := phoneAvailable(ctx, s.employees, s.patients, req.Phone, 0); err != nil {
			return nil, err
		}
	}

	specIDs, specs, err := s.resolveSpecializations(ctx, req.SpecializationCodes)
	if err != nil {
		return nil, err
	}

	var acct *model.Account
	if req.Username != "" {
		if acct, err = s.newStaffAccount(ctx, req); err != nil {
			return nil, err
		}
	}

	e := &model.Employee{
		FirstName:       strings.TrimSpace(req.FirstName),
		LastName:        strings.TrimSpace(req.LastName),
		Phone:           optional(req.Phone),
		EmploymentType:  req.EmploymentType,
		IsActive:        true,
		Specializations: specs,
	}
	created, err := s.employees.Create(ctx, e, acct, specIDs)
	if err != nil {
		if database.IsDuplicateKey(err) {
			return nil, conflict("EMPLOYEE_EXISTS", "an employee with the same phone or username already exists")
		}
		return nil, fmt.Errorf("create employee: %w", err)
	}
	return created, nil
}

func (s *employeeService) resolveSpecializations(ctx context.Context, codes []string) ([]int, []model.Specialization, error) {
	if len(codes) == 0 {
		return nil, nil, nil
	}
	codes = uniqueStrings(codes)
	specs, err := s.employees.FindSpecializationsByCodes(ctx, codes)
	if err != nil {
		return nil, nil, fmt.Errorf("load specializations: %w", err)
	}
	found := make(map[string]bool, len(specs))
	ids := make([]int, 0, len(specs))
	for _, sp := range specs {
		found[sp.Code] = true
		ids = append(ids, sp.ID)
	}
	var missing []string
	for _, c := range codes {
		if !found[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, nil, invalid("SPECIALIZATION_NOT_FOUND", "unknown specializations: "+strings.Join(missing, ", "))
	}
	return ids, specs, nil
}

func (s *employeeService) newStaffAccount(ctx context.Context, req CreateEmployeeRequest) (*model.Account, error) {
	taken, err := s.accounts.UsernameExists(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if taken {
		return nil, conflict("USERNAME_EXISTS", "username is already taken")
	}
	taken, err = s.accounts.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return nil, conflict("EMAIL_EXISTS", "email is already registered")
	}
	if req.RoleID == model.RolePatient {
		return nil, invalid("ROLE_NOT_ALLOWED", "staff accounts cannot use the patient role")
	}
	ok, err := s.accounts.RoleExists(ctx, req.RoleID)
	if err != nil {
		return nil, fmt.Errorf("check role: %w", err)
	}
	if !ok {
		return nil, invalid("ROLE_NOT_FOUND", "role does not exist")
	}
	hash, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	id := uuid.NewString()
	return &model.Account{
		ID:       id,
		Code:     model.AccountCodeFor(id),
		Username: req.Username,
		Password: hash,
		Email:    req.Email,
		Status:   model.AccountActive,
		RoleID:   req.RoleID,
	}, nil
}

func (s *employeeService) Get(ctx context.Context, code string) (*model.Employee, error) {
	e, err := s.employees.FindByCode(ctx, code)
	if err != nil {
		return nil, mapNotFound(err, errEmployeeNotFound)
	}
	return e, nil
}

func (s *employeeService) List(ctx context.Context, page Page, activeOnly bool) (*ListResult[model.Employee], error) {
	pq, page := page.PageQuery()
	res, err := s.employees.List(ctx, pq, activeOnly)
	if err != nil {
		return nil, err
	}
	return newListResult(res, page), nil
}

func (s *employeeService) Deactivate(ctx context.Context, code string) error {
	e, err := s.Get(ctx, code)
	if err != nil {
		return err
	}
	if !e.IsActive {
		return nil
	}
	return s.employees.Deactivate(ctx, e.ID)
}

func (s *employeeService) AddShift(ctx context.Context, code string, req AddShiftRequest) (*model.Shift, error) {
	if err := check(req); err != nil {
		return nil, err
	}
	e, err := s.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	if !e.IsActive {
		return nil, invalid("EMPLOYEE_INACTIVE", "employee is inactive")
	}

	day, err := time.ParseInLocation(model.DateLayout, req.WorkDate, s.clock.loc)
	if err != nil {
		return nil, invalid("INVALID_WORK_DATE", "work_date must be YYYY-MM-DD")
	}
	start, err := clockOn(day, req.StartTime)
	if err != nil {
		return nil, invalid("INVALID_SHIFT_TIME", err.Error())
	}
	end, err := clockOn(day, req.EndTime)
	if err != nil {
		return nil, invalid("INVALID_SHIFT_TIME", err.Error())
	}
	if !end.After(start) {
		return nil, invalid("INVALID_SHIFT_TIME", "end_time must be after start_time")
	}

	date := model.NewDate(day)
	existing, err := s.employees.ListShifts(ctx, e.ID, date, date)
	if err != nil {
		return nil, fmt.Errorf("load shifts: %w", err)
	}
	for _, sh := range existing {
		if model.Overlaps(start, end, sh.StartTime, sh.EndTime) {
			return nil, conflict("SHIFT_OVERLAP", "shift overlaps an existing shift on the same date")
		}
	}

	return s.employees.AddShift(ctx, &model.Shift{
		EmployeeID: e.ID,
		WorkDate:   date,
		StartTime:  start,
		EndTime:    end,
	})
}

// clockOn places an "HH:MM" wall-clock time on day.
func clockOn(day time.Time, hhmm string) (time.Time, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q, expected HH:MM", hhmm)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location()), nil
}

func (s *employeeService) ListShifts(ctx context.Context, code, from, to string) ([]model.Shift, error) {
	e, err := s.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	fromDate := model.NewDate(s.clock.Now())
	if from != "" {
		if fromDate, err = model.ParseDate(from); err != nil {
			return nil, invalid("INVALID_DATE_RANGE", "from must be YYYY-MM-DD")
		}
	}
	toDate := model.Date{Time: fromDate.AddDate(0, 0, 30)}
	if to != "" {
		if toDate, err = model.ParseDate(to); err != nil {
			return nil, invalid("INVALID_DATE_RANGE", "to must be YYYY-MM-DD")
		}
	}
	if toDate.Before(fromDate.Time) {
		return nil, invalid("INVALID_DATE_RANGE", "to must not be before from")
	}
	shifts, err := s.employees.ListShifts(ctx, e.ID, fromDate, toDate)
	if err != nil {
		return nil, err
	}
	if shifts == nil {
		shifts = []model.Shift{}
	}
	return shifts, nil
}

func (s *employeeService) DeleteShift(ctx context.Context, code string, shiftID int) error {
	e, err := s.Get(ctx, code)
	if err != nil {
		return err
	}
	if err := s.employees.DeleteShift(ctx, e.ID, shiftID); err != nil {
		return mapNotFound(err, notFound("SHIFT_NOT_FOUND", fmt.Sprintf("shift %d not found for employee %s", shiftID, e.Code)))
	}
	return nil
}

// phoneAvailable enforces phone uniqueness across patients and employees.
// excludePatientID skips the patient being updated.
func phoneAvailable(ctx context.Context, employees repository.EmployeeRepository, patients repository.PatientRepository, phone string, excludePatientID int) error {
	taken, err := patients.PhoneExists(ctx, phone, excludePatientID)
	if err != nil {
		return fmt.Errorf("check patient phone: %w", err)
	}
	if !taken {
		if taken, err = employees.PhoneExists(ctx, phone); err != nil {
			return fmt.Errorf("check employee phone: %w", err)
		}
	}
	if taken {
		return conflict("PHONE_EXISTS", "phone number is already registered")
	}
	return nil
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
