package model

import (
	"fmt"
	"time"
)

type EmploymentType string

const (
	FullTime EmploymentType = "FULL_TIME"
	PartTime EmploymentType = "PART_TIME"
)

// SpecializationStandard marks clinical staff allowed to treat patients.
const SpecializationStandard = "STANDARD"

type Specialization struct {
	ID   int    `json:"specialization_id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

var SeedSpecializations = []Specialization{
	{ID: 1, Code: "ORTHODONTICS", Name: "Orthodontics"},
	{ID: 2, Code: "ENDODONTICS", Name: "Endodontics"},
	{ID: 3, Code: "PERIODONTICS", Name: "Periodontics"},
	{ID: 4, Code: "PROSTHODONTICS", Name: "Prosthodontics"},
	{ID: 5, Code: "ORAL_SURGERY", Name: "Oral and maxillofacial surgery"},
	{ID: 6, Code: "PEDIATRIC", Name: "Pediatric dentistry"},
	{ID: 7, Code: "COSMETIC", Name: "Cosmetic dentistry"},
	{ID: 8, Code: SpecializationStandard, Name: "General dentistry"},
}

type Employee struct {
	ID              int              `json:"employee_id"`
	Code            string           `json:"employee_code"`
	AccountID       *string          `json:"account_id,omitempty"`
	Username        *string          `json:"username,omitempty"`
	FirstName       string           `json:"first_name"`
	LastName        string           `json:"last_name"`
	Phone           *string          `json:"phone,omitempty"`
	EmploymentType  EmploymentType   `json:"employment_type"`
	IsActive        bool             `json:"is_active"`
	Specializations []Specialization `json:"specializations"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

func (e *Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

// HasSpecialization reports whether the employee holds the given specialization id.
func (e *Employee) HasSpecialization(id int) bool {
	for _, s := range e.Specializations {
		if s.ID == id {
			return true
		}
	}
	return false
}

// IsMedicalStaff reports whether the employee holds the STANDARD specialization.
func (e *Employee) IsMedicalStaff() bool {
	for _, s := range e.Specializations {
		if s.Code == SpecializationStandard {
			return true
		}
	}
	return false
}

// EmployeeCodeFor derives the public employee code from its numeric id.
func EmployeeCodeFor(id int) string {
	return fmt.Sprintf("EMP%03d", id)
}

// Shift is a block of working time on a single date.
type Shift struct {
	ID         int       `json:"shift_id"`
	EmployeeID int       `json:"employee_id"`
	WorkDate   Date      `json:"work_date"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	CreatedAt  time.Time `json:"created_at"`
}

// Covers reports whether [start, end] lies within the shift.
func (s Shift) Covers(start, end time.Time) bool {
	return !start.Before(s.StartTime) && !end.After(s.EndTime)
}

// Overlaps reports whether two half-open ranges intersect.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}
