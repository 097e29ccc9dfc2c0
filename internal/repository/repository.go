// Package repository declares the persistence contracts used by services.
// Implementations live in subpackages (mysql). Missing rows are reported as sql.ErrNoRows.
package repository

import (
	"errors"
	"time"

	"dentalclinic/internal/model"
)

// ErrStaleState is returned when a conditional write finds the row in an unexpected state.
var ErrStaleState = errors.New("row state changed concurrently")

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}

// PatientListQuery filters and orders the patient list.
type PatientListQuery struct {
	PageQuery
	Search          string
	SortColumn      string
	Descending      bool
	IncludeInactive bool
}

// ServiceListQuery filters the dental service catalog.
type ServiceListQuery struct {
	PageQuery
	Search     string
	ActiveOnly bool
}

// ConflictQuery selects active appointments overlapping [Start, End) for one resource.
// Exactly one of EmployeeID, RoomID or PatientID should be set.
type ConflictQuery struct {
	EmployeeID int
	RoomID     string
	PatientID  int
	Start      time.Time
	End        time.Time
	ExcludeID  int
}

// AppointmentFilter narrows the appointment list.
type AppointmentFilter struct {
	From       *time.Time
	To         *time.Time
	Statuses   []model.AppointmentStatus
	PatientID  int
	EmployeeID int
	RoomID     string
}

// NewAppointment bundles everything persisted when booking.
type NewAppointment struct {
	Appointment    *model.Appointment
	ServiceIDs     []int
	ParticipantIDs []int
	Audit          *model.AppointmentAuditLog
}

// StatusMutation is invoked with the locked appointment and its patient. It mutates
// both in place and returns the audit entry to write.
type StatusMutation func(a *model.Appointment, p *model.Patient) (*model.AppointmentAuditLog, error)
