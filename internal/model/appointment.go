package model

import (
	"fmt"
	"time"
)

// AppointmentStatus is a state in the appointment lifecycle.
type AppointmentStatus string

const (
	StatusScheduled  AppointmentStatus = "SCHEDULED"
	StatusCheckedIn  AppointmentStatus = "CHECKED_IN"
	StatusInProgress AppointmentStatus = "IN_PROGRESS"
	StatusCompleted  AppointmentStatus = "COMPLETED"
	StatusCancelled  AppointmentStatus = "CANCELLED"
	StatusNoShow     AppointmentStatus = "NO_SHOW"
)

var transitions = map[AppointmentStatus][]AppointmentStatus{
	StatusScheduled:  {StatusCheckedIn, StatusCancelled, StatusNoShow},
	StatusCheckedIn:  {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

// ActiveStatuses are the statuses that occupy a time slot.
var ActiveStatuses = []AppointmentStatus{StatusScheduled, StatusCheckedIn, StatusInProgress}

func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusCheckedIn, StatusInProgress, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed.
func (s AppointmentStatus) Terminal() bool {
	return len(transitions[s]) == 0
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// AllowedTransitions lists the legal successors of s.
func (s AppointmentStatus) AllowedTransitions() []AppointmentStatus {
	return append([]AppointmentStatus(nil), transitions[s]...)
}

// ReasonCode explains a cancellation or reschedule.
type ReasonCode string

const (
	ReasonPreviousCaseOverrun ReasonCode = "PREVIOUS_CASE_OVERRUN"
	ReasonDoctorUnavailable   ReasonCode = "DOCTOR_UNAVAILABLE"
	ReasonEquipmentFailure    ReasonCode = "EQUIPMENT_FAILURE"
	ReasonPatientRequest      ReasonCode = "PATIENT_REQUEST"
	ReasonOperationalRedirect ReasonCode = "OPERATIONAL_REDIRECT"
	ReasonOther               ReasonCode = "OTHER"
)

func (r ReasonCode) Valid() bool {
	switch r {
	case ReasonPreviousCaseOverrun, ReasonDoctorUnavailable, ReasonEquipmentFailure,
		ReasonPatientRequest, ReasonOperationalRedirect, ReasonOther:
		return true
	}
	return false
}

type AuditAction string

const (
	AuditCreate       AuditAction = "CREATE"
	AuditStatusChange AuditAction = "STATUS_CHANGE"
	AuditReschedule   AuditAction = "RESCHEDULE"
)

// ParticipantRole is the role of an additional staff member on an appointment.
type ParticipantRole string

const ParticipantAssistant ParticipantRole = "ASSISTANT"

// SystemEmployeeID is recorded as creator/performer for actions taken by administrators
// without an employee profile.
const SystemEmployeeID = 0

type Appointment struct {
	ID                      int               `json:"appointment_id"`
	Code                    string            `json:"appointment_code"`
	PatientID               int               `json:"patient_id"`
	EmployeeID              int               `json:"employee_id"`
	RoomID                  string            `json:"room_id"`
	StartTime               time.Time         `json:"appointment_start_time"`
	EndTime                 time.Time         `json:"appointment_end_time"`
	ExpectedDurationMinutes int               `json:"expected_duration_minutes"`
	Status                  AppointmentStatus `json:"status"`
	ActualStartTime         *time.Time        `json:"actual_start_time,omitempty"`
	ActualEndTime           *time.Time        `json:"actual_end_time,omitempty"`
	Notes                   *string           `json:"notes,omitempty"`
	CreatedBy               int               `json:"created_by"`
	CreatedAt               time.Time         `json:"created_at"`
	UpdatedAt               time.Time         `json:"updated_at"`
}

type AppointmentParticipant struct {
	AppointmentID int             `json:"appointment_id"`
	EmployeeID    int             `json:"employee_id"`
	Role          ParticipantRole `json:"role"`
}

type AppointmentAuditLog struct {
	ID                    int                `json:"log_id"`
	AppointmentID         int                `json:"appointment_id"`
	PerformedByEmployeeID int                `json:"performed_by_employee_id"`
	ActionType            AuditAction        `json:"action_type"`
	OldStatus             *AppointmentStatus `json:"old_status,omitempty"`
	NewStatus             *AppointmentStatus `json:"new_status,omitempty"`
	ReasonCode            *ReasonCode        `json:"reason_code,omitempty"`
	Notes                 *string            `json:"notes,omitempty"`
	CreatedAt             time.Time          `json:"created_at"`
}

// AppointmentCodePrefix returns "APT-YYYYMMDD-" for the appointment's calendar day.
func AppointmentCodePrefix(start time.Time) string {
	return "APT-" + start.Format("20060102") + "-"
}

// AppointmentCode formats the seq-th appointment code of a day.
func AppointmentCode(start time.Time, seq int) string {
	return fmt.Sprintf("%s%03d", AppointmentCodePrefix(start), seq)
}

// AppointmentDetail is the denormalized read model returned by the API.
type AppointmentDetail struct {
	Appointment
	Patient      *PatientSummary   `json:"patient"`
	Doctor       *EmployeeSummary  `json:"doctor"`
	Room         *RoomSummary      `json:"room"`
	Services     []ServiceSummary  `json:"services"`
	Participants []EmployeeSummary `json:"participants"`
}

type PatientSummary struct {
	Code     string  `json:"patient_code"`
	FullName string  `json:"full_name"`
	Phone    *string `json:"phone,omitempty"`
}

type EmployeeSummary struct {
	Code     string `json:"employee_code"`
	FullName string `json:"full_name"`
	Role     string `json:"role,omitempty"`
}

type RoomSummary struct {
	Code string `json:"room_code"`
	Name string `json:"room_name"`
}

type ServiceSummary struct {
	Code            string `json:"service_code"`
	Name            string `json:"service_name"`
	DurationMinutes int    `json:"duration_minutes"`
	BufferMinutes   int    `json:"buffer_minutes"`
}
