package repository

import (
	"context"

	"dentalclinic/internal/model"
)

// AppointmentRepository persists appointments, their services, participants and audit trail.
type AppointmentRepository interface {
	// Create assigns the next daily appointment code and writes the appointment,
	// its services, participants and audit entry in one transaction.
	Create(ctx context.Context, na NewAppointment) (*model.Appointment, error)
	FindByCode(ctx context.Context, code string) (*model.Appointment, error)
	List(ctx context.Context, f AppointmentFilter, pq PageQuery) (*PageResult[model.Appointment], error)

	// FindConflicts returns active appointments overlapping the query window.
	FindConflicts(ctx context.Context, q ConflictQuery) ([]model.Appointment, error)
	// ParticipantConflicts returns active appointments where the employee assists during the window.
	ParticipantConflicts(ctx context.Context, employeeID int, q ConflictQuery) ([]model.Appointment, error)

	ServiceIDs(ctx context.Context, appointmentID int) ([]int, error)
	Participants(ctx context.Context, appointmentID int) ([]model.AppointmentParticipant, error)

	// UpdateStatus locks the appointment and its patient, applies fn and persists the result.
	UpdateStatus(ctx context.Context, code string, fn StatusMutation) (*model.Appointment, error)
	// Reschedule cancels the SCHEDULED appointment oldID and books na in one transaction.
	// ErrStaleState is returned when the old appointment is no longer SCHEDULED.
	Reschedule(ctx context.Context, oldID int, cancelAudit *model.AppointmentAuditLog, na NewAppointment) (*model.Appointment, error)

	ListAuditLogs(ctx context.Context, appointmentID int) ([]model.AppointmentAuditLog, error)
}
