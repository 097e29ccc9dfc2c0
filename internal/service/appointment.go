package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"dentalclinic/internal/logger"
	"dentalclinic/internal/model"
	"dentalclinic/internal/repository"
	"dentalclinic/internal/security"
	"dentalclinic/internal/validation"
)

var errAppointmentNotFound = notFound("APPOINTMENT_NOT_FOUND", "appointment not found")

type CreateAppointmentRequest struct {
	PatientCode          string   `json:"patient_code" validate:"required"`
	EmployeeCode         string   `json:"employee_code" validate:"required"`
	RoomCode             string   `json:"room_code" validate:"required"`
	ServiceCodes         []string `json:"service_codes" validate:"required,min=1,dive,required"`
	AppointmentStartTime string   `json:"appointment_start_time" validate:"required,localdatetime"`
	ParticipantCodes     []string `json:"participant_codes" validate:"dive,required"`
	Notes                string   `json:"notes" validate:"max=1000"`
}

type UpdateStatusRequest struct {
	Status     model.AppointmentStatus `json:"status" validate:"required"`
	ReasonCode model.ReasonCode        `json:"reason_code"`
	Notes      string                  `json:"notes" validate:"max=1000"`
}

type RescheduleRequest struct {
	NewStartTime string           `json:"new_start_time" validate:"required,localdatetime"`
	EmployeeCode string           `json:"employee_code"`
	RoomCode     string           `json:"room_code"`
	ReasonCode   model.ReasonCode `json:"reason_code" validate:"required"`
	Notes        string           `json:"notes" validate:"max=1000"`
}

// AppointmentListParams filters the appointment list. From and To accept either
// "YYYY-MM-DD" or "YYYY-MM-DDTHH:MM:SS" in clinic time; a bare To date is inclusive.
type AppointmentListParams struct {
	Page
	From         string
	To           string
	Statuses     []string
	PatientCode  string
	EmployeeCode string
	RoomCode     string
}

type RescheduleResult struct {
	OldAppointment *model.AppointmentDetail `json:"old_appointment"`
	NewAppointment *model.AppointmentDetail `json:"new_appointment"`
}

// AppointmentService books appointments and drives their lifecycle.
type AppointmentService interface {
	Create(ctx context.Context, p *security.Principal, req CreateAppointmentRequest) (*model.AppointmentDetail, error)
	Get(ctx context.Context, code string) (*model.AppointmentDetail, error)
	List(ctx context.Context, params AppointmentListParams) (*ListResult[model.Appointment], error)
	// UpdateStatus applies one state machine transition under a row lock and updates
	// the patient's no-show streak for NO_SHOW and COMPLETED.
	UpdateStatus(ctx context.Context, p *security.Principal, code string, req UpdateStatusRequest) (*model.AppointmentDetail, error)
	// Reschedule books a replacement for a SCHEDULED appointment and cancels the original.
	Reschedule(ctx context.Context, p *security.Principal, code string, req RescheduleRequest) (*RescheduleResult, error)
	AuditLogs(ctx context.Context, code string) ([]model.AppointmentAuditLog, error)
}

// AppointmentDeps wires an AppointmentService. Logger and Transitions may be nil.
type AppointmentDeps struct {
	Appointments repository.AppointmentRepository
	Patients     repository.PatientRepository
	Employees    repository.EmployeeRepository
	Rooms        repository.RoomRepository
	Services     repository.DentalServiceRepository
	Location     *time.Location
	Logger       logrus.FieldLogger
	// Transitions counts status changes by from/to labels.
	Transitions *prometheus.CounterVec
}

type appointmentService struct {
	appointments repository.AppointmentRepository
	patients     repository.PatientRepository
	employees    repository.EmployeeRepository
	rooms        repository.RoomRepository
	services     repository.DentalServiceRepository
	clock        clock
	log          logrus.FieldLogger
	transitions  *prometheus.CounterVec
}

func NewAppointmentService(d AppointmentDeps) AppointmentService {
	log := d.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &appointmentService{
		appointments: d.Appointments,
		patients:     d.Patients,
		employees:    d.Employees,
		rooms:        d.Rooms,
		services:     d.Services,
		clock:        newClock(d.Location),
		log:          log,
		transitions:  d.Transitions,
	}
}

// bookingInput names the resources of a booking by their public codes.
type bookingInput struct {
	patientCode      string
	employeeCode     string
	roomCode         string
	serviceCodes     []string
	participantCodes []string
	start            string
}

// booking is a fully validated slot ready to persist.
type booking struct {
	patient      *model.Patient
	doctor       *model.Employee
	room         *model.Room
	services     []model.DentalService
	participants []*model.Employee
	start        time.Time
	end          time.Time
	duration     int
}

func (b *booking) serviceIDs() []int {
	ids := make([]int, len(b.services))
	for i, s := range b.services {
		ids[i] = s.ID
	}
	return ids
}

func (b *booking) participantIDs() []int {
	ids := make([]int, len(b.participants))
	for i, e := range b.participants {
		ids[i] = e.ID
	}
	return ids
}

func (s *appointmentService) Create(ctx context.Context, p *security.Principal, req CreateAppointmentRequest) (*model.AppointmentDetail, error) {
	if err := check(req); err != nil {
		return nil, err
	}
	creator, err := s.performer(ctx, p)
	if err != nil {
		return nil, err
	}
	b, err := s.prepare(ctx, bookingInput{
		patientCode:      req.PatientCode,
		employeeCode:     req.EmployeeCode,
		roomCode:         req.RoomCode,
		serviceCodes:     req.ServiceCodes,
		participantCodes: req.ParticipantCodes,
		start:            req.AppointmentStartTime,
	}, 0)
	if err != nil {
		return nil, err
	}

	na := s.newAppointment(b, creator, optional(strings.TrimSpace(req.Notes)), optional(strings.TrimSpace(req.Notes)))
	created, err := s.appointments.Create(ctx, na)
	if err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}
	logger.Event(s.log, "appointment booked", logrus.Fields{
		"component":        "appointment",
		"event":            "create",
		"appointment_code": created.Code,
		"created_by":       creator,
		"status":           "ok",
	})
	return s.detailFromBooking(created, b), nil
}

func (s *appointmentService) newAppointment(b *booking, creator int, notes, auditNotes *string) repository.NewAppointment {
	scheduled := model.StatusScheduled
	return repository.NewAppointment{
		Appointment: &model.Appointment{
			PatientID:               b.patient.ID,
			EmployeeID:              b.doctor.ID,
			RoomID:                  b.room.ID,
			StartTime:               b.start,
			EndTime:                 b.end,
			ExpectedDurationMinutes: b.duration,
			Status:                  model.StatusScheduled,
			Notes:                   notes,
			CreatedBy:               creator,
		},
		ServiceIDs:     b.serviceIDs(),
		ParticipantIDs: b.participantIDs(),
		Audit: &model.AppointmentAuditLog{
			PerformedByEmployeeID: creator,
			ActionType:            model.AuditCreate,
			NewStatus:             &scheduled,
			Notes:                 auditNotes,
		},
	}
}

// performer resolves the employee acting for the principal. Administrators without
// an employee profile act as the system user.
func (s *appointmentService) performer(ctx context.Context, p *security.Principal) (int, error) {
	if p == nil {
		return 0, unauthorized("UNAUTHORIZED", "authentication required")
	}
	if p.IsAdmin() {
		return model.SystemEmployeeID, nil
	}
	e, err := s.employees.FindByUsername(ctx, p.Username)
	if err != nil {
		return 0, mapNotFound(err, invalid("ACCOUNT_NO_EMPLOYEE", "the signed-in account is not linked to an employee"))
	}
	return e.ID, nil
}

// prepare validates resources, qualifications, shifts and conflicts for a booking.
// excludeID removes an appointment being replaced from the conflict checks.
func (s *appointmentService) prepare(ctx context.Context, in bookingInput, excludeID int) (*booking, error) {
	b := &booking{}
	var err error

	if b.patient, err = s.bookablePatient(ctx, in.patientCode); err != nil {
		return nil, err
	}
	if b.doctor, err = s.medicalStaff(ctx, in.employeeCode, "EMPLOYEE"); err != nil {
		return nil, err
	}
	if b.room, err = s.activeRoom(ctx, in.roomCode); err != nil {
		return nil, err
	}
	if b.services, err = s.activeServices(ctx, in.serviceCodes); err != nil {
		return nil, err
	}
	for _, code := range uniqueStrings(in.participantCodes) {
		if code == b.doctor.Code {
			return nil, invalid("PARTICIPANT_IS_DOCTOR", "the doctor cannot also be listed as a participant")
		}
		e, err := s.medicalStaff(ctx, code, "PARTICIPANT")
		if err != nil {
			return nil, err
		}
		b.participants = append(b.participants, e)
	}

	for _, ds := range b.services {
		if ds.SpecializationID != nil && !b.doctor.HasSpecialization(*ds.SpecializationID) {
			return nil, invalid("EMPLOYEE_NOT_QUALIFIED",
				fmt.Sprintf("%s lacks the specialization required by service %s", b.doctor.Code, ds.Code))
		}
	}
	if err := s.roomSupports(ctx, b.room, b.services); err != nil {
		return nil, err
	}

	if b.start, err = time.ParseInLocation(validation.LocalDateTimeLayout, in.start, s.clock.loc); err != nil {
		return nil, invalid("INVALID_START_TIME", "appointment start time must be YYYY-MM-DDTHH:MM:SS")
	}
	if !b.start.After(s.clock.Now()) {
		return nil, invalid("START_TIME_IN_PAST", "appointment start time must be in the future")
	}
	for _, ds := range b.services {
		b.duration += ds.SlotMinutes()
	}
	b.end = b.start.Add(time.Duration(b.duration) * time.Minute)

	if err := s.checkShift(ctx, b.doctor, b.start, b.end, "EMPLOYEE"); err != nil {
		return nil, err
	}
	for _, e := range b.participants {
		if err := s.checkShift(ctx, e, b.start, b.end, "PARTICIPANT"); err != nil {
			return nil, err
		}
	}

	if err := s.checkConflicts(ctx, b, excludeID); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *appointmentService) bookablePatient(ctx context.Context, code string) (*model.Patient, error) {
	p, err := s.patients.FindByCode(ctx, code)
	if err != nil {
		return nil, mapNotFound(err, errPatientNotFound)
	}
	if !p.IsActive {
		return nil, invalid("PATIENT_INACTIVE", "patient "+code+" is inactive")
	}
	if p.IsBlacklisted || p.IsBookingBlocked {
		return nil, locked("PATIENT_BOOKING_BLOCKED", "patient "+code+" is not allowed to book appointments")
	}
	return p, nil
}

// medicalStaff loads an active employee holding the STANDARD specialization.
// role prefixes the error codes (EMPLOYEE or PARTICIPANT).
func (s *appointmentService) medicalStaff(ctx context.Context, code, role string) (*model.Employee, error) {
	nf := notFound(role+"_NOT_FOUND", "employee "+code+" not found")
	e, err := s.employees.FindByCode(ctx, code)
	if err != nil {
		return nil, mapNotFound(err, nf)
	}
	if !e.IsActive {
		return nil, nf
	}
	if !e.IsMedicalStaff() {
		return nil, invalid(role+"_NOT_MEDICAL_STAFF", "employee "+code+" is not medical staff")
	}
	return e, nil
}

func (s *appointmentService) activeRoom(ctx context.Context, code string) (*model.Room, error) {
	r, err := s.rooms.FindByCode(ctx, code)
	if err != nil {
		return nil, mapNotFound(err, errRoomNotFound)
	}
	if !r.IsActive {
		return nil, invalid("ROOM_INACTIVE", "room "+code+" is inactive")
	}
	return r, nil
}

func (s *appointmentService) activeServices(ctx context.Context, codes []string) ([]model.DentalService, error) {
	services, err := servicesByCodes(ctx, s.services, codes)
	if err != nil {
		return nil, err
	}
	var inactive []string
	for _, ds := range services {
		if !ds.IsActive {
			inactive = append(inactive, ds.Code)
		}
	}
	if len(inactive) > 0 {
		return nil, invalid("SERVICES_INACTIVE", "inactive services: "+strings.Join(inactive, ", "))
	}
	return services, nil
}

func (s *appointmentService) roomSupports(ctx context.Context, room *model.Room, services []model.DentalService) error {
	ids, err := s.rooms.ServiceIDs(ctx, room.ID)
	if err != nil {
		return fmt.Errorf("load room services: %w", err)
	}
	supported := make(map[int]bool, len(ids))
	for _, id := range ids {
		supported[id] = true
	}
	var missing []string
	for _, ds := range services {
		if !supported[ds.ID] {
			missing = append(missing, ds.Code)
		}
	}
	if len(missing) > 0 {
		return invalid("ROOM_NOT_COMPATIBLE", fmt.Sprintf("room %s does not support: %s", room.Code, strings.Join(missing, ", ")))
	}
	return nil
}

func (s *appointmentService) checkShift(ctx context.Context, e *model.Employee, start, end time.Time, role string) error {
	day := model.NewDate(start)
	shifts, err := s.employees.ListShifts(ctx, e.ID, day, day)
	if err != nil {
		return fmt.Errorf("load shifts: %w", err)
	}
	if len(shifts) == 0 {
		return invalid(role+"_NOT_SCHEDULED", fmt.Sprintf("%s has no shift on %s", e.Code, day))
	}
	for _, sh := range shifts {
		if sh.Covers(start, end) {
			return nil
		}
	}
	return invalid(role+"_SHIFT_NOT_COVERING",
		fmt.Sprintf("no shift of %s covers %s-%s", e.Code, start.Format("15:04"), end.Format("15:04")))
}

func (s *appointmentService) checkConflicts(ctx context.Context, b *booking, excludeID int) error {
	window := repository.ConflictQuery{Start: b.start, End: b.end, ExcludeID: excludeID}

	if err := s.staffFree(ctx, b.doctor, window, "EMPLOYEE_SLOT_TAKEN"); err != nil {
		return err
	}

	q := window
	q.RoomID = b.room.ID
	if err := s.noConflict(ctx, q, "ROOM_SLOT_TAKEN", "room "+b.room.Code); err != nil {
		return err
	}

	q = window
	q.PatientID = b.patient.ID
	if err := s.noConflict(ctx, q, "PATIENT_HAS_CONFLICT", "patient "+b.patient.Code); err != nil {
		return err
	}

	for _, e := range b.participants {
		if err := s.staffFree(ctx, e, window, "PARTICIPANT_SLOT_TAKEN"); err != nil {
			return err
		}
	}
	return nil
}

// staffFree checks both appointments the employee leads and those they assist on.
func (s *appointmentService) staffFree(ctx context.Context, e *model.Employee, window repository.ConflictQuery, code string) error {
	q := window
	q.EmployeeID = e.ID
	if err := s.noConflict(ctx, q, code, "employee "+e.Code); err != nil {
		return err
	}
	assisting, err := s.appointments.ParticipantConflicts(ctx, e.ID, window)
	if err != nil {
		return fmt.Errorf("check participant conflicts: %w", err)
	}
	if len(assisting) > 0 {
		return conflict(code, fmt.Sprintf("employee %s is assisting on %s at that time", e.Code, assisting[0].Code))
	}
	return nil
}

func (s *appointmentService) noConflict(ctx context.Context, q repository.ConflictQuery, code, subject string) error {
	found, err := s.appointments.FindConflicts(ctx, q)
	if err != nil {
		return fmt.Errorf("check conflicts: %w", err)
	}
	if len(found) > 0 {
		return conflict(code, fmt.Sprintf("%s is already booked by %s at that time", subject, found[0].Code))
	}
	return nil
}

func (s *appointmentService) Get(ctx context.Context, code string) (*model.AppointmentDetail, error) {
	a, err := s.find(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.loadDetail(ctx, a)
}

func (s *appointmentService) find(ctx context.Context, code string) (*model.Appointment, error) {
	a, err := s.appointments.FindByCode(ctx, code)
	if err != nil {
		return nil, mapNotFound(err, errAppointmentNotFound)
	}
	return a, nil
}

func (s *appointmentService) List(ctx context.Context, params AppointmentListParams) (*ListResult[model.Appointment], error) {
	pq, page := params.Page.PageQuery()
	f := repository.AppointmentFilter{}

	var err error
	if f.From, err = s.parseBound(params.From, false); err != nil {
		return nil, err
	}
	if f.To, err = s.parseBound(params.To, true); err != nil {
		return nil, err
	}
	for _, st := range params.Statuses {
		status := model.AppointmentStatus(strings.ToUpper(strings.TrimSpace(st)))
		if status == "" {
			continue
		}
		if !status.Valid() {
			return nil, invalid("INVALID_STATUS", "unknown appointment status "+st)
		}
		f.Statuses = append(f.Statuses, status)
	}
	if params.PatientCode != "" {
		p, err := s.patients.FindByCode(ctx, params.PatientCode)
		if err != nil {
			return nil, mapNotFound(err, errPatientNotFound)
		}
		f.PatientID = p.ID
	}
	if params.EmployeeCode != "" {
		e, err := s.employees.FindByCode(ctx, params.EmployeeCode)
		if err != nil {
			return nil, mapNotFound(err, errEmployeeNotFound)
		}
		f.EmployeeID = e.ID
	}
	if params.RoomCode != "" {
		r, err := s.rooms.FindByCode(ctx, params.RoomCode)
		if err != nil {
			return nil, mapNotFound(err, errRoomNotFound)
		}
		f.RoomID = r.ID
	}

	res, err := s.appointments.List(ctx, f, pq)
	if err != nil {
		return nil, err
	}
	for i := range res.Items {
		s.localize(&res.Items[i])
	}
	return newListResult(res, page), nil
}

// parseBound parses a list filter bound. A date-only upper bound covers the whole day.
func (s *appointmentService) parseBound(v string, upper bool) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	if t, err := time.ParseInLocation(validation.LocalDateTimeLayout, v, s.clock.loc); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation(model.DateLayout, v, s.clock.loc)
	if err != nil {
		return nil, invalid("INVALID_DATE_RANGE", "date filters must be YYYY-MM-DD or YYYY-MM-DDTHH:MM:SS")
	}
	if upper {
		t = t.AddDate(0, 0, 1)
	}
	return &t, nil
}

func (s *appointmentService) UpdateStatus(ctx context.Context, p *security.Principal, code string, req UpdateStatusRequest) (*model.AppointmentDetail, error) {
	if err := check(req); err != nil {
		return nil, err
	}
	to := req.Status
	if !to.Valid() {
		return nil, invalid("INVALID_STATUS", "unknown appointment status "+string(to))
	}
	reason, err := reasonFor(to, req.ReasonCode)
	if err != nil {
		return nil, err
	}
	performer, err := s.performer(ctx, p)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	var from model.AppointmentStatus
	a, err := s.appointments.UpdateStatus(ctx, code, func(a *model.Appointment, pt *model.Patient) (*model.AppointmentAuditLog, error) {
		from = a.Status
		if !from.CanTransitionTo(to) {
			return nil, invalidTransition(from, to)
		}
		a.Status = to
		switch to {
		case model.StatusInProgress:
			a.ActualStartTime = &now
		case model.StatusCompleted:
			a.ActualEndTime = &now
			pt.ResetNoShows()
		case model.StatusNoShow:
			pt.RecordNoShow(now)
		}
		return &model.AppointmentAuditLog{
			PerformedByEmployeeID: performer,
			ActionType:            model.AuditStatusChange,
			OldStatus:             &from,
			NewStatus:             &to,
			ReasonCode:            reason,
			Notes:                 optional(strings.TrimSpace(req.Notes)),
		}, nil
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errAppointmentNotFound
		}
		if _, ok := AsError(err); ok {
			return nil, err
		}
		return nil, fmt.Errorf("update appointment status: %w", err)
	}

	s.recordTransition(code, from, to, performer)
	return s.loadDetail(ctx, a)
}

// reasonFor validates the optional reason code. Cancellation requires one.
func reasonFor(to model.AppointmentStatus, rc model.ReasonCode) (*model.ReasonCode, error) {
	if rc == "" {
		if to == model.StatusCancelled {
			return nil, invalid("REASON_CODE_REQUIRED", "a reason code is required to cancel an appointment")
		}
		return nil, nil
	}
	if !rc.Valid() {
		return nil, invalid("INVALID_REASON_CODE", "unknown reason code "+string(rc))
	}
	return &rc, nil
}

func invalidTransition(from, to model.AppointmentStatus) *Error {
	allowed := from.AllowedTransitions()
	names := make([]string, len(allowed))
	for i, st := range allowed {
		names[i] = string(st)
	}
	msg := fmt.Sprintf("cannot change status from %s to %s", from, to)
	if len(names) > 0 {
		msg += "; allowed: " + strings.Join(names, ", ")
	}
	return invalid("INVALID_STATE_TRANSITION", msg)
}

func (s *appointmentService) recordTransition(code string, from, to model.AppointmentStatus, performer int) {
	if s.transitions != nil {
		s.transitions.WithLabelValues(string(from), string(to)).Inc()
	}
	logger.Event(s.log, "appointment status changed", logrus.Fields{
		"component":        "appointment",
		"event":            "status_change",
		"appointment_code": code,
		"from":             from,
		"to":               to,
		"performed_by":     performer,
		"status":           "ok",
	})
}

func (s *appointmentService) Reschedule(ctx context.Context, p *security.Principal, code string, req RescheduleRequest) (*RescheduleResult, error) {
	if err := check(req); err != nil {
		return nil, err
	}
	if !req.ReasonCode.Valid() {
		return nil, invalid("INVALID_REASON_CODE", "unknown reason code "+string(req.ReasonCode))
	}
	old, err := s.find(ctx, code)
	if err != nil {
		return nil, err
	}
	if old.Status != model.StatusScheduled {
		return nil, invalid("APPOINTMENT_NOT_RESCHEDULABLE", "only SCHEDULED appointments can be rescheduled; current status is "+string(old.Status))
	}
	performer, err := s.performer(ctx, p)
	if err != nil {
		return nil, err
	}

	in, err := s.rescheduleInput(ctx, old, req)
	if err != nil {
		return nil, err
	}
	b, err := s.prepare(ctx, in, old.ID)
	if err != nil {
		return nil, err
	}

	scheduled, cancelled := model.StatusScheduled, model.StatusCancelled
	reason := req.ReasonCode
	cancelNotes := "Rescheduled to " + b.start.Format(validation.LocalDateTimeLayout)
	if n := strings.TrimSpace(req.Notes); n != "" {
		cancelNotes += ": " + n
	}
	cancelAudit := &model.AppointmentAuditLog{
		PerformedByEmployeeID: performer,
		ActionType:            model.AuditReschedule,
		OldStatus:             &scheduled,
		NewStatus:             &cancelled,
		ReasonCode:            &reason,
		Notes:                 &cancelNotes,
	}
	na := s.newAppointment(b, performer, old.Notes, ptr("Rescheduled from "+old.Code))

	created, err := s.appointments.Reschedule(ctx, old.ID, cancelAudit, na)
	if err != nil {
		if errors.Is(err, repository.ErrStaleState) {
			return nil, conflict("APPOINTMENT_STATE_CHANGED", "appointment "+old.Code+" changed status while rescheduling")
		}
		return nil, fmt.Errorf("reschedule appointment: %w", err)
	}
	s.recordTransition(old.Code, model.StatusScheduled, model.StatusCancelled, performer)

	old.Status = model.StatusCancelled
	oldDetail, err := s.loadDetail(ctx, old)
	if err != nil {
		return nil, err
	}
	return &RescheduleResult{
		OldAppointment: oldDetail,
		NewAppointment: s.detailFromBooking(created, b),
	}, nil
}

// rescheduleInput carries over the old booking's resources unless the request overrides them.
func (s *appointmentService) rescheduleInput(ctx context.Context, old *model.Appointment, req RescheduleRequest) (bookingInput, error) {
	in := bookingInput{employeeCode: req.EmployeeCode, roomCode: req.RoomCode, start: req.NewStartTime}

	pt, err := s.patients.FindByID(ctx, old.PatientID)
	if err != nil {
		return in, fmt.Errorf("load patient: %w", err)
	}
	in.patientCode = pt.Code

	if in.employeeCode == "" {
		doc, err := s.employees.FindByID(ctx, old.EmployeeID)
		if err != nil {
			return in, fmt.Errorf("load doctor: %w", err)
		}
		in.employeeCode = doc.Code
	}
	if in.roomCode == "" {
		room, err := s.rooms.FindByID(ctx, old.RoomID)
		if err != nil {
			return in, fmt.Errorf("load room: %w", err)
		}
		in.roomCode = room.Code
	}

	services, err := s.servicesOf(ctx, old.ID)
	if err != nil {
		return in, err
	}
	for _, ds := range services {
		in.serviceCodes = append(in.serviceCodes, ds.Code)
	}
	participants, err := s.participantsOf(ctx, old.ID)
	if err != nil {
		return in, err
	}
	for _, e := range participants {
		in.participantCodes = append(in.participantCodes, e.Code)
	}
	return in, nil
}

func (s *appointmentService) AuditLogs(ctx context.Context, code string) ([]model.AppointmentAuditLog, error) {
	a, err := s.find(ctx, code)
	if err != nil {
		return nil, err
	}
	logs, err := s.appointments.ListAuditLogs(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	if logs == nil {
		logs = []model.AppointmentAuditLog{}
	}
	for i := range logs {
		logs[i].CreatedAt = logs[i].CreatedAt.In(s.clock.loc)
	}
	return logs, nil
}

func (s *appointmentService) servicesOf(ctx context.Context, appointmentID int) ([]model.DentalService, error) {
	ids, err := s.appointments.ServiceIDs(ctx, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("load appointment services: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return s.services.FindByIDs(ctx, ids)
}

func (s *appointmentService) participantsOf(ctx context.Context, appointmentID int) ([]*model.Employee, error) {
	parts, err := s.appointments.Participants(ctx, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("load participants: %w", err)
	}
	out := make([]*model.Employee, 0, len(parts))
	for _, pa := range parts {
		e, err := s.employees.FindByID(ctx, pa.EmployeeID)
		if err != nil {
			return nil, fmt.Errorf("load participant %d: %w", pa.EmployeeID, err)
		}
		out = append(out, e)
	}
	return out, nil
}

// localize presents stored instants in clinic time.
func (s *appointmentService) localize(a *model.Appointment) {
	a.StartTime = a.StartTime.In(s.clock.loc)
	a.EndTime = a.EndTime.In(s.clock.loc)
	if a.ActualStartTime != nil {
		a.ActualStartTime = ptr(a.ActualStartTime.In(s.clock.loc))
	}
	if a.ActualEndTime != nil {
		a.ActualEndTime = ptr(a.ActualEndTime.In(s.clock.loc))
	}
}

func (s *appointmentService) detailFromBooking(a *model.Appointment, b *booking) *model.AppointmentDetail {
	return s.detail(a, b.patient, b.doctor, b.room, b.services, b.participants)
}

func (s *appointmentService) loadDetail(ctx context.Context, a *model.Appointment) (*model.AppointmentDetail, error) {
	pt, err := s.patients.FindByID(ctx, a.PatientID)
	if err != nil {
		return nil, fmt.Errorf("load patient: %w", err)
	}
	doc, err := s.employees.FindByID(ctx, a.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("load doctor: %w", err)
	}
	room, err := s.rooms.FindByID(ctx, a.RoomID)
	if err != nil {
		return nil, fmt.Errorf("load room: %w", err)
	}
	services, err := s.servicesOf(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	participants, err := s.participantsOf(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	return s.detail(a, pt, doc, room, services, participants), nil
}

func (s *appointmentService) detail(a *model.Appointment, pt *model.Patient, doc *model.Employee, room *model.Room, services []model.DentalService, participants []*model.Employee) *model.AppointmentDetail {
	s.localize(a)
	d := &model.AppointmentDetail{
		Appointment:  *a,
		Patient:      &model.PatientSummary{Code: pt.Code, FullName: pt.FullName(), Phone: pt.Phone},
		Doctor:       &model.EmployeeSummary{Code: doc.Code, FullName: doc.FullName()},
		Room:         &model.RoomSummary{Code: room.Code, Name: room.Name},
		Services:     make([]model.ServiceSummary, 0, len(services)),
		Participants: make([]model.EmployeeSummary, 0, len(participants)),
	}
	for _, ds := range services {
		d.Services = append(d.Services, model.ServiceSummary{
			Code:            ds.Code,
			Name:            ds.Name,
			DurationMinutes: ds.DefaultDurationMinutes,
			BufferMinutes:   ds.DefaultBufferMinutes,
		})
	}
	for _, e := range participants {
		d.Participants = append(d.Participants, model.EmployeeSummary{
			Code:     e.Code,
			FullName: e.FullName(),
			Role:     string(model.ParticipantAssistant),
		})
	}
	return d
}
