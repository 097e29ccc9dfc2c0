package model

import (
	"strings"
	"time"
)

// AccountStatus is the lifecycle state of a login account.
type AccountStatus string

const (
	AccountActive              AccountStatus = "ACTIVE"
	AccountInactive            AccountStatus = "INACTIVE"
	AccountLocked              AccountStatus = "LOCKED"
	AccountPendingVerification AccountStatus = "PENDING_VERIFICATION"
)

// Account is a login identity. Password holds the bcrypt hash and never leaves the service layer.
type Account struct {
	ID                 string        `json:"account_id"`
	Code               string        `json:"account_code"`
	Username           string        `json:"username"`
	Password           string        `json:"-"`
	Email              string        `json:"email"`
	Status             AccountStatus `json:"status"`
	MustChangePassword bool          `json:"must_change_password"`
	RoleID             string        `json:"role_id"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// RefreshToken is the persisted half of a refresh JWT; only the sha256 hash is stored.
type RefreshToken struct {
	ID        string
	AccountID string
	TokenHash string
	ExpiresAt time.Time
	IsActive  bool
	CreatedAt time.Time
}

// Role identifiers.
const (
	RoleAdmin        = "ROLE_ADMIN"
	RoleManager      = "ROLE_MANAGER"
	RoleDoctor       = "ROLE_DOCTOR"
	RoleNurse        = "ROLE_NURSE"
	RoleReceptionist = "ROLE_RECEPTIONIST"
	RolePatient      = "ROLE_PATIENT"
)

// Permission identifiers.
const (
	PermViewPatient             = "VIEW_PATIENT"
	PermManagePatient           = "MANAGE_PATIENT"
	PermDeletePatient           = "DELETE_PATIENT"
	PermViewEmployee            = "VIEW_EMPLOYEE"
	PermManageEmployee          = "MANAGE_EMPLOYEE"
	PermViewService             = "VIEW_SERVICE"
	PermManageService           = "MANAGE_SERVICE"
	PermViewRoom                = "VIEW_ROOM"
	PermManageRoom              = "MANAGE_ROOM"
	PermViewAppointmentAll      = "VIEW_APPOINTMENT_ALL"
	PermCreateAppointment       = "CREATE_APPOINTMENT"
	PermUpdateAppointmentStatus = "UPDATE_APPOINTMENT_STATUS"
	PermManageAppointment       = "MANAGE_APPOINTMENT"
	PermPatientImageRead        = "PATIENT_IMAGE_READ"
	PermManagePatientImages     = "MANAGE_PATIENT_IMAGES"
)

type Role struct {
	ID          string `json:"role_id"`
	Name        string `json:"role_name"`
	Description string `json:"description"`
}

type Permission struct {
	ID          string `json:"permission_id"`
	Module      string `json:"module"`
	Description string `json:"description"`
}

var SeedRoles = []Role{
	{ID: RoleAdmin, Name: "Administrator", Description: "Full system access"},
	{ID: RoleManager, Name: "Manager", Description: "Clinic operations manager"},
	{ID: RoleDoctor, Name: "Doctor", Description: "Dentist"},
	{ID: RoleNurse, Name: "Nurse", Description: "Dental nurse or assistant"},
	{ID: RoleReceptionist, Name: "Receptionist", Description: "Front desk"},
	{ID: RolePatient, Name: "Patient", Description: "Patient self-service"},
}

var SeedPermissions = []Permission{
	{ID: PermViewPatient, Module: "PATIENT", Description: "View patients"},
	{ID: PermManagePatient, Module: "PATIENT", Description: "Create and update patients"},
	{ID: PermDeletePatient, Module: "PATIENT", Description: "Deactivate patients"},
	{ID: PermViewEmployee, Module: "EMPLOYEE", Description: "View employees"},
	{ID: PermManageEmployee, Module: "EMPLOYEE", Description: "Manage employees and shifts"},
	{ID: PermViewService, Module: "SERVICE", Description: "View dental services"},
	{ID: PermManageService, Module: "SERVICE", Description: "Manage dental services"},
	{ID: PermViewRoom, Module: "ROOM", Description: "View rooms"},
	{ID: PermManageRoom, Module: "ROOM", Description: "Manage rooms"},
	{ID: PermViewAppointmentAll, Module: "APPOINTMENT", Description: "View all appointments"},
	{ID: PermCreateAppointment, Module: "APPOINTMENT", Description: "Book appointments"},
	{ID: PermUpdateAppointmentStatus, Module: "APPOINTMENT", Description: "Change appointment status"},
	{ID: PermManageAppointment, Module: "APPOINTMENT", Description: "Reschedule appointments"},
	{ID: PermPatientImageRead, Module: "PATIENT_IMAGE", Description: "View patient images"},
	{ID: PermManagePatientImages, Module: "PATIENT_IMAGE", Description: "Upload and delete patient images"},
}

// DefaultRolePermissions is the seeded grant matrix. ROLE_ADMIN bypasses checks and needs no rows.
var DefaultRolePermissions = map[string][]string{
	RoleManager: {
		PermViewPatient, PermManagePatient, PermDeletePatient,
		PermViewEmployee, PermManageEmployee,
		PermViewService, PermManageService,
		PermViewRoom, PermManageRoom,
		PermViewAppointmentAll, PermCreateAppointment, PermUpdateAppointmentStatus, PermManageAppointment,
		PermPatientImageRead, PermManagePatientImages,
	},
	RoleDoctor: {
		PermViewPatient, PermViewEmployee, PermViewService, PermViewRoom,
		PermViewAppointmentAll, PermUpdateAppointmentStatus,
		PermPatientImageRead, PermManagePatientImages,
	},
	RoleNurse: {
		PermViewPatient, PermViewService, PermViewRoom,
		PermViewAppointmentAll, PermUpdateAppointmentStatus, PermPatientImageRead,
	},
	RoleReceptionist: {
		PermViewPatient, PermManagePatient, PermViewEmployee, PermViewService, PermViewRoom,
		PermViewAppointmentAll, PermCreateAppointment, PermUpdateAppointmentStatus, PermManageAppointment,
	},
}

// AccountCodeFor derives a short public account code from the account UUID.
func AccountCodeFor(accountID string) string {
	code := strings.ToUpper(strings.ReplaceAll(accountID, "-", ""))
	if len(code) > 10 {
		code = code[:10]
	}
	return "ACC-" + code
}
