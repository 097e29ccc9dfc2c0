package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"dentalclinic/internal/config"
	"dentalclinic/internal/http/middleware"
	"dentalclinic/internal/model"
	"dentalclinic/internal/security"
	"dentalclinic/internal/service"
)

// Deps carries everything RegisterRoutes wires into the router.
type Deps struct {
	DB *sql.DB
	// HealthChecks are pinged by /health in addition to the database.
	HealthChecks []Pinger

	Tokens    *security.TokenManager
	Blacklist security.TokenBlacklist
	LoginRate config.RateLimitConfig

	Auth         service.AuthService
	Employees    service.EmployeeService
	Patients     service.PatientService
	Services     service.DentalServiceService
	Rooms        service.RoomService
	Appointments service.AppointmentService
	Images       service.PatientImageService
}

// RegisterRoutes attaches the health endpoints and the /api/v1 surface to app.
// Everything under /api/v1 except login and refresh requires a bearer token.
func RegisterRoutes(app *fiber.App, d Deps) {
	app.Get("/health", HealthCheck(d.DB, d.HealthChecks...))
	app.Get("/healthz", Liveness())

	api := app.Group("/api/v1", middleware.NoStore())

	auth := api.Group("/auth")
	auth.Post("/login", middleware.RateLimit(d.LoginRate.LoginPerMinute, d.LoginRate.Burst), Login(d.Auth))
	auth.Post("/refresh-token", RefreshToken(d.Auth))

	authed := middleware.Auth(d.Tokens, d.Blacklist)
	can := middleware.RequireAny

	auth.Post("/logout", authed, Logout(d.Auth))
	auth.Get("/my-info", authed, MyInfo(d.Auth))
	auth.Post("/change-password", authed, ChangePassword(d.Auth))

	employees := api.Group("/employees", authed)
	employees.Get("/", can(model.PermViewEmployee), ListEmployees(d.Employees))
	employees.Post("/", can(model.PermManageEmployee), CreateEmployee(d.Employees))
	employees.Get("/:code", can(model.PermViewEmployee), GetEmployee(d.Employees))
	employees.Delete("/:code", can(model.PermManageEmployee), DeactivateEmployee(d.Employees))
	employees.Get("/:code/shifts", can(model.PermViewEmployee), ListShifts(d.Employees))
	employees.Post("/:code/shifts", can(model.PermManageEmployee), AddShift(d.Employees))
	employees.Delete("/:code/shifts/:id", can(model.PermManageEmployee), DeleteShift(d.Employees))

	patients := api.Group("/patients", authed)
	patients.Get("/", can(model.PermViewPatient), ListPatients(d.Patients))
	patients.Post("/", can(model.PermManagePatient), CreatePatient(d.Patients))
	patients.Post("/duplicate-check", can(model.PermViewPatient), CheckDuplicatePatients(d.Patients))
	patients.Get("/:code", can(model.PermViewPatient), GetPatient(d.Patients))
	patients.Patch("/:code", can(model.PermManagePatient), UpdatePatient(d.Patients))
	patients.Delete("/:code", can(model.PermDeletePatient), DeletePatient(d.Patients))
	patients.Post("/:code/blacklist", can(model.PermManagePatient), BlacklistPatient(d.Patients))
	patients.Delete("/:code/blacklist", can(model.PermManagePatient), RemovePatientFromBlacklist(d.Patients))
	patients.Post("/:code/unban", can(model.PermManagePatient), UnbanPatient(d.Patients))
	patients.Get("/:code/images", can(model.PermPatientImageRead), ListPatientImages(d.Images))
	patients.Post("/:code/images", can(model.PermManagePatientImages), UploadPatientImage(d.Images))

	images := api.Group("/patient-images", authed)
	images.Get("/:id", can(model.PermPatientImageRead), GetPatientImage(d.Images))
	images.Get("/:id/content", can(model.PermPatientImageRead), DownloadPatientImage(d.Images))
	images.Delete("/:id", can(model.PermManagePatientImages), DeletePatientImage(d.Images))

	services := api.Group("/services", authed)
	services.Get("/", can(model.PermViewService), ListDentalServices(d.Services))
	services.Post("/", can(model.PermManageService), CreateDentalService(d.Services))
	services.Get("/:code", can(model.PermViewService), GetDentalService(d.Services))
	services.Patch("/:code", can(model.PermManageService), UpdateDentalService(d.Services))
	services.Delete("/:code", can(model.PermManageService), DeactivateDentalService(d.Services))
	services.Post("/:code/activate", can(model.PermManageService), ActivateDentalService(d.Services))

	rooms := api.Group("/rooms", authed)
	rooms.Get("/", can(model.PermViewRoom), ListRooms(d.Rooms))
	rooms.Post("/", can(model.PermManageRoom), CreateRoom(d.Rooms))
	rooms.Get("/:code", can(model.PermViewRoom), GetRoom(d.Rooms))
	rooms.Patch("/:code", can(model.PermManageRoom), UpdateRoom(d.Rooms))
	rooms.Delete("/:code", can(model.PermManageRoom), DeactivateRoom(d.Rooms))
	rooms.Get("/:code/services", can(model.PermViewRoom), ListRoomServices(d.Rooms))
	rooms.Put("/:code/services", can(model.PermManageRoom), ReplaceRoomServices(d.Rooms))

	appointments := api.Group("/appointments", authed)
	appointments.Get("/", can(model.PermViewAppointmentAll), ListAppointments(d.Appointments))
	appointments.Post("/", can(model.PermCreateAppointment), CreateAppointment(d.Appointments))
	appointments.Get("/:code", can(model.PermViewAppointmentAll), GetAppointment(d.Appointments))
	appointments.Get("/:code/audit-logs", can(model.PermViewAppointmentAll), AppointmentAuditLogs(d.Appointments))
	appointments.Patch("/:code/status", can(model.PermUpdateAppointmentStatus), UpdateAppointmentStatus(d.Appointments))
	appointments.Post("/:code/reschedule", can(model.PermManageAppointment), RescheduleAppointment(d.Appointments))
}
