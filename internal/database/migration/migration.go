package migration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"dentalclinic/internal/config"
	"dentalclinic/internal/logger"
	"dentalclinic/internal/model"
	"dentalclinic/internal/security"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_table_roles",
		SQL: `CREATE TABLE IF NOT EXISTS roles (
  role_id     VARCHAR(50)  NOT NULL PRIMARY KEY,
  role_name   VARCHAR(100) NOT NULL,
  description VARCHAR(255) NULL
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
	{
		Name: "create_table_permissions",
		SQL: `CREATE TABLE IF NOT EXISTS permissions (
  permission_id VARCHAR(50)  NOT NULL PRIMARY KEY,
  module        VARCHAR(50)  NOT NULL,
  description   VARCHAR(255) NULL
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
	{
		Name: "create_table_role_permissions",
		SQL: `CREATE TABLE IF NOT EXISTS role_permissions (
  role_id       VARCHAR(50) NOT NULL,
  permission_id VARCHAR(50) NOT NULL,
  PRIMARY KEY (role_id, permission_id),
  CONSTRAINT fk_rp_role FOREIGN KEY (role_id) REFERENCES roles (role_id),
  CONSTRAINT fk_rp_permission FOREIGN KEY (permission_id) REFERENCES permissions (permission_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
	{
		Name: "create_table_accounts",
		SQL: `CREATE TABLE IF NOT EXISTS accounts (
  account_id           CHAR(36)     NOT NULL PRIMARY KEY,
  account_code         VARCHAR(20)  NOT NULL UNIQUE,
  username             VARCHAR(50)  NOT NULL UNIQUE,
  password             VARCHAR(255) NOT NULL,
  email                VARCHAR(100) NOT NULL UNIQUE,
  status               VARCHAR(30)  NOT NULL,
  must_change_password TINYINT(1)   NOT NULL DEFAULT 0,
  role_id              VARCHAR(50)  NOT NULL,
  created_at           DATETIME(6)  NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
  updated_at           DATETIME(6)  NOT NULL DEFAULT CURRENT_TIMESTAMP(6) ON UPDATE CURRENT_TIMESTAMP(6),
  CONSTRAINT fk_accounts_role FOREIGN KEY (role_id) REFERENCES roles (role_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
	{
		Name: "create_table_refresh_tokens",
		SQL: `CREATE TABLE IF NOT EXISTS refresh_tokens (
  id         CHAR(36)    NOT NULL PRIMARY KEY,
  account_id CHAR(36)    NOT NULL,
  token_hash CHAR(64)    NOT NULL UNIQUE,
  expires_at DATETIME(6) NOT NULL,
  is_active  TINYINT(1)  NOT NULL DEFAULT 1,
  created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
  INDEX idx_refresh_tokens_account (account_id),
  CONSTRAINT fk_refresh_tokens_account FOREIGN KEY (account_id) REFERENCES accounts (account_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
	{
		Name: "create_table_specializations",
		SQL: `CREATE TABLE IF NOT EXISTS specializations (
  specialization_id INT          NOT NULL PRIMARY KEY,
  code              VARCHAR(30)  NOT NULL UNIQUE,
  name              VARCHAR(100) NOT NULL
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
	{
		Name: "create_table_employees",
		SQL: `CREATE TABLE IF NOT EXISTS employees (
  employee_id     INT          NOT NULL AUTO_INCREMENT PRIMARY KEY,
  employee_code   VARCHAR(20)  NULL UNIQUE,
  account_id      CHAR(36)     NULL UNIQUE,
  first_name      VARCHAR(50)  NOT NULL,
  last_name       VARCHAR(50)  NOT NULL,
  phone           VARCHAR(15)  NULL UNIQUE,
  employment_type VARCHAR(20)  NOT NULL,
  is_active       TINYINT(1)   NOT NULL DEFAULT 1,
  created_at      DATETIME(6)  NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
  updated_at      DATETIME(6)  NOT NULL DEFAULT CURRENT_TIMESTAMP(6) ON UPDATE CURRENT_TIMESTAMP(6),
  CONSTRAINT fk_employees_account FOREIGN KEY (account_id) REFERENCES accounts (account_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
	{
		Name: "create_table_employee_specializations",
		SQL: `CREATE TABLE IF NOT EXISTS employee_specializations (
  employee_id       INT NOT NULL,
  specialization_id INT NOT NULL,
  PRIMARY KEY (employee_id, specialization_id),
  CONSTRAINT fk_es_employee FOREIGN KEY (employee_id) REFERENCES employees (employee_id),
  CONSTRAINT fk_es_specialization FOREIGN KEY (specialization_id) REFERENCES specializations (specialization_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
	{
		Name: "create_table_employee_shifts",
		SQL: `CREATE TABLE IF NOT EXISTS employee_shifts (
  shift_id    INT         NOT NULL AUTO_INCREMENT PRIMARY KEY,
  employee_id INT         NOT NULL,
  work_date   DATE        NOT NULL,
  start_time  DATETIME    NOT NULL,
  end_time    DATETIME    NOT NULL,
  created_at  DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
  INDEX idx_shifts_employee_date (employee_id, work_date),
  CONSTRAINT fk_shifts_employee FOREIGN KEY (employee_id) REFERENCES employees (employee_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
	{
		Name: "create_table_patients",
		SQL: `CREATE TABLE IF NOT EXISTS patients (
  patient_id              INT          NOT NULL AUTO_INCREMENT PRIMARY KEY,
  patient_code            VARCHAR(20)  NULL UNIQUE,
  account_id              CHAR(36)     NULL UNIQUE,
  first_name              VARCHAR(50)  NOT NULL,
  last_name               VARCHAR(50)  NOT NULL,
  email                   VARCHAR(100) NULL,
  phone                   VARCHAR(15)  NULL,
  date_of_birth           DATE         NULL,
  address                 VARCHAR(255) NULL,
  gender                  VARCHAR(10)  NULL,
  medical_history         TEXT         NULL,
  allergies               TEXT         NULL,
  emergency_contact_name  VARCHAR(100) NULL,
  emergency_contact_phone VARCHAR(15)  NULL,
  guardian_name           VARCHAR(100) NULL,
  guardian_phone          VARCHAR(15)  NULL,
  guardian_relationship   VARCHAR(50)  NULL,
  is_active               TINYINT(1)   NOT NULL DEFAULT 1,
  consecutive_no_shows    INT          NOT NULL DEFAULT 0,
  is_booking_blocked      TINYINT(1)   NOT NULL DEFAULT 0,
  booking_block_reason    VARCHAR(50)  NULL,
  blocked_at              DATETIME(6)  NULL,
  is_blacklisted          TINYINT(1)   NOT NULL DEFAULT 0,
  blacklist_reason        VARCHAR(50)  NULL,
  blacklist_notes         TEXT         NULL,
  blacklisted_by          VARCHAR(50)  NULL,
  blacklisted_at          DATETIME(6)  NULL,
  created_at              DATETIME(6)  NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
  updated_at              DATETIME(6)  NOT NULL DEFAULT CURRENT_TIMESTAMP(6) ON UPDATE CURRENT_TIMESTAMP(6),
  INDEX idx_patients_phone (phone),
  INDEX idx_patients_name (last_name, first_name),
  CONSTRAINT fk_patients_account FOREIGN KEY (account_id) REFERENCES accounts (account_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
	{
		Name: "create_table_services",
		SQL: `CREATE TABLE IF NOT EXISTS services (
  service_id               INT           NOT NULL AUTO_INCREMENT PRIMARY KEY,
  service_code             VARCHAR(50)   NOT NULL UNIQUE,
  service_name             VARCHAR(255)  NOT NULL,
  description              TEXT          NULL,
  default_duration_minutes INT           NOT NULL CHECK (default_duration_minutes >= 1),
  default_buffer_minutes   INT           NOT NULL DEFAULT 0 CHECK (default_buffer_minutes >= 0),
  price                    DECIMAL(15,2) NOT NULL CHECK (price >= 0),
  specialization_id        INT           NULL,
  is_active                TINYINT(1)    NOT NULL DEFAULT 1,
  created_at               DATETIME(6)   NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
  updated_at               DATETIME(6)   NOT NULL DEFAULT CURRENT_TIMESTAMP(6) ON UPDATE CURRENT_TIMESTAMP(6),
  CONSTRAINT fk_services_specialization FOREIGN KEY (specialization_id) REFERENCES specializations (specialization_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
	{
		Name: "create_table_rooms",
		SQL: `CREATE TABLE IF NOT EXISTS rooms (
  room_id    CHAR(36)     NOT NULL PRIMARY KEY,
  room_code  VARCHAR(20)  NOT NULL UNIQUE,
  room_name  VARCHAR(100) NOT NULL,
  room_type  VARCHAR(50)  NULL,
  is_active  TINYINT(1)   NOT NULL DEFAULT 1,
  created_at DATETIME(6)  NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
  updated_at DATETIME(6)  NOT NULL DEFAULT CURRENT_TIMESTAMP(6) ON UPDATE CURRENT_TIMESTAMP(6)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
	{
		Name: "create_table_room_services",
		SQL: `CREATE TABLE IF NOT EXISTS room_services (
  room_id    CHAR(36) NOT NULL,
  service_id INT      NOT NULL,
  PRIMARY KEY (room_id, service_id),
  CONSTRAINT fk_rs_room FOREIGN KEY (room_id) REFERENCES rooms (room_id),
  CONSTRAINT fk_rs_service FOREIGN KEY (service_id) REFERENCES services (service_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
	{
		Name: "create_table_appointments",
		SQL: `CREATE TABLE IF NOT EXISTS appointments (
  appointment_id            INT          NOT NULL AUTO_INCREMENT PRIMARY KEY,
  appointment_code          VARCHAR(20)  NOT NULL UNIQUE,
  patient_id                INT          NOT NULL,
  employee_id               INT          NOT NULL,
  room_id                   CHAR(36)     NOT NULL,
  appointment_start_time    DATETIME     NOT NULL,
  appointment_end_time      DATETIME     NOT NULL,
  expected_duration_minutes INT          NOT NULL,
  status                    VARCHAR(20)  NOT NULL,
  actual_start_time         DATETIME     NULL,
  actual_end_time           DATETIME     NULL,
  notes                     TEXT         NULL,
  created_by                INT          NOT NULL DEFAULT 0,
  created_at                DATETIME(6)  NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
  updated_at                DATETIME(6)  NOT NULL DEFAULT CURRENT_TIMESTAMP(6) ON UPDATE CURRENT_TIMESTAMP(6),
  INDEX idx_appointments_employee_time (employee_id, appointment_start_time),
  INDEX idx_appointments_room_time (room_id, appointment_start_time),
  INDEX idx_appointments_patient_time (patient_id, appointment_start_time),
  INDEX idx_appointments_status (status)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
	{
		Name: "create_table_appointment_services",
		SQL: `CREATE TABLE IF NOT EXISTS appointment_services (
  appointment_id INT NOT NULL,
  service_id     INT NOT NULL,
  PRIMARY KEY (appointment_id, service_id),
  CONSTRAINT fk_as_appointment FOREIGN KEY (appointment_id) REFERENCES appointments (appointment_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
	{
		Name: "create_table_appointment_participants",
		SQL: `CREATE TABLE IF NOT EXISTS appointment_participants (
  appointment_id INT         NOT NULL,
  employee_id    INT         NOT NULL,
  role           VARCHAR(20) NOT NULL,
  PRIMARY KEY (appointment_id, employee_id),
  INDEX idx_participants_employee (employee_id),
  CONSTRAINT fk_ap_appointment FOREIGN KEY (appointment_id) REFERENCES appointments (appointment_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
	{
		Name: "create_table_appointment_audit_logs",
		SQL: `CREATE TABLE IF NOT EXISTS appointment_audit_logs (
  log_id                   INT         NOT NULL AUTO_INCREMENT PRIMARY KEY,
  appointment_id           INT         NOT NULL,
  performed_by_employee_id INT         NOT NULL DEFAULT 0,
  action_type              VARCHAR(20) NOT NULL,
  old_status               VARCHAR(20) NULL,
  new_status               VARCHAR(20) NULL,
  reason_code              VARCHAR(50) NULL,
  notes                    TEXT        NULL,
  created_at               DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
  INDEX idx_audit_appointment (appointment_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
	{
		Name: "create_table_patient_images",
		SQL: `CREATE TABLE IF NOT EXISTS patient_images (
  image_id      INT          NOT NULL AUTO_INCREMENT PRIMARY KEY,
  patient_id    INT          NOT NULL,
  object_key    VARCHAR(255) NOT NULL UNIQUE,
  image_type    VARCHAR(20)  NOT NULL,
  description   TEXT         NULL,
  captured_date DATE         NULL,
  content_type  VARCHAR(100) NOT NULL,
  size          BIGINT       NOT NULL CHECK (size >= 0),
  uploaded_by   VARCHAR(50)  NOT NULL,
  created_at    DATETIME(6)  NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
  INDEX idx_patient_images_patient (patient_id),
  CONSTRAINT fk_images_patient FOREIGN KEY (patient_id) REFERENCES patients (patient_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
}

// seedSteps returns the INSERT IGNORE statements for reference data.
func seedSteps() []migrationStep {
	var roles []string
	for _, r := range model.SeedRoles {
		roles = append(roles, fmt.Sprintf("('%s', '%s', '%s')", r.ID, r.Name, r.Description))
	}
	var perms []string
	for _, p := range model.SeedPermissions {
		perms = append(perms, fmt.Sprintf("('%s', '%s', '%s')", p.ID, p.Module, p.Description))
	}
	var grants []string
	for _, role := range model.SeedRoles {
		for _, p := range model.DefaultRolePermissions[role.ID] {
			grants = append(grants, fmt.Sprintf("('%s', '%s')", role.ID, p))
		}
	}
	var specs []string
	for _, s := range model.SeedSpecializations {
		specs = append(specs, fmt.Sprintf("(%d, '%s', '%s')", s.ID, s.Code, s.Name))
	}

	return []migrationStep{
		{Name: "seed_roles", SQL: "INSERT IGNORE INTO roles (role_id, role_name, description) VALUES " + strings.Join(roles, ", ")},
		{Name: "seed_permissions", SQL: "INSERT IGNORE INTO permissions (permission_id, module, description) VALUES " + strings.Join(perms, ", ")},
		{Name: "seed_role_permissions", SQL: "INSERT IGNORE INTO role_permissions (role_id, permission_id) VALUES " + strings.Join(grants, ", ")},
		{Name: "seed_specializations", SQL: "INSERT IGNORE INTO specializations (specialization_id, code, name) VALUES " + strings.Join(specs, ", ")},
	}
}

// EnsureMigrated checks if the 'appointments' table exists and runs migrations if it doesn't.
// The admin account is seeded afterwards whenever it is configured and missing.
func EnsureMigrated(ctx context.Context, db *sql.DB, log logrus.FieldLogger, dbHost string, admin config.AdminConfig) error {
	start := time.Now()
	base := logrus.Fields{"component": "database", "db_host": dbHost}

	logger.Event(log, "db_migration_check", with(base, logrus.Fields{"event": "db_migration_check", "status": "starting"}))

	var count int
	query := "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = 'appointments'"
	if err := db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		logger.Event(log, "db_migration_failed", with(base, logrus.Fields{
			"event":         "db_migration_failed",
			"status":        "error",
			"error_message": fmt.Sprintf("failed to check sentinel table: %v", err),
			"duration_ms":   time.Since(start).Milliseconds(),
		}))
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if count > 0 {
		logger.Event(log, "schema already exists, skipping migration", with(base, logrus.Fields{
			"event":       "db_migration_skip",
			"status":      "success",
			"duration_ms": time.Since(start).Milliseconds(),
		}))
		return seedAdmin(ctx, db, log, admin)
	}

	logger.Event(log, "db_migration_start", with(base, logrus.Fields{"event": "db_migration_start", "status": "in_progress"}))

	all := append(append([]migrationStep{}, steps...), seedSteps()...)
	for _, step := range all {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			logger.Event(log, "db_migration_failed", with(base, logrus.Fields{
				"event":            "db_migration_failed",
				"status":           "error",
				"migration_step":   step.Name,
				"error_message":    err.Error(),
				"duration_ms":      time.Since(start).Milliseconds(),
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			}))
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		logger.Event(log, "db_migration_step", with(base, logrus.Fields{
			"event":            "db_migration_step",
			"status":           "success",
			"migration_step":   step.Name,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		}))
	}

	logger.Event(log, "db_migration_success", with(base, logrus.Fields{
		"event":       "db_migration_success",
		"status":      "success",
		"duration_ms": time.Since(start).Milliseconds(),
	}))

	return seedAdmin(ctx, db, log, admin)
}

func seedAdmin(ctx context.Context, db *sql.DB, log logrus.FieldLogger, admin config.AdminConfig) error {
	if admin.Username == "" || admin.Password == "" {
		return nil
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM accounts WHERE username = ?", admin.Username).Scan(&count); err != nil {
		return fmt.Errorf("check admin account: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := security.HashPassword(admin.Password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	email := admin.Email
	if email == "" {
		email = admin.Username + "@localhost"
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO accounts (account_id, account_code, username, password, email, status, must_change_password, role_id)
VALUES (?, ?, ?, ?, ?, ?, 0, ?)`,
		uuid.NewString(), "ACC-ADMIN", admin.Username, hash, email, model.AccountActive, model.RoleAdmin,
	)
	if err != nil {
		return fmt.Errorf("insert admin account: %w", err)
	}

	logger.Event(log, "admin account seeded", logrus.Fields{
		"component": "database",
		"event":     "db_seed_admin",
		"status":    "success",
		"username":  admin.Username,
	})
	return nil
}

func with(base, extra logrus.Fields) logrus.Fields {
	out := make(logrus.Fields, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
