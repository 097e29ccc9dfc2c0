package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/XSAM/otelsql"
	"github.com/go-sql-driver/mysql"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"dentalclinic/internal/config"
)

var sqlOpen = sql.Open

// BuildMySQLDSN constructs a go-sql-driver DSN from configuration.
// Example: user:pass@tcp(host:3306)/dbname?charset=utf8mb4&loc=UTC&parseTime=true
func BuildMySQLDSN(c config.DatabaseConfig) (string, error) {
	if c.Host == "" || c.Port == "" || c.User == "" || c.Name == "" {
		return "", fmt.Errorf("invalid database config: host, port, user, and name are required")
	}

	mc := mysql.NewConfig()
	mc.User = c.User
	mc.Passwd = c.Password
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%s", c.Host, c.Port)
	mc.DBName = c.Name
	mc.ParseTime = true
	mc.Loc = time.UTC
	// RowsAffected counts matched rows, so an UPDATE that rewrites identical values is not mistaken for a missing row.
	mc.ClientFoundRows = true

	if c.Params != "" {
		params, err := url.ParseQuery(c.Params)
		if err != nil {
			return "", fmt.Errorf("invalid database params: %w", err)
		}
		mc.Params = make(map[string]string, len(params))
		for k := range params {
			mc.Params[k] = params.Get(k)
		}
	}

	return mc.FormatDSN(), nil
}

// NewMySQL opens a database/sql connection using the MySQL driver wrapped by otelsql
// and applies pooling settings.
func NewMySQL(c config.DatabaseConfig) (*sql.DB, error) {
	dsn, err := BuildMySQLDSN(c)
	if err != nil {
		return nil, err
	}

	driverName, err := otelsql.Register("mysql",
		otelsql.WithAttributes(semconv.DBSystemMySQL),
		otelsql.WithSQLCommenter(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register otelsql: %w", err)
	}

	db, err := sqlOpen(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}

	if c.MaxOpenConns > 0 {
		db.SetMaxOpenConns(c.MaxOpenConns)
	}
	if c.MaxIdleConns > 0 {
		db.SetMaxIdleConns(c.MaxIdleConns)
	}
	if c.ConnMaxLifetimeSec > 0 {
		db.SetConnMaxLifetime(time.Duration(c.ConnMaxLifetimeSec) * time.Second)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	return db, nil
}

// IsDuplicateKey reports whether err is MySQL error 1062 (ER_DUP_ENTRY).
func IsDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

// WithTx runs fn inside a transaction, rolling back on error or panic.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
