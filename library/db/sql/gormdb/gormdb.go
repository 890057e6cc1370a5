// Package gormdb opens gorm on top of a sqlite database/sql pool.
package gormdb

import (
	"context"
	"database/sql"
	"fmt"

	errors "github.com/Laisky/errors/v2"
	_ "github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

const defaultMaxLoggedParamLength = 128

// Drivers accepted by Open
const (
	DriverMattn   = "sqlite3"
	DriverModernc = "sqlite"
)

// Open opens path with driver and wraps the pool with gorm.
// driver is DriverMattn (cgo) or DriverModernc (pure go), empty means DriverMattn.
func Open(ctx context.Context, driver, path string, debug bool) (*gorm.DB, error) {
	switch driver {
	case "":
		driver = DriverMattn
	case DriverMattn, DriverModernc:
	default:
		return nil, errors.Errorf("unsupported sqlite driver %q", driver)
	}

	sqlDB, err := sql.Open(driver, path)
	if err != nil {
		return nil, errors.Wrapf(err, "open sqlite %q", path)
	}
	if err = sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, errors.Wrap(err, "ping sqlite")
	}

	// sqlite allows a single writer
	sqlDB.SetMaxOpenConns(1)

	level := gormLogger.Silent
	if debug {
		level = gormLogger.Info
	}

	db, err := gorm.Open(sqlite.Dialector{Conn: sqlDB}, &gorm.Config{
		Logger: newTruncatingParamsLogger(gormLogger.Default.LogMode(level)),
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, errors.Wrap(err, "open gorm")
	}

	return db, nil
}

// truncatingParamsLogger shortens long message bodies before gorm prints SQL.
type truncatingParamsLogger struct {
	gormLogger.Interface
	maxLoggedParamLength int
}

func newTruncatingParamsLogger(base gormLogger.Interface) gormLogger.Interface {
	return &truncatingParamsLogger{
		Interface:            base,
		maxLoggedParamLength: defaultMaxLoggedParamLength,
	}
}

// ParamsFilter implements gorm's ParamsFilter
func (l *truncatingParamsLogger) ParamsFilter(_ context.Context, sql string, params ...any) (string, []any) {
	if len(params) == 0 {
		return sql, params
	}

	filtered := make([]any, len(params))
	for idx, param := range params {
		filtered[idx] = sanitizeLoggedSQLParam(param, l.maxLoggedParamLength)
	}

	return sql, filtered
}

func sanitizeLoggedSQLParam(param any, maxLen int) any {
	switch value := param.(type) {
	case string:
		if len(value) > maxLen {
			return fmt.Sprintf("%s...<truncated:len=%d>", value[:maxLen], len(value))
		}
		return value
	case []byte:
		if len(value) > maxLen {
			return fmt.Sprintf("<bytes:len=%d,truncated>", len(value))
		}
		return value
	default:
		return param
	}
}
