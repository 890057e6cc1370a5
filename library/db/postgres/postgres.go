// Package postgres opens postgres connections through the pgx stdlib driver.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	errors "github.com/Laisky/errors/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// DialInfo postgres dial info
type DialInfo struct {
	Addr,
	DBName,
	User,
	Pwd string
	// Port defaults to 5432
	Port int
}

// BuildDSN builds a PostgreSQL keyword/value DSN.
func BuildDSN(dialInfo DialInfo) string {
	port := dialInfo.Port
	if port == 0 {
		port = 5432
	}

	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=UTC",
		dialInfo.Addr, dialInfo.User, dialInfo.Pwd, dialInfo.DBName, port)
}

// Open connects to postgres and checks the connection.
func Open(ctx context.Context, dialInfo DialInfo) (*sql.DB, error) {
	db, err := sql.Open("pgx", BuildDSN(dialInfo))
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "ping postgres")
	}

	db.SetMaxIdleConns(4)
	db.SetMaxOpenConns(20)
	db.SetConnMaxLifetime(time.Hour)

	return db, nil
}
