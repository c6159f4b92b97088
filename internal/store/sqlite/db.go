package sqlite

import (
	"database/sql"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// The partial unique index is the arbiter of the no-double-booking rule:
// concurrent inserts for the same (doctor_id, slot_start) cannot both land
// while one of them is booked. Cancelled rows fall outside the index, so a
// vacated slot can be rebooked.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS patients (
		id   INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS doctors (
		id   INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS appointments (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		patient_id INTEGER NOT NULL REFERENCES patients (id),
		doctor_id  INTEGER NOT NULL REFERENCES doctors (id),
		slot_start TEXT NOT NULL,
		status     TEXT NOT NULL DEFAULT 'booked',
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_appointments_doctor_slot
		ON appointments (doctor_id, slot_start) WHERE status = 'booked'`,
	`CREATE INDEX IF NOT EXISTS ix_appointments_doctor_slot
		ON appointments (doctor_id, slot_start)`,
}

func Open(path string) (*bun.DB, error) {
	sqlDB, err := sql.Open(sqliteshim.ShimName, path)
	if err != nil {
		return nil, err
	}

	// SQLite allows one writer at a time; a single shared connection keeps
	// concurrent callers serialized instead of tripping SQLITE_BUSY.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	db := bun.NewDB(sqlDB, sqlitedialect.New())

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

func migrate(db *bun.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func Close(db *bun.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}

// Both sqlite drivers behind the shim report constraint violations as plain
// errors carrying this text.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
