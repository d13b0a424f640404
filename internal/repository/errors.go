// Package repository holds the MySQL persistence layer. Repositories speak
// in model types and a small set of sentinel errors; services translate
// those into application errors.
package repository

import (
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when no active row matches.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert or update hits a unique key.
var ErrDuplicate = errors.New("duplicate entry")

// ErrCapacityBelowHeld is returned when an event update would lower
// max_capacity under the number of seats already held.
var ErrCapacityBelowHeld = errors.New("capacity below held seats")

const (
	mysqlDupEntry        = 1062
	mysqlLockWaitTimeout = 1205
	mysqlDeadlock        = 1213
)

func mysqlNumber(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

func isDuplicate(err error) bool {
	return mysqlNumber(err) == mysqlDupEntry
}

// IsRetryable reports whether err is a transient lock conflict after which
// the whole transaction may be re-run.
func IsRetryable(err error) bool {
	switch mysqlNumber(err) {
	case mysqlDeadlock, mysqlLockWaitTimeout:
		return true
	}
	return false
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
