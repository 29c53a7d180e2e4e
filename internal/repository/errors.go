// Package repository holds the MySQL-backed data access for users, tokens
// and the engagement ledger tables. The sentinel errors below let the
// ledger and the handlers tell storage outcomes apart without looking at
// driver-specific values.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert hits a unique key, e.g. a second
// quote for the same user and day.
var ErrDuplicate = errors.New("duplicate record")

// ErrUnknownUser is returned when a write references a user id that does
// not exist (foreign key violation).
var ErrUnknownUser = errors.New("unknown user")

// ErrVersionConflict is returned by compare-and-swap updates when the row
// changed since it was read.
var ErrVersionConflict = errors.New("version conflict")

// ErrEmailExists is returned by signup when the email is taken.
var ErrEmailExists = errors.New("email already exists")

const (
	mysqlDuplicateEntry  = 1062
	mysqlNoReferencedRow = 1452
)

// classify maps MySQL error numbers onto the package sentinels and returns
// any other error unchanged.
func classify(err error) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case mysqlDuplicateEntry:
			return ErrDuplicate
		case mysqlNoReferencedRow:
			return ErrUnknownUser
		}
	}
	return err
}
