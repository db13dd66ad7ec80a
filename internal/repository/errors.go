// Package repository defines error types that are reused across multiple
// repositories together with helpers that classify MySQL driver errors.
// The classifiers let services react to schema drift (a column that does
// not exist on this deployment), foreign-key rejections and duplicate keys
// without matching on raw error strings themselves.
package repository

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup matches no row.  Handlers should
// translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an update cannot be performed because of
// conflicting state, such as answering a collaboration request that is no
// longer pending.  Handlers should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrDuplicate is returned when an insert collides with a unique key, such
// as a second pending request for the same pair or a second ticket for one
// payment.
var ErrDuplicate = errors.New("duplicate")

// MySQL server error numbers the services react to.
const (
	mysqlDuplicateEntry  = 1062
	mysqlUnknownColumn   = 1054
	mysqlNoReferencedRow = 1452
	mysqlNoReferencedOld = 1216
)

var fkColumnRe = regexp.MustCompile("FOREIGN KEY \\(`?([A-Za-z0-9_]+)`?\\)")

// IsUndefinedColumn reports whether err says that column does not exist.
func IsUndefinedColumn(err error, column string) bool {
	if err == nil || column == "" {
		return false
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == mysqlUnknownColumn {
		return strings.Contains(me.Message, "'"+column+"'")
	}
	msg := err.Error()
	if !strings.Contains(msg, column) {
		return false
	}
	return strings.Contains(msg, "Unknown column") || strings.Contains(msg, "does not exist")
}

// ForeignKeyColumn reports whether err is a foreign-key violation and, when
// the message names it, which referencing column was rejected.
func ForeignKeyColumn(err error) (string, bool) {
	if err == nil {
		return "", false
	}
	var me *mysql.MySQLError
	if !errors.As(err, &me) || (me.Number != mysqlNoReferencedRow && me.Number != mysqlNoReferencedOld) {
		return "", false
	}
	if m := fkColumnRe.FindStringSubmatch(me.Message); len(m) == 2 {
		return m[1], true
	}
	return "", true
}

// IsDuplicate reports whether err is a unique-key violation.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlDuplicateEntry
	}
	return strings.Contains(err.Error(), "1062")
}

// DebugFields extracts driver details for non-production error responses.
// ok is false when err carries no MySQL error.
func DebugFields(err error) (code uint16, details, hint string, ok bool) {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return 0, "", "", false
	}
	return me.Number, me.Message, string(me.SQLState[:]), true
}
