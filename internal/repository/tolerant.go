package repository

import (
	"context"
	"database/sql"
	"log"
	"slices"
	"strings"
)

// Execer is satisfied by *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Column is a column name and the value written to it.
type Column struct {
	Name  string
	Value any
}

// TolerantInsert inserts cols into table.  When the database rejects the
// statement because one of the optional columns does not exist, that
// column is dropped and the insert is retried.  Any other error, or a
// missing column that is not optional, is returned unchanged.
func TolerantInsert(ctx context.Context, db Execer, table string, cols []Column, optional ...string) error {
	cols = slices.Clone(cols)
	for {
		q, args := buildInsert(table, cols)
		_, err := db.ExecContext(ctx, q, args...)
		if err == nil {
			return nil
		}
		name, ok := droppableColumn(err, cols, optional)
		if !ok {
			return err
		}
		log.Printf("repository: %s has no column %s; retrying without it", table, name)
		cols = withoutColumn(cols, name)
	}
}

// TolerantUpdate runs UPDATE table SET set... WHERE where, retrying without
// an optional SET column the database reports as undefined.
func TolerantUpdate(ctx context.Context, db Execer, table string, set []Column, where string, whereArgs []any, optional ...string) (int64, error) {
	set = slices.Clone(set)
	for {
		q, args := buildUpdate(table, set, where, whereArgs)
		res, err := db.ExecContext(ctx, q, args...)
		if err == nil {
			n, _ := res.RowsAffected()
			return n, nil
		}
		name, ok := droppableColumn(err, set, optional)
		if !ok || len(set) == 1 {
			return 0, err
		}
		log.Printf("repository: %s has no column %s; retrying update without it", table, name)
		set = withoutColumn(set, name)
	}
}

func droppableColumn(err error, cols []Column, optional []string) (string, bool) {
	for _, name := range optional {
		if !hasColumn(cols, name) {
			continue
		}
		if IsUndefinedColumn(err, name) {
			return name, true
		}
	}
	return "", false
}

func hasColumn(cols []Column, name string) bool {
	return slices.ContainsFunc(cols, func(c Column) bool { return c.Name == name })
}

func withoutColumn(cols []Column, name string) []Column {
	return slices.DeleteFunc(cols, func(c Column) bool { return c.Name == name })
}

func buildInsert(table string, cols []Column) (string, []any) {
	names := make([]string, 0, len(cols))
	marks := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols))
	for _, c := range cols {
		names = append(names, "`"+c.Name+"`")
		marks = append(marks, "?")
		args = append(args, c.Value)
	}
	q := "INSERT INTO " + table + " (" + strings.Join(names, ", ") + ") VALUES (" + strings.Join(marks, ", ") + ")"
	return q, args
}

func buildUpdate(table string, set []Column, where string, whereArgs []any) (string, []any) {
	parts := make([]string, 0, len(set))
	args := make([]any, 0, len(set)+len(whereArgs))
	for _, c := range set {
		parts = append(parts, "`"+c.Name+"` = ?")
		args = append(args, c.Value)
	}
	args = append(args, whereArgs...)
	return "UPDATE " + table + " SET " + strings.Join(parts, ", ") + " WHERE " + where, args
}

// nullString maps "" to SQL NULL.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// nullPtr maps a nil or empty pointer to SQL NULL.
func nullPtr(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}

func ptrFromNull(ns sql.NullString) *string {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	v := ns.String
	return &v
}
