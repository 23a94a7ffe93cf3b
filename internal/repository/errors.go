// Package repository implements the store interfaces on top of MySQL.  Each
// repository wraps a *sql.DB; ledger transactions use BeginTx with a
// deferred rollback.  Driver errors are translated into the store
// sentinels so handlers never see MySQL specifics: a missing row becomes
// store.ErrNotFound and a unique key violation becomes store.ErrDuplicate.
package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"
    "time"

    "github.com/go-sql-driver/mysql"

    "github.com/iliyamo/neustalgic-grooves/internal/store"
)

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// isDuplicate reports whether err is a unique key violation.
func isDuplicate(err error) bool {
    var me *mysql.MySQLError
    return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// translate maps driver errors onto the store sentinels.
func translate(err error) error {
    switch {
    case err == nil:
        return nil
    case errors.Is(err, sql.ErrNoRows):
        return store.ErrNotFound
    case isDuplicate(err):
        return store.ErrDuplicate
    }
    return err
}

// queryer is satisfied by both *sql.DB and *sql.Tx so helpers can run
// inside or outside a transaction.
type queryer interface {
    ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
    QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
    QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// likePattern builds a case-insensitive substring pattern, escaping the
// LIKE wildcards in the user's input.
func likePattern(s string) string {
    r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
    return "%" + strings.ToLower(r.Replace(s)) + "%"
}

// nullTime converts an optional timestamp for insertion.
func nullTime(t *time.Time) sql.NullTime {
    if t == nil {
        return sql.NullTime{}
    }
    return sql.NullTime{Time: *t, Valid: true}
}

// timePtr converts a scanned nullable timestamp back.
func timePtr(nt sql.NullTime) *time.Time {
    if !nt.Valid {
        return nil
    }
    t := nt.Time.UTC()
    return &t
}

// nullString stores "" as NULL, used for optional foreign keys.
func nullString(s string) sql.NullString {
    return sql.NullString{String: s, Valid: s != ""}
}

// withTx runs fn inside a transaction on db.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
    tx, err := db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    if err := fn(tx); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}
