package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/neustalgic-grooves/internal/model"
	"github.com/iliyamo/neustalgic-grooves/internal/store"
)

// scriptedConnector hands out connections whose every Exec fails with err
// (or succeeds when err is nil) and records the statements it saw.
type scriptedConnector struct {
	mu      sync.Mutex
	err     error
	queries []string
}

func (c *scriptedConnector) Connect(context.Context) (driver.Conn, error) {
	return &scriptedConn{c: c}, nil
}

func (c *scriptedConnector) Driver() driver.Driver { return scriptedDriver{c} }

type scriptedDriver struct{ c *scriptedConnector }

func (d scriptedDriver) Open(string) (driver.Conn, error) { return &scriptedConn{c: d.c}, nil }

type scriptedConn struct{ c *scriptedConnector }

func (*scriptedConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepare not supported")
}

func (*scriptedConn) Close() error { return nil }

func (*scriptedConn) Begin() (driver.Tx, error) { return scriptedTx{}, nil }

func (sc *scriptedConn) ExecContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Result, error) {
	sc.c.mu.Lock()
	defer sc.c.mu.Unlock()
	sc.c.queries = append(sc.c.queries, query)
	if sc.c.err != nil {
		return nil, sc.c.err
	}
	return driver.RowsAffected(1), nil
}

type scriptedTx struct{}

func (scriptedTx) Commit() error   { return nil }
func (scriptedTx) Rollback() error { return nil }

func TestClaimEventReportsOnlyDuplicateKeys(t *testing.T) {
	tooLong := &mysql.MySQLError{Number: 1406, Message: "Data too long for column 'kind'"}
	tests := []struct {
		name    string
		execErr error
		check   func(t *testing.T, err error)
	}{
		{"claimed", nil, func(t *testing.T, err error) {
			if err != nil {
				t.Fatalf("expected claim, got %v", err)
			}
		}},
		{"duplicate key", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'evt_1'"}, func(t *testing.T, err error) {
			if !errors.Is(err, store.ErrDuplicate) {
				t.Fatalf("expected duplicate, got %v", err)
			}
		}},
		{"data too long", tooLong, func(t *testing.T, err error) {
			if errors.Is(err, store.ErrDuplicate) {
				t.Fatal("a truncation must not be reported as a duplicate")
			}
			var me *mysql.MySQLError
			if !errors.As(err, &me) || me.Number != 1406 {
				t.Fatalf("expected the driver error, got %v", err)
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := &scriptedConnector{err: tt.execErr}
			db := sql.OpenDB(conn)
			defer db.Close()

			l := NewLedger(db)
			ctx := context.Background()
			err := l.WithinTx(ctx, func(tx store.LedgerTx) error {
				return tx.ClaimEvent(ctx, model.ProcessedEvent{
					EventID:     "evt_1",
					PaymentID:   "pi_1",
					Kind:        "payment_intent.succeeded",
					Purpose:     "private-lesson",
					ProcessedAt: time.Date(2024, 5, 1, 17, 0, 0, 0, time.UTC),
				})
			})
			tt.check(t, err)

			conn.mu.Lock()
			defer conn.mu.Unlock()
			if len(conn.queries) != 1 {
				t.Fatalf("expected one statement, got %q", conn.queries)
			}
			if strings.Contains(strings.ToUpper(conn.queries[0]), "IGNORE") {
				t.Fatalf("claim must not swallow errors: %s", conn.queries[0])
			}
		})
	}
}
