package store_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ruelux/pos/internal/store"
)

type mockRow struct {
	count     int32
	approvers []string
	err       error
}

func (r mockRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*int32) = r.count
	*dest[1].(*[]string) = r.approvers
	return nil
}

type mockDB struct {
	execFn     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	queryRowFn func(ctx context.Context, sql string, args ...any) pgx.Row
}

func (m *mockDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return m.execFn(ctx, sql, args...)
}

func (m *mockDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return m.queryRowFn(ctx, sql, args...)
}

func TestApprove_Recorded(t *testing.T) {
	db := &mockDB{
		queryRowFn: func(_ context.Context, sql string, args ...any) pgx.Row {
			if !strings.Contains(sql, "ON CONFLICT") {
				t.Errorf("unexpected query: %s", sql)
			}
			if args[0] != "ORD-1" || args[1] != "Chef" {
				t.Errorf("args: got %v", args)
			}
			return mockRow{count: 2, approvers: []string{"Bartender", "Chef"}}
		},
	}

	a, err := store.NewApprovalLedger(db).Approve(context.Background(), "ORD-1", "Chef")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if a.Count != 2 || !a.Recorded || len(a.Approvers) != 2 {
		t.Errorf("approval: got %+v", a)
	}
}

func TestApprove_DuplicateReadsCurrent(t *testing.T) {
	calls := 0
	db := &mockDB{
		queryRowFn: func(_ context.Context, sql string, _ ...any) pgx.Row {
			calls++
			if calls == 1 {
				return mockRow{err: pgx.ErrNoRows}
			}
			if !strings.Contains(sql, "SELECT") {
				t.Errorf("second query should read the row: %s", sql)
			}
			return mockRow{count: 1, approvers: []string{"Chef"}}
		},
	}

	a, err := store.NewApprovalLedger(db).Approve(context.Background(), "ORD-1", "Chef")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if a.Count != 1 || a.Recorded {
		t.Errorf("approval: got %+v", a)
	}
}

func TestApprove_QueryError(t *testing.T) {
	boom := errors.New("connection reset")
	db := &mockDB{
		queryRowFn: func(context.Context, string, ...any) pgx.Row { return mockRow{err: boom} },
	}
	if _, err := store.NewApprovalLedger(db).Approve(context.Background(), "ORD-1", "Chef"); !errors.Is(err, boom) {
		t.Errorf("got %v, want wrapped %v", err, boom)
	}
}

func TestEnsureSchema(t *testing.T) {
	var got string
	db := &mockDB{
		execFn: func(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
			got = sql
			return pgconn.CommandTag{}, nil
		},
	}
	if err := store.NewApprovalLedger(db).EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	if !strings.Contains(got, "CREATE TABLE IF NOT EXISTS order_approvals") {
		t.Errorf("schema: got %q", got)
	}
}
