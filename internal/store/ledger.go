// Package store keeps the approval counter in PostgreSQL, where an
// increment-and-compare is a single atomic statement shared by every POS
// instance.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ruelux/pos/internal/workflow"
)

// DBTX is the subset of pgx used by the ledger. Satisfied by *pgxpool.Pool,
// *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const schema = `
CREATE TABLE IF NOT EXISTS order_approvals (
	order_name     TEXT        PRIMARY KEY,
	approval_count INTEGER     NOT NULL DEFAULT 0,
	approvers      TEXT[]      NOT NULL DEFAULT '{}',
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// approveSQL inserts the first approval or appends to an existing row. The
// conflict branch runs under the row lock against the latest row version, so
// concurrent approvals serialize. An approver already present makes the WHERE
// fail and no row is returned.
const approveSQL = `
INSERT INTO order_approvals AS a (order_name, approval_count, approvers)
VALUES ($1, 1, ARRAY[$2::text])
ON CONFLICT (order_name) DO UPDATE
	SET approval_count = a.approval_count + 1,
	    approvers      = array_append(a.approvers, $2::text),
	    updated_at     = now()
	WHERE NOT ($2::text = ANY(a.approvers))
RETURNING approval_count, approvers`

const currentSQL = `
SELECT approval_count, approvers FROM order_approvals WHERE order_name = $1`

// ApprovalLedger implements workflow.Ledger on PostgreSQL.
type ApprovalLedger struct {
	db DBTX
}

func NewApprovalLedger(db DBTX) *ApprovalLedger {
	return &ApprovalLedger{db: db}
}

// Connect opens a pool and pings it.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the ledger table when missing.
func (l *ApprovalLedger) EnsureSchema(ctx context.Context) error {
	if _, err := l.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create order_approvals: %w", err)
	}
	return nil
}

func (l *ApprovalLedger) Approve(ctx context.Context, orderName, key string) (workflow.Approval, error) {
	var (
		count     int32
		approvers []string
	)
	err := l.db.QueryRow(ctx, approveSQL, orderName, key).Scan(&count, &approvers)
	if err == nil {
		return workflow.Approval{Count: int(count), Approvers: approvers, Recorded: true}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return workflow.Approval{}, fmt.Errorf("approve %s: %w", orderName, err)
	}

	// Duplicate approval: report the counter as it stands.
	if err := l.db.QueryRow(ctx, currentSQL, orderName).Scan(&count, &approvers); err != nil {
		return workflow.Approval{}, fmt.Errorf("read approvals %s: %w", orderName, err)
	}
	return workflow.Approval{Count: int(count), Approvers: approvers}, nil
}
