package erp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ruelux/pos/internal/order"
	"github.com/ruelux/pos/internal/workflow"
)

const maxApprovalRetries = 5

// ErrApprovalContention is returned when every approval attempt lost the race.
var ErrApprovalContention = errors.New("erp: approval counter kept changing, giving up")

// ApprovalLedger keeps the approval counter on the Sales Order itself. The
// ERP has no atomic increment, so each confirmation is a read-modify-write
// guarded by the document's modified timestamp and retried on conflict.
type ApprovalLedger struct {
	client *Client
}

func NewApprovalLedger(c *Client) *ApprovalLedger {
	return &ApprovalLedger{client: c}
}

func (l *ApprovalLedger) Approve(ctx context.Context, orderName, key string) (workflow.Approval, error) {
	for attempt := 0; attempt < maxApprovalRetries; attempt++ {
		current, err := l.client.GetOrder(ctx, orderName)
		if err != nil {
			return workflow.Approval{}, err
		}

		approvers := current.Approvers()
		for _, a := range approvers {
			if a == key {
				return workflow.Approval{Count: current.ApprovalDigit, Approvers: approvers}, nil
			}
		}

		next := append(approvers, key)
		count := current.ApprovalDigit + 1
		body := map[string]interface{}{
			"custom_approval_digit": count,
			"custom_approver":       order.JoinApprovers(next),
			"modified":              current.Modified,
		}
		err = l.client.doJSON(ctx, "approve", http.MethodPut, resourcePath(salesOrder, orderName), nil, body, nil)
		if errors.Is(err, ErrConflict) {
			continue
		}
		if err != nil {
			return workflow.Approval{}, err
		}
		return workflow.Approval{Count: count, Approvers: next, Recorded: true}, nil
	}
	return workflow.Approval{}, fmt.Errorf("%w (%d attempts)", ErrApprovalContention, maxApprovalRetries)
}
