package erp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ruelux/pos/internal/order"
	"github.com/ruelux/pos/internal/workflow"
)

const salesOrder = "Sales Order"

// ListOrders returns every Sales Order, newest first.
func (c *Client) ListOrders(ctx context.Context) ([]order.Order, error) {
	q := fieldsQuery("*")
	q.Set("order_by", "creation desc")
	q.Set("limit_page_length", "0")

	var resp struct {
		Data []order.Order `json:"data"`
	}
	if err := c.doJSON(ctx, "list_orders", http.MethodGet, resourcePath(salesOrder), q, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return []order.Order{}, nil
	}
	return resp.Data, nil
}

// GetOrder returns one Sales Order with its items.
func (c *Client) GetOrder(ctx context.Context, name string) (order.Order, error) {
	var resp struct {
		Data order.Order `json:"data"`
	}
	if err := c.doJSON(ctx, "get_order", http.MethodGet, resourcePath(salesOrder, name), nil, nil, &resp); err != nil {
		return order.Order{}, err
	}
	if err := resp.Data.Validate(); err != nil {
		return order.Order{}, fmt.Errorf("get order %s: %w", name, err)
	}
	return resp.Data, nil
}

// CreateOrder submits a new Sales Order and returns it with its assigned name.
func (c *Client) CreateOrder(ctx context.Context, p order.CreatePayload) (order.Order, error) {
	var resp struct {
		Data order.Order `json:"data"`
	}
	if err := c.doJSON(ctx, "create_order", http.MethodPost, resourcePath(salesOrder), nil, p, &resp); err != nil {
		return order.Order{}, err
	}
	return resp.Data, nil
}

// UpdateWorkflowState moves the order from one state to the next. The write
// carries the document's modified timestamp, so a concurrent change makes
// the ERP reject it instead of overwriting.
func (c *Client) UpdateWorkflowState(ctx context.Context, name, from, to string) (order.Order, error) {
	current, err := c.GetOrder(ctx, name)
	if err != nil {
		return order.Order{}, err
	}
	if current.WorkflowState != from {
		return order.Order{}, fmt.Errorf("%w: %s is %s, expected %s", workflow.ErrStateChanged, name, current.WorkflowState, from)
	}

	body := map[string]interface{}{
		"workflow_state": to,
		"modified":       current.Modified,
	}
	var resp struct {
		Data order.Order `json:"data"`
	}
	err = c.doJSON(ctx, "update_workflow_state", http.MethodPut, resourcePath(salesOrder, name), nil, body, &resp)
	if errors.Is(err, ErrConflict) {
		return order.Order{}, fmt.Errorf("%w: %w", workflow.ErrStateChanged, err)
	}
	if err != nil {
		return order.Order{}, err
	}
	return resp.Data, nil
}

// UpdateApproval overwrites the approval counter fields.
func (c *Client) UpdateApproval(ctx context.Context, name string, count int, approvers []string) error {
	body := map[string]interface{}{
		"custom_approval_digit": count,
		"custom_approver":       order.JoinApprovers(approvers),
	}
	return c.doJSON(ctx, "update_approval", http.MethodPut, resourcePath(salesOrder, name), nil, body, nil)
}
