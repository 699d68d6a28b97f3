package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/ruelux/pos/internal/metrics"
	"github.com/ruelux/pos/internal/order"
	"golang.org/x/sync/singleflight"
)

const defaultTimeout = 10 * time.Second

// OrderBackend defines the order operations the machine needs.
// Satisfied by *erp.Client; narrow interface for testability.
type OrderBackend interface {
	GetOrder(ctx context.Context, name string) (order.Order, error)
	// UpdateWorkflowState must fail with an error wrapping ErrStateChanged
	// when the order is no longer in state from.
	UpdateWorkflowState(ctx context.Context, name, from, to string) (order.Order, error)
	UpdateApproval(ctx context.Context, name string, count int, approvers []string) error
}

// Outcome is the result of an Advance call.
type Outcome struct {
	Order       order.Order `json:"order"`
	Waiting     bool        `json:"waiting"`
	PendingRole string      `json:"pending_role,omitempty"`
	Notice      string      `json:"notice,omitempty"`
	Approval    *Approval   `json:"approval,omitempty"`
}

// TransitionError carries the last known-good order alongside the failure so
// the caller never displays a state the backend did not confirm.
type TransitionError struct {
	LastKnown *order.Order
	Err       error
}

func (e *TransitionError) Error() string { return e.Err.Error() }
func (e *TransitionError) Unwrap() error { return e.Err }

// Option configures a Machine.
type Option func(*Machine)

// WithTimeout bounds every Advance call.
func WithTimeout(d time.Duration) Option {
	return func(m *Machine) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithApprovalMirror copies the ledger's counter onto the ERP document after
// each confirmation. Needed when the ledger lives outside the ERP.
func WithApprovalMirror() Option {
	return func(m *Machine) { m.mirror = true }
}

// OnTransition registers a hook run after a confirmed state change.
func OnTransition(fn func(ctx context.Context, o order.Order, from string)) Option {
	return func(m *Machine) { m.hooks = append(m.hooks, fn) }
}

// Machine drives orders through the workflow.
type Machine struct {
	orders   OrderBackend
	ledger   Ledger
	policy   ApprovalPolicy
	timeout  time.Duration
	mirror   bool
	hooks    []func(ctx context.Context, o order.Order, from string)
	inflight singleflight.Group
}

// NewMachine creates a new Machine.
func NewMachine(orders OrderBackend, ledger Ledger, policy ApprovalPolicy, opts ...Option) *Machine {
	m := &Machine{
		orders:  orders,
		ledger:  ledger,
		policy:  policy,
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Policy returns the approval policy in force.
func (m *Machine) Policy() ApprovalPolicy { return m.policy }

// Advance moves the named order to target on behalf of actor. Identical
// concurrent requests from the same actor share one backend round trip.
// The shared round trip is detached from any single caller's cancellation
// and bounded by the machine timeout; a caller that gives up early gets its
// own context error while the others still receive the result.
func (m *Machine) Advance(ctx context.Context, actor Actor, name, target string) (Outcome, error) {
	key := name + "\x00" + target + "\x00" + actor.Role + "\x00" + actor.Email
	shared := context.WithoutCancel(ctx)
	ch := m.inflight.DoChan(key, func() (interface{}, error) {
		return m.advance(shared, actor, name, target)
	})
	select {
	case <-ctx.Done():
		return Outcome{}, &TransitionError{Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return Outcome{}, res.Err
		}
		return res.Val.(Outcome), nil
	}
}

func (m *Machine) advance(ctx context.Context, actor Actor, name, target string) (Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	current, err := m.orders.GetOrder(ctx, name)
	if err != nil {
		return Outcome{}, &TransitionError{Err: fmt.Errorf("get order: %w", err)}
	}
	from := current.WorkflowState

	if err := Authorize(actor.Role, current, target); err != nil {
		metrics.RecordTransition(from, target, "rejected")
		return Outcome{}, &TransitionError{LastKnown: &current, Err: err}
	}

	var approval *Approval
	if RequiresDualApproval(current, target) {
		a, err := m.approve(ctx, actor, current)
		if err != nil {
			return Outcome{}, &TransitionError{LastKnown: &current, Err: err}
		}
		approval = &a
		current.ApprovalDigit = a.Count
		current.Approver = order.JoinApprovers(a.Approvers)

		if !m.policy.Satisfied(a) {
			metrics.RecordApproval("waiting")
			pending := m.policy.Pending(a)
			return Outcome{
				Order:       current,
				Waiting:     true,
				PendingRole: pending,
				Notice:      fmt.Sprintf("Waiting for the %s to update", pending),
				Approval:    approval,
			}, nil
		}
		metrics.RecordApproval("satisfied")
	}

	updated, err := m.orders.UpdateWorkflowState(ctx, name, from, target)
	if err != nil {
		result := "error"
		if errors.Is(err, ErrStateChanged) {
			result = "conflict"
		}
		metrics.RecordTransition(from, target, result)
		return Outcome{}, &TransitionError{LastKnown: &current, Err: fmt.Errorf("update workflow state: %w", err)}
	}
	metrics.RecordTransition(from, target, "ok")

	for _, hook := range m.hooks {
		hook(ctx, updated, from)
	}

	return Outcome{Order: updated, Approval: approval}, nil
}

func (m *Machine) approve(ctx context.Context, actor Actor, current order.Order) (Approval, error) {
	key, err := m.policy.Key(actor)
	if err != nil {
		return Approval{}, err
	}
	a, err := m.ledger.Approve(ctx, current.Name, key)
	if err != nil {
		return Approval{}, fmt.Errorf("record approval: %w", err)
	}
	if !a.Recorded {
		metrics.RecordApproval("duplicate")
		return a, nil
	}
	metrics.RecordApproval("recorded")

	if m.mirror {
		if err := m.orders.UpdateApproval(ctx, current.Name, a.Count, a.Approvers); err != nil {
			// The ledger is authoritative; the ERP copy is for display only.
			log.Warn().Err(err).Str("order", current.Name).Msg("mirror approval to ERP")
		}
	}
	return a, nil
}
