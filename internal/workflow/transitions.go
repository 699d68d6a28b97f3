// Package workflow implements the order lifecycle: the linear state machine,
// which roles may move an order between states, and the two-station approval
// gate for orders prepared by both the kitchen and the bar.
package workflow

import (
	"errors"
	"fmt"

	"github.com/ruelux/pos/internal/enum"
	"github.com/ruelux/pos/internal/order"
)

var (
	ErrUnknownState      = errors.New("unknown workflow state")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrRoleNotPermitted  = errors.New("role not permitted for this transition")
	ErrStateChanged      = errors.New("order state changed, please retry")
)

// allowedTransitions maps a state to its only successor. Paid is terminal.
var allowedTransitions = map[string]string{
	enum.StateNew:        enum.StateInProgress,
	enum.StateInProgress: enum.StateReady,
	enum.StateReady:      enum.StateServed,
	enum.StateServed:     enum.StateBilled,
	enum.StateBilled:     enum.StatePaid,
}

// transitionRoles lists, per source state, who may advance the order.
var transitionRoles = map[string][]string{
	enum.StateNew:        {enum.RoleChef, enum.RoleAdmin},
	enum.StateInProgress: {enum.RoleChef, enum.RoleBartender, enum.RoleAdmin},
	enum.StateReady:      {enum.RoleWaiter, enum.RoleAdmin},
	enum.StateServed:     {enum.RoleCashier, enum.RoleAdmin},
	enum.StateBilled:     {enum.RoleCashier, enum.RoleWaiter, enum.RoleAdmin},
}

// Next returns the successor of state, or false when state is terminal or
// unknown.
func Next(state string) (string, bool) {
	next, ok := allowedTransitions[state]
	return next, ok
}

// ValidateTransition checks that target is the immediate successor of current.
func ValidateTransition(current, target string) error {
	if !enum.IsWorkflowState(current) {
		return fmt.Errorf("%w: %q", ErrUnknownState, current)
	}
	if !enum.IsWorkflowState(target) {
		return fmt.Errorf("%w: %q", ErrUnknownState, target)
	}
	next, ok := allowedTransitions[current]
	if !ok || next != target {
		return fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidTransition, current, target)
	}
	return nil
}

// Authorize checks both the transition and the role. The ERP remains the
// authority; this only decides what the POS offers and forwards.
func Authorize(role string, o order.Order, target string) error {
	if err := ValidateTransition(o.WorkflowState, target); err != nil {
		return err
	}
	for _, r := range transitionRoles[o.WorkflowState] {
		if r == role {
			return nil
		}
	}
	return fmt.Errorf("%w: %s cannot move %s to %s", ErrRoleNotPermitted, roleLabel(role), o.WorkflowState, target)
}

// RequiresDualApproval reports whether moving o to target goes through the
// kitchen+bar approval gate.
func RequiresDualApproval(o order.Order, target string) bool {
	return o.OrderType == enum.OrderTypeBoth &&
		o.WorkflowState == enum.StateInProgress &&
		target == enum.StateReady
}

// AvailableActions lists the states actor may move o to right now. Orders
// waiting on another station are excluded for an actor who already approved.
func AvailableActions(o order.Order, actor Actor, policy ApprovalPolicy) []string {
	next, ok := Next(o.WorkflowState)
	if !ok {
		return []string{}
	}
	if err := Authorize(actor.Role, o, next); err != nil {
		return []string{}
	}
	if RequiresDualApproval(o, next) {
		key, err := policy.Key(actor)
		if err != nil {
			return []string{}
		}
		for _, a := range o.Approvers() {
			if a == key {
				return []string{}
			}
		}
	}
	return []string{next}
}

func roleLabel(role string) string {
	if role == "" {
		return "unknown role"
	}
	return role
}
