package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ruelux/pos/internal/enum"
)

// ApprovalThreshold is the number of confirmations a Both-type order needs
// before it may leave In Progress.
const ApprovalThreshold = 2

var ErrCannotApprove = errors.New("role cannot confirm preparation")

// Actor is the staff member performing an action.
type Actor struct {
	Email string
	Role  string
}

// Approval is the state of an order's approval counter after a confirmation.
type Approval struct {
	Count     int      `json:"count"`
	Approvers []string `json:"approvers"`
	// Recorded is false when the actor had already confirmed; the counter
	// was left unchanged.
	Recorded bool `json:"recorded"`
}

// Ledger records confirmations. Approve must be idempotent per key and must
// not lose concurrent confirmations from different keys.
type Ledger interface {
	Approve(ctx context.Context, orderName, key string) (Approval, error)
}

// ApprovalPolicy decides who may confirm and when the gate opens.
type ApprovalPolicy interface {
	Name() string
	// Key identifies the actor's confirmation in the approver set.
	Key(actor Actor) (string, error)
	Satisfied(a Approval) bool
	// Pending names who the order is still waiting on.
	Pending(a Approval) string
}

// ParsePolicy resolves a configured policy name.
func ParsePolicy(name string) (ApprovalPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "station":
		return StationPolicy{}, nil
	case "any-two":
		return AnyTwoPolicy{}, nil
	}
	return nil, fmt.Errorf("unknown approval policy %q", name)
}

// StationPolicy requires one kitchen confirmation and one bar confirmation.
// Keys are role names; an Admin may stand in for either station.
type StationPolicy struct{}

func (StationPolicy) Name() string { return "station" }

func (StationPolicy) Key(actor Actor) (string, error) {
	switch actor.Role {
	case enum.RoleChef, enum.RoleBartender, enum.RoleAdmin:
		return actor.Role, nil
	}
	return "", fmt.Errorf("%w: %s", ErrCannotApprove, roleLabel(actor.Role))
}

func (StationPolicy) Satisfied(a Approval) bool {
	kitchen, bar, admin := stations(a.Approvers)
	switch {
	case kitchen && bar:
		return true
	case admin && (kitchen || bar):
		return true
	}
	return false
}

func (StationPolicy) Pending(a Approval) string {
	kitchen, bar, admin := stations(a.Approvers)
	switch {
	case kitchen && !bar && !admin:
		return enum.RoleBartender
	case bar && !kitchen && !admin:
		return enum.RoleChef
	case admin && !kitchen && !bar:
		return enum.RoleChef + " or " + enum.RoleBartender
	case !kitchen && !bar && !admin:
		return enum.RoleChef + " and " + enum.RoleBartender
	}
	return ""
}

func stations(approvers []string) (kitchen, bar, admin bool) {
	for _, key := range approvers {
		switch key {
		case enum.RoleChef:
			kitchen = true
		case enum.RoleBartender:
			bar = true
		case enum.RoleAdmin:
			admin = true
		}
	}
	return kitchen, bar, admin
}

// AnyTwoPolicy opens the gate after two distinct staff members confirm,
// whatever their role. Keys are lower-cased emails.
type AnyTwoPolicy struct{}

func (AnyTwoPolicy) Name() string { return "any-two" }

func (AnyTwoPolicy) Key(actor Actor) (string, error) {
	switch actor.Role {
	case enum.RoleChef, enum.RoleBartender, enum.RoleAdmin:
	default:
		return "", fmt.Errorf("%w: %s", ErrCannotApprove, roleLabel(actor.Role))
	}
	email := strings.ToLower(strings.TrimSpace(actor.Email))
	if email == "" {
		return "", fmt.Errorf("%w: missing actor identity", ErrCannotApprove)
	}
	return email, nil
}

func (AnyTwoPolicy) Satisfied(a Approval) bool {
	return a.Count >= ApprovalThreshold
}

func (AnyTwoPolicy) Pending(a Approval) string {
	if a.Count >= ApprovalThreshold {
		return ""
	}
	return "other station"
}
