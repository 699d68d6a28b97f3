// Package board derives the tabbed order board a staff member sees.
package board

import (
	"github.com/ruelux/pos/internal/enum"
)

var (
	waiterTabs    = []string{enum.StateNew, enum.StateReady, enum.StateServed}
	chefTabs      = []string{enum.StateNew, enum.StateInProgress, enum.StateReady}
	bartenderTabs = []string{enum.StateNew, enum.StateInProgress, enum.StateReady}
	cashierTabs   = []string{enum.StateServed, enum.StateBilled, enum.StatePaid}
	adminTabs     = []string{enum.StateNew, enum.StateInProgress, enum.StateReady, enum.StateServed, enum.StateBilled, enum.StatePaid}
)

// Tabs returns the workflow states role may view, in display order. Unknown
// roles get the cashier tabs.
func Tabs(role string) []string {
	var tabs []string
	switch role {
	case enum.RoleWaiter:
		tabs = waiterTabs
	case enum.RoleChef:
		tabs = chefTabs
	case enum.RoleBartender:
		tabs = bartenderTabs
	case enum.RoleAdmin:
		tabs = adminTabs
	default:
		tabs = cashierTabs
	}
	return append([]string(nil), tabs...)
}

// InitialTab is the first tab of the role's set.
func InitialTab(role string) string {
	return Tabs(role)[0]
}

// HasTab reports whether tab belongs to the role's set.
func HasTab(role, tab string) bool {
	for _, t := range Tabs(role) {
		if t == tab {
			return true
		}
	}
	return false
}

// ShowsTotals reports whether the role sees order totals on the board.
func ShowsTotals(role string) bool {
	return role == enum.RoleCashier || role == enum.RoleWaiter
}
