package enum

// ── Group A: Workflow (mirrors the ERP Sales Order workflow) ──

const (
	StateNew        = "New"
	StateInProgress = "In Progress"
	StateReady      = "Ready"
	StateServed     = "Served"
	StateBilled     = "Billed"
	StatePaid       = "Paid"
)

// WorkflowStates lists every canonical state in lifecycle order.
var WorkflowStates = []string{
	StateNew,
	StateInProgress,
	StateReady,
	StateServed,
	StateBilled,
	StatePaid,
}

// IsWorkflowState reports whether s is one of the canonical workflow states.
func IsWorkflowState(s string) bool {
	for _, st := range WorkflowStates {
		if st == s {
			return true
		}
	}
	return false
}

const (
	OrderTypeRestaurant = "Restaurant"
	OrderTypeBar        = "Bar"
	OrderTypeBoth       = "Both"
)

func IsOrderType(s string) bool {
	switch s {
	case OrderTypeRestaurant, OrderTypeBar, OrderTypeBoth:
		return true
	}
	return false
}

// ── Group B: Roles (resolved from ERP user roles at login) ──

const (
	RoleWaiter    = "Waiter"
	RoleChef      = "Chef"
	RoleBartender = "Bartender"
	RoleCashier   = "Cashier"
	RoleAdmin     = "Admin"
)

// ── Group C: Routing labels ──

const (
	ItemGroupConsumable = "Consumable"
	ItemGroupBeverages  = "Beverages"
)

const (
	StationKitchen = "kitchen"
	StationBar     = "bar"
)
