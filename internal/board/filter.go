package board

import (
	"strings"

	"github.com/ruelux/pos/internal/enum"
	"github.com/ruelux/pos/internal/order"
	"github.com/ruelux/pos/internal/workflow"
)

// Viewer is the staff member looking at the board.
type Viewer struct {
	Email string
	Role  string
}

// Visible returns the orders viewer sees on tab, preserving input order.
func Visible(orders []order.Order, viewer Viewer, tab string) []order.Order {
	out := make([]order.Order, 0, len(orders))
	for _, o := range orders {
		if o.WorkflowState != tab {
			continue
		}
		if !visibleTo(o, viewer) {
			continue
		}
		out = append(out, o)
	}
	return out
}

// visibleTo matches roles exactly, like Tabs; owner emails compare
// case-insensitively.
func visibleTo(o order.Order, viewer Viewer) bool {
	switch viewer.Role {
	case enum.RoleWaiter:
		return viewer.Email != "" && strings.EqualFold(o.Owner, viewer.Email)
	case enum.RoleBartender:
		return o.OrderType == enum.OrderTypeBoth || o.OrderType == enum.OrderTypeBar
	case enum.RoleChef:
		return o.OrderType == enum.OrderTypeBoth || o.OrderType == enum.OrderTypeRestaurant
	}
	return true
}

// Card is one order on the board with the actions the viewer may take.
type Card struct {
	Order   order.Order `json:"order"`
	Actions []string    `json:"actions"`
}

// View is the whole board for one viewer and tab.
type View struct {
	Tabs        []string `json:"tabs"`
	SelectedTab string   `json:"selected_tab"`
	ShowTotals  bool     `json:"show_totals"`
	Cards       []Card   `json:"orders"`
}

// Build assembles the board. An empty or foreign tab selects the role's
// initial tab.
func Build(orders []order.Order, viewer Viewer, tab string, policy workflow.ApprovalPolicy) View {
	if tab == "" || !HasTab(viewer.Role, tab) {
		tab = InitialTab(viewer.Role)
	}
	actor := workflow.Actor{Email: viewer.Email, Role: viewer.Role}
	visible := Visible(orders, viewer, tab)
	cards := make([]Card, len(visible))
	for i, o := range visible {
		cards[i] = Card{
			Order:   o,
			Actions: workflow.AvailableActions(o, actor, policy),
		}
	}
	return View{
		Tabs:        Tabs(viewer.Role),
		SelectedTab: tab,
		ShowTotals:  ShowsTotals(viewer.Role),
		Cards:       cards,
	}
}
