// Package order holds the Sales Order record as the ERP returns it and the
// payload shape used to create one.
package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ruelux/pos/internal/enum"
	"github.com/shopspring/decimal"
)

// creationLayout is the ERP's datetime format for creation/modified.
const creationLayout = "2006-01-02 15:04:05.999999"

var (
	ErrMissingName  = errors.New("order name is required")
	ErrInvalidState = errors.New("invalid workflow_state")
)

// Order is a Sales Order as seen by the POS. The ERP joins prices and items
// lazily, so every field except Name and WorkflowState may be absent.
type Order struct {
	Name          string          `json:"name"`
	Customer      string          `json:"customer,omitempty"`
	CustomerName  string          `json:"custom_customer_name,omitempty"`
	Owner         string          `json:"owner,omitempty"`
	Waiter        string          `json:"custom_waiter,omitempty"`
	Room          string          `json:"custom_room,omitempty"`
	TableNumber   string          `json:"custom_table_number,omitempty"`
	OrderType     string          `json:"custom_order_type,omitempty"`
	WorkflowState string          `json:"workflow_state"`
	GrandTotal    decimal.Decimal `json:"base_grand_total"`
	ApprovalDigit int             `json:"custom_approval_digit"`
	Approver      string          `json:"custom_approver,omitempty"`
	Creation      string          `json:"creation,omitempty"`
	Modified      string          `json:"modified,omitempty"`
	Items         []LineItem      `json:"items,omitempty"`
}

// LineItem is one row of a Sales Order.
type LineItem struct {
	ItemCode           string          `json:"item_code,omitempty"`
	ItemName           string          `json:"item_name,omitempty"`
	Qty                float64         `json:"qty"`
	Rate               decimal.Decimal `json:"rate"`
	PriceListRate      decimal.Decimal `json:"price_list_rate"`
	Amount             decimal.Decimal `json:"amount"`
	Variant            string          `json:"custom_variant_items,omitempty"`
	AddOns             string          `json:"custom_add_ons,omitempty"`
	SpecialInstruction string          `json:"custom_special_instruction,omitempty"`
	ServeTime          string          `json:"custom_serve_time,omitempty"`
	ItemGroup          string          `json:"item_group,omitempty"`
}

// Validate checks the only two fields the POS relies on unconditionally.
func (o Order) Validate() error {
	if o.Name == "" {
		return ErrMissingName
	}
	if !enum.IsWorkflowState(o.WorkflowState) {
		return fmt.Errorf("%w: %q", ErrInvalidState, o.WorkflowState)
	}
	return nil
}

// Approvers returns the keys recorded in custom_approver.
func (o Order) Approvers() []string {
	return SplitApprovers(o.Approver)
}

// CreatedAt parses the ERP creation timestamp.
func (o Order) CreatedAt() (time.Time, bool) {
	if o.Creation == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(creationLayout, o.Creation)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// InvolvesKitchen reports whether the kitchen prepares part of the order.
func (o Order) InvolvesKitchen() bool {
	return o.OrderType == enum.OrderTypeRestaurant || o.OrderType == enum.OrderTypeBoth
}

// InvolvesBar reports whether the bar prepares part of the order.
func (o Order) InvolvesBar() bool {
	return o.OrderType == enum.OrderTypeBar || o.OrderType == enum.OrderTypeBoth
}

// Quantity returns qty as a decimal. The ERP sends floats and allows
// fractional quantities, which must survive into line totals.
func (li LineItem) Quantity() decimal.Decimal {
	return decimal.NewFromFloat(li.Qty)
}

// UnitPrice prefers the billed rate and falls back to the list price.
func (li LineItem) UnitPrice() decimal.Decimal {
	if !li.Rate.IsZero() {
		return li.Rate
	}
	return li.PriceListRate
}

// Station routes the line to a preparation display. Unknown groups go to the
// kitchen.
func (li LineItem) Station() string {
	return StationFor(li.ItemGroup)
}

// StationFor maps an item group to a station.
func StationFor(itemGroup string) string {
	if itemGroup == enum.ItemGroupBeverages {
		return enum.StationBar
	}
	return enum.StationKitchen
}

// SplitApprovers parses the comma-separated approver field.
func SplitApprovers(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// JoinApprovers is the inverse of SplitApprovers.
func JoinApprovers(keys []string) string {
	return strings.Join(keys, ",")
}
