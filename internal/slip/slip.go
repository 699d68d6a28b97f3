// Package slip produces the data printed on order slips, kitchen and bar
// tickets and receipts. Formatting for a physical printer happens elsewhere.
package slip

import (
	"github.com/ruelux/pos/internal/enum"
	"github.com/ruelux/pos/internal/order"
	"github.com/shopspring/decimal"
)

// Line is one printed row.
type Line struct {
	Qty                decimal.Decimal `json:"qty"`
	Item               string          `json:"item"`
	Variant            string          `json:"variant,omitempty"`
	AddOns             string          `json:"add_ons,omitempty"`
	SpecialInstruction string          `json:"special_instruction,omitempty"`
	Price              decimal.Decimal `json:"price"`
	Total              decimal.Decimal `json:"total"`
}

// Slip is the printable view of an order.
type Slip struct {
	Order     string          `json:"order"`
	Station   string          `json:"station,omitempty"`
	Room      string          `json:"room,omitempty"`
	Table     string          `json:"table,omitempty"`
	Customer  string          `json:"customer"`
	ServedBy  string          `json:"served_by,omitempty"`
	OrderType string          `json:"order_type,omitempty"`
	Lines     []Line          `json:"lines"`
	Total     decimal.Decimal `json:"total"`
}

// Build turns an order into a slip covering every line.
func Build(o order.Order) Slip {
	s := header(o)
	for _, li := range o.Items {
		s.Lines = append(s.Lines, toLine(li))
	}
	s.Total = o.GrandTotal
	if s.Total.IsZero() {
		s.Total = sumLines(s.Lines)
	}
	return s
}

// Tickets splits an order into one slip per preparing station. Stations the
// order type does not involve get no ticket; their lines go to the other
// station so nothing is dropped.
func Tickets(o order.Order) []Slip {
	kitchen := header(o)
	kitchen.Station = enum.StationKitchen
	bar := header(o)
	bar.Station = enum.StationBar

	for _, li := range o.Items {
		station := li.Station()
		if station == enum.StationBar && !o.InvolvesBar() {
			station = enum.StationKitchen
		}
		if station == enum.StationKitchen && !o.InvolvesKitchen() && o.InvolvesBar() {
			station = enum.StationBar
		}
		if station == enum.StationBar {
			bar.Lines = append(bar.Lines, toLine(li))
		} else {
			kitchen.Lines = append(kitchen.Lines, toLine(li))
		}
	}

	var out []Slip
	for _, s := range []Slip{kitchen, bar} {
		if len(s.Lines) == 0 {
			continue
		}
		s.Total = sumLines(s.Lines)
		out = append(out, s)
	}
	return out
}

func header(o order.Order) Slip {
	customer := o.CustomerName
	if customer == "" {
		customer = "N/A"
	}
	servedBy := o.Waiter
	if servedBy == "" {
		servedBy = o.Owner
	}
	return Slip{
		Order:     o.Name,
		Room:      o.Room,
		Table:     o.TableNumber,
		Customer:  customer,
		ServedBy:  servedBy,
		OrderType: o.OrderType,
		Lines:     []Line{},
	}
}

func toLine(li order.LineItem) Line {
	name := li.ItemName
	if name == "" {
		name = li.ItemCode
	}
	price := li.UnitPrice()
	return Line{
		Qty:                li.Quantity(),
		Item:               name,
		Variant:            li.Variant,
		AddOns:             li.AddOns,
		SpecialInstruction: li.SpecialInstruction,
		Price:              price,
		Total:              price.Mul(li.Quantity()),
	}
}

func sumLines(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Total)
	}
	return total
}
