// Package cart assembles menu selections into order lines before submission.
package cart

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidItem     = errors.New("item name is required")
	ErrIndexOutOfRange = errors.New("cart index out of range")
)

// AddOn is a priced modifier from an item's own add-on catalog.
type AddOn struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// Item is a cart line. Name doubles as the ERP item code.
type Item struct {
	Name               string          `json:"name"`
	Idx                *int            `json:"idx,omitempty"`
	Price              decimal.Decimal `json:"price"`
	Quantity           int             `json:"quantity"`
	Variant            string          `json:"variant,omitempty"`
	ItemGroup          string          `json:"item_group,omitempty"`
	SpecialInstruction string          `json:"special_instruction,omitempty"`
	ServeTime          string          `json:"serve_time,omitempty"`
	AddOnCatalog       []AddOn         `json:"add_on_catalog,omitempty"`
	AddOns             []string        `json:"add_ons,omitempty"`
}

// Cart is an ordered list of lines. The zero value is an empty cart.
type Cart struct {
	items []Item
}

// New returns a cart pre-filled with items.
func New(items ...Item) *Cart {
	c := &Cart{}
	for _, it := range items {
		c.items = append(c.items, cloneItem(it))
	}
	return c
}

// Add merges candidate into the first line with the same name (and the same
// row index, when candidate carries one); otherwise it appends a new line.
func (c *Cart) Add(candidate Item) error {
	if candidate.Name == "" {
		return ErrInvalidItem
	}
	if candidate.Quantity <= 0 {
		candidate.Quantity = 1
	}
	for i, existing := range c.items {
		if matches(existing, candidate) {
			c.items[i] = merge(existing, candidate)
			return nil
		}
	}
	c.items = append(c.items, cloneItem(candidate))
	return nil
}

// Remove deletes the line at index. Lines are addressed by position because
// one menu item can appear several times with different customizations.
func (c *Cart) Remove(index int) error {
	if index < 0 || index >= len(c.items) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	c.items = append(c.items[:index], c.items[index+1:]...)
	return nil
}

// UpdateQuantity sets the quantity of the line at index. A quantity <= 0
// removes the line.
func (c *Cart) UpdateQuantity(index, qty int) error {
	if qty <= 0 {
		return c.Remove(index)
	}
	if index < 0 || index >= len(c.items) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	c.items[index].Quantity = qty
	return nil
}

// Items returns a copy of the lines in cart order.
func (c *Cart) Items() []Item {
	out := make([]Item, len(c.items))
	for i, it := range c.items {
		out[i] = cloneItem(it)
	}
	return out
}

func (c *Cart) Len() int { return len(c.items) }

func (c *Cart) Clear() { c.items = nil }

func matches(existing, candidate Item) bool {
	if existing.Name != candidate.Name {
		return false
	}
	if candidate.Idx == nil {
		return true
	}
	return existing.Idx != nil && *existing.Idx == *candidate.Idx
}

// merge sums quantities and lets every non-empty candidate field override the
// existing one. The existing row index is kept.
func merge(existing, candidate Item) Item {
	out := cloneItem(existing)
	out.Quantity = existing.Quantity + candidate.Quantity
	if !candidate.Price.IsZero() {
		out.Price = candidate.Price
	}
	out.Variant = overrideString(existing.Variant, candidate.Variant)
	out.ItemGroup = overrideString(existing.ItemGroup, candidate.ItemGroup)
	out.SpecialInstruction = overrideString(existing.SpecialInstruction, candidate.SpecialInstruction)
	out.ServeTime = overrideString(existing.ServeTime, candidate.ServeTime)
	if len(candidate.AddOnCatalog) > 0 {
		out.AddOnCatalog = append([]AddOn(nil), candidate.AddOnCatalog...)
	}
	if len(candidate.AddOns) > 0 {
		out.AddOns = append([]string(nil), candidate.AddOns...)
	}
	return out
}

func overrideString(existing, candidate string) string {
	if candidate != "" {
		return candidate
	}
	return existing
}

func cloneItem(it Item) Item {
	out := it
	if it.Idx != nil {
		idx := *it.Idx
		out.Idx = &idx
	}
	if it.AddOnCatalog != nil {
		out.AddOnCatalog = append([]AddOn(nil), it.AddOnCatalog...)
	}
	if it.AddOns != nil {
		out.AddOns = append([]string(nil), it.AddOns...)
	}
	return out
}
