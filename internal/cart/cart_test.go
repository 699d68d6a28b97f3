package cart_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/ruelux/pos/internal/cart"
	"github.com/shopspring/decimal"
)

func intPtr(i int) *int { return &i }

func TestAdd_MergesIdenticalSelections(t *testing.T) {
	quantities := []int{1, 3, 2, 5}
	c := cart.New()
	for _, q := range quantities {
		err := c.Add(cart.Item{
			Name:     "Burger",
			Price:    decimal.NewFromInt(300),
			Quantity: q,
			Variant:  "Large",
			AddOns:   []string{"Cheese"},
		})
		if err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	items := c.Items()
	if len(items) != 1 {
		t.Fatalf("lines: got %d, want 1", len(items))
	}
	if items[0].Quantity != 11 {
		t.Errorf("quantity: got %d, want 11", items[0].Quantity)
	}
}

func TestAdd_DefaultsQuantityToOne(t *testing.T) {
	c := cart.New()
	if err := c.Add(cart.Item{Name: "Tea"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := c.Add(cart.Item{Name: "Tea"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if got := c.Items()[0].Quantity; got != 2 {
		t.Errorf("quantity: got %d, want 2", got)
	}
}

func TestAdd_RejectsEmptyName(t *testing.T) {
	c := cart.New()
	if err := c.Add(cart.Item{Quantity: 1}); !errors.Is(err, cart.ErrInvalidItem) {
		t.Fatalf("error: got %v, want ErrInvalidItem", err)
	}
	if c.Len() != 0 {
		t.Errorf("cart should stay empty, has %d lines", c.Len())
	}
}

func TestAdd_MergeOverridesPresentFields(t *testing.T) {
	c := cart.New(cart.Item{
		Name:               "Burger",
		Idx:                intPtr(0),
		Price:              decimal.NewFromInt(300),
		Quantity:           1,
		Variant:            "Small",
		SpecialInstruction: "no onion",
	})

	err := c.Add(cart.Item{
		Name:     "Burger",
		Idx:      intPtr(0),
		Quantity: 2,
		Variant:  "Large",
		AddOns:   []string{"Bacon"},
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	got := c.Items()[0]
	if got.Quantity != 3 {
		t.Errorf("quantity: got %d, want 3", got.Quantity)
	}
	if got.Variant != "Large" {
		t.Errorf("variant: got %q, want Large", got.Variant)
	}
	if got.SpecialInstruction != "no onion" {
		t.Errorf("special instruction: got %q, want kept", got.SpecialInstruction)
	}
	if !got.Price.Equal(decimal.NewFromInt(300)) {
		t.Errorf("price: got %s, want 300 kept", got.Price)
	}
	if !reflect.DeepEqual(got.AddOns, []string{"Bacon"}) {
		t.Errorf("add-ons: got %v", got.AddOns)
	}
	if got.Idx == nil || *got.Idx != 0 {
		t.Errorf("idx: got %v, want 0", got.Idx)
	}
}

func TestAdd_DifferentRowIndexAppends(t *testing.T) {
	c := cart.New(cart.Item{Name: "Burger", Idx: intPtr(0), Quantity: 1})
	if err := c.Add(cart.Item{Name: "Burger", Idx: intPtr(1), Quantity: 1}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("lines: got %d, want 2", c.Len())
	}
}

func TestItems_ReturnsCopy(t *testing.T) {
	c := cart.New(cart.Item{Name: "Burger", Quantity: 1, AddOns: []string{"Cheese"}})
	items := c.Items()
	items[0].Quantity = 99
	items[0].AddOns[0] = "Bacon"

	got := c.Items()[0]
	if got.Quantity != 1 || got.AddOns[0] != "Cheese" {
		t.Errorf("cart mutated through Items(): %+v", got)
	}
}

func TestUpdateQuantity_UnchangedIsIdempotent(t *testing.T) {
	c := cart.New(
		cart.Item{Name: "Burger", Quantity: 2, Price: decimal.NewFromInt(300)},
		cart.Item{Name: "Tea", Quantity: 1, Price: decimal.NewFromInt(20)},
	)
	before := c.Items()

	for i, it := range before {
		if err := c.UpdateQuantity(i, it.Quantity); err != nil {
			t.Fatalf("update %d: %v", i, err)
		}
	}
	if !reflect.DeepEqual(before, c.Items()) {
		t.Errorf("cart changed:\nbefore %+v\nafter  %+v", before, c.Items())
	}
}

func TestUpdateQuantity_ZeroOrNegativeRemoves(t *testing.T) {
	for _, qty := range []int{0, -1, -5} {
		c := cart.New(
			cart.Item{Name: "Burger", Quantity: 2},
			cart.Item{Name: "Tea", Quantity: 1},
		)
		if err := c.UpdateQuantity(0, qty); err != nil {
			t.Fatalf("qty %d: %v", qty, err)
		}
		items := c.Items()
		if len(items) != 1 || items[0].Name != "Tea" {
			t.Errorf("qty %d: got %+v, want only Tea", qty, items)
		}
	}
}

func TestUpdateQuantity_Sets(t *testing.T) {
	c := cart.New(cart.Item{Name: "Burger", Quantity: 2})
	if err := c.UpdateQuantity(0, 7); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := c.Items()[0].Quantity; got != 7 {
		t.Errorf("quantity: got %d, want 7", got)
	}
}

func TestRemove_OutOfRange(t *testing.T) {
	c := cart.New(cart.Item{Name: "Burger", Quantity: 1})
	for _, idx := range []int{-1, 1, 5} {
		if err := c.Remove(idx); !errors.Is(err, cart.ErrIndexOutOfRange) {
			t.Errorf("remove(%d): got %v, want ErrIndexOutOfRange", idx, err)
		}
		if err := c.UpdateQuantity(idx, 3); !errors.Is(err, cart.ErrIndexOutOfRange) {
			t.Errorf("update(%d): got %v, want ErrIndexOutOfRange", idx, err)
		}
	}
}

func TestRemove_LastLineZeroesTotals(t *testing.T) {
	c := cart.New(cart.Item{Name: "Burger", Quantity: 1, Price: decimal.NewFromInt(300)})
	if err := c.Remove(0); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if c.Len() != 0 {
		t.Fatalf("lines: got %d, want 0", c.Len())
	}

	s := cart.DefaultPolicy().Summarize(c.Items())
	for name, v := range map[string]decimal.Decimal{
		"subtotal": s.Subtotal, "tax": s.Tax, "service fee": s.ServiceFee, "total": s.Total,
	} {
		if !v.IsZero() {
			t.Errorf("%s: got %s, want 0", name, v)
		}
	}
	if s.Lines == nil || len(s.Lines) != 0 {
		t.Errorf("lines: got %v, want empty slice", s.Lines)
	}
}

func TestClear(t *testing.T) {
	c := cart.New(cart.Item{Name: "Burger", Quantity: 1})
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("lines: got %d, want 0", c.Len())
	}
}
