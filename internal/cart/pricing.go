package cart

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Policy holds the display-only surcharges applied to the cart subtotal, in
// percent. The ERP recomputes the authoritative total.
type Policy struct {
	TaxRate        decimal.Decimal
	ServiceFeeRate decimal.Decimal
}

// DefaultPolicy is 15% tax plus a 10% service fee.
func DefaultPolicy() Policy {
	return Policy{
		TaxRate:        decimal.NewFromInt(15),
		ServiceFeeRate: decimal.NewFromInt(10),
	}
}

// Line is the priced view of one cart item.
type Line struct {
	Item      Item            `json:"item"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// Summary is the priced view of a whole cart.
type Summary struct {
	Lines      []Line          `json:"lines"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Tax        decimal.Decimal `json:"tax"`
	ServiceFee decimal.Decimal `json:"service_fee"`
	Total      decimal.Decimal `json:"total"`
}

// UnitPrice is the base price plus every selected add-on found in the item's
// own catalog. Unknown add-on names add nothing.
func UnitPrice(it Item) decimal.Decimal {
	price := it.Price
	for _, name := range it.AddOns {
		for _, a := range it.AddOnCatalog {
			if a.Name == name {
				price = price.Add(a.Price)
				break
			}
		}
	}
	return price
}

// LineTotal is UnitPrice times quantity.
func LineTotal(it Item) decimal.Decimal {
	return UnitPrice(it).Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// Summarize prices every line and applies the policy to the subtotal.
func (p Policy) Summarize(items []Item) Summary {
	s := Summary{
		Lines:    make([]Line, 0, len(items)),
		Subtotal: decimal.Zero,
	}
	for _, it := range items {
		line := Line{
			Item:      it,
			UnitPrice: UnitPrice(it),
			LineTotal: LineTotal(it),
		}
		s.Lines = append(s.Lines, line)
		s.Subtotal = s.Subtotal.Add(line.LineTotal)
	}
	s.Tax = percentOf(s.Subtotal, p.TaxRate)
	s.ServiceFee = percentOf(s.Subtotal, p.ServiceFeeRate)
	s.Total = s.Subtotal.Add(s.Tax).Add(s.ServiceFee)
	return s
}

func percentOf(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Div(hundred).Round(2)
}
