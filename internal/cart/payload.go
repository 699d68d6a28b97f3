package cart

import (
	"strings"
	"time"

	"github.com/ruelux/pos/internal/order"
)

const dateLayout = "2006-01-02"

// SubmitInfo carries the order-level fields collected next to the cart.
type SubmitInfo struct {
	Customer     string
	CustomerName string
	Waiter       string
	Room         string
	Table        string
	OrderType    string
	Warehouse    string
	Date         time.Time
}

// BuildPayload renames quantity to qty, derives item_code from the item name
// and stamps every line with the fulfillment warehouse.
func BuildPayload(items []Item, info SubmitInfo) order.CreatePayload {
	date := info.Date.Format(dateLayout)
	p := order.CreatePayload{
		Customer:        info.Customer,
		CustomerName:    info.CustomerName,
		TransactionDate: date,
		DeliveryDate:    date,
		Waiter:          info.Waiter,
		TableNumber:     "Table-" + info.Table,
		Room:            info.Room,
		OrderType:       info.OrderType,
		Items:           make([]order.PayloadItem, 0, len(items)),
	}
	for _, it := range items {
		p.Items = append(p.Items, order.PayloadItem{
			ItemCode:           it.Name,
			Qty:                it.Quantity,
			Warehouse:          info.Warehouse,
			Variant:            it.Variant,
			AddOns:             strings.Join(it.AddOns, ", "),
			SpecialInstruction: it.SpecialInstruction,
			ServeTime:          it.ServeTime,
		})
	}
	return p
}
