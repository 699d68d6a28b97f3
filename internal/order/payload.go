package order

// CreatePayload is the body of a Sales Order create call.
type CreatePayload struct {
	Customer        string        `json:"customer"`
	CustomerName    string        `json:"custom_customer_name,omitempty"`
	TransactionDate string        `json:"transaction_date"`
	DeliveryDate    string        `json:"delivery_date"`
	Waiter          string        `json:"custom_waiter"`
	TableNumber     string        `json:"custom_table_number"`
	Room            string        `json:"custom_room"`
	OrderType       string        `json:"custom_order_type"`
	Items           []PayloadItem `json:"items"`
}

// PayloadItem is one reconciled cart line.
type PayloadItem struct {
	ItemCode           string `json:"item_code"`
	Qty                int    `json:"qty"`
	Warehouse          string `json:"warehouse"`
	Variant            string `json:"custom_variant_items,omitempty"`
	AddOns             string `json:"custom_add_ons,omitempty"`
	SpecialInstruction string `json:"custom_special_instruction,omitempty"`
	ServeTime          string `json:"custom_serve_time,omitempty"`
}
