package erp

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"
)

// Item is an ERP Item row.
type Item struct {
	Name        string `json:"name"`
	ItemCode    string `json:"item_code"`
	ItemName    string `json:"item_name"`
	ItemGroup   string `json:"item_group"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Disabled    int    `json:"disabled"`
}

// ItemPrice is an ERP Item Price row.
type ItemPrice struct {
	ItemCode      string          `json:"item_code"`
	PriceList     string          `json:"price_list"`
	PriceListRate decimal.Decimal `json:"price_list_rate"`
}

// AddOn is an ERP Item Add-on row.
type AddOn struct {
	AddOnName  string          `json:"add_on_name"`
	LinkedItem string          `json:"linked_item"`
	Price      decimal.Decimal `json:"price"`
}

func (c *Client) ListItems(ctx context.Context) ([]Item, error) {
	var resp struct {
		Data []Item `json:"data"`
	}
	q := fieldsQuery("*")
	q.Set("limit_page_length", "0")
	if err := c.doJSON(ctx, "list_items", http.MethodGet, resourcePath("Item"), q, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) ListItemPrices(ctx context.Context) ([]ItemPrice, error) {
	var resp struct {
		Data []ItemPrice `json:"data"`
	}
	q := fieldsQuery("*")
	q.Set("limit_page_length", "0")
	if err := c.doJSON(ctx, "list_item_prices", http.MethodGet, resourcePath("Item Price"), q, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) ListAddOns(ctx context.Context) ([]AddOn, error) {
	var resp struct {
		Data []AddOn `json:"data"`
	}
	q := fieldsQuery("*")
	q.Set("limit_page_length", "0")
	if err := c.doJSON(ctx, "list_add_ons", http.MethodGet, resourcePath("Item Add-on"), q, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}
