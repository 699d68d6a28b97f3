// Package catalog joins ERP items, prices and add-ons into the menu the
// order-entry screen browses, and caches it.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ruelux/pos/internal/cart"
	"github.com/ruelux/pos/internal/erp"
	"github.com/ruelux/pos/internal/metrics"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

var ErrItemNotFound = errors.New("menu item not found")

// Source defines the ERP reads the catalog needs.
// Satisfied by *erp.Client; narrow interface for testability.
type Source interface {
	ListItems(ctx context.Context) ([]erp.Item, error)
	ListItemPrices(ctx context.Context) ([]erp.ItemPrice, error)
	ListAddOns(ctx context.Context) ([]erp.AddOn, error)
}

// MenuItem is an orderable item with its price and add-on catalog.
type MenuItem struct {
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	ItemGroup   string          `json:"item_group"`
	Description string          `json:"description,omitempty"`
	Image       string          `json:"image,omitempty"`
	Price       decimal.Decimal `json:"price"`
	PriceList   string          `json:"price_list,omitempty"`
	Priced      bool            `json:"priced"`
	AddOns      []cart.AddOn    `json:"add_ons"`
}

// Fetch reads items, prices and add-ons concurrently and joins them.
func Fetch(ctx context.Context, src Source) ([]MenuItem, error) {
	var (
		items  []erp.Item
		prices []erp.ItemPrice
		addOns []erp.AddOn
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = src.ListItems(gctx)
		if err != nil {
			return fmt.Errorf("list items: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		prices, err = src.ListItemPrices(gctx)
		if err != nil {
			return fmt.Errorf("list item prices: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		addOns, err = src.ListAddOns(gctx)
		if err != nil {
			return fmt.Errorf("list add-ons: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return Join(items, prices, addOns), nil
}

// Join matches prices and add-ons to items by item code. The first price
// entry for an item wins; disabled items are skipped.
func Join(items []erp.Item, prices []erp.ItemPrice, addOns []erp.AddOn) []MenuItem {
	priceByCode := make(map[string]erp.ItemPrice, len(prices))
	for _, p := range prices {
		if _, ok := priceByCode[p.ItemCode]; !ok {
			priceByCode[p.ItemCode] = p
		}
	}
	addOnsByItem := make(map[string][]cart.AddOn)
	for _, a := range addOns {
		addOnsByItem[a.LinkedItem] = append(addOnsByItem[a.LinkedItem], cart.AddOn{Name: a.AddOnName, Price: a.Price})
	}

	menu := make([]MenuItem, 0, len(items))
	for _, it := range items {
		if it.Disabled != 0 {
			continue
		}
		code := it.Name
		mi := MenuItem{
			Code:        code,
			Name:        it.ItemName,
			ItemGroup:   it.ItemGroup,
			Description: it.Description,
			Image:       it.Image,
			AddOns:      addOnsByItem[code],
		}
		if mi.Name == "" {
			mi.Name = code
		}
		if mi.AddOns == nil {
			mi.AddOns = []cart.AddOn{}
		}
		if p, ok := priceByCode[code]; ok {
			mi.Price = p.PriceListRate
			mi.PriceList = p.PriceList
			mi.Priced = true
		}
		menu = append(menu, mi)
	}
	return menu
}

// Cache serves the joined menu for ttl before refetching.
type Cache struct {
	src   Source
	ttl   time.Duration
	now   func() time.Time
	group singleflight.Group

	mu        sync.RWMutex
	items     []MenuItem
	fetchedAt time.Time
}

// NewCache creates a new Cache.
func NewCache(src Source, ttl time.Duration) *Cache {
	return &Cache{src: src, ttl: ttl, now: time.Now}
}

// Menu returns the cached menu, refetching once it is older than ttl.
// Concurrent misses share a single fetch.
func (c *Cache) Menu(ctx context.Context) ([]MenuItem, error) {
	c.mu.RLock()
	if c.items != nil && c.now().Sub(c.fetchedAt) < c.ttl {
		items := c.items
		c.mu.RUnlock()
		metrics.RecordMenuCache(true)
		return items, nil
	}
	c.mu.RUnlock()
	metrics.RecordMenuCache(false)

	v, err, _ := c.group.Do("menu", func() (interface{}, error) {
		items, err := Fetch(ctx, c.src)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.items = items
		c.fetchedAt = c.now()
		c.mu.Unlock()
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]MenuItem), nil
}

// Lookup returns the menu item with the given code.
func (c *Cache) Lookup(ctx context.Context, code string) (MenuItem, error) {
	items, err := c.Menu(ctx)
	if err != nil {
		return MenuItem{}, err
	}
	for _, it := range items {
		if it.Code == code {
			return it, nil
		}
	}
	return MenuItem{}, fmt.Errorf("%w: %s", ErrItemNotFound, code)
}

// Invalidate forces the next Menu call to refetch.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.items = nil
	c.mu.Unlock()
}
