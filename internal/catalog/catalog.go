// Package catalog holds the reference set of priced construction items.
//
// Items live in an id-addressed arena. Readers always receive deep copies; the only
// mutation path is Update, which the market simulator owns.
package catalog

import (
	"strings"
	"sync"

	"PriceSentinel/internal/model"
)

// Catalog is safe for concurrent readers and a single writer.
type Catalog struct {
	mu    sync.RWMutex
	items map[string]*model.CatalogItem
	order []string
}

// New builds a catalog from items. Later duplicates of an id replace earlier ones.
func New(items []model.CatalogItem) *Catalog {
	c := &Catalog{items: make(map[string]*model.CatalogItem, len(items))}
	for _, it := range items {
		cp := it.Clone()
		if _, exists := c.items[cp.ID]; !exists {
			c.order = append(c.order, cp.ID)
		}
		c.items[cp.ID] = &cp
	}
	return c
}

// Len returns the number of items, active or not.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// Get returns a snapshot of the item with id.
func (c *Catalog) Get(id string) (model.CatalogItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	it, ok := c.items[id]
	if !ok {
		return model.CatalogItem{}, false
	}
	return it.Clone(), true
}

// FindByName looks an item up by id, code, English name or Arabic name, ignoring case
// and surrounding whitespace.
func (c *Catalog) FindByName(name string) (model.CatalogItem, bool) {
	needle := normalize(name)
	if needle == "" {
		return model.CatalogItem{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, id := range c.order {
		it := c.items[id]
		if normalize(it.ID) == needle || normalize(it.Code) == needle ||
			normalize(it.NameEN) == needle || normalize(it.NameAR) == needle {
			return it.Clone(), true
		}
	}
	return model.CatalogItem{}, false
}

// All returns snapshots of every item in load order.
func (c *Catalog) All() []model.CatalogItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.CatalogItem, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.items[id].Clone())
	}
	return out
}

// Active returns snapshots of active items in load order.
func (c *Catalog) Active() []model.CatalogItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.CatalogItem, 0, len(c.order))
	for _, id := range c.order {
		if it := c.items[id]; it.IsActive {
			out = append(out, it.Clone())
		}
	}
	return out
}

// Update calls fn on every active item, in load order, under the write lock.
// fn must not retain the pointer or call back into the catalog.
func (c *Catalog) Update(fn func(item *model.CatalogItem)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range c.order {
		if it := c.items[id]; it.IsActive {
			fn(it)
		}
	}
}

// Restore overwrites the mutable market state (current price, regional prices, history,
// trend and last update) of items whose id is already known. Unknown ids are ignored so a
// stale snapshot can never add items. It returns how many items were restored.
func (c *Catalog) Restore(snapshot []model.CatalogItem) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, s := range snapshot {
		it, ok := c.items[s.ID]
		if !ok || len(s.PriceHistory) == 0 {
			continue
		}
		src := s.Clone()
		it.PriceHistory = src.PriceHistory
		if len(it.PriceHistory) > model.MaxPriceHistory {
			it.PriceHistory = it.PriceHistory[len(it.PriceHistory)-model.MaxPriceHistory:]
		}
		last := it.PriceHistory[len(it.PriceHistory)-1]
		it.CurrentPrice = last.Price
		it.LastUpdated = last.At
		if src.RegionalPrices != nil {
			it.RegionalPrices = src.RegionalPrices
		}
		if src.Trend != "" {
			it.Trend = src.Trend
		}
		n++
	}
	return n
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
