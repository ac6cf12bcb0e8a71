package sync

import (
	"sort"
	"sync"

	"github.com/appetiteclub/apt"

	"github.com/adrian08041/cardapio/internal/order"
	"github.com/adrian08041/cardapio/pkg/enums/station"
)

// OrderStateCache maintains an in-memory cache of orders, indexed by
// status and by station for efficient board queries. An order with
// items across several stations appears in every matching station
// bucket.
type OrderStateCache struct {
	mu sync.RWMutex
	// orders indexed by order id
	orders map[string]*order.Order
	// index by status name -> order ids
	byStatus map[string][]string
	// index by station name -> order ids
	byStation map[string][]string

	logger apt.Logger

	subscribers []func()
}

// NewOrderStateCache creates an empty order cache.
func NewOrderStateCache(logger apt.Logger) *OrderStateCache {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &OrderStateCache{
		orders:    make(map[string]*order.Order),
		byStatus:  make(map[string][]string),
		byStation: make(map[string][]string),
		logger:    logger,
	}
}

// Subscribe registers a callback fired after every cache change.
func (c *OrderStateCache) Subscribe(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers = append(c.subscribers, fn)
}

// Replace swaps the full cache contents with a fresh server result.
// Poll results are authoritative: orders absent from the new set drop
// out of the cache.
func (c *OrderStateCache) Replace(orders []*order.Order) {
	c.mu.Lock()
	c.orders = make(map[string]*order.Order, len(orders))
	c.byStatus = make(map[string][]string)
	c.byStation = make(map[string][]string)
	for _, o := range orders {
		if o == nil || o.ID == "" {
			continue
		}
		c.setLocked(o)
	}
	c.mu.Unlock()

	c.notify()
}

// Set updates or adds one order, reindexing it.
func (c *OrderStateCache) Set(o *order.Order) {
	if o == nil || o.ID == "" {
		return
	}

	c.mu.Lock()
	if old, exists := c.orders[o.ID]; exists {
		c.unindexLocked(old)
	}
	c.setLocked(o)
	c.mu.Unlock()

	c.notify()
}

// Get retrieves a copy of an order by id, or nil when absent.
func (c *OrderStateCache) Get(id string) *order.Order {
	c.mu.RLock()
	defer c.mu.RUnlock()

	o, ok := c.orders[id]
	if !ok {
		return nil
	}
	clone := *o
	return &clone
}

// GetByStatus returns orders in the given status, oldest first.
func (c *OrderStateCache) GetByStatus(status string) []*order.Order {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.collectLocked(c.byStatus[status])
}

// GetByStation returns orders with at least one item routed to the
// given station, oldest first.
func (c *OrderStateCache) GetByStation(stationName string) []*order.Order {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.collectLocked(c.byStation[stationName])
}

// GetAll returns every cached order, oldest first.
func (c *OrderStateCache) GetAll() []*order.Order {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]string, 0, len(c.orders))
	for id := range c.orders {
		ids = append(ids, id)
	}
	return c.collectLocked(ids)
}

// Remove deletes an order from the cache.
func (c *OrderStateCache) Remove(id string) {
	c.mu.Lock()
	o := c.orders[id]
	if o == nil {
		c.mu.Unlock()
		return
	}
	c.unindexLocked(o)
	delete(c.orders, id)
	c.mu.Unlock()

	c.notify()
}

// Count returns the number of cached orders.
func (c *OrderStateCache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.orders)
}

func (c *OrderStateCache) setLocked(o *order.Order) {
	clone := *o
	c.orders[o.ID] = &clone

	c.byStatus[clone.Status] = append(c.byStatus[clone.Status], clone.ID)
	for _, st := range orderStations(&clone) {
		c.byStation[st] = append(c.byStation[st], clone.ID)
	}
}

func (c *OrderStateCache) unindexLocked(o *order.Order) {
	c.removeFromIndex(c.byStatus, o.Status, o.ID)
	for _, st := range orderStations(o) {
		c.removeFromIndex(c.byStation, st, o.ID)
	}
}

func (c *OrderStateCache) removeFromIndex(index map[string][]string, key, id string) {
	ids := index[key]
	for i, candidate := range ids {
		if candidate == id {
			index[key] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
}

func (c *OrderStateCache) collectLocked(ids []string) []*order.Order {
	result := make([]*order.Order, 0, len(ids))
	for _, id := range ids {
		if o := c.orders[id]; o != nil {
			clone := *o
			result = append(result, &clone)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

func (c *OrderStateCache) notify() {
	c.mu.RLock()
	subscribers := make([]func(), len(c.subscribers))
	copy(subscribers, c.subscribers)
	c.mu.RUnlock()

	for _, fn := range subscribers {
		fn()
	}
}

// orderStations returns the distinct stations an order's items route
// to, applying the default station for unset items.
func orderStations(o *order.Order) []string {
	seen := make(map[string]bool, len(station.All))
	var result []string
	for _, item := range o.Items {
		name := item.StationEnum().Name
		if !seen[name] {
			seen[name] = true
			result = append(result, name)
		}
	}
	return result
}
