package weather

import (
	"strings"
	"sync"
)

// Snapshot is a cached current-conditions result for a city.
type Snapshot struct {
	City         string
	TemperatureC float64
	Condition    string
}

// Cache is a lock-guarded city→snapshot map. Keys are normalized so "Paris",
// " paris " and "PARIS" hit the same entry; the same snapshot can be stored
// under multiple aliases (user input and resolved locality).
type Cache struct {
	mu        sync.Mutex
	snapshots map[string]Snapshot
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{snapshots: make(map[string]Snapshot)}
}

func normalizeCity(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Set stores a snapshot under a single city key.
func (c *Cache) Set(city string, temperatureC float64, condition string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshots[normalizeCity(city)] = Snapshot{City: city, TemperatureC: temperatureC, Condition: condition}
}

// SetAliases stores the same snapshot under several aliases.
func (c *Cache) SetAliases(aliases []string, temperatureC float64, condition string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, alias := range aliases {
		c.snapshots[normalizeCity(alias)] = Snapshot{City: alias, TemperatureC: temperatureC, Condition: condition}
	}
}

// Get returns the snapshot for a city, if cached.
func (c *Cache) Get(city string) (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap, ok := c.snapshots[normalizeCity(city)]
	return snap, ok
}
