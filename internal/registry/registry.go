// Package registry is the gateway directory: it answers which downstream
// gateways can receive an initiating action. Entries come from
// configuration; an empty directory is a server-side fault, not a client
// one.
package registry

import (
	"sync"

	"marketrelay/internal/fault"
)

// Gateway is one reachable downstream gateway.
type Gateway struct {
	ID  string
	URL string
}

// Directory holds the known gateways. Lookups are concurrency-safe.
type Directory struct {
	mu       sync.RWMutex
	gateways []Gateway
}

// NewDirectory builds a directory from a static gateway list.
func NewDirectory(gateways []Gateway) *Directory {
	d := &Directory{}
	d.Replace(gateways)
	return d
}

// Replace swaps the directory contents. Entries without a URL are dropped.
func (d *Directory) Replace(gateways []Gateway) {
	valid := make([]Gateway, 0, len(gateways))
	for _, gw := range gateways {
		if gw.URL != "" {
			valid = append(valid, gw)
		}
	}

	d.mu.Lock()
	d.gateways = valid
	d.mu.Unlock()
}

// Lookup returns the gateways able to serve an action. An empty directory
// yields fault.NoGateways.
func (d *Directory) Lookup() ([]Gateway, fault.Fault) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if len(d.gateways) == 0 {
		return nil, fault.NoGateways
	}

	out := make([]Gateway, len(d.gateways))
	copy(out, d.gateways)
	return out, nil
}
