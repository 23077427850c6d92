// file: services/port_allocator.go
package services

import (
	"fmt"
	"sync"
)

// PortAllocator hands out host ports from a fixed range. It is shared by
// every team, so all access goes through its own lock.
type PortAllocator struct {
	mu    sync.Mutex
	low   int
	high  int
	inUse map[int]bool
}

func NewPortAllocator(low, high int) (*PortAllocator, error) {
	if low < 1 || high > 65535 || low > high {
		return nil, fmt.Errorf("invalid port range %d-%d", low, high)
	}
	return &PortAllocator{
		low:   low,
		high:  high,
		inUse: make(map[int]bool),
	}, nil
}

// Allocate returns the lowest free port in the range, or ErrPortsExhausted.
// Lowest-first keeps allocations debuggable and reuses freed ports quickly.
func (a *PortAllocator) Allocate() (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for port := a.low; port <= a.high; port++ {
		if !a.inUse[port] {
			a.inUse[port] = true
			return port, nil
		}
	}
	return 0, ErrPortsExhausted
}

// Release frees a port. Releasing a port that is not allocated is a no-op,
// so double teardown is harmless.
func (a *PortAllocator) Release(port int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.inUse, port)
}

// InUse returns the number of currently allocated ports.
func (a *PortAllocator) InUse() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.inUse)
}
