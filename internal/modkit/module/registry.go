package module

import "sync"

// process-global registry used by main to cross-wire module ports
// during bootstrap; tests reset it between cases
var (
	mu  sync.RWMutex
	reg = map[string]any{}
)

// Register stores a port bundle under a module name
func Register(name string, ports any) {
	mu.Lock()
	reg[name] = ports
	mu.Unlock()
}

// PortsAs looks up name and asserts its bundle to T
func PortsAs[T any](name string) (T, bool) {
	mu.RLock()
	v, ok := reg[name]
	mu.RUnlock()
	if !ok {
		var zero T
		return zero, false
	}
	out, ok := v.(T)
	return out, ok
}

// Reset empties the registry (test hook)
func Reset() {
	mu.Lock()
	reg = map[string]any{}
	mu.Unlock()
}
