package routes

import "sync"

// GuardConfig latches the guarded-multihost header name once, the way
// the original's src/server/headers.rs keeps it a one-shot
// initialization rather than a value re-read from a mutable config on
// every request (spec §4.4, §5).
type GuardConfig struct {
	once       sync.Once
	mu         sync.RWMutex
	headerName string
}

// NewGuardConfig returns a GuardConfig latched to headerName. An empty
// headerName means multihost guarding is disabled.
func NewGuardConfig(headerName string) *GuardConfig {
	g := &GuardConfig{}
	g.latch(headerName)
	return g
}

func (g *GuardConfig) latch(headerName string) {
	g.once.Do(func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		g.headerName = headerName
	})
}

// HeaderName returns the latched guard header name, or "" if unguarded.
func (g *GuardConfig) HeaderName() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.headerName
}

// Enabled reports whether multihost guarding is configured.
func (g *GuardConfig) Enabled() bool {
	return g.HeaderName() != ""
}
