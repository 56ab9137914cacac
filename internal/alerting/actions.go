package alerting

import "sync"

// actionCatalog maps rules (and, as a fallback, metric categories) to
// suggested operator actions attached to new alerts.
type actionCatalog struct {
	mu     sync.RWMutex
	byRule map[string][]string
}

func newActionCatalog() *actionCatalog {
	return &actionCatalog{byRule: make(map[string][]string)}
}

func (c *actionCatalog) register(ruleID string, actions []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byRule[ruleID] = actions
}

func (c *actionCatalog) lookup(ruleID, category string) []string {
	c.mu.RLock()
	if actions, ok := c.byRule[ruleID]; ok {
		c.mu.RUnlock()
		out := make([]string, len(actions))
		copy(out, actions)
		return out
	}
	c.mu.RUnlock()
	return defaultActions(category)
}

func defaultActions(category string) []string {
	switch category {
	case "compute":
		return []string{"inspect top consumers", "consider scaling out"}
	case "memory":
		return []string{"check for leaks", "restart the affected service"}
	case "storage":
		return []string{"purge old data", "expand the volume"}
	case "network":
		return []string{"check upstream health", "inspect connection pools"}
	case "errors":
		return []string{"inspect recent deploys", "check dependency status"}
	default:
		return []string{"inspect the resource"}
	}
}
