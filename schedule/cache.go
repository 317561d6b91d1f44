/*
cache.go - Optional memoization for estimate results

PURPOSE:
  Avoids recomputing estimates when neither the inputs nor the window have
  changed (e.g. a UI re-render without a scroll). Keys are composed from
  stable IDs, a hash of the phase set, and the window bounds, never object
  identity, since callers typically rebuild inputs per call.

CORRECTNESS:
  The cache is an optimization only. Callers MUST invalidate a project's
  entries on any mutation of its phases, events, template, or holidays; a
  stale entry must never outlive a change to its inputs.
*/
package schedule

import (
	"fmt"
	"hash/fnv"
	"sort"
	"sync"
)

// =============================================================================
// ESTIMATE CACHE
// =============================================================================

// EstimateCache memoizes Calculate results. Safe for concurrent use.
type EstimateCache struct {
	mu      sync.RWMutex
	entries map[string][]DayEstimate
	// byProject tracks keys per project for targeted invalidation.
	byProject map[ProjectID][]string
}

func NewEstimateCache() *EstimateCache {
	return &EstimateCache{
		entries:   make(map[string][]DayEstimate),
		byProject: make(map[ProjectID][]string),
	}
}

// Key builds the composite cache key for a calculation.
func (c *EstimateCache) Key(projectID ProjectID, phases []Phase, window Period) string {
	return fmt.Sprintf("%s|%x|%s|%s", projectID, hashPhases(phases), window.Start, window.End)
}

// Get returns the cached estimates for a key, if present.
func (c *EstimateCache) Get(key string) ([]DayEstimate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	estimates, ok := c.entries[key]
	return estimates, ok
}

// Put stores estimates under a key for the given project.
func (c *EstimateCache) Put(projectID ProjectID, key string, estimates []DayEstimate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists {
		c.byProject[projectID] = append(c.byProject[projectID], key)
	}
	c.entries[key] = estimates
}

// Invalidate drops every cached entry for a project. Call on any mutation
// of the project, its phases, or its events.
func (c *EstimateCache) Invalidate(projectID ProjectID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range c.byProject[projectID] {
		delete(c.entries, key)
	}
	delete(c.byProject, projectID)
}

// Clear drops everything. Call when shared inputs (template, holidays)
// change, since those affect every project.
func (c *EstimateCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]DayEstimate)
	c.byProject = make(map[ProjectID][]string)
}

// hashPhases produces a stable hash over phase contents, order-insensitive.
func hashPhases(phases []Phase) uint64 {
	parts := make([]string, 0, len(phases))
	for _, phase := range phases {
		switch p := phase.(type) {
		case ExplicitPhase:
			parts = append(parts, fmt.Sprintf("e|%s|%s|%s|%s", p.ID, p.Start, p.End, p.Allocated))
		case RecurringPhase:
			parts = append(parts, fmt.Sprintf("r|%s|%s|%d|%s|%v|%d|%v|%s",
				p.ID, p.Rule.Freq, p.Rule.Interval, p.Rule.Anchor,
				p.Rule.Weekday, p.Rule.DayOfMonth, p.Rule.Nth, p.PerOccurrence))
		}
	}
	sort.Strings(parts)

	h := fnv.New64a()
	for _, part := range parts {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return h.Sum64()
}
