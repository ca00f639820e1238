// Package metrics keeps process-wide counters for the monitoring
// endpoints.
package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters
	CandidatesFound    int64
	DuplicatesFiltered int64
	ArticlesRejected   int64
	ItemsQueued        int64
	ItemsPublished     int64
	DeliveryFallbacks  int64
	FetchErrors        int64

	// Status
	SchedulerState string
	LastRunTime    time.Time
	LastErrorTime  time.Time
	LastError      string
	IsHealthy      bool
}

var Global = &Metrics{IsHealthy: true}

func (m *Metrics) AddCandidates(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CandidatesFound += int64(n)
}

func (m *Metrics) IncrementDuplicatesFiltered() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DuplicatesFiltered++
}

func (m *Metrics) IncrementArticlesRejected() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArticlesRejected++
}

func (m *Metrics) IncrementItemsQueued() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ItemsQueued++
}

func (m *Metrics) IncrementItemsPublished() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ItemsPublished++
}

func (m *Metrics) IncrementDeliveryFallbacks() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeliveryFallbacks++
}

func (m *Metrics) IncrementFetchErrors() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FetchErrors++
}

func (m *Metrics) SetSchedulerState(state string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SchedulerState = state
}

func (m *Metrics) SetLastRun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunTime = time.Now()
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"candidates_found":    m.CandidatesFound,
		"duplicates_filtered": m.DuplicatesFiltered,
		"articles_rejected":   m.ArticlesRejected,
		"items_queued":        m.ItemsQueued,
		"items_published":     m.ItemsPublished,
		"delivery_fallbacks":  m.DeliveryFallbacks,
		"fetch_errors":        m.FetchErrors,
		"scheduler_state":     m.SchedulerState,
		"last_run_time":       m.LastRunTime.Format(time.RFC3339),
		"last_error_time":     m.LastErrorTime.Format(time.RFC3339),
		"last_error":          m.LastError,
		"is_healthy":          m.IsHealthy,
	}
}
