package relay

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/nostrcore/relay/pkg/interfaces/store"
	"github.com/nostrcore/relay/pkg/utils/context"
)

// MetricsCollector tracks connection and delivery counters for the
// /metrics endpoint, in the same hand-rolled Prometheus text format the
// rest of this codebase's operational surface uses.
type MetricsCollector struct {
	mu sync.RWMutex

	connectionsOpened int64
	connectionsClosed int64
	eventsStored      int64
	eventsRejected    int64
	eventsDelivered   int64

	lastHealthCheck time.Time
	isHealthy       bool
	healthErrors    []string
}

func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{isHealthy: true, lastHealthCheck: time.Now()}
}

func (mc *MetricsCollector) RecordConnectionOpened() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.connectionsOpened++
}

func (mc *MetricsCollector) RecordConnectionClosed() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.connectionsClosed++
}

func (mc *MetricsCollector) RecordEventStored() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.eventsStored++
}

func (mc *MetricsCollector) RecordEventRejected() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.eventsRejected++
}

func (mc *MetricsCollector) RecordEventDelivered() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.eventsDelivered++
}

// snapshot is an internal copy taken under the read lock, used by both
// the Prometheus text and JSON health renderers.
type snapshot struct {
	connectionsOpened, connectionsClosed int64
	eventsStored, eventsRejected         int64
	eventsDelivered                      int64
	isHealthy                            bool
	healthErrors                         []string
	lastHealthCheck                      time.Time
}

func (mc *MetricsCollector) snapshot() snapshot {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return snapshot{
		connectionsOpened: mc.connectionsOpened,
		connectionsClosed: mc.connectionsClosed,
		eventsStored:      mc.eventsStored,
		eventsRejected:    mc.eventsRejected,
		eventsDelivered:   mc.eventsDelivered,
		isHealthy:         mc.isHealthy,
		healthErrors:      mc.healthErrors,
		lastHealthCheck:   mc.lastHealthCheck,
	}
}

const promFormat = `# HELP relay_connections_opened_total Total number of websocket connections accepted
# TYPE relay_connections_opened_total counter
relay_connections_opened_total %d

# HELP relay_connections_closed_total Total number of websocket connections closed
# TYPE relay_connections_closed_total counter
relay_connections_closed_total %d

# HELP relay_connections_active Currently open websocket connections
# TYPE relay_connections_active gauge
relay_connections_active %d

# HELP relay_events_stored_total Total number of events accepted and stored
# TYPE relay_events_stored_total counter
relay_events_stored_total %d

# HELP relay_events_rejected_total Total number of events rejected by validation or policy
# TYPE relay_events_rejected_total counter
relay_events_rejected_total %d

# HELP relay_events_delivered_total Total number of events pushed to live subscriptions
# TYPE relay_events_delivered_total counter
relay_events_delivered_total %d

# HELP relay_health_status Health status (1 = healthy, 0 = unhealthy)
# TYPE relay_health_status gauge
relay_health_status %d
`

func (mc *MetricsCollector) prometheusText() string {
	s := mc.snapshot()
	healthy := 0
	if s.isHealthy {
		healthy = 1
	}
	return fmt.Sprintf(
		promFormat,
		s.connectionsOpened, s.connectionsClosed, s.connectionsOpened-s.connectionsClosed,
		s.eventsStored, s.eventsRejected, s.eventsDelivered, healthy,
	)
}

// PerformHealthCheck exercises the store with a GetByID lookup against
// an id no real event can have and records whether the store errors.
func (mc *MetricsCollector) PerformHealthCheck(c context.T, sto store.I) {
	_, err := sto.GetByID(c, make([]byte, 32))
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.lastHealthCheck = time.Now()
	if err != nil {
		mc.isHealthy = false
		mc.healthErrors = []string{err.Error()}
	} else {
		mc.isHealthy = true
		mc.healthErrors = nil
	}
}

// MetricsHandler serves the Prometheus text exposition format.
func (mc *MetricsCollector) MetricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(mc.prometheusText()))
}

// HealthHandler reports 200 while the collector considers the relay
// healthy, 503 otherwise.
func (mc *MetricsCollector) HealthHandler(w http.ResponseWriter, r *http.Request) {
	s := mc.snapshot()
	w.Header().Set("Content-Type", "application/json")
	if !s.isHealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	errs := "[]"
	if len(s.healthErrors) > 0 {
		errs = `["` + s.healthErrors[0] + `"]`
	}
	_, _ = fmt.Fprintf(
		w, `{"healthy":%t,"last_check":"%s","errors":%s,"connections_active":%d}`,
		s.isHealthy, s.lastHealthCheck.Format(time.RFC3339), errs,
		s.connectionsOpened-s.connectionsClosed,
	)
}
