package metrics

import "sync"

// Outcome label values of RequestsTotal.
const (
	OutcomeOK             = "ok"
	OutcomeConfigError    = "config_error"
	OutcomeTransportError = "transport_error"
	OutcomeParseError     = "parse_error"
	OutcomeMappingError   = "mapping_error"
)

var (
	// RequestsTotal counts adapter requests.
	// Labels: collection, action, outcome
	RequestsTotal *Counter

	// RequestDuration tracks adapter request latency in seconds, transport
	// and mapping included.
	// Labels: collection, action
	RequestDuration *Histogram

	// Connections is the number of connections in the active registry.
	Connections *Gauge

	defaultRegistry *Registry
	initOnce        sync.Once
)

// Init initializes the default metrics and returns the registry. It is
// idempotent.
func Init() *Registry {
	initOnce.Do(func() {
		defaultRegistry = NewRegistry()

		RequestsTotal = defaultRegistry.NewCounter(
			"soapmap_requests_total",
			"Total number of adapter requests",
			"collection", "action", "outcome",
		)

		RequestDuration = defaultRegistry.NewHistogram(
			"soapmap_request_duration_seconds",
			"Duration of adapter requests in seconds",
			DefaultBuckets,
			"collection", "action",
		)

		Connections = defaultRegistry.NewGauge(
			"soapmap_connections",
			"Number of registered SOAP connections",
		)
	})
	return defaultRegistry
}

// DefaultRegistry returns the default registry, or nil before Init.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Reset clears the default metrics so Init can run again. Used by tests.
func Reset() {
	initOnce = sync.Once{}
	defaultRegistry = nil
	RequestsTotal = nil
	RequestDuration = nil
	Connections = nil
}
