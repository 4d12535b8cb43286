package adapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/getmockd/soapmap/pkg/logging"
	"github.com/getmockd/soapmap/pkg/mapping"
	"github.com/getmockd/soapmap/pkg/metrics"
	"github.com/getmockd/soapmap/pkg/soap"
	"github.com/getmockd/soapmap/pkg/util"
)

// Adapter dispatches named actions to SOAP operations. It is safe for
// concurrent use; all per-call state is owned by the call.
type Adapter struct {
	registry *Registry
	logger   *slog.Logger
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the adapter's logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) {
		a.logger = l
	}
}

// New returns an adapter over a built registry.
func New(registry *Registry, opts ...Option) *Adapter {
	a := &Adapter{
		registry: registry,
		logger:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if metrics.Connections != nil {
		_ = metrics.Connections.Set(float64(len(registry.connections)))
	}
	return a
}

// Registry returns the adapter's registry.
func (a *Adapter) Registry() *Registry {
	return a.registry
}

// Request runs one action: it builds the payload from args, invokes the
// bound operation and maps the response body into records. reqCtx is the
// context the connection credentials are rendered against.
//
// Transport failures are returned as the *soap.Error the client produced.
func (a *Adapter) Request(ctx context.Context, connectionID, collectionID, actionName string, args, reqCtx map[string]any) (records []mapping.Record, err error) {
	start := time.Now()
	defer func() {
		a.observe(collectionID, actionName, time.Since(start), err)
	}()

	coll, action, err := a.registry.lookup(connectionID, collectionID, actionName)
	if err != nil {
		return nil, err
	}
	desc := action.desc

	payload, err := mapping.BuildRequest(desc, args)
	if err != nil {
		return nil, err
	}

	opts := []soap.CallOption{soap.WithNamespaces(desc.Namespaces)}
	if sec := coll.conn.security; sec != nil {
		s, err := sec.resolve(reqCtx)
		if err != nil {
			return nil, fmt.Errorf("connection %q security: %w", connectionID, err)
		}
		opts = append(opts, soap.WithCallSecurity(s))
	}

	logger := a.logger.With("connection", connectionID, "collection", collectionID, "action", actionName)
	resp, err := coll.conn.client.Invoke(ctx, action.operation.Name, payload, opts...)
	if err != nil {
		logger.Debug("received error from remote service", "error", err)
		return nil, err
	}
	logger.Debug("received response from remote service",
		"status", resp.StatusCode,
		"body", util.TruncateBody(string(resp.Body), 0))

	return mapping.MapResponse(coll.fields, desc, resp.Body)
}

func (a *Adapter) observe(collection, action string, d time.Duration, err error) {
	if metrics.RequestsTotal != nil {
		if vec, verr := metrics.RequestsTotal.WithLabels(collection, action, outcome(err)); verr == nil {
			_ = vec.Inc()
		}
	}
	if metrics.RequestDuration != nil {
		if vec, verr := metrics.RequestDuration.WithLabels(collection, action); verr == nil {
			vec.Observe(d.Seconds())
		}
	}
}

func outcome(err error) string {
	var (
		configErr    *ConfigError
		transportErr *soap.Error
		parseErr     *mapping.ParseError
	)
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.As(err, &configErr):
		return metrics.OutcomeConfigError
	case errors.As(err, &transportErr):
		return metrics.OutcomeTransportError
	case errors.As(err, &parseErr):
		return metrics.OutcomeParseError
	}
	return metrics.OutcomeMappingError
}
