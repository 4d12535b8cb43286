package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/getmockd/soapmap/pkg/logging"
	"github.com/getmockd/soapmap/pkg/mapping"
	"github.com/getmockd/soapmap/pkg/soap"
	"github.com/getmockd/soapmap/pkg/template"
)

// SecurityType selects how a connection authenticates.
type SecurityType string

const (
	SecurityWSSE  SecurityType = "wsse"
	SecurityBasic SecurityType = "basic"
	SecurityNTLM  SecurityType = "ntlm"
)

// SecurityConfig holds connection credentials. Username, Password and
// PasswordType are templates rendered, unescaped, against the request
// context of each call.
type SecurityConfig struct {
	Type           SecurityType
	Username       string
	Password       string
	PasswordType   string
	UseTimestamps  bool
	TTL            time.Duration
	MustUnderstand bool
}

// resolve renders the credentials for one call.
func (c *SecurityConfig) resolve(reqCtx map[string]any) (soap.Security, error) {
	username, err := template.RenderRaw(c.Username, reqCtx)
	if err != nil {
		return nil, fmt.Errorf("username: %w", err)
	}
	password, err := template.RenderRaw(c.Password, reqCtx)
	if err != nil {
		return nil, fmt.Errorf("password: %w", err)
	}

	switch c.Type {
	case "", SecurityWSSE:
		passwordType, err := template.RenderRaw(c.PasswordType, reqCtx)
		if err != nil {
			return nil, fmt.Errorf("passwordType: %w", err)
		}
		return &soap.WSSecurity{
			Username:       username,
			Password:       password,
			PasswordType:   passwordType,
			UseTimestamps:  c.UseTimestamps,
			TTL:            c.TTL,
			MustUnderstand: c.MustUnderstand,
		}, nil
	case SecurityBasic:
		return &soap.BasicAuth{Username: username, Password: password}, nil
	case SecurityNTLM:
		return &soap.NTLMAuth{Username: username, Password: password}, nil
	}
	return nil, fmt.Errorf("unsupported security type %q", c.Type)
}

// Connection describes one SOAP service.
type Connection struct {
	Identity string
	Endpoint soap.Endpoint
	Security *SecurityConfig
	// Timeout bounds each call, in addition to the caller's context.
	Timeout time.Duration
}

// Collection is a named set of fields and actions bound to a connection.
type Collection struct {
	Identity   string
	Connection string
	Attributes map[string]mapping.FieldDescriptor
	Actions    map[string]*mapping.ActionDescriptor
}

// RegistryBuilder collects connections and collections. Build turns them
// into an immutable Registry. A builder is not safe for concurrent use.
type RegistryBuilder struct {
	connections map[string]Connection
	collections map[string]Collection
	httpClient  *http.Client
	logger      *slog.Logger
}

// BuilderOption configures a RegistryBuilder.
type BuilderOption func(*RegistryBuilder)

// WithHTTPClient sets the HTTP client shared by all connections.
func WithHTTPClient(hc *http.Client) BuilderOption {
	return func(b *RegistryBuilder) {
		b.httpClient = hc
	}
}

// WithBuilderLogger sets the logger handed to the SOAP clients.
func WithBuilderLogger(l *slog.Logger) BuilderOption {
	return func(b *RegistryBuilder) {
		b.logger = l
	}
}

// NewRegistryBuilder returns an empty builder.
func NewRegistryBuilder(opts ...BuilderOption) *RegistryBuilder {
	b := &RegistryBuilder{
		connections: make(map[string]Connection),
		collections: make(map[string]Collection),
		httpClient:  http.DefaultClient,
		logger:      logging.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// RegisterConnection adds a connection and, optionally, the collections that
// use it.
func (b *RegistryBuilder) RegisterConnection(conn Connection, collections ...Collection) error {
	if conn.Identity == "" {
		return &ConfigError{Err: ErrMissingIdentity}
	}
	if _, ok := b.connections[conn.Identity]; ok {
		return configErrorf(ErrDuplicateConnection, "%s", conn.Identity)
	}
	for _, c := range collections {
		if err := b.RegisterCollection(c); err != nil {
			return err
		}
	}
	b.connections[conn.Identity] = conn
	return nil
}

// RegisterCollection adds a collection. A later registration with the same
// identity replaces the earlier one.
func (b *RegistryBuilder) RegisterCollection(c Collection) error {
	if c.Identity == "" {
		return configErrorf(ErrMissingIdentity, "collection bound to %q", c.Connection)
	}
	b.collections[c.Identity] = c
	return nil
}

// Build creates one SOAP client per connection and binds every action to
// its operation. Actions naming an operation the service does not offer are
// kept unresolved and fail when requested.
func (b *RegistryBuilder) Build(ctx context.Context) (*Registry, error) {
	r := &Registry{
		connections: make(map[string]*boundConnection, len(b.connections)),
		collections: make(map[string]*boundCollection, len(b.collections)),
	}

	for _, id := range sortedKeys(b.connections) {
		conn := b.connections[id]
		client, err := soap.NewClient(ctx, conn.Endpoint,
			soap.WithHTTPClient(b.clientFor(conn)),
			soap.WithLogger(b.logger.With("connection", id)))
		if err != nil {
			return nil, fmt.Errorf("connection %q: %w", id, err)
		}
		r.connections[id] = &boundConnection{identity: id, client: client, security: conn.Security}
	}

	for _, id := range sortedKeys(b.collections) {
		coll := b.collections[id]
		conn, ok := r.connections[coll.Connection]
		if !ok {
			return nil, configErrorf(ErrUnknownConnection, "%q (collection %q)", coll.Connection, id)
		}

		bc := &boundCollection{
			identity: id,
			conn:     conn,
			fields:   coll.Attributes,
			actions:  make(map[string]*boundAction, len(coll.Actions)),
		}
		for _, name := range sortedKeys(coll.Actions) {
			desc := coll.Actions[name]
			if err := mapping.CheckFields(coll.Attributes, desc); err != nil {
				return nil, fmt.Errorf("collection %q action %q: %w", id, name, err)
			}
			ba := &boundAction{name: name, desc: desc}
			if op, ok := conn.client.Operation(desc.Operation); ok {
				ba.operation = op
			} else {
				b.logger.Warn("action bound to unknown operation",
					"collection", id, "action", name, "operation", desc.Operation)
			}
			bc.actions[name] = ba
		}
		r.collections[id] = bc
	}
	return r, nil
}

func (b *RegistryBuilder) clientFor(conn Connection) *http.Client {
	ntlm := conn.Security != nil && conn.Security.Type == SecurityNTLM
	if conn.Timeout <= 0 && !ntlm {
		return b.httpClient
	}

	hc := *b.httpClient
	if conn.Timeout > 0 {
		hc.Timeout = conn.Timeout
	}
	if ntlm {
		hc.Transport = soap.NTLMTransport(hc.Transport)
	}
	return &hc
}

// Registry is the frozen configuration used by an Adapter. It is safe for
// concurrent use.
type Registry struct {
	connections map[string]*boundConnection
	collections map[string]*boundCollection
}

type boundConnection struct {
	identity string
	client   *soap.Client
	security *SecurityConfig
}

type boundCollection struct {
	identity string
	conn     *boundConnection
	fields   map[string]mapping.FieldDescriptor
	actions  map[string]*boundAction
}

type boundAction struct {
	name string
	desc *mapping.ActionDescriptor
	// operation is nil when the service does not offer desc.Operation.
	operation *soap.Operation
}

// Connections returns the connection identities in sorted order.
func (r *Registry) Connections() []string {
	return sortedKeys(r.connections)
}

// Collections returns the collection identities in sorted order.
func (r *Registry) Collections() []string {
	return sortedKeys(r.collections)
}

// Client returns the SOAP client of a connection.
func (r *Registry) Client(connectionID string) (*soap.Client, bool) {
	c, ok := r.connections[connectionID]
	if !ok {
		return nil, false
	}
	return c.client, true
}

// ActionInfo describes a bound action.
type ActionInfo struct {
	Connection string `json:"connection"`
	Collection string `json:"collection"`
	Action     string `json:"action"`
	Operation  string `json:"operation"`
	Resolved   bool   `json:"resolved"`
}

// Actions lists every action in collection, then action, order.
func (r *Registry) Actions() []ActionInfo {
	var out []ActionInfo
	for _, cid := range sortedKeys(r.collections) {
		coll := r.collections[cid]
		for _, name := range sortedKeys(coll.actions) {
			a := coll.actions[name]
			out = append(out, ActionInfo{
				Connection: coll.conn.identity,
				Collection: cid,
				Action:     name,
				Operation:  a.desc.Operation,
				Resolved:   a.operation != nil,
			})
		}
	}
	return out
}

// Unresolved lists the actions bound to operations their service does not
// offer.
func (r *Registry) Unresolved() []ActionInfo {
	var out []ActionInfo
	for _, a := range r.Actions() {
		if !a.Resolved {
			out = append(out, a)
		}
	}
	return out
}

// lookup resolves a request target. The collection must belong to the
// connection.
func (r *Registry) lookup(connectionID, collectionID, actionName string) (*boundCollection, *boundAction, error) {
	conn, ok := r.connections[connectionID]
	if !ok {
		return nil, nil, configErrorf(ErrUnknownConnection, "%q", connectionID)
	}
	coll, ok := r.collections[collectionID]
	if !ok || coll.conn != conn {
		return nil, nil, configErrorf(ErrUnknownCollection, "%q on connection %q", collectionID, connectionID)
	}
	action, ok := coll.actions[actionName]
	if !ok {
		return nil, nil, configErrorf(ErrUnknownAction, "%q in collection %q", actionName, collectionID)
	}
	if action.operation == nil {
		return nil, nil, invalidOperation(action.desc.Operation)
	}
	return coll, action, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
