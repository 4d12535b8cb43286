package config

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/getmockd/soapmap/pkg/adapter"
	"github.com/getmockd/soapmap/pkg/soap"
)

// Connection converts a connection entry to its registry form.
func (c *ConnectionConfig) Connection(id string) (adapter.Connection, error) {
	var (
		version soap.Version
		err     error
	)
	if c.SOAPVersion != "" {
		if version, err = soap.ParseVersion(c.SOAPVersion); err != nil {
			return adapter.Connection{}, fmt.Errorf("connection %q: %w", id, err)
		}
	}

	conn := adapter.Connection{
		Identity: id,
		Endpoint: soap.Endpoint{
			WSDL:       c.WSDL,
			Address:    c.Endpoint,
			Version:    version,
			Namespace:  c.Namespace,
			Operations: c.Operations,
		},
	}
	if c.Timeout != "" {
		if conn.Timeout, err = time.ParseDuration(c.Timeout); err != nil {
			return adapter.Connection{}, fmt.Errorf("connection %q timeout: %w", id, err)
		}
	}
	if c.Security != nil {
		if conn.Security, err = c.Security.security(); err != nil {
			return adapter.Connection{}, fmt.Errorf("connection %q security: %w", id, err)
		}
	}
	return conn, nil
}

func (s *SecurityConfig) security() (*adapter.SecurityConfig, error) {
	sec := &adapter.SecurityConfig{
		Type:           adapter.SecurityType(s.Type),
		Username:       s.Username,
		Password:       s.Password,
		PasswordType:   s.PasswordType,
		UseTimestamps:  s.UseTimestamps,
		MustUnderstand: s.MustUnderstand,
	}
	if s.TTL != "" {
		ttl, err := time.ParseDuration(s.TTL)
		if err != nil {
			return nil, fmt.Errorf("ttl: %w", err)
		}
		sec.TTL = ttl
	}
	return sec, nil
}

// Builder returns a registry builder holding every connection and
// collection of f.
func (f *File) Builder(opts ...adapter.BuilderOption) (*adapter.RegistryBuilder, error) {
	b := adapter.NewRegistryBuilder(opts...)

	ids := make([]string, 0, len(f.Connections))
	for id := range f.Connections {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		conn, err := f.Connections[id].Connection(id)
		if err != nil {
			return nil, err
		}
		if err := b.RegisterConnection(conn); err != nil {
			return nil, err
		}
	}

	for id, c := range f.Collections {
		err := b.RegisterCollection(adapter.Collection{
			Identity:   id,
			Connection: c.Connection,
			Attributes: c.Attributes,
			Actions:    c.SOAP,
		})
		if err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Build loads the configuration file at path and builds its registry.
func Build(ctx context.Context, path string, opts ...adapter.BuilderOption) (*File, *adapter.Registry, error) {
	f, err := LoadFromFile(path)
	if err != nil {
		return nil, nil, err
	}
	b, err := f.Builder(opts...)
	if err != nil {
		return nil, nil, err
	}
	reg, err := b.Build(ctx)
	if err != nil {
		return nil, nil, err
	}
	return f, reg, nil
}
