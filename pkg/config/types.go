package config

import (
	"github.com/getmockd/soapmap/pkg/mapping"
)

// File is a decoded configuration file.
type File struct {
	Logging         *LoggingConfig               `json:"logging,omitempty" yaml:"logging,omitempty"`
	Connections     map[string]*ConnectionConfig `json:"connections,omitempty" yaml:"connections,omitempty"`
	Collections     map[string]*CollectionConfig `json:"collections,omitempty" yaml:"collections,omitempty"`
	CollectionFiles []string                     `json:"collectionFiles,omitempty" yaml:"collectionFiles,omitempty"`

	// Path is the file the configuration was loaded from.
	Path string `json:"-" yaml:"-"`
}

// LoggingConfig holds the CLI logging defaults. Flags take precedence.
type LoggingConfig struct {
	Level  string `json:"level,omitempty" yaml:"level,omitempty"`
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
	File   string `json:"file,omitempty" yaml:"file,omitempty"`
}

// ConnectionConfig describes one SOAP service.
type ConnectionConfig struct {
	// WSDL is a file path, relative to the configuration file, or an
	// http(s) URL.
	WSDL string `json:"wsdl,omitempty" yaml:"wsdl,omitempty"`
	// Endpoint overrides the service address of the WSDL.
	Endpoint    string            `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	SOAPVersion string            `json:"soapVersion,omitempty" yaml:"soapVersion,omitempty"`
	Namespace   string            `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	Operations  map[string]string `json:"operations,omitempty" yaml:"operations,omitempty"`
	Timeout     string            `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Security    *SecurityConfig   `json:"security,omitempty" yaml:"security,omitempty"`
}

// SecurityConfig holds connection credentials. Username, Password and
// PasswordType may contain {{placeholders}} filled from the request context.
type SecurityConfig struct {
	Type           string `json:"type,omitempty" yaml:"type,omitempty"`
	Username       string `json:"username,omitempty" yaml:"username,omitempty"`
	Password       string `json:"password,omitempty" yaml:"password,omitempty"`
	PasswordType   string `json:"passwordType,omitempty" yaml:"passwordType,omitempty"`
	UseTimestamps  bool   `json:"useTimestamps,omitempty" yaml:"useTimestamps,omitempty"`
	TTL            string `json:"ttl,omitempty" yaml:"ttl,omitempty"`
	MustUnderstand bool   `json:"mustUnderstand,omitempty" yaml:"mustUnderstand,omitempty"`
}

// CollectionConfig binds fields and actions to a connection.
type CollectionConfig struct {
	Connection string                               `json:"connection" yaml:"connection"`
	Attributes map[string]mapping.FieldDescriptor   `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	SOAP       map[string]*mapping.ActionDescriptor `json:"soap,omitempty" yaml:"soap,omitempty"`
}
