package mapping

import (
	"errors"
	"fmt"
)

// FieldType is the declared type of a record field.
type FieldType string

const (
	FieldInteger  FieldType = "integer"
	FieldFloat    FieldType = "float"
	FieldText     FieldType = "text"
	FieldDate     FieldType = "date"
	FieldDatetime FieldType = "datetime"
	FieldBoolean  FieldType = "boolean"
)

// Valid reports whether t is one of the supported field types.
func (t FieldType) Valid() bool {
	switch t {
	case FieldInteger, FieldFloat, FieldText, FieldDate, FieldDatetime, FieldBoolean:
		return true
	}
	return false
}

// FieldDescriptor describes one attribute of a collection.
type FieldDescriptor struct {
	Type FieldType `json:"type" yaml:"type"`
}

// Mapping holds the request and response tables of an action.
type Mapping struct {
	// Request maps an argument key to a path-token expression.
	Request map[string]string `json:"request,omitempty" yaml:"request,omitempty"`
	// Response maps a field name to a path expression relative to a result node.
	Response map[string]string `json:"response,omitempty" yaml:"response,omitempty"`
}

// ActionDescriptor is the static configuration of one named action. It is
// never modified by this package.
type ActionDescriptor struct {
	Operation           string            `json:"operation" yaml:"operation"`
	Namespaces          map[string]string `json:"namespaces,omitempty" yaml:"namespaces,omitempty"`
	PathSelector        string            `json:"pathSelector,omitempty" yaml:"pathSelector,omitempty"`
	Mapping             *Mapping          `json:"mapping,omitempty" yaml:"mapping,omitempty"`
	BodyPayloadTemplate string            `json:"bodyPayloadTemplate,omitempty" yaml:"bodyPayloadTemplate,omitempty"`
	DefaultParameters   map[string]any    `json:"defaultParameters,omitempty" yaml:"defaultParameters,omitempty"`
}

// RequestTable returns the request table, or nil.
func (a *ActionDescriptor) RequestTable() map[string]string {
	if a == nil || a.Mapping == nil {
		return nil
	}
	return a.Mapping.Request
}

// ResponseTable returns the response table, or nil.
func (a *ActionDescriptor) ResponseTable() map[string]string {
	if a == nil || a.Mapping == nil {
		return nil
	}
	return a.Mapping.Response
}

// Record is one mapped result node: field name to coerced value.
type Record map[string]any

// Field errors.
var (
	ErrUnsupportedFieldType = errors.New("unsupported field type")
	ErrMissingField         = errors.New("response mapping references an undeclared field")
)

// CheckFields verifies that every response key of action has a field
// descriptor with a supported type.
func CheckFields(fields map[string]FieldDescriptor, action *ActionDescriptor) error {
	for _, k := range sortedKeys(action.ResponseTable()) {
		fd, ok := fields[k]
		if !ok {
			return fmt.Errorf("%w: %q", ErrMissingField, k)
		}
		if !fd.Type.Valid() {
			return fmt.Errorf("field %q: %w %q", k, ErrUnsupportedFieldType, fd.Type)
		}
	}
	return nil
}
