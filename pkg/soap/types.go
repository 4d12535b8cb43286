package soap

import (
	"fmt"
	"strings"
)

// Version represents the SOAP protocol version.
type Version string

const (
	// SOAP11 represents SOAP 1.1 protocol.
	SOAP11 Version = "1.1"
	// SOAP12 represents SOAP 1.2 protocol.
	SOAP12 Version = "1.2"
)

// ParseVersion parses "1.1", "1.2", "soap11" or "soap12". An empty string is
// SOAP 1.1.
func ParseVersion(s string) (Version, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "1.1", "soap11":
		return SOAP11, nil
	case "1.2", "soap12":
		return SOAP12, nil
	}
	return "", fmt.Errorf("unsupported SOAP version %q", s)
}

// Namespace returns the envelope namespace of v.
func (v Version) Namespace() string {
	if v == SOAP12 {
		return SOAP12Namespace
	}
	return SOAP11Namespace
}

// ContentType returns the request Content-Type of v. SOAP 1.2 carries the
// action as a media type parameter.
func (v Version) ContentType(action string) string {
	if v == SOAP12 {
		if action != "" {
			return SOAP12ContentType + `; action="` + action + `"`
		}
		return SOAP12ContentType
	}
	return SOAP11ContentType
}

// SOAP namespace URIs
const (
	SOAP11Namespace = "http://schemas.xmlsoap.org/soap/envelope/"
	SOAP12Namespace = "http://www.w3.org/2003/05/soap-envelope"

	WSDLSOAP11Namespace = "http://schemas.xmlsoap.org/wsdl/soap/"
	WSDLSOAP12Namespace = "http://schemas.xmlsoap.org/wsdl/soap12/"
)

// ContentTypes for SOAP versions
const (
	SOAP11ContentType = "text/xml; charset=utf-8"
	SOAP12ContentType = "application/soap+xml; charset=utf-8"
)

// Fault is a SOAP fault read from a response body. SOAP 1.2 Code/Reason are
// mapped onto Code/String.
type Fault struct {
	Code   string `json:"faultcode"`
	String string `json:"faultstring"`
	Actor  string `json:"faultactor,omitempty"`
	Detail string `json:"detail,omitempty"`
}

func (f *Fault) Error() string {
	if f.Code == "" {
		return f.String
	}
	return f.Code + ": " + f.String
}

// Operation describes a remote operation a client can invoke.
type Operation struct {
	Name       string
	SOAPAction string
	// Element is the local name of the request wrapper element. It defaults
	// to Name.
	Element string
	// Namespace is the namespace of the wrapper element.
	Namespace string
}

// ElementName returns the wrapper element name.
func (o *Operation) ElementName() string {
	if o.Element != "" {
		return o.Element
	}
	return o.Name
}
