// Package soap is a SOAP 1.1 and 1.2 client driven by a WSDL document.
//
// A Client loads the WSDL once (from a URL, a file or inline bytes), picks
// the first SOAP port of the first service and records the bound operations
// with their SOAPAction, style and target namespace. Invoke wraps a
// mapping.Payload in an envelope, posts it and classifies the reply.
//
// # Basic Usage
//
//	client, err := soap.NewClient(ctx, soap.Endpoint{
//	    WSDL: "https://webservices.example.com/api.wsdl",
//	}, soap.WithSecurity(&soap.WSSecurity{
//	    Username: "user",
//	    Password: "secret",
//	}))
//	if err != nil {
//	    return err
//	}
//
//	resp, err := client.Invoke(ctx, "getStations", payload)
//
// # Errors
//
// Every transport-level failure is a *Error: network errors, non-2xx
// statuses, SOAP faults (with any status) and bodies that are not a SOAP
// envelope. Error.Response carries the raw response whenever one arrived.
//
// # Security
//
// WSSecurity adds a UsernameToken header (PasswordText or PasswordDigest)
// with an optional Timestamp. BasicAuth and NTLMAuth authenticate at the
// HTTP layer; NTLMAuth needs a client built with NTLMTransport.
package soap
