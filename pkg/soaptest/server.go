// Package soaptest provides a fake SOAP endpoint for tests.
//
// A Server answers POSTed envelopes with canned replies per operation and
// records every request it receives:
//
//	srv := soaptest.NewServer(soaptest.WithWSDL(wsdl))
//	defer srv.Close()
//	srv.Handle("getStations", soaptest.Reply{Payload: `<ns1:getStationsResponse .../>`})
//
// The WSDL is served at ?wsdl with every soap:address rewritten to the
// server's own URL, so clients that load it talk to the fake.
package soaptest

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/beevik/etree"

	"github.com/getmockd/soapmap/pkg/soap"
	"github.com/getmockd/soapmap/pkg/xpath"
)

const maxBodySize = 10 << 20

// Reply is the canned answer for one operation. Body is written verbatim
// when set; otherwise Fault or Payload is wrapped in an envelope of the
// request's SOAP version.
type Reply struct {
	// Status defaults to 200, or 500 for faults.
	Status  int
	Body    string
	Payload string
	// Header is the inner XML of the response soap:Header.
	Header string
	Fault  *soap.Fault
}

// Request is a request received by the server.
type Request struct {
	Operation  string
	SOAPAction string
	Version    soap.Version
	Header     http.Header
	Body       string
}

// Server is a fake SOAP endpoint.
type Server struct {
	*httptest.Server

	wsdl []byte

	mu       sync.Mutex
	actions  map[string]string
	replies  map[string]Reply
	requests []Request
}

// Option configures a Server.
type Option func(*Server)

// WithWSDL serves data at ?wsdl and registers its operations' SOAPActions.
func WithWSDL(data []byte) Option {
	return func(s *Server) {
		s.wsdl = data
		svc, err := soap.ParseWSDL(data)
		if err != nil {
			return
		}
		for name, op := range svc.Operations {
			if op.SOAPAction != "" {
				s.actions[op.SOAPAction] = name
			}
		}
	}
}

// WithOperation maps a SOAPAction to an operation name.
func WithOperation(name, soapAction string) Option {
	return func(s *Server) {
		s.actions[soapAction] = name
	}
}

// NewServer starts a fake SOAP endpoint. Callers must Close it.
func NewServer(opts ...Option) *Server {
	s := &Server{
		actions: make(map[string]string),
		replies: make(map[string]Reply),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Server = httptest.NewServer(s)
	return s
}

// Handle sets the reply for an operation.
func (s *Server) Handle(operation string, r Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies[operation] = r
}

// Requests returns the requests received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// LastRequest returns the most recent request.
func (s *Server) LastRequest() (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return Request{}, false
	}
	return s.requests[len(s.requests)-1], true
}

// WSDLURL returns the URL the WSDL is served at.
func (s *Server) WSDLURL() string {
	return s.URL + "/?wsdl"
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	for key := range r.URL.Query() {
		if strings.EqualFold(key, "wsdl") {
			s.serveWSDL(w, r)
			return
		}
	}

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeFault(w, soap.SOAP11, http.StatusInternalServerError, "",
			&soap.Fault{Code: "soap:Client", String: "Failed to read request body"})
		return
	}
	defer func() { _ = r.Body.Close() }()

	doc, err := parseEnvelope(body)
	if err != nil {
		s.record(Request{Header: r.Header.Clone(), Body: string(body)})
		writeFault(w, soap.SOAP11, http.StatusInternalServerError, "",
			&soap.Fault{Code: "soap:Client", String: "Failed to parse SOAP envelope: " + err.Error()})
		return
	}

	version := detectVersion(doc)
	action := soapAction(r, version)
	op, err := s.extractOperation(doc, action)
	s.record(Request{
		Operation:  op,
		SOAPAction: action,
		Version:    version,
		Header:     r.Header.Clone(),
		Body:       string(body),
	})
	if err != nil {
		writeFault(w, version, http.StatusInternalServerError, "",
			&soap.Fault{Code: "soap:Client", String: "Failed to determine operation: " + err.Error()})
		return
	}

	s.mu.Lock()
	reply, ok := s.replies[op]
	s.mu.Unlock()
	if !ok {
		writeFault(w, version, http.StatusInternalServerError, "",
			&soap.Fault{Code: "soap:Client", String: "Unknown operation: " + op})
		return
	}

	switch {
	case reply.Body != "":
		status := reply.Status
		if status == 0 {
			status = http.StatusOK
		}
		w.Header().Set("Content-Type", version.ContentType(""))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply.Body))
	case reply.Fault != nil:
		status := reply.Status
		if status == 0 {
			status = http.StatusInternalServerError
		}
		writeFault(w, version, status, reply.Header, reply.Fault)
	default:
		status := reply.Status
		if status == 0 {
			status = http.StatusOK
		}
		w.Header().Set("Content-Type", version.ContentType(""))
		w.WriteHeader(status)
		_, _ = w.Write(BuildEnvelope(version, reply.Header, reply.Payload))
	}
}

func (s *Server) record(r Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, r)
}

// serveWSDL serves the WSDL with each soap:address pointing at this server.
func (s *Server) serveWSDL(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if s.wsdl == nil {
		writeError(w, http.StatusNotFound, "WSDL not available")
		return
	}

	data := s.wsdl
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(s.wsdl); err == nil && doc.Root() != nil {
		for _, svc := range doc.Root().SelectElements("service") {
			for _, port := range svc.SelectElements("port") {
				for _, addr := range port.SelectElements("address") {
					addr.CreateAttr("location", "http://"+r.Host+r.URL.Path)
				}
			}
		}
		if out, err := doc.WriteToBytes(); err == nil {
			data = out
		}
	}

	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func parseEnvelope(body []byte) (*etree.Document, error) {
	doc, err := xpath.ReadDocument(body)
	if err != nil {
		return nil, err
	}
	if root := doc.Root(); root.Tag != "Envelope" {
		return nil, errors.New("root element must be Envelope, got " + root.Tag)
	}
	return doc, nil
}

func detectVersion(doc *etree.Document) soap.Version {
	if doc.Root().NamespaceURI() == soap.SOAP12Namespace {
		return soap.SOAP12
	}
	return soap.SOAP11
}

// soapAction reads the action from the SOAPAction header or, for SOAP 1.2,
// the action parameter of the Content-Type.
func soapAction(r *http.Request, version soap.Version) string {
	if version == soap.SOAP12 {
		for _, part := range strings.Split(r.Header.Get("Content-Type"), ";") {
			part = strings.TrimSpace(part)
			if strings.HasPrefix(part, "action=") {
				return strings.Trim(strings.TrimPrefix(part, "action="), `"`)
			}
		}
	}
	return strings.Trim(r.Header.Get("SOAPAction"), `"`)
}

// extractOperation resolves the operation by SOAPAction first, then by the
// local name of the first Body child.
func (s *Server) extractOperation(doc *etree.Document, action string) (string, error) {
	if action != "" {
		if name, ok := s.actions[action]; ok {
			return name, nil
		}
	}

	var body *etree.Element
	for _, c := range doc.Root().ChildElements() {
		if c.Tag == "Body" {
			body = c
			break
		}
	}
	if body == nil {
		return "", errors.New("SOAP Body not found")
	}
	children := body.ChildElements()
	if len(children) == 0 {
		return "", errors.New("no operation element found in Body")
	}
	return children[0].Tag, nil
}

// BuildEnvelope wraps payload, and an optional header, in a SOAP envelope.
func BuildEnvelope(version soap.Version, header, payload string) []byte {
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString(`<soap:Envelope xmlns:soap="` + version.Namespace() + `">`)
	if header != "" {
		buf.WriteString(`<soap:Header>` + header + `</soap:Header>`)
	}
	buf.WriteString(`<soap:Body>`)
	buf.WriteString(payload)
	buf.WriteString(`</soap:Body>`)
	buf.WriteString(`</soap:Envelope>`)
	return buf.Bytes()
}

// BuildFault renders a fault envelope. SOAP 1.2 faults map Client and
// Server codes to Sender and Receiver.
func BuildFault(version soap.Version, header string, fault *soap.Fault) []byte {
	var buf bytes.Buffer
	if version == soap.SOAP12 {
		code := fault.Code
		switch code {
		case "soap:Client", "Client":
			code = "soap:Sender"
		case "soap:Server", "Server":
			code = "soap:Receiver"
		}
		buf.WriteString(`<soap:Fault>`)
		buf.WriteString(`<soap:Code><soap:Value>` + escapeXML(code) + `</soap:Value></soap:Code>`)
		buf.WriteString(`<soap:Reason><soap:Text xml:lang="en">` + escapeXML(fault.String) + `</soap:Text></soap:Reason>`)
		if fault.Detail != "" {
			buf.WriteString(`<soap:Detail>` + fault.Detail + `</soap:Detail>`)
		}
		buf.WriteString(`</soap:Fault>`)
		return BuildEnvelope(version, header, buf.String())
	}

	buf.WriteString(`<soap:Fault>`)
	buf.WriteString(`<faultcode>` + escapeXML(fault.Code) + `</faultcode>`)
	buf.WriteString(`<faultstring>` + escapeXML(fault.String) + `</faultstring>`)
	if fault.Actor != "" {
		buf.WriteString(`<faultactor>` + escapeXML(fault.Actor) + `</faultactor>`)
	}
	if fault.Detail != "" {
		buf.WriteString(`<detail>` + fault.Detail + `</detail>`)
	}
	buf.WriteString(`</soap:Fault>`)
	return BuildEnvelope(version, header, buf.String())
}

func writeFault(w http.ResponseWriter, version soap.Version, status int, header string, fault *soap.Fault) {
	w.Header().Set("Content-Type", version.ContentType(""))
	w.WriteHeader(status)
	_, _ = w.Write(BuildFault(version, header, fault))
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(message))
}

func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	return s
}
