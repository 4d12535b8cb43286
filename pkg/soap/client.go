package soap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/beevik/etree"

	"github.com/getmockd/soapmap/pkg/logging"
	"github.com/getmockd/soapmap/pkg/mapping"
	"github.com/getmockd/soapmap/pkg/util"
	"github.com/getmockd/soapmap/pkg/xpath"
)

// Endpoint describes where a client sends requests and which operations it
// offers. Either WSDL (a file path or http(s) URL) or Operations must be set.
type Endpoint struct {
	WSDL string
	// Address overrides the WSDL service address.
	Address string
	// Version overrides the WSDL binding version.
	Version Version
	// Namespace overrides the WSDL target namespace.
	Namespace string
	// Operations maps operation names to SOAPAction values. They are added
	// to, and take precedence over, the WSDL operations.
	Operations map[string]string
}

// Response is a successful SOAP response.
type Response struct {
	StatusCode int
	HTTPHeader http.Header
	Body       []byte
	// Header is the inner XML of the SOAP Header element, if any.
	Header string
}

// Client invokes the operations of one SOAP service. It is safe for
// concurrent use.
type Client struct {
	service    *Service
	httpClient *http.Client
	security   Security
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for WSDL downloads and calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithSecurity sets the security applied to calls without a per-call one.
func WithSecurity(s Security) Option {
	return func(c *Client) {
		c.security = s
	}
}

// WithLogger sets the client's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithClock sets the clock used for security timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// NewClient loads the endpoint's WSDL, if any, and returns a client for it.
func NewClient(ctx context.Context, ep Endpoint, opts ...Option) (*Client, error) {
	c := &Client{
		httpClient: http.DefaultClient,
		logger:     logging.Nop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	svc := &Service{Version: SOAP11, Operations: make(map[string]*Operation)}
	if ep.WSDL != "" {
		data, err := c.loadWSDL(ctx, ep.WSDL)
		if err != nil {
			return nil, err
		}
		svc, err = ParseWSDL(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse WSDL %s: %w", ep.WSDL, err)
		}
	}

	if ep.Address != "" {
		svc.Address = ep.Address
	}
	if ep.Version != "" {
		svc.Version = ep.Version
	}
	if ep.Namespace != "" {
		svc.TargetNamespace = ep.Namespace
		for _, op := range svc.Operations {
			op.Namespace = ep.Namespace
		}
	}
	for name, action := range ep.Operations {
		svc.Operations[name] = &Operation{Name: name, SOAPAction: action, Namespace: svc.TargetNamespace}
	}

	if svc.Address == "" {
		return nil, errors.New("endpoint has no service address")
	}
	if len(svc.Operations) == 0 {
		return nil, errors.New("endpoint defines no operations")
	}

	c.service = svc
	c.logger.Debug("soap client ready",
		"address", svc.Address,
		"version", svc.Version,
		"operations", len(svc.Operations))
	return c, nil
}

func (c *Client) loadWSDL(ctx context.Context, location string) ([]byte, error) {
	if !strings.HasPrefix(location, "http://") && !strings.HasPrefix(location, "https://") {
		path, ok := util.SafeFilePathAllowAbsolute(location)
		if !ok {
			return nil, fmt.Errorf("invalid WSDL path: %s", location)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read WSDL: %w", err)
		}
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create WSDL request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch WSDL: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read WSDL: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to fetch WSDL: HTTP %d", resp.StatusCode)
	}
	return data, nil
}

// Service returns the service description.
func (c *Client) Service() *Service {
	return c.service
}

// Operation returns the named operation.
func (c *Client) Operation(name string) (*Operation, bool) {
	op, ok := c.service.Operations[name]
	return op, ok
}

type callOptions struct {
	security   Security
	namespaces map[string]string
	headers    http.Header
}

// CallOption configures a single Invoke.
type CallOption func(*callOptions)

// WithCallSecurity overrides the client security for one call.
func WithCallSecurity(s Security) CallOption {
	return func(o *callOptions) {
		o.security = s
	}
}

// WithNamespaces resolves prefixes used in the payload tree.
func WithNamespaces(ns map[string]string) CallOption {
	return func(o *callOptions) {
		o.namespaces = ns
	}
}

// WithHeader adds an HTTP request header.
func WithHeader(key, value string) CallOption {
	return func(o *callOptions) {
		o.headers.Add(key, value)
	}
}

// Invoke sends payload to the named operation. Every failure after the
// request has been built is returned as *Error.
func (c *Client) Invoke(ctx context.Context, name string, payload mapping.Payload, opts ...CallOption) (*Response, error) {
	op, ok := c.Operation(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOperation, name)
	}

	o := &callOptions{security: c.security, headers: make(http.Header)}
	for _, opt := range opts {
		opt(o)
	}

	env := &Envelope{
		Version:    c.service.Version,
		Operation:  op,
		Namespaces: o.namespaces,
		Payload:    payload,
	}
	if o.security != nil {
		header, err := o.security.Header(c.now())
		if err != nil {
			return nil, fmt.Errorf("failed to build security header: %w", err)
		}
		env.Header = header
	}
	body := env.Bytes()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.service.Address, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", c.service.Version.ContentType(op.SOAPAction))
	if c.service.Version == SOAP11 {
		req.Header.Set("SOAPAction", `"`+op.SOAPAction+`"`)
	}
	for k, vs := range o.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if o.security != nil {
		o.security.ApplyRequest(req)
	}

	c.logger.Debug("sending soap request",
		"operation", name,
		"address", c.service.Address,
		"body", logging.Redact(util.TruncateBody(string(body), 0)))

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Err: err}
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &Error{StatusCode: httpResp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		HTTPHeader: httpResp.Header,
		Body:       respBody,
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// checkResponse returns an *Error for non-2xx statuses, faults and bodies
// that are not SOAP envelopes, and fills resp.Header otherwise.
func checkResponse(resp *Response) error {
	ok := resp.StatusCode >= 200 && resp.StatusCode <= 299

	doc, err := xpath.ReadDocument(resp.Body)
	if err != nil {
		if ok {
			return &Error{StatusCode: resp.StatusCode, Body: resp.Body, Response: resp, Err: err}
		}
		return &Error{StatusCode: resp.StatusCode, Body: resp.Body, Response: resp}
	}

	root := doc.Root()
	if root.Tag != "Envelope" {
		if ok {
			return &Error{StatusCode: resp.StatusCode, Body: resp.Body, Response: resp,
				Err: fmt.Errorf("root element must be Envelope, got %s", root.Tag)}
		}
		return &Error{StatusCode: resp.StatusCode, Body: resp.Body, Response: resp}
	}

	if fault := parseFault(root); fault != nil {
		return &Error{StatusCode: resp.StatusCode, Body: resp.Body, Response: resp, Fault: fault}
	}
	if !ok {
		return &Error{StatusCode: resp.StatusCode, Body: resp.Body, Response: resp}
	}

	if h := findElement(root, "Header"); h != nil {
		resp.Header = innerXML(h)
	}
	return nil
}

func parseFault(envelope *etree.Element) *Fault {
	body := findElement(envelope, "Body")
	if body == nil {
		return nil
	}
	f := findElement(body, "Fault")
	if f == nil {
		return nil
	}

	fault := &Fault{}
	if code := findElement(f, "Code"); code != nil {
		// SOAP 1.2
		fault.Code = childText(code, "Value")
		if reason := findElement(f, "Reason"); reason != nil {
			fault.String = childText(reason, "Text")
		}
		fault.Actor = childText(f, "Node")
		fault.Detail = childText(f, "Detail")
		return fault
	}
	fault.Code = childText(f, "faultcode")
	fault.String = childText(f, "faultstring")
	fault.Actor = childText(f, "faultactor")
	fault.Detail = childText(f, "detail")
	return fault
}

func childText(parent *etree.Element, localName string) string {
	c := findElement(parent, localName)
	if c == nil {
		return ""
	}
	return strings.TrimSpace(xpath.Node{Element: c}.String())
}

func innerXML(e *etree.Element) string {
	var sb strings.Builder
	for _, c := range e.ChildElements() {
		doc := etree.NewDocumentWithRoot(c.Copy())
		s, err := doc.WriteToString()
		if err != nil {
			continue
		}
		sb.WriteString(s)
	}
	return sb.String()
}
