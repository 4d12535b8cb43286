package soaptest

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/soapmap/pkg/mapping"
	"github.com/getmockd/soapmap/pkg/soap"
)

const stationsPayload = `<ns1:getStationsResponse xmlns:ns1="urn:dictionary:com.chargepoint.webservices"><responseCode>100</responseCode></ns1:getStationsResponse>`

func newServer(t *testing.T) *Server {
	t.Helper()
	wsdl, err := os.ReadFile("testdata/chargepoint.wsdl")
	require.NoError(t, err)
	srv := NewServer(WithWSDL(wsdl))
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T, srv *Server) *soap.Client {
	t.Helper()
	c, err := soap.NewClient(context.Background(), soap.Endpoint{WSDL: srv.WSDLURL()})
	require.NoError(t, err)
	return c
}

func TestServer_ServesWSDLWithOwnAddress(t *testing.T) {
	srv := newServer(t)
	c := newClient(t, srv)
	assert.Equal(t, srv.URL+"/", c.Service().Address)

	resp, err := http.Post(srv.WSDLURL(), "text/xml", nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestServer_NoWSDL(t *testing.T) {
	srv := NewServer()
	defer srv.Close()

	resp, err := http.Get(srv.WSDLURL())
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "WSDL not available", string(body))
}

func TestServer_PayloadReply(t *testing.T) {
	srv := newServer(t)
	srv.Handle("getStations", Reply{Payload: stationsPayload, Header: `<t:Trace xmlns:t="urn:t">1</t:Trace>`})
	c := newClient(t, srv)

	resp, err := c.Invoke(context.Background(), "getStations", mapping.Payload{Tree: mapping.NewPayloadNode()})
	require.NoError(t, err)
	assert.Contains(t, string(resp.Body), stationsPayload)
	assert.Equal(t, `<t:Trace xmlns:t="urn:t">1</t:Trace>`, resp.Header)

	req, ok := srv.LastRequest()
	require.True(t, ok)
	assert.Equal(t, "getStations", req.Operation)
	assert.Equal(t, "urn:provider/interface/chargepointservices/getStations", req.SOAPAction)
	assert.Equal(t, soap.SOAP11, req.Version)
	assert.Contains(t, req.Body, `<tns:getStations xmlns:tns="urn:dictionary:com.chargepoint.webservices">`)
}

func TestServer_FaultReply(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   int
	}{
		{"default status", 0, http.StatusInternalServerError},
		{"fault with 200", http.StatusOK, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t)
			fault := &soap.Fault{Code: "soap:Client", String: "Invalid stationID"}
			srv.Handle("getStations", Reply{Status: tt.status, Fault: fault})
			c := newClient(t, srv)

			_, err := c.Invoke(context.Background(), "getStations", mapping.Payload{Tree: mapping.NewPayloadNode()})
			var soapErr *soap.Error
			require.True(t, errors.As(err, &soapErr))
			assert.Equal(t, tt.want, soapErr.StatusCode)
			assert.Equal(t, string(BuildFault(soap.SOAP11, "", fault)), string(soapErr.Body))
			require.NotNil(t, soapErr.Fault)
			assert.Equal(t, "Invalid stationID", soapErr.Fault.String)
		})
	}
}

func TestServer_RawBodyReply(t *testing.T) {
	srv := newServer(t)
	srv.Handle("getStations", Reply{Status: http.StatusNotFound, Body: "Not found"})
	c := newClient(t, srv)

	_, err := c.Invoke(context.Background(), "getStations", mapping.Payload{Tree: mapping.NewPayloadNode()})
	var soapErr *soap.Error
	require.True(t, errors.As(err, &soapErr))
	assert.Equal(t, http.StatusNotFound, soapErr.StatusCode)
	assert.Equal(t, "Not found", string(soapErr.Body))
}

func TestServer_UnknownOperation(t *testing.T) {
	srv := newServer(t)
	c := newClient(t, srv)

	_, err := c.Invoke(context.Background(), "getLoad", mapping.Payload{Tree: mapping.NewPayloadNode()})
	var soapErr *soap.Error
	require.True(t, errors.As(err, &soapErr))
	require.NotNil(t, soapErr.Fault)
	assert.Equal(t, "Unknown operation: getLoad", soapErr.Fault.String)
	assert.Len(t, srv.Requests(), 1)
}

func TestServer_MatchesBodyElementWithoutAction(t *testing.T) {
	srv := NewServer()
	defer srv.Close()
	srv.Handle("Add", Reply{Payload: `<AddResponse>3</AddResponse>`})

	env := `<env:Envelope xmlns:env="http://www.w3.org/2003/05/soap-envelope"><env:Body><c:Add xmlns:c="urn:calc"/></env:Body></env:Envelope>`
	resp, err := http.Post(srv.URL, soap.SOAP12ContentType, strings.NewReader(env))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `xmlns:soap="http://www.w3.org/2003/05/soap-envelope"`)
	assert.Contains(t, string(body), `<AddResponse>3</AddResponse>`)

	req, ok := srv.LastRequest()
	require.True(t, ok)
	assert.Equal(t, soap.SOAP12, req.Version)
	assert.Equal(t, "Add", req.Operation)
}

func TestServer_RejectsInvalidRequests(t *testing.T) {
	srv := NewServer(WithOperation("Ping", "urn:ping"))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, err = http.Post(srv.URL, soap.SOAP11ContentType, strings.NewReader("<notsoap/>"))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, string(body), "Failed to parse SOAP envelope")
}

func TestBuildFault_SOAP12MapsCodes(t *testing.T) {
	out := string(BuildFault(soap.SOAP12, "", &soap.Fault{Code: "soap:Server", String: "boom", Detail: "<x/>"}))
	assert.Contains(t, out, `<soap:Value>soap:Receiver</soap:Value>`)
	assert.Contains(t, out, `<soap:Text xml:lang="en">boom</soap:Text>`)
	assert.Contains(t, out, `<soap:Detail><x/></soap:Detail>`)
}
