package cli

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/soapmap/pkg/mapping"
	"github.com/getmockd/soapmap/pkg/metrics"
	"github.com/getmockd/soapmap/pkg/soaptest"
)

const stationConfig = `connections:
  test:
    wsdl: %WSDL%
collections:
  station:
    connection: test
    attributes:
      id: {type: text}
      numPorts: {type: integer}
      serial: {type: text}
    soap:
      getStationByStationIdScope:
        operation: getStations
        namespaces:
          soap: http://schemas.xmlsoap.org/soap/envelope/
          ns1: urn:dictionary:com.chargepoint.webservices
        pathSelector: /soap:Envelope/soap:Body/ns1:getStationsResponse/stationData
        mapping:
          request:
            stationId: searchQuery[stationID]
          response:
            id: ./stationID/text()
            numPorts: ./numPorts/text()
            serial: ./stationSerialNum/text()
`

const invalidOperationConfig = stationConfig + `      scopeWithInvalidOperation:
        operation: invalidWsdlOperation
`

// execute runs the root command with fresh flag state and captures its
// output.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	configPath, jsonOutput, logLevel, logFormat, logFile = "", false, "", "", ""
	requestConnection, requestData = "", ""
	requestSet, requestContext = nil, nil
	requestInteractive, requestMetrics = false, false

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func newStationServer(t *testing.T) *soaptest.Server {
	t.Helper()
	wsdl, err := os.ReadFile("testdata/chargepoint.wsdl")
	require.NoError(t, err)
	body, err := os.ReadFile("testdata/getStationsByStationIdResponse.xml")
	require.NoError(t, err)

	srv := soaptest.NewServer(soaptest.WithWSDL(wsdl))
	t.Cleanup(srv.Close)
	srv.Handle("getStations", soaptest.Reply{Body: string(body)})
	return srv
}

func writeConfig(t *testing.T, content, wsdl string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "soapmap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(strings.ReplaceAll(content, "%WSDL%", wsdl)), 0644))
	return path
}

func TestVersion_JSON(t *testing.T) {
	stdout, _, err := execute(t, "version", "--json")
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	for _, key := range []string{"version", "commit", "date", "go", "os", "arch"} {
		assert.Contains(t, out, key)
	}
}

func TestRequest_JSON(t *testing.T) {
	srv := newStationServer(t)
	path := writeConfig(t, stationConfig, srv.WSDLURL())

	stdout, _, err := execute(t, "request", "station", "getStationByStationIdScope",
		"-c", path, "--set", "stationId=1:87063", "--json")
	require.NoError(t, err)

	var records []map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "1:87063", records[0]["id"])
	assert.Equal(t, float64(2), records[0]["numPorts"])
	assert.Equal(t, "1307311001A0", records[0]["serial"])

	req, ok := srv.LastRequest()
	require.True(t, ok)
	assert.Contains(t, req.Body, "<searchQuery><stationID>1:87063</stationID></searchQuery>")
}

func TestRequest_Table(t *testing.T) {
	srv := newStationServer(t)
	path := writeConfig(t, stationConfig, srv.WSDLURL())

	stdout, _, err := execute(t, "request", "station", "getStationByStationIdScope",
		"-c", path, "--data", `{"stationId": "1:87063"}`)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"ID", "NUMPORTS", "SERIAL"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"1:87063", "2", "1307311001A0"}, strings.Fields(lines[1]))
}

func TestRequest_InvalidOperation(t *testing.T) {
	srv := newStationServer(t)
	path := writeConfig(t, invalidOperationConfig, srv.WSDLURL())

	_, _, err := execute(t, "request", "station", "scopeWithInvalidOperation", "-c", path)
	require.Error(t, err)
	assert.Equal(t, "The requested SOAP operation 'invalidWsdlOperation' is not valid", err.Error())
	assert.Empty(t, srv.Requests())
}

func TestRequest_Metrics(t *testing.T) {
	metrics.Reset()
	t.Cleanup(metrics.Reset)

	srv := newStationServer(t)
	path := writeConfig(t, stationConfig, srv.WSDLURL())

	_, stderr, err := execute(t, "request", "station", "getStationByStationIdScope",
		"-c", path, "--set", "stationId=1:87063", "--metrics")
	require.NoError(t, err)
	assert.Contains(t, stderr, `soapmap_requests_total{action="getStationByStationIdScope",collection="station",outcome="ok"} 1`)
	assert.Contains(t, stderr, "soapmap_connections 1")
}

func TestRequest_BadArguments(t *testing.T) {
	srv := newStationServer(t)
	path := writeConfig(t, stationConfig, srv.WSDLURL())

	_, _, err := execute(t, "request", "station", "getStationByStationIdScope", "-c", path, "--data", "[1]")
	assert.ErrorContains(t, err, "--data must be a JSON object")

	_, _, err = execute(t, "request", "station", "getStationByStationIdScope", "-c", path, "--ctx", "novalue")
	assert.ErrorContains(t, err, "invalid key=value pair")

	_, _, err = execute(t, "request", "station")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	srv := newStationServer(t)

	t.Run("valid", func(t *testing.T) {
		path := writeConfig(t, stationConfig, srv.WSDLURL())
		stdout, _, err := execute(t, "validate", "-c", path)
		require.NoError(t, err)
		assert.Contains(t, stdout, "is valid (1 connections, 1 collections, 1 actions)")
	})

	t.Run("unresolved", func(t *testing.T) {
		path := writeConfig(t, invalidOperationConfig, srv.WSDLURL())
		stdout, _, err := execute(t, "validate", "-c", path, "--json")
		require.Error(t, err)

		var out validateOutput
		require.NoError(t, json.Unmarshal([]byte(stdout), &out))
		assert.False(t, out.Valid)
		assert.Equal(t, 2, out.Actions)
		require.Len(t, out.Unresolved, 1)
		assert.Equal(t, "scopeWithInvalidOperation", out.Unresolved[0].Action)
	})

	t.Run("schema error", func(t *testing.T) {
		path := writeConfig(t, "connections:\n  test: {}\n", "")
		stdout, _, err := execute(t, "validate", "-c", path, "--json")
		require.Error(t, err)

		var out validateOutput
		require.NoError(t, json.Unmarshal([]byte(stdout), &out))
		assert.False(t, out.Valid)
		assert.NotEmpty(t, out.Error)
	})
}

func TestOperations_JSON(t *testing.T) {
	srv := newStationServer(t)
	path := writeConfig(t, stationConfig, srv.WSDLURL())

	stdout, _, err := execute(t, "operations", "test", "-c", path, "--json")
	require.NoError(t, err)

	var rows []operationOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "getLoad", rows[0].Operation)
	assert.Equal(t, "getStations", rows[1].Operation)
	assert.Equal(t, "urn:provider/interface/chargepointservices/getStations", rows[1].SOAPAction)

	_, _, err = execute(t, "operations", "nope", "-c", path)
	assert.ErrorContains(t, err, "unknown connection")
}

func TestActions_Table(t *testing.T) {
	srv := newStationServer(t)
	path := writeConfig(t, invalidOperationConfig, srv.WSDLURL())

	stdout, _, err := execute(t, "actions", "-c", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "COLLECTION")
	assert.Regexp(t, `station\s+scopeWithInvalidOperation\s+test\s+invalidWsdlOperation\s+false`, stdout)
	assert.Regexp(t, `station\s+getStationByStationIdScope\s+test\s+getStations\s+true`, stdout)
}

func TestJSONSafe(t *testing.T) {
	got := jsonSafe(mapping.Record{"n": math.NaN(), "m": float64(1), "s": "x"})
	assert.Equal(t, map[string]any{"n": nil, "m": float64(1), "s": "x"}, got)
}
