package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/soapmap/pkg/adapter"
	"github.com/getmockd/soapmap/pkg/mapping"
	"github.com/getmockd/soapmap/pkg/soap"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFromFile_YAML(t *testing.T) {
	f, err := LoadFromFile("testdata/soapmap.yaml")
	require.NoError(t, err)

	assert.Equal(t, "testdata/soapmap.yaml", f.Path)
	require.NotNil(t, f.Logging)
	assert.Equal(t, "debug", f.Logging.Level)

	conn := f.Connections["test"]
	require.NotNil(t, conn)
	assert.Equal(t, filepath.Join("testdata", "chargepoint.wsdl"), conn.WSDL)
	assert.Equal(t, "5s", conn.Timeout)
	require.NotNil(t, conn.Security)
	assert.Equal(t, "{{username}}", conn.Security.Username)
	assert.True(t, conn.Security.UseTimestamps)

	require.Contains(t, f.Collections, "station")
	require.Contains(t, f.Collections, "organization")

	station := f.Collections["station"]
	assert.Equal(t, mapping.FieldInteger, station.Attributes["numPorts"].Type)

	byID := station.SOAP["getStationByStationIdScope"]
	require.NotNil(t, byID)
	assert.Equal(t, "searchQuery[stationID]", byID.RequestTable()["stationId"])
	assert.Equal(t, "./numPorts/text()", byID.ResponseTable()["numPorts"])

	byModel := station.SOAP["getStationByStationModelScope"]
	assert.Nil(t, byModel.Mapping)
	assert.Equal(t, map[string]any{"stationModel": "EV230PDRACG"}, byModel.DefaultParameters)
	assert.Contains(t, byModel.BodyPayloadTemplate, "<stationModel>{{stationModel}}</stationModel>")
}

func TestLoadFromFile_JSON(t *testing.T) {
	f, err := LoadFromFile("testdata/soapmap.json")
	require.NoError(t, err)

	conn := f.Connections["inline"]
	require.NotNil(t, conn)
	assert.Empty(t, conn.WSDL)
	assert.Equal(t, map[string]string{"ping": "urn:ping"}, conn.Operations)

	ping := f.Collections["health"].SOAP["ping"]
	require.NotNil(t, ping.Mapping)
	assert.Nil(t, ping.Mapping.Response)
}

func TestLoadFromFile_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		path string
		want error
	}{
		{"missing", filepath.Join(dir, "nope.yaml"), ErrFileNotFound},
		{"empty", writeFile(t, dir, "empty.yaml", "  \n"), ErrEmptyFile},
		{"invalid yaml", writeFile(t, dir, "bad.yaml", "connections: [\n"), ErrInvalidYAML},
		{"invalid json", writeFile(t, dir, "bad.json", "{"), ErrInvalidJSON},
		{"unknown key", writeFile(t, dir, "unknown.yaml", "servers: {}\n"), ErrInvalidConfig},
		{"no wsdl or operations", writeFile(t, dir, "conn.yaml", "connections:\n  a: {timeout: 1s}\n"), ErrInvalidConfig},
		{"missing operation", writeFile(t, dir, "action.yaml", "collections:\n  c:\n    connection: a\n    soap:\n      x: {pathSelector: //a}\n"), ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(tt.path)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := LoadFromFile(dir)
	assert.ErrorContains(t, err, "directory")
}

func TestLoadFromFile_SchemaErrorPath(t *testing.T) {
	path := writeFile(t, t.TempDir(), "soapmap.yaml", `connections:
  test:
    wsdl: a.wsdl
    security:
      type: kerberos
`)

	_, err := LoadFromFile(path)
	var result *SchemaValidationResult
	require.ErrorAs(t, err, &result)
	require.False(t, result.IsValid())
	var paths []string
	for _, e := range result.Errors {
		paths = append(paths, e.Path)
	}
	assert.Contains(t, paths, "connections.test.security.type")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadFromFile_CollectionFiles(t *testing.T) {
	t.Run("only collections", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "models/a.yaml", "connections:\n  x: {wsdl: a.wsdl}\n")
		path := writeFile(t, dir, "soapmap.yaml", "collectionFiles: [models/*.yaml]\n")

		_, err := LoadFromFile(path)
		assert.ErrorIs(t, err, ErrInvalidConfig)
		assert.ErrorContains(t, err, filepath.Join("models", "a.yaml"))
	})

	t.Run("duplicate", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "models/a.yaml", "collections:\n  c: {connection: x}\n")
		path := writeFile(t, dir, "soapmap.yaml", "collections:\n  c: {connection: x}\ncollectionFiles: [models/*.yaml]\n")

		_, err := LoadFromFile(path)
		assert.ErrorIs(t, err, ErrDuplicateCollection)
	})

	t.Run("no matches", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "soapmap.yaml", "collectionFiles: [\"models/**/*.yaml\"]\n")

		f, err := LoadFromFile(path)
		require.NoError(t, err)
		assert.Empty(t, f.Collections)
	})
}

func TestResolvePath(t *testing.T) {
	assert.Equal(t, filepath.Join("base", "a.wsdl"), ResolvePath("base", "a.wsdl"))
	assert.Equal(t, "https://example.com/a?wsdl", ResolvePath("base", "https://example.com/a?wsdl"))
	abs := filepath.Join(string(filepath.Separator), "etc", "a.wsdl")
	assert.Equal(t, abs, ResolvePath("base", abs))
	assert.Empty(t, ResolvePath("base", ""))
}

func TestConnectionConfig_Connection(t *testing.T) {
	c := &ConnectionConfig{
		WSDL:        "a.wsdl",
		Endpoint:    "http://host/ws",
		SOAPVersion: "soap12",
		Timeout:     "1m30s",
		Security: &SecurityConfig{
			Type:     "basic",
			Username: "{{user}}",
			TTL:      "10s",
		},
	}

	conn, err := c.Connection("x")
	require.NoError(t, err)
	assert.Equal(t, "x", conn.Identity)
	assert.Equal(t, soap.SOAP12, conn.Endpoint.Version)
	assert.Equal(t, "http://host/ws", conn.Endpoint.Address)
	assert.Equal(t, 90*time.Second, conn.Timeout)
	require.NotNil(t, conn.Security)
	assert.Equal(t, adapter.SecurityBasic, conn.Security.Type)
	assert.Equal(t, 10*time.Second, conn.Security.TTL)

	conn, err = (&ConnectionConfig{WSDL: "a.wsdl"}).Connection("y")
	require.NoError(t, err)
	assert.Empty(t, conn.Endpoint.Version)
	assert.Nil(t, conn.Security)

	_, err = (&ConnectionConfig{Timeout: "soon"}).Connection("z")
	assert.ErrorContains(t, err, `connection "z" timeout`)

	_, err = (&ConnectionConfig{Security: &SecurityConfig{TTL: "x"}}).Connection("z")
	assert.ErrorContains(t, err, "ttl")
}

func TestBuild(t *testing.T) {
	f, reg, err := Build(context.Background(), "testdata/soapmap.yaml")
	require.NoError(t, err)
	require.NotNil(t, f)

	assert.Equal(t, []string{"test"}, reg.Connections())
	assert.Equal(t, []string{"organization", "station"}, reg.Collections())
	assert.Equal(t, []adapter.ActionInfo{
		{Connection: "test", Collection: "station", Action: "scopeWithInvalidOperation", Operation: "invalidWsdlOperation"},
	}, reg.Unresolved())

	client, ok := reg.Client("test")
	require.True(t, ok)
	assert.Equal(t, "http://127.0.0.1:8089/webservices", client.Service().Address)
}

func TestBuild_InlineOperations(t *testing.T) {
	_, reg, err := Build(context.Background(), "testdata/soapmap.json")
	require.NoError(t, err)

	client, ok := reg.Client("inline")
	require.True(t, ok)
	op, ok := client.Operation("ping")
	require.True(t, ok)
	assert.Equal(t, "urn:ping", op.SOAPAction)
	assert.Equal(t, soap.SOAP12, client.Service().Version)
	assert.Empty(t, reg.Unresolved())
}

func TestBuild_UnknownConnection(t *testing.T) {
	path := writeFile(t, t.TempDir(), "soapmap.yaml", "collections:\n  c: {connection: nope}\n")
	_, _, err := Build(context.Background(), path)
	assert.ErrorIs(t, err, adapter.ErrUnknownConnection)
}
