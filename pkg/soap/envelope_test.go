package soap

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/soapmap/pkg/mapping"
)

var getStations = &Operation{
	Name:       "getStations",
	SOAPAction: "urn:provider/interface/chargepointservices/getStations",
	Namespace:  "urn:dictionary:com.chargepoint.webservices",
}

func buildPayload(t *testing.T, request map[string]string, args map[string]any) mapping.Payload {
	t.Helper()
	p, err := mapping.BuildRequest(&mapping.ActionDescriptor{
		Operation: "getStations",
		Mapping:   &mapping.Mapping{Request: request},
	}, args)
	require.NoError(t, err)
	return p
}

func TestEnvelope_Golden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	tests := []struct {
		name string
		env  *Envelope
	}{
		{
			name: "empty_payload",
			env: &Envelope{
				Version:   SOAP11,
				Operation: getStations,
				Payload:   buildPayload(t, nil, map[string]any{"stationId": "1:87063"}),
			},
		},
		{
			name: "station_id",
			env: &Envelope{
				Version:   SOAP11,
				Operation: getStations,
				Payload: buildPayload(t,
					map[string]string{"stationId": "searchQuery[stationID]"},
					map[string]any{"stationId": "1:87063"}),
			},
		},
		{
			name: "namespaced_soap12",
			env: &Envelope{
				Version:   SOAP12,
				Header:    `<h:Trace xmlns:h="urn:trace">abc</h:Trace>`,
				Operation: getStations,
				Namespaces: map[string]string{
					"tns": "urn:ignored",
					"xsi": "http://www.w3.org/2001/XMLSchema-instance",
				},
				Payload: buildPayload(t,
					map[string]string{
						"stationId": "tns:searchQuery[tns:stationID]",
						"version":   "tns:searchQuery[@version]",
						"type":      "tns:searchQuery[@xsi:type]",
						"mode":      "@mode",
					},
					map[string]any{
						"stationId": "1:87063 & more",
						"version":   float64(2),
						"type":      "q:Query",
						"mode":      "full",
					}),
			},
		},
		{
			name: "raw_template",
			env: &Envelope{
				Version:   SOAP11,
				Operation: getStations,
				Payload: mapping.Payload{
					Raw: `<tns:getStations xmlns:tns="urn:dictionary:com.chargepoint.webservices"><searchQuery><orgID>1:ORG07919</orgID></searchQuery></tns:getStations>`,
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g.Assert(t, tt.name, tt.env.Bytes())
		})
	}
}

func TestEnvelope_OperationWithoutNamespace(t *testing.T) {
	env := &Envelope{
		Version:   SOAP11,
		Operation: &Operation{Name: "Ping", Element: "PingRequest"},
		Payload:   mapping.Payload{Tree: mapping.NewPayloadNode()},
	}
	require.Contains(t, string(env.Bytes()), `<soap:Body><PingRequest></PingRequest></soap:Body>`)
}

func TestEnvelope_PayloadRebindsOperationPrefix(t *testing.T) {
	tree := mapping.NewPayloadNode()
	tree.Child("tns:query").Child("tns:id").Text = "7"

	env := &Envelope{
		Version:    SOAP11,
		Operation:  &Operation{Name: "find", Namespace: "urn:service"},
		Namespaces: map[string]string{"tns": "urn:types"},
		Payload:    mapping.Payload{Tree: tree},
	}
	body := string(env.Bytes())
	require.Contains(t, body, `<tns0:find xmlns:tns0="urn:service" xmlns:tns="urn:types">`)
	require.Contains(t, body, `<tns:query><tns:id>7</tns:id></tns:query></tns0:find>`)

	// The same URI keeps the usual prefix.
	env.Namespaces = map[string]string{"tns": "urn:service"}
	body = string(env.Bytes())
	require.Contains(t, body, `<tns:find xmlns:tns="urn:service">`)
}
