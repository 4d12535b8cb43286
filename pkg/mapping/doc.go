// Package mapping translates between caller arguments, outbound SOAP payload
// trees and typed records.
//
// An ActionDescriptor declares, for one named action of a collection, which
// remote operation it calls and how its data is shaped:
//
//   - Mapping.Request maps argument keys to path-token expressions such as
//     "searchQuery[stationID]" or "searchQuery[@version]". BuildRequest walks
//     these into a PayloadNode tree.
//   - BodyPayloadTemplate, when set, replaces the request table with a raw
//     body rendered by the template package.
//   - PathSelector and Mapping.Response drive MapResponse, which selects the
//     result nodes of a response document and projects each one into a Record.
//
// Missing mappings are not errors: they produce empty payloads, empty result
// lists or records with empty fields. Malformed response XML and unsupported
// field types are.
//
// # Usage
//
//	action := &mapping.ActionDescriptor{
//	    Operation:    "getStations",
//	    Namespaces:   map[string]string{"ns1": "urn:dictionary:com.chargepoint.webservices"},
//	    PathSelector: "//ns1:getStationsResponse/stationData",
//	    Mapping: &mapping.Mapping{
//	        Request:  map[string]string{"stationId": "searchQuery[stationID]"},
//	        Response: map[string]string{"id": "./stationID/text()"},
//	    },
//	}
//
//	payload, err := mapping.BuildRequest(action, map[string]any{"stationId": "1:87063"})
//	// ... send payload, receive body ...
//	records, err := mapping.MapResponse(fields, action, body)
package mapping
