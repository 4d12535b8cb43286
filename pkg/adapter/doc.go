// Package adapter maps data-access calls onto SOAP operations.
//
// Configuration is assembled with a RegistryBuilder and frozen by Build:
//
//	b := adapter.NewRegistryBuilder()
//	err := b.RegisterConnection(adapter.Connection{
//	    Identity: "chargepoint",
//	    Endpoint: soap.Endpoint{WSDL: "chargepoint.wsdl"},
//	}, adapter.Collection{
//	    Identity:   "station",
//	    Connection: "chargepoint",
//	    Attributes: fields,
//	    Actions:    actions,
//	})
//	reg, err := b.Build(ctx)
//
// An Adapter then runs actions against the registry:
//
//	records, err := adapter.New(reg).Request(ctx, "chargepoint", "station",
//	    "getStationByStationIdScope", map[string]any{"stationId": "1:87063"}, nil)
//
// Errors are one of *ConfigError (nothing was sent), *soap.Error (the
// transport failed or the service answered with a fault), *mapping.ParseError
// (the response body is not XML) or a field mapping error.
package adapter
