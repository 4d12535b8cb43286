// Package config loads soapmap configuration files.
//
// A configuration file is YAML (.yaml, .yml) or JSON and declares SOAP
// connections and the collections bound to them:
//
//	logging:
//	  level: info
//	connections:
//	  chargepoint:
//	    wsdl: ./chargepoint.wsdl      # relative to this file, or an http(s) URL
//	    timeout: 30s
//	    security:
//	      username: "{{username}}"
//	      password: "{{password}}"
//	collections:
//	  station:
//	    connection: chargepoint
//	    attributes:
//	      id: {type: text}
//	    soap:
//	      getStationById:
//	        operation: getStations
//	        namespaces:
//	          soap: http://schemas.xmlsoap.org/soap/envelope/
//	          ns1: urn:dictionary:com.chargepoint.webservices
//	        pathSelector: /soap:Envelope/soap:Body/ns1:getStationsResponse/stationData
//	        mapping:
//	          request: {stationId: "searchQuery[stationID]"}
//	          response: {id: "./stationID/text()"}
//	collectionFiles:
//	  - models/**/*.yaml
//
// Every document is checked against an embedded JSON Schema before it is
// decoded. Files matched by collectionFiles may only define collections.
//
// Build loads a file and turns it into an adapter.Registry:
//
//	cfg, reg, err := config.Build(ctx, "soapmap.yaml")
package config
