// Package cli implements the soapmap command line.
//
// Commands:
//
//	soapmap request <collection> <action>   run an action and print its records
//	soapmap validate                        check a configuration and its bindings
//	soapmap operations [connection]         list the operations of each service
//	soapmap actions                         list collection actions and their operations
//	soapmap version                         show build information
//
// Every command accepts --json; in that mode only JSON is written to stdout
// and logs go to stderr.
package cli
