// Package logging provides structured logging configuration for soapmap.
//
// This package wraps log/slog to provide consistent logging across the
// adapter, the SOAP client and the CLI.
//
// # Usage
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.ParseLevel("debug"),
//	    Format: logging.FormatText,
//	})
//
//	logger.Debug("sending soap request", "operation", "getStations")
//
// Open additionally appends JSON records to a file, fanning each record out
// through a MultiHandler.
//
// # Integration
//
// Components accept a *slog.Logger through an option. If no logger is
// provided they use logging.Nop().
//
// Outbound envelopes can carry WS-Security credentials; pass them through
// Redact before logging.
package logging
