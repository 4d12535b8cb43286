// Package util provides small shared helpers used across soapmap packages.
//
//   - SafeFilePathAllowAbsolute: reject path-traversal attempts in WSDL paths
//   - TruncateBody: cap request/response bodies for logging
//   - Stringify: render values the way templates and payloads expect
package util
