package soap

import (
	"errors"
	"fmt"

	"github.com/getmockd/soapmap/pkg/util"
)

// ErrUnknownOperation is returned by Invoke for operations the client does
// not know.
var ErrUnknownOperation = errors.New("unknown SOAP operation")

// maxErrorBody bounds the response body quoted in error messages.
const maxErrorBody = 512

// Error is a transport-level failure: a network error, a non-2xx status, a
// SOAP fault (whatever the status) or a response body that is not a SOAP
// envelope. Response is set whenever a response was received.
type Error struct {
	StatusCode int
	Body       []byte
	Fault      *Fault
	Response   *Response
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.Fault != nil:
		return fmt.Sprintf("soap fault (HTTP %d): %s", e.StatusCode, e.Fault.Error())
	case e.Err != nil && e.StatusCode == 0:
		return "soap request failed: " + e.Err.Error()
	case e.Err != nil:
		return fmt.Sprintf("invalid SOAP response (HTTP %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, util.TruncateBody(string(e.Body), maxErrorBody))
}

func (e *Error) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	if e.Fault != nil {
		return e.Fault
	}
	return nil
}
