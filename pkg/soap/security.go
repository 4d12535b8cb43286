package soap

import (
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	ntlmssp "github.com/Azure/go-ntlmssp"
	"github.com/google/uuid"
)

// Security attaches credentials to a call, either as a SOAP header, on the
// HTTP request, or both.
type Security interface {
	// Header returns the content of the SOAP Header element, or "".
	Header(now time.Time) (string, error)
	// ApplyRequest decorates the outgoing HTTP request.
	ApplyRequest(req *http.Request)
}

// WS-Security namespaces and token types.
const (
	WSSENamespace = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-secext-1.0.xsd"
	WSUNamespace  = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-utility-1.0.xsd"

	PasswordText   = "PasswordText"
	PasswordDigest = "PasswordDigest"

	tokenProfile = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-username-token-profile-1.0"
	base64Binary = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-soap-message-security-1.0#Base64Binary"
)

// DefaultTimestampTTL is the lifetime of a wsu:Timestamp.
const DefaultTimestampTTL = 10 * time.Minute

// nonceSize is the length of a PasswordDigest nonce in bytes.
const nonceSize = 16

// WSSecurity is a WS-Security UsernameToken header.
type WSSecurity struct {
	Username string
	Password string
	// PasswordType is PasswordText (default) or PasswordDigest.
	PasswordType  string
	UseTimestamps bool
	TTL           time.Duration
	// MustUnderstand sets soap:mustUnderstand="1" on the Security element.
	MustUnderstand bool

	// nonce is used instead of a random one when set.
	nonce []byte
}

const stampLayout = "2006-01-02T15:04:05.000Z"

// Header renders the wsse:Security element.
func (s *WSSecurity) Header(now time.Time) (string, error) {
	passwordType := s.PasswordType
	if passwordType == "" {
		passwordType = PasswordText
	}
	if passwordType != PasswordText && passwordType != PasswordDigest {
		return "", fmt.Errorf("unsupported WS-Security password type %q", s.PasswordType)
	}

	created := now.UTC().Format(stampLayout)

	var buf strings.Builder
	buf.WriteString(`<wsse:Security xmlns:wsse="` + WSSENamespace + `" xmlns:wsu="` + WSUNamespace + `"`)
	if s.MustUnderstand {
		buf.WriteString(` soap:mustUnderstand="1"`)
	}
	buf.WriteString(`>`)

	if s.UseTimestamps {
		ttl := s.TTL
		if ttl <= 0 {
			ttl = DefaultTimestampTTL
		}
		expires := now.Add(ttl).UTC().Format(stampLayout)
		buf.WriteString(`<wsu:Timestamp wsu:Id="Timestamp-` + uuid.NewString() + `">`)
		buf.WriteString(`<wsu:Created>` + created + `</wsu:Created>`)
		buf.WriteString(`<wsu:Expires>` + expires + `</wsu:Expires>`)
		buf.WriteString(`</wsu:Timestamp>`)
	}

	buf.WriteString(`<wsse:UsernameToken wsu:Id="UsernameToken-` + uuid.NewString() + `">`)
	buf.WriteString(`<wsse:Username>` + escapeXML(s.Username) + `</wsse:Username>`)
	if passwordType == PasswordDigest {
		nonce := s.nonce
		if nonce == nil {
			nonce = make([]byte, nonceSize)
			if _, err := rand.Read(nonce); err != nil {
				return "", fmt.Errorf("failed to generate nonce: %w", err)
			}
		}
		buf.WriteString(`<wsse:Password Type="` + tokenProfile + `#PasswordDigest">` + passwordDigest(nonce, created, s.Password) + `</wsse:Password>`)
		buf.WriteString(`<wsse:Nonce EncodingType="` + base64Binary + `">` + base64.StdEncoding.EncodeToString(nonce) + `</wsse:Nonce>`)
	} else {
		buf.WriteString(`<wsse:Password Type="` + tokenProfile + `#PasswordText">` + escapeXML(s.Password) + `</wsse:Password>`)
	}
	buf.WriteString(`<wsu:Created>` + created + `</wsu:Created>`)
	buf.WriteString(`</wsse:UsernameToken>`)
	buf.WriteString(`</wsse:Security>`)
	return buf.String(), nil
}

// ApplyRequest is a no-op: the credentials travel in the envelope.
func (s *WSSecurity) ApplyRequest(*http.Request) {}

// passwordDigest computes Base64(SHA-1(nonce + created + password)).
func passwordDigest(nonce []byte, created, password string) string {
	h := sha1.New()
	h.Write(nonce)
	h.Write([]byte(created))
	h.Write([]byte(password))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// BasicAuth sends HTTP basic credentials.
type BasicAuth struct {
	Username string
	Password string
}

// Header returns no SOAP header.
func (b *BasicAuth) Header(time.Time) (string, error) { return "", nil }

// ApplyRequest sets the Authorization header.
func (b *BasicAuth) ApplyRequest(req *http.Request) {
	req.SetBasicAuth(b.Username, b.Password)
}

// NTLMAuth authenticates with NTLM. The client's transport must be wrapped
// with NTLMTransport; the credentials are handed to it as basic auth.
type NTLMAuth struct {
	Username string
	Password string
}

// Header returns no SOAP header.
func (n *NTLMAuth) Header(time.Time) (string, error) { return "", nil }

// ApplyRequest sets the credentials the NTLM negotiator picks up.
func (n *NTLMAuth) ApplyRequest(req *http.Request) {
	req.SetBasicAuth(n.Username, n.Password)
}

// NTLMTransport wraps base with an NTLM negotiator.
func NTLMTransport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &ntlmssp.Negotiator{RoundTripper: base}
}

// escapeXML escapes special XML characters.
func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	s = strings.ReplaceAll(s, "'", "&apos;")
	return s
}
