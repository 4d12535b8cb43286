package soap

import (
	"bytes"
	"slices"
	"strconv"

	"github.com/getmockd/soapmap/pkg/mapping"
)

// operationPrefix is the prefix bound to the operation namespace unless the
// payload already binds it elsewhere.
const operationPrefix = "tns"

// Envelope is an outbound SOAP message.
type Envelope struct {
	Version Version
	// Header is the inner XML of the SOAP Header; omitted when empty.
	Header    string
	Operation *Operation
	// Namespaces resolves prefixes used by payload element and attribute
	// names. Used prefixes are declared on the operation element.
	Namespaces map[string]string
	Payload    mapping.Payload
}

// Bytes serializes the envelope. A raw payload is written into the Body
// verbatim; a payload tree is wrapped in the operation element.
func (e *Envelope) Bytes() []byte {
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString(`<soap:Envelope xmlns:soap="` + e.Version.Namespace() + `">`)
	if e.Header != "" {
		buf.WriteString(`<soap:Header>`)
		buf.WriteString(e.Header)
		buf.WriteString(`</soap:Header>`)
	}
	buf.WriteString(`<soap:Body>`)
	if e.Payload.IsRaw() {
		buf.WriteString(e.Payload.Raw)
	} else {
		e.writeOperation(&buf)
	}
	buf.WriteString(`</soap:Body>`)
	buf.WriteString(`</soap:Envelope>`)
	return buf.Bytes()
}

func (e *Envelope) writeOperation(buf *bytes.Buffer) {
	tree := e.Payload.Tree
	used := tree.Prefixes()
	name := e.Operation.ElementName()
	prefix := ""
	if e.Operation.Namespace != "" {
		prefix = e.operationPrefix(used)
		name = prefix + ":" + name
	}

	buf.WriteString(`<` + name)
	if prefix != "" {
		writeAttr(buf, "xmlns:"+prefix, e.Operation.Namespace)
	}
	for _, p := range used {
		if p == "xml" || p == prefix {
			continue
		}
		if uri, ok := e.Namespaces[p]; ok {
			writeAttr(buf, "xmlns:"+p, uri)
		}
	}
	writeContent(buf, tree)
	buf.WriteString(`</` + name + `>`)
}

// operationPrefix picks the prefix of the operation element. "tns" is used
// unless the payload uses it for a different namespace.
func (e *Envelope) operationPrefix(used []string) string {
	taken := func(p string) bool {
		if !slices.Contains(used, p) {
			return false
		}
		uri, ok := e.Namespaces[p]
		return ok && uri != e.Operation.Namespace
	}
	if !taken(operationPrefix) {
		return operationPrefix
	}
	for i := 0; ; i++ {
		p := operationPrefix + strconv.Itoa(i)
		if !slices.Contains(used, p) {
			if _, ok := e.Namespaces[p]; !ok {
				return p
			}
		}
	}
}

// writeContent writes the attributes of n, closes its start tag and writes
// its text and children.
func writeContent(buf *bytes.Buffer, n *mapping.PayloadNode) {
	for _, a := range n.AttrNames() {
		writeAttr(buf, a, n.Attrs[a])
	}
	buf.WriteString(`>`)
	buf.WriteString(escapeXML(n.Text))
	for _, c := range n.ChildNames() {
		buf.WriteString(`<` + c)
		writeContent(buf, n.Children[c])
		buf.WriteString(`</` + c + `>`)
	}
}

func writeAttr(buf *bytes.Buffer, name, value string) {
	buf.WriteString(` ` + name + `="` + escapeXML(value) + `"`)
}
