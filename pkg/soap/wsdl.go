package soap

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/beevik/etree"

	"github.com/getmockd/soapmap/pkg/xpath"
)

// ErrInvalidWSDL is returned for documents that are not WSDL 1.1.
var ErrInvalidWSDL = errors.New("invalid WSDL")

// Service is the part of a WSDL 1.1 document a client needs: where to send
// requests and which operations exist.
type Service struct {
	Name            string
	TargetNamespace string
	Address         string
	Version         Version
	Style           string
	Operations      map[string]*Operation
}

// OperationNames returns the operation names in sorted order.
func (s *Service) OperationNames() []string {
	names := make([]string, 0, len(s.Operations))
	for name := range s.Operations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type wsdlMessagePart struct {
	element   string
	namespace string
}

type wsdlBinding struct {
	name       string
	version    Version
	style      string
	operations []*Operation
}

// ParseWSDL parses a WSDL 1.1 document. When the document binds the same
// port type for SOAP 1.1 and 1.2, the SOAP 1.1 port is used.
func ParseWSDL(data []byte) (*Service, error) {
	doc, err := xpath.ReadDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWSDL, err)
	}

	root := doc.Root()
	switch root.Tag {
	case "definitions":
	case "description":
		return nil, fmt.Errorf("%w: WSDL 2.0 is not supported", ErrInvalidWSDL)
	default:
		return nil, fmt.Errorf("%w: expected root element <definitions>, got <%s>", ErrInvalidWSDL, root.Tag)
	}

	svc := &Service{
		Name:            root.SelectAttrValue("name", ""),
		TargetNamespace: root.SelectAttrValue("targetNamespace", ""),
	}

	messages := parseMessages(root, svc.TargetNamespace)
	inputs := parsePortTypeInputs(root)

	bindings := make(map[string]*wsdlBinding)
	for _, bindEl := range findElements(root, "binding") {
		b := parseBinding(bindEl, svc.TargetNamespace)
		if b == nil {
			continue
		}
		portType := stripPrefix(bindEl.SelectAttrValue("type", ""))
		for _, op := range b.operations {
			if msg, ok := messages[inputs[portType+"/"+op.Name]]; ok && b.style != "rpc" && msg.element != "" {
				op.Element = msg.element
				op.Namespace = msg.namespace
			}
		}
		bindings[b.name] = b
	}

	var chosen *wsdlBinding
	for _, svcEl := range findElements(root, "service") {
		for _, portEl := range findElements(svcEl, "port") {
			b := bindings[stripPrefix(portEl.SelectAttrValue("binding", ""))]
			if b == nil {
				continue
			}
			if chosen != nil && (chosen.version == SOAP11 || b.version != SOAP11) {
				continue
			}
			chosen = b
			if svc.Name == "" {
				svc.Name = svcEl.SelectAttrValue("name", "")
			}
			if addr := findElementNS(portEl, "address"); addr != nil {
				svc.Address = addr.SelectAttrValue("location", "")
			}
		}
	}
	if chosen == nil {
		return nil, fmt.Errorf("%w: no SOAP port found", ErrInvalidWSDL)
	}

	svc.Version = chosen.version
	svc.Style = chosen.style
	svc.Operations = make(map[string]*Operation, len(chosen.operations))
	for _, op := range chosen.operations {
		svc.Operations[op.Name] = op
	}
	return svc, nil
}

func parseMessages(root *etree.Element, targetNamespace string) map[string]wsdlMessagePart {
	messages := make(map[string]wsdlMessagePart)
	for _, msgEl := range findElements(root, "message") {
		var part wsdlMessagePart
		if partEl := findElement(msgEl, "part"); partEl != nil {
			qname := partEl.SelectAttrValue("element", "")
			if qname != "" {
				part.element = stripPrefix(qname)
				part.namespace = xpath.LookupNamespace(partEl, qnamePrefix(qname))
				if part.namespace == "" {
					part.namespace = targetNamespace
				}
			}
		}
		messages[msgEl.SelectAttrValue("name", "")] = part
	}
	return messages
}

// parsePortTypeInputs maps "portType/operation" to the input message name.
func parsePortTypeInputs(root *etree.Element) map[string]string {
	inputs := make(map[string]string)
	for _, ptEl := range findElements(root, "portType") {
		pt := ptEl.SelectAttrValue("name", "")
		for _, opEl := range findElements(ptEl, "operation") {
			if inp := findElement(opEl, "input"); inp != nil {
				inputs[pt+"/"+opEl.SelectAttrValue("name", "")] = stripPrefix(inp.SelectAttrValue("message", ""))
			}
		}
	}
	return inputs
}

// parseBinding returns nil for bindings that are not SOAP bindings.
func parseBinding(bindEl *etree.Element, targetNamespace string) *wsdlBinding {
	soapBind := findElementNS(bindEl, "binding")
	if soapBind == nil {
		return nil
	}
	b := &wsdlBinding{
		name:    bindEl.SelectAttrValue("name", ""),
		version: bindingVersion(soapBind),
		style:   soapBind.SelectAttrValue("style", "document"),
	}
	for _, opEl := range findElements(bindEl, "operation") {
		op := &Operation{
			Name:      opEl.SelectAttrValue("name", ""),
			Namespace: targetNamespace,
		}
		if soapOp := findElementNS(opEl, "operation"); soapOp != nil {
			op.SOAPAction = soapOp.SelectAttrValue("soapAction", "")
		}
		if inp := findElement(opEl, "input"); inp != nil {
			if body := findElementNS(inp, "body"); body != nil {
				if ns := body.SelectAttrValue("namespace", ""); ns != "" {
					op.Namespace = ns
				}
			}
		}
		b.operations = append(b.operations, op)
	}
	return b
}

func bindingVersion(soapBind *etree.Element) Version {
	if soapBind.NamespaceURI() == WSDLSOAP12Namespace || soapBind.Space == "soap12" {
		return SOAP12
	}
	return SOAP11
}

// findElements returns the direct children with the given local name.
func findElements(parent *etree.Element, localName string) []*etree.Element {
	var results []*etree.Element
	for _, child := range parent.ChildElements() {
		if child.Tag == localName {
			results = append(results, child)
		}
	}
	return results
}

// findElement returns the first direct child element matching the local name.
func findElement(parent *etree.Element, localName string) *etree.Element {
	elems := findElements(parent, localName)
	if len(elems) > 0 {
		return elems[0]
	}
	return nil
}

// findElementNS finds a child by local name in a WSDL SOAP binding namespace.
func findElementNS(parent *etree.Element, localName string) *etree.Element {
	for _, child := range parent.ChildElements() {
		if child.Tag == localName && isSOAPBindingNamespace(child) {
			return child
		}
	}
	return nil
}

func isSOAPBindingNamespace(e *etree.Element) bool {
	switch e.NamespaceURI() {
	case WSDLSOAP11Namespace, WSDLSOAP12Namespace:
		return true
	}
	switch e.Space {
	case "soap", "soap12":
		return true
	}
	return false
}

// stripPrefix removes a namespace prefix from a QName (e.g., "tns:Foo" → "Foo").
func stripPrefix(qname string) string {
	if idx := strings.IndexByte(qname, ':'); idx >= 0 {
		return qname[idx+1:]
	}
	return qname
}

func qnamePrefix(qname string) string {
	if idx := strings.IndexByte(qname, ':'); idx >= 0 {
		return qname[:idx]
	}
	return ""
}
