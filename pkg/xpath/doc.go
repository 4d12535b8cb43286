// Package xpath evaluates XPath 1.0 expressions against etree documents.
//
// Evaluation is done by github.com/antchfx/xpath over a navigator that walks
// the etree tree. Expressions are compiled against a prefix-to-URI table, so
// the prefixes in an expression do not need to match the prefixes chosen by
// the document author. Every prefix an expression uses must be bound.
//
// Prefixed names match by namespace URI. An unprefixed name matches elements
// written without a prefix. Select always returns nodes in document order.
//
// # Usage
//
//	doc, err := xpath.ReadDocument(body)
//	if err != nil {
//	    return err
//	}
//	x, err := xpath.Compile("/soap:Envelope/soap:Body/*", map[string]string{
//	    "soap": "http://schemas.xmlsoap.org/soap/envelope/",
//	})
//	if err != nil {
//	    return err
//	}
//	nodes := x.Select(doc.Root())
package xpath
