/*
Package protocol turns typed operation inputs into wire requests and
wire responses back into typed outputs, for the four AWS dialects:
target-header JSON, REST-JSON, REST-XML and the Query/EC2 form
encoding. It also decodes the per-dialect error formats into the
client error taxonomy.
*/
package protocol

import "fmt"

// BodyKind tags the payload variant of a request or response body.
type BodyKind int

const (
	// BodyEmpty is the absent body.
	BodyEmpty BodyKind = iota
	// BodyText is a plain text payload.
	BodyText
	// BodyBytes is an opaque binary payload.
	BodyBytes
	// BodyJSON is a JSON document.
	BodyJSON
	// BodyXML is an XML document.
	BodyXML
)

func (k BodyKind) String() string {
	switch k {
	case BodyEmpty:
		return "empty"
	case BodyText:
		return "text"
	case BodyBytes:
		return "bytes"
	case BodyJSON:
		return "json"
	case BodyXML:
		return "xml"
	}
	return fmt.Sprintf("body(%d)", int(k))
}

// Body is a tagged request or response payload. The zero value is the
// empty body.
type Body struct {
	kind BodyKind
	data []byte
}

// EmptyBody returns the absent payload.
func EmptyBody() Body { return Body{} }

// TextBody wraps a plain text payload.
func TextBody(s string) Body { return Body{kind: BodyText, data: []byte(s)} }

// BytesBody wraps an opaque binary payload.
func BytesBody(b []byte) Body { return Body{kind: BodyBytes, data: b} }

// JSONBody wraps an encoded JSON document.
func JSONBody(b []byte) Body { return Body{kind: BodyJSON, data: b} }

// XMLBody wraps an encoded XML document.
func XMLBody(b []byte) Body { return Body{kind: BodyXML, data: b} }

// Kind returns the payload variant.
func (b Body) Kind() BodyKind { return b.kind }

// IsEmpty reports whether there is no payload.
func (b Body) IsEmpty() bool { return b.kind == BodyEmpty || len(b.data) == 0 }

// Bytes returns the payload as one contiguous buffer, for hashing and
// transmission. BytesBody(b.Bytes()) is the identity on binary bodies.
func (b Body) Bytes() []byte { return b.data }

// Text returns the payload decoded as text.
func (b Body) Text() string { return string(b.data) }
