package protocol

// Param binds one input shape member to a wire location. Get returns
// the member's wire string form; the second return is false when the
// member is unset and the parameter is skipped.
type Param struct {
	Name string
	Get  func(input any) (string, bool)
}

// HeaderBinding assigns a response header to an output shape member.
// Header names match case-insensitively.
type HeaderBinding struct {
	Name string
	Set  func(output any, value string)
}

// Operation describes one service operation to the generic encoder and
// decoder. Generated bindings supply these descriptors; the runtime
// never reflects over wire locations itself.
type Operation struct {
	// Name of the operation, e.g. "DescribeInstances".
	Name string

	// Method is the HTTP method.
	Method string

	// Path is the request path template. Placeholders of the form
	// {name} substitute the matching path parameter with slashes
	// escaped; {name+} keeps slashes verbatim.
	Path string

	// HeaderParams, QueryParams and PathParams pluck input members
	// into their wire locations.
	HeaderParams []Param
	QueryParams  []Param
	PathParams   []Param

	// XMLNamespace, when set, becomes the xmlns attribute of the
	// request document root for the rest-xml dialect.
	XMLNamespace string

	// Payload, when set, yields the designated payload member as the
	// request body instead of encoding the whole input shape.
	Payload func(input any) Body

	// RawPayload marks the output shape as carrying the raw response
	// bytes; SetRawPayload receives them.
	RawPayload    bool
	SetRawPayload func(output any, body []byte)

	// ResponseHeaders merge response headers into the output shape.
	ResponseHeaders []HeaderBinding

	// SetStatusCode, when set, receives the response status code.
	SetStatusCode func(output any, status int)
}
