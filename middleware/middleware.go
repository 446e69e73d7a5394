/*
Package middleware defines the transformer chain applied around every
AWS request: middlewares see the outgoing request before signing, in
configuration order, and the incoming response before its body is
decoded, in reverse order. The first failing middleware aborts the exchange.
*/
package middleware

import "net/http"

// Context identifies the exchange a middleware is running for.
type Context struct {
	// RequestID is the client's process-monotone request counter.
	RequestID uint64

	// Service is the AWS service name.
	Service string

	// Operation is the operation name.
	Operation string
}

// Middleware transforms requests and responses. Request runs before
// the request is signed; middlewares must not touch signed headers
// afterwards. Response runs on the HTTP response before its body is
// decoded.
type Middleware interface {
	Request(req *http.Request, ctx *Context) error
	Response(rsp *http.Response, ctx *Context) error
}

// Chain is an ordered middleware list.
type Chain []Middleware

// Request runs all request hooks in configuration order, stopping on
// the first error.
func (c Chain) Request(req *http.Request, ctx *Context) error {
	for _, m := range c {
		if err := m.Request(req, ctx); err != nil {
			return err
		}
	}
	return nil
}

// Response runs all response hooks in reverse configuration order,
// stopping on the first error.
func (c Chain) Response(rsp *http.Response, ctx *Context) error {
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i].Response(rsp, ctx); err != nil {
			return err
		}
	}
	return nil
}

// HeaderSetter adds static headers to every outgoing request.
type HeaderSetter struct {
	Headers http.Header
}

func (h *HeaderSetter) Request(req *http.Request, _ *Context) error {
	for k, vv := range h.Headers {
		for _, v := range vv {
			req.Header.Set(k, v)
		}
	}
	return nil
}

func (h *HeaderSetter) Response(*http.Response, *Context) error { return nil }
