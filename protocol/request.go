package protocol

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/zalando/awskit/config"
)

// BuildRequest turns an operation descriptor and its typed input into
// an HTTP request against the service endpoint. The returned byte
// slice is the request body, handed out separately for signing.
func BuildRequest(cfg *config.ServiceConfig, op *Operation, input any) (*http.Request, []byte, error) {
	endpoint, err := cfg.ResolveEndpoint()
	if err != nil {
		return nil, nil, err
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, nil, &config.ConfigurationError{Message: "invalid endpoint " + endpoint}
	}

	// keep the escaped form authoritative, the decoded Path is only
	// informational for the URL type
	u.RawPath = expandPath(op, input)
	u.Path, err = url.PathUnescape(u.RawPath)
	if err != nil {
		return nil, nil, &config.ConfigurationError{Message: "invalid request path " + u.RawPath}
	}
	u.RawQuery = encodeQueryParams(op, input)

	body, contentType, err := encodeBody(cfg, op, input)
	if err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequest(op.Method, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, nil, &config.ConfigurationError{Message: "invalid request URL: " + err.Error()}
	}
	req.ContentLength = int64(len(body))

	for _, p := range op.HeaderParams {
		if v, ok := p.Get(input); ok {
			req.Header.Set(p.Name, v)
		}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if cfg.Protocol == config.JSON && cfg.TargetPrefix != "" {
		req.Header.Set("X-Amz-Target", cfg.TargetPrefix+"."+op.Name)
	}
	return req, body, nil
}

// expandPath substitutes {name} and {name+} placeholders. The plus
// form keeps slashes in the value unescaped.
func expandPath(op *Operation, input any) string {
	path := op.Path
	if path == "" {
		path = "/"
	}
	for _, p := range op.PathParams {
		v, ok := p.Get(input)
		if !ok {
			continue
		}
		path = strings.ReplaceAll(path, "{"+p.Name+"+}", escapePathValue(v, true))
		path = strings.ReplaceAll(path, "{"+p.Name+"}", escapePathValue(v, false))
	}
	return path
}

func escapePathValue(v string, keepSlash bool) string {
	if !keepSlash {
		return url.PathEscape(v)
	}
	segments := strings.Split(v, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

func encodeQueryParams(op *Operation, input any) string {
	values := url.Values{}
	for _, p := range op.QueryParams {
		if v, ok := p.Get(input); ok {
			values.Set(p.Name, v)
		}
	}
	return values.Encode()
}

func encodeBody(cfg *config.ServiceConfig, op *Operation, input any) ([]byte, string, error) {
	switch cfg.Protocol {
	case config.JSON, config.RESTJSON:
		contentType := "application/x-amz-json-1.1"
		if cfg.JSONVersion != "" {
			contentType = "application/x-amz-json-" + cfg.JSONVersion
		}
		if op.Payload != nil {
			return op.Payload(input).Bytes(), contentType, nil
		}
		if input == nil {
			return nil, contentType, nil
		}
		b, err := json.Marshal(input)
		if err != nil {
			return nil, "", fmt.Errorf("encoding %s input: %w", op.Name, err)
		}
		return b, contentType, nil

	case config.RESTXML:
		if op.Payload != nil {
			return op.Payload(input).Bytes(), "application/xml", nil
		}
		if input == nil {
			return nil, "application/xml", nil
		}
		b, err := xml.Marshal(input)
		if err != nil {
			return nil, "", fmt.Errorf("encoding %s input: %w", op.Name, err)
		}
		if op.XMLNamespace != "" {
			b = insertNamespace(b, op.XMLNamespace)
		}
		return b, "application/xml", nil

	case config.Query, config.EC2:
		form, err := queryEncode(input, op.Name, cfg.APIVersion, cfg.Protocol == config.EC2)
		if err != nil {
			return nil, "", fmt.Errorf("encoding %s input: %w", op.Name, err)
		}
		return []byte(form), "application/x-www-form-urlencoded; charset=utf-8", nil
	}
	return nil, "", &config.ConfigurationError{Message: "unknown protocol " + cfg.Protocol.String()}
}

// insertNamespace adds an xmlns attribute to the document's root
// element.
func insertNamespace(doc []byte, ns string) []byte {
	i := bytes.IndexAny(doc, "> ")
	if i < 0 || doc[0] != '<' {
		return doc
	}
	var b bytes.Buffer
	b.Grow(len(doc) + len(ns) + 10)
	b.Write(doc[:i])
	b.WriteString(` xmlns="`)
	b.WriteString(ns)
	b.WriteString(`"`)
	b.Write(doc[i:])
	return b.Bytes()
}
