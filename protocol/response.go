package protocol

import (
	"encoding/json"
	"encoding/xml"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/zalando/awskit/config"
)

// DecodeResponse consumes the HTTP response. On 2xx it fills the
// output shape from the body, response headers and status code; on any
// other status it decodes the dialect's error format into the client
// error taxonomy and returns it.
func DecodeResponse(cfg *config.ServiceConfig, op *Operation, rsp *http.Response, output any) error {
	body, err := io.ReadAll(rsp.Body)
	rsp.Body.Close()
	if err != nil {
		return &DecodeError{Operation: op.Name, Err: err}
	}

	if rsp.StatusCode < 200 || rsp.StatusCode > 299 {
		return decodeError(cfg, rsp, body)
	}
	if output == nil {
		return nil
	}

	if op.RawPayload && op.SetRawPayload != nil {
		op.SetRawPayload(output, body)
	} else if len(body) > 0 {
		if err := decodeBody(cfg, body, output); err != nil {
			return &DecodeError{Operation: op.Name, RawBody: body, Err: err}
		}
	}

	for _, h := range op.ResponseHeaders {
		if v := rsp.Header.Get(h.Name); v != "" {
			h.Set(output, v)
		}
	}
	if op.SetStatusCode != nil {
		op.SetStatusCode(output, rsp.StatusCode)
	}
	return nil
}

func decodeBody(cfg *config.ServiceConfig, body []byte, output any) error {
	switch cfg.Protocol {
	case config.JSON, config.RESTJSON:
		return json.Unmarshal(body, output)
	default:
		return xml.Unmarshal(body, output)
	}
}

// xmlError matches both /ErrorResponse/Error/{Code,Message} of the
// query dialect and the bare /Error/{Code,Message} of rest-xml.
type xmlError struct {
	Code    string `xml:"Code"`
	Message string `xml:"Message"`
	Error   struct {
		Code    string `xml:"Code"`
		Message string `xml:"Message"`
	} `xml:"Error"`
}

// decodeError extracts the error code and message per dialect and maps
// them onto the error taxonomy: configured service errors first, then
// the common client and server codes, then a generic response error.
func decodeError(cfg *config.ServiceConfig, rsp *http.Response, body []byte) error {
	var code, message string

	switch cfg.Protocol {
	case config.Query, config.RESTXML, config.EC2:
		var e xmlError
		if err := xml.Unmarshal(body, &e); err == nil {
			code, message = e.Error.Code, e.Error.Message
			if code == "" {
				code, message = e.Code, e.Message
			}
		}
	case config.RESTJSON:
		code = rsp.Header.Get("x-amzn-ErrorType")
		if i := strings.IndexByte(code, ':'); i >= 0 {
			code = code[:i]
		}
		if code == "" {
			// some services skip the header and only send __type
			code = gjson.GetBytes(body, "__type").String()
			if i := strings.IndexByte(code, '#'); i >= 0 {
				code = code[i+1:]
			}
		}
		message = jsonMessageField(body)
	case config.JSON:
		code = gjson.GetBytes(body, "__type").String()
		if i := strings.IndexByte(code, '#'); i >= 0 {
			code = code[i+1:]
		}
		message = jsonMessageField(body)
	}

	if code == "" {
		return &UnhandledError{StatusCode: rsp.StatusCode, RawBody: body}
	}
	code = strings.TrimSuffix(code, "Exception")

	for _, build := range cfg.PossibleErrorTypes {
		if err, ok := build(code, message, rsp.StatusCode); ok {
			return err
		}
	}
	if clientErrorCodes[code] {
		return &ClientError{Code: code, Message: message, StatusCode: rsp.StatusCode}
	}
	if serverErrorCodes[code] {
		return &ServerError{Code: code, Message: message, StatusCode: rsp.StatusCode}
	}
	return &ResponseError{Code: code, Message: message, StatusCode: rsp.StatusCode}
}

// jsonMessageField picks the top level field named "message" from an
// error body, whatever its casing.
func jsonMessageField(body []byte) string {
	var message string
	gjson.ParseBytes(body).ForEach(func(key, value gjson.Result) bool {
		if strings.EqualFold(key.String(), "message") {
			message = value.String()
			return false
		}
		return true
	})
	return message
}
