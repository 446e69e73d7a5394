package awstest

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerConversation(t *testing.T) {
	server, err := NewServer(func(req *Request) (*Response, error) {
		assert.Equal(t, "PUT", req.Method)
		assert.Equal(t, "/thing", req.URL)
		assert.Equal(t, "payload", string(req.Body))
		return &Response{Status: 201, Body: []byte("created")}, nil
	})
	require.NoError(t, err)
	defer server.Close()

	req, err := http.NewRequest("PUT", server.URL()+"/thing", strings.NewReader("payload"))
	require.NoError(t, err)
	rsp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer rsp.Body.Close()

	body, err := io.ReadAll(rsp.Body)
	require.NoError(t, err)
	assert.Equal(t, 201, rsp.StatusCode)
	assert.Equal(t, "created", string(body))
	assert.Empty(t, server.Errors())
}

func TestServerReadsPlainBody(t *testing.T) {
	server, err := NewServer(func(req *Request) (*Response, error) {
		return &Response{Status: 200, Body: []byte("echo:" + string(req.Body))}, nil
	})
	require.NoError(t, err)
	defer server.Close()

	rsp, err := http.Post(server.URL()+"/echo", "text/plain", strings.NewReader("hello"))
	require.NoError(t, err)
	defer rsp.Body.Close()

	body, err := io.ReadAll(rsp.Body)
	require.NoError(t, err)
	assert.Equal(t, "echo:hello", string(body))
	assert.Equal(t, 200, rsp.StatusCode)
}

func TestServerReadsChunkedBody(t *testing.T) {
	server, err := NewServer(func(req *Request) (*Response, error) {
		return &Response{Body: req.Body}, nil
	})
	require.NoError(t, err)
	defer server.Close()

	// an io.Reader without a known length forces chunked encoding
	req, err := http.NewRequest("POST", server.URL()+"/chunked", io.MultiReader(
		strings.NewReader("part one "), strings.NewReader("part two")))
	require.NoError(t, err)

	rsp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer rsp.Body.Close()

	body, err := io.ReadAll(rsp.Body)
	require.NoError(t, err)
	assert.Equal(t, "part one part two", string(body))
}

func awsChunk(payload string) string {
	signature := strings.Repeat("a", 64)
	return fmt.Sprintf("%x;chunk-signature=%s\r\n%s\r\n", len(payload), signature, payload)
}

func TestServerReadsAWSChunkedBody(t *testing.T) {
	server, err := NewServer(func(req *Request) (*Response, error) {
		return &Response{Body: req.Body}, nil
	})
	require.NoError(t, err)
	defer server.Close()

	encoded := awsChunk("first;") + awsChunk("second") +
		"0;chunk-signature=" + strings.Repeat("0", 64) + "\r\n"

	req, err := http.NewRequest("PUT", server.URL()+"/object", bytes.NewReader([]byte(encoded)))
	require.NoError(t, err)
	req.Header.Set("Content-Encoding", "aws-chunked")

	rsp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer rsp.Body.Close()

	body, err := io.ReadAll(rsp.Body)
	require.NoError(t, err)
	assert.Equal(t, "first;second", string(body))
}

func TestAWSChunkedMalformed(t *testing.T) {
	for _, tt := range []struct {
		name    string
		encoded string
	}{
		{"missing signature", "5\r\nhello\r\n0\r\n"},
		{"short signature", "5;chunk-signature=abc\r\nhello\r\n"},
		{"bad size", "zz;chunk-signature=" + strings.Repeat("a", 64) + "\r\nhello\r\n"},
		{"bad hex signature", "5;chunk-signature=" + strings.Repeat("g", 64) + "\r\nhello\r\n"},
		{"truncated chunk", "ff;chunk-signature=" + strings.Repeat("a", 64) + "\r\nhello"},
		{"no terminator", awsChunk("hello")},
	} {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readAWSChunked(strings.NewReader(tt.encoded))
			assert.ErrorIs(t, err, ErrCorruptChunkedData)
		})
	}
}

func TestAWSChunkedEmptyPayload(t *testing.T) {
	payload, err := readAWSChunked(strings.NewReader("0;chunk-signature=" + strings.Repeat("0", 64) + "\r\n"))
	require.NoError(t, err)
	assert.Empty(t, payload)
}
