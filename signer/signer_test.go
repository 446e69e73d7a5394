package signer

import (
	"encoding/hex"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zalando/awskit/credentials"
)

var testCredentials = credentials.Credentials{
	AccessKeyID:     "AKIDEXAMPLE",
	SecretAccessKey: "wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY",
}

var testTime = time.Date(2015, 8, 30, 12, 36, 0, 0, time.UTC)

func TestEmptyBodyDigest(t *testing.T) {
	assert.Equal(t, EmptyBodySHA256, HashSHA256Hex(nil))
	assert.Equal(t, EmptyBodySHA256, HashSHA256Hex([]byte{}))
}

func TestDeriveKey(t *testing.T) {
	// worked example from the AWS SigV4 documentation
	st := NewSigningTime(testTime)
	key := deriveKey(testCredentials.SecretAccessKey, "iam", "us-east-1", st)
	assert.Equal(t, "c4afb1cc5771d871763a393e44b703571b55cc28424d1a5e86da6ed3c154a4b9", hex.EncodeToString(key))
}

func TestGetVanillaReferenceVector(t *testing.T) {
	// get-vanilla case of the AWS signature test suite
	s := New("us-east-1", "service", "")
	st := NewSigningTime(testTime)

	header := http.Header{}
	header.Set("X-Amz-Date", st.TimeFormat())
	signedHeaders, canonicalHeaders := canonicalizeHeaders("example.amazonaws.com", header)
	require.Equal(t, "host;x-amz-date", signedHeaders)

	canonical := buildCanonicalRequest("GET", "/", "", canonicalHeaders, signedHeaders, EmptyBodySHA256)
	assert.Equal(t, strings.Join([]string{
		"GET",
		"/",
		"",
		"host:example.amazonaws.com",
		"x-amz-date:20150830T123600Z",
		"",
		"host;x-amz-date",
		EmptyBodySHA256,
	}, "\n"), canonical)

	toSign := s.buildStringToSign(&st, s.credentialScope(st), canonical)
	assert.Equal(t,
		"5fa00fa31553b73ebf1942676e86291e8372ff2a2260956d9b8aae1d763fbf31",
		s.signature(testCredentials, st, toSign))
}

func TestEscapePath(t *testing.T) {
	for _, tt := range []struct {
		path string
		want string
	}{
		{"", "/"},
		{"/", "/"},
		{"/a/b", "/a/b"},
		{"/a b", "/a%20b"},
		{"/a+b", "/a%2Bb"},
		{"/ünïcode", "/%C3%BCn%C3%AFcode"},
	} {
		assert.Equal(t, tt.want, EscapePath(tt.path), "path %q", tt.path)
	}
}

func TestSignHeaders(t *testing.T) {
	s := New("us-east-1", "dynamodb", "")
	req, err := http.NewRequest("POST", "https://dynamodb.us-east-1.amazonaws.com/", nil)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-amz-json-1.0")
	req.Header.Set("X-Amz-Target", "DynamoDB_20120810.ListTables")

	body := []byte(`{}`)
	s.SignHeaders(req, body, testCredentials, testTime)

	assert.Equal(t, "20150830T123600Z", req.Header.Get("X-Amz-Date"))
	assert.Equal(t, HashSHA256Hex(body), req.Header.Get("X-Amz-Content-Sha256"))
	assert.Equal(t, "dynamodb.us-east-1.amazonaws.com", req.Host)

	auth := req.Header.Get("Authorization")
	require.True(t, strings.HasPrefix(auth, "AWS4-HMAC-SHA256 Credential=AKIDEXAMPLE/20150830/us-east-1/dynamodb/aws4_request, "), auth)
	assert.Contains(t, auth, "SignedHeaders=content-type;host;x-amz-content-sha256;x-amz-date;x-amz-target, ")
}

func TestSignedHeaderListSorted(t *testing.T) {
	header := http.Header{}
	header.Set("Zulu", "1")
	header.Set("alpha", "2")
	header.Set("X-Amz-Date", "20150830T123600Z")
	header.Set("Authorization", "should not sign")

	signed, canonical := canonicalizeHeaders("example.com", header)
	assert.Equal(t, "alpha;host;x-amz-date;zulu", signed)
	assert.NotContains(t, canonical, "authorization")
}

func TestHeaderValueTrimming(t *testing.T) {
	header := http.Header{}
	header.Set("X-Test", "  a  b  ")

	_, canonical := canonicalizeHeaders("example.com", header)
	assert.Contains(t, canonical, "x-test:a  b\n")
}

func TestResignDeterministic(t *testing.T) {
	s := New("eu-central-1", "sqs", "")
	req, err := http.NewRequest("GET", "https://sqs.eu-central-1.amazonaws.com/123/queue", nil)
	require.NoError(t, err)

	s.SignHeaders(req, nil, testCredentials, testTime)
	first := req.Header.Get("Authorization")
	s.SignHeaders(req, nil, testCredentials, testTime)
	assert.Equal(t, first, req.Header.Get("Authorization"))
}

func TestS3UnsignedPayload(t *testing.T) {
	s := New("us-east-1", "s3", "")
	req, err := http.NewRequest("HEAD", "https://s3.us-east-1.amazonaws.com/bucket", nil)
	require.NoError(t, err)

	s.SignHeaders(req, nil, testCredentials, testTime)
	assert.Equal(t, UnsignedPayload, req.Header.Get("X-Amz-Content-Sha256"))
}

func TestSessionTokenSigned(t *testing.T) {
	creds := credentials.Credentials{
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "secret",
		SessionToken:    "the-token",
	}
	s := New("us-east-1", "sts", "")
	req, err := http.NewRequest("POST", "https://sts.us-east-1.amazonaws.com/", nil)
	require.NoError(t, err)

	s.SignHeaders(req, nil, creds, testTime)
	assert.Equal(t, "the-token", req.Header.Get("X-Amz-Security-Token"))
	assert.Contains(t, req.Header.Get("Authorization"), "x-amz-security-token")
}

func TestPresignURL(t *testing.T) {
	s := New("us-east-1", "s3", "")
	u, err := url.Parse("https://bucket.s3.us-east-1.amazonaws.com/key?versionId=3")
	require.NoError(t, err)

	signed := s.PresignURL("GET", u, nil, testCredentials, time.Hour, testTime)

	parsed, err := url.Parse(signed)
	require.NoError(t, err)
	q := parsed.Query()
	assert.Equal(t, SigningAlgorithm, q.Get("X-Amz-Algorithm"))
	assert.Equal(t, "AKIDEXAMPLE/20150830/us-east-1/s3/aws4_request", q.Get("X-Amz-Credential"))
	assert.Equal(t, "20150830T123600Z", q.Get("X-Amz-Date"))
	assert.Equal(t, "3600", q.Get("X-Amz-Expires"))
	assert.Equal(t, "host", q.Get("X-Amz-SignedHeaders"))
	assert.Equal(t, "3", q.Get("versionId"))
	assert.Len(t, q.Get("X-Amz-Signature"), 64)

	// the signature is appended last
	assert.Contains(t, parsed.RawQuery, "&X-Amz-Signature="+q.Get("X-Amz-Signature"))
	// query parts before the signature are sorted
	parts := strings.Split(strings.TrimSuffix(parsed.RawQuery, "&X-Amz-Signature="+q.Get("X-Amz-Signature")), "&")
	for i := 1; i < len(parts); i++ {
		assert.LessOrEqual(t, parts[i-1], parts[i])
	}
}

func TestKeyCacheRollsOverPerDay(t *testing.T) {
	c := newKeyCache()
	st := NewSigningTime(testTime)
	k1 := c.signingKey(testCredentials, "service", "us-east-1", st)
	k2 := c.signingKey(testCredentials, "service", "us-east-1", st)
	assert.Equal(t, k1, k2)

	next := NewSigningTime(testTime.Add(24 * time.Hour))
	k3 := c.signingKey(testCredentials, "service", "us-east-1", next)
	assert.NotEqual(t, k1, k3)
}
