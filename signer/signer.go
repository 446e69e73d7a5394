package signer

import (
	"encoding/hex"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/zalando/awskit/credentials"
)

const (
	// SigningAlgorithm is the algorithm identifier emitted in the
	// Authorization header and presigned query.
	SigningAlgorithm = "AWS4-HMAC-SHA256"

	amzDateHeader          = "X-Amz-Date"
	amzContentSHA256Header = "X-Amz-Content-Sha256"
	amzSecurityTokenHeader = "X-Amz-Security-Token"
	authorizationHeader    = "Authorization"
	hostHeader             = "host"
)

// Signer signs HTTP requests with AWS Signature Version 4 for one
// region and service. A Signer is safe for concurrent use.
type Signer struct {
	region      string
	serviceName string
	signingName string
	keys        *keyCache
}

// New returns a Signer for region and service. signingName is the
// service segment of the credential scope; it equals serviceName for
// most services.
func New(region, serviceName, signingName string) *Signer {
	if signingName == "" {
		signingName = serviceName
	}
	return &Signer{
		region:      region,
		serviceName: serviceName,
		signingName: signingName,
		keys:        newKeyCache(),
	}
}

// SignHeaders signs req in place: it sets X-Amz-Date, Host,
// X-Amz-Content-Sha256, X-Amz-Security-Token for session credentials,
// and finally Authorization. All headers present on the request are
// signed, except Authorization itself. Signing the same request again
// with the same clock reproduces the same bytes.
func (s *Signer) SignHeaders(req *http.Request, body []byte, creds credentials.Credentials, now time.Time) {
	st := NewSigningTime(now)

	host := req.Host
	if host == "" {
		host = req.URL.Host
	}
	req.Host = host

	req.Header.Set(amzDateHeader, st.TimeFormat())
	req.Header.Set(amzContentSHA256Header, s.bodyHash(req.Header.Get(amzContentSHA256Header), body))
	if creds.SessionToken != "" {
		req.Header.Set(amzSecurityTokenHeader, creds.SessionToken)
	}

	signedHeaders, canonicalHeaders := canonicalizeHeaders(host, req.Header)
	canonical := buildCanonicalRequest(
		req.Method,
		EscapePath(req.URL.Path),
		req.URL.RawQuery,
		canonicalHeaders,
		signedHeaders,
		req.Header.Get(amzContentSHA256Header),
	)

	scope := s.credentialScope(st)
	toSign := s.buildStringToSign(&st, scope, canonical)
	signature := s.signature(creds, st, toSign)

	req.Header.Set(authorizationHeader, buildAuthorizationHeader(
		creds.AccessKeyID+"/"+scope, signedHeaders, signature))
}

// PresignURL returns a copy of u carrying the signature in its query
// string, valid for the expires duration. Only the host header is
// signed. The query encoding matches the upstream AWS client
// byte-for-byte, including its non-canonical allowed character set.
func (s *Signer) PresignURL(method string, u *url.URL, body []byte, creds credentials.Credentials, expires time.Duration, now time.Time) string {
	st := NewSigningTime(now)
	scope := s.credentialScope(st)

	parts := []string{
		"X-Amz-Algorithm=" + SigningAlgorithm,
		"X-Amz-Credential=" + creds.AccessKeyID + "/" + scope,
		"X-Amz-Date=" + st.TimeFormat(),
		"X-Amz-Expires=" + strconv.Itoa(int(expires/time.Second)),
		"X-Amz-SignedHeaders=" + hostHeader,
	}
	if creds.SessionToken != "" {
		parts = append(parts, "X-Amz-Security-Token="+url.QueryEscape(creds.SessionToken))
	}
	if u.RawQuery != "" {
		parts = append(parts, strings.Split(u.RawQuery, "&")...)
	}
	sort.Strings(parts)
	query := escapeQuery(strings.Join(parts, "&"))

	canonical := buildCanonicalRequest(
		method,
		EscapePath(u.Path),
		query,
		hostHeader+":"+u.Host+"\n",
		hostHeader,
		s.bodyHash("", body),
	)
	toSign := s.buildStringToSign(&st, scope, canonical)
	signature := s.signature(creds, st, toSign)

	signed := *u
	signed.RawQuery = query + "&X-Amz-Signature=" + signature
	return signed.String()
}

// bodyHash applies the payload hash policy: an explicitly provided
// hash wins, S3 requests default to UNSIGNED-PAYLOAD, everything else
// hashes the body.
func (s *Signer) bodyHash(provided string, body []byte) string {
	if provided != "" {
		return provided
	}
	if s.serviceName == "s3" {
		return UnsignedPayload
	}
	if len(body) == 0 {
		return EmptyBodySHA256
	}
	return HashSHA256Hex(body)
}

func (s *Signer) credentialScope(st SigningTime) string {
	return strings.Join([]string{
		st.ShortTimeFormat(),
		s.region,
		s.signingName,
		"aws4_request",
	}, "/")
}

func (s *Signer) buildStringToSign(st *SigningTime, scope, canonicalRequest string) string {
	return strings.Join([]string{
		SigningAlgorithm,
		st.TimeFormat(),
		scope,
		HashSHA256Hex([]byte(canonicalRequest)),
	}, "\n")
}

func (s *Signer) signature(creds credentials.Credentials, st SigningTime, toSign string) string {
	key := s.keys.signingKey(creds, s.signingName, s.region, st)
	return hex.EncodeToString(HMACSHA256(key, []byte(toSign)))
}

// canonicalizeHeaders returns the semicolon-joined signed header list
// and the canonical header block. Names sort lowercased ascending;
// values are trimmed at both ends with inner whitespace preserved.
// Authorization never takes part in signing.
func canonicalizeHeaders(host string, header http.Header) (signedHeaders, canonicalHeaders string) {
	values := map[string][]string{hostHeader: {host}}
	names := []string{hostHeader}
	for k, v := range header {
		lower := strings.ToLower(k)
		if lower == "authorization" || lower == hostHeader {
			continue
		}
		if _, ok := values[lower]; ok {
			values[lower] = append(values[lower], v...)
			continue
		}
		names = append(names, lower)
		values[lower] = append([]string(nil), v...)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteByte(':')
		for i, v := range values[name] {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strings.TrimSpace(v))
		}
		b.WriteByte('\n')
	}
	return strings.Join(names, ";"), b.String()
}

func buildCanonicalRequest(method, path, query, canonicalHeaders, signedHeaders, bodyHash string) string {
	return strings.Join([]string{
		strings.ToUpper(method),
		path,
		query,
		canonicalHeaders,
		signedHeaders,
		bodyHash,
	}, "\n")
}

func buildAuthorizationHeader(credential, signedHeaders, signature string) string {
	var b strings.Builder
	b.Grow(len(SigningAlgorithm) + len(credential) + len(signedHeaders) + len(signature) + 48)
	b.WriteString(SigningAlgorithm)
	b.WriteString(" Credential=")
	b.WriteString(credential)
	b.WriteString(", SignedHeaders=")
	b.WriteString(signedHeaders)
	b.WriteString(", Signature=")
	b.WriteString(signature)
	return b.String()
}
