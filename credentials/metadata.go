package credentials

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	ecsEndpoint  = "http://169.254.170.2"
	imdsEndpoint = "http://169.254.169.254"

	imdsTokenPath = "/latest/api/token"
	imdsRolePath  = "/latest/meta-data/iam/security-credentials/"

	imdsTokenTTLHeader = "X-aws-ec2-metadata-token-ttl-seconds"
	imdsTokenHeader    = "X-aws-ec2-metadata-token"
	imdsTokenTTL       = "21600"

	metadataTimeout = 2 * time.Second
)

// ECS fetches credentials from the container credential endpoint
// announced through AWS_CONTAINER_CREDENTIALS_RELATIVE_URI.
type ECS struct {
	// Endpoint overrides the well-known container metadata address.
	Endpoint string

	Client *http.Client
}

func NewECS() *ECS {
	return &ECS{
		Endpoint: ecsEndpoint,
		Client:   &http.Client{Timeout: metadataTimeout},
	}
}

func (p *ECS) Fetch(ctx context.Context) (Credentials, error) {
	relative := os.Getenv("AWS_CONTAINER_CREDENTIALS_RELATIVE_URI")
	if relative == "" {
		return Credentials{}, ErrNoCredentials
	}

	body, err := p.get(ctx, p.Endpoint+relative, "")
	if err != nil {
		return Credentials{}, fmt.Errorf("ecs metadata: %w", err)
	}
	return parseCredentialDocument(body, "ecs metadata")
}

func (p *ECS) get(ctx context.Context, url, token string) ([]byte, error) {
	return metadataRoundTrip(ctx, p.Client, "GET", url, token)
}

// IMDS fetches credentials from the EC2 instance metadata service. It
// first runs the IMDSv2 token exchange; any token error degrades to
// the tokenless IMDSv1 flow.
type IMDS struct {
	// Endpoint overrides the well-known instance metadata address.
	Endpoint string

	Client *http.Client
}

func NewIMDS() *IMDS {
	return &IMDS{
		Endpoint: imdsEndpoint,
		Client:   &http.Client{Timeout: metadataTimeout},
	}
}

func (p *IMDS) Fetch(ctx context.Context) (Credentials, error) {
	token, err := p.sessionToken(ctx)
	if err != nil {
		// IMDSv1 fallback
		token = ""
	}

	role, err := metadataRoundTrip(ctx, p.Client, "GET", p.Endpoint+imdsRolePath, token)
	if err != nil {
		return Credentials{}, fmt.Errorf("imds role name: %w", err)
	}

	doc, err := metadataRoundTrip(ctx, p.Client, "GET", p.Endpoint+imdsRolePath+strings.TrimSpace(string(role)), token)
	if err != nil {
		return Credentials{}, fmt.Errorf("imds role credentials: %w", err)
	}
	return parseCredentialDocument(doc, "ec2 instance metadata")
}

func (p *IMDS) sessionToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "PUT", p.Endpoint+imdsTokenPath, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set(imdsTokenTTLHeader, imdsTokenTTL)

	rsp, err := p.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer rsp.Body.Close()
	if rsp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request status %d", rsp.StatusCode)
	}
	token, err := io.ReadAll(rsp.Body)
	if err != nil {
		return "", err
	}
	return string(token), nil
}

func metadataRoundTrip(ctx context.Context, client *http.Client, method, url, token string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set(imdsTokenHeader, token)
	}

	rsp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer rsp.Body.Close()
	if rsp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: status %d", url, rsp.StatusCode)
	}
	return io.ReadAll(rsp.Body)
}

// parseCredentialDocument decodes the JSON credential document shared
// by the ECS and IMDS endpoints.
func parseCredentialDocument(doc []byte, source string) (Credentials, error) {
	body := string(doc)
	c := Credentials{
		AccessKeyID:     gjson.Get(body, "AccessKeyId").String(),
		SecretAccessKey: gjson.Get(body, "SecretAccessKey").String(),
		SessionToken:    gjson.Get(body, "Token").String(),
		Source:          source,
	}
	if !c.HasKeys() {
		return Credentials{}, fmt.Errorf("%s: malformed credential document", source)
	}
	if expiration := gjson.Get(body, "Expiration").String(); expiration != "" {
		t, err := time.Parse(time.RFC3339, expiration)
		if err != nil {
			return Credentials{}, fmt.Errorf("%s: bad expiration %q: %w", source, expiration, err)
		}
		if !t.After(time.Now()) {
			return Credentials{}, fmt.Errorf("%s: credentials already expired at %s", source, expiration)
		}
		c.CanExpire = true
		c.Expires = t
	}
	return c, nil
}
