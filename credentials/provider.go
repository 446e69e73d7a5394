package credentials

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Static wraps fixed credentials in a Provider.
type Static struct {
	Credentials Credentials
}

func (s Static) Fetch(context.Context) (Credentials, error) {
	if !s.Credentials.HasKeys() {
		return Credentials{}, ErrNoCredentials
	}
	c := s.Credentials
	c.Source = "static"
	return c, nil
}

// Env reads AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and the optional
// AWS_SESSION_TOKEN from the process environment.
type Env struct{}

func (Env) Fetch(context.Context) (Credentials, error) {
	c := Credentials{
		AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
		Source:          "environment",
	}
	if !c.HasKeys() {
		return Credentials{}, ErrNoCredentials
	}
	return c, nil
}

// SharedFile reads the shared INI credentials file. An empty Path
// falls back to AWS_SHARED_CREDENTIALS_FILE, then ~/.aws/credentials;
// an empty Profile falls back to AWS_PROFILE, then "default".
type SharedFile struct {
	Path    string
	Profile string
}

func (s SharedFile) Fetch(context.Context) (Credentials, error) {
	path := s.Path
	if path == "" {
		path = os.Getenv("AWS_SHARED_CREDENTIALS_FILE")
	}
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Credentials{}, ErrNoCredentials
		}
		path = filepath.Join(home, ".aws", "credentials")
	}

	profile := s.Profile
	if profile == "" {
		profile = os.Getenv("AWS_PROFILE")
	}
	if profile == "" {
		profile = "default"
	}

	f, err := os.Open(path)
	if err != nil {
		return Credentials{}, ErrNoCredentials
	}
	defer f.Close()

	section, err := readProfile(f, profile)
	if err != nil {
		return Credentials{}, err
	}

	c := Credentials{
		AccessKeyID:     section["aws_access_key_id"],
		SecretAccessKey: section["aws_secret_access_key"],
		SessionToken:    section["aws_session_token"],
		Source:          "shared file " + path,
	}
	if !c.HasKeys() {
		return Credentials{}, fmt.Errorf("profile %q in %s: %w", profile, path, ErrNoCredentials)
	}
	return c, nil
}

// readProfile scans the INI stream for the named section and returns
// its key/value pairs, keys lowercased.
func readProfile(f *os.File, profile string) (map[string]string, error) {
	section := make(map[string]string)
	inSection := false

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			inSection = strings.TrimSpace(line[1:len(line)-1]) == profile
			continue
		}
		if !inSection {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		section[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}
	return section, scanner.Err()
}

// Chain tries each provider in order, returning the first success.
type Chain struct {
	Providers []Provider
}

// DefaultChain is the resolution order of a plain client: environment,
// shared file, ECS task metadata, EC2 instance metadata.
func DefaultChain() *Chain {
	return &Chain{Providers: []Provider{
		Env{},
		SharedFile{},
		NewECS(),
		NewIMDS(),
	}}
}

func (c *Chain) Fetch(ctx context.Context) (Credentials, error) {
	var errs []error
	for _, p := range c.Providers {
		creds, err := p.Fetch(ctx)
		if err == nil {
			return creds, nil
		}
		errs = append(errs, err)
		if ctx.Err() != nil {
			return Credentials{}, ctx.Err()
		}
	}
	return Credentials{}, fmt.Errorf("every credential provider failed: %w", joinErrors(errs))
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return ErrNoCredentials
	}
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}
