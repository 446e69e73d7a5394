package credentials

import (
	"context"
	"errors"
	"time"
)

// Credentials is an immutable set of AWS credentials.
type Credentials struct {
	// AccessKeyID is the AWS access key ID.
	AccessKeyID string

	// SecretAccessKey is the AWS secret access key.
	SecretAccessKey string

	// SessionToken is the session token for temporary credentials,
	// empty for long-lived keys.
	SessionToken string

	// Source names the provider the credentials came from.
	Source string

	// CanExpire states whether the credentials expire at all.
	// Expires is only meaningful when it is set.
	CanExpire bool

	// Expires is the instant the credentials stop being valid.
	Expires time.Time
}

// HasKeys reports whether both key parts are present.
func (c Credentials) HasKeys() bool {
	return c.AccessKeyID != "" && c.SecretAccessKey != ""
}

// ExpiringWithin reports whether the credentials expire within d.
// Non-expiring credentials never do.
func (c Credentials) ExpiringWithin(d time.Duration) bool {
	return c.CanExpire && time.Until(c.Expires) <= d
}

// ErrNoCredentials is returned when a provider has nothing to offer,
// letting a Chain fall through to the next provider.
var ErrNoCredentials = errors.New("no credentials available")

// Provider yields credentials on demand. Implementations are safe for
// concurrent use.
type Provider interface {
	// Fetch returns credentials, or an error when the source cannot
	// serve any. Expiring credentials are still valid at return time.
	Fetch(ctx context.Context) (Credentials, error)
}
