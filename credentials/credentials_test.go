package credentials

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvProvider(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIDENV")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secretenv")
	t.Setenv("AWS_SESSION_TOKEN", "tokenenv")

	creds, err := Env{}.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKIDENV", creds.AccessKeyID)
	assert.Equal(t, "secretenv", creds.SecretAccessKey)
	assert.Equal(t, "tokenenv", creds.SessionToken)
	assert.False(t, creds.CanExpire)
}

func TestEnvProviderMissing(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")

	_, err := Env{}.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestSharedFileProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials")
	content := `
# comment
[default]
aws_access_key_id = AKIDDEFAULT
aws_secret_access_key = defaultsecret

[other]
aws_access_key_id=AKIDOTHER
aws_secret_access_key=othersecret
aws_session_token=othertoken
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	creds, err := SharedFile{Path: path}.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKIDDEFAULT", creds.AccessKeyID)

	creds, err = SharedFile{Path: path, Profile: "other"}.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKIDOTHER", creds.AccessKeyID)
	assert.Equal(t, "othertoken", creds.SessionToken)
}

func TestSharedFileProfileFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials")
	require.NoError(t, os.WriteFile(path, []byte("[staging]\naws_access_key_id = AKIDSTAGING\naws_secret_access_key = s\n"), 0600))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", path)
	t.Setenv("AWS_PROFILE", "staging")

	creds, err := SharedFile{}.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKIDSTAGING", creds.AccessKeyID)
}

type providerFunc func(ctx context.Context) (Credentials, error)

func (f providerFunc) Fetch(ctx context.Context) (Credentials, error) { return f(ctx) }

func TestChainShortCircuits(t *testing.T) {
	calls := 0
	chain := &Chain{Providers: []Provider{
		providerFunc(func(context.Context) (Credentials, error) {
			calls++
			return Credentials{}, ErrNoCredentials
		}),
		Static{Credentials: Credentials{AccessKeyID: "AKID", SecretAccessKey: "s"}},
		providerFunc(func(context.Context) (Credentials, error) {
			t.Fatal("provider after success must not run")
			return Credentials{}, nil
		}),
	}}

	creds, err := chain.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKID", creds.AccessKeyID)
	assert.Equal(t, 1, calls)
}

func TestChainAllFail(t *testing.T) {
	chain := &Chain{Providers: []Provider{
		providerFunc(func(context.Context) (Credentials, error) {
			return Credentials{}, errors.New("boom")
		}),
		providerFunc(func(context.Context) (Credentials, error) {
			return Credentials{}, ErrNoCredentials
		}),
	}}

	_, err := chain.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "every credential provider failed")
	assert.Contains(t, err.Error(), "boom")
}

func TestExpiringWithin(t *testing.T) {
	c := Credentials{CanExpire: true, Expires: time.Now().Add(time.Minute)}
	assert.True(t, c.ExpiringWithin(2*time.Minute))
	assert.False(t, c.ExpiringWithin(10*time.Second))
	assert.False(t, Credentials{}.ExpiringWithin(time.Hour))
}
