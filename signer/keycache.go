package signer

import (
	"strings"
	"sync"
	"time"

	"github.com/zalando/awskit/credentials"
)

type derivedKey struct {
	accessKey string
	date      time.Time
	key       []byte
}

// keyCache memoizes the derived signing key per region/service. Keys
// roll over with the access key or the signing day.
type keyCache struct {
	mutex  sync.RWMutex
	values map[string]derivedKey
}

func newKeyCache() *keyCache {
	return &keyCache{values: make(map[string]derivedKey)}
}

func lookupKey(service, region string) string {
	var s strings.Builder
	s.Grow(len(region) + len(service) + 1)
	s.WriteString(region)
	s.WriteRune('/')
	s.WriteString(service)
	return s.String()
}

func (c *keyCache) get(key string, creds credentials.Credentials, t time.Time) ([]byte, bool) {
	entry, ok := c.values[key]
	if ok && entry.accessKey == creds.AccessKeyID && isSameDay(t, entry.date) {
		return entry.key, true
	}
	return nil, false
}

func (c *keyCache) signingKey(creds credentials.Credentials, service, region string, t SigningTime) []byte {
	key := lookupKey(service, region)
	c.mutex.RLock()
	if k, ok := c.get(key, creds, t.Time); ok {
		c.mutex.RUnlock()
		return k
	}
	c.mutex.RUnlock()

	c.mutex.Lock()
	defer c.mutex.Unlock()
	if k, ok := c.get(key, creds, t.Time); ok {
		return k
	}
	k := deriveKey(creds.SecretAccessKey, service, region, t)
	c.values[key] = derivedKey{
		accessKey: creds.AccessKeyID,
		date:      t.Time,
		key:       k,
	}
	return k
}

// deriveKey runs the SigV4 key chain date -> region -> service -> aws4_request.
func deriveKey(secret, service, region string, t SigningTime) []byte {
	kDate := HMACSHA256([]byte("AWS4"+secret), []byte(t.ShortTimeFormat()))
	kRegion := HMACSHA256(kDate, []byte(region))
	kService := HMACSHA256(kRegion, []byte(service))
	return HMACSHA256(kService, []byte("aws4_request"))
}
