package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

const (
	// EmptyBodySHA256 is the hex-encoded SHA-256 of the empty string.
	EmptyBodySHA256 = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

	// UnsignedPayload is the content hash value for S3 requests that
	// are signed without hashing the body.
	UnsignedPayload = "UNSIGNED-PAYLOAD"
)

// HashSHA256 returns the SHA-256 digest of p.
func HashSHA256(p []byte) []byte {
	h := sha256.New()
	h.Write(p)
	return h.Sum(nil)
}

// HashSHA256Hex returns the lowercase hex form of the SHA-256 digest of p.
func HashSHA256Hex(p []byte) string {
	return hex.EncodeToString(HashSHA256(p))
}

// HMACSHA256 returns the HMAC-SHA-256 of data under key.
func HMACSHA256(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}
