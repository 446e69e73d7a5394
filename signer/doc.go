/*
Package signer implements AWS Signature Version 4 request signing.

It produces the canonical request, the string to sign and the derived
signing key exactly as defined by the SigV4 specification, and offers
two entry points: SignHeaders, which augments a request's header set
with X-Amz-Date, host, x-amz-content-sha256 and Authorization, and
PresignURL, which encodes the signature into the query string of a URL
with a bounded lifetime.

Derived signing keys are cached per region/service/day, so repeated
signing with the same credentials only pays the HMAC chain once a day.
*/
package signer
