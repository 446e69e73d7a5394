/*
Package credentials resolves AWS credentials from the sources a process
typically has available: explicit configuration, the environment, the
shared credentials file, the ECS task metadata endpoint and the EC2
instance metadata service.

Providers compose: Chain tries a list of providers in order and
short-circuits on the first success, Cache adds expiry-aware caching
with a single shared refresh, so any number of concurrent requests
causes at most one metadata fetch.
*/
package credentials
