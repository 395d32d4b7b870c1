/*
Package auth is the Auth & Tenancy Gate: it maps a bearer token to an
APIKey and filters requests by (action × index pattern × expiry).

A tenant token is not a stored record at all, just a master key's UID
plus an embedded searchRules map, HMAC-signed so Parse can validate it
without a round trip to Store.
*/
package auth
