// Package common contains shared constants and sentinel errors used across
// FormRelay components.
package common

// AuthHeaderName is the HTTP header carrying the bearer access token on
// outbound requests.
const AuthHeaderName = "Authorization"

// AuthSchemePrefix prefixes the access token in AuthHeaderName.
const AuthSchemePrefix = "Bearer "
