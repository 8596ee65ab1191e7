// Package auth provides bearer token authentication for the TradeHub API.
// Tokens are HS256 JWTs whose "jti" claim is the session id; the session
// store remains the single source of truth, so a signed-out session is
// rejected even while its token has not expired.
package auth

import "time"

const (
	// AuthorizationHeader is the HTTP header carrying the bearer token.
	AuthorizationHeader = "Authorization"

	// BearerScheme is the authorization scheme prefix.
	BearerScheme = "Bearer"

	// DefaultIssuer is the "iss" claim when none is configured.
	DefaultIssuer = "tradehub"

	// Leeway is the clock skew tolerated when validating time claims.
	Leeway = 30 * time.Second
)
