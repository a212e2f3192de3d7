// Package identity decides which user id the client presents to a lobby.
//
// Signed-in users are identified by the uid from their identity-provider
// token. Everyone else gets a guest id of the form g_<millis><random>,
// kept in the session store so it stays stable across reconnects:
//
//	tokens := identity.NewTokenProvider()
//	resolver := identity.NewResolver(tokens, st)
//	user, err := resolver.Resolve(ctx)
//
// Tokens are decoded but not verified; the lobby server is the party that
// trusts or rejects them.
package identity
