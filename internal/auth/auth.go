// Package auth resolves caller identity from bearer tokens. The core
// engine only ever sees a resolved Identity passed as an explicit
// parameter; nothing reaches into ambient request state.
package auth

import "strings"

// Identity is a resolved caller. The zero value is the anonymous caller.
type Identity struct {
	UID  string
	Name string
}

// Anonymous reports whether the identity belongs to an unauthenticated
// caller.
func (i Identity) Anonymous() bool { return i.UID == "" }

// Resolver maps bearer tokens to identities from a static table.
type Resolver struct {
	tokens map[string]Identity
}

// NewResolver builds a resolver from a token -> identity table. A nil or
// empty table resolves every caller as anonymous.
func NewResolver(tokens map[string]Identity) *Resolver {
	return &Resolver{tokens: tokens}
}

// Resolve extracts the bearer token from an Authorization header value and
// looks it up. Unknown or missing tokens resolve to the anonymous
// identity, never an error; rejecting anonymous callers is the caller's
// policy decision.
func (r *Resolver) Resolve(authorization string) Identity {
	token := strings.TrimSpace(strings.TrimPrefix(authorization, "Bearer "))
	if token == "" || r == nil || len(r.tokens) == 0 {
		return Identity{}
	}
	return r.tokens[token]
}
