// Package session implements the rotation protocol for the two-tier token
// scheme: short-lived stateless access tokens and a long-lived session token
// whose validity also depends on matching server-stored state.
//
// Login, refresh and logout all mutate the per-user session secret; refresh
// does so through an atomic compare-and-replace, so a session token can be
// consumed exactly once before it is superseded.
package session
