// Package identity is the credential store boundary: persisted user records,
// their password hashes, and the single currently-valid session secret per user.
//
// Session-secret mutation is the only shared mutable state in the auth core.
// Implementations must provide an atomic compare-and-replace on that field so
// refresh rotation is linearizable per user.
package identity
