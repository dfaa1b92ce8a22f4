// Package token provides server-side hashing for session token material.
//
// The plain session token lives only on the client; the credential store keeps
// a digest. Comparing the digest of a presented token against the stored
// digest is equivalent to comparing the tokens byte-for-byte.
package token
