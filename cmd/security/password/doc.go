// Package password implements Argon2id password hashing with PHC-encoded
// output and a small, conservative password policy.
//
// Hashing parameters and policy are env-tunable so production deployments can
// harden them without code changes.
package password
