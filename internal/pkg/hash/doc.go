// Package hash provides helpers for hashing and verifying secrets.
//
// Bcrypt is used for passwords: store only the hash and verify user input by
// comparing the plaintext against it. HMAC-SHA256 is used for short-lived
// codes and tokens: deterministic, keyed, and verified in constant time, so
// a stolen database row alone is not enough to use a code.
package hash
