package hash

// Hash hashes plaintext values and verifies plaintext against stored hashes.
type Hash interface {
	// Hash returns the hash of the plaintext.
	Hash(plaintext string) ([]byte, error)
	// Verify reports whether plaintext matches the stored hash.
	Verify(hashed, plaintext string) bool
}
