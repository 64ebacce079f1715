package model

// PasswordHasher performs one-way credential hashing. Hash failures are
// fatal for the request: callers abort rather than store plaintext.
// Verify never fails on mismatch, it returns false.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}
