// Package token provides random token generation for filegate.
//
// Verification tokens are 16 random bytes from crypto/rand, hex encoded
// (32 lowercase characters). Tokens are stored server-side as issued and
// shown back to their owner by /check, so no hashing is applied.
//
// Masking helpers are provided for logging: a token is never written to
// logs in full.
package token
