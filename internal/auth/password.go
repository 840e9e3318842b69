// Package auth provides password hashing and the request authorization guard.
//
// WHY BCRYPT?
// bcrypt is deliberately slow, which makes brute-forcing stolen hashes
// expensive, and it generates and embeds a random salt per hash, so two users
// with the same password get different hashes. Never store passwords in
// plain text or with fast hashes (MD5, SHA-256).
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor. Cost 12 takes roughly 250ms on a
// modern server — negligible for a login, brutal for an attacker.
const defaultCost = 12

// PasswordService provides bcrypt hashing and verification.
//
// It's a struct (not free functions) so the cost can be injected: tests use
// the minimum cost to avoid paying ~250ms per hash.
type PasswordService struct {
	cost  int
	dummy []byte
}

// NewPasswordService creates a PasswordService with the default cost (12).
func NewPasswordService() *PasswordService {
	return newPasswordService(defaultCost)
}

// NewPasswordServiceForTest creates a PasswordService with a custom (low)
// bcrypt cost. Do not use in production.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return newPasswordService(cost)
}

func newPasswordService(cost int) *PasswordService {
	// A throwaway hash at the same cost as the real ones, so DummyVerify's
	// comparison takes as long as a genuine check. GenerateFromPassword only
	// fails for a cost above bcrypt.MaxCost, which neither constructor allows
	// in practice.
	dummy, _ := bcrypt.GenerateFromPassword([]byte("timing-pad"), cost)
	return &PasswordService{cost: cost, dummy: dummy}
}

// Hash hashes the given plaintext password with bcrypt. The output embeds
// the salt and cost, so it is stored as-is and Verify can decode it.
//
// Returns an error for plaintexts over 72 bytes — bcrypt silently truncates
// beyond that, and we'd rather reject than surprise.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", fmt.Errorf("auth: password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify checks whether a plaintext password matches a stored bcrypt hash.
// Returns nil on match. bcrypt's comparison is constant-time, so callers get
// timing safety for free.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fmt.Errorf("auth: invalid password")
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}

// DummyVerify burns a bcrypt comparison against the throwaway hash and
// discards the result. Login calls it when the username does not exist, so
// "no such user" takes the same wall-clock time as "wrong password".
func (p *PasswordService) DummyVerify(plaintext string) {
	_ = bcrypt.CompareHashAndPassword(p.dummy, []byte(plaintext))
}
