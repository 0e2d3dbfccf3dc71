package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/session-auth/internal/apperror"
)

// DefaultCost is the bcrypt work factor used when none is configured.
//
// Each step of the cost doubles the work: cost 12 is 2^12 rounds, roughly
// 250ms on a current server.
//
// COST TUNING RULE OF THUMB:
// Pick the cost so one hash takes 200-300ms on production hardware. Lower
// makes offline cracking cheap; higher makes sign-in slow and lets a burst
// of sign-ins saturate the CPU. The cost is set through AUTH_HASH_WORK_FACTOR
// and is stored inside every hash, so raising it later does not invalidate
// existing hashes.
const DefaultCost = 12

// MaxPasswordBytes is the longest input bcrypt can hash.
//
// bcrypt only reads the first 72 bytes of its input. Older versions of
// x/crypto silently ignored the rest, so "<72 bytes>A" and "<72 bytes>B"
// hashed the same. Hash rejects longer input instead of truncating it.
const MaxPasswordBytes = 72

// PasswordService hashes and verifies passwords. The cost is fixed at
// construction and read-only afterwards, so one value is safe to share
// between goroutines.
//
// WHY BCRYPT?
// bcrypt is deliberately slow, and the slowness is the point: a stolen hash
// table costs an attacker the same ~250ms per guess that a sign-in costs us.
// Fast hashes (MD5, SHA-256) fall to GPU brute force in minutes.
//
// bcrypt also:
//   - generates a random salt per call, so equal passwords hash differently
//   - embeds salt and cost in the output, so no extra columns are needed
//
// Hash format:
//
//	$2a$12$<22-char salt><31-char hash>
//	 ^   ^
//	 |   cost (2^12 rounds)
//	 version
//
// It is a struct (not free functions) so tests can inject bcrypt.MinCost.
type PasswordService struct {
	cost  int
	dummy []byte // hash of a fixed string at the same cost, see VerifyAbsent
}

// NewPasswordService returns a PasswordService with the given bcrypt cost.
// Zero selects DefaultCost. Anything outside bcrypt's range is rejected.
func NewPasswordService(cost int) (*PasswordService, error) {
	if cost == 0 {
		cost = DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("auth: bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return newPasswordService(cost)
}

// NewPasswordServiceForTest returns a PasswordService with bcrypt.MinCost (4),
// which hashes in well under a millisecond. Use it in tests in other packages
// to avoid the cost-12 overhead on every signup.
//
// Do NOT use in production: cost 4 is far too weak.
func NewPasswordServiceForTest() *PasswordService {
	p, err := newPasswordService(bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return p
}

func newPasswordService(cost int) (*PasswordService, error) {
	dummy, err := bcrypt.GenerateFromPassword([]byte("session-auth/absent-user"), cost)
	if err != nil {
		return nil, fmt.Errorf("auth: preparing dummy hash: %w", err)
	}
	return &PasswordService{cost: cost, dummy: dummy}, nil
}

// Cost reports the configured work factor.
func (p *PasswordService) Cost() int {
	return p.cost
}

// Hash returns the bcrypt hash of plaintext.
//
// The output is a self-contained string like:
//
//	$2a$12$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy
//
// Store it as-is: bcrypt.CompareHashAndPassword reads the salt and cost back
// out of it.
//
// Passwords over MaxPasswordBytes fail with apperror.ErrPasswordTooLong, a
// validation error the handler turns into a 400.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > MaxPasswordBytes {
		return "", apperror.PasswordTooLong(MaxPasswordBytes)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", apperror.PasswordTooLong(MaxPasswordBytes)
		}
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify reports whether plaintext matches hash.
//
// TIMING SAFETY:
// bcrypt.CompareHashAndPassword re-hashes plaintext with the stored salt and
// compares the digests with subtle.ConstantTimeCompare, so response time
// says nothing about how many bytes matched.
//
// A malformed or truncated hash is reported as a mismatch, never an error:
// callers only ever need the yes/no answer.
//
// Usage:
//
//	if !ps.Verify(user.PasswordHash, creds.Password) {
//	    // wrong password
//	}
func (p *PasswordService) Verify(hash, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// VerifyAbsent is Verify for a user that does not exist.
//
// ACCOUNT ENUMERATION:
// If sign-in returned immediately for an unknown email but spent ~250ms in
// bcrypt for a known one, an attacker could list registered emails just by
// timing responses, even though both answers carry the same message.
// VerifyAbsent spends one comparison against a dummy hash at the configured
// cost and always returns false, so both paths take about as long.
func (p *PasswordService) VerifyAbsent(plaintext string) bool {
	_ = bcrypt.CompareHashAndPassword(p.dummy, []byte(plaintext))
	return false
}
