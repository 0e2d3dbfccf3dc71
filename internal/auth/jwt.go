// Package auth provides the credential and session primitives: bcrypt password
// hashing, signed session tokens, and the cookie that carries them.
//
// WHY JWT?
// A JWT is stateless: the server keeps no session table. Everything needed to
// authenticate a request (user id, expiry) is inside the token, and the HMAC
// signature means nobody can change it without the secret.
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header:    {"alg":"HS256","typ":"JWT"}
//	- Payload:   {"iss":"session-auth","sub":"<user id>","iat":...,"exp":...}
//	- Signature: HMAC-SHA256(HEADER + "." + PAYLOAD, secret)
//
// SESSION FLOW:
//  1. Signup or sign-in issues a token (service.AuthService).
//  2. CookieTransport stores it in an HttpOnly cookie with Max-Age = session ttl.
//  3. RequireSession reads the cookie, Validate checks the token, and the
//     user is loaded from the store on every request.
//
// NO REVOCATION:
// Tokens are not stored server-side. A token stays valid until its exp claim
// passes; there is no revocation list, so a leaked token can be replayed
// until it expires. Signing out only deletes the client's cookie.
package auth

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer = "session-auth"

	// DefaultTokenTTL applies when issuance does not specify a lifetime.
	DefaultTokenTTL = 15 * time.Minute

	minSecretLength = 16
)

var (
	ErrInvalidToken     = errors.New("auth: invalid token")
	ErrInvalidSignature = fmt.Errorf("%w: signature mismatch", ErrInvalidToken)
	ErrExpiredToken     = errors.New("auth: token expired")
)

// SupportedAlgorithms lists the accepted signing algorithms.
var SupportedAlgorithms = []string{"HS256", "HS384", "HS512"}

// TokenConfig configures a TokenService.
type TokenConfig struct {
	Secret     string
	Algorithm  string        // one of SupportedAlgorithms; empty means HS256
	DefaultTTL time.Duration // used by Generate; zero means DefaultTokenTTL
}

// TokenService issues and validates session tokens. It is immutable after
// construction.
//
// It holds the HMAC secret used for both signing and verifying. Every
// process sharing the secret accepts every other's tokens, so keep it out of
// source control and rotate it by restarting with a new one (which signs
// everybody out).
type TokenService struct {
	secret     []byte
	method     *jwt.SigningMethodHMAC
	defaultTTL time.Duration
}

// Claims is the decoded content of a valid token.
type Claims struct {
	SubjectID string
	ExpiresAt time.Time
}

type claims struct {
	jwt.RegisteredClaims
}

// NewTokenService validates cfg and returns a TokenService.
//
// The secret must be at least 16 characters; in production use 32 bytes or
// more of random data, e.g. AUTH_SIGNING_SECRET=$(openssl rand -hex 32).
// Only HMAC algorithms are accepted: an asymmetric RS*/ES* key would need a
// different key type and is not configurable here.
func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if len(cfg.Secret) < minSecretLength {
		return nil, fmt.Errorf("auth: signing secret must be at least %d characters", minSecretLength)
	}

	alg := cfg.Algorithm
	if alg == "" {
		alg = "HS256"
	}
	method, ok := jwt.GetSigningMethod(alg).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("auth: unsupported signing algorithm %q", alg)
	}

	ttl := cfg.DefaultTTL
	if ttl == 0 {
		ttl = DefaultTokenTTL
	}
	if ttl < 0 {
		return nil, fmt.Errorf("auth: default token ttl must be positive, got %s", ttl)
	}

	return &TokenService{
		secret:     []byte(cfg.Secret),
		method:     method,
		defaultTTL: ttl,
	}, nil
}

// DefaultTTL is the lifetime Generate uses.
func (s *TokenService) DefaultTTL() time.Duration {
	return s.defaultTTL
}

// Generate issues a token for subjectID that expires after the default ttl.
func (s *TokenService) Generate(subjectID string) (string, time.Time, error) {
	return s.GenerateWithDuration(subjectID, s.defaultTTL)
}

// GenerateWithDuration issues a token for subjectID expiring at now+ttl.
// A ttl of zero or less produces a token that is already expired.
//
// Claims written:
//   - iss: the fixed issuer, so tokens from another app with the same secret
//     are rejected
//   - sub: the user id
//   - iat, exp: issuance and expiry, whole seconds
//
// jwt.NewWithClaims builds the unsigned token; SignedString signs it with the
// configured method and returns the complete compact string.
func (s *TokenService) GenerateWithDuration(subjectID string, ttl time.Duration) (string, time.Time, error) {
	if subjectID == "" {
		return "", time.Time{}, errors.New("auth: token subject must not be empty")
	}

	now := time.Now()
	expiresAt := now.Add(ttl)

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(s.method, c).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, expiresAt, nil
}

// Validate verifies tokenStr and returns its claims.
//
// ORDER OF CHECKS:
//  1. Shape: exactly three dot-separated segments.
//  2. Signature: HMAC over "HEADER.PAYLOAD" with our secret and our algorithm.
//  3. Claims: algorithm header, issuer, expiry, subject (done by jwt/v5).
//
// Step 2 runs before anything is JSON-decoded. jwt/v5 decodes the header and
// claims first, so on its own a token with one payload byte changed comes
// back as "malformed"; verifying the raw signing string first makes every
// altered byte in the header, payload or signature an ErrInvalidSignature.
//
// ALGORITHM CONFUSION ATTACK:
// The signature is always checked with the configured HMAC method, whatever
// "alg" the header claims, and jwt.WithValidMethods rejects any other alg.
// A token signed with "none" or a different HS* size therefore never passes.
//
// Errors:
//   - ErrExpiredToken when now >= exp (checked after the signature).
//   - ErrInvalidSignature when the signature does not match.
//   - ErrInvalidToken for everything else: empty, malformed, wrong algorithm,
//     wrong issuer, missing exp or missing subject.
//
// Validate does not check that the subject still exists.
func (s *TokenService) Validate(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidToken)
	}
	if err := s.verifySignature(tokenStr); err != nil {
		return nil, err
	}

	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrInvalidSignature
		default:
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: unexpected claims", ErrInvalidToken)
	}
	if c.Subject == "" {
		return nil, fmt.Errorf("%w: no subject", ErrInvalidToken)
	}

	return &Claims{
		SubjectID: c.Subject,
		ExpiresAt: c.ExpiresAt.Time,
	}, nil
}

// verifySignature checks the HMAC of the raw "HEADER.PAYLOAD" string against
// the signature segment without decoding either JSON part.
func (s *TokenService) verifySignature(tokenStr string) error {
	if strings.Count(tokenStr, ".") != 2 {
		return fmt.Errorf("%w: expected three segments", ErrInvalidToken)
	}

	dot := strings.LastIndex(tokenStr, ".")
	signingString, encodedSig := tokenStr[:dot], tokenStr[dot+1:]

	sig, err := base64.RawURLEncoding.DecodeString(encodedSig)
	if err != nil {
		return fmt.Errorf("%w: undecodable signature", ErrInvalidToken)
	}

	if err := s.method.Verify(signingString, sig, s.secret); err != nil {
		return ErrInvalidSignature
	}
	return nil
}
