package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-at-least-16-chars!!"

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	ts, err := NewTokenService(TokenConfig{Secret: testSecret})
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

// flipSignatureByte changes the first character of the signature segment.
// The first base64url character carries six full bits, so the decoded
// signature always changes.
func flipSignatureByte(token string) string {
	i := strings.LastIndex(token, ".") + 1
	b := []byte(token)
	if b[i] == 'A' {
		b[i] = 'B'
	} else {
		b[i] = 'A'
	}
	return string(b)
}

// =========================================================================
// CONSTRUCTION TESTS
// =========================================================================

func TestNewTokenService_ShortSecret(t *testing.T) {
	if _, err := NewTokenService(TokenConfig{Secret: "short"}); err == nil {
		t.Fatal("NewTokenService() should reject secrets shorter than 16 chars")
	}
}

func TestNewTokenService_Algorithms(t *testing.T) {
	for _, alg := range SupportedAlgorithms {
		if _, err := NewTokenService(TokenConfig{Secret: testSecret, Algorithm: alg}); err != nil {
			t.Errorf("NewTokenService(%s) error = %v", alg, err)
		}
	}
	for _, alg := range []string{"RS256", "none", "ES256", "bogus"} {
		if _, err := NewTokenService(TokenConfig{Secret: testSecret, Algorithm: alg}); err == nil {
			t.Errorf("NewTokenService(%s) should fail", alg)
		}
	}
}

func TestNewTokenService_DefaultTTL(t *testing.T) {
	ts := newTestTokenService(t)
	if ts.DefaultTTL() != 15*time.Minute {
		t.Errorf("DefaultTTL() = %s, want 15m", ts.DefaultTTL())
	}

	ts, err := NewTokenService(TokenConfig{Secret: testSecret, DefaultTTL: time.Hour})
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	if ts.DefaultTTL() != time.Hour {
		t.Errorf("DefaultTTL() = %s, want 1h", ts.DefaultTTL())
	}

	if _, err := NewTokenService(TokenConfig{Secret: testSecret, DefaultTTL: -time.Minute}); err == nil {
		t.Error("NewTokenService() should reject a negative ttl")
	}
}

// =========================================================================
// GENERATE TESTS
// =========================================================================

func TestGenerate_LooksLikeJWT(t *testing.T) {
	ts := newTestTokenService(t)

	token, _, err := ts.Generate("user-123")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Errorf("Generate() token doesn't look like a JWT: %q", token)
	}
}

func TestGenerate_ExpiryUsesDefaultTTL(t *testing.T) {
	ts := newTestTokenService(t)

	before := time.Now()
	_, expiresAt, err := ts.Generate("user-123")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	want := before.Add(DefaultTokenTTL)
	if expiresAt.Before(want) || expiresAt.After(want.Add(time.Second)) {
		t.Errorf("expiresAt = %v, want about %v", expiresAt, want)
	}
}

func TestGenerate_EmptySubject(t *testing.T) {
	ts := newTestTokenService(t)

	if _, _, err := ts.Generate(""); err == nil {
		t.Fatal("Generate() should reject an empty subject")
	}
}

// =========================================================================
// VALIDATE TESTS
// =========================================================================

func TestValidate_RoundTrip(t *testing.T) {
	for _, alg := range SupportedAlgorithms {
		t.Run(alg, func(t *testing.T) {
			ts, err := NewTokenService(TokenConfig{Secret: testSecret, Algorithm: alg})
			if err != nil {
				t.Fatalf("NewTokenService: %v", err)
			}

			token, expiresAt, err := ts.GenerateWithDuration("9m4e2mr0ui3e8a215n4g", 30*time.Minute)
			if err != nil {
				t.Fatalf("GenerateWithDuration() error = %v", err)
			}

			got, err := ts.Validate(token)
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if got.SubjectID != "9m4e2mr0ui3e8a215n4g" {
				t.Errorf("SubjectID = %q, want %q", got.SubjectID, "9m4e2mr0ui3e8a215n4g")
			}
			if !got.ExpiresAt.Equal(expiresAt.Truncate(time.Second)) {
				t.Errorf("ExpiresAt = %v, want %v", got.ExpiresAt, expiresAt.Truncate(time.Second))
			}
		})
	}
}

func TestValidate_ExpiredToken(t *testing.T) {
	ts := newTestTokenService(t)

	for _, ttl := range []time.Duration{0, -1 * time.Second, -time.Hour} {
		token, _, err := ts.GenerateWithDuration("user-123", ttl)
		if err != nil {
			t.Fatalf("GenerateWithDuration(%s) error = %v", ttl, err)
		}

		_, err = ts.Validate(token)
		if !errors.Is(err, ErrExpiredToken) {
			t.Errorf("Validate() ttl=%s error = %v, want ErrExpiredToken", ttl, err)
		}
		if errors.Is(err, ErrInvalidSignature) {
			t.Errorf("Validate() ttl=%s reported a signature problem for an expired token", ttl)
		}
	}
}

func TestValidate_TamperedToken(t *testing.T) {
	ts := newTestTokenService(t)

	token, _, _ := ts.Generate("user-123")

	_, err := ts.Validate(flipSignatureByte(token))
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("Validate() error = %v, want ErrInvalidSignature", err)
	}
	if !errors.Is(err, ErrInvalidToken) {
		t.Error("ErrInvalidSignature must be an ErrInvalidToken")
	}
}

// flipByteAt replaces the character at i with another base64url character.
func flipByteAt(token string, i int) string {
	b := []byte(token)
	if b[i] == 'A' {
		b[i] = 'B'
	} else {
		b[i] = 'A'
	}
	return string(b)
}

func TestValidate_AnyAlteredByteIsASignatureFailure(t *testing.T) {
	ts := newTestTokenService(t)

	token, _, err := ts.Generate("9m4e2mr0ui3e8a215n4g")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	for i := 0; i < len(token); i++ {
		if token[i] == '.' {
			continue
		}
		tampered := flipByteAt(token, i)
		if tampered == token {
			continue
		}

		_, err := ts.Validate(tampered)
		if errors.Is(err, ErrExpiredToken) {
			t.Errorf("byte %d: Validate() reported expiry, want ErrInvalidSignature", i)
			continue
		}
		if !errors.Is(err, ErrInvalidSignature) {
			// The last signature character may carry padding bits only;
			// the decoded signature is then unchanged or undecodable.
			if strings.LastIndex(token, ".") < i && i == len(token)-1 {
				continue
			}
			t.Errorf("byte %d (segment %d): Validate() error = %v, want ErrInvalidSignature",
				i, strings.Count(token[:i], "."), err)
		}
	}
}

func TestValidate_WrongSecret(t *testing.T) {
	ts1, _ := NewTokenService(TokenConfig{Secret: "correct-secret-32-chars-long!!!!"})
	ts2, _ := NewTokenService(TokenConfig{Secret: "wrong-secret-32-chars-long!!!!!!"})

	token, _, _ := ts1.Generate("user-123")

	if _, err := ts2.Validate(token); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("Validate() error = %v, want ErrInvalidSignature", err)
	}
}

func TestValidate_WrongAlgorithm(t *testing.T) {
	ts256, _ := NewTokenService(TokenConfig{Secret: testSecret, Algorithm: "HS256"})
	ts512, _ := NewTokenService(TokenConfig{Secret: testSecret, Algorithm: "HS512"})

	token, _, _ := ts512.Generate("user-123")

	if _, err := ts256.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("Validate() error = %v, want ErrInvalidToken", err)
	}
}

func TestValidate_NoneAlgorithm(t *testing.T) {
	ts := newTestTokenService(t)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   "user-123",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("signing none token: %v", err)
	}

	if _, err := ts.Validate(unsigned); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("Validate() error = %v, want ErrInvalidToken", err)
	}
}

func TestValidate_MissingSubject(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    issuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}

	_, err = ts.Validate(token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("Validate() error = %v, want ErrInvalidToken", err)
	}
}

func TestValidate_MissingExpiry(t *testing.T) {
	ts := newTestTokenService(t)

	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:  issuer,
		Subject: "user-123",
	}).SignedString([]byte(testSecret))

	if _, err := ts.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("Validate() error = %v, want ErrInvalidToken", err)
	}
}

func TestValidate_EmptyAndGarbage(t *testing.T) {
	ts := newTestTokenService(t)

	for _, tok := range []string{"", "not.a.jwt.token", "garbage", "a.b.c"} {
		_, err := ts.Validate(tok)
		if !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Validate(%q) error = %v, want ErrInvalidToken", tok, err)
		}
		if errors.Is(err, ErrExpiredToken) {
			t.Errorf("Validate(%q) should not report expiry", tok)
		}
	}
}
