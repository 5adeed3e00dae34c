package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidToken = errors.New("invalid download token")
	ErrTokenExpired = errors.New("download token expired")
)

// Token is the decoded content of a signed download token.
type Token struct {
	Handle    string
	Path      string
	ExpiresAt time.Time
}

// SignedURLSigner creates and validates signed, expiring download tokens.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner constructs a signer with the provided secret and TTL.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL reports how long issued tokens stay valid.
func (s *SignedURLSigner) TTL() time.Duration {
	return s.ttl
}

// Generate returns a token for the stored file at relPath owned by handle.
func (s *SignedURLSigner) Generate(handle, relPath string) (string, time.Time, error) {
	if handle == "" || relPath == "" {
		return "", time.Time{}, fmt.Errorf("handle and path required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	ts := strconv.FormatInt(expiresAt.Unix(), 10)
	encodedPath := base64.RawURLEncoding.EncodeToString([]byte(relPath))
	signature := s.sign(handle, ts, encodedPath)
	return strings.Join([]string{handle, ts, encodedPath, signature}, "."), expiresAt, nil
}

// Parse validates token and returns its content. Expired tokens are rejected
// with ErrTokenExpired unless allowExpired is set (cleanup paths use that).
func (s *SignedURLSigner) Parse(token string, allowExpired bool) (Token, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return Token{}, ErrInvalidToken
	}
	handle, ts, encodedPath, signature := parts[0], parts[1], parts[2], parts[3]

	if !hmac.Equal([]byte(s.sign(handle, ts, encodedPath)), []byte(signature)) {
		return Token{}, ErrInvalidToken
	}
	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return Token{}, ErrInvalidToken
	}
	rawPath, err := base64.RawURLEncoding.DecodeString(encodedPath)
	if err != nil {
		return Token{}, ErrInvalidToken
	}

	parsed := Token{Handle: handle, Path: string(rawPath), ExpiresAt: time.Unix(unix, 0)}
	if !allowExpired && s.now().After(parsed.ExpiresAt) {
		return parsed, ErrTokenExpired
	}
	return parsed, nil
}

func (s *SignedURLSigner) sign(handle, ts, encodedPath string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(handle + "|" + ts + "|" + encodedPath))
	return hex.EncodeToString(mac.Sum(nil))
}
