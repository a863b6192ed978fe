package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/google/uuid"

	"github.com/booksapp/books-server/internal/domain"
)

const (
	tokenIssuer   = "books-server"
	tokenAudience = "books-web"
)

// ErrInvalidToken is returned for tokens that fail decryption or claim checks.
var ErrInvalidToken = errors.New("invalid session token")

// TokenService encrypts session references into PASETO v4.local tokens.
type TokenService struct {
	key paseto.V4SymmetricKey
	now func() time.Time
}

// NewTokenService creates a token service using a 32-byte symmetric key.
func NewTokenService(key []byte) (*TokenService, error) {
	if len(key) != keyLength {
		return nil, fmt.Errorf("PASETO v4 key must be exactly %d bytes, got %d", keyLength, len(key))
	}
	symmetric, err := paseto.V4SymmetricKeyFromBytes(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create PASETO symmetric key: %w", err)
	}
	return &TokenService{key: symmetric, now: time.Now}, nil
}

// IssueSessionToken returns the cookie value for session. The token expires
// with the session.
func (s *TokenService) IssueSessionToken(session *domain.Session) (string, error) {
	if session == nil || session.ID == "" || session.UserID == "" {
		return "", errors.New("session must have an ID and user ID")
	}
	now := s.now()

	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetAudience(tokenAudience)
	token.SetSubject(session.UserID)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(session.ExpiresAt)
	token.SetJti(uuid.NewString())

	//nolint:errcheck // Set only fails for values that cannot be marshalled
	_ = token.Set("sid", session.ID)
	//nolint:errcheck // see above
	_ = token.Set("user_id", session.UserID)

	return token.V4Encrypt(s.key, nil), nil
}

// VerifySessionToken decrypts token and checks issuer, audience and validity
// window. It does not consult the session store.
func (s *TokenService) VerifySessionToken(token string) (*SessionClaims, error) {
	parser := paseto.NewParserWithoutExpiryCheck()
	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))
	parser.AddRule(paseto.ValidAt(s.now()))

	parsed, err := parser.ParseV4Local(s.key, token, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	var claims SessionClaims
	if err := json.Unmarshal(parsed.ClaimsJSON(), &claims); err != nil {
		return nil, fmt.Errorf("%w: parse claims: %w", ErrInvalidToken, err)
	}
	if claims.SessionID == "" || claims.UserID == "" || claims.UserID != claims.Subject {
		return nil, fmt.Errorf("%w: missing session reference", ErrInvalidToken)
	}
	return &claims, nil
}
