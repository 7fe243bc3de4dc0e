package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/stagepay/pos-core/internal/domain"
)

// TokenTTLs sets the lifetime of tokens per principal variant.
type TokenTTLs struct {
	User     time.Duration
	Terminal time.Duration
	Customer time.Duration
}

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	secret []byte
	ttls   TokenTTLs
	now    func() time.Time
}

// NewTokenManager builds a new manager. Zero TTLs fall back to one hour.
func NewTokenManager(secret string, ttls TokenTTLs) *TokenManager {
	for _, ttl := range []*time.Duration{&ttls.User, &ttls.Terminal, &ttls.Customer} {
		if *ttl <= 0 {
			*ttl = time.Hour
		}
	}
	return &TokenManager{secret: []byte(secret), ttls: ttls, now: time.Now}
}

// Claims describes JWT payload. A token is bound to one principal variant
// and to one server-side session.
type Claims struct {
	SubjectID int64              `json:"subject_id"`
	Subject   domain.SubjectType `json:"subject"`
	SessionID string             `json:"session_id"`
	jwt.RegisteredClaims
}

func (tm *TokenManager) ttlFor(subject domain.SubjectType) time.Duration {
	switch subject {
	case domain.SubjectTypeTerminal:
		return tm.ttls.Terminal
	case domain.SubjectTypeCustomer:
		return tm.ttls.Customer
	default:
		return tm.ttls.User
	}
}

// GenerateToken builds and signs a JWT for the subject's session.
func (tm *TokenManager) GenerateToken(subject domain.SubjectType, subjectID int64, sessionID string) (string, time.Time, error) {
	now := tm.now()
	expiresAt := now.Add(tm.ttlFor(subject))
	claims := &Claims{
		SubjectID: subjectID,
		Subject:   subject,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseToken validates and returns claims.
func (tm *TokenManager) ParseToken(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	}, jwt.WithTimeFunc(tm.now))
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// ParseSubjectToken validates the token and checks it belongs to subject.
func (tm *TokenManager) ParseSubjectToken(tokenStr string, subject domain.SubjectType) (*Claims, error) {
	claims, err := tm.ParseToken(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.Subject != subject {
		return nil, errors.New("token issued for a different subject")
	}
	if claims.SessionID == "" {
		return nil, errors.New("token carries no session")
	}
	return claims, nil
}
