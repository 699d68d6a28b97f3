package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Identity is what a signed-in staff member carries between requests.
type Identity struct {
	Email      string
	FullName   string
	Role       string
	ERPSession string
}

// Claims is the token payload. The ERP sid travels sealed; ERPSession is
// only filled in after the token has been validated.
type Claims struct {
	SessionID  uuid.UUID `json:"session_id"`
	Email      string    `json:"email"`
	FullName   string    `json:"full_name,omitempty"`
	Role       string    `json:"role"`
	SealedERP  string    `json:"erp,omitempty"`
	ERPSession string    `json:"-"`
	jwt.RegisteredClaims
}

// GenerateToken signs a session token for id. Every call starts a new
// session, so carts are never shared between two logins.
func GenerateToken(secret string, ttl time.Duration, id Identity) (string, *Claims, error) {
	now := time.Now()
	claims := &Claims{
		SessionID:  uuid.New(),
		Email:      id.Email,
		FullName:   id.FullName,
		Role:       id.Role,
		ERPSession: id.ERPSession,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Email,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	if id.ERPSession != "" {
		sealed, err := sealSession(secret, claims.SessionID[:], id.ERPSession)
		if err != nil {
			return "", nil, err
		}
		claims.SealedERP = sealed
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

func ValidateToken(secret, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.SealedERP != "" {
		sid, err := openSession(secret, claims.SessionID[:], claims.SealedERP)
		if err != nil {
			return nil, err
		}
		claims.ERPSession = sid
	}
	return claims, nil
}
