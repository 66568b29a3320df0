package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"

	"workforce-service/internal/models"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims carried by workforce access tokens.
type Claims struct {
	UserID int         `json:"user_id"`
	Role   models.Role `json:"role"`
	jwt.StandardClaims
}

// Identity is the authenticated caller.
type Identity struct {
	UserID int
	Role   models.Role
}

// TokenValidator verifies access tokens.
type TokenValidator interface {
	ValidateToken(token string) (Identity, error)
}

// JWT signs and validates HS256 tokens with a shared secret.
type JWT struct {
	secret []byte
	ttl    time.Duration
}

// NewJWT constructs a JWT helper.
func NewJWT(secret string, ttl time.Duration) *JWT {
	return &JWT{secret: []byte(secret), ttl: ttl}
}

// Issue creates a signed token for the identity.
func (j *JWT) Issue(id Identity) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: id.UserID,
		Role:   id.Role,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(j.ttl).Unix(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
}

// ValidateToken verifies the signature and expiry and returns the identity.
func (j *JWT) ValidateToken(token string) (Identity, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return j.secret, nil
	})
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.UserID == 0 {
		return Identity{}, ErrInvalidToken
	}
	role := claims.Role
	if role == "" {
		role = models.RoleEmployee
	}
	return Identity{UserID: claims.UserID, Role: role}, nil
}
