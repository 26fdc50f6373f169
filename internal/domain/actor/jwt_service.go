package actor

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims identifies the actor a bridge call is made for
type JWTClaims struct {
	ActorID string   `json:"actor_id"`
	Name    string   `json:"name"`
	Tags    []string `json:"tags,omitempty"`
	jwt.RegisteredClaims
}

// HostTag marks tokens issued to the game host, which may act for any actor
const HostTag = "host"

// IsHost reports whether the token belongs to the game host
func (c *JWTClaims) IsHost() bool {
	return Actor{Tags: c.Tags}.HasTag(HostTag)
}

// JWTService handles JWT token operations
type JWTService struct {
	secretKey      []byte
	issuer         string
	expiryDuration time.Duration
}

// NewJWTService creates a new JWT service
func NewJWTService(secretKey string, issuer string, expiryDuration time.Duration) *JWTService {
	return &JWTService{
		secretKey:      []byte(secretKey),
		issuer:         issuer,
		expiryDuration: expiryDuration,
	}
}

// GenerateToken issues a token for the actor
func (s *JWTService) GenerateToken(a Actor) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		ActorID: a.ID,
		Name:    a.Name,
		Tags:    a.Tags,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   a.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiryDuration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}

// ValidateToken validates a JWT token and returns the claims
func (s *JWTService) ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
	)
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, jwt.ErrTokenMalformed
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok {
		return nil, jwt.ErrTokenInvalidClaims
	}

	return claims, nil
}
