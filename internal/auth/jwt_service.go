package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v4"
)

// Claims represents the bearer token claims issued by the external Auth service.
// Older tokens carry the user identifier in "id" instead of "sub".
type Claims struct {
	UserID string `json:"id,omitempty"`
	jwt.RegisteredClaims
}

// SubjectID returns the identifier of the user the token was issued for.
func (c *Claims) SubjectID() string {
	if c.Subject != "" {
		return c.Subject
	}
	return c.UserID
}

// JWTService validates bearer tokens signed with a shared secret. Issuing
// tokens is the Auth service's job, so there is no signing counterpart here.
type JWTService struct {
	secret []byte
}

// NewJWTService creates a new JWT service with the given secret.
func NewJWTService(secret string) *JWTService {
	return &JWTService{
		secret: []byte(secret),
	}
}

// ValidateToken checks signature and expiry and returns the claims.
// It returns ErrTokenExpired for an expired token and ErrTokenInvalid for
// anything else that fails validation.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		if isOnlyExpired(err) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.SubjectID() == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// isOnlyExpired reports whether a correctly signed token failed solely on its
// expiry. Claims are checked before the signature, so a forged token can carry
// the expired flag too.
func isOnlyExpired(err error) bool {
	var ve *jwt.ValidationError
	if !errors.As(err, &ve) {
		return false
	}
	if ve.Errors&(jwt.ValidationErrorSignatureInvalid|jwt.ValidationErrorMalformed|jwt.ValidationErrorUnverifiable) != 0 {
		return false
	}
	return ve.Errors&jwt.ValidationErrorExpired != 0
}
