// Package jwt signs and verifies session tokens.
package jwt

import (
	"time"

	"github.com/Laisky/errors/v2"
	gutils "github.com/Laisky/go-utils/v6"
	"github.com/golang-jwt/jwt/v5"
)

const issuer = "laisky-portfolio"

// ErrInvalidToken is returned for malformed, forged or expired tokens
var ErrInvalidToken = errors.New("invalid token")

// JWT signs session tokens with HS256
type JWT struct {
	secret []byte
	now    func() time.Time
}

// New creates a signer, secret must not be empty
func New(secret []byte) (*JWT, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwt secret cannot be empty")
	}

	return &JWT{
		secret: secret,
		now:    gutils.Clock.GetUTCNow,
	}, nil
}

// Sign issues a token for sessionID valid for ttl
func (j *JWT) Sign(sessionID string, ttl time.Duration) (string, error) {
	now := j.now()
	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}

	return token, nil
}

// Parse verifies token and returns its claims
func (j *JWT) Parse(token string) (*SessionClaims, error) {
	claims := new(SessionClaims)
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return j.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidToken, err.Error())
	}
	if claims.Subject == "" {
		return nil, errors.Wrap(ErrInvalidToken, "empty subject")
	}

	return claims, nil
}
