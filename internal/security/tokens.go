package security

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer is the fixed iss claim of every token this service mints.
const Issuer = "urn:passport"

// TokenType distinguishes access tokens from refresh tokens.
type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

var (
	// ErrBadToken is returned for malformed tokens, bad signatures, a wrong
	// issuer, a wrong token_type claim, or an unusable subject.
	ErrBadToken = errors.New("bad token")
	// ErrTokenExpired is returned for correctly signed tokens past their expiry.
	ErrTokenExpired = errors.New("token expired")
)

// Identity is the claim-derived view of a user. Only the key and email survive
// the round trip through a token; every other user field must be re-fetched
// from storage.
type Identity struct {
	Key   int64
	Email string
}

// Claims is the canonical claim shape: sub carries the user key as a decimal
// string, email is denormalized for display without a store round-trip.
type Claims struct {
	jwt.RegisteredClaims
	Email     string `json:"email"`
	TokenType string `json:"token_type"`
}

// Codec encodes and decodes signed token claims using an asymmetric key pair
// (RS256 for RSA, ES256 for ECDSA). It holds no mutable state and is safe for
// unlimited concurrent use.
type Codec struct {
	privateKey crypto.Signer
	publicKey  crypto.PublicKey
	method     jwt.SigningMethod
}

// NewCodec returns a Codec signing with privateKey and verifying with
// publicKey. The signing algorithm follows the key type; unsupported key
// types yield ErrInvalidKey.
func NewCodec(privateKey crypto.Signer, publicKey crypto.PublicKey) (*Codec, error) {
	var method jwt.SigningMethod
	switch privateKey.Public().(type) {
	case *rsa.PublicKey:
		method = jwt.SigningMethodRS256
	case *ecdsa.PublicKey:
		method = jwt.SigningMethodES256
	default:
		return nil, ErrInvalidKey
	}
	return &Codec{privateKey: privateKey, publicKey: publicKey, method: method}, nil
}

// Generate mints a signed token of the given type for the user identified by
// key/email, valid for ttl from now.
func (c *Codec) Generate(key int64, email string, tokenType TokenType, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(key, 10),
			Issuer:    Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email:     email,
		TokenType: string(tokenType),
	}
	return jwt.NewWithClaims(c.method, claims).SignedString(c.privateKey)
}

// Decode verifies the signature, issuer, token_type, and expiry of token and
// returns the claim-derived identity. Expired-but-valid tokens yield
// ErrTokenExpired; every other failure yields ErrBadToken.
func (c *Codec) Decode(token string, expected TokenType) (*Identity, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		switch t.Method.(type) {
		case *jwt.SigningMethodRSA, *jwt.SigningMethodECDSA:
			return c.publicKey, nil
		default:
			return nil, ErrBadToken
		}
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrBadToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrBadToken
	}
	if claims.Issuer != Issuer {
		return nil, ErrBadToken
	}
	if claims.TokenType != string(expected) {
		return nil, ErrBadToken
	}
	key, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrBadToken
	}
	return &Identity{Key: key, Email: claims.Email}, nil
}
