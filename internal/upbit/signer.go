package upbit

import (
	"crypto/sha512"
	"encoding/hex"
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrNoCredentials = errors.New("upbit credentials are not configured")

// Signer issues the per-request bearer tokens Upbit requires on private endpoints.
type Signer struct {
	accessKey string
	secretKey []byte
	nonce     func() string
}

func NewSigner(accessKey, secretKey string) (*Signer, error) {
	if accessKey == "" || secretKey == "" {
		return nil, ErrNoCredentials
	}
	return &Signer{accessKey: accessKey, secretKey: []byte(secretKey), nonce: uuid.NewString}, nil
}

// Token signs an HS256 JWT. A non-empty query is bound to the token by its SHA512 hash.
func (s *Signer) Token(query string) (string, error) {
	if s == nil {
		return "", ErrNoCredentials
	}
	claims := jwt.MapClaims{
		"access_key": s.accessKey,
		"nonce":      s.nonce(),
	}
	if query != "" {
		sum := sha512.Sum512([]byte(query))
		claims["query_hash"] = hex.EncodeToString(sum[:])
		claims["query_hash_alg"] = "SHA512"
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secretKey)
}
