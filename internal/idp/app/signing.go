package app

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/gatehouse/pkg/jwtx"
)

const minSecretBytes = 16

var (
	ErrMissingAPIKey = errors.New("app: api key id and secret are required")
	ErrWeakSecret    = errors.New("app: api key secret is too short for HMAC signing")
)

// SigningContextFromConfig builds the client's signing context. The API
// key secret doubles as the HMAC key; deployments whose provider hands
// out base64-encoded secrets set SecretEncoding accordingly so the raw
// bytes are signed with, not their encoding.
func SigningContextFromConfig(cfg Config) (jwtx.SigningContext, error) {
	if cfg.APIKeyID == "" || cfg.APIKeySecret == "" {
		return jwtx.SigningContext{}, ErrMissingAPIKey
	}

	var key []byte
	switch cfg.SecretEncoding {
	case "", "plain":
		key = []byte(cfg.APIKeySecret)
	case "base64":
		decoded, err := base64.StdEncoding.DecodeString(cfg.APIKeySecret)
		if err != nil {
			return jwtx.SigningContext{}, fmt.Errorf("app: decoding api key secret: %w", err)
		}
		key = decoded
	default:
		return jwtx.SigningContext{}, fmt.Errorf("app: unknown secret encoding %q", cfg.SecretEncoding)
	}

	if len(key) < minSecretBytes {
		return jwtx.SigningContext{}, ErrWeakSecret
	}

	return jwtx.SigningContext{KID: cfg.APIKeyID, Key: key}, nil
}
