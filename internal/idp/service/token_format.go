package service

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/gatehouse/pkg/cryptox"
	"github.com/aussiebroadwan/gatehouse/pkg/jwtx"
)

// TokenFormat names how an access token is encoded on the wire.
type TokenFormat int

const (
	// FormatJWT is the compact three-segment signed token.
	FormatJWT TokenFormat = iota

	// FormatLegacy is the older opaque encoding still accepted during
	// migration: base64url("keyID:expUnix:tag") where tag is an HMAC over
	// the first two fields.
	FormatLegacy
)

// DetectTokenFormat routes a presented token to its parser without
// attempting a full parse.
func DetectTokenFormat(token string) TokenFormat {
	if jwtx.IsCompact(token) {
		return FormatJWT
	}
	return FormatLegacy
}

// legacyToken is the decoded form of an opaque access token. Legacy
// tokens carry no scope; scope-gated calls made with one are denied at
// the scope check, not here.
type legacyToken struct {
	KeyID     string
	ExpiresAt time.Time
}

func parseLegacyToken(raw string, key []byte) (legacyToken, error) {
	decoded, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return legacyToken{}, ErrInvalidAccessToken
	}

	parts := strings.Split(string(decoded), ":")
	if len(parts) != 3 {
		return legacyToken{}, ErrInvalidAccessToken
	}

	msg := parts[0] + ":" + parts[1]
	if !cryptox.VerifyHMAC(key, msg, parts[2]) {
		return legacyToken{}, ErrInvalidAccessToken
	}

	exp, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return legacyToken{}, ErrInvalidAccessToken
	}

	return legacyToken{KeyID: parts[0], ExpiresAt: time.Unix(exp, 0)}, nil
}

// EncodeLegacyToken produces an opaque access token in the legacy
// format. Only migration tooling and tests mint these; the token
// endpoint always issues JWTs.
func EncodeLegacyToken(keyID string, expiresAt time.Time, key []byte) string {
	msg := fmt.Sprintf("%s:%d", keyID, expiresAt.Unix())
	tag := cryptox.SignHMAC(key, msg)
	return base64.RawURLEncoding.EncodeToString([]byte(msg + ":" + tag))
}
