package jwtx

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrAlgMismatch = errors.New("jwtx: algorithm mismatch")
	ErrUnknownKID  = errors.New("jwtx: unknown kid")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")
	ErrTokenType   = errors.New("jwtx: token type mismatch")

	ErrIssuer      = errors.New("jwtx: issuer mismatch")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
)

// TokenType distinguishes access tokens from refresh tokens at the
// signature level via the "stt" header, so one can never be presented
// where the other is expected.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// SigningContext carries the symmetric key material for one trust
// relationship. There is no process-wide signing state; every Sign and
// Verify call receives its context explicitly.
type SigningContext struct {
	// KID identifies the key, typically the owning API key id. It is
	// written into the "kid" header on sign and matched on verify.
	KID string

	// Key is the raw HMAC-SHA256 secret.
	Key []byte
}

// Header is the decoded JOSE header of a compact token, reduced to the
// fields this codec acts on.
type Header struct {
	Alg       string
	KID       string
	TokenType TokenType
}

// KeyResolver maps a token header to the verification key. It enables
// per-issuer key lookup: resolvers reject unknown kids with ErrUnknownKID.
type KeyResolver func(Header) (SigningContext, error)

// StaticKey returns a KeyResolver bound to a single signing context.
// Tokens naming any other kid are rejected.
func StaticKey(sc SigningContext) KeyResolver {
	return func(h Header) (SigningContext, error) {
		if h.KID != sc.KID {
			return SigningContext{}, ErrUnknownKID
		}
		return sc, nil
	}
}

// VerifyOptions captures common expectations used by Verify.
type VerifyOptions struct {
	// Issuer the token must have (claims.iss). Empty means "don't care".
	Issuer string

	// TokenType the "stt" header must carry. Empty means "don't care".
	// A token without an "stt" header is treated as an access token, so
	// legacy access tokens still verify but never pass for refresh.
	TokenType TokenType
}

// Sign produces a compact HS256 JWT over the given claims. It is
// deterministic for identical inputs and fails only when a claim value
// cannot be encoded.
func Sign(claims Claims, tt TokenType, sc SigningContext) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tok.Header["kid"] = sc.KID
	if tt != "" {
		tok.Header["stt"] = string(tt)
	}
	return tok.SignedString(sc.Key)
}

// Parse structurally decodes a compact token without verifying the
// signature. Callers that need the header before trusting the token
// (key binding, token-type routing) use this, then Verify.
func Parse(token string) (Header, Claims, error) {
	var claims Claims
	t, _, err := jwt.NewParser().ParseUnverified(token, &claims)
	if err != nil {
		return Header{}, Claims{}, ErrMalformed
	}
	return headerOf(t), claims, nil
}

// Verify checks the token structure, resolves the verification key via
// the resolver, and recomputes the HMAC (constant-time compare inside
// the jwt library). Claims beyond the options are returned unvalidated;
// expiry is the caller's call so it can map the failure precisely.
func Verify(token string, resolve KeyResolver, opts VerifyOptions) (Claims, error) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())

	var claims Claims
	_, err := parser.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			// Asymmetric and "none" algorithms are rejected outright,
			// never downgraded.
			return nil, ErrAlgMismatch
		}
		hdr := headerOf(t)
		if opts.TokenType != "" && hdr.TokenType != opts.TokenType {
			return nil, ErrTokenType
		}
		sc, err := resolve(hdr)
		if err != nil {
			return nil, err
		}
		return sc.Key, nil
	})
	if err != nil {
		return Claims{}, mapParseError(err)
	}

	if err := claims.ValidateIssuer(opts.Issuer); err != nil {
		return Claims{}, err
	}

	return claims, nil
}

func headerOf(t *jwt.Token) Header {
	h := Header{Alg: t.Method.Alg(), TokenType: TokenTypeAccess}
	if kid, ok := t.Header["kid"].(string); ok {
		h.KID = kid
	}
	if stt, ok := t.Header["stt"].(string); ok {
		h.TokenType = TokenType(stt)
	}
	return h
}

// mapParseError reduces the jwt library's error surface to this
// package's sentinels, preserving resolver errors verbatim.
func mapParseError(err error) error {
	switch {
	case errors.Is(err, ErrAlgMismatch),
		errors.Is(err, ErrTokenType),
		errors.Is(err, ErrUnknownKID):
		return err
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSig
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		// Keyfunc failures other than our sentinels end up here.
		if resolved := unwrapSentinel(err); resolved != nil {
			return resolved
		}
		return ErrInvalidSig
	default:
		return ErrMalformed
	}
}

func unwrapSentinel(err error) error {
	for _, s := range []error{ErrAlgMismatch, ErrTokenType, ErrUnknownKID} {
		if errors.Is(err, s) {
			return s
		}
	}
	return nil
}

// IsCompact reports whether s is shaped like a compact JWT, i.e. three
// dot-separated segments. Used to route between token formats without
// attempting a full parse.
func IsCompact(s string) bool {
	return strings.Count(s, ".") == 2
}
