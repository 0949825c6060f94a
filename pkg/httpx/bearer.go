package httpx

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
)

var (
	// ErrNoToken no bearer token was present at any allowed location.
	ErrNoToken = errors.New("httpx: no bearer token")

	// ErrMissingCredentials the Authorization header is absent or empty.
	ErrMissingCredentials = errors.New("httpx: missing credentials")

	// ErrUnsupportedScheme the Authorization header names a scheme other
	// than Basic or Bearer.
	ErrUnsupportedScheme = errors.New("httpx: unsupported authorization scheme")
)

// TokenLocation names a place a bearer token may be presented.
type TokenLocation string

const (
	LocationHeader TokenLocation = "header" // Authorization: Bearer <token>
	LocationBody   TokenLocation = "body"   // access_token form field
	LocationQuery  TokenLocation = "query"  // access_token query parameter
)

// DefaultTokenLocations are checked in order when the caller does not
// configure its own set. Query is excluded by default since tokens in
// URLs end up in access logs.
var DefaultTokenLocations = []TokenLocation{LocationHeader, LocationBody}

// ExtractBearer finds a bearer token in the request, checking the given
// locations in order. Returns ErrNoToken when none carries one.
func ExtractBearer(r *http.Request, locations ...TokenLocation) (string, error) {
	if len(locations) == 0 {
		locations = DefaultTokenLocations
	}

	for _, loc := range locations {
		switch loc {
		case LocationHeader:
			authz := r.Header.Get("Authorization")
			if strings.HasPrefix(authz, "Bearer ") {
				if tok := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer")); tok != "" {
					return tok, nil
				}
			}
		case LocationBody:
			if r.Body != nil {
				_ = r.ParseForm()
				if tok := strings.TrimSpace(r.PostForm.Get("access_token")); tok != "" {
					return tok, nil
				}
			}
		case LocationQuery:
			if tok := strings.TrimSpace(r.URL.Query().Get("access_token")); tok != "" {
				return tok, nil
			}
		}
	}

	return "", ErrNoToken
}

// BasicCredentials parses an Authorization: Basic header into id and
// secret. A present-but-different scheme is ErrUnsupportedScheme so
// callers can distinguish "no credentials" from "wrong kind".
func BasicCredentials(r *http.Request) (id, secret string, err error) {
	authz := strings.TrimSpace(r.Header.Get("Authorization"))
	if authz == "" {
		return "", "", ErrMissingCredentials
	}

	scheme, rest, found := strings.Cut(authz, " ")
	if !found || !strings.EqualFold(scheme, "Basic") {
		return "", "", ErrUnsupportedScheme
	}

	raw, decErr := base64.StdEncoding.DecodeString(strings.TrimSpace(rest))
	if decErr != nil {
		return "", "", ErrMissingCredentials
	}

	id, secret, found = strings.Cut(string(raw), ":")
	if !found || id == "" {
		return "", "", ErrMissingCredentials
	}

	return id, secret, nil
}
