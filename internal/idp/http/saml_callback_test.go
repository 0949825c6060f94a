package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/idp/domain"
	"github.com/aussiebroadwan/gatehouse/pkg/idx"
	"github.com/aussiebroadwan/gatehouse/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func assertion(t *testing.T, claims jwtx.Claims, sc jwtx.SigningContext) string {
	t.Helper()
	token, err := jwtx.Sign(claims, "", sc)
	require.NoError(t, err)
	return token
}

func authenticatedClaims(subject, state string) jwtx.Claims {
	now := time.Now()
	return jwtx.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "https://id.example.com",
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(5 * time.Minute)),
		},
		Status:     string(domain.AssertionAuthenticated),
		ResponseID: idx.New().String(),
		State:      state,
	}
}

func getCallback(r *Router, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/v1/saml/callback?jwtResponse="+url.QueryEscape(token), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSamlCallback(t *testing.T) {
	accountHref := "https://api.example.com/v1/accounts/alice"

	t.Run("authenticated assertion sets a session and redirects to state", func(t *testing.T) {
		_, r := newTestRouter(t)

		token := assertion(t, authenticatedClaims(accountHref, "/dashboard"), testSigning)
		w := getCallback(r, token)

		require.Equal(t, http.StatusFound, w.Code)
		require.Equal(t, "/dashboard", w.Header().Get("Location"))

		var access, refresh string
		for _, c := range w.Result().Cookies() {
			switch c.Name {
			case "gh_access":
				access = c.Value
			case "gh_refresh":
				refresh = c.Value
			}
		}
		require.NotEmpty(t, access)
		require.NotEmpty(t, refresh)

		claims, err := jwtx.Verify(access, jwtx.StaticKey(testSigning), jwtx.VerifyOptions{
			Issuer:    testIssuer,
			TokenType: jwtx.TokenTypeAccess,
		})
		require.NoError(t, err)
		require.Equal(t, accountHref, claims.Subject)
	})

	t.Run("without state the result body is returned", func(t *testing.T) {
		_, r := newTestRouter(t)

		w := getCallback(r, assertion(t, authenticatedClaims(accountHref, ""), testSigning))

		require.Equal(t, http.StatusOK, w.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.Equal(t, string(domain.AssertionAuthenticated), body["status"])
		require.Equal(t, accountHref, body["account"])
	})

	t.Run("logout clears the session cookies", func(t *testing.T) {
		_, r := newTestRouter(t)

		claims := authenticatedClaims("", "")
		claims.Status = string(domain.AssertionLogout)
		w := getCallback(r, assertion(t, claims, testSigning))

		require.Equal(t, http.StatusOK, w.Code)
		for _, c := range w.Result().Cookies() {
			require.Negative(t, c.MaxAge)
		}
	})

	t.Run("replayed assertion conflicts", func(t *testing.T) {
		_, r := newTestRouter(t)
		token := assertion(t, authenticatedClaims(accountHref, ""), testSigning)

		require.Equal(t, http.StatusOK, getCallback(r, token).Code)

		w := getCallback(r, token)
		require.Equal(t, http.StatusConflict, w.Code)
		require.Equal(t, "replayed_assertion", decodeErrorCode(t, w))
	})

	t.Run("expired assertion", func(t *testing.T) {
		_, r := newTestRouter(t)

		claims := authenticatedClaims(accountHref, "")
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
		w := getCallback(r, assertion(t, claims, testSigning))

		require.Equal(t, http.StatusUnauthorized, w.Code)
		require.Equal(t, "expired_assertion", decodeErrorCode(t, w))
	})

	t.Run("foreign signing key", func(t *testing.T) {
		_, r := newTestRouter(t)

		foreign := jwtx.SigningContext{KID: "someone-else", Key: testSigning.Key}
		w := getCallback(r, assertion(t, authenticatedClaims(accountHref, ""), foreign))

		require.Equal(t, http.StatusUnauthorized, w.Code)
		require.Equal(t, "invalid_assertion", decodeErrorCode(t, w))
	})

	t.Run("embedded provider error", func(t *testing.T) {
		_, r := newTestRouter(t)

		claims := authenticatedClaims(accountHref, "")
		claims.Error = &jwtx.AssertionError{Code: 11001, Message: "session revoked"}
		w := getCallback(r, assertion(t, claims, testSigning))

		require.Equal(t, http.StatusBadGateway, w.Code)
		require.Equal(t, "federation_error", decodeErrorCode(t, w))
	})

	t.Run("missing jwtResponse parameter", func(t *testing.T) {
		_, r := newTestRouter(t)

		req := httptest.NewRequest("GET", "/v1/saml/callback", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}
