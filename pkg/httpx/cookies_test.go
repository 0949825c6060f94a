package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/gatehouse/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func sessionCookies() *httpx.SessionCookies {
	return &httpx.SessionCookies{
		Access:  httpx.CookieConfig{Name: "access_token", HTTPOnly: true, Secure: true, MaxAge: 3600},
		Refresh: httpx.CookieConfig{Name: "refresh_token", HTTPOnly: true, Secure: true, MaxAge: 86400},
	}
}

func cookieByName(res *http.Response, name string) *http.Cookie {
	for _, c := range res.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestSessionCookiesWriteAndClear(t *testing.T) {
	t.Parallel()

	sc := sessionCookies()

	t.Run("write pair", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "https://app.example.com/", nil)

		sc.WriteAccess(w, r, "at-1")
		sc.WriteRefresh(w, r, "rt-1")

		res := w.Result()
		at := cookieByName(res, "access_token")
		require.NotNil(t, at)
		require.Equal(t, "at-1", at.Value)
		require.True(t, at.HttpOnly)
		require.True(t, at.Secure)

		rt := cookieByName(res, "refresh_token")
		require.NotNil(t, rt)
		require.Equal(t, "rt-1", rt.Value)
	})

	t.Run("clear expires both", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "https://app.example.com/", nil)

		sc.Clear(w, r)

		res := w.Result()
		for _, name := range []string{"access_token", "refresh_token"} {
			c := cookieByName(res, name)
			require.NotNil(t, c)
			require.Empty(t, c.Value)
			require.Negative(t, c.MaxAge)
		}
	})

	t.Run("secure dropped for localhost", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "http://localhost:8080/", nil)

		sc.WriteAccess(w, r, "at-2")

		c := cookieByName(w.Result(), "access_token")
		require.NotNil(t, c)
		require.False(t, c.Secure)
	})

	t.Run("skipped after response committed", func(t *testing.T) {
		rec := httptest.NewRecorder()
		w := httpx.Wrap(rec)
		r := httptest.NewRequest("GET", "https://app.example.com/", nil)

		w.WriteHeader(http.StatusOK)
		sc.WriteAccess(w, r, "too-late")

		require.Nil(t, cookieByName(rec.Result(), "access_token"))
	})
}

func TestDefaultSecureEvaluator(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		"https://app.example.com/": true,
		"http://localhost/":        false,
		"http://localhost:3000/":   false,
		"http://127.0.0.1:8080/":   false,
		"http://app.localhost/":    false,
		"http://10.0.0.5/":         true,
	}
	for url, want := range cases {
		r := httptest.NewRequest("GET", url, nil)
		require.Equal(t, want, httpx.DefaultSecureEvaluator(r), url)
	}
}

func TestReadCookies(t *testing.T) {
	t.Parallel()

	sc := sessionCookies()
	r := httptest.NewRequest("GET", "/", nil)
	r.AddCookie(&http.Cookie{Name: "access_token", Value: "at"})
	r.AddCookie(&http.Cookie{Name: "refresh_token", Value: "rt"})

	require.Equal(t, "at", sc.ReadAccess(r))
	require.Equal(t, "rt", sc.ReadRefresh(r))

	empty := httptest.NewRequest("GET", "/", nil)
	require.Empty(t, sc.ReadAccess(empty))
}
