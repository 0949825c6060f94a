package jwtx_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/gatehouse/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestValidateExpiry(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()

	t.Run("valid token", func(t *testing.T) {
		claims := &jwtx.Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(now.Add(1 * time.Minute)),
			},
		}
		require.NoError(t, claims.ValidateExpiry(now))
	})

	t.Run("expired token", func(t *testing.T) {
		claims := &jwtx.Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(now.Add(-1 * time.Minute)),
			},
		}
		require.ErrorIs(t, claims.ValidateExpiry(now), jwtx.ErrExpired)
	})

	t.Run("expiry is exclusive", func(t *testing.T) {
		// A token whose exp equals the current instant is already expired.
		claims := &jwtx.Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(now),
			},
		}
		require.ErrorIs(t, claims.ValidateExpiry(now), jwtx.ErrExpired)
	})

	t.Run("not yet valid", func(t *testing.T) {
		claims := &jwtx.Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				NotBefore: jwt.NewNumericDate(now.Add(1 * time.Minute)),
				ExpiresAt: jwt.NewNumericDate(now.Add(2 * time.Minute)),
			},
		}
		require.ErrorIs(t, claims.ValidateExpiry(now), jwtx.ErrNotYetValid)
	})

	t.Run("no expiry claim", func(t *testing.T) {
		claims := &jwtx.Claims{}
		require.NoError(t, claims.ValidateExpiry(now))
	})
}

func TestScopeSet(t *testing.T) {
	t.Parallel()

	t.Run("preserves order", func(t *testing.T) {
		c := &jwtx.Claims{Scope: "write read admin"}
		require.Equal(t, []string{"write", "read", "admin"}, c.ScopeSet())
	})

	t.Run("absent claim is empty", func(t *testing.T) {
		c := &jwtx.Claims{}
		require.Nil(t, c.ScopeSet())
	})

	t.Run("whitespace only is empty", func(t *testing.T) {
		c := &jwtx.Claims{Scope: "   "}
		require.Nil(t, c.ScopeSet())
	})
}

func TestNewAccessClaims(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC().Truncate(time.Second)
	c := jwtx.NewAccessClaims("issuer", "subject", []string{"read", "write"}, time.Hour, now)

	require.Equal(t, "issuer", c.Issuer)
	require.Equal(t, "subject", c.Subject)
	require.Equal(t, "read write", c.Scope)
	require.Equal(t, now.Unix(), c.IssuedAt.Unix())
	require.Equal(t, now.Add(time.Hour).Unix(), c.ExpiresAt.Unix())
	require.Empty(t, c.ID, "access tokens carry no jti")
}
