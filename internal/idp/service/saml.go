package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/idp/domain"
	"github.com/aussiebroadwan/gatehouse/internal/idp/store"
	"github.com/aussiebroadwan/gatehouse/pkg/jwtx"
	"github.com/aussiebroadwan/gatehouse/pkg/slogx"
)

// FederationError surfaces a structured failure the identity provider
// embedded in an otherwise well-signed callback.
type FederationError struct {
	Code             int
	Status           int
	Message          string
	DeveloperMessage string
	MoreInfo         string
}

func (e *FederationError) Error() string {
	return fmt.Sprintf("federation error %d: %s", e.Code, e.Message)
}

// AssertionListener receives verified assertion outcomes. Callbacks run
// synchronously on the request goroutine; slow work belongs elsewhere.
type AssertionListener struct {
	OnAuthenticated func(ctx context.Context, result domain.AssertionResult)
	OnLogout        func(ctx context.Context, result domain.AssertionResult)
}

// SamlProcessor verifies JWT-encoded assertion callbacks posted back by
// the identity provider after a federated login. Each callback is
// single-use: its response id goes through the nonce store before any
// listener fires.
type SamlProcessor struct {
	Signing jwtx.SigningContext
	Nonces  store.Nonces

	mu        sync.RWMutex
	listeners []AssertionListener

	now func() time.Time
}

func NewSamlProcessor(signing jwtx.SigningContext, nonces store.Nonces) *SamlProcessor {
	return &SamlProcessor{Signing: signing, Nonces: nonces, now: time.Now}
}

func (s *SamlProcessor) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// AddListener registers a callback set for future assertions.
func (s *SamlProcessor) AddListener(l AssertionListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Process verifies the assertion token and dispatches its outcome.
//
// The checks run in a fixed order so every failure is attributable:
// structure, key binding, signature, expiry, embedded error, claim
// shape, then replay.
func (s *SamlProcessor) Process(ctx context.Context, token string) (domain.AssertionResult, error) {
	l := slogx.FromContext(ctx)

	header, _, err := jwtx.Parse(token)
	if err != nil {
		return domain.AssertionResult{}, ErrInvalidAssertion
	}

	// Assertions must be signed with this client's own key; a callback
	// naming any other kid was not meant for us.
	if header.KID != s.Signing.KID {
		l.Info("assertion rejected: foreign kid", slog.String("kid", header.KID))
		return domain.AssertionResult{}, ErrInvalidIssuerKey
	}

	claims, err := jwtx.Verify(token, jwtx.StaticKey(s.Signing), jwtx.VerifyOptions{})
	if err != nil {
		return domain.AssertionResult{}, ErrInvalidAssertion
	}

	if err := claims.ValidateExpiry(s.clock()); err != nil {
		if errors.Is(err, jwtx.ErrExpired) {
			return domain.AssertionResult{}, ErrExpiredAssertion
		}
		return domain.AssertionResult{}, ErrInvalidAssertion
	}

	if claims.Error != nil {
		return domain.AssertionResult{}, &FederationError{
			Code:             claims.Error.Code,
			Status:           claims.Error.Status,
			Message:          claims.Error.Message,
			DeveloperMessage: claims.Error.DeveloperMessage,
			MoreInfo:         claims.Error.MoreInfo,
		}
	}

	if claims.ResponseID == "" {
		return domain.AssertionResult{}, ErrMissingClaim
	}

	status := domain.AssertionStatus(claims.Status)
	switch status {
	case domain.AssertionAuthenticated, domain.AssertionLogout:
	default:
		return domain.AssertionResult{}, ErrInvalidAssertion
	}

	// The subject is the authenticated account href. Logout callbacks
	// may arrive subjectless when the provider session already ended.
	if claims.Subject == "" && status != domain.AssertionLogout {
		return domain.AssertionResult{}, ErrMissingClaim
	}

	// The nonce is consumed last: a malformed callback must stay
	// re-presentable after the provider corrects it.
	expiresAt := s.clock().Add(jwtx.DefaultAccessTokenTTL)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := s.Nonces.CheckAndInsert(ctx, "assertion:"+claims.ResponseID, expiresAt); err != nil {
		if errors.Is(err, store.ErrReplayed) {
			l.Warn("assertion replayed", slog.String("irt", claims.ResponseID))
			return domain.AssertionResult{}, ErrReplayedAssertion
		}
		return domain.AssertionResult{}, err
	}

	result := domain.AssertionResult{
		Status:       status,
		AccountHref:  claims.Subject,
		IsNewAccount: claims.IsNewSubject,
		State:        claims.State,
	}

	s.dispatch(ctx, result)
	return result, nil
}

func (s *SamlProcessor) dispatch(ctx context.Context, result domain.AssertionResult) {
	s.mu.RLock()
	listeners := s.listeners
	s.mu.RUnlock()

	for _, l := range listeners {
		switch result.Status {
		case domain.AssertionAuthenticated:
			if l.OnAuthenticated != nil {
				l.OnAuthenticated(ctx, result)
			}
		case domain.AssertionLogout:
			if l.OnLogout != nil {
				l.OnLogout(ctx, result)
			}
		}
	}
}
