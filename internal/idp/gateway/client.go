package gateway

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/idp/domain"
	"github.com/go-resty/resty/v2"
)

const defaultTimeout = 10 * time.Second

// Config for the REST client.
type Config struct {
	// BaseURL of the provider's API, e.g. "https://api.example.com/v1".
	BaseURL string

	// ApplicationHref is the tenant application all login attempts are
	// posted against.
	ApplicationHref string

	// APIKeyID and APIKeySecret authenticate this client to the provider.
	APIKeyID     string
	APIKeySecret string

	Timeout time.Duration
}

// Client is the resty-backed Resources implementation.
type Client struct {
	rc              *resty.Client
	applicationHref string
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	rc := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetBasicAuth(cfg.APIKeyID, cfg.APIKeySecret).
		SetHeader("Accept", "application/json")

	return &Client{rc: rc, applicationHref: cfg.ApplicationHref}
}

// GetAPIKey fetches an API key by id with its owning account expanded,
// so enabled checks need no second round trip.
func (c *Client) GetAPIKey(ctx context.Context, id string) (domain.APIKey, error) {
	var key domain.APIKey

	resp, err := c.rc.R().
		SetContext(ctx).
		SetQueryParam("expand", "account").
		SetResult(&key).
		Get("/apiKeys/" + id)
	if err != nil {
		return domain.APIKey{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if err := statusError(resp); err != nil {
		return domain.APIKey{}, err
	}

	return key, nil
}

// GetAccount fetches an account by href. Hrefs are absolute URLs handed
// out by the provider, so they bypass the configured base URL.
func (c *Client) GetAccount(ctx context.Context, href string) (domain.Account, error) {
	var account domain.Account

	resp, err := c.rc.R().
		SetContext(ctx).
		SetResult(&account).
		Get(href)
	if err != nil {
		return domain.Account{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if err := statusError(resp); err != nil {
		return domain.Account{}, err
	}

	return account, nil
}

// loginAttemptBody is the provider's wire format for login attempts: the
// credentials ride as base64("login:password") under a basic type tag.
type loginAttemptBody struct {
	Type         string         `json:"type"`
	Value        string         `json:"value"`
	AccountStore *resourceByRef `json:"accountStore,omitempty"`
}

type resourceByRef struct {
	Href string `json:"href"`
}

type loginAttemptResult struct {
	Account domain.Account `json:"account"`
}

// VerifyLogin posts a login attempt against the application and returns
// the authenticated account.
func (c *Client) VerifyLogin(ctx context.Context, attempt LoginAttempt) (domain.Account, error) {
	body := loginAttemptBody{
		Type:  "basic",
		Value: base64.StdEncoding.EncodeToString([]byte(attempt.Login + ":" + attempt.Password)),
	}
	if attempt.AccountStoreHref != "" {
		body.AccountStore = &resourceByRef{Href: attempt.AccountStoreHref}
	}

	var result loginAttemptResult

	resp, err := c.rc.R().
		SetContext(ctx).
		SetQueryParam("expand", "account").
		SetBody(body).
		SetResult(&result).
		Post(c.applicationHref + "/loginAttempts")
	if err != nil {
		return domain.Account{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	if resp.StatusCode() == http.StatusBadRequest || resp.StatusCode() == http.StatusUnauthorized {
		return domain.Account{}, ErrInvalidLogin
	}
	if err := statusError(resp); err != nil {
		return domain.Account{}, err
	}

	return result.Account, nil
}

func statusError(resp *resty.Response) error {
	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode() >= http.StatusBadRequest:
		return fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode())
	}
	return nil
}
