package domain

// GrantType is the OAuth2 exchange kind requested at the token endpoint.
type GrantType string

const (
	GrantClientCredentials GrantType = "client_credentials"
	GrantPassword          GrantType = "password"
	GrantRefreshToken      GrantType = "refresh_token"
)

// GrantRequest is a tagged variant over the supported grants. Only the
// fields of the tagged variant are meaningful; dispatch is a single
// switch on Type rather than runtime type inspection.
type GrantRequest struct {
	Type GrantType

	// client_credentials
	ClientID     string
	ClientSecret string

	// password
	Username string
	Password string

	// refresh_token
	RefreshToken string

	// Optional for all variants.
	AccountStoreHref string
	RequestedScope   []string
}
