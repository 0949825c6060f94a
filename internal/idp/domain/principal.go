package domain

// Status of a resource on the identity provider.
type Status string

const (
	StatusEnabled  Status = "ENABLED"
	StatusDisabled Status = "DISABLED"
)

// Account is a person or service identity owned by the provider.
type Account struct {
	Href      string `json:"href"`
	Username  string `json:"username,omitempty"`
	Email     string `json:"email,omitempty"`
	GivenName string `json:"givenName,omitempty"`
	Surname   string `json:"surname,omitempty"`
	Status    Status `json:"status"`
}

func (a Account) Enabled() bool { return a.Status == StatusEnabled }

// APIKey is a client credential pair owned by an Account.
type APIKey struct {
	ID      string  `json:"id"`
	Secret  string  `json:"secret,omitempty"`
	Status  Status  `json:"status"`
	Account Account `json:"account"`
}

func (k APIKey) Enabled() bool { return k.Status == StatusEnabled }

// Application is the tenant application tokens are issued for. Its href
// is the issuer claim of every token this client mints.
type Application struct {
	Href string `json:"href"`
	Name string `json:"name,omitempty"`
}

// Principal is the authenticated identity a credential resolves to: an
// API key id or an account href, with its owning account. A token may
// only be issued for, or validated against, a principal whose account
// and credential are both enabled.
type Principal struct {
	// ID is the token subject: the API key id for client principals,
	// the account href for password-authenticated principals.
	ID string

	Account Account
}
