package domain

// TokenTypeBearer is the only token_type this client issues.
const TokenTypeBearer = "bearer"

// TokenResponse is what a successful grant returns. Created once per
// grant and never mutated.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"` // seconds until access token expiry
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"` // space-delimited
}

// AuthResult is the outcome of authenticating a presented credential:
// the resolved principal, its API key when one was involved, and the
// granted scope set in grant order.
type AuthResult struct {
	Principal Principal
	Key       APIKey
	Scopes    []string
}

// HasScope reports whether the result grants the named scope.
func (r AuthResult) HasScope(scope string) bool {
	for _, s := range r.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}
