package domain

// AssertionStatus is the outcome a federation callback asserts.
type AssertionStatus string

const (
	AssertionAuthenticated AssertionStatus = "AUTHENTICATED"
	AssertionLogout        AssertionStatus = "LOGOUT"
)

// AssertionResult is the typed outcome of a verified federation
// callback. AccountHref is empty only for LOGOUT results.
type AssertionResult struct {
	Status       AssertionStatus
	AccountHref  string
	IsNewAccount bool
	State        string
}
