package auth

import "net/http"

// User is the identity block of a token response
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// TokenResponse is the body returned by a successful password grant
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// SignInResult represents the outcome of a password grant attempt
type SignInResult struct {
	StatusCode int
	Body       string
	Token      TokenResponse
	// Fields holds the decoded body for diagnostics when it is a JSON object
	Fields map[string]interface{}
}

// OK reports whether the grant succeeded and produced an access token
func (r *SignInResult) OK() bool {
	return r.StatusCode == http.StatusOK && r.Token.AccessToken != ""
}

// Session is what the tenant checks need from a signed-in user
type Session struct {
	AccessToken string
	UserID      string
	Email       string
}
