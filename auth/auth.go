package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"motodealer-backend-tests/api"
)

// TokenPath is the password grant endpoint of the auth service
const TokenPath = "/auth/v1/token?grant_type=password"

// PasswordGrant calls the auth token endpoint directly so status codes stay visible
type PasswordGrant struct {
	session  *api.Session
	tokenURL string
	anonKey  string
}

// NewPasswordGrant creates a password grant client for the project at projectURL
func NewPasswordGrant(session *api.Session, projectURL, anonKey string) *PasswordGrant {
	return &PasswordGrant{
		session:  session,
		tokenURL: strings.TrimRight(projectURL, "/") + TokenPath,
		anonKey:  anonKey,
	}
}

// Token performs the password grant and reports the raw outcome
func (p *PasswordGrant) Token(ctx context.Context, email, password string) (*SignInResult, error) {
	if err := ValidateCredentials(email, password); err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("apikey", p.anonKey)

	resp, err := p.session.Do(ctx, api.Request{
		Method: http.MethodPost,
		URL:    p.tokenURL,
		Header: header,
		Body:   map[string]string{"email": email, "password": password},
	})
	if err != nil {
		return nil, errors.Wrap(err, "password grant")
	}

	result := &SignInResult{
		StatusCode: resp.StatusCode,
		Body:       resp.Text(),
	}
	if resp.StatusCode == http.StatusOK {
		if err := resp.JSON(&result.Token); err != nil {
			return nil, err
		}
		// a body that is not an object only loses diagnostics
		_ = json.Unmarshal(resp.Body, &result.Fields)
	}
	return result, nil
}

// ValidateCredentials performs basic validation on credentials
func ValidateCredentials(email, password string) error {
	if email == "" {
		return errors.New("email is required")
	}
	if password == "" {
		return errors.New("password is required")
	}
	if !strings.Contains(email, "@") {
		return errors.Errorf("email %q is not an address", email)
	}
	return nil
}
