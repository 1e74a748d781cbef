package auth

import (
	"context"

	"github.com/pkg/errors"
	"github.com/supabase-community/gotrue-go/types"
	"github.com/supabase-community/supabase-go"

	sdk "motodealer-backend-tests/supabase"
)

// SupabaseAuth signs users in through the Supabase SDK. Signing in
// also authorizes the client's data and storage calls as that user.
type SupabaseAuth struct {
	client *sdk.Client
}

// NewSupabaseAuth creates a new Supabase authentication provider
func NewSupabaseAuth(client *sdk.Client) *SupabaseAuth {
	return &SupabaseAuth{client: client}
}

// SignIn authenticates a user with Supabase
func (s *SupabaseAuth) SignIn(ctx context.Context, email, password string) (Session, error) {
	if err := ValidateCredentials(email, password); err != nil {
		return Session{}, err
	}

	session, err := sdk.Run(ctx, s.client, func(c *supabase.Client) (Session, error) {
		resp, err := c.SignInWithEmailPassword(email, password)
		if err != nil {
			return Session{}, err
		}
		return sessionFrom(resp), nil
	})
	if err != nil {
		return Session{}, errors.Wrapf(err, "sign in %s", email)
	}
	return session, nil
}

func sessionFrom(s types.Session) Session {
	return Session{
		AccessToken: s.AccessToken,
		UserID:      s.User.ID.String(),
		Email:       s.User.Email,
	}
}

// SignOut revokes the current session's refresh tokens
func (s *SupabaseAuth) SignOut(ctx context.Context) error {
	_, err := sdk.Run(ctx, s.client, func(c *supabase.Client) (struct{}, error) {
		return struct{}{}, c.Auth.Logout()
	})
	return errors.Wrap(err, "sign out")
}
