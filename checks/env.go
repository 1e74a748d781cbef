package checks

import (
	"context"

	"github.com/sirupsen/logrus"

	"motodealer-backend-tests/api"
	"motodealer-backend-tests/auth"
	"motodealer-backend-tests/config"
	"motodealer-backend-tests/report"
	"motodealer-backend-tests/rest"
	sdk "motodealer-backend-tests/supabase"
)

// Check is one independent group of test cases
type Check interface {
	Name() string
	Run(ctx context.Context, env *Env, log *report.Log)
}

// Env is everything a check may talk to. It holds no per-check state.
type Env struct {
	Settings config.Settings
	Options  *config.Options
	Users    []config.TestUser
	RunID    string

	Session *api.Session
	App     *api.AppClient
	Anon    *rest.Client
	Service *rest.Client
	Auth    *auth.PasswordGrant

	// NewSDKClient returns a fresh anon client bounded by the request timeout.
	// Signing in mutates a client, so each user gets its own.
	NewSDKClient func() (*sdk.Client, error)

	Logger logrus.FieldLogger
}

// NewEnv wires the shared session and clients from configuration
func NewEnv(settings config.Settings, opts *config.Options, users []config.TestUser, runID string, logger logrus.FieldLogger) *Env {
	session := api.NewSession(opts.RequestTimeout, runID, logger)
	return &Env{
		Settings: settings,
		Options:  opts,
		Users:    users,
		RunID:    runID,
		Session:  session,
		App:      api.NewAppClient(session, settings.BaseURL, settings.APIURL, opts.PageTimeout),
		Anon:     rest.NewClient(session, settings.SupabaseURL, settings.AnonKey),
		Service:  rest.NewClient(session, settings.SupabaseURL, settings.ServiceRoleKey),
		Auth:     auth.NewPasswordGrant(session, settings.SupabaseURL, settings.AnonKey),
		NewSDKClient: func() (*sdk.Client, error) {
			client, err := sdk.NewClient(settings.SupabaseURL, settings.AnonKey, runID, session.HTTPClient())
			if err != nil {
				return nil, err
			}
			return sdk.Bind(client, opts.RequestTimeout), nil
		},
		Logger: logger,
	}
}

// Default returns the checks in run order
func Default() []Check {
	return []Check{
		EnvironmentCheck{},
		HealthCheck{},
		ConnectionCheck{},
		AuthenticationCheck{},
		TenantDataCheck{},
		CRUDCheck{Scenarios: DefaultScenarios()},
		StorageCheck{},
		LandingPageCheck{},
	}
}
