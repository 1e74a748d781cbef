package checks

import (
	"context"
	"fmt"
	"net/http"

	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"

	"motodealer-backend-tests/auth"
	"motodealer-backend-tests/config"
	"motodealer-backend-tests/report"
	"motodealer-backend-tests/rest"
	sdk "motodealer-backend-tests/supabase"
)

// AuthenticationCheck signs each fixture user in and verifies its tenant link
type AuthenticationCheck struct{}

func (AuthenticationCheck) Name() string { return "Authentication" }

func (AuthenticationCheck) Run(ctx context.Context, env *Env, log *report.Log) {
	log.Section("TESTING SUPABASE AUTHENTICATION")

	for _, user := range env.Users {
		name := "Authentication - " + user.Email

		result, err := env.Auth.Token(ctx, user.Email, user.Password)
		if err != nil {
			log.Fail(name, fmt.Sprintf("Authentication error: %v", err), report.Details{"error": err.Error()})
			continue
		}
		if result.StatusCode != http.StatusOK {
			log.Fail(name, fmt.Sprintf("Authentication failed with status %d", result.StatusCode), report.Details{
				"status_code": result.StatusCode,
				"response":    result.Body,
			})
			continue
		}
		if !result.OK() {
			log.Fail(name, "Authentication response missing access_token", report.Details(result.Fields))
			continue
		}

		log.Pass(name, "Successfully authenticated with Supabase", report.Details{
			"user_id": result.Token.User.ID,
			"email":   result.Token.User.Email,
		})
		checkTenantLink(ctx, env, log, result.Token.AccessToken, user)
	}
}

// checkTenantLink reads the signed-in user's profile joined with its dealership
func checkTenantLink(ctx context.Context, env *Env, log *report.Log, token string, user config.TestUser) {
	name := "Multi-tenancy - " + user.Email

	resp, err := env.Anon.WithToken(token).Select(ctx, "users", "*,dealerships(*)")
	if err != nil {
		log.Fail(name, fmt.Sprintf("Error getting user dealership info: %v", err), report.Details{"error": err.Error()})
		return
	}
	if resp.StatusCode != http.StatusOK {
		log.Fail(name, fmt.Sprintf("Failed to get user info, status %d", resp.StatusCode), report.Details{"status_code": resp.StatusCode})
		return
	}

	rows, err := rest.DecodeRows(resp)
	if err != nil {
		log.Fail(name, fmt.Sprintf("Error getting user dealership info: %v", err), report.Details{"error": err.Error()})
		return
	}
	if len(rows) == 0 {
		log.Fail(name, "No user data returned", report.Details{"response": resp.Text()})
		return
	}

	dealership := rows[0].Object("dealerships")
	if dealership == nil || dealership.String("slug") != user.DealershipSlug {
		var actual interface{}
		if dealership != nil {
			actual = map[string]interface{}(dealership)
		}
		log.Fail(name, "User not properly linked to expected dealership", report.Details{
			"expected_slug": user.DealershipSlug,
			"actual":        actual,
		})
		return
	}

	log.Pass(name, fmt.Sprintf("User correctly linked to dealership '%s'", dealership.String("name")), report.Details{
		"dealership_id":   dealership.String("id"),
		"dealership_slug": dealership.String("slug"),
		"dealership_name": dealership.String("name"),
	})
}

// TenantTables are counted for each signed-in user
var TenantTables = []string{"categories", "products", "employees", "site_settings"}

// TenantDataCheck reads each user's tenant data through the SDK under row level security
type TenantDataCheck struct{}

func (TenantDataCheck) Name() string { return "Tenant Data" }

func (TenantDataCheck) Run(ctx context.Context, env *Env, log *report.Log) {
	log.Section("TESTING TENANT DATA VISIBILITY")

	for _, user := range env.Users {
		checkTenantData(ctx, env, log, user)
	}
}

func checkTenantData(ctx context.Context, env *Env, log *report.Log, user config.TestUser) {
	name := "Tenant Data - " + user.Email

	client, err := env.NewSDKClient()
	if err != nil {
		log.Fail(name, fmt.Sprintf("Could not create client: %v", err), report.Details{"error": err.Error()})
		return
	}
	provider := auth.NewSupabaseAuth(client)

	session, err := provider.SignIn(ctx, user.Email, user.Password)
	if err != nil {
		log.Fail(name, fmt.Sprintf("Sign in failed: %v", err), report.Details{"error": err.Error()})
		return
	}
	defer func() {
		signOut := "Tenant Sign-Out - " + user.Email
		if err := provider.SignOut(context.WithoutCancel(ctx)); err != nil {
			log.Fail(signOut, fmt.Sprintf("Sign out failed: %v", err), report.Details{"error": err.Error()})
			return
		}
		log.Pass(signOut, "Session revoked", nil)
	}()

	profile, err := sdk.Run(ctx, client, func(c *supabase.Client) (rest.Row, error) {
		var row rest.Row
		_, err := c.From("users").
			Select("*,dealerships(id,slug,name,email,phone,is_active)", "", false).
			Eq("id", session.UserID).
			Single().
			ExecuteTo(&row)
		return row, err
	})
	if err != nil {
		log.Fail(name, fmt.Sprintf("Error fetching user data: %v", err), report.Details{"error": err.Error(), "user_id": session.UserID})
		return
	}

	dealership := profile.Object("dealerships")
	if dealership == nil || dealership.String("slug") != user.DealershipSlug {
		log.Fail(name, "Profile is not linked to the expected dealership", report.Details{
			"expected_slug": user.DealershipSlug,
			"user_id":       session.UserID,
		})
		return
	}

	details := report.Details{
		"dealership_id":   dealership.String("id"),
		"dealership_slug": dealership.String("slug"),
		"role":            profile.String("role"),
	}
	for _, table := range TenantTables {
		n, err := countRows(ctx, client, table, dealership.String("id"))
		if err != nil {
			log.Fail(name, fmt.Sprintf("Error fetching %s: %v", table, err), report.Details{"table": table, "error": err.Error()})
			return
		}
		details[table] = n
	}

	log.Pass(name, fmt.Sprintf("Tenant data readable for dealership '%s'", dealership.String("name")), details)
}

func countRows(ctx context.Context, client *sdk.Client, table, dealershipID string) (int, error) {
	return sdk.Run(ctx, client, func(c *supabase.Client) (int, error) {
		var rows []rest.Row
		_, err := forTenant(c.From(table).Select("id", "", false), dealershipID).ExecuteTo(&rows)
		return len(rows), err
	})
}

// forTenant narrows a query to one dealership's rows
func forTenant(q *postgrest.FilterBuilder, dealershipID string) *postgrest.FilterBuilder {
	return q.Eq(TenantColumn, dealershipID)
}
