package checks

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"motodealer-backend-tests/api"
	"motodealer-backend-tests/config"
	"motodealer-backend-tests/report"
	"motodealer-backend-tests/rest"
)

// ExpectedAPIMessage is what the API root must answer with
const ExpectedAPIMessage = "MotoDealer SaaS API"

// EnvironmentCheck verifies the required variables are set
type EnvironmentCheck struct{}

func (EnvironmentCheck) Name() string { return "Environment" }

func (EnvironmentCheck) Run(ctx context.Context, env *Env, log *report.Log) {
	log.Section("TESTING ENVIRONMENT VARIABLES")

	missing := config.MissingVars()
	if len(missing) > 0 {
		log.Fail("Environment Variables",
			"Missing variables: "+strings.Join(missing, ", "),
			report.Details{"missing": missing})
		return
	}
	log.Pass("Environment Variables", "All required environment variables present", report.Details{
		"supabase_url": env.Settings.SupabaseURL,
		"base_url":     env.Settings.BaseURL,
	})
}

// HealthCheck verifies the application API answers
type HealthCheck struct{}

func (HealthCheck) Name() string { return "API Health" }

func (HealthCheck) Run(ctx context.Context, env *Env, log *report.Log) {
	log.Section("TESTING API HEALTH")

	// a transport or decode error ends the check, as a dead API fails both probes
	err := checkRoot(ctx, env.App, log)
	if err == nil {
		err = checkHealth(ctx, env.App, log)
	}
	if err != nil {
		log.Fail("API Health Check", fmt.Sprintf("Failed to connect to API: %v", err), report.Details{"error": err.Error()})
	}
}

func checkRoot(ctx context.Context, app *api.AppClient, log *report.Log) error {
	resp, err := app.Root(ctx)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		log.Fail("API Root Endpoint", fmt.Sprintf("API returned status %d", resp.StatusCode), report.Details{
			"status_code": resp.StatusCode,
			"response":    resp.Text(),
		})
		return nil
	}

	var info api.RootInfo
	if err := resp.JSON(&info); err != nil {
		return err
	}
	data := bodyDetails(resp)
	if info.Message == ExpectedAPIMessage {
		log.Pass("API Root Endpoint", "API is running and responding correctly", data)
	} else {
		log.Fail("API Root Endpoint", "API responding but unexpected message", data)
	}
	return nil
}

func checkHealth(ctx context.Context, app *api.AppClient, log *report.Log) error {
	resp, err := app.Health(ctx)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		log.Fail("API Health Endpoint", fmt.Sprintf("Health endpoint returned status %d", resp.StatusCode), report.Details{
			"status_code": resp.StatusCode,
		})
		return nil
	}

	var info api.HealthInfo
	if err := resp.JSON(&info); err != nil {
		return err
	}
	data := bodyDetails(resp)
	if info.Status == "healthy" {
		log.Pass("API Health Endpoint", "Health check passed", data)
	} else {
		log.Fail("API Health Endpoint", "Health endpoint responding but status not healthy", data)
	}
	return nil
}

// bodyDetails keeps every field of a JSON object body for the report
func bodyDetails(resp *api.Response) report.Details {
	var data report.Details
	if err := resp.JSON(&data); err != nil || data == nil {
		return report.Details{"response": resp.Text()}
	}
	return data
}

// ConnectionCheck verifies the data service is reachable with the anon key
type ConnectionCheck struct{}

func (ConnectionCheck) Name() string { return "Supabase Connection" }

func (ConnectionCheck) Run(ctx context.Context, env *Env, log *report.Log) {
	const name = "Supabase Connection"
	log.Section("TESTING SUPABASE CONNECTION")

	resp, err := env.Anon.Select(ctx, "dealerships", "id,slug,name,is_active", rest.Eq("is_active", "true"))
	if err != nil {
		log.Fail(name, fmt.Sprintf("Failed to connect to Supabase: %v", err), report.Details{"error": err.Error()})
		return
	}
	if resp.StatusCode != http.StatusOK {
		log.Fail(name, fmt.Sprintf("Supabase connection failed with status %d", resp.StatusCode), report.Details{
			"status_code": resp.StatusCode,
			"response":    resp.Text(),
		})
		return
	}

	rows, err := rest.DecodeRows(resp)
	if err != nil || len(rows) < 2 {
		log.Fail(name, fmt.Sprintf("Connected but unexpected data: %s", resp.Text()), report.Details{"response": resp.Text()})
		return
	}
	log.Pass(name, fmt.Sprintf("Successfully connected to Supabase, found %d active dealerships", len(rows)), report.Details{
		"dealerships": rest.Slugs(rows),
	})
}

// LandingPageCheck verifies each tenant's public catalog renders
type LandingPageCheck struct{}

func (LandingPageCheck) Name() string { return "Public Landing Page" }

func (LandingPageCheck) Run(ctx context.Context, env *Env, log *report.Log) {
	log.Section("TESTING PUBLIC LANDING PAGE")

	for _, user := range env.Users {
		name := "Public Landing Page - " + user.DealershipSlug
		pageURL := env.App.CatalogURL(user.DealershipSlug)

		resp, err := env.App.CatalogPage(ctx, user.DealershipSlug)
		if err != nil {
			log.Fail(name, fmt.Sprintf("Error accessing landing page: %v", err), report.Details{"error": err.Error(), "url": pageURL})
			continue
		}
		if resp.StatusCode != http.StatusOK {
			log.Fail(name, fmt.Sprintf("Landing page returned status %d", resp.StatusCode), report.Details{
				"url":         pageURL,
				"status_code": resp.StatusCode,
			})
			continue
		}

		content := resp.Text()
		if strings.Contains(content, "MotoDealer") || strings.Contains(content, user.DealershipSlug) {
			log.Pass(name, "Landing page loads successfully", report.Details{"url": pageURL, "status_code": resp.StatusCode})
		} else {
			log.Fail(name, "Landing page loads but missing expected content", report.Details{"url": pageURL, "content_length": len(content)})
		}
	}
}
