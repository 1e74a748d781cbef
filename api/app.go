package api

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// RootInfo is the body of GET /api/
type RootInfo struct {
	Message string `json:"message"`
}

// HealthInfo is the body of GET /api/health
type HealthInfo struct {
	Status string `json:"status"`
}

// AppClient talks to the dealership application itself
type AppClient struct {
	session     *Session
	baseURL     string
	apiURL      string
	pageTimeout time.Duration
}

// NewAppClient creates a client for the web app at baseURL, with its API under apiURL
func NewAppClient(session *Session, baseURL, apiURL string, pageTimeout time.Duration) *AppClient {
	return &AppClient{
		session:     session,
		baseURL:     baseURL,
		apiURL:      apiURL,
		pageTimeout: pageTimeout,
	}
}

// Root calls the API root endpoint
func (c *AppClient) Root(ctx context.Context) (*Response, error) {
	return c.session.Get(ctx, c.apiURL+"/", nil)
}

// Health calls the API health endpoint
func (c *AppClient) Health(ctx context.Context) (*Response, error) {
	return c.session.Get(ctx, c.apiURL+"/health", nil)
}

// CatalogURL returns the public catalog page of a dealership
func (c *AppClient) CatalogURL(slug string) string {
	return c.baseURL + "/catalogo/" + url.PathEscape(slug)
}

// CatalogPage fetches the public catalog page using the page timeout
func (c *AppClient) CatalogPage(ctx context.Context, slug string) (*Response, error) {
	return c.session.Do(ctx, Request{
		Method:  http.MethodGet,
		URL:     c.CatalogURL(slug),
		Header:  http.Header{"Accept": []string{"text/html"}},
		Timeout: c.pageTimeout,
	})
}
