package rest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"motodealer-backend-tests/api"
)

// BasePath is where the data service is mounted on the project URL
const BasePath = "/rest/v1"

// Filter is a single column predicate in PostgREST syntax, e.g. id=eq.42
type Filter struct {
	Column   string
	Operator string
	Value    string
}

// Eq builds an equality filter
func Eq(column, value string) Filter {
	return Filter{Column: column, Operator: "eq", Value: value}
}

// Row is one record returned by the data service
type Row map[string]interface{}

// String returns the string form of a column, or "" when absent
func (r Row) String(column string) string {
	v, ok := r[column]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Object returns a nested record, as produced by an embedded select
func (r Row) Object(column string) Row {
	switch v := r[column].(type) {
	case map[string]interface{}:
		return Row(v)
	case []interface{}:
		if len(v) > 0 {
			if m, ok := v[0].(map[string]interface{}); ok {
				return Row(m)
			}
		}
	}
	return nil
}

// Client issues requests against /rest/v1 with one set of credentials
type Client struct {
	session *api.Session
	baseURL string
	apiKey  string
	token   string
}

// NewClient creates a client authenticated with apiKey as both key and bearer token
func NewClient(session *api.Session, projectURL, apiKey string) *Client {
	return &Client{
		session: session,
		baseURL: strings.TrimRight(projectURL, "/") + BasePath,
		apiKey:  apiKey,
		token:   apiKey,
	}
}

// WithToken returns a copy of the client that sends token as the bearer credential
func (c *Client) WithToken(token string) *Client {
	clone := *c
	clone.token = token
	return &clone
}

func (c *Client) headers() http.Header {
	h := http.Header{}
	h.Set("apikey", c.apiKey)
	h.Set("Authorization", "Bearer "+c.token)
	return h
}

func (c *Client) tableURL(table string, params []string) string {
	u := c.baseURL + "/" + table
	if len(params) > 0 {
		u += "?" + strings.Join(params, "&")
	}
	return u
}

func filterParams(filters []Filter) []string {
	params := make([]string, 0, len(filters))
	for _, f := range filters {
		params = append(params, url.QueryEscape(f.Column)+"="+url.QueryEscape(f.Operator+"."+f.Value))
	}
	return params
}

// Select reads rows of table. An empty columns list selects every column.
func (c *Client) Select(ctx context.Context, table, columns string, filters ...Filter) (*api.Response, error) {
	var params []string
	if columns != "" {
		params = append(params, "select="+escapeSelect(columns))
	}
	params = append(params, filterParams(filters)...)

	resp, err := c.session.Do(ctx, api.Request{
		Method: http.MethodGet,
		URL:    c.tableURL(table, params),
		Header: c.headers(),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "select %s", table)
	}
	return resp, nil
}

// Insert creates rows and asks for the created representation back
func (c *Client) Insert(ctx context.Context, table string, payload interface{}) (*api.Response, error) {
	h := c.headers()
	h.Set("Prefer", "return=representation")

	resp, err := c.session.Do(ctx, api.Request{
		Method: http.MethodPost,
		URL:    c.tableURL(table, nil),
		Header: h,
		Body:   payload,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "insert into %s", table)
	}
	return resp, nil
}

// Update patches every row matching filters
func (c *Client) Update(ctx context.Context, table string, payload interface{}, filters ...Filter) (*api.Response, error) {
	if len(filters) == 0 {
		return nil, errors.Errorf("update of %s without filters refused", table)
	}
	resp, err := c.session.Do(ctx, api.Request{
		Method: http.MethodPatch,
		URL:    c.tableURL(table, filterParams(filters)),
		Header: c.headers(),
		Body:   payload,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "update %s", table)
	}
	return resp, nil
}

// Delete removes every row matching filters
func (c *Client) Delete(ctx context.Context, table string, filters ...Filter) (*api.Response, error) {
	if len(filters) == 0 {
		return nil, errors.Errorf("delete from %s without filters refused", table)
	}
	resp, err := c.session.Do(ctx, api.Request{
		Method: http.MethodDelete,
		URL:    c.tableURL(table, filterParams(filters)),
		Header: c.headers(),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "delete from %s", table)
	}
	return resp, nil
}

// DecodeRows parses a response body holding a JSON array of rows
func DecodeRows(resp *api.Response) ([]Row, error) {
	var rows []Row
	if err := resp.JSON(&rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// FindByID returns the row whose id column equals id
func FindByID(rows []Row, id string) (Row, bool) {
	for _, r := range rows {
		if r.String("id") == id {
			return r, true
		}
	}
	return nil, false
}

// Slugs collects the slug column of rows
func Slugs(rows []Row) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.String("slug"))
	}
	return out
}

// escapeSelect keeps the PostgREST select grammar readable on the wire
func escapeSelect(columns string) string {
	return strings.NewReplacer(" ", "", "\n", "", "\t", "").Replace(columns)
}
