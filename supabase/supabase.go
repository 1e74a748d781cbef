package supabase

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/supabase-community/supabase-go"

	"motodealer-backend-tests/api"
)

// ErrMissingCredentials is returned when the project URL or key is empty
var ErrMissingCredentials = errors.New("NEXT_PUBLIC_SUPABASE_URL and an API key must be set")

// ErrAbandoned is returned by Run once an earlier call on the same client timed out
var ErrAbandoned = errors.New("supabase client abandoned after an unfinished call")

// NewClient creates an SDK client for the project at projectURL.
// Auth requests go through httpClient; the data and storage clients use the SDK's own transport.
func NewClient(projectURL, key, runID string, httpClient *http.Client) (*supabase.Client, error) {
	if projectURL == "" || key == "" {
		return nil, ErrMissingCredentials
	}

	headers := map[string]string{"User-Agent": api.UserAgent}
	if runID != "" {
		headers[api.RunIDHeader] = runID
	}

	client, err := supabase.NewClient(projectURL, key, &supabase.ClientOptions{Headers: headers})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create supabase client")
	}
	if httpClient != nil {
		client.Auth = client.Auth.WithClient(*httpClient)
	}
	return client, nil
}

// Call runs fn and gives up once timeout elapses or ctx is done.
// The SDK has no cancellation hooks, so an abandoned call keeps running in the background.
func Call[T any](ctx context.Context, timeout time.Duration, fn func() (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{value: v, err: err}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		var zero T
		return zero, errors.Wrap(ctx.Err(), "supabase call")
	}
}

// Client is an SDK client whose calls are bounded by a timeout. A call that
// does not finish in time may still mutate the client later, so the first
// unfinished call abandons it for good.
type Client struct {
	*supabase.Client
	timeout   time.Duration
	abandoned atomic.Bool
}

// Bind wraps client so every Run on it is bounded by timeout
func Bind(client *supabase.Client, timeout time.Duration) *Client {
	return &Client{Client: client, timeout: timeout}
}

// Abandoned reports whether a call on the client was left running
func (c *Client) Abandoned() bool {
	return c.abandoned.Load()
}

// Run calls fn with the underlying SDK client through Call
func Run[T any](ctx context.Context, c *Client, fn func(*supabase.Client) (T, error)) (T, error) {
	if c.abandoned.Load() {
		var zero T
		return zero, ErrAbandoned
	}
	v, err := Call(ctx, c.timeout, func() (T, error) {
		return fn(c.Client)
	})
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		c.abandoned.Store(true)
	}
	return v, err
}
