package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// UserAgent identifies harness traffic in server logs
const UserAgent = "MotoDealer-Backend-Tester/1.0"

// RunIDHeader carries the run identifier on every request
const RunIDHeader = "X-Run-ID"

// Request describes a single HTTP call made through a Session
type Request struct {
	Method string
	URL    string
	Header http.Header
	// Body is encoded as JSON when non-nil
	Body interface{}
	// Timeout overrides the session default when positive
	Timeout time.Duration
}

// Response is a fully read HTTP response
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Text returns the body as a string
func (r *Response) Text() string {
	return string(r.Body)
}

// JSON decodes the body into v
func (r *Response) JSON(v interface{}) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return errors.Wrapf(err, "decode response (status %d)", r.StatusCode)
	}
	return nil
}

// Session is the HTTP client shared by every check. It carries default
// headers but no credentials; those are attached per request.
type Session struct {
	httpClient *http.Client
	headers    http.Header
	timeout    time.Duration
	log        logrus.FieldLogger
}

// NewSession creates a session whose requests time out after timeout
func NewSession(timeout time.Duration, runID string, logger logrus.FieldLogger) *Session {
	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	headers.Set("User-Agent", UserAgent)
	if runID != "" {
		headers.Set(RunIDHeader, runID)
	}
	return &Session{
		httpClient: &http.Client{},
		headers:    headers,
		timeout:    timeout,
		log:        logger,
	}
}

// HTTPClient exposes the underlying client so SDK clients can share its transport
func (s *Session) HTTPClient() *http.Client {
	return s.httpClient
}

// Do sends the request and reads the whole response body. A non-2xx status
// is not an error; callers inspect StatusCode.
func (s *Session) Do(ctx context.Context, r Request) (*Response, error) {
	timeout := s.timeout
	if r.Timeout > 0 {
		timeout = r.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if r.Body != nil {
		data, err := json.Marshal(r.Body)
		if err != nil {
			return nil, errors.Wrap(err, "failed to encode request body")
		}
		body = bytes.NewReader(data)
	}

	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, r.URL, body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	for k, v := range s.headers {
		req.Header[k] = append([]string(nil), v...)
	}
	for k, v := range r.Header {
		req.Header[k] = append([]string(nil), v...)
	}

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", method, r.URL)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read response of %s %s", method, r.URL)
	}

	s.log.WithFields(logrus.Fields{
		"method":   method,
		"url":      r.URL,
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
	}).Debug("request completed")

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

// Get is a shorthand for a GET request with extra headers
func (s *Session) Get(ctx context.Context, url string, header http.Header) (*Response, error) {
	return s.Do(ctx, Request{Method: http.MethodGet, URL: url, Header: header})
}
