package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(timeout time.Duration) *Session {
	logger, _ := logtest.NewNullLogger()
	return NewSession(timeout, "run-123", logger)
}

func TestSession_Do(t *testing.T) {
	tests := []struct {
		name       string
		request    func(url string) Request
		handler    func(t *testing.T, w http.ResponseWriter, r *http.Request)
		wantStatus int
		wantBody   string
	}{
		{
			name: "default headers are sent",
			request: func(url string) Request {
				return Request{URL: url}
			},
			handler: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, UserAgent, r.Header.Get("User-Agent"))
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
				assert.Equal(t, "run-123", r.Header.Get(RunIDHeader))
				w.Write([]byte("ok"))
			},
			wantStatus: http.StatusOK,
			wantBody:   "ok",
		},
		{
			name: "json body and per-request headers",
			request: func(url string) Request {
				return Request{
					Method: http.MethodPost,
					URL:    url,
					Header: http.Header{"Apikey": []string{"k"}},
					Body:   map[string]string{"email": "a@b.c"},
				}
			},
			handler: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "k", r.Header.Get("apikey"))
				var body map[string]string
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, "a@b.c", body["email"])
				w.WriteHeader(http.StatusCreated)
			},
			wantStatus: http.StatusCreated,
		},
		{
			name: "error status is not an error",
			request: func(url string) Request {
				return Request{URL: url}
			},
			handler: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				io.WriteString(w, `{"error":"boom"}`)
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"boom"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				tt.handler(t, w, r)
			}))
			defer server.Close()

			resp, err := newTestSession(time.Second).Do(context.Background(), tt.request(server.URL))

			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantBody, resp.Text())
		})
	}
}

func TestSession_Do_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	_, err := newTestSession(50*time.Millisecond).Do(context.Background(), Request{URL: server.URL})

	assert.Error(t, err)
}

func TestSession_Do_RequestTimeoutOverride(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.Write([]byte("slow page"))
	}))
	defer server.Close()

	resp, err := newTestSession(10*time.Millisecond).Do(context.Background(), Request{
		URL:     server.URL,
		Timeout: 2 * time.Second,
	})

	require.NoError(t, err)
	assert.Equal(t, "slow page", resp.Text())
}

func TestSession_Do_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestSession(time.Second).Do(context.Background(), Request{URL: url})

	assert.Error(t, err)
}

func TestResponse_JSON(t *testing.T) {
	resp := &Response{StatusCode: 200, Body: []byte(`{"status":"healthy"}`)}
	var h HealthInfo
	require.NoError(t, resp.JSON(&h))
	assert.Equal(t, "healthy", h.Status)

	bad := &Response{StatusCode: 200, Body: []byte("<html>")}
	assert.Error(t, bad.JSON(&h))
}

func TestAppClient(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		switch r.URL.Path {
		case "/api/":
			json.NewEncoder(w).Encode(RootInfo{Message: "MotoDealer SaaS API"})
		case "/api/health":
			json.NewEncoder(w).Encode(HealthInfo{Status: "healthy"})
		case "/catalogo/motostachira":
			io.WriteString(w, "<html>MotoDealer</html>")
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewAppClient(newTestSession(time.Second), server.URL, server.URL+"/api", time.Second)
	ctx := context.Background()

	root, err := client.Root(ctx)
	require.NoError(t, err)
	var info RootInfo
	require.NoError(t, root.JSON(&info))
	assert.Equal(t, "MotoDealer SaaS API", info.Message)

	health, err := client.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, health.StatusCode)

	page, err := client.CatalogPage(ctx, "motostachira")
	require.NoError(t, err)
	assert.Contains(t, page.Text(), "MotoDealer")

	assert.Equal(t, []string{"/api/", "/api/health", "/catalogo/motostachira"}, paths)
	assert.Equal(t, server.URL+"/catalogo/eklasvegas", client.CatalogURL("eklasvegas"))
}
