package checks

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"

	"motodealer-backend-tests/config"
	"motodealer-backend-tests/report"
	"motodealer-backend-tests/rest"
)

const (
	anonKey    = "anon-key"
	serviceKey = "service-key"

	tachiraUserID = "0b8f5a5e-6b0e-4c6f-9a59-3f7c2a9d1e11"
	vegasUserID   = "5d1c7a3b-2e4f-4a8b-9c6d-7e8f9a0b1c2d"

	tachiraID = "d1111111-1111-1111-1111-111111111111"
	vegasID   = "d2222222-2222-2222-2222-222222222222"
)

type fakeAccount struct {
	password string
	userID   string
}

// fakeBackend serves the app, data, auth and storage endpoints from memory
type fakeBackend struct {
	t      *testing.T
	server *httptest.Server

	mu       sync.Mutex
	tables   map[string][]rest.Row
	nextID   int
	accounts map[string]fakeAccount
	buckets  map[string]map[string]bool
	deleted  []string
	logouts  int

	rootStatus   int
	rootMessage  string
	healthStatus string
	// insertStatus forces an error status on inserts into a table
	insertStatus map[string]int
	// lookupStatus forces an error status on reads of a table filtered by id
	lookupStatus map[string]int
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	b := &fakeBackend{
		t: t,
		tables: map[string][]rest.Row{
			"dealerships": {
				{"id": tachiraID, "slug": "motostachira", "name": "Motos Táchira", "is_active": true},
				{"id": vegasID, "slug": "eklasvegas", "name": "EK Las Vegas", "is_active": true},
				{"id": "d-3", "slug": "motos-cerradas", "name": "Motos Cerradas", "is_active": false},
			},
			"users": {
				{"id": tachiraUserID, "email": "motostachira@gmail.com", "role": "owner", "dealership_id": tachiraID},
				{"id": vegasUserID, "email": "eklasvegas@gmail.com", "role": "owner", "dealership_id": vegasID},
			},
			"products": {
				{"id": "p-0", "dealership_id": tachiraID, "name": "Yamaha MT-07"},
			},
		},
		accounts: map[string]fakeAccount{
			"motostachira@gmail.com": {password: "password123", userID: tachiraUserID},
			"eklasvegas@gmail.com":   {password: "password123", userID: vegasUserID},
		},
		buckets: map[string]map[string]bool{
			"motorcycles": {},
			"site-assets": {},
		},
		rootStatus:   http.StatusOK,
		rootMessage:  ExpectedAPIMessage,
		healthStatus: "healthy",
		insertStatus: map[string]int{},
		lookupStatus: map[string]int{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/", b.handleRoot)
	mux.HandleFunc("/api/health", b.handleHealth)
	mux.HandleFunc("/catalogo/", b.handleCatalog)
	mux.HandleFunc("/rest/v1/", b.handleRest)
	mux.HandleFunc("/auth/v1/token", b.handleToken)
	mux.HandleFunc("/auth/v1/logout", b.handleLogout)
	mux.HandleFunc("/storage/v1/object/", b.handleStorage)

	b.server = httptest.NewServer(mux)
	t.Cleanup(b.server.Close)
	return b
}

func (b *fakeBackend) env() *Env {
	logger, _ := logtest.NewNullLogger()
	settings := config.Settings{
		BaseURL:        b.server.URL,
		APIURL:         b.server.URL + "/api",
		SupabaseURL:    b.server.URL,
		AnonKey:        anonKey,
		ServiceRoleKey: serviceKey,
	}
	opts := &config.Options{
		ResultsFile:    "results.json",
		RequestTimeout: 2 * time.Second,
		PageTimeout:    2 * time.Second,
		StorageBuckets: []string{"motorcycles", "site-assets"},
	}
	return NewEnv(settings, opts, config.DefaultUsers(), "run-1", logger)
}

func (b *fakeBackend) rows(table string) []rest.Row {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]rest.Row(nil), b.tables[table]...)
}

func (b *fakeBackend) deletions() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.deleted...)
}

func (b *fakeBackend) objects(bucket string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buckets[bucket])
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (b *fakeBackend) handleRoot(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	status, message := b.rootStatus, b.rootMessage
	b.mu.Unlock()
	writeJSON(w, status, map[string]string{"message": message})
}

func (b *fakeBackend) handleHealth(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	status := b.healthStatus
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

func (b *fakeBackend) handleCatalog(w http.ResponseWriter, r *http.Request) {
	slug := strings.TrimPrefix(r.URL.Path, "/catalogo/")
	for _, d := range b.rows("dealerships") {
		if d.String("slug") == slug {
			fmt.Fprintf(w, "<html><title>%s | MotoDealer</title></html>", d.String("name"))
			return
		}
	}
	http.NotFound(w, r)
}

func (b *fakeBackend) handleToken(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})
		return
	}
	b.mu.Lock()
	account, ok := b.accounts[body.Email]
	b.mu.Unlock()
	if !ok || account.password != body.Password {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":             "invalid_grant",
			"error_description": "Invalid login credentials",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"access_token":  "token-" + account.userID,
		"token_type":    "bearer",
		"expires_in":    3600,
		"expires_at":    time.Now().Add(time.Hour).Unix(),
		"refresh_token": "refresh-" + account.userID,
		"user":          map[string]string{"id": account.userID, "email": body.Email},
	})
}

func (b *fakeBackend) handleLogout(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.logouts++
	b.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

// bearerUser returns the user id behind a token issued by handleToken
func bearerUser(r *http.Request) string {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	return strings.TrimPrefix(token, "token-")
}

func matches(row rest.Row, r *http.Request) bool {
	for column, values := range r.URL.Query() {
		if column == "select" {
			continue
		}
		for _, v := range values {
			if row.String(column) != strings.TrimPrefix(v, "eq.") {
				return false
			}
		}
	}
	return true
}

func (b *fakeBackend) handleRest(w http.ResponseWriter, r *http.Request) {
	table := strings.Trim(strings.TrimPrefix(r.URL.Path, "/rest/v1/"), "/")

	b.mu.Lock()
	defer b.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		if table == "users" {
			b.serveProfile(w, r)
			return
		}
		if status, ok := b.lookupStatus[table]; ok && r.URL.Query().Has("id") {
			writeJSON(w, status, map[string]string{"message": "upstream busy"})
			return
		}
		out := []rest.Row{}
		for _, row := range b.tables[table] {
			if matches(row, r) {
				out = append(out, row)
			}
		}
		writeJSON(w, http.StatusOK, out)

	case http.MethodPost:
		if status, ok := b.insertStatus[table]; ok {
			writeJSON(w, status, map[string]string{"message": "insert rejected"})
			return
		}
		var row rest.Row
		if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
			return
		}
		b.nextID++
		row["id"] = fmt.Sprintf("%s-%d", table, b.nextID)
		b.tables[table] = append(b.tables[table], row)
		writeJSON(w, http.StatusCreated, []rest.Row{row})

	case http.MethodPatch:
		var patch rest.Row
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
			return
		}
		for _, row := range b.tables[table] {
			if matches(row, r) {
				for k, v := range patch {
					row[k] = v
				}
			}
		}
		w.WriteHeader(http.StatusNoContent)

	case http.MethodDelete:
		kept := b.tables[table][:0]
		for _, row := range b.tables[table] {
			if matches(row, r) {
				b.deleted = append(b.deleted, table+":"+row.String("id"))
				continue
			}
			kept = append(kept, row)
		}
		b.tables[table] = kept
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// serveProfile returns the caller's own user row with its dealership embedded
func (b *fakeBackend) serveProfile(w http.ResponseWriter, r *http.Request) {
	userID := bearerUser(r)
	out := []rest.Row{}
	for _, u := range b.tables["users"] {
		if u.String("id") != userID || !matches(u, r) {
			continue
		}
		profile := rest.Row{}
		for k, v := range u {
			profile[k] = v
		}
		for _, d := range b.tables["dealerships"] {
			if d.String("id") == u.String("dealership_id") {
				profile["dealerships"] = d
			}
		}
		out = append(out, profile)
	}

	if strings.Contains(r.Header.Get("Accept"), "vnd.pgrst.object") {
		if len(out) != 1 {
			writeJSON(w, http.StatusNotAcceptable, map[string]string{
				"code":    "PGRST116",
				"message": "JSON object requested, multiple (or no) rows returned",
			})
			return
		}
		writeJSON(w, http.StatusOK, out[0])
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *fakeBackend) handleStorage(w http.ResponseWriter, r *http.Request) {
	object := strings.TrimPrefix(r.URL.Path, "/storage/v1/object/")

	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case r.Method == http.MethodPost && strings.HasPrefix(object, "list/"):
		bucket := strings.TrimPrefix(object, "list/")
		var body struct {
			Prefix string `json:"prefix"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		objects, ok := b.buckets[bucket]
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Bucket not found", "message": "Bucket not found"})
			return
		}
		out := []map[string]string{}
		folder := strings.Trim(body.Prefix, "/") + "/"
		for p := range objects {
			if strings.HasPrefix(p, folder) {
				out = append(out, map[string]string{"name": strings.TrimPrefix(p, folder)})
			}
		}
		writeJSON(w, http.StatusOK, out)

	case r.Method == http.MethodPost:
		parts := strings.SplitN(object, "/", 2)
		objects, ok := b.buckets[parts[0]]
		if !ok || len(parts) != 2 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Bucket not found", "message": "Bucket not found"})
			return
		}
		var buf bytes.Buffer
		buf.ReadFrom(r.Body)
		objects[parts[1]] = true
		writeJSON(w, http.StatusOK, map[string]string{"Key": object})

	case r.Method == http.MethodDelete:
		objects, ok := b.buckets[object]
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Bucket not found", "message": "Bucket not found"})
			return
		}
		var body struct {
			Prefixes []string `json:"prefixes"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		out := []map[string]string{}
		for _, p := range body.Prefixes {
			if objects[p] {
				delete(objects, p)
				out = append(out, map[string]string{"Key": object + "/" + p})
			}
		}
		writeJSON(w, http.StatusOK, out)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// byName indexes results by test name; later results with the same name win
func byName(results []report.TestResult) map[string]report.TestResult {
	out := make(map[string]report.TestResult, len(results))
	for _, r := range results {
		out[r.Test] = r
	}
	return out
}

func newLog() *report.Log {
	return report.NewLog(&bytes.Buffer{})
}
