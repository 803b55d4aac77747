package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
)

// fakeAPI is an in-memory stand-in for the TagCube REST API.
type fakeAPI struct {
	mu sync.Mutex

	email  string
	apiKey string

	nextID              int64
	collections         map[string][]map[string]any
	verificationSuccess bool

	posts      map[string]int
	scanBodies []map[string]any

	server *httptest.Server
}

func newFakeAPI(email, apiKey string) *fakeAPI {
	f := &fakeAPI{
		email:       email,
		apiKey:      apiKey,
		nextID:      100,
		collections: make(map[string][]map[string]any),
		posts:       make(map[string]int),
	}
	f.server = httptest.NewServer(f)
	return f
}

func (f *fakeAPI) Close() {
	f.server.Close()
}

// seed stores a resource directly, bypassing POST accounting.
func (f *fakeAPI) seed(collection string, obj map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.collections[collection] = append(f.collections[collection], obj)
}

func (f *fakeAPI) postCount(collection string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.posts[collection]
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user, pass, ok := r.BasicAuth()
	if !ok || user != f.email || pass != f.apiKey {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "invalid credentials"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/1.0/")
	if path == "users/~" {
		writeJSON(w, http.StatusOK, map[string]any{"id": 1, "href": "/1.0/users/1", "email": f.email})
		return
	}

	collection := strings.TrimSuffix(path, "/")
	if r.Method == http.MethodGet && strings.HasPrefix(collection, "scans/") {
		id := strings.TrimPrefix(collection, "scans/")
		for _, obj := range f.collections["scans"] {
			if fmt.Sprint(obj["id"]) == id {
				writeJSON(w, http.StatusOK, obj)
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]any{"error": []string{"scan not found"}})
		return
	}

	switch r.Method {
	case http.MethodGet:
		var matches []map[string]any
		for _, obj := range f.collections[collection] {
			if matchesQuery(obj, r.URL.Query()) {
				matches = append(matches, obj)
			}
		}
		if matches == nil {
			matches = []map[string]any{}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"meta":    map[string]any{"total_count": len(matches), "offset": 0, "limit": 20},
			"objects": matches,
		})

	case http.MethodPost:
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{collection: map[string][]string{"__all__": {"bad json"}}})
			return
		}
		f.nextID++
		body["id"] = f.nextID
		body["href"] = fmt.Sprintf("/1.0/%s/%d", collection, f.nextID)
		if collection == "verifications" {
			body["success"] = f.verificationSuccess
			if f.verificationSuccess {
				body["verification_message"] = "Verification success"
			} else {
				body["verification_message"] = "The HTTP response body does NOT contain the verification code."
			}
		}
		if collection == "scans" {
			f.scanBodies = append(f.scanBodies, body)
		}
		f.posts[collection]++
		f.collections[collection] = append(f.collections[collection], body)
		writeJSON(w, http.StatusCreated, body)

	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": []string{"method not allowed"}})
	}
}

// matchesQuery compares every query parameter against the stored field. The
// verification domain filter carries the domain id while the stored field is
// its href.
func matchesQuery(obj map[string]any, query map[string][]string) bool {
	for key, values := range query {
		want := values[0]
		got := fmt.Sprint(obj[key])
		if key == "domain_href" {
			if !strings.HasSuffix(got, "/"+want) {
				return false
			}
			continue
		}
		if got != want {
			return false
		}
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func verificationFixture(id int64, domainID int64, port int, ssl, success bool) map[string]any {
	return map[string]any{
		"id":          id,
		"href":        "/1.0/verifications/" + strconv.FormatInt(id, 10),
		"domain_href": "/1.0/domains/" + strconv.FormatInt(domainID, 10),
		"port":        port,
		"ssl":         ssl,
		"success":     success,
	}
}
