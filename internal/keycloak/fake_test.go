package keycloak

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"bankauth/internal/config"
)

const (
	testRealm      = "bank-realm"
	testAdminToken = "admin-token"
)

type userRepresentation struct {
	ID            string `json:"id,omitempty"`
	Username      string `json:"username"`
	Email         string `json:"email,omitempty"`
	FirstName     string `json:"firstName,omitempty"`
	LastName      string `json:"lastName,omitempty"`
	Enabled       bool   `json:"enabled"`
	EmailVerified bool   `json:"emailVerified"`
}

type credentialRepresentation struct {
	Type      string `json:"type"`
	Value     string `json:"value"`
	Temporary bool   `json:"temporary"`
}

// fakeKeycloak implements the parts of the token endpoint and admin API the
// client uses, and records what it was asked to do.
type fakeKeycloak struct {
	*httptest.Server

	mu            sync.Mutex
	catalog       []Role
	users         map[string]userRepresentation
	passwords     map[string]string
	mappings      map[string][]Role
	tokenForms    []map[string]string
	createStatus  int
	passwordFails bool
	nextID        int
	deleted       []string
	calls         []string
}

func newFakeKeycloak(t *testing.T) *fakeKeycloak {
	t.Helper()

	f := &fakeKeycloak{
		catalog: []Role{
			{ID: "r-user", Name: "user"},
			{ID: "r-admin", Name: "admin"},
			{ID: "r-teller", Name: "Teller"},
		},
		users:     map[string]userRepresentation{},
		passwords: map[string]string{},
		mappings:  map[string][]Role{},
	}

	mux := http.NewServeMux()
	base := "/admin/realms/" + testRealm

	mux.HandleFunc("POST /realms/"+testRealm+"/protocol/openid-connect/token", f.token)
	mux.HandleFunc("GET "+base+"/roles", f.admin(f.listRoles))
	mux.HandleFunc("POST "+base+"/users", f.admin(f.createUser))
	mux.HandleFunc("GET "+base+"/users", f.admin(f.searchUsers))
	mux.HandleFunc("PUT "+base+"/users/{id}/reset-password", f.admin(f.resetPassword))
	mux.HandleFunc("POST "+base+"/users/{id}/role-mappings/realm", f.admin(f.assignRoles))
	mux.HandleFunc("DELETE "+base+"/users/{id}", f.admin(f.deleteUser))

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func (f *fakeKeycloak) client(policy string) *Client {
	return NewClient(config.KeycloakConfig{
		URL:          f.URL + "/",
		Realm:        testRealm,
		ClientID:     "bank-app",
		ClientSecret: "s3cret",
		DefaultRole:  "user",
		RolePolicy:   policy,
		HTTPTimeout:  2 * time.Second,
	}, f.Server.Client())
}

func (f *fakeKeycloak) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeKeycloak) admin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.record(r.Method + " " + r.URL.Path)
		if r.Header.Get("Authorization") != "Bearer "+testAdminToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (f *fakeKeycloak) token(w http.ResponseWriter, r *http.Request) {
	f.record(r.Method + " " + r.URL.Path)
	_ = r.ParseForm()

	form := map[string]string{}
	for key := range r.PostForm {
		form[key] = r.PostForm.Get(key)
	}
	if id, secret, ok := r.BasicAuth(); ok {
		form["client_id"] = id
		form["client_secret"] = secret
	}
	f.mu.Lock()
	f.tokenForms = append(f.tokenForms, form)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	switch {
	case form["grant_type"] == GrantPassword && form["password"] == "correct":
		_ = json.NewEncoder(w).Encode(TokenResponse{
			AccessToken:      "access-" + form["username"],
			RefreshToken:     "refresh-" + form["username"],
			ExpiresIn:        300,
			RefreshExpiresIn: 1800,
			TokenType:        "Bearer",
		})
	case form["grant_type"] == GrantPassword && form["username"] == "down":
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"temporarily_unavailable","error_description":"Realm is starting"}`))
	case form["grant_type"] == GrantPassword:
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid user credentials"}`))
	case form["grant_type"] == GrantRefreshToken && form["refresh_token"] == "good-refresh":
		_ = json.NewEncoder(w).Encode(TokenResponse{AccessToken: "new-access", RefreshToken: "new-refresh", ExpiresIn: 300})
	case form["grant_type"] == GrantRefreshToken && form["refresh_token"] == "garbage":
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<html>oops</html>`))
	default:
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Token is not active"}`))
	}
}

func (f *fakeKeycloak) listRoles(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(f.catalog)
}

func (f *fakeKeycloak) createUser(w http.ResponseWriter, r *http.Request) {
	var user userRepresentation
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createStatus != 0 {
		w.WriteHeader(f.createStatus)
		return
	}
	for _, existing := range f.users {
		if existing.Username == user.Username {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"errorMessage":"User exists with same username"}`))
			return
		}
	}

	f.nextID++
	user.ID = fmt.Sprintf("kc-%d", f.nextID)
	f.users[user.ID] = user

	w.Header().Set("Location", f.URL+"/admin/realms/"+testRealm+"/users/"+user.ID)
	w.WriteHeader(http.StatusCreated)
}

func (f *fakeKeycloak) searchUsers(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")

	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	found := []userRepresentation{}
	for _, user := range f.users {
		if user.Username == username {
			found = append(found, user)
		}
	}
	_ = json.NewEncoder(w).Encode(found)
}

func (f *fakeKeycloak) resetPassword(w http.ResponseWriter, r *http.Request) {
	var cred credentialRepresentation
	_ = json.NewDecoder(r.Body).Decode(&cred)

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.passwordFails {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalidPasswordMinLengthMessage"}`))
		return
	}
	f.passwords[r.PathValue("id")] = cred.Value
	w.WriteHeader(http.StatusNoContent)
}

func (f *fakeKeycloak) assignRoles(w http.ResponseWriter, r *http.Request) {
	var roles []Role
	_ = json.NewDecoder(r.Body).Decode(&roles)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.mappings[r.PathValue("id")] = roles
	w.WriteHeader(http.StatusNoContent)
}

func (f *fakeKeycloak) deleteUser(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.users[id]; !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	delete(f.users, id)
	f.deleted = append(f.deleted, id)
	w.WriteHeader(http.StatusNoContent)
}

func (f *fakeKeycloak) userCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.users)
}

func (f *fakeKeycloak) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}
