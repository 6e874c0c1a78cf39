// Package jwkstest provides RSA signing keys and a fake JWKS endpoint for tests.
package jwkstest

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Key struct {
	Kid     string
	Private *rsa.PrivateKey
}

func NewRSAKey(t testing.TB, kid string) *Key {
	t.Helper()

	private, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	return &Key{Kid: kid, Private: private}
}

func (k *Key) JWK() map[string]string {
	pub := k.Private.PublicKey
	return map[string]string{
		"kid": k.Kid,
		"kty": "RSA",
		"use": "sig",
		"alg": "RS256",
		"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}
}

// Sign returns an RS256 token carrying the key's kid header.
func (k *Key) Sign(t testing.TB, claims jwt.Claims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = k.Kid

	signed, err := token.SignedString(k.Private)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

// Claims builds Keycloak-shaped claims expiring at exp.
func Claims(issuer, username string, exp time.Time) jwt.MapClaims {
	return jwt.MapClaims{
		"iss":                issuer,
		"sub":                "f3a9c4de-0000-4000-8000-" + username,
		"preferred_username": username,
		"exp":                exp.Unix(),
		"iat":                exp.Add(-5 * time.Minute).Unix(),
		"realm_access":       map[string]any{"roles": []string{"user"}},
	}
}

// Server serves a JWKS document and counts how often it was fetched.
type Server struct {
	*httptest.Server

	mu     sync.Mutex
	keys   []*Key
	status int
	delay  time.Duration
	hits   atomic.Int32
}

func NewServer(t testing.TB, keys ...*Key) *Server {
	t.Helper()

	s := &Server{keys: keys, status: http.StatusOK}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

func (s *Server) SetKeys(keys ...*Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = keys
}

func (s *Server) SetStatus(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

func (s *Server) SetDelay(delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = delay
}

func (s *Server) Hits() int {
	return int(s.hits.Load())
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	s.hits.Add(1)

	s.mu.Lock()
	status, delay := s.status, s.delay
	keys := make([]map[string]string, 0, len(s.keys))
	for _, k := range s.keys {
		keys = append(keys, k.JWK())
	}
	s.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	if status != http.StatusOK {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"keys": keys})
}
