package vaultclient

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hashicorp/vault/shamir"
)

// MockVaultCluster holds the state shared by all nodes of a mock Vault
// cluster: whether operator initialization has happened and the Shamir
// parameters guarding the master key.
type MockVaultCluster struct {
	mu          sync.Mutex
	initialized bool
	masterKey   []byte
	shares      int
	threshold   int

	// InitCalls counts successful initialization requests across all nodes
	// of the cluster. A correctly coordinated fleet produces exactly one.
	InitCalls int
}

// NewMockVaultCluster creates an uninitialized mock cluster.
func NewMockVaultCluster() *MockVaultCluster {
	return &MockVaultCluster{}
}

// Initialize splits a fresh random master key into Shamir shares. It mirrors
// what PUT /v1/sys/init does and is also handy for seeding tests that only
// exercise unsealing. Returns the hex-encoded shares and a root token.
func (c *MockVaultCluster) Initialize(shares, threshold int) ([]string, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return nil, "", fmt.Errorf("vault is already initialized")
	}

	master := make([]byte, 32)
	if _, err := rand.Read(master); err != nil {
		return nil, "", fmt.Errorf("failed to generate master key: %w", err)
	}

	parts, err := shamir.Split(master, shares, threshold)
	if err != nil {
		return nil, "", fmt.Errorf("failed to split master key: %w", err)
	}

	hexShares := make([]string, len(parts))
	for i, part := range parts {
		hexShares[i] = hex.EncodeToString(part)
	}

	c.initialized = true
	c.masterKey = master
	c.shares = shares
	c.threshold = threshold
	c.InitCalls++

	return hexShares, fmt.Sprintf("hvs.%s", uuid.NewString()), nil
}

// Initialized reports whether operator initialization has happened.
func (c *MockVaultCluster) Initialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initialized
}

// NewServer starts a mock Vault node attached to the cluster. The node
// starts sealed, as real nodes do. Callers must Close it when done.
func (c *MockVaultCluster) NewServer() *MockVaultServer {
	s := &MockVaultServer{
		cluster: c,
		sealed:  true,
	}

	r := chi.NewRouter()
	r.Get("/v1/sys/init", s.handleInitStatus)
	r.Put("/v1/sys/init", s.handleInit)
	r.Get("/v1/sys/seal-status", s.handleSealStatus)
	r.Put("/v1/sys/unseal", s.handleUnseal)

	s.srv = httptest.NewServer(r)
	return s
}

// MockVaultServer is a single mock Vault node. It shares initialization
// state with its cluster but tracks its own seal progress, so two nodes of
// one cluster can be unsealed independently.
type MockVaultServer struct {
	cluster *MockVaultCluster

	mu       sync.Mutex
	sealed   bool
	progress [][]byte

	srv *httptest.Server
}

// URL returns the node's API address.
func (s *MockVaultServer) URL() string {
	return s.srv.URL
}

// Close shuts the node down.
func (s *MockVaultServer) Close() {
	s.srv.Close()
}

// Sealed reports the node's current seal state.
func (s *MockVaultServer) Sealed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sealed
}

// Seal puts the node back into the sealed state, discarding any unseal
// progress. Useful for restart scenarios in tests.
func (s *MockVaultServer) Seal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sealed = true
	s.progress = nil
}

func (s *MockVaultServer) handleInitStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"initialized": s.cluster.Initialized(),
	})
}

func (s *MockVaultServer) handleInit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SecretShares    int `json:"secret_shares"`
		SecretThreshold int `json:"secret_threshold"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse init request")
		return
	}

	hexShares, rootToken, err := s.cluster.Initialize(req.SecretShares, req.SecretThreshold)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"keys":        hexShares,
		"keys_base64": base64Shares(hexShares),
		"root_token":  rootToken,
	})
}

func (s *MockVaultServer) handleSealStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.sealStatus())
}

func (s *MockVaultServer) handleUnseal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key   string `json:"key"`
		Reset bool   `json:"reset"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse unseal request")
		return
	}

	s.cluster.mu.Lock()
	initialized := s.cluster.initialized
	threshold := s.cluster.threshold
	master := s.cluster.masterKey
	s.cluster.mu.Unlock()

	if !initialized {
		respondError(w, http.StatusBadRequest, "vault is not initialized")
		return
	}

	if req.Reset {
		s.mu.Lock()
		s.progress = nil
		s.mu.Unlock()
		respondJSON(w, http.StatusOK, s.sealStatus())
		return
	}

	part, err := hex.DecodeString(req.Key)
	if err != nil {
		respondError(w, http.StatusBadRequest, "'key' must be a valid hex string")
		return
	}

	s.mu.Lock()
	if s.sealed {
		// Duplicate submissions don't advance progress.
		duplicate := false
		for _, prev := range s.progress {
			if bytes.Equal(prev, part) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			s.progress = append(s.progress, part)
		}

		if len(s.progress) >= threshold {
			combined, err := shamir.Combine(s.progress)
			s.progress = nil
			if err != nil || !bytes.Equal(combined, master) {
				s.mu.Unlock()
				respondError(w, http.StatusBadRequest, "failed to unseal barrier: invalid key")
				return
			}
			s.sealed = false
		}
	}
	s.mu.Unlock()

	respondJSON(w, http.StatusOK, s.sealStatus())
}

// sealStatus snapshots the node state in the sys/seal-status wire format.
// Cluster and node locks are taken one after the other, never nested.
func (s *MockVaultServer) sealStatus() map[string]any {
	s.cluster.mu.Lock()
	initialized := s.cluster.initialized
	threshold := s.cluster.threshold
	shares := s.cluster.shares
	s.cluster.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	return map[string]any{
		"type":        "shamir",
		"initialized": initialized,
		"sealed":      s.sealed,
		"t":           threshold,
		"n":           shares,
		"progress":    len(s.progress),
		"version":     "1.19.0-mock",
	}
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]any{
		"errors": []string{msg},
	})
}

func base64Shares(hexShares []string) []string {
	out := make([]string, len(hexShares))
	for i, hs := range hexShares {
		raw, _ := hex.DecodeString(hs)
		out[i] = base64.StdEncoding.EncodeToString(raw)
	}
	return out
}
