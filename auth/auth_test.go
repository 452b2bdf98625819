package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func tokenServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"token123","token_type":"bearer","expires_in":3600}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestTokenAndSetAuthHeader(t *testing.T) {
	var calls atomic.Int32
	server := tokenServer(t, &calls)

	cfg := Conf{ClientID: "id", ClientSecret: "secret", TokenURL: server.URL}
	if !cfg.Enabled() {
		t.Fatal("expected enabled conf")
	}
	client := NewClientCred(cfg)

	tok, err := client.Token(context.Background())
	if err != nil {
		t.Fatalf("Token returned error: %v", err)
	}
	if tok.AccessToken != "token123" {
		t.Fatalf("unexpected token %s", tok.AccessToken)
	}

	req, _ := http.NewRequest("GET", "http://example.com", nil)
	if err := client.SetAuthHeader(req); err != nil {
		t.Fatalf("SetAuthHeader returned error: %v", err)
	}
	if auth := req.Header.Get("Authorization"); auth != "Bearer token123" {
		t.Fatalf("unexpected Authorization header %q", auth)
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("expected cached token, got %d requests", n)
	}

	if _, err := client.ForceRefresh(context.Background()); err != nil {
		t.Fatalf("ForceRefresh returned error: %v", err)
	}
	if n := calls.Load(); n != 2 {
		t.Fatalf("expected refresh request, got %d requests", n)
	}
}

func TestTokenError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "denied", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClientCred(Conf{ClientID: "id", ClientSecret: "bad", TokenURL: server.URL})
	if _, err := client.Token(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if (Conf{}).Enabled() {
		t.Fatal("empty conf should be disabled")
	}
}
