package advisory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/bms12v/config"
	coreadv "github.com/kilianp07/bms12v/core/advisory"
	"github.com/kilianp07/bms12v/core/model"
)

func testConfig(url string) config.AdvisoryConfig {
	return config.AdvisoryConfig{BaseURL: url, APIKey: "k3y", Model: "test-model", RequestsPerMinute: 6000}
}

func snapshot() model.Snapshot {
	return model.NewSnapshot(model.Telemetry{SOC: 50, Temperature: 25, SOH: 98}, model.VehiclePropulsion, model.BMSCharging, model.ContactorClosed, model.Faults{})
}

func TestAnalyze(t *testing.T) {
	var gotPath, gotKey, gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		var req generateRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.Contents) > 0 && len(req.Contents[0].Parts) > 0 {
			gotPrompt = req.Contents[0].Parts[0].Text
		}
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Status: Charging\nReason: Propulsion"},{"text":"\nAction: No action needed at this time."}]}}]}`))
	}))
	defer srv.Close()

	a, err := NewClient(testConfig(srv.URL + "/")).Analyze(context.Background(), snapshot())
	require.NoError(t, err)
	assert.Equal(t, "/v1beta/models/test-model:generateContent", gotPath)
	assert.Equal(t, "k3y", gotKey)
	assert.Equal(t, coreadv.BuildPrompt(snapshot()), gotPrompt)
	assert.Equal(t, "Charging", a.Status())
	assert.Equal(t, "Propulsion", a.Reason())
	assert.Equal(t, "No action needed at this time.", a.Action())
}

func TestAnalyzeFailuresAreUnavailable(t *testing.T) {
	handlers := map[string]http.HandlerFunc{
		"status": func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "bad key", http.StatusForbidden)
		},
		"garbage": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("not json"))
		},
		"empty": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"candidates":[]}`))
		},
	}
	for name, h := range handlers {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()
			_, err := NewClient(testConfig(srv.URL)).Analyze(context.Background(), snapshot())
			assert.ErrorIs(t, err, coreadv.ErrUnavailable)
		})
	}

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	_, err := NewClient(testConfig(url)).Analyze(context.Background(), snapshot())
	assert.ErrorIs(t, err, coreadv.ErrUnavailable)
}

func TestAnalyzeNotConfigured(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.APIKey = ""
	_, err := NewClient(cfg).Analyze(context.Background(), snapshot())
	assert.ErrorIs(t, err, coreadv.ErrNotConfigured)

	off := false
	cfg.Enabled = &off
	_, err = New(cfg).Analyze(context.Background(), snapshot())
	assert.ErrorIs(t, err, coreadv.ErrNotConfigured)
}

func TestAnalyzeRateLimited(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Status: ok"}]}}]}`))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.RequestsPerMinute = 1
	c := NewClient(cfg)
	_, err := c.Analyze(context.Background(), snapshot())
	require.NoError(t, err)
	_, err = c.Analyze(context.Background(), snapshot())
	assert.ErrorIs(t, err, coreadv.ErrRateLimited)
	assert.Equal(t, 1, calls)
}

func TestAnalyzeWithOAuthBearer(t *testing.T) {
	tokens := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"bearer","expires_in":3600}`))
	}))
	defer tokens.Close()

	var gotAuth, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotKey = r.Header.Get("x-goog-api-key")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Status: Idle"}]}}]}`))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.APIKey = ""
	cfg.OAuth.ClientID = "id"
	cfg.OAuth.ClientSecret = "secret"
	cfg.OAuth.TokenURL = tokens.URL

	a, err := NewClient(cfg).Analyze(context.Background(), snapshot())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Empty(t, gotKey)
	assert.Equal(t, "Idle", a.Status())
}
