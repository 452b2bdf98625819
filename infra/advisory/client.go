package advisory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/kilianp07/bms12v/auth"
	"github.com/kilianp07/bms12v/config"
	coreadv "github.com/kilianp07/bms12v/core/advisory"
	"github.com/kilianp07/bms12v/core/logger"
	"github.com/kilianp07/bms12v/core/model"
	coremon "github.com/kilianp07/bms12v/core/monitoring"
	infralog "github.com/kilianp07/bms12v/infra/logger"
)

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Client calls the generateContent endpoint of a Gemini-compatible service.
type Client struct {
	cfg     config.AdvisoryConfig
	http    *http.Client
	limiter *rate.Limiter
	token   *auth.ClientCred
	log     logger.Logger
}

// NewClient builds a client from cfg. Requests are limited to
// cfg.RequestsPerMinute with a burst of one.
func NewClient(cfg config.AdvisoryConfig) *Client {
	cfg.SetDefaults()
	c := &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout()},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerMinute/60), 1),
		log:     infralog.New("advisory"),
	}
	if cfg.OAuth.Enabled() {
		c.token = auth.NewClientCred(cfg.OAuth)
	}
	return c
}

// New returns a Client, or coreadv.Disabled when the service is switched off.
func New(cfg config.AdvisoryConfig) coreadv.Advisor {
	if !cfg.On() {
		return coreadv.Disabled{}
	}
	return NewClient(cfg)
}

func (c *Client) endpoint() string {
	return fmt.Sprintf("%s/v1beta/models/%s:generateContent", strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.Model)
}

// Analyze sends the prompt built from snap and parses the reply.
func (c *Client) Analyze(ctx context.Context, snap model.Snapshot) (coreadv.Analysis, error) {
	if !c.cfg.Credentialed() {
		return coreadv.Analysis{}, coreadv.ErrNotConfigured
	}
	if !c.limiter.Allow() {
		return coreadv.Analysis{}, coreadv.ErrRateLimited
	}
	start := time.Now()
	text, err := c.generate(ctx, coreadv.BuildPrompt(snap))
	if err != nil {
		c.log.Errorf("advisory request failed after %s: %v", time.Since(start), err)
		coremon.CaptureException(err, map[string]string{"module": "advisory", "model": c.cfg.Model})
		return coreadv.Analysis{}, err
	}
	c.log.Debugf("advisory request took %s", time.Since(start))
	return coreadv.ParseAnalysis(text), nil
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{Contents: []content{{Parts: []part{{Text: prompt}}}}})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", coreadv.ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("x-goog-api-key", c.cfg.APIKey)
	}
	if c.token != nil {
		if err := c.token.SetAuthHeader(req); err != nil {
			return "", fmt.Errorf("%w: %v", coreadv.ErrUnavailable, err)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", coreadv.ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: status %d: %s", coreadv.ErrUnavailable, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", coreadv.ErrUnavailable, err)
	}
	var b strings.Builder
	if len(out.Candidates) > 0 {
		for _, p := range out.Candidates[0].Content.Parts {
			b.WriteString(p.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("%w: empty response", coreadv.ErrUnavailable)
	}
	return b.String(), nil
}
