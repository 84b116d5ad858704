package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/route07/riskcore/pkg/domain/interfaces"
	"github.com/route07/riskcore/pkg/domain/types"
	"github.com/route07/riskcore/pkg/metrics"
	"github.com/route07/riskcore/pkg/service/ratelimit"
	"github.com/route07/riskcore/pkg/utils/safe"
)

// client implements interfaces.LedgerMirror against the ledger gateway's
// score endpoint. Callers treat mirror failures as best-effort; this client
// just reports them.
type client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	metrics    *metrics.Metrics
	timeout    time.Duration
}

var _ interfaces.LedgerMirror = &client{}

// Option is a functional option for the ledger client
type Option func(*client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		c.httpClient = hc
	}
}

// WithTimeout bounds a single mirror call
func WithTimeout(d time.Duration) Option {
	return func(c *client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMetrics records mirror outcomes and latencies
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *client) {
		c.metrics = m
	}
}

// New creates a ledger mirror client for the gateway at baseURL
func New(baseURL, apiKey string, limiter *ratelimit.Limiter, opts ...Option) (interfaces.LedgerMirror, error) {
	if baseURL == "" {
		return nil, goerr.New("ledger base URL is required")
	}
	if limiter == nil {
		return nil, goerr.New("rate limiter is required")
	}

	c := &client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: http.DefaultClient,
		limiter:    limiter,
		timeout:    15 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type mirrorRequest struct {
	WalletAddress string `json:"wallet_address"`
	Score         int    `json:"score"`
	Level         string `json:"level"`
}

// MirrorScore pushes the aggregate score for a linked wallet to the ledger
func (c *client) MirrorScore(ctx context.Context, walletAddress string, score int, level types.RiskLevel) error {
	if walletAddress == "" {
		return goerr.New("wallet address is required")
	}

	if err := c.limiter.Acquire(ctx, types.ProviderLedger); err != nil {
		return goerr.Wrap(err, "cancelled while waiting for ledger budget")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		c.metrics.ObserveFetchLatency(types.ProviderLedger.String(), time.Since(start))
	}()

	body, err := json.Marshal(mirrorRequest{
		WalletAddress: walletAddress,
		Score:         score,
		Level:         level.String(),
	})
	if err != nil {
		return goerr.Wrap(err, "failed to encode mirror request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/scores", bytes.NewReader(body))
	if err != nil {
		return goerr.Wrap(err, "failed to build mirror request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.CountFetch(types.ProviderLedger.String(), types.OutcomeDegraded.String())
		return goerr.Wrap(err, "ledger mirror request failed", goerr.V("wallet", walletAddress))
	}
	defer safe.Close(ctx, resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		c.metrics.CountFetch(types.ProviderLedger.String(), types.OutcomeDegraded.String())
		return goerr.New("unexpected status from ledger gateway",
			goerr.V("status", resp.StatusCode),
			goerr.V("wallet", walletAddress))
	}

	c.metrics.CountFetch(types.ProviderLedger.String(), types.OutcomeHit.String())
	return nil
}
