package webintel

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/route07/riskcore/pkg/domain/interfaces"
	"github.com/route07/riskcore/pkg/domain/model"
	"github.com/route07/riskcore/pkg/domain/types"
	"github.com/route07/riskcore/pkg/metrics"
	"github.com/route07/riskcore/pkg/service/ratelimit"
	"github.com/route07/riskcore/pkg/utils/logging"
	"github.com/route07/riskcore/pkg/utils/safe"
)

// client implements interfaces.WebIntelService
type client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	metrics    *metrics.Metrics
	timeout    time.Duration
}

var _ interfaces.WebIntelService = &client{}

// Option is a functional option for the web intelligence client
type Option func(*client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		c.httpClient = hc
	}
}

// WithTimeout bounds a single search call
func WithTimeout(d time.Duration) Option {
	return func(c *client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMetrics records fetch outcomes and latencies
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *client) {
		c.metrics = m
	}
}

// New creates a web intelligence client for the provider at baseURL
func New(baseURL, apiKey string, limiter *ratelimit.Limiter, opts ...Option) (interfaces.WebIntelService, error) {
	if baseURL == "" {
		return nil, goerr.New("web intelligence base URL is required")
	}
	if limiter == nil {
		return nil, goerr.New("rate limiter is required")
	}

	c := &client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: http.DefaultClient,
		limiter:    limiter,
		timeout:    30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type searchResponse struct {
	Results []struct {
		Title    string `json:"title"`
		Snippet  string `json:"snippet"`
		URL      string `json:"url"`
		Severity string `json:"severity"`
		Category string `json:"category"`
	} `json:"results"`
}

// Search queries the provider for public-web findings about the subject.
// Provider failures degrade to an empty result with OutcomeDegraded; only
// context cancellation surfaces as an error.
func (c *client) Search(ctx context.Context, subject *model.Subject) (model.WebIntelResult, error) {
	if err := c.limiter.Acquire(ctx, types.ProviderWebIntel); err != nil {
		return model.WebIntelResult{}, goerr.Wrap(err, "cancelled while waiting for web intelligence budget")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	result, err := c.search(ctx, subject)
	c.metrics.ObserveFetchLatency(types.ProviderWebIntel.String(), time.Since(start))

	if err != nil {
		if ctx.Err() == context.Canceled {
			return model.WebIntelResult{}, goerr.Wrap(err, "web intelligence search cancelled")
		}

		logging.From(ctx).Warn("web intelligence search degraded",
			"subject", subject.ID,
			"error", err)
		c.metrics.CountFetch(types.ProviderWebIntel.String(), types.OutcomeDegraded.String())
		return model.WebIntelResult{Outcome: types.OutcomeDegraded}, nil
	}

	c.metrics.CountFetch(types.ProviderWebIntel.String(), result.Outcome.String())
	return result, nil
}

func (c *client) search(ctx context.Context, subject *model.Subject) (model.WebIntelResult, error) {
	q := url.Values{}
	q.Set("q", subject.Name)
	if subject.Nationality != "" {
		q.Set("country", subject.Nationality)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/search?"+q.Encode(), nil)
	if err != nil {
		return model.WebIntelResult{}, goerr.Wrap(err, "failed to build search request")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.WebIntelResult{}, goerr.Wrap(err, "web intelligence request failed")
	}
	defer safe.Close(ctx, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return model.WebIntelResult{}, goerr.New("unexpected status from web intelligence provider",
			goerr.V("status", resp.StatusCode))
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return model.WebIntelResult{}, goerr.Wrap(err, "failed to decode search response")
	}

	findings := make([]model.WebIntelFinding, 0, len(payload.Results))
	for _, r := range payload.Results {
		findings = append(findings, model.WebIntelFinding{
			Title:    r.Title,
			Snippet:  r.Snippet,
			URL:      r.URL,
			Severity: parseSeverity(r.Severity),
			Category: parseCategory(r.Category),
		})
	}

	outcome := types.OutcomeHit
	if len(findings) == 0 {
		outcome = types.OutcomeEmpty
	}
	return model.WebIntelResult{Findings: findings, Outcome: outcome}, nil
}

// parseSeverity maps a provider severity label onto the local scale.
// Unrecognized labels count as LOW rather than being dropped.
func parseSeverity(s string) types.RiskLevel {
	if level, err := types.ParseRiskLevel(s); err == nil {
		return level
	}
	return types.RiskLevelLow
}

// parseCategory maps a provider category onto the factor taxonomy, falling
// back to adverse media for anything unrecognized.
func parseCategory(s string) types.FactorType {
	if t, err := types.ParseFactorType(s); err == nil {
		return t
	}
	return types.FactorTypeAdverseMedia
}
