package breach

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

// client implements interfaces.BreachService against an HIBP-style
// breached-account API keyed on the subject's email address.
type client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	metrics    *metrics.Metrics
	timeout    time.Duration
}

var _ interfaces.BreachService = &client{}

// Option is a functional option for the breach client
type Option func(*client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		c.httpClient = hc
	}
}

// WithTimeout bounds a single lookup call
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

// New creates a breach lookup client for the provider at baseURL
func New(baseURL, apiKey string, limiter *ratelimit.Limiter, opts ...Option) (interfaces.BreachService, error) {
	if baseURL == "" {
		return nil, goerr.New("breach base URL is required")
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

type breachRecord struct {
	Name       string `json:"name"`
	Domain     string `json:"domain"`
	Verified   bool   `json:"verified"`
	BreachDate string `json:"breach_date"`
}

// Check looks up the subject's email in the breach corpus. A subject
// without an email yields an empty result without calling the provider.
// Provider failures degrade; only context cancellation surfaces as error.
func (c *client) Check(ctx context.Context, subject *model.Subject) (model.BreachResult, error) {
	if subject.Email == "" {
		c.metrics.CountFetch(types.ProviderBreach.String(), types.OutcomeEmpty.String())
		return model.BreachResult{Outcome: types.OutcomeEmpty}, nil
	}

	if err := c.limiter.Acquire(ctx, types.ProviderBreach); err != nil {
		return model.BreachResult{}, goerr.Wrap(err, "cancelled while waiting for breach lookup budget")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	result, err := c.lookup(ctx, subject.Email)
	c.metrics.ObserveFetchLatency(types.ProviderBreach.String(), time.Since(start))

	if err != nil {
		if ctx.Err() == context.Canceled {
			return model.BreachResult{}, goerr.Wrap(err, "breach lookup cancelled")
		}

		logging.From(ctx).Warn("breach lookup degraded",
			"subject", subject.ID,
			"error", err)
		c.metrics.CountFetch(types.ProviderBreach.String(), types.OutcomeDegraded.String())
		return model.BreachResult{Outcome: types.OutcomeDegraded}, nil
	}

	c.metrics.CountFetch(types.ProviderBreach.String(), result.Outcome.String())
	return result, nil
}

func (c *client) lookup(ctx context.Context, email string) (model.BreachResult, error) {
	endpoint := c.baseURL + "/v1/breachedaccount/" + url.PathEscape(email)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return model.BreachResult{}, goerr.Wrap(err, "failed to build breach lookup request")
	}
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.BreachResult{}, goerr.Wrap(err, "breach lookup request failed")
	}
	defer safe.Close(ctx, resp.Body)

	// Not-found means the account is absent from the corpus.
	if resp.StatusCode == http.StatusNotFound {
		return model.BreachResult{Outcome: types.OutcomeEmpty}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return model.BreachResult{}, goerr.New("unexpected status from breach provider",
			goerr.V("status", resp.StatusCode))
	}

	var records []breachRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return model.BreachResult{}, goerr.Wrap(err, "failed to decode breach response")
	}

	breaches := make([]model.BreachHit, 0, len(records))
	for _, r := range records {
		hit := model.BreachHit{
			Name:      r.Name,
			Domain:    r.Domain,
			Confirmed: r.Verified,
		}
		if t, err := time.Parse("2006-01-02", r.BreachDate); err == nil {
			hit.BreachDate = t
		}
		breaches = append(breaches, hit)
	}

	outcome := types.OutcomeHit
	if len(breaches) == 0 {
		outcome = types.OutcomeEmpty
	}
	return model.BreachResult{Breaches: breaches, Outcome: outcome}, nil
}
