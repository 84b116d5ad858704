package sanctions

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jomei/notionapi"
	"github.com/m-mizutani/goerr/v2"
	"github.com/route07/riskcore/pkg/domain/interfaces"
	"github.com/route07/riskcore/pkg/domain/model"
	"github.com/route07/riskcore/pkg/domain/types"
	"github.com/route07/riskcore/pkg/metrics"
	"github.com/route07/riskcore/pkg/service/ratelimit"
	"github.com/route07/riskcore/pkg/utils/logging"
	"github.com/route07/riskcore/pkg/utils/safe"
)

const internalWatchlistName = "internal_watchlist"

// client implements interfaces.SanctionsService. It screens a subject
// against the external list provider and, when configured, an internal
// watchlist database hosted in Notion. Hits from both are merged.
type client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	notion     *notionapi.Client
	notionDBID string
	limiter    *ratelimit.Limiter
	metrics    *metrics.Metrics
	timeout    time.Duration
}

var _ interfaces.SanctionsService = &client{}

// Option is a functional option for the sanctions client
type Option func(*client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		c.httpClient = hc
	}
}

// WithTimeout bounds a single screening call
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

// WithNotionWatchlist adds an internal watchlist database to the screening
// set. Entries are matched by name against the subject.
func WithNotionWatchlist(token, databaseID string) Option {
	return func(c *client) {
		if token != "" && databaseID != "" {
			c.notion = notionapi.NewClient(
				notionapi.Token(token),
				notionapi.WithRetry(3),
			)
			c.notionDBID = databaseID
		}
	}
}

// New creates a sanctions screening client for the provider at baseURL
func New(baseURL, apiKey string, limiter *ratelimit.Limiter, opts ...Option) (interfaces.SanctionsService, error) {
	if baseURL == "" {
		return nil, goerr.New("sanctions base URL is required")
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

type screenResponse struct {
	Matches []struct {
		List       string `json:"list"`
		Name       string `json:"name"`
		ExactMatch bool   `json:"exact_match"`
		Details    string `json:"details"`
	} `json:"matches"`
}

// Check screens the subject against all configured lists. A source failure
// degrades that source only; the result is degraded when every source
// failed. Only context cancellation surfaces as an error.
func (c *client) Check(ctx context.Context, subject *model.Subject) (model.SanctionsResult, error) {
	if err := c.limiter.Acquire(ctx, types.ProviderSanctions); err != nil {
		return model.SanctionsResult{}, goerr.Wrap(err, "cancelled while waiting for sanctions budget")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		c.metrics.ObserveFetchLatency(types.ProviderSanctions.String(), time.Since(start))
	}()

	var hits []model.SanctionsHit
	sources, failed := 1, 0

	listHits, err := c.screenLists(ctx, subject)
	if err != nil {
		if ctx.Err() == context.Canceled {
			return model.SanctionsResult{}, goerr.Wrap(err, "sanctions screening cancelled")
		}
		logging.From(ctx).Warn("sanctions list screening degraded",
			"subject", subject.ID,
			"error", err)
		failed++
	} else {
		hits = append(hits, listHits...)
	}

	if c.notion != nil {
		sources++
		watchlistHits, err := c.screenWatchlist(ctx, subject)
		if err != nil {
			if ctx.Err() == context.Canceled {
				return model.SanctionsResult{}, goerr.Wrap(err, "watchlist screening cancelled")
			}
			logging.From(ctx).Warn("internal watchlist screening degraded",
				"subject", subject.ID,
				"error", err)
			failed++
		} else {
			hits = append(hits, watchlistHits...)
		}
	}

	outcome := types.OutcomeHit
	switch {
	case failed == sources:
		outcome = types.OutcomeDegraded
	case len(hits) == 0:
		outcome = types.OutcomeEmpty
	}

	c.metrics.CountFetch(types.ProviderSanctions.String(), outcome.String())
	return model.SanctionsResult{Hits: hits, Outcome: outcome}, nil
}

func (c *client) screenLists(ctx context.Context, subject *model.Subject) ([]model.SanctionsHit, error) {
	q := url.Values{}
	q.Set("name", subject.Name)
	if subject.Nationality != "" {
		q.Set("nationality", subject.Nationality)
	}
	if subject.DateOfBirth != "" {
		q.Set("dob", subject.DateOfBirth)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/screen?"+q.Encode(), nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build screening request")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "sanctions screening request failed")
	}
	defer safe.Close(ctx, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, goerr.New("unexpected status from sanctions provider",
			goerr.V("status", resp.StatusCode))
	}

	var payload screenResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, goerr.Wrap(err, "failed to decode screening response")
	}

	hits := make([]model.SanctionsHit, 0, len(payload.Matches))
	for _, m := range payload.Matches {
		hits = append(hits, model.SanctionsHit{
			ListName:    m.List,
			MatchedName: m.Name,
			ExactMatch:  m.ExactMatch,
			Details:     m.Details,
		})
	}
	return hits, nil
}

// screenWatchlist matches the subject by name against the internal Notion
// watchlist. Title property holds the listed name; a case-insensitive equal
// counts as exact.
func (c *client) screenWatchlist(ctx context.Context, subject *model.Subject) ([]model.SanctionsHit, error) {
	var hits []model.SanctionsHit
	var cursor notionapi.Cursor

	for {
		resp, err := c.notion.Database.Query(ctx, notionapi.DatabaseID(c.notionDBID), &notionapi.DatabaseQueryRequest{
			StartCursor: cursor,
			PageSize:    100,
		})
		if err != nil {
			return nil, goerr.Wrap(err, "failed to query watchlist database", goerr.V("dbID", c.notionDBID))
		}

		for _, page := range resp.Results {
			name := pageTitle(&page)
			if name == "" {
				continue
			}
			if !strings.Contains(strings.ToLower(name), strings.ToLower(subject.Name)) &&
				!strings.Contains(strings.ToLower(subject.Name), strings.ToLower(name)) {
				continue
			}
			hits = append(hits, model.SanctionsHit{
				ListName:    internalWatchlistName,
				MatchedName: name,
				ExactMatch:  strings.EqualFold(name, subject.Name),
				Details:     "listed on the internal watchlist",
			})
		}

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	return hits, nil
}

func pageTitle(page *notionapi.Page) string {
	for _, prop := range page.Properties {
		title, ok := prop.(*notionapi.TitleProperty)
		if !ok {
			continue
		}
		var sb strings.Builder
		for _, rt := range title.Title {
			sb.WriteString(rt.PlainText)
		}
		return sb.String()
	}
	return ""
}
