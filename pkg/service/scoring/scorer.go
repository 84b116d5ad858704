package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/route07/riskcore/pkg/domain/interfaces"
	"github.com/route07/riskcore/pkg/domain/model"
	"github.com/route07/riskcore/pkg/domain/types"
	"github.com/route07/riskcore/pkg/metrics"
	"github.com/route07/riskcore/pkg/service/ratelimit"
)

// PromptVersion is the versioned prompt contract with the AI risk provider.
// Bump it whenever the schema or instructions change.
const PromptVersion = "riskcore.dimensions.v1"

// ErrValidation marks a malformed AI response. This is the one place a bad
// upstream payload is fatal: accepting a partially-shaped score would
// silently corrupt a compliance decision.
var ErrValidation = goerr.New("AI risk response failed validation")

// Scorer produces the four dimensional risk scores via the AI risk provider
type Scorer struct {
	llmClient gollem.LLMClient
	limiter   *ratelimit.Limiter
	metrics   *metrics.Metrics
	timeout   time.Duration
}

var _ interfaces.DimensionScorer = &Scorer{}

// Option is a functional option for Scorer configuration
type Option func(*Scorer)

// WithTimeout bounds a single scoring call
func WithTimeout(d time.Duration) Option {
	return func(s *Scorer) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithMetrics records scoring call latencies
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scorer) {
		s.metrics = m
	}
}

// New creates a Scorer with the provided LLM client
func New(llmClient gollem.LLMClient, limiter *ratelimit.Limiter, opts ...Option) (*Scorer, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}
	if limiter == nil {
		return nil, goerr.New("rate limiter is required")
	}

	s := &Scorer{
		llmClient: llmClient,
		limiter:   limiter,
		timeout:   60 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// aiDimension uses pointer fields so an absent field is distinguishable from
// a zero value during validation.
type aiDimension struct {
	Score     *int      `json:"score"`
	Level     *string   `json:"level"`
	Factors   *[]string `json:"factors"`
	Reasoning *string   `json:"reasoning"`
}

type aiResponse struct {
	Identity *aiDimension `json:"identity"`
	Industry *aiDimension `json:"industry"`
	Network  *aiDimension `json:"network"`
	Security *aiDimension `json:"security"`
	Overall  *aiDimension `json:"overall"`
}

func (r *aiResponse) dimension(d types.Dimension) *aiDimension {
	switch d {
	case types.DimensionIdentity:
		return r.Identity
	case types.DimensionIndustry:
		return r.Industry
	case types.DimensionNetwork:
		return r.Network
	case types.DimensionSecurity:
		return r.Security
	default:
		return nil
	}
}

// AssessDimensions runs one AI scoring call and strictly validates the
// response against the five-dimension contract. Any missing dimension or
// field aborts the whole assessment.
func (s *Scorer) AssessDimensions(ctx context.Context, subject *model.Subject, bundle *model.IntelBundle) ([]model.DimensionScore, error) {
	if err := s.limiter.Acquire(ctx, types.ProviderAIScoring); err != nil {
		return nil, goerr.Wrap(err, "cancelled while waiting for AI scoring budget")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		s.metrics.ObserveFetchLatency(types.ProviderAIScoring.String(), time.Since(start))
	}()

	session, err := s.llmClient.NewSession(ctx,
		gollem.WithSessionContentType(gollem.ContentTypeJSON),
		gollem.WithSessionResponseSchema(responseSchema()),
		gollem.WithSessionSystemPrompt(systemPrompt()),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create AI scoring session")
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(buildUserPrompt(subject, bundle)))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate risk assessment")
	}
	if len(resp.Texts) == 0 {
		return nil, goerr.Wrap(ErrValidation, "AI risk provider returned no content")
	}

	return parseResponse(resp.Texts[0])
}

// parseResponse validates and converts the raw AI response. Exported to the
// degree the tests need via the package boundary: it is exercised through
// fixture payloads.
func parseResponse(raw string) ([]model.DimensionScore, error) {
	var parsed aiResponse
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, goerr.Wrap(ErrValidation, "AI response is not valid JSON", goerr.V("response", raw))
	}

	if parsed.Overall == nil {
		return nil, goerr.Wrap(ErrValidation, "missing dimension in AI response", goerr.V("dimension", "overall"))
	}
	if err := validateDimension("overall", parsed.Overall); err != nil {
		return nil, err
	}

	scores := make([]model.DimensionScore, 0, 4)
	for _, dim := range types.AllDimensions() {
		payload := parsed.dimension(dim)
		if payload == nil {
			return nil, goerr.Wrap(ErrValidation, "missing dimension in AI response", goerr.V("dimension", dim))
		}
		if err := validateDimension(dim.String(), payload); err != nil {
			return nil, err
		}

		score := model.DimensionScore{
			Dimension: dim,
			Score:     *payload.Score,
			Factors:   *payload.Factors,
			Reasoning: *payload.Reasoning,
		}
		// The level is re-derived locally: the threshold function is the
		// single source of truth, the provider's label is advisory.
		score.Normalize()
		scores = append(scores, score)
	}

	return scores, nil
}

func validateDimension(name string, d *aiDimension) error {
	var missing []string
	if d.Score == nil {
		missing = append(missing, "score")
	}
	if d.Level == nil {
		missing = append(missing, "level")
	}
	if d.Factors == nil {
		missing = append(missing, "factors")
	}
	if d.Reasoning == nil {
		missing = append(missing, "reasoning")
	}
	if len(missing) > 0 {
		return goerr.Wrap(ErrValidation, "AI dimension is missing required fields",
			goerr.V("dimension", name),
			goerr.V("missing", missing))
	}

	if _, err := types.ParseRiskLevel(*d.Level); err != nil {
		return goerr.Wrap(ErrValidation, "AI dimension has invalid level",
			goerr.V("dimension", name),
			goerr.V("level", *d.Level))
	}
	return nil
}

func systemPrompt() string {
	var sb strings.Builder

	sb.WriteString("You are a compliance risk assessment engine. Prompt contract: " + PromptVersion + "\n\n")
	sb.WriteString("Assess the onboarding risk of the subject across exactly five dimensions: identity, industry, network, security, and overall.\n\n")
	sb.WriteString("## Instructions:\n\n")
	sb.WriteString("1. identity: confidence in the claimed identity given documents and web presence.\n")
	sb.WriteString("2. industry: exposure from the subject's business sector and jurisdictions.\n")
	sb.WriteString("3. network: risk from associated entities, counterparties and linked wallets.\n")
	sb.WriteString("4. security: account takeover and credential exposure risk.\n")
	sb.WriteString("5. overall: your holistic judgement.\n")
	sb.WriteString("6. For each dimension return score (integer 0-100), level (LOW, MEDIUM, HIGH or CRITICAL), factors (short labels, empty array when none), and reasoning.\n")
	sb.WriteString("7. Base every factor on the provided evidence only. Do not invent findings.\n")

	return sb.String()
}

func buildUserPrompt(subject *model.Subject, bundle *model.IntelBundle) string {
	var sb strings.Builder

	sb.WriteString("## Subject\n\n")
	fmt.Fprintf(&sb, "Name: %s\n", subject.Name)
	fmt.Fprintf(&sb, "Nationality: %s\n", subject.Nationality)
	if subject.WalletAddress != "" {
		fmt.Fprintf(&sb, "Linked wallet: %s\n", subject.WalletAddress)
	}

	sb.WriteString("\n## Document analyses\n\n")
	for _, finding := range bundle.Documents {
		if finding.Analysis == nil {
			fmt.Fprintf(&sb, "- %s: analysis unavailable\n", finding.DocumentID)
			continue
		}
		fmt.Fprintf(&sb, "- %s: %s", finding.DocumentID, finding.Analysis.Summary)
		if len(finding.Analysis.FraudIndicators) > 0 {
			fmt.Fprintf(&sb, " (fraud indicators: %s)", strings.Join(finding.Analysis.FraudIndicators, ", "))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\n## Web intelligence\n\n")
	if len(bundle.WebIntel.Findings) == 0 {
		sb.WriteString("No findings.\n")
	}
	for _, f := range bundle.WebIntel.Findings {
		fmt.Fprintf(&sb, "- [%s/%s] %s: %s\n", f.Severity, f.Category, f.Title, f.Snippet)
	}

	sb.WriteString("\n## Sanctions\n\n")
	if len(bundle.Sanctions.Hits) == 0 {
		sb.WriteString("No matches.\n")
	}
	for _, h := range bundle.Sanctions.Hits {
		match := "partial match"
		if h.ExactMatch {
			match = "exact match"
		}
		fmt.Fprintf(&sb, "- %s on %s (%s)\n", match, h.ListName, h.MatchedName)
	}

	sb.WriteString("\n## Data breaches\n\n")
	if len(bundle.Breaches.Breaches) == 0 {
		sb.WriteString("No breaches.\n")
	}
	for _, b := range bundle.Breaches.Breaches {
		confirmed := "unconfirmed"
		if b.Confirmed {
			confirmed = "confirmed"
		}
		fmt.Fprintf(&sb, "- %s (%s, %s)\n", b.Name, b.Domain, confirmed)
	}

	return sb.String()
}

func dimensionSchema(description string) *gollem.Parameter {
	return &gollem.Parameter{
		Type:        gollem.TypeObject,
		Description: description,
		Properties: map[string]*gollem.Parameter{
			"score": {
				Type:        gollem.TypeInteger,
				Description: "Risk score from 0 (no risk) to 100 (maximum risk)",
			},
			"level": {
				Type:        gollem.TypeString,
				Description: "One of LOW, MEDIUM, HIGH, CRITICAL",
			},
			"factors": {
				Type:        gollem.TypeArray,
				Description: "Short labels of contributing risk factors, empty when none",
				Items:       &gollem.Parameter{Type: gollem.TypeString},
			},
			"reasoning": {
				Type:        gollem.TypeString,
				Description: "Rationale for the score",
			},
		},
		Required: []string{"score", "level", "factors", "reasoning"},
	}
}

func responseSchema() *gollem.Parameter {
	return &gollem.Parameter{
		Title:       "RiskDimensionAssessment",
		Description: "Multi-dimensional onboarding risk assessment",
		Type:        gollem.TypeObject,
		Properties: map[string]*gollem.Parameter{
			"identity": dimensionSchema("Identity verification risk"),
			"industry": dimensionSchema("Industry and jurisdiction exposure"),
			"network":  dimensionSchema("Associated-entity and counterparty risk"),
			"security": dimensionSchema("Credential and account security risk"),
			"overall":  dimensionSchema("Holistic overall judgement"),
		},
		Required: []string{"identity", "industry", "network", "security", "overall"},
	}
}
