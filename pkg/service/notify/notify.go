package notify

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/route07/riskcore/pkg/domain/interfaces"
	"github.com/route07/riskcore/pkg/domain/model"
	"github.com/route07/riskcore/pkg/domain/types"
	"github.com/slack-go/slack"
)

// client implements interfaces.Notifier over Slack. One channel receives all
// high-risk alerts.
type client struct {
	api       *slack.Client
	channelID string
	minLevel  types.RiskLevel
}

var _ interfaces.Notifier = &client{}

// Option is a functional option for client configuration
type Option func(*client)

// WithMinLevel sets the lowest risk level that triggers an alert
func WithMinLevel(level types.RiskLevel) Option {
	return func(c *client) {
		c.minLevel = level
	}
}

// New creates a Slack notifier posting to the given channel
func New(token, channelID string, opts ...Option) (interfaces.Notifier, error) {
	if token == "" {
		return nil, goerr.New("Slack bot token is required")
	}
	if channelID == "" {
		return nil, goerr.New("Slack channel ID is required")
	}

	c := &client{
		api:       slack.New(token),
		channelID: channelID,
		minLevel:  types.RiskLevelHigh,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NotifyHighRisk posts an alert for the completed assessment when the
// aggregate level meets the configured threshold. Below-threshold results
// are a no-op.
func (c *client) NotifyHighRisk(ctx context.Context, subject *model.Subject, result *model.AssessmentResult) error {
	if !result.AggregateLevel.AtLeast(c.minLevel) {
		return nil
	}

	blocks := buildBlocks(subject, result)
	fallback := fmt.Sprintf("%s risk: %s scored %d", result.AggregateLevel, subject.Name, result.AggregateScore)

	_, _, err := c.api.PostMessageContext(ctx, c.channelID,
		slack.MsgOptionBlocks(blocks...),
		slack.MsgOptionText(fallback, false),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to post risk alert",
			goerr.V("channelID", c.channelID),
			goerr.V("subjectID", subject.ID))
	}
	return nil
}

func buildBlocks(subject *model.Subject, result *model.AssessmentResult) []slack.Block {
	header := slack.NewHeaderBlock(
		slack.NewTextBlockObject(slack.PlainTextType,
			fmt.Sprintf("%s %s risk detected", levelEmoji(result.AggregateLevel), result.AggregateLevel), false, false),
	)

	fields := []*slack.TextBlockObject{
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Subject:*\n%s", subject.Name), false, false),
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Score:*\n%d / 100", result.AggregateScore), false, false),
	}
	for _, dim := range result.Dimensions {
		fields = append(fields, slack.NewTextBlockObject(slack.MarkdownType,
			fmt.Sprintf("*%s:*\n%d (%s)", dim.Dimension, dim.Score, dim.Level), false, false))
	}

	blocks := []slack.Block{
		header,
		slack.NewSectionBlock(nil, fields, nil),
	}

	if len(result.Factors) > 0 {
		text := "*Top factors:*"
		for i, f := range result.Factors {
			if i >= 5 {
				break
			}
			text += fmt.Sprintf("\n• [%s] %s", f.Severity, f.Description)
		}
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, nil))
	}

	return blocks
}

func levelEmoji(level types.RiskLevel) string {
	switch level {
	case types.RiskLevelCritical:
		return "🚨"
	case types.RiskLevelHigh:
		return "⚠️"
	default:
		return "ℹ️"
	}
}
