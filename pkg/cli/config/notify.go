package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/route07/riskcore/pkg/domain/interfaces"
	"github.com/route07/riskcore/pkg/domain/types"
	"github.com/route07/riskcore/pkg/service/notify"
	"github.com/urfave/cli/v3"
)

// Notify holds CLI flags for Slack alerting
type Notify struct {
	botToken  string
	channelID string
}

// Flags returns CLI flags for notification configuration
func (n *Notify) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-bot-token",
			Usage:       "Slack Bot User OAuth Token for high-risk alerts",
			Category:    "Slack",
			Sources:     cli.EnvVars("RISKCORE_SLACK_BOT_TOKEN"),
			Destination: &n.botToken,
		},
		&cli.StringFlag{
			Name:        "slack-channel-id",
			Usage:       "Slack channel ID that receives high-risk alerts",
			Category:    "Slack",
			Sources:     cli.EnvVars("RISKCORE_SLACK_CHANNEL_ID"),
			Destination: &n.channelID,
		},
	}
}

// LogValue returns log attributes for the notification configuration
func (n Notify) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("bot-token.len", len(n.botToken)),
		slog.String("channel", n.channelID),
	)
}

// Configure creates the Slack notifier, or nil when not configured
func (n *Notify) Configure(minLevel types.RiskLevel) (interfaces.Notifier, error) {
	if n.botToken == "" && n.channelID == "" {
		return nil, nil
	}
	if n.botToken == "" || n.channelID == "" {
		return nil, goerr.New("both slack-bot-token and slack-channel-id are required for alerts")
	}

	return notify.New(n.botToken, n.channelID, notify.WithMinLevel(minLevel))
}
