package config

import (
	"github.com/route07/riskcore/pkg/domain/interfaces"
	"github.com/route07/riskcore/pkg/service/auditstream"
	"github.com/route07/riskcore/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Kafka holds CLI flags for the audit event stream
type Kafka struct {
	brokers []string
	topic   string
}

// Flags returns CLI flags for Kafka configuration
func (k *Kafka) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:        "kafka-brokers",
			Usage:       "Kafka broker addresses for the audit stream (disabled when empty)",
			Category:    "Kafka",
			Sources:     cli.EnvVars("RISKCORE_KAFKA_BROKERS"),
			Destination: &k.brokers,
		},
		&cli.StringFlag{
			Name:        "kafka-audit-topic",
			Usage:       "Kafka topic for audit events",
			Category:    "Kafka",
			Value:       auditstream.DefaultTopic,
			Sources:     cli.EnvVars("RISKCORE_KAFKA_AUDIT_TOPIC"),
			Destination: &k.topic,
		},
	}
}

// Configure creates the audit stream publisher, or nil when no brokers are
// configured. The caller is responsible for calling Close().
func (k *Kafka) Configure() (interfaces.AuditPublisher, error) {
	if len(k.brokers) == 0 {
		return nil, nil
	}

	pub, err := auditstream.New(k.brokers, auditstream.WithTopic(k.topic))
	if err != nil {
		return nil, err
	}

	logging.Default().Info("audit stream publishing enabled",
		"brokers", k.brokers,
		"topic", k.topic)
	return pub, nil
}
