package auditstream

import (
	"context"
	"encoding/json"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/route07/riskcore/pkg/domain/interfaces"
	"github.com/route07/riskcore/pkg/domain/model"
	"github.com/twmb/franz-go/pkg/kgo"
)

// DefaultTopic is the stream topic audit events are published to
const DefaultTopic = "riskcore.audit.v1"

// client implements interfaces.AuditPublisher over a Kafka topic. Records
// are keyed by subject so one subject's events stay ordered within a
// partition.
type client struct {
	kafka   *kgo.Client
	topic   string
	timeout time.Duration
}

var _ interfaces.AuditPublisher = &client{}

// Option is a functional option for the audit stream client
type Option func(*client)

// WithTopic overrides the destination topic
func WithTopic(topic string) Option {
	return func(c *client) {
		if topic != "" {
			c.topic = topic
		}
	}
}

// WithTimeout bounds a single publish call
func WithTimeout(d time.Duration) Option {
	return func(c *client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// New creates an audit stream publisher connected to the given brokers
func New(brokers []string, opts ...Option) (interfaces.AuditPublisher, error) {
	if len(brokers) == 0 {
		return nil, goerr.New("at least one Kafka broker is required")
	}

	c := &client{
		topic:   DefaultTopic,
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}

	kafka, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(c.topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Kafka client", goerr.V("brokers", brokers))
	}
	c.kafka = kafka

	return c, nil
}

type streamEvent struct {
	ID              string         `json:"id"`
	SubjectID       string         `json:"subject_id"`
	DimensionScores map[string]int `json:"dimension_scores"`
	AggregateScore  int            `json:"aggregate_score"`
	AggregateLevel  string         `json:"aggregate_level"`
	Confidence      int            `json:"confidence"`
	Sources         []string       `json:"sources"`
	CreatedAt       time.Time      `json:"created_at"`
}

// Publish sends one audit event to the stream and waits for the broker ack
func (c *client) Publish(ctx context.Context, event *model.AuditEvent) error {
	scores := make(map[string]int, len(event.DimensionScores))
	for dim, score := range event.DimensionScores {
		scores[dim.String()] = score
	}

	value, err := json.Marshal(streamEvent{
		ID:              event.ID.String(),
		SubjectID:       event.SubjectID.String(),
		DimensionScores: scores,
		AggregateScore:  event.AggregateScore,
		AggregateLevel:  event.AggregateLevel.String(),
		Confidence:      event.Confidence,
		Sources:         event.Sources,
		CreatedAt:       event.CreatedAt,
	})
	if err != nil {
		return goerr.Wrap(err, "failed to encode audit event", goerr.V("eventID", event.ID))
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	record := &kgo.Record{
		Key:   []byte(event.SubjectID.String()),
		Value: value,
	}
	if err := c.kafka.ProduceSync(ctx, record).FirstErr(); err != nil {
		return goerr.Wrap(err, "failed to publish audit event",
			goerr.V("eventID", event.ID),
			goerr.V("topic", c.topic))
	}
	return nil
}

// Close flushes buffered records and releases the client
func (c *client) Close() {
	c.kafka.Close()
}
