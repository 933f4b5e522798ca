package audit

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// KafkaPublisher ships auth events to a Kafka topic keyed by user id,
// so one user's events stay ordered within a partition.
type KafkaPublisher struct {
	w     *kafka.Writer
	topic string
	log   *zap.Logger
}

var _ Publisher = (*KafkaPublisher)(nil)

func NewKafkaPublisher(brokers []string, topic string, log *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		w: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		},
		topic: topic,
		log:   log.With(zap.String("component", "audit.kafka"), zap.String("topic", topic)),
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	value, err := json.Marshal(ev)
	if err != nil {
		p.log.Error("marshal event", zap.Error(err))
		return err
	}

	tr := otel.Tracer("audit.kafka")
	ctx, span := tr.Start(ctx, "audit.publish "+p.topic, trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			semconv.MessagingSystem("kafka"),
			semconv.MessagingDestinationName(p.topic),
		),
	)
	defer span.End()

	hdrs := carrierHeaders{}
	otel.GetTextMapPropagator().Inject(ctx, hdrs)

	msg := kafka.Message{
		Key:     []byte(strconv.FormatInt(ev.UserID, 10)),
		Value:   value,
		Headers: hdrs.toKafka(),
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		p.log.Error("kafka write", zap.Error(err))
		return err
	}
	p.log.Debug("event published", zap.String("kind", string(ev.Kind)), zap.Int64("user_id", ev.UserID))
	return nil
}

func (p *KafkaPublisher) Close() error { return p.w.Close() }

type carrierHeaders map[string]string

func (m carrierHeaders) Get(k string) string { return m[k] }
func (m carrierHeaders) Set(k, v string)     { m[k] = v }
func (m carrierHeaders) Keys() []string {
	ks := make([]string, 0, len(m))
	for k := range m {
		ks = append(ks, k)
	}
	return ks
}

func (m carrierHeaders) toKafka() []kafka.Header {
	hs := make([]kafka.Header, 0, len(m))
	for k, v := range m {
		hs = append(hs, kafka.Header{Key: k, Value: []byte(v)})
	}
	return hs
}
