package events

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"
)

var deadLettersTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "media_provider_events_dead_lettered_total",
		Help: "Events escalated to the dead-letter topic.",
	},
)

func init() {
	prometheus.MustRegister(deadLettersTotal)
}

// DeadLetterProducer writes unprocessable events to a dead-letter topic,
// preserving the original payload and attaching the failure reason as a
// header.
type DeadLetterProducer struct {
	writer *kafka.Writer
}

func NewDeadLetterProducer(brokers []string, topic string) *DeadLetterProducer {
	return &DeadLetterProducer{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// SendToDeadLetter publishes the original envelope with the reason attached.
func (p *DeadLetterProducer) SendToDeadLetter(ctx context.Context, original []byte, reason string) error {
	err := p.writer.WriteMessages(ctx, kafka.Message{
		Value: original,
		Headers: []kafka.Header{
			{Key: "x-dead-letter-reason", Value: []byte(reason)},
		},
	})
	if err != nil {
		return err
	}
	deadLettersTotal.Inc()
	return nil
}

// Close flushes and closes the underlying writer.
func (p *DeadLetterProducer) Close() error {
	return p.writer.Close()
}
