package events

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

// Handler processes one raw event. Implementations must absorb their own
// failures (dead-letter, logging); the consumer commits regardless so one bad
// event never wedges the partition.
type Handler interface {
	HandleEvent(ctx context.Context, raw []byte)
}

var eventsConsumed = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "media_provider_events_consumed_total",
		Help: "Provider lifecycle events read from the event topic.",
	},
	[]string{"topic"},
)

func init() {
	prometheus.MustRegister(eventsConsumed)
}

// Consumer reads provider lifecycle events off Kafka and hands them to the
// reconciler.
type Consumer struct {
	reader  *kafka.Reader
	handler Handler
}

func NewConsumer(brokers []string, topic, groupID string, handler Handler) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: reader, handler: handler}
}

// Run consumes until the context is cancelled. Read errors back off and
// retry; handler outcomes never stop the loop.
func (c *Consumer) Run(ctx context.Context) {
	defer c.reader.Close()
	log.Info().Str("topic", c.reader.Config().Topic).Msg("event consumer starting")

	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				log.Info().Msg("event consumer stopping (context cancelled)")
				return
			}
			log.Error().Err(err).Msg("kafka read error, retrying in 1s")
			select {
			case <-time.After(time.Second):
				continue
			case <-ctx.Done():
				return
			}
		}

		eventsConsumed.WithLabelValues(c.reader.Config().Topic).Inc()
		c.handler.HandleEvent(ctx, m.Value)
	}
}
