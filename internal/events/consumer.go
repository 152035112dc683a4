package events

import (
	"context"
	"strings"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// RedemptionRecorder is the slice of the pricing application the consumer
// needs: advancing redemption counters for offers a booking used.
type RedemptionRecorder interface {
	RecordOfferRedemptions(ctx context.Context, offerIDs []uuid.UUID) error
}

// BookingEventConsumer listens to booking events and records offer
// redemptions once a booking is confirmed.
type BookingEventConsumer struct {
	reader   *kafkago.Reader
	recorder RedemptionRecorder
	logger   *zap.Logger
}

// NewBookingEventConsumer creates a consumer for the booking topic.
func NewBookingEventConsumer(brokers []string, groupID string, recorder RedemptionRecorder, logger *zap.Logger) *BookingEventConsumer {
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  brokers,
		GroupID:  groupID,
		Topic:    TopicBookingEvents,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &BookingEventConsumer{reader: reader, recorder: recorder, logger: logger}
}

// Start consumes booking events until the context is cancelled.
func (c *BookingEventConsumer) Start(ctx context.Context) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		if err := c.handleMessage(ctx, msg); err != nil {
			c.logger.Error("failed to handle booking event",
				zap.Error(err),
				zap.String("raw", string(msg.Value)),
			)
		}
	}
}

func (c *BookingEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	env, err := ParseEnvelope(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse event envelope",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return err
	}

	switch {
	case strings.EqualFold(env.Type, BookingConfirmed):
		return c.handleBookingConfirmed(ctx, env)
	default:
		c.logger.Debug("ignoring unhandled booking event type", zap.String("type", env.Type))
		return nil
	}
}

func (c *BookingEventConsumer) handleBookingConfirmed(ctx context.Context, env Envelope) error {
	var event BookingConfirmedEvent
	if err := env.ParseData(&event); err != nil {
		return err
	}
	if len(event.AppliedOfferIDs) == 0 {
		return nil
	}

	c.logger.Info("recording offer redemptions for confirmed booking",
		zap.String("booking_id", event.BookingID.String()),
		zap.Int("offers", len(event.AppliedOfferIDs)),
	)
	return c.recorder.RecordOfferRedemptions(ctx, event.AppliedOfferIDs)
}

// Close closes the underlying Kafka reader.
func (c *BookingEventConsumer) Close() error {
	return c.reader.Close()
}
