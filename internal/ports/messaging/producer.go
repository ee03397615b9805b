package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Producer publishes domain events to the hours and email queues.
type Producer struct {
	sender        MessageSender
	hoursQueueURL string
	emailQueueURL string
}

func NewProducer(sender MessageSender, hoursQueueURL, emailQueueURL string) *Producer {
	return &Producer{
		sender:        sender,
		hoursQueueURL: hoursQueueURL,
		emailQueueURL: emailQueueURL,
	}
}

// NewSQSProducer creates a Producer backed by an AWS SQS sender.
func NewSQSProducer(client SQSClient, hoursQueueURL, emailQueueURL string) *Producer {
	return NewProducer(&SQSSender{client: client}, hoursQueueURL, emailQueueURL)
}

func (p *Producer) PublishHours(ctx context.Context, body interface{}) error {
	return p.publish(ctx, p.hoursQueueURL, body)
}

func (p *Producer) PublishEmail(ctx context.Context, body interface{}) error {
	return p.publish(ctx, p.emailQueueURL, body)
}

func (p *Producer) publish(ctx context.Context, destination string, body interface{}) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal body: %w", err)
	}

	// Enrich the current span with the user id if available
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		var payload struct {
			UserID string `json:"userId"`
		}
		if err := json.Unmarshal(b, &payload); err == nil && payload.UserID != "" {
			span.SetAttributes(attribute.String("app.userId", payload.UserID))
		}
	}

	if err := p.sender.SendMessage(ctx, destination, b); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}
