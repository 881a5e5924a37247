package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/company-intel/internal/domain"
)

// EventPublisher announces job lifecycle transitions
type EventPublisher interface {
	Publish(ctx context.Context, event domain.JobEvent) error
}

// messagePublisher is satisfied by *rabbitmq.Client
type messagePublisher interface {
	PublishWithRetry(ctx context.Context, body []byte, contentType string) error
}

// RabbitEventPublisher publishes job events as JSON over RabbitMQ
type RabbitEventPublisher struct {
	client messagePublisher
	logger *slog.Logger
}

// NewRabbitEventPublisher wraps a RabbitMQ client
func NewRabbitEventPublisher(client messagePublisher, logger *slog.Logger) *RabbitEventPublisher {
	return &RabbitEventPublisher{
		client: client,
		logger: logger,
	}
}

func (p *RabbitEventPublisher) Publish(ctx context.Context, event domain.JobEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal job event: %w", err)
	}

	if err := p.client.PublishWithRetry(ctx, body, "application/json"); err != nil {
		return err
	}

	p.logger.Debug("Job event published",
		slog.String("job_id", event.JobID),
		slog.String("status", event.Status),
	)
	return nil
}
