package hours

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"attendance.service/internal/ports/messaging"
	"attendance.service/internal/worker"
	"attendance.service/internal/worker/reportingapi"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// HoursProcessor handles jobs from the hours queue by forwarding closed
// attendance intervals to the external reporting API. A circuit breaker
// keeps us from hammering the reporting system when it is struggling.
type HoursProcessor struct {
	reporting reportingapi.Client
	cb        *gobreaker.CircuitBreaker
}

// NewProcessor creates a new processor for the hours queue.
func NewProcessor(reporting reportingapi.Client) *HoursProcessor {
	settings := gobreaker.Settings{
		Name:        "Reporting-API",
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Trip if the failure rate exceeds 50% after at least 10 requests
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.5
		},
	}

	return &HoursProcessor{
		reporting: reporting,
		cb:        gobreaker.NewCircuitBreaker(settings),
	}
}

// Process handles one message from the hours queue. The processor keeps no
// state of its own: a failed call is retried through SQS redelivery, with
// the visibility delay growing with the receive count.
func (p *HoursProcessor) Process(ctx context.Context, msg types.Message) (bool, int32, error) {
	var event messaging.HoursEvent
	if err := json.Unmarshal([]byte(*msg.Body), &event); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to unmarshal hours event")
		return false, 0, err // Do not retry on malformed message
	}

	log.Ctx(ctx).Info().
		Str("user_id", event.UserID).
		Str("event_id", event.EventID).
		Int64("total_minutes", event.TotalMinutes).
		Msg("Forwarding attendance to reporting API")

	_, err := p.cb.Execute(func() (interface{}, error) {
		return nil, p.reporting.RecordHours(ctx, event)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			log.Ctx(ctx).Warn().Msg("Circuit Breaker is OPEN; skipping reporting API call")
		}
		return true, worker.Backoff(worker.ReceiveCount(msg)), err
	}

	return false, 0, nil
}
