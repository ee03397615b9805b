package email

import (
	"context"
	"encoding/json"

	"attendance.service/internal/core"
	"attendance.service/internal/ports/messaging"
	"attendance.service/internal/worker"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog/log"
)

// EmailProcessor turns email events from the queue into SES summary emails.
type EmailProcessor struct {
	emailService core.EmailService
	domain       string
}

// NewProcessor sets up a new processor for handling email jobs. Volunteer
// addresses are userID@domain until the profile service exposes real ones.
func NewProcessor(emailService core.EmailService, domain string) *EmailProcessor {
	return &EmailProcessor{
		emailService: emailService,
		domain:       domain,
	}
}

// Process handles one message from the email queue. It tries to send the
// summary email and tells the worker to retry if something goes wrong.
func (p *EmailProcessor) Process(ctx context.Context, msg types.Message) (bool, int32, error) {
	var event messaging.EmailEvent
	if err := json.Unmarshal([]byte(*msg.Body), &event); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to unmarshal email event")
		return false, 0, err // Do not retry on malformed message
	}

	err := p.emailService.SendAttendanceSummary(ctx, event.UserID+"@"+p.domain, event.TotalMinutes)
	if err != nil {
		return true, worker.Backoff(worker.ReceiveCount(msg)), err
	}

	log.Ctx(ctx).Info().Str("user_id", event.UserID).Msg("Attendance summary email sent")
	return false, 0, nil
}
