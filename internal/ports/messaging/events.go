package messaging

import "time"

// HoursEvent is the JSON payload sent via SQS to the hours queue when a
// volunteer signs out. The hours worker forwards it to the external
// volunteer-hours reporting API.
type HoursEvent struct {
	RecordID     string    `json:"recordId"`
	EventID      string    `json:"eventId"`
	UserID       string    `json:"userId"`
	TotalMinutes int64     `json:"totalMinutes"`
	SignOutTime  time.Time `json:"signOutTime"`
}

// EmailEvent is the JSON payload sent via SQS to the email queue when a
// volunteer signs out. The email worker turns it into a summary email.
type EmailEvent struct {
	RecordID     string    `json:"recordId"`
	EventID      string    `json:"eventId"`
	UserID       string    `json:"userId"`
	TotalMinutes int64     `json:"totalMinutes"`
	OccurredAt   time.Time `json:"occurredAt"`
}
