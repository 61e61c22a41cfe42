package services

import (
	"context"

	"github.com/rs/zerolog"
)

// Message is one outbound payslip delivery.
type Message struct {
	RecipientEmail string
	RecipientName  string
	Subject        string
	Body           string
	AttachmentName string
	Attachment     []byte
}

// Mailer hands a rendered document to the delivery system. Transport lives
// outside this service; implementations receive a complete message with the
// attachment bytes already rendered.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer records the would-be delivery instead of sending it. It stands in
// for the real transport in development and tests.
type LogMailer struct {
	Log zerolog.Logger
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.Log.Info().Str("action", "send_payslip").
		Str("recipient", msg.RecipientEmail).
		Str("attachment", msg.AttachmentName).
		Int("bytes", len(msg.Attachment)).
		Msg("mail delivery (log only)")
	return nil
}
