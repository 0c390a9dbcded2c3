package services

import (
	"context"
	"fmt"
	"os"

	"github.com/Amsterdam/meldingen-sub000/internal/clients/sendgrid"
	"github.com/Amsterdam/meldingen-sub000/internal/domain"
	"github.com/Amsterdam/meldingen-sub000/internal/platform/envutil"
	"github.com/Amsterdam/meldingen-sub000/internal/platform/logger"
)

// Mailer sends lifecycle notifications to the melder. Implementations must
// treat a melding without an email address as a no-op.
type Mailer interface {
	SendConfirmation(ctx context.Context, m *domain.Melding) error
	SendCompletion(ctx context.Context, m *domain.Melding) error
}

// NewMailerFromEnv returns a SendGrid-backed mailer when SENDGRID_API_KEY is
// set and a log-only mailer otherwise, so local setups work without an
// account.
func NewMailerFromEnv(baseLog *logger.Logger) Mailer {
	log := baseLog.With("service", "Mailer")
	if os.Getenv("SENDGRID_API_KEY") == "" {
		log.Info("SENDGRID_API_KEY not set, using log-only mailer")
		return &logMailer{log: log}
	}
	client, err := sendgrid.NewFromEnv(baseLog)
	if err != nil {
		log.Warn("sendgrid init failed, using log-only mailer", "error", err)
		return &logMailer{log: log}
	}
	return &sendgridMailer{
		log:    log,
		client: client,
		from:   envutil.String("SENDGRID_FROM_EMAIL", "noreply@meldingen.amsterdam.nl"),
	}
}

type sendgridMailer struct {
	log    *logger.Logger
	client sendgrid.Client
	from   string
}

func (m *sendgridMailer) SendConfirmation(ctx context.Context, melding *domain.Melding) error {
	if melding.Email == nil || *melding.Email == "" {
		return nil
	}
	_, err := m.client.Send(ctx, sendgrid.SendEmailRequest{
		From:    sendgrid.EmailAddress{Email: m.from, Name: "Meldingen Amsterdam"},
		To:      []sendgrid.EmailAddress{{Email: *melding.Email}},
		Subject: fmt.Sprintf("Uw melding %s is ontvangen", melding.PublicCode),
		Text: fmt.Sprintf(
			"Bedankt voor uw melding. Uw meldingnummer is %s. U kunt dit nummer gebruiken bij vragen over de afhandeling.",
			melding.PublicCode,
		),
	})
	return err
}

func (m *sendgridMailer) SendCompletion(ctx context.Context, melding *domain.Melding) error {
	if melding.Email == nil || *melding.Email == "" {
		return nil
	}
	_, err := m.client.Send(ctx, sendgrid.SendEmailRequest{
		From:    sendgrid.EmailAddress{Email: m.from, Name: "Meldingen Amsterdam"},
		To:      []sendgrid.EmailAddress{{Email: *melding.Email}},
		Subject: fmt.Sprintf("Uw melding %s is afgehandeld", melding.PublicCode),
		Text: fmt.Sprintf(
			"Uw melding %s is afgehandeld. Bedankt dat u de melding heeft gedaan.",
			melding.PublicCode,
		),
	})
	return err
}

type logMailer struct {
	log *logger.Logger
}

func (m *logMailer) SendConfirmation(_ context.Context, melding *domain.Melding) error {
	m.log.Info("confirmation mail (log only)", "public_code", melding.PublicCode)
	return nil
}

func (m *logMailer) SendCompletion(_ context.Context, melding *domain.Melding) error {
	m.log.Info("completion mail (log only)", "public_code", melding.PublicCode)
	return nil
}
