// Package email sends transactional mail.
package email

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/rs/zerolog"
)

// ErrNotConfigured is returned by the sender used when email is disabled.
var ErrNotConfigured = errors.New("email sending is not configured")

// Invitation is the content of a household invitation email.
type Invitation struct {
	To            string
	HouseholdName string
	InviterName   string
	DeepLink      string
	WebLink       string
}

// Sender dispatches emails.
type Sender interface {
	SendInvitation(ctx context.Context, msg Invitation) error
}

// sesAPI is the subset of the SES client used here.
type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type sesSender struct {
	client sesAPI
	from   string
	logger zerolog.Logger
}

// NewSESSender creates a Sender backed by AWS SES.
func NewSESSender(ctx context.Context, region, from string, logger zerolog.Logger) (Sender, error) {
	logger = logger.With().Str("component", "ses-sender").Logger()

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	logger.Info().Str("region", region).Str("from", from).Msg("SES sender initialised")
	return newSESSender(ses.NewFromConfig(cfg), from, logger), nil
}

func newSESSender(client sesAPI, from string, logger zerolog.Logger) *sesSender {
	return &sesSender{client: client, from: from, logger: logger}
}

// SendInvitation sends the invitation with both the app deep link and the web link.
func (s *sesSender) SendInvitation(ctx context.Context, msg Invitation) error {
	subject, body := renderInvitation(msg)

	input := &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data:    aws.String(body),
					Charset: aws.String("UTF-8"),
				},
			},
		},
		Source: aws.String(s.from),
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		s.logger.Error().Err(err).Str("household", msg.HouseholdName).Msg("failed to send invitation email")
		return fmt.Errorf("failed to send invitation email: %w", err)
	}

	s.logger.Info().Str("household", msg.HouseholdName).Msg("invitation email sent")
	return nil
}

func renderInvitation(msg Invitation) (subject, body string) {
	inviter := msg.InviterName
	if inviter == "" {
		inviter = "A household member"
	}
	subject = fmt.Sprintf("%s invited you to join %s", inviter, msg.HouseholdName)

	var b strings.Builder
	fmt.Fprintf(&b, "%s has invited you to join the household \"%s\".\n\n", inviter, msg.HouseholdName)
	fmt.Fprintf(&b, "Open in the app: %s\n", msg.DeepLink)
	fmt.Fprintf(&b, "Or in your browser: %s\n\n", msg.WebLink)
	b.WriteString("The invitation expires in 7 days.\n")
	return subject, b.String()
}

type disabledSender struct{}

// NewDisabledSender returns a Sender that always fails with ErrNotConfigured.
func NewDisabledSender() Sender {
	return disabledSender{}
}

func (disabledSender) SendInvitation(context.Context, Invitation) error {
	return ErrNotConfigured
}
