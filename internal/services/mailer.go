package services

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.uber.org/zap"

	"alfredoptarigan/hirematch/internal/models"
)

// Mailer sends expiry warnings to listing owners.
type Mailer interface {
	SendExpiryWarning(ctx context.Context, listing models.ExpiringListing) error
}

type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type sesMailer struct {
	client sesAPI
	from   string
	logger *zap.Logger
}

func NewSESMailer(ctx context.Context, region, from string, logger *zap.Logger) (Mailer, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return &sesMailer{client: ses.NewFromConfig(cfg), from: from, logger: logger}, nil
}

// SendExpiryWarning implements Mailer.
func (m *sesMailer) SendExpiryWarning(ctx context.Context, listing models.ExpiringListing) error {
	subject, body := expiryWarningContent(listing)

	out, err := m.client.SendEmail(ctx, &ses.SendEmailInput{
		Source:      aws.String(m.from),
		Destination: &types.Destination{ToAddresses: []string{listing.OwnerEmail}},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body), Charset: aws.String("UTF-8")},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send expiry warning: %w", err)
	}

	m.logger.Info("expiry warning sent",
		zap.String("kind", string(listing.Kind)),
		zap.String("listing_id", listing.ID.String()),
		zap.String("message_id", aws.ToString(out.MessageId)))
	return nil
}

// logMailer only logs. Used when email delivery is disabled.
type logMailer struct {
	logger *zap.Logger
}

func NewLogMailer(logger *zap.Logger) Mailer {
	return &logMailer{logger: logger}
}

func (m *logMailer) SendExpiryWarning(ctx context.Context, listing models.ExpiringListing) error {
	subject, _ := expiryWarningContent(listing)
	m.logger.Info("email disabled, skipping expiry warning",
		zap.String("to", listing.OwnerEmail),
		zap.String("subject", subject))
	return nil
}

func expiryWarningContent(listing models.ExpiringListing) (string, string) {
	noun := "job posting"
	if listing.Kind == models.KindProfile {
		noun = "profile"
	}
	title := listing.Title
	if title == "" {
		title = "Untitled"
	}

	subject := fmt.Sprintf("Your %s \"%s\" expires soon", noun, title)
	body := fmt.Sprintf(`Hello,

Your %s "%s" will expire on %s (UTC). Once it expires it will no longer appear in search results.

Sign in to renew it if you would like it to stay visible.

The HireMatch team`, noun, title, listing.ExpiresAt.UTC().Format("Jan 2, 2006 15:04"))

	return subject, body
}
