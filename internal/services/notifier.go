package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/paddygate/paddygate/internal/models"
	pkglogger "github.com/paddygate/paddygate/pkg/logger"
)

// Notifier tells users about administrative decisions. Delivery is best effort;
// callers log and ignore errors.
type Notifier interface {
	AccountStatusChanged(ctx context.Context, user *models.User) error
	MillVerificationChanged(ctx context.Context, owner *models.User, mill *models.Mill) error
}

// SESClient is the subset of the SES API used for notifications
type SESClient interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESNotifier sends plain-text notification emails through AWS SES
type SESNotifier struct {
	client      SESClient
	fromAddress string
	baseURL     string
	logger      *slog.Logger
}

// NewSESNotifier loads AWS credentials from the default chain.
func NewSESNotifier(ctx context.Context, region, fromAddress, baseURL string, logger *slog.Logger) (*SESNotifier, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewSESNotifierWithClient(ses.NewFromConfig(cfg), fromAddress, baseURL, logger), nil
}

func NewSESNotifierWithClient(client SESClient, fromAddress, baseURL string, logger *slog.Logger) *SESNotifier {
	return &SESNotifier{client: client, fromAddress: fromAddress, baseURL: baseURL, logger: logger}
}

func (n *SESNotifier) AccountStatusChanged(ctx context.Context, user *models.User) error {
	subject := "Your Paddy Gate account is now " + string(user.AccountStatus)
	body := fmt.Sprintf("Hello %s,\n\nAn administrator set your account status to %s.\n", user.Username, user.AccountStatus)
	if user.AccountStatus == models.AccountActive {
		body += fmt.Sprintf("You can now sign in at %s/login\n", n.baseURL)
	}
	return n.send(ctx, user.Email, subject, body)
}

func (n *SESNotifier) MillVerificationChanged(ctx context.Context, owner *models.User, mill *models.Mill) error {
	subject := fmt.Sprintf("%s is now %s", mill.Name, mill.VerificationStatus)
	body := fmt.Sprintf("Hello %s,\n\nThe verification status of %s is now %s.\n", owner.Username, mill.Name, mill.VerificationStatus)
	if mill.VerificationStatus == models.VerificationVerified {
		body += "It now appears in the public mill listing.\n"
	}
	return n.send(ctx, owner.Email, subject, body)
}

func (n *SESNotifier) send(ctx context.Context, to, subject, body string) error {
	result, err := n.client.SendEmail(ctx, &ses.SendEmailInput{
		Source:      aws.String(n.fromAddress),
		Destination: &types.Destination{ToAddresses: []string{to}},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body:    &types.Body{Text: &types.Content{Data: aws.String(body)}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	n.logger.Info("notification email sent",
		slog.String("email", pkglogger.MaskEmail(to)),
		slog.String("message_id", aws.ToString(result.MessageId)),
	)
	return nil
}

// LogNotifier records notifications in the log when no sender is configured
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) AccountStatusChanged(_ context.Context, user *models.User) error {
	n.logger.Info("notification: account status changed",
		slog.String("user_id", user.ID),
		slog.String("status", string(user.AccountStatus)),
	)
	return nil
}

func (n *LogNotifier) MillVerificationChanged(_ context.Context, owner *models.User, mill *models.Mill) error {
	n.logger.Info("notification: mill verification changed",
		slog.String("mill_id", mill.ID),
		slog.String("owner_id", owner.ID),
		slog.String("status", string(mill.VerificationStatus)),
	)
	return nil
}
