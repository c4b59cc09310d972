// internal/notify/sender.go
package notify

import (
	"context"
	"fmt"
	"strings"

	"quickscore/internal/common/aws"
	"quickscore/internal/common/config"
	"quickscore/internal/common/errors"
	"quickscore/internal/common/logger"
	"quickscore/internal/onboarding"
	"quickscore/internal/pipeline/credit"
)

// EmailService is the slice of the SES wrapper the sender needs.
type EmailService interface {
	SendSimpleEmail(ctx context.Context, from, to, subject, htmlBody string) error
}

// SMSService is the slice of the SNS wrapper the sender needs.
type SMSService interface {
	SendSMS(ctx context.Context, phoneNumber, message string) error
}

// Sender delivers onboarding decisions to applicants over email and SMS.
type Sender struct {
	config config.NotificationConfig
	email  EmailService
	sms    SMSService
	logger logger.Logger
}

func NewSender(ctx context.Context, cfg config.NotificationConfig, log logger.Logger) (*Sender, error) {
	var email EmailService
	if cfg.Email.Enabled {
		client, err := aws.NewSESClient(ctx, cfg.AWS.Region)
		if err != nil {
			return nil, fmt.Errorf("init SES client: %w", err)
		}
		email = client
	}

	var sms SMSService
	if cfg.SMS.Enabled {
		client, err := aws.NewSNSClient(ctx, cfg.AWS.Region)
		if err != nil {
			return nil, fmt.Errorf("init SNS client: %w", err)
		}
		sms = client
	}

	return NewSenderWithClients(cfg, email, sms, log), nil
}

func NewSenderWithClients(cfg config.NotificationConfig, email EmailService, sms SMSService, log logger.Logger) *Sender {
	return &Sender{
		config: cfg,
		email:  email,
		sms:    sms,
		logger: log.With(map[string]interface{}{
			"component": "notify",
		}),
	}
}

// SendDecision emails the final decision for a run. Disabled configuration or
// a missing recipient address is not an error; delivery failures are.
func (s *Sender) SendDecision(ctx context.Context, recipientEmail, applicantName string, result onboarding.Result) error {
	if !s.config.Email.Enabled || s.email == nil {
		s.logger.Debug("Decision email disabled", map[string]interface{}{
			"applicationId": result.ID,
		})
		return nil
	}
	if recipientEmail == "" {
		s.logger.Warn("No recipient email for decision notification", map[string]interface{}{
			"applicationId": result.ID,
		})
		return nil
	}

	subject, body := decisionEmail(applicantName, result)
	if err := s.email.SendSimpleEmail(ctx, s.config.Email.FromEmail, recipientEmail, subject, body); err != nil {
		s.logger.Error("Failed to send decision email", map[string]interface{}{
			"applicationId": result.ID,
			"error":         err.Error(),
		})
		return errors.NewNotificationSendFailedError("email", err)
	}

	s.logger.Info("Decision email sent", map[string]interface{}{
		"applicationId": result.ID,
		"status":        result.Assessment.ApprovalStatus,
	})
	return nil
}

// SendDecisionSMS texts a short decision summary. Same contract as
// SendDecision: disabled channel or missing number is a no-op.
func (s *Sender) SendDecisionSMS(ctx context.Context, phoneNumber string, result onboarding.Result) error {
	if !s.config.SMS.Enabled || s.sms == nil {
		return nil
	}
	if phoneNumber == "" {
		s.logger.Warn("No phone number for decision SMS", map[string]interface{}{
			"applicationId": result.ID,
		})
		return nil
	}

	if err := s.sms.SendSMS(ctx, phoneNumber, decisionSMS(result)); err != nil {
		s.logger.Error("Failed to send decision SMS", map[string]interface{}{
			"applicationId": result.ID,
			"error":         err.Error(),
		})
		return errors.NewNotificationSendFailedError("sms", err)
	}

	s.logger.Info("Decision SMS sent", map[string]interface{}{
		"applicationId": result.ID,
		"status":        result.Assessment.ApprovalStatus,
	})
	return nil
}

func decisionEmail(applicantName string, result onboarding.Result) (subject, body string) {
	assessment := result.Assessment

	switch assessment.ApprovalStatus {
	case credit.StatusApproved:
		subject = "Your loan application has been approved"
	case credit.StatusConditionallyApproved:
		subject = "Your loan application has been conditionally approved"
	case credit.StatusUnderReview:
		subject = "Your loan application is under review"
	default:
		subject = "Update on your loan application"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("<p>Dear %s,</p>", applicantName))
	b.WriteString(fmt.Sprintf("<p>Your application <strong>%s</strong> has been processed.</p>", result.ID))
	b.WriteString(fmt.Sprintf("<p>Status: <strong>%s</strong></p>", assessment.ApprovalStatus))
	if assessment.ApprovalStatus != credit.StatusRejected {
		b.WriteString(fmt.Sprintf("<p>Credit score: %d/100</p>", assessment.CreditScore))
	}
	if assessment.DetailedExplanation != "" {
		b.WriteString(fmt.Sprintf("<p>%s</p>", assessment.DetailedExplanation))
	}
	if len(assessment.NextSteps) > 0 {
		b.WriteString("<p>Next steps:</p><ul>")
		for _, step := range assessment.NextSteps {
			b.WriteString(fmt.Sprintf("<li>%s</li>", step))
		}
		b.WriteString("</ul>")
	}
	return subject, b.String()
}

func decisionSMS(result onboarding.Result) string {
	assessment := result.Assessment
	switch assessment.ApprovalStatus {
	case credit.StatusApproved, credit.StatusConditionallyApproved:
		return fmt.Sprintf("QuickScore: your loan application %s was %s (score %d/100). Check your email for details.",
			result.ID, strings.ReplaceAll(strings.ToLower(assessment.ApprovalStatus), "_", " "), assessment.CreditScore)
	case credit.StatusUnderReview:
		return fmt.Sprintf("QuickScore: your loan application %s is under review. We will contact you shortly.", result.ID)
	default:
		return fmt.Sprintf("QuickScore: your loan application %s was not approved. Check your email for details.", result.ID)
	}
}
