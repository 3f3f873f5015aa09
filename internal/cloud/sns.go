package cloud

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/rs/zerolog/log"
)

type snsAPI interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSClient publishes bin alerts to an SNS topic.
type SNSClient struct {
	svc      snsAPI
	topicArn string
	now      func() time.Time
}

func NewSNSClient(ctx context.Context, region, topicArn string) (*SNSClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return &SNSClient{svc: sns.NewFromConfig(cfg), topicArn: topicArn, now: time.Now}, nil
}

func (c *SNSClient) SendAlert(ctx context.Context, subject, message string) error {
	result, err := c.svc.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(c.topicArn),
		Subject:  aws.String(subject),
		Message:  aws.String(message),
	})
	if err != nil {
		return fmt.Errorf("failed to publish to SNS: %w", err)
	}
	log.Info().Str("message_id", aws.ToString(result.MessageId)).Str("subject", subject).Msg("alert sent")
	return nil
}

// NotifyCritical tells the crew that a bin crossed the critical fill threshold.
func (c *SNSClient) NotifyCritical(ctx context.Context, binID string, level float64) error {
	subject := fmt.Sprintf("EcoBin Alert: %s is almost full", binID)
	message := fmt.Sprintf(
		"Fill Level Alert\n\n"+
			"Bin: %s\n"+
			"Fill level: %.0f%%\n"+
			"Time: %s\n\n"+
			"Please empty the bin.",
		binID,
		level,
		c.now().Format(time.RFC3339),
	)
	return c.SendAlert(ctx, subject, message)
}

// NotifyMaintenance sends a predictive maintenance alert for the lid actuator.
func (c *SNSClient) NotifyMaintenance(ctx context.Context, binID string, failureRisk float64, due time.Time) error {
	subject := "EcoBin Predictive Maintenance Alert"
	message := fmt.Sprintf(
		"Lid Actuator Maintenance Required\n\n"+
			"Bin: %s\n"+
			"Failure risk (30 days): %.1f%%\n"+
			"Predicted Maintenance Date: %s\n\n"+
			"Please schedule maintenance to prevent lid failures.",
		binID,
		failureRisk,
		due.Format("2006-01-02"),
	)
	return c.SendAlert(ctx, subject, message)
}
