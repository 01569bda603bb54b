package sns

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// Alerter notifies operators about failures that never reach a client,
// such as a code that could not be delivered.
type Alerter interface {
	Alert(ctx context.Context, subject, message string) error
}

// Publisher is the subset of the SNS client used here.
type Publisher interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type alerter struct {
	client   Publisher
	topicARN string
}

// NewAlerter publishes to topicARN using the given AWS config with region
// overridden.
func NewAlerter(awsCfg aws.Config, region, topicARN string) Alerter {
	return newAlerter(sns.NewFromConfig(awsCfg, func(o *sns.Options) { o.Region = region }), topicARN)
}

func newAlerter(client Publisher, topicARN string) Alerter {
	return &alerter{client: client, topicARN: topicARN}
}

func (a *alerter) Alert(ctx context.Context, subject, message string) error {
	// SNS caps email subjects at 100 characters.
	if len(subject) > 100 {
		subject = subject[:100]
	}
	_, err := a.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(a.topicARN),
		Subject:  aws.String(subject),
		Message:  aws.String(message),
	})
	if err != nil {
		return fmt.Errorf("publish alert: %w", err)
	}
	return nil
}
