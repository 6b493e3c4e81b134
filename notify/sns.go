package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

type snsAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNS publishes alerts to a topic for push delivery (SMS, email subscribers).
type SNS struct {
	client   snsAPI
	topicARN string
}

func NewSNS(client snsAPI, topicARN string) *SNS {
	return &SNS{client: client, topicARN: topicARN}
}

func (s *SNS) Notify(ctx context.Context, subject, message string) error {
	_, err := s.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(s.topicARN),
		Subject:  aws.String(subject),
		Message:  aws.String(message),
	})
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", s.topicARN, err)
	}
	return nil
}
