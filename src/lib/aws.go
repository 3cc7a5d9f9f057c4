package lib

import (
	"context"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

var sqsClient *sqs.Client

func AWSGetSQSClient() *sqs.Client {
	if sqsClient != nil {
		return sqsClient
	}
	cfg, err := awsconfig.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Printf("Error loading default config: %s\n", err.Error())
		return nil
	}
	client := sqs.NewFromConfig(cfg)
	sqsClient = client
	return client
}

// NewSQSClient Replace SQS instance with custom client implementation
func NewSQSClient(c *sqs.Client) {
	sqsClient = c
}

// SQSPublish sends a message body to a named queue.
func SQSPublish(queue string, body string) error {
	cli := AWSGetSQSClient()
	if cli == nil {
		return nil
	}
	qurl, err := cli.GetQueueUrl(context.Background(), &sqs.GetQueueUrlInput{
		QueueName: aws.String(queue),
	})
	if err != nil {
		log.Printf("Error retrieving queue URL: %s\n", err.Error())
		return err
	}
	out, err := cli.SendMessage(context.Background(), &sqs.SendMessageInput{
		QueueUrl:    qurl.QueueUrl,
		MessageBody: aws.String(body),
	})
	if err != nil {
		log.Printf("Could not send message to queue: %s\n", err.Error())
		return err
	}
	log.Printf("Message sent to queue: %s\n", *out.MessageId)
	return nil
}
