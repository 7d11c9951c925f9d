package secretstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/aws/aws-sdk-go/service/secretsmanager/secretsmanageriface"
)

// AWSStore is a Store backed by AWS Secrets Manager.
type AWSStore struct {
	client secretsmanageriface.SecretsManagerAPI
}

var _ Store = &AWSStore{}

// NewAWSStore constructs an AWSStore in the given region.
func NewAWSStore(region string) (*AWSStore, error) {
	sess, err := session.NewSession(aws.NewConfig().WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("secretstore: creating aws session: %w", err)
	}
	return &AWSStore{client: secretsmanager.New(sess)}, nil
}

// GetCASecret implements Store.
func (s *AWSStore) GetCASecret(ctx context.Context, arn string) (CASecret, error) {
	out, err := s.client.GetSecretValueWithContext(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(arn),
	})
	if err != nil {
		return CASecret{}, fmt.Errorf("secretstore: fetching CA secret %s: %w", arn, err)
	}
	if out.SecretString == nil {
		return CASecret{}, fmt.Errorf("secretstore: CA secret %s has no string value", arn)
	}

	var secret CASecret
	if err := json.Unmarshal([]byte(*out.SecretString), &secret); err != nil {
		return CASecret{}, fmt.Errorf("secretstore: parsing CA secret %s JSON: %w", arn, err)
	}
	if secret.PrivateKeyPEM == "" {
		return CASecret{}, fmt.Errorf("secretstore: CA secret %s missing private_key field", arn)
	}
	return secret, nil
}
