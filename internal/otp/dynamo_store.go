package otp

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sirupsen/logrus"
)

// DynamoStore keeps records in the single-table DynamoDB layout under
// OTP#<phoneNo>. The item carries a TTL attribute so DynamoDB evicts
// expired records on its own.
type DynamoStore struct {
	client    *dynamodb.Client
	tableName string
	logger    *logrus.Logger
}

func NewDynamoStore(client *dynamodb.Client, tableName string, logger *logrus.Logger) *DynamoStore {
	return &DynamoStore{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

func (s *DynamoStore) Get(ctx context.Context, phoneNo string) (*Record, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       s.key(phoneNo),
	})
	if err != nil {
		s.logger.WithError(err).Error("Failed to get OTP from DynamoDB")
		return nil, fmt.Errorf("failed to get OTP: %w", err)
	}

	if result.Item == nil {
		return nil, nil
	}

	var rec Record
	if err := attributevalue.UnmarshalMap(result.Item, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal OTP record: %w", err)
	}

	return &rec, nil
}

func (s *DynamoStore) Set(ctx context.Context, phoneNo string, rec *Record) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal OTP record: %w", err)
	}

	item["PK"] = &types.AttributeValueMemberS{Value: fmt.Sprintf("OTP#%s", phoneNo)}
	item["SK"] = &types.AttributeValueMemberS{Value: "METADATA"}
	item["TTL"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", rec.ExpiresAt.Unix())}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		s.logger.WithError(err).Error("Failed to store OTP in DynamoDB")
		return fmt.Errorf("failed to store OTP: %w", err)
	}

	return nil
}

func (s *DynamoStore) Delete(ctx context.Context, phoneNo string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       s.key(phoneNo),
	})
	if err != nil {
		return fmt.Errorf("failed to delete OTP: %w", err)
	}
	return nil
}

func (s *DynamoStore) key(phoneNo string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("OTP#%s", phoneNo)},
		"SK": &types.AttributeValueMemberS{Value: "METADATA"},
	}
}

var _ Store = (*DynamoStore)(nil)
