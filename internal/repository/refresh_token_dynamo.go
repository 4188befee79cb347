package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sirupsen/logrus"

	"github.com/krishisetu/krishisetu/internal/models"
)

// DynamoRefreshTokenStore keeps tokens in the single-table layout
// under REFRESH_TOKEN#<jti> with a TTL attribute, and revocation
// markers under REVOKED_TOKEN#<jti>.
type DynamoRefreshTokenStore struct {
	client    *dynamodb.Client
	tableName string
	logger    *logrus.Logger
}

func NewDynamoRefreshTokenStore(client *dynamodb.Client, tableName string, logger *logrus.Logger) *DynamoRefreshTokenStore {
	return &DynamoRefreshTokenStore{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

func (s *DynamoRefreshTokenStore) Store(ctx context.Context, data models.RefreshTokenData) error {
	item, err := attributevalue.MarshalMap(data)
	if err != nil {
		return fmt.Errorf("failed to marshal token data: %w", err)
	}

	item["PK"] = &types.AttributeValueMemberS{Value: fmt.Sprintf("REFRESH_TOKEN#%s", data.JTI)}
	item["SK"] = &types.AttributeValueMemberS{Value: "METADATA"}
	item["TTL"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", data.ExpiresAt.Unix())}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		s.logger.WithError(err).Error("Failed to store refresh token in DynamoDB")
		return fmt.Errorf("failed to store refresh token: %w", err)
	}

	return nil
}

func (s *DynamoRefreshTokenStore) Get(ctx context.Context, jti string) (*models.RefreshTokenData, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("REFRESH_TOKEN#%s", jti)},
			"SK": &types.AttributeValueMemberS{Value: "METADATA"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}

	if result.Item == nil {
		return nil, ErrTokenNotFound
	}

	var data models.RefreshTokenData
	if err := attributevalue.UnmarshalMap(result.Item, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token data: %w", err)
	}

	return &data, nil
}

func (s *DynamoRefreshTokenStore) Revoke(ctx context.Context, jti string) error {
	data, err := s.Get(ctx, jti)
	if err != nil {
		return err
	}

	item := map[string]types.AttributeValue{
		"PK":        &types.AttributeValueMemberS{Value: fmt.Sprintf("REVOKED_TOKEN#%s", jti)},
		"SK":        &types.AttributeValueMemberS{Value: "METADATA"},
		"RevokedAt": &types.AttributeValueMemberS{Value: time.Now().Format(time.RFC3339)},
		"TTL":       &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", data.ExpiresAt.Unix())},
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to mark token as revoked: %w", err)
	}

	return nil
}

func (s *DynamoRefreshTokenStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("REVOKED_TOKEN#%s", jti)},
			"SK": &types.AttributeValueMemberS{Value: "METADATA"},
		},
	})
	if err != nil {
		return false, err
	}

	return result.Item != nil, nil
}

var _ RefreshTokenStore = (*DynamoRefreshTokenStore)(nil)
