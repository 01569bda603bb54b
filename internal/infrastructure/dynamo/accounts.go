package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/go-otp-nosql/internal/domain"
)

// AccountRepo provides typed DynamoDB operations for the accounts table.
// PK: email, so uniqueness is enforced by a conditional put.
type AccountRepo struct {
	client    API
	tableName string
}

func NewAccountRepo(client API, tableName string) *AccountRepo {
	return &AccountRepo{client: client, tableName: tableName}
}

func (r *AccountRepo) Create(ctx context.Context, a *domain.UserAccount) error {
	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return fmt.Errorf("marshal account: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.tableName),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#email)"),
		ExpressionAttributeNames: map[string]string{"#email": fieldEmail},
	})
	if err = conditionFailed(err); errors.Is(err, domain.ErrConditionFailed) {
		return fmt.Errorf("account %s: %w", a.Email, domain.ErrConflict)
	}
	return err
}

func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*domain.UserAccount, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldEmail, email),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("account not found: %w", domain.ErrNotFound)
	}
	var a domain.UserAccount
	if err := attributevalue.UnmarshalMap(out.Item, &a); err != nil {
		return nil, fmt.Errorf("unmarshal account: %w", err)
	}
	return &a, nil
}

func (r *AccountRepo) UpdatePasswordHash(ctx context.Context, email, hash string, at time.Time) error {
	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldPasswordHash: hash,
		fieldUpdatedAt:    at,
	})
	if err != nil {
		return err
	}
	ue.Names["#pk"] = fieldEmail
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldEmail, email),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(#pk)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if err = conditionFailed(err); errors.Is(err, domain.ErrConditionFailed) {
		return fmt.Errorf("account not found: %w", domain.ErrNotFound)
	}
	return err
}
