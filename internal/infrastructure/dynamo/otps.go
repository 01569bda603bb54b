package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-otp-nosql/internal/domain"
)

// API is the subset of the DynamoDB client the repos use.
type API interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// OtpRepo stores one OTP record per email.
// PK: email. TTL attribute: purge_at.
type OtpRepo struct {
	client    API
	tableName string
}

func NewOtpRepo(client API, tableName string) *OtpRepo {
	return &OtpRepo{client: client, tableName: tableName}
}

func (r *OtpRepo) Upsert(ctx context.Context, rec *domain.OtpRecord) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal otp: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *OtpRepo) Find(ctx context.Context, email string) (*domain.OtpRecord, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldEmail, email),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("otp not found: %w", domain.ErrNotFound)
	}
	var rec domain.OtpRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal otp: %w", err)
	}
	return &rec, nil
}

// Invalidate expires the record at once. A missing record is not an error.
func (r *OtpRepo) Invalidate(ctx context.Context, email string, at time.Time) error {
	e := newExprAttrs()
	cond := fmt.Sprintf("attribute_exists(%s)", e.name(fieldEmail))
	now := e.value("now", unixValue(at))
	inv := e.name(fieldInvalidatedAt)
	update := fmt.Sprintf("SET %s = %s, %s = if_not_exists(%s, %s)", e.name(fieldExpiresAt), now, inv, inv, now)

	err := r.update(ctx, email, update, cond, e, types.ReturnValueNone, nil)
	if errors.Is(err, domain.ErrConditionFailed) {
		return nil
	}
	return err
}

func (r *OtpRepo) MarkVerified(ctx context.Context, email string, v domain.Verification) (*domain.OtpRecord, error) {
	e := newExprAttrs()
	cond := verifyCondition(e, v)
	now := e.value("now", unixValue(v.Now))
	update := fmt.Sprintf("SET %s = %s, %s = %s, %s = %s",
		e.name(fieldVerifiedAt), now,
		e.name(fieldInvalidatedAt), now,
		e.name(fieldExpiresAt), now)

	var rec domain.OtpRecord
	if err := r.update(ctx, email, update, cond, e, types.ReturnValueAllNew, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// RecordFailedAttempt increments the attempt counter of an existing record.
func (r *OtpRepo) RecordFailedAttempt(ctx context.Context, email string) error {
	e := newExprAttrs()
	cond := fmt.Sprintf("attribute_exists(%s)", e.name(fieldEmail))
	update := fmt.Sprintf("ADD %s %s", e.name(fieldAttempts), e.value("one", numValue(1)))

	err := r.update(ctx, email, update, cond, e, types.ReturnValueNone, nil)
	if errors.Is(err, domain.ErrConditionFailed) {
		return nil
	}
	return err
}

func (r *OtpRepo) Claim(ctx context.Context, email string, c domain.Claim) (*domain.OtpRecord, error) {
	e := newExprAttrs()
	cond := claimCondition(e, c)
	now := e.value("now", unixValue(c.Now))
	inv := e.name(fieldInvalidatedAt)
	update := fmt.Sprintf("SET %s = %s, %s = %s, %s = if_not_exists(%s, %s)",
		e.name(fieldConsumedAt), now,
		e.name(fieldExpiresAt), now,
		inv, inv, now)

	var rec domain.OtpRecord
	if err := r.update(ctx, email, update, cond, e, types.ReturnValueAllNew, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *OtpRepo) update(ctx context.Context, email, update, cond string, e *exprAttrs, rv types.ReturnValue, out *domain.OtpRecord) error {
	res, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldEmail, email),
		UpdateExpression:          aws.String(update),
		ConditionExpression:       aws.String(cond),
		ExpressionAttributeNames:  e.names,
		ExpressionAttributeValues: e.values,
		ReturnValues:              rv,
	})
	if err != nil {
		return conditionFailed(err)
	}
	if out != nil {
		if err := attributevalue.UnmarshalMap(res.Attributes, out); err != nil {
			return fmt.Errorf("unmarshal otp: %w", err)
		}
	}
	return nil
}

// verifyCondition is the server-side form of domain.Verification.Allows.
func verifyCondition(e *exprAttrs, v domain.Verification) string {
	parts := []string{
		fmt.Sprintf("attribute_exists(%s)", e.name(fieldEmail)),
		fmt.Sprintf("attribute_not_exists(%s)", e.name(fieldInvalidatedAt)),
		fmt.Sprintf("%s = %s", e.name(fieldCode), e.value("code", strValue(v.Code))),
	}
	if v.MaxAttempts > 0 {
		parts = append(parts, fmt.Sprintf("%s < %s", e.name(fieldAttempts), e.value("max", numValue(v.MaxAttempts))))
	}
	if v.EnforceExpiry {
		parts = append(parts, fmt.Sprintf("%s > %s", e.name(fieldExpiresAt), e.value("now", unixValue(v.Now))))
	}
	return strings.Join(parts, " AND ")
}

// claimCondition is the server-side form of domain.Claim.Allows.
func claimCondition(e *exprAttrs, c domain.Claim) string {
	parts := []string{
		fmt.Sprintf("attribute_exists(%s)", e.name(fieldEmail)),
		fmt.Sprintf("attribute_not_exists(%s)", e.name(fieldConsumedAt)),
		fmt.Sprintf("%s = %s", e.name(fieldPurpose), e.value("purpose", strValue(string(c.Purpose)))),
	}
	if c.Code != "" {
		parts = append(parts, fmt.Sprintf("%s = %s", e.name(fieldCode), e.value("code", strValue(c.Code))))
	}

	verified := fmt.Sprintf("%s >= %s", e.name(fieldVerifiedAt), e.value("since", unixValue(c.VerifiedSince)))
	if c.RequireVerified {
		parts = append(parts, verified)
		return strings.Join(parts, " AND ")
	}

	active := []string{
		fmt.Sprintf("attribute_not_exists(%s)", e.name(fieldInvalidatedAt)),
		fmt.Sprintf("%s > %s", e.name(fieldExpiresAt), e.value("now", unixValue(c.Now))),
	}
	if c.MaxAttempts > 0 {
		active = append(active, fmt.Sprintf("%s < %s", e.name(fieldAttempts), e.value("max", numValue(c.MaxAttempts))))
	}
	parts = append(parts, fmt.Sprintf("(%s OR (%s))", verified, strings.Join(active, " AND ")))
	return strings.Join(parts, " AND ")
}
