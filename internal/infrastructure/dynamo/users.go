package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/onlinestore-api/internal/domain"
)

// UserRepo provides typed DynamoDB operations for the users table.
// Username and email uniqueness is enforced through guard items in the
// unique keys table, written in the same transaction as the user.
type UserRepo struct {
	client      API
	tableName   string
	uniqueTable string
}

func NewUserRepo(client API, tableName, uniqueTable string) *UserRepo {
	return &UserRepo{client: client, tableName: tableName, uniqueTable: uniqueTable}
}

func (r *UserRepo) Get(ctx context.Context, userID string) (*domain.User, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldUserID, userID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Item, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByUsername returns the live account with the given username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	users, err := r.queryIndex(ctx, indexUsername, fieldUsername, username, "", nil)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("user %s: %w", username, domain.ErrNotFound)
	}
	return &users[0], nil
}

// FindByEmailAndCode returns the live account whose email and pending
// verification code both match.
func (r *UserRepo) FindByEmailAndCode(ctx context.Context, email, code string) (*domain.User, error) {
	users, err := r.queryIndex(ctx, indexEmail, fieldEmail, email,
		"#c = :c", map[string]string{"#c": fieldVerificationCode},
		withValue(":c", code))
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("verification for %s: %w", email, domain.ErrNotFound)
	}
	return &users[0], nil
}

// Save writes the verification state of a live account. Only is_verified,
// verification_code and updated_at are touched, and the write is rejected
// once the account has been soft-deleted.
func (r *UserRepo) Save(ctx context.Context, u *domain.User) error {
	updatedAt, err := attributevalue.Marshal(u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	expr := "SET #v = :v, #u = :u"
	names := map[string]string{
		"#id": fieldUserID,
		"#v":  fieldIsVerified,
		"#u":  fieldUpdatedAt,
		"#c":  fieldVerificationCode,
		"#d":  fieldIsDeleted,
	}
	values := map[string]types.AttributeValue{
		":v": &types.AttributeValueMemberBOOL{Value: u.IsVerified},
		":u": updatedAt,
		":f": &types.AttributeValueMemberBOOL{Value: false},
	}
	if u.VerificationCode == "" {
		expr += " REMOVE #c"
	} else {
		expr += ", #c = :c"
		values[":c"] = &types.AttributeValueMemberS{Value: u.VerificationCode}
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldUserID, u.UserID),
		UpdateExpression:          aws.String(expr),
		ConditionExpression:       aws.String("attribute_exists(#id) AND #d = :f"),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	if conditionFailed(err) {
		return fmt.Errorf("user %s: %w", u.UserID, domain.ErrNotFound)
	}
	return err
}

func (r *UserRepo) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	updates[fieldUpdatedAt] = time.Now().UTC()
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	ue.Names["#id"] = fieldUserID
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldUserID, userID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(#id)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if conditionFailed(err) {
		return fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	return err
}

// SoftDelete flags the account as deleted. Its unique key guards stay in
// place, so the username and email are not released.
func (r *UserRepo) SoftDelete(ctx context.Context, userID string) error {
	return r.Update(ctx, userID, map[string]interface{}{fieldIsDeleted: true})
}

// RunInTx buffers the writes fn makes and commits them as one
// TransactWriteItems call. Nothing is written when fn returns an error.
func (r *UserRepo) RunInTx(ctx context.Context, fn func(ctx context.Context, tx domain.AccountTx) error) error {
	tx := &userTx{repo: r, pending: map[string]bufferedUser{}}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	return tx.commit(ctx)
}

func (r *UserRepo) queryIndex(ctx context.Context, index, attr, value, filter string, names map[string]string, values ...map[string]types.AttributeValue) ([]domain.User, error) {
	exprNames := map[string]string{"#a": attr, "#d": fieldIsDeleted}
	for k, v := range names {
		exprNames[k] = v
	}
	exprValues := map[string]types.AttributeValue{
		":v": &types.AttributeValueMemberS{Value: value},
		":f": &types.AttributeValueMemberBOOL{Value: false},
	}
	for _, m := range values {
		for k, v := range m {
			exprValues[k] = v
		}
	}
	filterExpr := "#d = :f"
	if filter != "" {
		filterExpr = filter + " AND " + filterExpr
	}
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    aws.String("#a = :v"),
		FilterExpression:          aws.String(filterExpr),
		ExpressionAttributeNames:  exprNames,
		ExpressionAttributeValues: exprValues,
	})
	if err != nil {
		return nil, err
	}
	var users []domain.User
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func withValue(name, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{name: &types.AttributeValueMemberS{Value: value}}
}
