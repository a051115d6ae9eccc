package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/onlinestore-api/internal/domain"
)

// userTx collects writes for a single TransactWriteItems call.
type userTx struct {
	repo    *UserRepo
	items   []types.TransactWriteItem
	pending map[string]bufferedUser
}

type bufferedUser struct {
	index int
	user  *domain.User
}

func (tx *userTx) CreateUser(_ context.Context, u *domain.User) error {
	cp := *u
	item, err := attributevalue.MarshalMap(&cp)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	tx.pending[cp.Username] = bufferedUser{index: len(tx.items), user: &cp}
	tx.items = append(tx.items,
		types.TransactWriteItem{Put: &types.Put{
			TableName:                aws.String(tx.repo.tableName),
			Item:                     item,
			ConditionExpression:      aws.String("attribute_not_exists(#id)"),
			ExpressionAttributeNames: map[string]string{"#id": fieldUserID},
		}},
		tx.guard(fieldUsername+"#"+cp.Username, cp.UserID),
		tx.guard(fieldEmail+"#"+cp.Email, cp.UserID),
	)
	return nil
}

// SetVerificationCode rewrites the buffered item when the user was created in
// this transaction, otherwise it queues an update of the stored user.
func (tx *userTx) SetVerificationCode(ctx context.Context, username, code string) error {
	if b, ok := tx.pending[username]; ok {
		b.user.VerificationCode = code
		item, err := attributevalue.MarshalMap(b.user)
		if err != nil {
			return fmt.Errorf("marshal user: %w", err)
		}
		tx.items[b.index].Put.Item = item
		return nil
	}

	u, err := tx.repo.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	tx.items = append(tx.items, types.TransactWriteItem{Update: &types.Update{
		TableName:           aws.String(tx.repo.tableName),
		Key:                 strKey(fieldUserID, u.UserID),
		UpdateExpression:    aws.String("SET #c = :c"),
		ConditionExpression: aws.String("attribute_exists(#id)"),
		ExpressionAttributeNames: map[string]string{
			"#c":  fieldVerificationCode,
			"#id": fieldUserID,
		},
		ExpressionAttributeValues: withValue(":c", code),
	}})
	return nil
}

func (tx *userTx) guard(key, userID string) types.TransactWriteItem {
	return types.TransactWriteItem{Put: &types.Put{
		TableName: aws.String(tx.repo.uniqueTable),
		Item: map[string]types.AttributeValue{
			fieldUniqueKey: &types.AttributeValueMemberS{Value: key},
			fieldUserID:    &types.AttributeValueMemberS{Value: userID},
		},
		ConditionExpression:      aws.String("attribute_not_exists(#k)"),
		ExpressionAttributeNames: map[string]string{"#k": fieldUniqueKey},
	}}
}

func (tx *userTx) commit(ctx context.Context) error {
	if len(tx.items) == 0 {
		return nil
	}
	_, err := tx.repo.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: tx.items,
	})
	return mapWriteErr(err, "username or email")
}
