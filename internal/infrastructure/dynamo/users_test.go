package dynamo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/onlinestore-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI records calls and returns canned responses.
type fakeAPI struct {
	getItem  func(*dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error)
	putItem  func(*dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error)
	query    func(*dynamodb.QueryInput) (*dynamodb.QueryOutput, error)
	scan     func(*dynamodb.ScanInput) (*dynamodb.ScanOutput, error)
	transact func(*dynamodb.TransactWriteItemsInput) (*dynamodb.TransactWriteItemsOutput, error)
	update   func(*dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error)

	updates   []*dynamodb.UpdateItemInput
	transacts []*dynamodb.TransactWriteItemsInput
}

func (f *fakeAPI) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return f.getItem(in)
}

func (f *fakeAPI) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if f.putItem == nil {
		return &dynamodb.PutItemOutput{}, nil
	}
	return f.putItem(in)
}

func (f *fakeAPI) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.updates = append(f.updates, in)
	if f.update == nil {
		return &dynamodb.UpdateItemOutput{}, nil
	}
	return f.update(in)
}

func (f *fakeAPI) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	return f.query(in)
}

func (f *fakeAPI) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	return f.scan(in)
}

func (f *fakeAPI) TransactWriteItems(_ context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	f.transacts = append(f.transacts, in)
	if f.transact == nil {
		return &dynamodb.TransactWriteItemsOutput{}, nil
	}
	return f.transact(in)
}

func sampleUser() *domain.User {
	now := time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)
	return &domain.User{
		UserID:       "01HUSER",
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "hash",
		Authorities:  []string{domain.AuthorityUser},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func stringAttr(t *testing.T, item map[string]types.AttributeValue, name string) string {
	t.Helper()
	v, ok := item[name].(*types.AttributeValueMemberS)
	require.True(t, ok, "attribute %s is not a string", name)
	return v.Value
}

func TestRunInTx_CommitsUserGuardsAndCodeTogether(t *testing.T) {
	api := &fakeAPI{}
	repo := NewUserRepo(api, "users", "unique_keys")

	err := repo.RunInTx(context.Background(), func(ctx context.Context, tx domain.AccountTx) error {
		require.NoError(t, tx.CreateUser(ctx, sampleUser()))
		return tx.SetVerificationCode(ctx, "alice", "AB12CD")
	})
	require.NoError(t, err)

	require.Len(t, api.transacts, 1)
	items := api.transacts[0].TransactItems
	require.Len(t, items, 3)

	userPut := items[0].Put
	require.NotNil(t, userPut)
	assert.Equal(t, "users", aws.ToString(userPut.TableName))
	assert.Equal(t, "AB12CD", stringAttr(t, userPut.Item, fieldVerificationCode))
	assert.Equal(t, "attribute_not_exists(#id)", aws.ToString(userPut.ConditionExpression))

	assert.Equal(t, "unique_keys", aws.ToString(items[1].Put.TableName))
	assert.Equal(t, "username#alice", stringAttr(t, items[1].Put.Item, fieldUniqueKey))
	assert.Equal(t, "email#alice@example.com", stringAttr(t, items[2].Put.Item, fieldUniqueKey))
	assert.Equal(t, "01HUSER", stringAttr(t, items[2].Put.Item, fieldUserID))
}

func TestRunInTx_CallerUserNotMutated(t *testing.T) {
	api := &fakeAPI{}
	repo := NewUserRepo(api, "users", "unique_keys")
	u := sampleUser()

	err := repo.RunInTx(context.Background(), func(ctx context.Context, tx domain.AccountTx) error {
		require.NoError(t, tx.CreateUser(ctx, u))
		return tx.SetVerificationCode(ctx, "alice", "AB12CD")
	})
	require.NoError(t, err)
	assert.Empty(t, u.VerificationCode)
}

func TestRunInTx_FnError_WritesNothing(t *testing.T) {
	api := &fakeAPI{}
	repo := NewUserRepo(api, "users", "unique_keys")
	boom := errors.New("boom")

	err := repo.RunInTx(context.Background(), func(ctx context.Context, tx domain.AccountTx) error {
		require.NoError(t, tx.CreateUser(ctx, sampleUser()))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, api.transacts)
}

func TestRunInTx_ConditionFailure_IsDuplicate(t *testing.T) {
	api := &fakeAPI{
		transact: func(*dynamodb.TransactWriteItemsInput) (*dynamodb.TransactWriteItemsOutput, error) {
			return nil, &types.TransactionCanceledException{CancellationReasons: []types.CancellationReason{
				{Code: aws.String("None")},
				{Code: aws.String("ConditionalCheckFailed")},
				{Code: aws.String("None")},
			}}
		},
	}
	repo := NewUserRepo(api, "users", "unique_keys")

	err := repo.RunInTx(context.Background(), func(ctx context.Context, tx domain.AccountTx) error {
		return tx.CreateUser(ctx, sampleUser())
	})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRunInTx_SetCodeOnStoredUser_QueuesUpdate(t *testing.T) {
	stored, err := attributevalue.MarshalMap(sampleUser())
	require.NoError(t, err)
	api := &fakeAPI{
		query: func(in *dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
			assert.Equal(t, indexUsername, aws.ToString(in.IndexName))
			return &dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{stored}}, nil
		},
	}
	repo := NewUserRepo(api, "users", "unique_keys")

	err = repo.RunInTx(context.Background(), func(ctx context.Context, tx domain.AccountTx) error {
		return tx.SetVerificationCode(ctx, "alice", "ZZ99ZZ")
	})
	require.NoError(t, err)

	require.Len(t, api.transacts, 1)
	items := api.transacts[0].TransactItems
	require.Len(t, items, 1)
	upd := items[0].Update
	require.NotNil(t, upd)
	assert.Equal(t, "01HUSER", stringAttr(t, upd.Key, fieldUserID))
	assert.Equal(t, "ZZ99ZZ", stringAttr(t, upd.ExpressionAttributeValues, ":c"))
}

func TestRunInTx_SetCodeOnUnknownUser(t *testing.T) {
	api := &fakeAPI{
		query: func(*dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
			return &dynamodb.QueryOutput{}, nil
		},
	}
	repo := NewUserRepo(api, "users", "unique_keys")

	err := repo.RunInTx(context.Background(), func(ctx context.Context, tx domain.AccountTx) error {
		return tx.SetVerificationCode(ctx, "ghost", "ZZ99ZZ")
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, api.transacts)
}

func TestFindByEmailAndCode(t *testing.T) {
	u := sampleUser()
	u.VerificationCode = "AB12CD"
	stored, err := attributevalue.MarshalMap(u)
	require.NoError(t, err)

	var got *dynamodb.QueryInput
	api := &fakeAPI{
		query: func(in *dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
			got = in
			return &dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{stored}}, nil
		},
	}
	repo := NewUserRepo(api, "users", "unique_keys")

	found, err := repo.FindByEmailAndCode(context.Background(), "alice@example.com", "AB12CD")
	require.NoError(t, err)
	assert.Equal(t, "alice", found.Username)
	assert.Equal(t, "AB12CD", found.VerificationCode)

	assert.Equal(t, indexEmail, aws.ToString(got.IndexName))
	assert.Equal(t, "#c = :c AND #d = :f", aws.ToString(got.FilterExpression))
	assert.Equal(t, "alice@example.com", stringAttr(t, got.ExpressionAttributeValues, ":v"))
	assert.Equal(t, "AB12CD", stringAttr(t, got.ExpressionAttributeValues, ":c"))
}

func TestFindByEmailAndCode_NoMatch(t *testing.T) {
	api := &fakeAPI{
		query: func(*dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
			return &dynamodb.QueryOutput{}, nil
		},
	}
	repo := NewUserRepo(api, "users", "unique_keys")

	_, err := repo.FindByEmailAndCode(context.Background(), "alice@example.com", "WRONG1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGet_Missing(t *testing.T) {
	api := &fakeAPI{
		getItem: func(*dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
			return &dynamodb.GetItemOutput{}, nil
		},
	}
	repo := NewUserRepo(api, "users", "unique_keys")

	_, err := repo.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSave_WritesVerificationStateOnly(t *testing.T) {
	api := &fakeAPI{}
	repo := NewUserRepo(api, "users", "unique_keys")

	u := sampleUser()
	u.IsVerified = true
	require.NoError(t, repo.Save(context.Background(), u))

	require.Len(t, api.updates, 1)
	upd := api.updates[0]
	assert.Equal(t, "01HUSER", stringAttr(t, upd.Key, fieldUserID))
	assert.Equal(t, "SET #v = :v, #u = :u REMOVE #c", aws.ToString(upd.UpdateExpression))
	assert.Equal(t, "attribute_exists(#id) AND #d = :f", aws.ToString(upd.ConditionExpression))
	assert.Equal(t, fieldIsDeleted, upd.ExpressionAttributeNames["#d"])
	assert.Equal(t, &types.AttributeValueMemberBOOL{Value: true}, upd.ExpressionAttributeValues[":v"])
}

func TestSave_KeepsPendingCode(t *testing.T) {
	api := &fakeAPI{}
	repo := NewUserRepo(api, "users", "unique_keys")

	u := sampleUser()
	u.VerificationCode = "AB12CD"
	require.NoError(t, repo.Save(context.Background(), u))

	require.Len(t, api.updates, 1)
	assert.Equal(t, "SET #v = :v, #u = :u, #c = :c", aws.ToString(api.updates[0].UpdateExpression))
	assert.Equal(t, "AB12CD", stringAttr(t, api.updates[0].ExpressionAttributeValues, ":c"))
}

func TestSave_DeletedOrMissingUser(t *testing.T) {
	api := &fakeAPI{
		update: func(*dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error) {
			return nil, &types.ConditionalCheckFailedException{}
		},
	}
	repo := NewUserRepo(api, "users", "unique_keys")

	err := repo.Save(context.Background(), sampleUser())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSoftDelete_SetsFlag(t *testing.T) {
	api := &fakeAPI{}
	repo := NewUserRepo(api, "users", "unique_keys")

	require.NoError(t, repo.SoftDelete(context.Background(), "01HUSER"))
	require.Len(t, api.updates, 1)
	upd := api.updates[0]
	assert.Equal(t, "01HUSER", stringAttr(t, upd.Key, fieldUserID))
	assert.Contains(t, upd.ExpressionAttributeNames, "#id")

	var sawDeleted bool
	for _, name := range upd.ExpressionAttributeNames {
		if name == fieldIsDeleted {
			sawDeleted = true
		}
	}
	assert.True(t, sawDeleted)
}
