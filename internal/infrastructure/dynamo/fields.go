package dynamo

// DynamoDB attribute names used in keys and expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldUserID           = "user_id"
	fieldUsername         = "username"
	fieldEmail            = "email"
	fieldVerificationCode = "verification_code"
	fieldIsVerified       = "is_verified"
	fieldIsDeleted        = "is_deleted"
	fieldUpdatedAt        = "updated_at"
	fieldUniqueKey        = "unique_key"
	fieldProductID        = "product_id"
	fieldCategoryID       = "category_id"
)

// Global secondary indexes on the users table.
const (
	indexUsername = "username-index"
	indexEmail    = "email-index"
)
