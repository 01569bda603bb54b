package dynamo

// DynamoDB attribute names used in key, condition and update expressions.
const (
	fieldEmail         = "email"
	fieldCode          = "code"
	fieldPurpose       = "purpose"
	fieldExpiresAt     = "expires_at"
	fieldAttempts      = "attempts"
	fieldVerifiedAt    = "verified_at"
	fieldInvalidatedAt = "invalidated_at"
	fieldConsumedAt    = "consumed_at"
	fieldPurgeAt       = "purge_at"
	fieldPasswordHash  = "password_hash"
	fieldUpdatedAt     = "updated_at"
)
