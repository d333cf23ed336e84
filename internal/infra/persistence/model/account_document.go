package model

import "time"

// AccountDocument is the MongoDB shape of an account. Absent token fields are
// left out of the document so the sparse unique indexes ignore them.
type AccountDocument struct {
	ID                     string     `bson:"_id"`
	Email                  string     `bson:"email"`
	Name                   string     `bson:"name"`
	Role                   string     `bson:"role"`
	CredentialHash         string     `bson:"credential_hash"`
	EmailVerified          bool       `bson:"email_verified"`
	EmailVerificationToken *string    `bson:"email_verification_token,omitempty"`
	PasswordResetToken     *string    `bson:"password_reset_token,omitempty"`
	PasswordResetExpires   *time.Time `bson:"password_reset_expires,omitempty"`
	CreatedAt              time.Time  `bson:"created_at"`
	UpdatedAt              time.Time  `bson:"updated_at"`
}

// AccountsCollection is the MongoDB collection holding account documents.
const AccountsCollection = "accounts"
