package model

import (
	"time"

	"github.com/google/uuid"
)

// AccountModel mirrors the 'accounts' table. IDs are generated by the application.
type AccountModel struct {
	ID                     uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Email                  string     `gorm:"type:varchar(255);uniqueIndex:accounts_email_key;not null"`
	Name                   string     `gorm:"type:varchar(100);not null;default:''"`
	Role                   string     `gorm:"type:varchar(20);not null;default:'user'"`
	CredentialHash         string     `gorm:"type:varchar(255);not null"`
	EmailVerified          bool       `gorm:"not null;default:false"`
	EmailVerificationToken *string    `gorm:"type:varchar(128);uniqueIndex:accounts_email_verification_token_key"`
	PasswordResetToken     *string    `gorm:"type:varchar(128);uniqueIndex:accounts_password_reset_token_key"`
	PasswordResetExpires   *time.Time `gorm:"index:accounts_password_reset_expires_idx"`
	CreatedAt              time.Time  `gorm:"not null"`
	UpdatedAt              time.Time  `gorm:"not null"`
}

// TableName explicitly sets the table name for GORM.
func (AccountModel) TableName() string {
	return "accounts"
}
