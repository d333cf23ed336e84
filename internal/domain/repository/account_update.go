package repository

import (
	"time"

	"storefront/internal/domain/entity"
)

// Optional is a field in a partial update. The zero value leaves the field unchanged.
type Optional[T any] struct {
	set   bool
	value *T
}

// Set returns an Optional that assigns v.
func Set[T any](v T) Optional[T] {
	return Optional[T]{set: true, value: &v}
}

// Clear returns an Optional that removes the field's value.
func Clear[T any]() Optional[T] {
	return Optional[T]{set: true}
}

// IsSet reports whether the update touches the field.
func (o Optional[T]) IsSet() bool {
	return o.set
}

// IsClear reports whether the update removes the field's value.
func (o Optional[T]) IsClear() bool {
	return o.set && o.value == nil
}

// Value returns the assigned value; ok is false when the field is untouched or cleared.
func (o Optional[T]) Value() (v T, ok bool) {
	if !o.set || o.value == nil {
		return v, false
	}

	return *o.value, true
}

// AccountUpdate is an explicit partial update of an account.
type AccountUpdate struct {
	Email                  Optional[string]
	Name                   Optional[string]
	Role                   Optional[entity.Role]
	CredentialHash         Optional[string]
	EmailVerified          Optional[bool]
	EmailVerificationToken Optional[string]
	PasswordResetToken     Optional[string]
	PasswordResetExpires   Optional[time.Time]
}

// IsEmpty reports whether the update would change nothing.
func (u AccountUpdate) IsEmpty() bool {
	return !u.Email.IsSet() &&
		!u.Name.IsSet() &&
		!u.Role.IsSet() &&
		!u.CredentialHash.IsSet() &&
		!u.EmailVerified.IsSet() &&
		!u.EmailVerificationToken.IsSet() &&
		!u.PasswordResetToken.IsSet() &&
		!u.PasswordResetExpires.IsSet()
}

// Apply writes the update onto account. Stores call Validate on the result before saving.
func (u AccountUpdate) Apply(account *entity.Account) {
	applyValue(u.Email, &account.Email)
	applyValue(u.Name, &account.Name)
	applyValue(u.Role, &account.Role)
	applyValue(u.CredentialHash, &account.CredentialHash)
	applyValue(u.EmailVerified, &account.EmailVerified)
	applyPointer(u.EmailVerificationToken, &account.EmailVerificationToken)
	applyPointer(u.PasswordResetToken, &account.PasswordResetToken)
	applyPointer(u.PasswordResetExpires, &account.PasswordResetExpires)
}

func applyValue[T any](o Optional[T], dst *T) {
	if !o.set {
		return
	}

	var zero T
	if o.value == nil {
		*dst = zero

		return
	}

	*dst = *o.value
}

func applyPointer[T any](o Optional[T], dst **T) {
	if !o.set {
		return
	}

	if o.value == nil {
		*dst = nil

		return
	}

	v := *o.value
	*dst = &v
}
