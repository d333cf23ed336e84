package service

// TokenGenerator produces opaque, URL-safe tokens for email verification and password reset.
type TokenGenerator interface {
	Generate() (string, error)
}
