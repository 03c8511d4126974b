// Package common holds the domain error taxonomy shared by services,
// repositories, and the transport layer. All errors here are request-scoped
// and recoverable; the HTTP layer maps them 1:1 to status codes.
package common

import "errors"

var (

	// token verification failures
	ErrInvalidAccessToken  = errors.New("invalid access token")
	ErrExpiredAccessToken  = errors.New("expired access token")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrExpiredRefreshToken = errors.New("expired refresh token")

	// authorization failures
	ErrInsufficientPermissions = errors.New("insufficient permissions")

	// login failures
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserDisabled       = errors.New("user disabled")

	// user mutation preconditions
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserEmailSame      = errors.New("new email matches the current one")
	ErrUserNameSame       = errors.New("new username matches the current one")
	ErrUserPasswordSame   = errors.New("new password matches the current one")

	// chat domain
	ErrConversationNotFound = errors.New("conversation not found")
	ErrModelConfigNotFound  = errors.New("model config not found")

	// repository specific errors
	ErrNotFound = errors.New("not found")

	// service specific errors
	ErrInternal = errors.New("internal error")
)
