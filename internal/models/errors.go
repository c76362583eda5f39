package models

import "errors"

// Application-wide standard errors
var (
	// Common resource errors
	ErrNotFound        = errors.New("resource not found")
	ErrVersionNotFound = errors.New("prompt version not found")
	ErrNoActiveVersion = errors.New("no active prompt version for agent type")
	ErrPostNotFound    = errors.New("blog post not found")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrTokenInvalid       = errors.New("session token is invalid")
	ErrTokenExpired       = errors.New("session token has expired")

	// Request errors
	ErrBadRequest       = errors.New("bad request")
	ErrInvalidInput     = errors.New("invalid input data")
	ErrUnknownAgentType = errors.New("unknown agent type")

	// Upstream errors
	ErrAIGenerationFailed = errors.New("AI generation failed")
	ErrInternalServer     = errors.New("internal server error")
)
