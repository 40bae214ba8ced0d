// Package handlers defines the HTTP-layer error codes used across endpoints.
//
// Codes are lowercase snake_case and stable: dashboards branch on them, while
// the message is for humans. Every error response carries an HTTP status and
// one of these codes, for example:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "bad_gateway",
//	  "message": "message delivery failed"
//	}

package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeInternal         = "internal_error"

	// Upstream API (diet tracker, messaging platform) failed.
	ErrCodeBadGateway = "bad_gateway"

	// Domain-specific:
	ErrCodeInvalidRange = "invalid_range"
	ErrCodeNoGoal       = "no_goal"
	ErrCodeNoRecipient  = "no_recipient"
	ErrCodeNotLinked    = "not_linked"
)
