// Package services holds the diet coordinator's business logic: single-day
// aggregation, gap reconciliation, range backfill, the inbound webhook flow,
// advice generation and the admin request lifecycle.
// This file centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer. Upstream causes are wrapped next to the sentinel, so
// callers may also match calomeal or line errors with errors.Is/As.
package services

import "errors"

// Input errors.
var (
	// ErrInvalidDate is returned when a date is in neither supported
	// convention (YYYY-MM-DD, YYYY/MM/DD).
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidRange is returned when a bound is invalid or end precedes start.
	ErrInvalidRange = errors.New("invalid date range")

	// ErrRangeTooLarge is returned when a range exceeds MaxRangeDays.
	ErrRangeTooLarge = errors.New("date range too large")

	// ErrEmptyMessage is returned when a reply text is blank.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrInvalidStatus is returned for a status outside {pending, replied, ignored}.
	ErrInvalidStatus = errors.New("status must be one of pending, replied, ignored")
)

// Lookup errors.
var (
	// ErrRequestNotFound indicates that the inbound request does not exist.
	ErrRequestNotFound = errors.New("request not found")

	// ErrNoRecipient is returned when a request has no subject to reply to.
	ErrNoRecipient = errors.New("request has no user id")

	// ErrNoSubject is returned for meal advice on a message without a user id.
	ErrNoSubject = errors.New("meal advice needs a user id")
)

// Upstream errors.
var (
	// ErrUpstream wraps any failure fetching from the diet-tracking API.
	ErrUpstream = errors.New("diet api request failed")

	// ErrNoGoal is returned when the user-info payload carries no goal targets.
	ErrNoGoal = errors.New("no goal in user info")

	// ErrDeliveryFailed wraps a failed push to the messaging platform.
	ErrDeliveryFailed = errors.New("message delivery failed")
)
