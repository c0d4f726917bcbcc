package entity

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned when a booking or referral does not exist.
	ErrNotFound = errors.New("not found")
	// ErrPersistenceConflict is a unique-constraint violation on
	// order_id or referral_code. Retryable.
	ErrPersistenceConflict = errors.New("conflicts with existing data")
	// ErrInvalidTransition is a backward or skipping status change.
	// Never retried.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrReferralExpired marks a code past its expires_at.
	ErrReferralExpired = errors.New("referral code has expired")
	// ErrReferralAlreadyUsed marks a discount flag already spent or a
	// fully rewarded code.
	ErrReferralAlreadyUsed = errors.New("referral code has already been used")
	// ErrSelfReferral rejects a user claiming their own code.
	ErrSelfReferral = errors.New("cannot use own referral code")
	// ErrReferralClaimed rejects claiming a code that already has a referee.
	ErrReferralClaimed = errors.New("referral code has already been claimed")
	// ErrNotEligible rejects a redemption by a user who is neither the
	// code's referee nor its referrer.
	ErrNotEligible = errors.New("not eligible for referral discount")
)

// ValidationError carries per-field messages for malformed input.
// It is surfaced to the caller verbatim and never retried.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		msgs = append(msgs, fmt.Sprintf("%s: %s", field, msg))
	}
	sort.Strings(msgs)
	return "validation failed: " + strings.Join(msgs, "; ")
}

func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}
