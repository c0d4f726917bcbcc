package entity

import (
	"time"

	"github.com/google/uuid"
)

type ReferralStatus string

// Referral status moves strictly forward; no transition skips a state.
const (
	ReferralStatusPending               ReferralStatus = "pending"
	ReferralStatusRegistered            ReferralStatus = "registered"
	ReferralStatusFirstPaymentCompleted ReferralStatus = "first_payment_completed"
	ReferralStatusRewarded              ReferralStatus = "rewarded"
)

type Referral struct {
	Base
	ReferrerID              uuid.UUID      `db:"referrer_id"`
	RefereeID               *uuid.UUID     `db:"referee_id"`
	Code                    string         `db:"referral_code"`
	Status                  ReferralStatus `db:"status"`
	DiscountPercentage      int            `db:"discount_percentage"`
	RefereeDiscountApplied  bool           `db:"referee_discount_applied"`
	ReferrerDiscountApplied bool           `db:"referrer_discount_applied"`
	RefereeFirstBookingID   *uuid.UUID     `db:"referee_first_booking_id"`
	ReferrerRewardBookingID *uuid.UUID     `db:"referrer_reward_booking_id"`
	RegistrationDate        *time.Time     `db:"registration_date"`
	FirstPaymentDate        *time.Time     `db:"first_payment_date"`
	RewardDate              *time.Time     `db:"reward_date"`
	ExpiresAt               time.Time      `db:"expires_at"`
}

func (r *Referral) IsExpired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// CanApplyRefereeDiscount reports whether the referee's one-time
// discount is still redeemable. The flag check makes a second
// redemption attempt fail even before any other state changes.
func (r *Referral) CanApplyRefereeDiscount(now time.Time) bool {
	return r.Status == ReferralStatusRegistered &&
		!r.RefereeDiscountApplied &&
		!r.IsExpired(now)
}

// CanApplyReferrerReward reports whether the referrer's one-time
// reward is still redeemable.
func (r *Referral) CanApplyReferrerReward(now time.Time) bool {
	return r.Status == ReferralStatusFirstPaymentCompleted &&
		!r.ReferrerDiscountApplied &&
		!r.IsExpired(now)
}
