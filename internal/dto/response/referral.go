package response

import (
	"time"

	"laundry-booking/internal/data/entity"
)

type ReferralResponse struct {
	ID                      string                `json:"id"`
	Code                    string                `json:"code"`
	ReferrerID              string                `json:"referrer_id"`
	RefereeID               *string               `json:"referee_id,omitempty"`
	Status                  entity.ReferralStatus `json:"status"`
	DiscountPercentage      int                   `json:"discount_percentage"`
	RefereeDiscountApplied  bool                  `json:"referee_discount_applied"`
	ReferrerDiscountApplied bool                  `json:"referrer_discount_applied"`
	ExpiresAt               time.Time             `json:"expires_at"`
	CreatedAt               time.Time             `json:"created_at"`
}

func ReferralToResponse(r *entity.Referral) ReferralResponse {
	var refereeID *string
	if r.RefereeID != nil {
		s := r.RefereeID.String()
		refereeID = &s
	}

	return ReferralResponse{
		ID:                      r.ID.String(),
		Code:                    r.Code,
		ReferrerID:              r.ReferrerID.String(),
		RefereeID:               refereeID,
		Status:                  r.Status,
		DiscountPercentage:      r.DiscountPercentage,
		RefereeDiscountApplied:  r.RefereeDiscountApplied,
		ReferrerDiscountApplied: r.ReferrerDiscountApplied,
		ExpiresAt:               r.ExpiresAt,
		CreatedAt:               r.CreatedAt,
	}
}
