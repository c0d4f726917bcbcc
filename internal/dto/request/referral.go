package request

type GenerateReferralRequest struct {
	UserID string `json:"user_id" validate:"required,uuid4"`
}

// ApplyReferralRequest claims a code for a newly registered referee.
type ApplyReferralRequest struct {
	ReferralCode string `json:"referral_code" validate:"required"`
	UserID       string `json:"user_id" validate:"required,uuid4"`
}
