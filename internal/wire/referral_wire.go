package wire

import (
	"laundry-booking/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireReferral(r chi.Router, referralHandler *adaptor.ReferralHandler) {
	r.Route("/api/referrals", func(r chi.Router) {
		// POST /api/referrals/generate - get-or-create a code
		r.Post("/generate", referralHandler.Generate)

		// GET /api/referrals/validate/{code} - read-only code check
		r.Get("/validate/{code}", referralHandler.Validate)

		// POST /api/referrals/apply - claim a code as referee
		r.Post("/apply", referralHandler.Apply)
	})

	// GET /api/users/{id}/referrals - codes issued by a user
	r.Get("/api/users/{id}/referrals", referralHandler.GetUserReferrals)

	// GET /api/users/{id}/referral-as-referee - code claimed by a user
	r.Get("/api/users/{id}/referral-as-referee", referralHandler.GetAsReferee)
}
