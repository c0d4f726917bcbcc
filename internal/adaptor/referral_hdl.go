package adaptor

import (
	"encoding/json"
	"net/http"

	"laundry-booking/internal/dto/request"
	"laundry-booking/internal/usecase"
	"laundry-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ReferralHandler struct {
	service usecase.ReferralService
	log     *zap.Logger
}

func NewReferralHandler(service usecase.ReferralService, log *zap.Logger) *ReferralHandler {
	return &ReferralHandler{
		service: service,
		log:     log.With(zap.String("handler", "referral")),
	}
}

// Generate handles POST /api/referrals/generate
func (h *ReferralHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req request.GenerateReferralRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	referral, err := h.service.GetOrCreateActiveReferral(r.Context(), req.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.ResponseSuccess(w, "success", referral)
}

// Validate handles GET /api/referrals/validate/{code}
func (h *ReferralHandler) Validate(w http.ResponseWriter, r *http.Request) {
	referral, err := h.service.ValidateReferralCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.ResponseSuccess(w, "Valid referral code", referral)
}

// Apply handles POST /api/referrals/apply
func (h *ReferralHandler) Apply(w http.ResponseWriter, r *http.Request) {
	var req request.ApplyReferralRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	referral, err := h.service.ApplyReferralCode(r.Context(), req.ReferralCode, req.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.ResponseSuccess(w, "Referral code applied", referral)
}

// GetUserReferrals handles GET /api/users/{id}/referrals
func (h *ReferralHandler) GetUserReferrals(w http.ResponseWriter, r *http.Request) {
	referrals, err := h.service.GetUserReferrals(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.ResponseSuccess(w, "success", referrals)
}

// GetAsReferee handles GET /api/users/{id}/referral-as-referee
func (h *ReferralHandler) GetAsReferee(w http.ResponseWriter, r *http.Request) {
	referral, err := h.service.GetReferralAsReferee(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.ResponseSuccess(w, "success", referral)
}
