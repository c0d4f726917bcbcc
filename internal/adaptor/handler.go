package adaptor

import (
	"errors"
	"net/http"

	"laundry-booking/internal/data/entity"
	"laundry-booking/internal/usecase"
	"laundry-booking/pkg/utils"

	"go.uber.org/zap"
)

type Handler struct {
	Booking  *BookingHandler
	Referral *ReferralHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Booking:  NewBookingHandler(service.Booking, log),
		Referral: NewReferralHandler(service.Referral, log),
	}
}

// writeServiceError maps domain errors to HTTP responses.
func writeServiceError(w http.ResponseWriter, err error) {
	var validationErr *entity.ValidationError
	switch {
	case errors.As(err, &validationErr):
		utils.ResponseBadRequest(w, "Validation failed", validationErr.Fields)
	case errors.Is(err, entity.ErrNotFound):
		utils.ResponseNotFound(w, err.Error())
	case errors.Is(err, entity.ErrPersistenceConflict):
		utils.ResponseConflict(w, "Please retry the request")
	case errors.Is(err, entity.ErrInvalidTransition):
		utils.ResponseUnprocessable(w, err.Error())
	case errors.Is(err, entity.ErrReferralExpired),
		errors.Is(err, entity.ErrReferralAlreadyUsed),
		errors.Is(err, entity.ErrReferralClaimed),
		errors.Is(err, entity.ErrSelfReferral),
		errors.Is(err, entity.ErrNotEligible):
		utils.ResponseBadRequest(w, err.Error(), nil)
	default:
		utils.ResponseInternalError(w, "Internal server error")
	}
}
