package adaptor

import (
	"encoding/json"
	"net/http"

	"laundry-booking/internal/data/entity"
	"laundry-booking/internal/dto/request"
	"laundry-booking/internal/usecase"
	"laundry-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type BookingHandler struct {
	service usecase.BookingService
	log     *zap.Logger
}

func NewBookingHandler(service usecase.BookingService, log *zap.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log.With(zap.String("handler", "booking")),
	}
}

// CreateBooking handles POST /api/bookings
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req request.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	booking, err := h.service.CreateBooking(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.ResponseCreated(w, "success", booking)
}

// GetBookingByID handles GET /api/bookings/{id}
func (h *BookingHandler) GetBookingByID(w http.ResponseWriter, r *http.Request) {
	booking, err := h.service.GetBookingByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.ResponseSuccess(w, "success", booking)
}

// GetBookingByOrderID handles GET /api/bookings/order/{orderID}
func (h *BookingHandler) GetBookingByOrderID(w http.ResponseWriter, r *http.Request) {
	booking, err := h.service.GetBookingByOrderID(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.ResponseSuccess(w, "success", booking)
}

// GetCustomerBookings handles GET /api/customers/{id}/bookings
func (h *BookingHandler) GetCustomerBookings(w http.ResponseWriter, r *http.Request) {
	req := &request.PaginatedRequest{
		Page:    utils.ParseInt(r.URL.Query().Get("page"), 1),
		PerPage: utils.ParseInt(r.URL.Query().Get("per_page"), 10),
	}

	bookings, err := h.service.GetCustomerBookings(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.ResponseSuccess(w, "success", bookings)
}

// AdvanceStatus handles PUT /api/bookings/{id}/status
func (h *BookingHandler) AdvanceStatus(w http.ResponseWriter, r *http.Request) {
	var req request.AdvanceStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	booking, err := h.service.AdvanceStatus(r.Context(), chi.URLParam(r, "id"), entity.BookingStatus(req.Status))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.ResponseSuccess(w, "success", booking)
}

// CancelBooking handles PUT /api/bookings/{id}/cancel
func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	if err := h.service.CancelBooking(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}

	utils.ResponseSuccess(w, "Booking cancelled", nil)
}

// RedeemReferral handles POST /api/bookings/{id}/redeem-referral
func (h *BookingHandler) RedeemReferral(w http.ResponseWriter, r *http.Request) {
	var req request.RedeemReferralRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	booking, err := h.service.RedeemReferralDiscount(r.Context(), chi.URLParam(r, "id"), req.ReferralCode, req.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.ResponseSuccess(w, "success", booking)
}

// UpdatePaymentStatus handles PUT /api/bookings/{id}/payment-status
func (h *BookingHandler) UpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	var req request.UpdatePaymentStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	if err := h.service.UpdatePaymentStatus(r.Context(), chi.URLParam(r, "id"), entity.PaymentStatus(req.PaymentStatus)); err != nil {
		writeServiceError(w, err)
		return
	}

	utils.ResponseSuccess(w, "Payment status updated", nil)
}

// AssignRider handles PUT /api/bookings/{id}/rider
func (h *BookingHandler) AssignRider(w http.ResponseWriter, r *http.Request) {
	var req request.AssignRiderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	if err := h.service.AssignRider(r.Context(), chi.URLParam(r, "id"), req.RiderID); err != nil {
		writeServiceError(w, err)
		return
	}

	utils.ResponseSuccess(w, "Rider assigned", nil)
}
