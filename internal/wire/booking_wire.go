package wire

import (
	"laundry-booking/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireBooking(r chi.Router, bookingHandler *adaptor.BookingHandler) {
	r.Route("/api/bookings", func(r chi.Router) {
		// POST /api/bookings - checkout
		r.Post("/", bookingHandler.CreateBooking)

		// GET /api/bookings/{id} - booking details
		r.Get("/{id}", bookingHandler.GetBookingByID)

		// GET /api/bookings/order/{orderID} - lookup by order number
		r.Get("/order/{orderID}", bookingHandler.GetBookingByOrderID)

		// PUT /api/bookings/{id}/status - advance lifecycle status
		r.Put("/{id}/status", bookingHandler.AdvanceStatus)

		// PUT /api/bookings/{id}/cancel - cancel a pre-completed booking
		r.Put("/{id}/cancel", bookingHandler.CancelBooking)

		// POST /api/bookings/{id}/redeem-referral - spend a referral discount
		r.Post("/{id}/redeem-referral", bookingHandler.RedeemReferral)

		// PUT /api/bookings/{id}/payment-status - payment status update
		r.Put("/{id}/payment-status", bookingHandler.UpdatePaymentStatus)

		// PUT /api/bookings/{id}/rider - assign a rider
		r.Put("/{id}/rider", bookingHandler.AssignRider)
	})

	// GET /api/customers/{id}/bookings - booking history
	r.Get("/api/customers/{id}/bookings", bookingHandler.GetCustomerBookings)
}
