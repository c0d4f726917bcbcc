package repository

import (
	"laundry-booking/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	Booking  BookingRepository
	Referral ReferralRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		Booking:  NewBookingRepository(db, log),
		Referral: NewReferralRepository(db, log),
	}
}
