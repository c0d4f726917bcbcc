package usecase

import (
	"context"
	"time"

	"laundry-booking/internal/data/repository"
	"laundry-booking/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Booking  BookingService
	Referral ReferralService
}

func NewService(repo *repository.Repository, config *utils.Config, log *zap.Logger) *Service {
	catalog := NewServiceCatalog(
		time.Duration(config.Booking.CatalogTTLMinutes)*time.Minute,
		func(ctx context.Context) ([]string, error) {
			// The service catalog lives with an external collaborator;
			// until one is wired the built-in defaults serve.
			return nil, nil
		},
	)

	orderIDs := NewOrderIDGenerator(repo.Booking, log)
	referral := NewReferralService(repo, config, log)
	booking := NewBookingService(repo, orderIDs, referral, catalog, config, log)

	return &Service{
		Booking:  booking,
		Referral: referral,
	}
}
