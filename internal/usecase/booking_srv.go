package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"laundry-booking/internal/data/entity"
	"laundry-booking/internal/data/repository"
	"laundry-booking/internal/dto/request"
	"laundry-booking/internal/dto/response"
	"laundry-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const createBookingRetries = 3

// nextStatus is the only forward step out of each non-terminal state.
// cancelled is additionally reachable from any pre-completed state.
var nextStatus = map[entity.BookingStatus]entity.BookingStatus{
	entity.BookingStatusPending:    entity.BookingStatusConfirmed,
	entity.BookingStatusConfirmed:  entity.BookingStatusInProgress,
	entity.BookingStatusInProgress: entity.BookingStatusCompleted,
}

type BookingService interface {
	// CreateBooking is the checkout entry point: it validates the
	// payload, locks an optional referral code, reconciles pricing,
	// mints an order id and persists the booking.
	CreateBooking(ctx context.Context, req *request.CreateBookingRequest) (*response.BookingResponse, error)

	GetBookingByID(ctx context.Context, bookingID string) (*response.BookingResponse, error)
	GetBookingByOrderID(ctx context.Context, orderID string) (*response.BookingResponse, error)
	GetCustomerBookings(ctx context.Context, customerID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error)

	// AdvanceStatus moves the booking one step forward, or to
	// cancelled from any pre-completed state. Re-requesting the
	// current status is a no-op.
	AdvanceStatus(ctx context.Context, bookingID string, newStatus entity.BookingStatus) (*response.BookingResponse, error)
	CancelBooking(ctx context.Context, bookingID string) error

	// RedeemReferralDiscount spends a referral discount on an existing
	// unpaid booking and reprices it.
	RedeemReferralDiscount(ctx context.Context, bookingID, referralCode, userID string) (*response.BookingResponse, error)

	UpdatePaymentStatus(ctx context.Context, bookingID string, status entity.PaymentStatus) error
	AssignRider(ctx context.Context, bookingID, riderID string) error
}

type bookingService struct {
	repo      *repository.Repository
	orderIDs  OrderIDGenerator
	referrals ReferralService
	catalog   *ServiceCatalog
	config    *utils.Config
	log       *zap.Logger
	now       func() time.Time
}

func NewBookingService(
	repo *repository.Repository,
	orderIDs OrderIDGenerator,
	referrals ReferralService,
	catalog *ServiceCatalog,
	config *utils.Config,
	log *zap.Logger,
) BookingService {
	return &bookingService{
		repo:      repo,
		orderIDs:  orderIDs,
		referrals: referrals,
		catalog:   catalog,
		config:    config,
		log:       log.With(zap.String("service", "booking")),
		now:       time.Now,
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, req *request.CreateBookingRequest) (*response.BookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create booking validation failed",
			zap.String("errors", utils.FormatValidationErrors(errs)),
		)
		return nil, &entity.ValidationError{Fields: errs}
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		return nil, entity.NewValidationError("customer_id", "must be a valid UUID")
	}

	now := s.now()
	booking := s.buildBooking(req, customerID, now)

	// Price from a read-only eligibility check; the one-shot referral
	// flag is only spent once the booking row exists, so a failed
	// insert cannot consume the discount.
	explicitFinal := req.FinalAmount
	if req.ReferralCode != "" {
		percentage, err := s.referrals.DiscountEligibility(ctx, req.ReferralCode, customerID)
		if err != nil {
			return nil, err
		}
		if booking.DiscountAmount == 0 {
			booking.DiscountAmount = booking.TotalPrice * float64(percentage) / 100
		}
		// Discount changed; any caller-supplied final amount is stale.
		explicitFinal = nil
	}

	ReconcilePricing(booking, explicitFinal, s.catalog.Services(ctx), now)

	if err := s.persistWithFreshOrderID(ctx, booking); err != nil {
		return nil, err
	}

	if req.ReferralCode != "" {
		if _, err := s.referrals.LockDiscountForBooking(ctx, req.ReferralCode, customerID, booking.ID); err != nil {
			// Lost a race on the one-shot flag after the insert. Strip
			// the unearned discount from the stored row and fail the
			// checkout.
			s.log.Warn("Referral lock lost after insert, reverting discount",
				zap.String("booking_id", booking.ID.String()),
				zap.String("order_id", booking.OrderID),
				zap.Error(err),
			)
			if revertErr := s.repo.Booking.UpdatePricing(ctx, booking.ID, 0, booking.TotalPrice); revertErr != nil {
				s.log.Error("Failed to revert booking pricing",
					zap.String("booking_id", booking.ID.String()),
					zap.Error(revertErr),
				)
			}
			return nil, err
		}
	}

	s.log.Info("Booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("order_id", booking.OrderID),
		zap.String("customer_id", req.CustomerID),
		zap.Int("line_items", len(booking.LineItems)),
		zap.Float64("total_price", booking.TotalPrice),
		zap.Float64("final_amount", booking.FinalAmount),
	)

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

// persistWithFreshOrderID inserts the booking, regenerating the order
// id on a uniqueness conflict. Failed attempts never leave a reserved
// id behind; the generator re-scans instead of pre-allocating.
func (s *bookingService) persistWithFreshOrderID(ctx context.Context, booking *entity.Booking) error {
	for attempt := 1; attempt <= createBookingRetries; attempt++ {
		orderID, err := s.orderIDs.Generate(ctx)
		if err != nil {
			return fmt.Errorf("generate order ID: %w", err)
		}
		booking.OrderID = orderID

		err = s.repo.Booking.Create(ctx, booking)
		if err == nil {
			return nil
		}
		if !errors.Is(err, entity.ErrPersistenceConflict) {
			return err
		}

		s.log.Warn("Order ID conflict on insert, regenerating",
			zap.String("order_id", orderID),
			zap.Int("attempt", attempt),
		)

		if attempt < createBookingRetries {
			jitter := time.Duration(50*attempt+rand.Intn(50)) * time.Millisecond
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(jitter):
			}
		}
	}

	return fmt.Errorf("create booking after %d attempts: %w", createBookingRetries, entity.ErrPersistenceConflict)
}

func (s *bookingService) buildBooking(req *request.CreateBookingRequest, customerID uuid.UUID, now time.Time) *entity.Booking {
	lineItems := make([]entity.LineItem, len(req.LineItems))
	for i, item := range req.LineItems {
		lineItems[i] = entity.LineItem{
			ServiceName: item.ServiceName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   float64(item.Quantity) * item.UnitPrice,
		}
	}

	breakdown := entity.ChargesBreakdown{HandlingFee: s.config.Booking.HandlingFee}
	if req.ChargesBreakdown != nil {
		breakdown = entity.ChargesBreakdown{
			BasePrice:   req.ChargesBreakdown.BasePrice,
			TaxAmount:   req.ChargesBreakdown.TaxAmount,
			ServiceFee:  req.ChargesBreakdown.ServiceFee,
			DeliveryFee: req.ChargesBreakdown.DeliveryFee,
			HandlingFee: req.ChargesBreakdown.HandlingFee,
			Discount:    req.ChargesBreakdown.Discount,
		}
	}

	addressDetails := entity.AddressDetails{Type: entity.AddressTypeOther}
	if req.AddressDetails != nil {
		addressDetails = entity.AddressDetails{
			FlatNo:   req.AddressDetails.FlatNo,
			Street:   req.AddressDetails.Street,
			Landmark: req.AddressDetails.Landmark,
			Village:  req.AddressDetails.Village,
			City:     req.AddressDetails.City,
			Pincode:  req.AddressDetails.Pincode,
			Type:     entity.AddressType(req.AddressDetails.Type),
		}
		if addressDetails.Type == "" {
			addressDetails.Type = entity.AddressTypeOther
		}
	}

	return &entity.Booking{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		CustomerID:          customerID,
		CustomerName:        req.CustomerName,
		Phone:               req.Phone,
		Service:             req.Service,
		ServiceType:         req.ServiceType,
		ScheduledDate:       req.ScheduledDate,
		ScheduledTime:       req.ScheduledTime,
		DeliveryDate:        req.DeliveryDate,
		DeliveryTime:        req.DeliveryTime,
		ProviderName:        req.ProviderName,
		Address:             req.Address,
		AddressDetails:      addressDetails,
		Coordinates:         entity.Coordinates{Lat: req.Lat, Lng: req.Lng},
		LineItems:           lineItems,
		ChargesBreakdown:    breakdown,
		TotalPrice:          req.TotalPrice,
		DiscountAmount:      req.DiscountAmount,
		Status:              entity.BookingStatusPending,
		PaymentStatus:       entity.PaymentStatusPending,
		SpecialInstructions: req.SpecialInstructions,
		EstimatedDuration:   s.config.Booking.EstimatedDuration,
	}
}

func (s *bookingService) GetBookingByID(ctx context.Context, bookingID string) (*response.BookingResponse, error) {
	booking, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

// GetBookingByOrderID looks a booking up by its customer-facing order
// number.
func (s *bookingService) GetBookingByOrderID(ctx context.Context, orderID string) (*response.BookingResponse, error) {
	if orderID == "" {
		return nil, entity.NewValidationError("order_id", "This field is required")
	}

	booking, err := s.repo.Booking.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, fmt.Errorf("booking %s: %w", orderID, entity.ErrNotFound)
	}

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

func (s *bookingService) GetCustomerBookings(ctx context.Context, customerID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	id, err := uuid.Parse(customerID)
	if err != nil {
		return nil, entity.NewValidationError("customer_id", "must be a valid UUID")
	}

	bookings, err := s.repo.Booking.FindByCustomerID(ctx, id, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("get customer bookings: %w", err)
	}

	total, err := s.repo.Booking.CountByCustomerID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("count customer bookings: %w", err)
	}

	responses := make([]response.BookingResponse, len(bookings))
	for i, booking := range bookings {
		responses[i] = response.BookingToResponse(booking)
	}

	return response.NewPaginatedResponse(responses, req.Page, req.PerPage, total), nil
}

func (s *bookingService) AdvanceStatus(ctx context.Context, bookingID string, newStatus entity.BookingStatus) (*response.BookingResponse, error) {
	booking, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	// Re-requesting the current status is a no-op, not an error, so
	// retried calls do not disturb completed_at.
	if booking.Status == newStatus {
		resp := response.BookingToResponse(booking)
		return &resp, nil
	}

	if err := validateTransition(booking.Status, newStatus); err != nil {
		s.log.Warn("Rejected status transition",
			zap.String("booking_id", bookingID),
			zap.String("from", string(booking.Status)),
			zap.String("to", string(newStatus)),
		)
		return nil, err
	}

	var completedAt *time.Time
	if newStatus == entity.BookingStatusCompleted {
		if booking.CompletedAt != nil {
			completedAt = booking.CompletedAt
		} else {
			stamped := s.now()
			completedAt = &stamped
		}
	}

	if err := s.repo.Booking.UpdateStatus(ctx, booking.ID, newStatus, completedAt); err != nil {
		return nil, err
	}

	booking.Status = newStatus
	if completedAt != nil && booking.CompletedAt == nil {
		booking.CompletedAt = completedAt
	}

	s.log.Info("Booking status advanced",
		zap.String("booking_id", bookingID),
		zap.String("order_id", booking.OrderID),
		zap.String("status", string(newStatus)),
	)

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

func validateTransition(from, to entity.BookingStatus) error {
	if from == entity.BookingStatusCompleted || from == entity.BookingStatusCancelled {
		return fmt.Errorf("booking is %s: %w", from, entity.ErrInvalidTransition)
	}
	if to == entity.BookingStatusCancelled {
		return nil
	}
	if nextStatus[from] != to {
		return fmt.Errorf("%s -> %s: %w", from, to, entity.ErrInvalidTransition)
	}
	return nil
}

func (s *bookingService) CancelBooking(ctx context.Context, bookingID string) error {
	_, err := s.AdvanceStatus(ctx, bookingID, entity.BookingStatusCancelled)
	return err
}

func (s *bookingService) RedeemReferralDiscount(ctx context.Context, bookingID, referralCode, userID string) (*response.BookingResponse, error) {
	redeemerID, err := uuid.Parse(userID)
	if err != nil {
		return nil, entity.NewValidationError("user_id", "must be a valid UUID")
	}

	booking, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.Status == entity.BookingStatusCompleted || booking.Status == entity.BookingStatusCancelled {
		return nil, fmt.Errorf("booking is %s: %w", booking.Status, entity.ErrInvalidTransition)
	}

	percentage, err := s.referrals.LockDiscountForBooking(ctx, referralCode, redeemerID, booking.ID)
	if err != nil {
		return nil, err
	}

	booking.DiscountAmount = booking.TotalPrice * float64(percentage) / 100
	ReconcilePricing(booking, nil, s.catalog.Services(ctx), s.now())

	if err := s.repo.Booking.UpdatePricing(ctx, booking.ID, booking.DiscountAmount, booking.FinalAmount); err != nil {
		return nil, err
	}

	s.log.Info("Referral discount redeemed",
		zap.String("booking_id", bookingID),
		zap.String("order_id", booking.OrderID),
		zap.String("user_id", userID),
		zap.Int("discount_percentage", percentage),
		zap.Float64("discount_amount", booking.DiscountAmount),
		zap.Float64("final_amount", booking.FinalAmount),
	)

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

func (s *bookingService) UpdatePaymentStatus(ctx context.Context, bookingID string, status entity.PaymentStatus) error {
	booking, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return err
	}

	if err := s.repo.Booking.UpdatePaymentStatus(ctx, booking.ID, status); err != nil {
		return err
	}

	s.log.Info("Payment status updated",
		zap.String("booking_id", bookingID),
		zap.String("order_id", booking.OrderID),
		zap.String("payment_status", string(status)),
	)

	return nil
}

func (s *bookingService) AssignRider(ctx context.Context, bookingID, riderID string) error {
	rider, err := uuid.Parse(riderID)
	if err != nil {
		return entity.NewValidationError("rider_id", "must be a valid UUID")
	}

	booking, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return err
	}

	if err := s.repo.Booking.AssignRider(ctx, booking.ID, rider); err != nil {
		return err
	}

	s.log.Info("Rider assigned",
		zap.String("booking_id", bookingID),
		zap.String("rider_id", riderID),
	)

	return nil
}

func (s *bookingService) findBooking(ctx context.Context, bookingID string) (*entity.Booking, error) {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, entity.NewValidationError("booking_id", "must be a valid UUID")
	}

	booking, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, fmt.Errorf("booking %s: %w", bookingID, entity.ErrNotFound)
	}

	return booking, nil
}
