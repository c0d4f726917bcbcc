package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"laundry-booking/internal/data/entity"
	"laundry-booking/internal/data/repository"
	"laundry-booking/internal/dto/request"
	"laundry-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// fakeBookingRepo is an in-memory BookingRepository. The mutex makes
// the conditional updates atomic, mirroring what the database's
// targeted UPDATE statements give the real repository.
type fakeBookingRepo struct {
	mu        sync.Mutex
	bookings  map[uuid.UUID]*entity.Booking
	byOrderID map[string]uuid.UUID

	createErrs  []error // queued, popped per Create call
	scanErr     error   // returned by LatestOrderIDForMonth
	staleLatest string  // when set, LatestOrderIDForMonth returns this instead of the real max
	existsErr   error   // returned by OrderIDExists
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{
		bookings:  make(map[uuid.UUID]*entity.Booking),
		byOrderID: make(map[string]uuid.UUID),
	}
}

func (f *fakeBookingRepo) Create(ctx context.Context, booking *entity.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.createErrs) > 0 {
		err := f.createErrs[0]
		f.createErrs = f.createErrs[1:]
		if err != nil {
			return err
		}
	}

	if _, exists := f.byOrderID[booking.OrderID]; exists {
		return fmt.Errorf("create booking %s: %w", booking.OrderID, entity.ErrPersistenceConflict)
	}

	stored := *booking
	f.bookings[booking.ID] = &stored
	f.byOrderID[booking.OrderID] = booking.ID
	return nil
}

func (f *fakeBookingRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	booking, ok := f.bookings[id]
	if !ok {
		return nil, nil
	}
	copied := *booking
	return &copied, nil
}

func (f *fakeBookingRepo) FindByOrderID(ctx context.Context, orderID string) (*entity.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id, ok := f.byOrderID[orderID]
	if !ok {
		return nil, nil
	}
	copied := *f.bookings[id]
	return &copied, nil
}

func (f *fakeBookingRepo) FindByCustomerID(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var result []*entity.Booking
	for _, booking := range f.bookings {
		if booking.CustomerID == customerID {
			copied := *booking
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (f *fakeBookingRepo) CountByCustomerID(ctx context.Context, customerID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var count int64
	for _, booking := range f.bookings {
		if booking.CustomerID == customerID {
			count++
		}
	}
	return count, nil
}

func (f *fakeBookingRepo) LatestOrderIDForMonth(ctx context.Context, yearMonth string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.scanErr != nil {
		return "", f.scanErr
	}
	if f.staleLatest != "" {
		return f.staleLatest, nil
	}

	var latest string
	for orderID := range f.byOrderID {
		if matchesMonth(orderID, yearMonth) && orderID > latest {
			latest = orderID
		}
	}
	return latest, nil
}

func matchesMonth(orderID, yearMonth string) bool {
	if len(orderID) != 1+len(yearMonth)+5 {
		return false
	}
	if orderID[0] < 'A' || orderID[0] > 'Z' {
		return false
	}
	return orderID[1:1+len(yearMonth)] == yearMonth
}

func (f *fakeBookingRepo) OrderIDExists(ctx context.Context, orderID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.existsErr != nil {
		return false, f.existsErr
	}
	_, exists := f.byOrderID[orderID]
	return exists, nil
}

func (f *fakeBookingRepo) UpdateStatus(ctx context.Context, bookingID uuid.UUID, status entity.BookingStatus, completedAt *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	booking, ok := f.bookings[bookingID]
	if !ok {
		return fmt.Errorf("booking %s: %w", bookingID.String(), entity.ErrNotFound)
	}
	booking.Status = status
	if booking.CompletedAt == nil && completedAt != nil {
		booking.CompletedAt = completedAt
	}
	return nil
}

func (f *fakeBookingRepo) UpdatePricing(ctx context.Context, bookingID uuid.UUID, discountAmount, finalAmount float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	booking, ok := f.bookings[bookingID]
	if !ok {
		return fmt.Errorf("booking %s: %w", bookingID.String(), entity.ErrNotFound)
	}
	booking.DiscountAmount = discountAmount
	booking.FinalAmount = finalAmount
	booking.ChargesBreakdown.Discount = discountAmount
	return nil
}

func (f *fakeBookingRepo) UpdatePaymentStatus(ctx context.Context, bookingID uuid.UUID, status entity.PaymentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	booking, ok := f.bookings[bookingID]
	if !ok {
		return fmt.Errorf("booking %s: %w", bookingID.String(), entity.ErrNotFound)
	}
	booking.PaymentStatus = status
	return nil
}

func (f *fakeBookingRepo) AssignRider(ctx context.Context, bookingID, riderID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	booking, ok := f.bookings[bookingID]
	if !ok {
		return fmt.Errorf("booking %s: %w", bookingID.String(), entity.ErrNotFound)
	}
	booking.RiderID = &riderID
	return nil
}

// fakeReferralRepo is an in-memory ReferralRepository with the same
// conditional-update guarantees as the SQL implementation.
type fakeReferralRepo struct {
	mu        sync.Mutex
	referrals map[uuid.UUID]*entity.Referral

	createErrs []error
}

func newFakeReferralRepo() *fakeReferralRepo {
	return &fakeReferralRepo{referrals: make(map[uuid.UUID]*entity.Referral)}
}

func (f *fakeReferralRepo) Create(ctx context.Context, referral *entity.Referral) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.createErrs) > 0 {
		err := f.createErrs[0]
		f.createErrs = f.createErrs[1:]
		if err != nil {
			return err
		}
	}

	for _, existing := range f.referrals {
		if existing.Code == referral.Code {
			return fmt.Errorf("create referral %s: %w", referral.Code, entity.ErrPersistenceConflict)
		}
	}

	stored := *referral
	f.referrals[referral.ID] = &stored
	return nil
}

func (f *fakeReferralRepo) FindByCode(ctx context.Context, code string) (*entity.Referral, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, referral := range f.referrals {
		if referral.Code == code {
			copied := *referral
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeReferralRepo) FindActiveByReferrer(ctx context.Context, referrerID uuid.UUID, now time.Time) (*entity.Referral, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, referral := range f.referrals {
		if referral.ReferrerID == referrerID &&
			referral.Status != entity.ReferralStatusRewarded &&
			referral.ExpiresAt.After(now) {
			copied := *referral
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeReferralRepo) FindByReferee(ctx context.Context, refereeID uuid.UUID) (*entity.Referral, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, referral := range f.referrals {
		if referral.RefereeID != nil && *referral.RefereeID == refereeID {
			copied := *referral
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeReferralRepo) ListByReferrer(ctx context.Context, referrerID uuid.UUID) ([]*entity.Referral, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var result []*entity.Referral
	for _, referral := range f.referrals {
		if referral.ReferrerID == referrerID {
			copied := *referral
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (f *fakeReferralRepo) MarkRegistered(ctx context.Context, referralID, refereeID uuid.UUID, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	referral, ok := f.referrals[referralID]
	if !ok || referral.Status != entity.ReferralStatusPending ||
		referral.RefereeID != nil || !referral.ExpiresAt.After(at) {
		return false, nil
	}
	referral.Status = entity.ReferralStatusRegistered
	referral.RefereeID = &refereeID
	referral.RegistrationDate = &at
	return true, nil
}

func (f *fakeReferralRepo) MarkFirstPaymentCompleted(ctx context.Context, referralID, bookingID uuid.UUID, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	referral, ok := f.referrals[referralID]
	if !ok || referral.Status != entity.ReferralStatusRegistered ||
		referral.RefereeDiscountApplied || !referral.ExpiresAt.After(at) {
		return false, nil
	}
	referral.Status = entity.ReferralStatusFirstPaymentCompleted
	referral.RefereeFirstBookingID = &bookingID
	referral.FirstPaymentDate = &at
	referral.RefereeDiscountApplied = true
	return true, nil
}

func (f *fakeReferralRepo) MarkRewarded(ctx context.Context, referralID, bookingID uuid.UUID, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	referral, ok := f.referrals[referralID]
	if !ok || referral.Status != entity.ReferralStatusFirstPaymentCompleted ||
		referral.ReferrerDiscountApplied || !referral.ExpiresAt.After(at) {
		return false, nil
	}
	referral.Status = entity.ReferralStatusRewarded
	referral.ReferrerRewardBookingID = &bookingID
	referral.RewardDate = &at
	referral.ReferrerDiscountApplied = true
	return true, nil
}

func (f *fakeReferralRepo) DeleteExpiredPending(ctx context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var deleted int64
	for id, referral := range f.referrals {
		if referral.ExpiresAt.Before(now) && referral.Status == entity.ReferralStatusPending {
			delete(f.referrals, id)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeReferralRepo) get(id uuid.UUID) *entity.Referral {
	f.mu.Lock()
	defer f.mu.Unlock()

	referral, ok := f.referrals[id]
	if !ok {
		return nil
	}
	copied := *referral
	return &copied
}

// ---- fixtures ----

var testTime = time.Date(2025, time.January, 15, 10, 0, 0, 0, time.UTC)

func testConfig() *utils.Config {
	return &utils.Config{
		Booking: utils.BookingConfig{
			HandlingFee:       9,
			EstimatedDuration: 60,
			CatalogTTLMinutes: 15,
		},
		Referral: utils.ReferralConfig{
			DiscountPercentage:   50,
			ExpiryDays:           30,
			SweepIntervalMinutes: 60,
		},
	}
}

type fixture struct {
	bookings  *fakeBookingRepo
	referrals *fakeReferralRepo
	booking   *bookingService
	referral  *referralService
	generator *orderIDGenerator
}

func newFixture() *fixture {
	log := zap.NewNop()
	config := testConfig()

	bookings := newFakeBookingRepo()
	referrals := newFakeReferralRepo()
	repo := &repository.Repository{Booking: bookings, Referral: referrals}

	catalog := NewServiceCatalog(15*time.Minute, nil)

	generator := NewOrderIDGenerator(bookings, log).(*orderIDGenerator)
	generator.now = func() time.Time { return testTime }
	generator.backoff = time.Millisecond

	referralSrv := NewReferralService(repo, config, log).(*referralService)
	referralSrv.now = func() time.Time { return testTime }

	bookingSrv := NewBookingService(repo, generator, referralSrv, catalog, config, log).(*bookingService)
	bookingSrv.now = func() time.Time { return testTime }

	return &fixture{
		bookings:  bookings,
		referrals: referrals,
		booking:   bookingSrv,
		referral:  referralSrv,
		generator: generator,
	}
}

func validCreateRequest(customerID uuid.UUID) *request.CreateBookingRequest {
	return &request.CreateBookingRequest{
		CustomerID:    customerID.String(),
		CustomerName:  "Asha Verma",
		Phone:         "+919876543210",
		Service:       "Laundry",
		ServiceType:   "wash-fold",
		ScheduledDate: "2025-01-16",
		ScheduledTime: "10:00",
		DeliveryDate:  "2025-01-18",
		DeliveryTime:  "18:00",
		ProviderName:  "QuickWash",
		Address:       "12 MG Road, Bengaluru",
		LineItems: []request.LineItemRequest{
			{ServiceName: "Shirts", Quantity: 4, UnitPrice: 20},
			{ServiceName: "Trousers", Quantity: 2, UnitPrice: 30},
		},
		TotalPrice: 140,
	}
}
