package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"laundry-booking/internal/data/entity"
	"laundry-booking/internal/dto/request"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) mustCreateBooking(t *testing.T, req *request.CreateBookingRequest) uuid.UUID {
	t.Helper()

	resp, err := f.booking.CreateBooking(context.Background(), req)
	require.NoError(t, err)

	id, err := uuid.Parse(resp.ID)
	require.NoError(t, err)
	return id
}

func TestCreateBooking_HappyPath(t *testing.T) {
	f := newFixture()
	customerID := uuid.New()

	resp, err := f.booking.CreateBooking(context.Background(), validCreateRequest(customerID))

	require.NoError(t, err)
	assert.Equal(t, "A20250100001", resp.OrderID)
	assert.Equal(t, customerID.String(), resp.CustomerID)
	assert.Equal(t, entity.BookingStatusPending, resp.Status)
	assert.Equal(t, entity.PaymentStatusPending, resp.PaymentStatus)
	assert.Equal(t, "Shirts x 4, Trousers x 2", resp.ItemsSummary)
	assert.Equal(t, 140.0, resp.TotalPrice)
	assert.Equal(t, 140.0, resp.FinalAmount)
	assert.Equal(t, 9.0, resp.ChargesBreakdown.HandlingFee)
	assert.Equal(t, 60, resp.EstimatedDuration)
	require.Len(t, resp.LineItems, 2)
	assert.Equal(t, 80.0, resp.LineItems[0].LineTotal)
	assert.Equal(t, 60.0, resp.LineItems[1].LineTotal)
	assert.Nil(t, resp.CompletedAt)
}

func TestCreateBooking_ValidationFailure(t *testing.T) {
	f := newFixture()

	_, err := f.booking.CreateBooking(context.Background(), &request.CreateBookingRequest{})

	var vErr *entity.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.NotEmpty(t, vErr.Fields)
	assert.Empty(t, f.bookings.bookings)
}

func TestCreateBooking_RejectsEmptyLineItems(t *testing.T) {
	f := newFixture()
	req := validCreateRequest(uuid.New())
	req.LineItems = nil

	_, err := f.booking.CreateBooking(context.Background(), req)

	var vErr *entity.ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestCreateBooking_RetriesOnOrderIDConflict(t *testing.T) {
	f := newFixture()
	f.bookings.createErrs = []error{entity.ErrPersistenceConflict}

	resp, err := f.booking.CreateBooking(context.Background(), validCreateRequest(uuid.New()))

	require.NoError(t, err)
	assert.Equal(t, "A20250100001", resp.OrderID)
	assert.Len(t, f.bookings.bookings, 1)
}

func TestCreateBooking_GivesUpAfterRepeatedConflicts(t *testing.T) {
	f := newFixture()
	f.bookings.createErrs = []error{
		entity.ErrPersistenceConflict,
		entity.ErrPersistenceConflict,
		entity.ErrPersistenceConflict,
	}

	_, err := f.booking.CreateBooking(context.Background(), validCreateRequest(uuid.New()))

	require.ErrorIs(t, err, entity.ErrPersistenceConflict)
	assert.Empty(t, f.bookings.bookings)
}

func TestCreateBooking_WithReferralCode(t *testing.T) {
	f := newFixture()
	customerID := uuid.New()
	referral := seedReferral(f.referrals, &entity.Referral{
		ReferrerID: uuid.New(),
		RefereeID:  &customerID,
		Status:     entity.ReferralStatusRegistered,
	})

	req := validCreateRequest(customerID)
	req.ReferralCode = referral.Code

	resp, err := f.booking.CreateBooking(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, 70.0, resp.DiscountAmount)
	assert.Equal(t, 70.0, resp.FinalAmount)

	stored := f.referrals.get(referral.ID)
	assert.Equal(t, entity.ReferralStatusFirstPaymentCompleted, stored.Status)
	assert.True(t, stored.RefereeDiscountApplied)
	require.NotNil(t, stored.RefereeFirstBookingID)
	assert.Equal(t, resp.ID, stored.RefereeFirstBookingID.String())
}

func TestCreateBooking_ReferralCodeIgnoresStaleFinalAmount(t *testing.T) {
	f := newFixture()
	customerID := uuid.New()
	referral := seedReferral(f.referrals, &entity.Referral{
		ReferrerID: uuid.New(),
		RefereeID:  &customerID,
		Status:     entity.ReferralStatusRegistered,
	})

	req := validCreateRequest(customerID)
	req.ReferralCode = referral.Code
	stale := 140.0
	req.FinalAmount = &stale

	resp, err := f.booking.CreateBooking(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, 70.0, resp.FinalAmount)
}

func TestCreateBooking_FailedInsertLeavesReferralUnspent(t *testing.T) {
	f := newFixture()
	customerID := uuid.New()
	referral := seedReferral(f.referrals, &entity.Referral{
		ReferrerID: uuid.New(),
		RefereeID:  &customerID,
		Status:     entity.ReferralStatusRegistered,
	})
	f.bookings.createErrs = []error{
		entity.ErrPersistenceConflict,
		entity.ErrPersistenceConflict,
		entity.ErrPersistenceConflict,
	}

	req := validCreateRequest(customerID)
	req.ReferralCode = referral.Code

	_, err := f.booking.CreateBooking(context.Background(), req)

	require.ErrorIs(t, err, entity.ErrPersistenceConflict)
	assert.Empty(t, f.bookings.bookings)

	// The one-shot discount survives the failed checkout.
	stored := f.referrals.get(referral.ID)
	assert.Equal(t, entity.ReferralStatusRegistered, stored.Status)
	assert.False(t, stored.RefereeDiscountApplied)
	assert.Nil(t, stored.RefereeFirstBookingID)
}

func TestCreateBooking_IneligibleReferralAbortsCheckout(t *testing.T) {
	f := newFixture()
	referral := seedReferral(f.referrals, &entity.Referral{
		ReferrerID: uuid.New(),
		Status:     entity.ReferralStatusPending,
	})

	req := validCreateRequest(uuid.New())
	req.ReferralCode = referral.Code

	_, err := f.booking.CreateBooking(context.Background(), req)

	require.ErrorIs(t, err, entity.ErrNotEligible)
	assert.Empty(t, f.bookings.bookings)
}

func TestAdvanceStatus_ForwardChain(t *testing.T) {
	f := newFixture()
	id := f.mustCreateBooking(t, validCreateRequest(uuid.New()))

	for _, status := range []entity.BookingStatus{
		entity.BookingStatusConfirmed,
		entity.BookingStatusInProgress,
		entity.BookingStatusCompleted,
	} {
		resp, err := f.booking.AdvanceStatus(context.Background(), id.String(), status)
		require.NoError(t, err)
		assert.Equal(t, status, resp.Status)
	}

	stored, _ := f.bookings.FindByID(context.Background(), id)
	require.NotNil(t, stored.CompletedAt)
	assert.Equal(t, testTime, *stored.CompletedAt)
}

func TestAdvanceStatus_RejectsSkippedStep(t *testing.T) {
	f := newFixture()
	id := f.mustCreateBooking(t, validCreateRequest(uuid.New()))

	_, err := f.booking.AdvanceStatus(context.Background(), id.String(), entity.BookingStatusInProgress)

	require.ErrorIs(t, err, entity.ErrInvalidTransition)
}

func TestAdvanceStatus_RejectsBackwardStep(t *testing.T) {
	f := newFixture()
	id := f.mustCreateBooking(t, validCreateRequest(uuid.New()))

	_, err := f.booking.AdvanceStatus(context.Background(), id.String(), entity.BookingStatusConfirmed)
	require.NoError(t, err)

	_, err = f.booking.AdvanceStatus(context.Background(), id.String(), entity.BookingStatusPending)
	require.ErrorIs(t, err, entity.ErrInvalidTransition)
}

func TestAdvanceStatus_SameStatusIsNoOp(t *testing.T) {
	f := newFixture()
	id := f.mustCreateBooking(t, validCreateRequest(uuid.New()))

	resp, err := f.booking.AdvanceStatus(context.Background(), id.String(), entity.BookingStatusPending)

	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusPending, resp.Status)
}

func TestAdvanceStatus_DoubleCompleteKeepsFirstTimestamp(t *testing.T) {
	f := newFixture()
	id := f.mustCreateBooking(t, validCreateRequest(uuid.New()))

	ctx := context.Background()
	_, err := f.booking.AdvanceStatus(ctx, id.String(), entity.BookingStatusConfirmed)
	require.NoError(t, err)
	_, err = f.booking.AdvanceStatus(ctx, id.String(), entity.BookingStatusInProgress)
	require.NoError(t, err)
	_, err = f.booking.AdvanceStatus(ctx, id.String(), entity.BookingStatusCompleted)
	require.NoError(t, err)

	// A retried completion request an hour later must not move the stamp.
	f.booking.now = func() time.Time { return testTime.Add(time.Hour) }
	resp, err := f.booking.AdvanceStatus(ctx, id.String(), entity.BookingStatusCompleted)

	require.NoError(t, err)
	require.NotNil(t, resp.CompletedAt)
	assert.Equal(t, testTime, *resp.CompletedAt)
}

func TestAdvanceStatus_TerminalStatesAreFinal(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	cancelled := f.mustCreateBooking(t, validCreateRequest(uuid.New()))
	require.NoError(t, f.booking.CancelBooking(ctx, cancelled.String()))

	_, err := f.booking.AdvanceStatus(ctx, cancelled.String(), entity.BookingStatusConfirmed)
	require.ErrorIs(t, err, entity.ErrInvalidTransition)
}

func TestCancelBooking_AllowedBeforeCompletion(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	for _, status := range []entity.BookingStatus{
		entity.BookingStatusPending,
		entity.BookingStatusConfirmed,
		entity.BookingStatusInProgress,
	} {
		id := f.mustCreateBooking(t, validCreateRequest(uuid.New()))
		for next := entity.BookingStatusPending; next != status; next = nextStatus[next] {
			_, err := f.booking.AdvanceStatus(ctx, id.String(), nextStatus[next])
			require.NoError(t, err)
		}

		require.NoError(t, f.booking.CancelBooking(ctx, id.String()), "cancel from %s", status)
	}
}

func TestCancelBooking_RejectedAfterCompletion(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := f.mustCreateBooking(t, validCreateRequest(uuid.New()))

	for _, status := range []entity.BookingStatus{
		entity.BookingStatusConfirmed,
		entity.BookingStatusInProgress,
		entity.BookingStatusCompleted,
	} {
		_, err := f.booking.AdvanceStatus(ctx, id.String(), status)
		require.NoError(t, err)
	}

	err := f.booking.CancelBooking(ctx, id.String())
	require.ErrorIs(t, err, entity.ErrInvalidTransition)
}

func TestRedeemReferralDiscount_RepricesBooking(t *testing.T) {
	f := newFixture()
	customerID := uuid.New()
	id := f.mustCreateBooking(t, validCreateRequest(customerID))

	referral := seedReferral(f.referrals, &entity.Referral{
		ReferrerID: uuid.New(),
		RefereeID:  &customerID,
		Status:     entity.ReferralStatusRegistered,
	})

	resp, err := f.booking.RedeemReferralDiscount(context.Background(), id.String(), referral.Code, customerID.String())

	require.NoError(t, err)
	assert.Equal(t, 70.0, resp.DiscountAmount)
	assert.Equal(t, 70.0, resp.FinalAmount)

	stored, _ := f.bookings.FindByID(context.Background(), id)
	assert.Equal(t, 70.0, stored.DiscountAmount)
	assert.Equal(t, 70.0, stored.FinalAmount)
}

func TestRedeemReferralDiscount_RejectedOnSettledBooking(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	customerID := uuid.New()
	id := f.mustCreateBooking(t, validCreateRequest(customerID))
	require.NoError(t, f.booking.CancelBooking(ctx, id.String()))

	referral := seedReferral(f.referrals, &entity.Referral{
		ReferrerID: uuid.New(),
		RefereeID:  &customerID,
		Status:     entity.ReferralStatusRegistered,
	})

	_, err := f.booking.RedeemReferralDiscount(ctx, id.String(), referral.Code, customerID.String())

	require.ErrorIs(t, err, entity.ErrInvalidTransition)
	assert.Equal(t, entity.ReferralStatusRegistered, f.referrals.get(referral.ID).Status)
}

func TestGetBookingByOrderID(t *testing.T) {
	f := newFixture()
	f.mustCreateBooking(t, validCreateRequest(uuid.New()))

	resp, err := f.booking.GetBookingByOrderID(context.Background(), "A20250100001")
	require.NoError(t, err)
	assert.Equal(t, "A20250100001", resp.OrderID)

	_, err = f.booking.GetBookingByOrderID(context.Background(), "A20250199999")
	require.ErrorIs(t, err, entity.ErrNotFound)
}

func TestGetBookingByID_NotFound(t *testing.T) {
	f := newFixture()

	_, err := f.booking.GetBookingByID(context.Background(), uuid.NewString())

	require.ErrorIs(t, err, entity.ErrNotFound)
}

func TestGetBookingByID_InvalidID(t *testing.T) {
	f := newFixture()

	_, err := f.booking.GetBookingByID(context.Background(), "not-a-uuid")

	var vErr *entity.ValidationError
	require.True(t, errors.As(err, &vErr))
}

func TestUpdatePaymentStatus(t *testing.T) {
	f := newFixture()
	id := f.mustCreateBooking(t, validCreateRequest(uuid.New()))

	err := f.booking.UpdatePaymentStatus(context.Background(), id.String(), entity.PaymentStatusPaid)

	require.NoError(t, err)
	stored, _ := f.bookings.FindByID(context.Background(), id)
	assert.Equal(t, entity.PaymentStatusPaid, stored.PaymentStatus)
}

func TestAssignRider(t *testing.T) {
	f := newFixture()
	id := f.mustCreateBooking(t, validCreateRequest(uuid.New()))
	riderID := uuid.New()

	err := f.booking.AssignRider(context.Background(), id.String(), riderID.String())

	require.NoError(t, err)
	stored, _ := f.bookings.FindByID(context.Background(), id)
	require.NotNil(t, stored.RiderID)
	assert.Equal(t, riderID, *stored.RiderID)
}
