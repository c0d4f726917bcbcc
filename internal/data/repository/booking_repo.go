package repository

import (
	"context"
	"fmt"
	"time"

	"laundry-booking/internal/data/entity"
	"laundry-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *entity.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByOrderID(ctx context.Context, orderID string) (*entity.Booking, error)
	FindByCustomerID(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]*entity.Booking, error)
	CountByCustomerID(ctx context.Context, customerID uuid.UUID) (int64, error)

	// Order id generation queries
	LatestOrderIDForMonth(ctx context.Context, yearMonth string) (string, error)
	OrderIDExists(ctx context.Context, orderID string) (bool, error)

	// Lifecycle updates
	UpdateStatus(ctx context.Context, bookingID uuid.UUID, status entity.BookingStatus, completedAt *time.Time) error
	UpdatePricing(ctx context.Context, bookingID uuid.UUID, discountAmount, finalAmount float64) error
	UpdatePaymentStatus(ctx context.Context, bookingID uuid.UUID, status entity.PaymentStatus) error
	AssignRider(ctx context.Context, bookingID, riderID uuid.UUID) error
}

type bookingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBookingRepository(db database.PgxIface, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

const bookingColumns = `id, order_id, customer_id, rider_id, customer_name, phone,
	service, service_type, scheduled_date, scheduled_time, delivery_date, delivery_time,
	provider_name, address, address_details, coordinates, line_items, items_summary,
	charges_breakdown, total_price, discount_amount, final_amount, status, payment_status,
	special_instructions, estimated_duration, completed_at, created_at, updated_at`

func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
		        $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29)
	`

	_, err := r.db.Exec(ctx, query,
		booking.ID,
		booking.OrderID,
		booking.CustomerID,
		booking.RiderID,
		booking.CustomerName,
		booking.Phone,
		booking.Service,
		booking.ServiceType,
		booking.ScheduledDate,
		booking.ScheduledTime,
		booking.DeliveryDate,
		booking.DeliveryTime,
		booking.ProviderName,
		booking.Address,
		booking.AddressDetails,
		booking.Coordinates,
		booking.LineItems,
		booking.ItemsSummary,
		booking.ChargesBreakdown,
		booking.TotalPrice,
		booking.DiscountAmount,
		booking.FinalAmount,
		booking.Status,
		booking.PaymentStatus,
		booking.SpecialInstructions,
		booking.EstimatedDuration,
		booking.CompletedAt,
		booking.CreatedAt,
		booking.UpdatedAt,
	)

	if err != nil {
		if database.IsUniqueViolation(err) {
			r.log.Warn("Order ID collision on insert",
				zap.String("order_id", booking.OrderID),
			)
			return fmt.Errorf("create booking %s: %w", booking.OrderID, entity.ErrPersistenceConflict)
		}
		r.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("order_id", booking.OrderID),
			zap.String("customer_id", booking.CustomerID.String()),
		)
		return fmt.Errorf("create booking %s: %w", booking.OrderID, err)
	}

	return nil
}

func (r *bookingRepository) scanBooking(row pgx.Row) (*entity.Booking, error) {
	var booking entity.Booking
	err := row.Scan(
		&booking.ID,
		&booking.OrderID,
		&booking.CustomerID,
		&booking.RiderID,
		&booking.CustomerName,
		&booking.Phone,
		&booking.Service,
		&booking.ServiceType,
		&booking.ScheduledDate,
		&booking.ScheduledTime,
		&booking.DeliveryDate,
		&booking.DeliveryTime,
		&booking.ProviderName,
		&booking.Address,
		&booking.AddressDetails,
		&booking.Coordinates,
		&booking.LineItems,
		&booking.ItemsSummary,
		&booking.ChargesBreakdown,
		&booking.TotalPrice,
		&booking.DiscountAmount,
		&booking.FinalAmount,
		&booking.Status,
		&booking.PaymentStatus,
		&booking.SpecialInstructions,
		&booking.EstimatedDuration,
		&booking.CompletedAt,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := r.scanBooking(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking by ID %s: %w", id.String(), err)
	}

	return booking, nil
}

func (r *bookingRepository) FindByOrderID(ctx context.Context, orderID string) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE order_id = $1`

	booking, err := r.scanBooking(r.db.QueryRow(ctx, query, orderID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by order ID",
			zap.Error(err),
			zap.String("order_id", orderID),
		)
		return nil, fmt.Errorf("find booking by order ID %s: %w", orderID, err)
	}

	return booking, nil
}

func (r *bookingRepository) FindByCustomerID(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE customer_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, customerID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find bookings by customer ID",
			zap.Error(err),
			zap.String("customer_id", customerID.String()),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("find bookings by customer ID %s: %w", customerID.String(), err)
	}
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		booking, err := r.scanBooking(rows)
		if err != nil {
			r.log.Error("Failed to scan booking row", zap.Error(err))
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, booking)
	}

	return bookings, nil
}

func (r *bookingRepository) CountByCustomerID(ctx context.Context, customerID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM bookings WHERE customer_id = $1`

	var count int64
	err := r.db.QueryRow(ctx, query, customerID).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count bookings by customer ID",
			zap.Error(err),
			zap.String("customer_id", customerID.String()),
		)
		return 0, fmt.Errorf("count bookings by customer ID %s: %w", customerID.String(), err)
	}

	return count, nil
}

// LatestOrderIDForMonth returns the highest order id minted for the
// given YYYYMM tag, or "" if the month has none. Lexicographic order
// on the fixed-width format sorts correctly by letter then sequence.
func (r *bookingRepository) LatestOrderIDForMonth(ctx context.Context, yearMonth string) (string, error) {
	query := `
		SELECT order_id FROM bookings
		WHERE order_id ~ $1
		ORDER BY order_id DESC
		LIMIT 1
	`

	var orderID string
	err := r.db.QueryRow(ctx, query, "^[A-Z]"+yearMonth).Scan(&orderID)
	if err == pgx.ErrNoRows {
		return "", nil
	}
	if err != nil {
		r.log.Error("Failed to find latest order ID",
			zap.Error(err),
			zap.String("year_month", yearMonth),
		)
		return "", fmt.Errorf("find latest order ID for %s: %w", yearMonth, err)
	}

	return orderID, nil
}

func (r *bookingRepository) OrderIDExists(ctx context.Context, orderID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM bookings WHERE order_id = $1)`

	var exists bool
	err := r.db.QueryRow(ctx, query, orderID).Scan(&exists)
	if err != nil {
		r.log.Error("Failed to check order ID existence",
			zap.Error(err),
			zap.String("order_id", orderID),
		)
		return false, fmt.Errorf("check order ID %s: %w", orderID, err)
	}

	return exists, nil
}

// UpdateStatus sets the booking status. completed_at is only ever
// written through COALESCE so the first completion timestamp wins.
func (r *bookingRepository) UpdateStatus(ctx context.Context, bookingID uuid.UUID, status entity.BookingStatus, completedAt *time.Time) error {
	query := `
		UPDATE bookings
		SET status = $2, completed_at = COALESCE(completed_at, $3), updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query, bookingID, status, completedAt)
	if err != nil {
		r.log.Error("Failed to update booking status",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
			zap.String("status", string(status)),
		)
		return fmt.Errorf("update booking %s status to %s: %w", bookingID.String(), string(status), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("booking %s: %w", bookingID.String(), entity.ErrNotFound)
	}

	return nil
}

func (r *bookingRepository) UpdatePricing(ctx context.Context, bookingID uuid.UUID, discountAmount, finalAmount float64) error {
	query := `
		UPDATE bookings
		SET discount_amount = $2, final_amount = $3,
		    charges_breakdown = jsonb_set(charges_breakdown, '{discount}', to_jsonb($2::numeric)),
		    updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query, bookingID, discountAmount, finalAmount)
	if err != nil {
		r.log.Error("Failed to update booking pricing",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
			zap.Float64("discount_amount", discountAmount),
			zap.Float64("final_amount", finalAmount),
		)
		return fmt.Errorf("update booking %s pricing: %w", bookingID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("booking %s: %w", bookingID.String(), entity.ErrNotFound)
	}

	return nil
}

func (r *bookingRepository) UpdatePaymentStatus(ctx context.Context, bookingID uuid.UUID, status entity.PaymentStatus) error {
	query := `UPDATE bookings SET payment_status = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.Exec(ctx, query, bookingID, status)
	if err != nil {
		r.log.Error("Failed to update payment status",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
			zap.String("payment_status", string(status)),
		)
		return fmt.Errorf("update booking %s payment status: %w", bookingID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("booking %s: %w", bookingID.String(), entity.ErrNotFound)
	}

	return nil
}

func (r *bookingRepository) AssignRider(ctx context.Context, bookingID, riderID uuid.UUID) error {
	query := `UPDATE bookings SET rider_id = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.Exec(ctx, query, bookingID, riderID)
	if err != nil {
		r.log.Error("Failed to assign rider",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
			zap.String("rider_id", riderID.String()),
		)
		return fmt.Errorf("assign rider to booking %s: %w", bookingID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("booking %s: %w", bookingID.String(), entity.ErrNotFound)
	}

	return nil
}
