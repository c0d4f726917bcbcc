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

type ReferralRepository interface {
	Create(ctx context.Context, referral *entity.Referral) error
	FindByCode(ctx context.Context, code string) (*entity.Referral, error)
	FindActiveByReferrer(ctx context.Context, referrerID uuid.UUID, now time.Time) (*entity.Referral, error)
	FindByReferee(ctx context.Context, refereeID uuid.UUID) (*entity.Referral, error)
	ListByReferrer(ctx context.Context, referrerID uuid.UUID) ([]*entity.Referral, error)

	// State transitions. Each is a single conditional UPDATE guarded by
	// the current status (and discount flag where one exists); the bool
	// result reports whether the row actually moved. A concurrent
	// transition loses the race here instead of double-applying.
	MarkRegistered(ctx context.Context, referralID, refereeID uuid.UUID, at time.Time) (bool, error)
	MarkFirstPaymentCompleted(ctx context.Context, referralID, bookingID uuid.UUID, at time.Time) (bool, error)
	MarkRewarded(ctx context.Context, referralID, bookingID uuid.UUID, at time.Time) (bool, error)

	DeleteExpiredPending(ctx context.Context, now time.Time) (int64, error)
}

type referralRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewReferralRepository(db database.PgxIface, log *zap.Logger) ReferralRepository {
	return &referralRepository{
		db:  db,
		log: log.With(zap.String("repository", "referral")),
	}
}

const referralColumns = `id, referrer_id, referee_id, referral_code, status, discount_percentage,
	referee_discount_applied, referrer_discount_applied, referee_first_booking_id,
	referrer_reward_booking_id, registration_date, first_payment_date, reward_date,
	expires_at, created_at, updated_at`

func (r *referralRepository) Create(ctx context.Context, referral *entity.Referral) error {
	query := `
		INSERT INTO referrals (` + referralColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.db.Exec(ctx, query,
		referral.ID,
		referral.ReferrerID,
		referral.RefereeID,
		referral.Code,
		referral.Status,
		referral.DiscountPercentage,
		referral.RefereeDiscountApplied,
		referral.ReferrerDiscountApplied,
		referral.RefereeFirstBookingID,
		referral.ReferrerRewardBookingID,
		referral.RegistrationDate,
		referral.FirstPaymentDate,
		referral.RewardDate,
		referral.ExpiresAt,
		referral.CreatedAt,
		referral.UpdatedAt,
	)

	if err != nil {
		if database.IsUniqueViolation(err) {
			r.log.Warn("Referral code collision on insert",
				zap.String("code", referral.Code),
			)
			return fmt.Errorf("create referral %s: %w", referral.Code, entity.ErrPersistenceConflict)
		}
		r.log.Error("Failed to create referral",
			zap.Error(err),
			zap.String("code", referral.Code),
			zap.String("referrer_id", referral.ReferrerID.String()),
		)
		return fmt.Errorf("create referral %s: %w", referral.Code, err)
	}

	return nil
}

func (r *referralRepository) scanReferral(row pgx.Row) (*entity.Referral, error) {
	var referral entity.Referral
	err := row.Scan(
		&referral.ID,
		&referral.ReferrerID,
		&referral.RefereeID,
		&referral.Code,
		&referral.Status,
		&referral.DiscountPercentage,
		&referral.RefereeDiscountApplied,
		&referral.ReferrerDiscountApplied,
		&referral.RefereeFirstBookingID,
		&referral.ReferrerRewardBookingID,
		&referral.RegistrationDate,
		&referral.FirstPaymentDate,
		&referral.RewardDate,
		&referral.ExpiresAt,
		&referral.CreatedAt,
		&referral.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &referral, nil
}

func (r *referralRepository) FindByCode(ctx context.Context, code string) (*entity.Referral, error) {
	query := `SELECT ` + referralColumns + ` FROM referrals WHERE referral_code = $1`

	referral, err := r.scanReferral(r.db.QueryRow(ctx, query, code))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find referral by code",
			zap.Error(err),
			zap.String("code", code),
		)
		return nil, fmt.Errorf("find referral by code %s: %w", code, err)
	}

	return referral, nil
}

// FindActiveByReferrer returns the referrer's current usable code: not
// expired and not yet fully rewarded. At most one such row exists per
// referrer under get-or-create semantics.
func (r *referralRepository) FindActiveByReferrer(ctx context.Context, referrerID uuid.UUID, now time.Time) (*entity.Referral, error) {
	query := `
		SELECT ` + referralColumns + `
		FROM referrals
		WHERE referrer_id = $1 AND status <> 'rewarded' AND expires_at > $2
		ORDER BY created_at DESC
		LIMIT 1
	`

	referral, err := r.scanReferral(r.db.QueryRow(ctx, query, referrerID, now))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find active referral",
			zap.Error(err),
			zap.String("referrer_id", referrerID.String()),
		)
		return nil, fmt.Errorf("find active referral for %s: %w", referrerID.String(), err)
	}

	return referral, nil
}

func (r *referralRepository) FindByReferee(ctx context.Context, refereeID uuid.UUID) (*entity.Referral, error) {
	query := `SELECT ` + referralColumns + ` FROM referrals WHERE referee_id = $1`

	referral, err := r.scanReferral(r.db.QueryRow(ctx, query, refereeID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find referral by referee",
			zap.Error(err),
			zap.String("referee_id", refereeID.String()),
		)
		return nil, fmt.Errorf("find referral by referee %s: %w", refereeID.String(), err)
	}

	return referral, nil
}

func (r *referralRepository) ListByReferrer(ctx context.Context, referrerID uuid.UUID) ([]*entity.Referral, error) {
	query := `
		SELECT ` + referralColumns + `
		FROM referrals
		WHERE referrer_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query, referrerID)
	if err != nil {
		r.log.Error("Failed to list referrals by referrer",
			zap.Error(err),
			zap.String("referrer_id", referrerID.String()),
		)
		return nil, fmt.Errorf("list referrals by referrer %s: %w", referrerID.String(), err)
	}
	defer rows.Close()

	var referrals []*entity.Referral
	for rows.Next() {
		referral, err := r.scanReferral(rows)
		if err != nil {
			r.log.Error("Failed to scan referral row", zap.Error(err))
			return nil, fmt.Errorf("scan referral row: %w", err)
		}
		referrals = append(referrals, referral)
	}

	return referrals, nil
}

func (r *referralRepository) MarkRegistered(ctx context.Context, referralID, refereeID uuid.UUID, at time.Time) (bool, error) {
	query := `
		UPDATE referrals
		SET status = 'registered', referee_id = $2, registration_date = $3, updated_at = $3
		WHERE id = $1 AND status = 'pending' AND referee_id IS NULL AND expires_at > $3
	`

	result, err := r.db.Exec(ctx, query, referralID, refereeID, at)
	if err != nil {
		r.log.Error("Failed to mark referral registered",
			zap.Error(err),
			zap.String("referral_id", referralID.String()),
		)
		return false, fmt.Errorf("mark referral %s registered: %w", referralID.String(), err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *referralRepository) MarkFirstPaymentCompleted(ctx context.Context, referralID, bookingID uuid.UUID, at time.Time) (bool, error) {
	query := `
		UPDATE referrals
		SET status = 'first_payment_completed', referee_first_booking_id = $2,
		    first_payment_date = $3, referee_discount_applied = TRUE, updated_at = $3
		WHERE id = $1 AND status = 'registered'
		  AND referee_discount_applied = FALSE AND expires_at > $3
	`

	result, err := r.db.Exec(ctx, query, referralID, bookingID, at)
	if err != nil {
		r.log.Error("Failed to mark first payment completed",
			zap.Error(err),
			zap.String("referral_id", referralID.String()),
			zap.String("booking_id", bookingID.String()),
		)
		return false, fmt.Errorf("mark referral %s first payment completed: %w", referralID.String(), err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *referralRepository) MarkRewarded(ctx context.Context, referralID, bookingID uuid.UUID, at time.Time) (bool, error) {
	query := `
		UPDATE referrals
		SET status = 'rewarded', referrer_reward_booking_id = $2,
		    reward_date = $3, referrer_discount_applied = TRUE, updated_at = $3
		WHERE id = $1 AND status = 'first_payment_completed'
		  AND referrer_discount_applied = FALSE AND expires_at > $3
	`

	result, err := r.db.Exec(ctx, query, referralID, bookingID, at)
	if err != nil {
		r.log.Error("Failed to mark referral rewarded",
			zap.Error(err),
			zap.String("referral_id", referralID.String()),
			zap.String("booking_id", bookingID.String()),
		)
		return false, fmt.Errorf("mark referral %s rewarded: %w", referralID.String(), err)
	}

	return result.RowsAffected() > 0, nil
}

// DeleteExpiredPending removes codes that expired without ever being
// claimed. Codes that progressed past pending are kept for audit.
func (r *referralRepository) DeleteExpiredPending(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM referrals WHERE expires_at < $1 AND status = 'pending'`

	result, err := r.db.Exec(ctx, query, now)
	if err != nil {
		r.log.Error("Failed to delete expired referrals", zap.Error(err))
		return 0, fmt.Errorf("delete expired pending referrals: %w", err)
	}

	return result.RowsAffected(), nil
}
