package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"laundry-booking/internal/data/entity"
	"laundry-booking/internal/data/repository"
	"laundry-booking/internal/dto/response"
	"laundry-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const referralCreateRetries = 3

type ReferralService interface {
	// GetOrCreateActiveReferral returns the user's current usable code,
	// minting one only when none exists. Idempotent per referrer.
	GetOrCreateActiveReferral(ctx context.Context, userID string) (*response.ReferralResponse, error)

	// ValidateReferralCode checks a shared code without changing state.
	ValidateReferralCode(ctx context.Context, code string) (*response.ReferralResponse, error)

	// ApplyReferralCode claims a code for a newly registered referee
	// (pending -> registered).
	ApplyReferralCode(ctx context.Context, code, userID string) (*response.ReferralResponse, error)

	GetUserReferrals(ctx context.Context, userID string) ([]response.ReferralResponse, error)
	GetReferralAsReferee(ctx context.Context, userID string) (*response.ReferralResponse, error)

	// DiscountEligibility reports the percentage the user could redeem
	// on the code right now, without changing any state. Checkout uses
	// it to price the booking before the insert; the lock happens after.
	DiscountEligibility(ctx context.Context, code string, userID uuid.UUID) (int, error)

	// LockDiscountForBooking spends the caller's one-shot discount on
	// the given booking and returns the discount percentage. The
	// referee path moves registered -> first_payment_completed, the
	// referrer path first_payment_completed -> rewarded; both ride on
	// a conditional update, so a concurrent redemption of the same
	// code yields exactly one success.
	LockDiscountForBooking(ctx context.Context, code string, userID, bookingID uuid.UUID) (int, error)

	// CleanupExpired deletes expired codes still pending. Codes that
	// progressed further are retained for audit.
	CleanupExpired(ctx context.Context) (int64, error)
}

type referralService struct {
	repo   *repository.Repository
	config *utils.Config
	log    *zap.Logger
	now    func() time.Time
}

func NewReferralService(repo *repository.Repository, config *utils.Config, log *zap.Logger) ReferralService {
	return &referralService{
		repo:   repo,
		config: config,
		log:    log.With(zap.String("service", "referral")),
		now:    time.Now,
	}
}

// GenerateReferralCode builds a shareable token from a slice of the
// user id, a base-36 timestamp and random base-36 characters. The
// result looks deterministic but effectively never repeats; the unique
// index on referral_code is what actually enforces uniqueness, and
// callers regenerate on conflict.
func GenerateReferralCode(userID uuid.UUID, now time.Time) string {
	const chars = "0123456789abcdefghijklmnopqrstuvwxyz"

	compact := strings.ReplaceAll(userID.String(), "-", "")
	userPart := compact[len(compact)-4:]
	timestamp := strconv.FormatInt(now.UnixMilli(), 36)

	random := make([]byte, 4)
	for i := range random {
		random[i] = chars[rand.Intn(len(chars))]
	}

	return strings.ToUpper("REF" + userPart + timestamp + string(random))
}

func (s *referralService) GetOrCreateActiveReferral(ctx context.Context, userID string) (*response.ReferralResponse, error) {
	referrerID, err := uuid.Parse(userID)
	if err != nil {
		return nil, entity.NewValidationError("user_id", "must be a valid UUID")
	}

	now := s.now()

	existing, err := s.repo.Referral.FindActiveByReferrer(ctx, referrerID, now)
	if err != nil {
		return nil, fmt.Errorf("get active referral: %w", err)
	}
	if existing != nil {
		resp := response.ReferralToResponse(existing)
		return &resp, nil
	}

	var referral *entity.Referral
	for attempt := 1; attempt <= referralCreateRetries; attempt++ {
		candidate := &entity.Referral{
			Base: entity.Base{
				ID:        uuid.New(),
				CreatedAt: now,
				UpdatedAt: now,
			},
			ReferrerID:         referrerID,
			Code:               GenerateReferralCode(referrerID, s.now()),
			Status:             entity.ReferralStatusPending,
			DiscountPercentage: s.config.Referral.DiscountPercentage,
			ExpiresAt:          now.AddDate(0, 0, s.config.Referral.ExpiryDays),
		}

		err = s.repo.Referral.Create(ctx, candidate)
		if err == nil {
			referral = candidate
			break
		}
		if !errors.Is(err, entity.ErrPersistenceConflict) {
			return nil, fmt.Errorf("create referral: %w", err)
		}

		s.log.Warn("Referral code collision, regenerating",
			zap.String("code", candidate.Code),
			zap.Int("attempt", attempt),
		)
	}

	if referral == nil {
		return nil, fmt.Errorf("create referral for %s: %w", userID, entity.ErrPersistenceConflict)
	}

	s.log.Info("Referral code created",
		zap.String("referral_id", referral.ID.String()),
		zap.String("referrer_id", userID),
		zap.String("code", referral.Code),
		zap.Time("expires_at", referral.ExpiresAt),
	)

	resp := response.ReferralToResponse(referral)
	return &resp, nil
}

func (s *referralService) ValidateReferralCode(ctx context.Context, code string) (*response.ReferralResponse, error) {
	referral, err := s.findUsableByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	resp := response.ReferralToResponse(referral)
	return &resp, nil
}

func (s *referralService) ApplyReferralCode(ctx context.Context, code, userID string) (*response.ReferralResponse, error) {
	refereeID, err := uuid.Parse(userID)
	if err != nil {
		return nil, entity.NewValidationError("user_id", "must be a valid UUID")
	}

	referral, err := s.findUsableByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if referral.ReferrerID == refereeID {
		return nil, entity.ErrSelfReferral
	}
	if referral.RefereeID != nil {
		return nil, entity.ErrReferralClaimed
	}

	now := s.now()
	applied, err := s.repo.Referral.MarkRegistered(ctx, referral.ID, refereeID, now)
	if err != nil {
		return nil, fmt.Errorf("apply referral code %s: %w", referral.Code, err)
	}
	if !applied {
		// Raced with another claim or a concurrent expiry.
		return nil, entity.ErrReferralClaimed
	}

	referral.Status = entity.ReferralStatusRegistered
	referral.RefereeID = &refereeID
	referral.RegistrationDate = &now

	s.log.Info("Referral code claimed",
		zap.String("referral_id", referral.ID.String()),
		zap.String("code", referral.Code),
		zap.String("referee_id", userID),
	)

	resp := response.ReferralToResponse(referral)
	return &resp, nil
}

func (s *referralService) GetUserReferrals(ctx context.Context, userID string) ([]response.ReferralResponse, error) {
	referrerID, err := uuid.Parse(userID)
	if err != nil {
		return nil, entity.NewValidationError("user_id", "must be a valid UUID")
	}

	referrals, err := s.repo.Referral.ListByReferrer(ctx, referrerID)
	if err != nil {
		return nil, fmt.Errorf("get user referrals: %w", err)
	}

	responses := make([]response.ReferralResponse, len(referrals))
	for i, referral := range referrals {
		responses[i] = response.ReferralToResponse(referral)
	}

	return responses, nil
}

func (s *referralService) GetReferralAsReferee(ctx context.Context, userID string) (*response.ReferralResponse, error) {
	refereeID, err := uuid.Parse(userID)
	if err != nil {
		return nil, entity.NewValidationError("user_id", "must be a valid UUID")
	}

	referral, err := s.repo.Referral.FindByReferee(ctx, refereeID)
	if err != nil {
		return nil, fmt.Errorf("get referral as referee: %w", err)
	}
	if referral == nil {
		return nil, fmt.Errorf("referral for referee %s: %w", userID, entity.ErrNotFound)
	}

	resp := response.ReferralToResponse(referral)
	return &resp, nil
}

func (s *referralService) DiscountEligibility(ctx context.Context, code string, userID uuid.UUID) (int, error) {
	referral, err := s.findUsableByCode(ctx, code)
	if err != nil {
		return 0, err
	}

	if err := checkDiscountEligibility(referral, userID, s.now()); err != nil {
		return 0, err
	}

	return referral.DiscountPercentage, nil
}

// checkDiscountEligibility decides which side of the referral the user
// is on and whether their one-shot discount is still open. A referrer
// asking before the referee's first payment is not yet eligible; a
// spent flag means already used.
func checkDiscountEligibility(referral *entity.Referral, userID uuid.UUID, now time.Time) error {
	switch {
	case referral.RefereeID != nil && *referral.RefereeID == userID:
		if !referral.CanApplyRefereeDiscount(now) {
			return entity.ErrReferralAlreadyUsed
		}
		return nil
	case referral.ReferrerID == userID:
		if referral.ReferrerDiscountApplied {
			return entity.ErrReferralAlreadyUsed
		}
		if !referral.CanApplyReferrerReward(now) {
			return fmt.Errorf("reward for code %s not earned yet: %w", referral.Code, entity.ErrNotEligible)
		}
		return nil
	default:
		return fmt.Errorf("user %s on code %s: %w", userID.String(), referral.Code, entity.ErrNotEligible)
	}
}

func (s *referralService) LockDiscountForBooking(ctx context.Context, code string, userID, bookingID uuid.UUID) (int, error) {
	referral, err := s.findUsableByCode(ctx, code)
	if err != nil {
		return 0, err
	}

	now := s.now()
	if err := checkDiscountEligibility(referral, userID, now); err != nil {
		return 0, err
	}

	switch {
	case referral.RefereeID != nil && *referral.RefereeID == userID:
		applied, err := s.repo.Referral.MarkFirstPaymentCompleted(ctx, referral.ID, bookingID, now)
		if err != nil {
			return 0, fmt.Errorf("lock referee discount %s: %w", referral.Code, err)
		}
		if !applied {
			return 0, entity.ErrReferralAlreadyUsed
		}

		s.log.Info("Referee discount locked",
			zap.String("referral_id", referral.ID.String()),
			zap.String("code", referral.Code),
			zap.String("booking_id", bookingID.String()),
		)
		return referral.DiscountPercentage, nil

	case referral.ReferrerID == userID:
		applied, err := s.repo.Referral.MarkRewarded(ctx, referral.ID, bookingID, now)
		if err != nil {
			return 0, fmt.Errorf("lock referrer reward %s: %w", referral.Code, err)
		}
		if !applied {
			return 0, entity.ErrReferralAlreadyUsed
		}

		s.log.Info("Referrer reward locked",
			zap.String("referral_id", referral.ID.String()),
			zap.String("code", referral.Code),
			zap.String("booking_id", bookingID.String()),
		)
		return referral.DiscountPercentage, nil

	default:
		return 0, fmt.Errorf("user %s on code %s: %w", userID.String(), referral.Code, entity.ErrNotEligible)
	}
}

func (s *referralService) CleanupExpired(ctx context.Context) (int64, error) {
	deleted, err := s.repo.Referral.DeleteExpiredPending(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("cleanup expired referrals: %w", err)
	}

	if deleted > 0 {
		s.log.Info("Expired pending referrals deleted", zap.Int64("count", deleted))
	}

	return deleted, nil
}

// findUsableByCode normalizes the code, loads the referral and rejects
// terminal conditions. An expired code is inert regardless of its
// stored status.
func (s *referralService) findUsableByCode(ctx context.Context, code string) (*entity.Referral, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return nil, entity.NewValidationError("referral_code", "This field is required")
	}

	referral, err := s.repo.Referral.FindByCode(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("find referral by code: %w", err)
	}
	if referral == nil {
		return nil, fmt.Errorf("referral code %s: %w", normalized, entity.ErrNotFound)
	}

	if referral.IsExpired(s.now()) {
		return nil, entity.ErrReferralExpired
	}
	if referral.Status == entity.ReferralStatusRewarded {
		return nil, entity.ErrReferralAlreadyUsed
	}

	return referral, nil
}
