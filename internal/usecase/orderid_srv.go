package usecase

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"laundry-booking/internal/data/repository"

	"go.uber.org/zap"
)

const (
	orderIDSequenceMax = 99999
	orderIDScanRetries = 3

	// Prefix for degraded-mode ids minted when the store scan keeps
	// failing. "B" sorts after the sequential range start but the
	// format (B + millis + random) never collides with it.
	fallbackOrderIDPrefix = "B"
)

// OrderIDGenerator mints human-readable order ids in the format
// <Letter><YYYYMM><5-digit sequence>, e.g. A20250100001. Generation is
// optimistic: the scan-then-increment path is racy under concurrent
// checkouts, and the unique index on order_id is the authority. Callers
// retry on ErrPersistenceConflict at insert time.
type OrderIDGenerator interface {
	Generate(ctx context.Context) (string, error)
}

type orderIDGenerator struct {
	repo    repository.BookingRepository
	log     *zap.Logger
	now     func() time.Time
	backoff time.Duration
}

func NewOrderIDGenerator(repo repository.BookingRepository, log *zap.Logger) OrderIDGenerator {
	return &orderIDGenerator{
		repo:    repo,
		log:     log.With(zap.String("service", "order_id")),
		now:     time.Now,
		backoff: 100 * time.Millisecond,
	}
}

func (g *orderIDGenerator) Generate(ctx context.Context) (string, error) {
	yearMonth := g.now().Format("200601")

	var lastErr error
	for attempt := 1; attempt <= orderIDScanRetries; attempt++ {
		orderID, err := g.generateSequential(ctx, yearMonth)
		if err == nil {
			return orderID, nil
		}
		lastErr = err

		g.log.Warn("Order ID scan failed",
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", orderIDScanRetries),
		)

		if attempt < orderIDScanRetries {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(g.backoff * time.Duration(attempt)):
			}
		}
	}

	// Degraded mode: checkout availability beats sequential ids.
	fallbackID := g.fallbackOrderID()
	g.log.Warn("Using fallback order ID",
		zap.String("order_id", fallbackID),
		zap.Error(lastErr),
	)

	return fallbackID, nil
}

func (g *orderIDGenerator) generateSequential(ctx context.Context, yearMonth string) (string, error) {
	latest, err := g.repo.LatestOrderIDForMonth(ctx, yearMonth)
	if err != nil {
		return "", err
	}

	letter := byte('A')
	sequence := 1

	if latest != "" {
		lastLetter := latest[0]
		lastSequence, err := strconv.Atoi(latest[len(latest)-5:])
		if err != nil {
			g.log.Warn("Failed to parse last order ID, starting fresh",
				zap.String("order_id", latest),
				zap.Error(err),
			)
		} else if lastSequence >= orderIDSequenceMax {
			// Roll over to the next letter
			letter = lastLetter + 1
			sequence = 1
		} else {
			letter = lastLetter
			sequence = lastSequence + 1
		}
	}

	candidate := fmt.Sprintf("%c%s%05d", letter, yearMonth, sequence)

	// Re-check the candidate to narrow the read-then-write race. A
	// concurrent writer can still win between here and the insert; the
	// unique index catches that.
	exists, err := g.repo.OrderIDExists(ctx, candidate)
	if err != nil {
		return "", err
	}
	if exists {
		if sequence >= orderIDSequenceMax {
			letter++
			sequence = 1
		} else {
			sequence++
		}
		candidate = fmt.Sprintf("%c%s%05d", letter, yearMonth, sequence)
		g.log.Warn("Generated order ID already exists, incrementing",
			zap.String("order_id", candidate),
		)
	}

	return candidate, nil
}

// fallbackOrderID builds a locally unique, non-sequential id from the
// current time and random characters.
func (g *orderIDGenerator) fallbackOrderID() string {
	const chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	random := make([]byte, 6)
	for i := range random {
		random[i] = chars[rand.Intn(len(chars))]
	}

	return fmt.Sprintf("%s%d%s", fallbackOrderIDPrefix, g.now().UnixMilli(), string(random))
}
