package usecase

import (
	"fmt"
	"strings"
	"time"

	"laundry-booking/internal/data/entity"
)

// ReconcilePricing derives the canonical pricing fields from the
// possibly redundant inputs on the booking, in order:
//
//  1. items summary from line items, falling back to the generic
//     services list when the booking has none
//  2. discount_amount adopted from charges_breakdown.discount when the
//     former is zero and the latter positive
//  3. final_amount computed as total - discount unless explicitly given
//  4. final_amount clamped to zero
//  5. completed_at stamped when status is completed and no timestamp
//     exists yet
//
// explicitFinal distinguishes "final amount of exactly 0" from "not
// computed". The function never fails for valid numeric ranges; it
// clamps and defaults instead, so inconsistent upstream pricing cannot
// block checkout. Callers must apply it as one atomic pre-persistence
// step: reads assume final_amount and discount_amount agree.
func ReconcilePricing(b *entity.Booking, explicitFinal *float64, fallbackServices []string, now time.Time) {
	if len(b.LineItems) > 0 {
		parts := make([]string, len(b.LineItems))
		for i, item := range b.LineItems {
			parts[i] = fmt.Sprintf("%s x %d", item.ServiceName, item.Quantity)
		}
		b.ItemsSummary = strings.Join(parts, ", ")
	} else if len(fallbackServices) > 0 {
		parts := make([]string, len(fallbackServices))
		for i, svc := range fallbackServices {
			parts[i] = fmt.Sprintf("%s x 1", svc)
		}
		b.ItemsSummary = strings.Join(parts, ", ")
	}

	if b.DiscountAmount == 0 && b.ChargesBreakdown.Discount > 0 {
		b.DiscountAmount = b.ChargesBreakdown.Discount
	}

	if explicitFinal != nil {
		b.FinalAmount = *explicitFinal
	} else {
		b.FinalAmount = b.TotalPrice - b.DiscountAmount
	}

	if b.FinalAmount < 0 {
		b.FinalAmount = 0
	}

	if b.Status == entity.BookingStatusCompleted && b.CompletedAt == nil {
		completedAt := now
		b.CompletedAt = &completedAt
	}
}
