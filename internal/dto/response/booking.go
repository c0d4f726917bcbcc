package response

import (
	"time"

	"laundry-booking/internal/data/entity"
)

type BookingResponse struct {
	ID                  string                  `json:"id"`
	OrderID             string                  `json:"order_id"`
	CustomerID          string                  `json:"customer_id"`
	RiderID             *string                 `json:"rider_id,omitempty"`
	CustomerName        string                  `json:"customer_name"`
	Phone               string                  `json:"phone"`
	Service             string                  `json:"service"`
	ServiceType         string                  `json:"service_type"`
	ScheduledDate       string                  `json:"scheduled_date"`
	ScheduledTime       string                  `json:"scheduled_time"`
	DeliveryDate        string                  `json:"delivery_date"`
	DeliveryTime        string                  `json:"delivery_time"`
	ProviderName        string                  `json:"provider_name"`
	Address             string                  `json:"address"`
	LineItems           []entity.LineItem       `json:"line_items"`
	ItemsSummary        string                  `json:"items_summary"`
	ChargesBreakdown    entity.ChargesBreakdown `json:"charges_breakdown"`
	TotalPrice          float64                 `json:"total_price"`
	DiscountAmount      float64                 `json:"discount_amount"`
	FinalAmount         float64                 `json:"final_amount"`
	Status              entity.BookingStatus    `json:"status"`
	PaymentStatus       entity.PaymentStatus    `json:"payment_status"`
	SpecialInstructions string                  `json:"special_instructions,omitempty"`
	EstimatedDuration   int                     `json:"estimated_duration"`
	CompletedAt         *time.Time              `json:"completed_at,omitempty"`
	CreatedAt           time.Time               `json:"created_at"`
}

func BookingToResponse(b *entity.Booking) BookingResponse {
	var riderID *string
	if b.RiderID != nil {
		s := b.RiderID.String()
		riderID = &s
	}

	return BookingResponse{
		ID:                  b.ID.String(),
		OrderID:             b.OrderID,
		CustomerID:          b.CustomerID.String(),
		RiderID:             riderID,
		CustomerName:        b.CustomerName,
		Phone:               b.Phone,
		Service:             b.Service,
		ServiceType:         b.ServiceType,
		ScheduledDate:       b.ScheduledDate,
		ScheduledTime:       b.ScheduledTime,
		DeliveryDate:        b.DeliveryDate,
		DeliveryTime:        b.DeliveryTime,
		ProviderName:        b.ProviderName,
		Address:             b.Address,
		LineItems:           b.LineItems,
		ItemsSummary:        b.ItemsSummary,
		ChargesBreakdown:    b.ChargesBreakdown,
		TotalPrice:          b.TotalPrice,
		DiscountAmount:      b.DiscountAmount,
		FinalAmount:         b.FinalAmount,
		Status:              b.Status,
		PaymentStatus:       b.PaymentStatus,
		SpecialInstructions: b.SpecialInstructions,
		EstimatedDuration:   b.EstimatedDuration,
		CompletedAt:         b.CompletedAt,
		CreatedAt:           b.CreatedAt,
	}
}
