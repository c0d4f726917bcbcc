package request

type LineItemRequest struct {
	ServiceName string  `json:"service_name" validate:"required"`
	Quantity    int     `json:"quantity" validate:"required,min=1"`
	UnitPrice   float64 `json:"unit_price" validate:"gte=0"`
}

type ChargesBreakdownRequest struct {
	BasePrice   float64 `json:"base_price" validate:"gte=0"`
	TaxAmount   float64 `json:"tax_amount" validate:"gte=0"`
	ServiceFee  float64 `json:"service_fee" validate:"gte=0"`
	DeliveryFee float64 `json:"delivery_fee" validate:"gte=0"`
	HandlingFee float64 `json:"handling_fee" validate:"gte=0"`
	Discount    float64 `json:"discount" validate:"gte=0"`
}

type AddressDetailsRequest struct {
	FlatNo   string `json:"flat_no"`
	Street   string `json:"street"`
	Landmark string `json:"landmark"`
	Village  string `json:"village"`
	City     string `json:"city"`
	Pincode  string `json:"pincode"`
	Type     string `json:"type" validate:"omitempty,oneof=home office other"`
}

// CreateBookingRequest is the checkout payload. Total and discount may
// arrive inconsistent with the breakdown; reconciliation settles them
// before persistence.
type CreateBookingRequest struct {
	CustomerID          string                   `json:"customer_id" validate:"required,uuid4"`
	CustomerName        string                   `json:"customer_name" validate:"required"`
	Phone               string                   `json:"phone" validate:"required"`
	Service             string                   `json:"service" validate:"required"`
	ServiceType         string                   `json:"service_type" validate:"required"`
	ScheduledDate       string                   `json:"scheduled_date" validate:"required"`
	ScheduledTime       string                   `json:"scheduled_time" validate:"required"`
	DeliveryDate        string                   `json:"delivery_date" validate:"required"`
	DeliveryTime        string                   `json:"delivery_time" validate:"required"`
	ProviderName        string                   `json:"provider_name" validate:"required"`
	Address             string                   `json:"address" validate:"required"`
	AddressDetails      *AddressDetailsRequest   `json:"address_details,omitempty"`
	Lat                 *float64                 `json:"lat,omitempty"`
	Lng                 *float64                 `json:"lng,omitempty"`
	LineItems           []LineItemRequest        `json:"line_items" validate:"required,min=1,dive"`
	ChargesBreakdown    *ChargesBreakdownRequest `json:"charges_breakdown,omitempty"`
	TotalPrice          float64                  `json:"total_price" validate:"gte=0"`
	DiscountAmount      float64                  `json:"discount_amount" validate:"gte=0"`
	FinalAmount         *float64                 `json:"final_amount,omitempty"`
	SpecialInstructions string                   `json:"special_instructions"`
	ReferralCode        string                   `json:"referral_code,omitempty"`
}

type AdvanceStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed in_progress completed cancelled"`
}

type UpdatePaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" validate:"required,oneof=pending paid failed refunded"`
}

type AssignRiderRequest struct {
	RiderID string `json:"rider_id" validate:"required,uuid4"`
}

type RedeemReferralRequest struct {
	ReferralCode string `json:"referral_code" validate:"required"`
	UserID       string `json:"user_id" validate:"required,uuid4"`
}
