package entity

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "pending"
	BookingStatusConfirmed  BookingStatus = "confirmed"
	BookingStatusInProgress BookingStatus = "in_progress"
	BookingStatusCompleted  BookingStatus = "completed"
	BookingStatusCancelled  BookingStatus = "cancelled"
)

// PaymentStatus is tracked independently of BookingStatus. Completed
// bookings are usually paid and cancelled ones refunded or failed, but
// no combination is rejected.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

type AddressType string

const (
	AddressTypeHome   AddressType = "home"
	AddressTypeOffice AddressType = "office"
	AddressTypeOther  AddressType = "other"
)

// LineItem is one priced service on a booking. LineTotal must equal
// Quantity * UnitPrice.
type LineItem struct {
	ServiceName string  `db:"service_name" json:"service_name"`
	Quantity    int     `db:"quantity" json:"quantity"`
	UnitPrice   float64 `db:"unit_price" json:"unit_price"`
	LineTotal   float64 `db:"line_total" json:"line_total"`
}

// ChargesBreakdown itemizes the components of a booking's price. The
// breakdown is informational except for Discount, which the reconciler
// adopts as the canonical discount when DiscountAmount was left zero.
type ChargesBreakdown struct {
	BasePrice   float64 `db:"base_price" json:"base_price"`
	TaxAmount   float64 `db:"tax_amount" json:"tax_amount"`
	ServiceFee  float64 `db:"service_fee" json:"service_fee"`
	DeliveryFee float64 `db:"delivery_fee" json:"delivery_fee"`
	HandlingFee float64 `db:"handling_fee" json:"handling_fee"`
	Discount    float64 `db:"discount" json:"discount"`
}

type AddressDetails struct {
	FlatNo   string      `db:"flat_no" json:"flat_no"`
	Street   string      `db:"street" json:"street"`
	Landmark string      `db:"landmark" json:"landmark"`
	Village  string      `db:"village" json:"village"`
	City     string      `db:"city" json:"city"`
	Pincode  string      `db:"pincode" json:"pincode"`
	Type     AddressType `db:"type" json:"type"`
}

type Coordinates struct {
	Lat *float64 `db:"lat" json:"lat"`
	Lng *float64 `db:"lng" json:"lng"`
}

type Booking struct {
	Base
	OrderID             string           `db:"order_id"`
	CustomerID          uuid.UUID        `db:"customer_id"`
	RiderID             *uuid.UUID       `db:"rider_id"`
	CustomerName        string           `db:"customer_name"`
	Phone               string           `db:"phone"`
	Service             string           `db:"service"`
	ServiceType         string           `db:"service_type"`
	ScheduledDate       string           `db:"scheduled_date"`
	ScheduledTime       string           `db:"scheduled_time"`
	DeliveryDate        string           `db:"delivery_date"`
	DeliveryTime        string           `db:"delivery_time"`
	ProviderName        string           `db:"provider_name"`
	Address             string           `db:"address"`
	AddressDetails      AddressDetails   `db:"address_details"`
	Coordinates         Coordinates      `db:"coordinates"`
	LineItems           []LineItem       `db:"line_items"`
	ItemsSummary        string           `db:"items_summary"`
	ChargesBreakdown    ChargesBreakdown `db:"charges_breakdown"`
	TotalPrice          float64          `db:"total_price"`
	DiscountAmount      float64          `db:"discount_amount"`
	FinalAmount         float64          `db:"final_amount"`
	Status              BookingStatus    `db:"status"`
	PaymentStatus       PaymentStatus    `db:"payment_status"`
	SpecialInstructions string           `db:"special_instructions"`
	EstimatedDuration   int              `db:"estimated_duration"`
	CompletedAt         *time.Time       `db:"completed_at"`
}
