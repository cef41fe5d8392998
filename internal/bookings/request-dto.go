package bookings

// SeatSelection addresses one seat in a hold request
type SeatSelection struct {
	Section    string `json:"section" binding:"required"`
	Row        string `json:"row" binding:"required"`
	SeatNumber string `json:"seat_number" binding:"required"`
}

// HoldSeatsRequest starts a checkout by holding explicit seats, or the
// best available seats of a tier when Quantity is set instead.
type HoldSeatsRequest struct {
	EventID  string          `json:"event_id" binding:"required,uuid"`
	Seats    []SeatSelection `json:"seats" binding:"omitempty,max=10,dive"`
	Tier     string          `json:"tier" binding:"required_with=Quantity"`
	Quantity int             `json:"quantity" binding:"omitempty,min=1,max=10"`
}

// ConfirmBookingRequest pays for a pending booking created at hold time
type ConfirmBookingRequest struct {
	BookingID     string `json:"booking_id" binding:"required,uuid"`
	PaymentMethod string `json:"payment_method" binding:"required,oneof=card upi netbanking wallet"`
}

// ReleaseHoldRequest abandons a live hold
type ReleaseHoldRequest struct {
	HoldID  string `json:"hold_id" binding:"required,uuid"`
	EventID string `json:"event_id" binding:"required,uuid"`
}

// PaymentCallbackRequest is the gateway webhook payload
type PaymentCallbackRequest struct {
	BookingID     string `json:"booking_id" binding:"required,uuid"`
	TransactionID string `json:"transaction_id" binding:"required"`
	Status        string `json:"status" binding:"required,oneof=success failed"`
	FailureReason string `json:"failure_reason" binding:"omitempty,max=500"`
}

// BookingListQuery paginates a user's bookings
type BookingListQuery struct {
	Page  int `form:"page" binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}
