package domain

import "time"

const PaymentProviderMock = "mock"

type PaymentStatus string

const (
	PaymentCreated   PaymentStatus = "created"
	PaymentSucceeded PaymentStatus = "succeeded"
)

type PaymentIntent struct {
	ID          string        `json:"id"`
	OrderID     string        `json:"orderId"`
	Provider    string        `json:"provider"`
	Status      PaymentStatus `json:"status"`
	CreatedAt   time.Time     `json:"createdAt"`
	ConfirmedAt *time.Time    `json:"confirmedAt,omitempty"`
}

type PaymentConfirmation struct {
	Intent PaymentIntent `json:"intent"`
	Order  Order         `json:"order"`
}
