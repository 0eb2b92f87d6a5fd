package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BookingStatus is the closed set of states a booking can be in.
// Records arriving from the backend with any other value are coerced
// to StatusPending during normalization.
type BookingStatus string

const (
	StatusPending    BookingStatus = "pending"
	StatusConfirmed  BookingStatus = "confirmed"
	StatusInProgress BookingStatus = "in_progress"
	StatusCompleted  BookingStatus = "completed"
	StatusCancelled  BookingStatus = "cancelled"
)

// Valid reports whether s is a member of the closed status set.
func (s BookingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Role identifies which side of the marketplace is viewing a dashboard.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleHandler  Role = "professional"
)

// Valid reports whether r is a known viewer role.
func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleHandler
}

// Booking is the canonical, normalized record the dashboards work with.
// Bookings are read-only snapshots of backend state; status changes go
// through the backend and trigger a full re-fetch, never an in-place patch.
type Booking struct {
	ID              string          `json:"id"`
	ServiceName     string          `json:"service_name"`
	CustomerName    string          `json:"customer_name"`
	HandlerName     string          `json:"handler_name"`
	ServiceDateTime time.Time       `json:"service_date_time"`
	Status          BookingStatus   `json:"status"`
	Price           decimal.Decimal `json:"price"`
	Address         string          `json:"address"`
}

// ShortID returns the last 8 characters of the booking id, the display
// truncation convention used across the dashboards and exports.
func (b Booking) ShortID() string {
	if len(b.ID) <= ShortIDLength {
		return b.ID
	}
	return b.ID[len(b.ID)-ShortIDLength:]
}

// Wallet is the earnings summary the backend reports for a handler.
type Wallet struct {
	Balance       decimal.Decimal `json:"balance"`
	TotalEarnings decimal.Decimal `json:"total_earnings"`
}
