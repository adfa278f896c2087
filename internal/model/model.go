// Package model defines the core domain types for the raffle sales engine.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Raffle is a numbered draw whose tickets are sold at a single unit price.
type Raffle struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	TotalTickets int             `json:"total_tickets"`
	DrawDate     *time.Time      `json:"draw_date,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Customer is a buyer, deduplicated by phone and then by national ID.
type Customer struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone,omitempty"`
	NationalID string    `json:"national_id,omitempty"`
	Email      string    `json:"email,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
