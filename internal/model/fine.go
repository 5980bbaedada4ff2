package model

import (
	"time"

	"github.com/google/uuid"
)

// FineStatus is the payment state of a fine.
type FineStatus string

const (
	FineStatusUnpaid FineStatus = "unpaid"
	FineStatusPaid   FineStatus = "paid"
)

// FlatFineAmount is the fixed penalty for a late return, independent of how
// many days overdue the return was.
const FlatFineAmount = 50.0

// Fine is a penalty attached to exactly one transaction. At most one fine
// exists per transaction. PaidDate is written exactly once, when the fine
// transitions from unpaid to paid.
type Fine struct {
	ID            uuid.UUID  `json:"id" db:"fine_id"`
	TransactionID uuid.UUID  `json:"transaction_id" db:"transaction_id"`
	Amount        float64    `json:"amount" db:"amount"`
	Status        FineStatus `json:"status" db:"status"`
	PaidDate      *time.Time `json:"paid_date,omitempty" db:"paid_date"`
}

// Paid reports whether the fine has been settled.
func (f *Fine) Paid() bool {
	return f.PaidDate != nil
}

// NewFine creates an unpaid flat fine for the given transaction.
func NewFine(transactionID uuid.UUID) *Fine {
	return &Fine{
		ID:            uuid.New(),
		TransactionID: transactionID,
		Amount:        FlatFineAmount,
		Status:        FineStatusUnpaid,
	}
}
