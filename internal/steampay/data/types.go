package data

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	NullStatus    = Status("")
	CreatedStatus = Status("created")
	PaidStatus    = Status("paid")
	FailedStatus  = Status("failed")
)

// Order is the persisted unit of fulfillment. ID is assigned by the wallet
// provider, ExternalID by the marketplace; both are unique. Amount is the
// post-commission value and never changes after insert.
type Order struct {
	CreatedAt  time.Time
	ID         string
	ExternalID string
	Login      string
	ServiceID  string
	Amount     decimal.Decimal
	Status     Status
}
