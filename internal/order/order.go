package order

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Kind is the advertised side of an order. An empty Kind means the
// source tag was missing or malformed; such orders are kept in the book
// but are not actionable.
type Kind string

const (
	KindBuy  Kind = "buy"
	KindSell Kind = "sell"
)

func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy":
		return KindBuy, true
	case "sell":
		return KindSell, true
	default:
		return "", false
	}
}

// Status is the lifecycle state of an order on the board. Only pending
// orders stay in the live book.
type Status string

const (
	StatusPending  Status = "pending"
	StatusActive   Status = "active"
	StatusDispute  Status = "dispute"
	StatusSettled  Status = "settled"
	StatusCanceled Status = "canceled"
	StatusSuccess  Status = "success"
	StatusFiatSent Status = "fiat-sent"
)

var statusVocab = map[string]Status{
	"pending":   StatusPending,
	"active":    StatusActive,
	"dispute":   StatusDispute,
	"settled":   StatusSettled,
	"canceled":  StatusCanceled,
	"success":   StatusSuccess,
	"fiat-sent": StatusFiatSent,
}

// ParseStatus maps unknown values to StatusDispute so an ambiguous
// state can never present itself as actionable pending.
func ParseStatus(s string) Status {
	if st, ok := statusVocab[strings.ToLower(strings.TrimSpace(s))]; ok {
		return st
	}
	return StatusDispute
}

// Fallback fiat bounds for range orders that arrive without explicit
// bounds (a partial decode; should not happen with a well-formed board).
const (
	DefaultMinAmount int64 = 10
	DefaultMaxAmount int64 = 500
)

// Order is one advertised trade, projected from a board event's tags.
type Order struct {
	ID            uuid.UUID
	Kind          Kind
	Status        Status
	FiatCode      string
	Amount        int64 // 0 means market price, computed at settlement
	FiatAmount    int64
	MinAmount     *int64
	MaxAmount     *int64
	PaymentMethod string
	Premium       int64
	CreatedAt     int64
}

// IsRange reports whether the fiat sizing is a [min, max] interval
// instead of a fixed amount.
func (o Order) IsRange() bool {
	return o.MaxAmount != nil
}

// Actionable reports whether the order carries enough data to be taken.
func (o Order) Actionable() bool {
	return o.ID != uuid.Nil && o.Kind != ""
}

// AmountBounds returns the accepted fiat interval for a range order,
// substituting fallback bounds where the projection left them unset.
func (o Order) AmountBounds() (int64, int64) {
	min, max := DefaultMinAmount, DefaultMaxAmount
	if o.MinAmount != nil {
		min = *o.MinAmount
	}
	if o.MaxAmount != nil {
		max = *o.MaxAmount
	}
	return min, max
}

// FiatText renders the fiat sizing for display: a fixed amount or the
// range interval.
func (o Order) FiatText() string {
	if o.IsRange() {
		min, max := o.AmountBounds()
		return fmt.Sprintf("%d-%d", min, max)
	}
	return fmt.Sprintf("%d", o.FiatAmount)
}

// AssetText renders the traded amount, with 0 meaning market price.
func (o Order) AssetText() string {
	if o.Amount == 0 {
		return "market price"
	}
	return fmt.Sprintf("%d sats", o.Amount)
}

func (o Order) PremiumText() string {
	switch {
	case o.Premium < 0:
		return fmt.Sprintf("a %d%% discount", o.Premium)
	case o.Premium > 0:
		return fmt.Sprintf("a %d%% premium", o.Premium)
	default:
		return "no premium or discount"
	}
}
