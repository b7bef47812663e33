// Package message builds the outbound protocol messages a taker sends
// to the order-board operator.
package message

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"go-taker/internal/keys"
	"go-taker/internal/order"
)

// Action names the protocol operation carried by a message.
type Action string

const (
	ActionTakeBuy  Action = "take-buy"
	ActionTakeSell Action = "take-sell"
)

// ActionFor picks the take action for an order. The action names the
// order being taken, so the responder ends up on the opposite side:
// taking a sell order makes the responder the buyer.
func ActionFor(k order.Kind) (Action, error) {
	switch k {
	case order.KindBuy:
		return ActionTakeBuy, nil
	case order.KindSell:
		return ActionTakeSell, nil
	default:
		return "", fmt.Errorf("order kind %q is not takeable", k)
	}
}

// Payload carries the buyer-chosen fiat amount of a range order.
type Payload struct {
	Amount int64 `json:"amount"`
}

// Take is one take-order request. Version is the protocol revision.
type Take struct {
	Version    int       `json:"version"`
	ID         uuid.UUID `json:"id"`
	Action     Action    `json:"action"`
	TradeIndex int64     `json:"trade_index"`
	Payload    *Payload  `json:"payload,omitempty"`
}

const protocolVersion = 1

// NewTake builds a take request. amount must be non-nil exactly for
// range orders.
func NewTake(orderID uuid.UUID, action Action, tradeIndex int64, amount *int64) Take {
	t := Take{
		Version:    protocolVersion,
		ID:         orderID,
		Action:     action,
		TradeIndex: tradeIndex,
	}
	if amount != nil {
		t.Payload = &Payload{Amount: *amount}
	}
	return t
}

// Encode serializes the message inside its {"order": ...} wrapper.
func (t Take) Encode() ([]byte, error) {
	if t.ID == uuid.Nil {
		return nil, fmt.Errorf("take message without order id")
	}
	wrapper := struct {
		Order Take `json:"order"`
	}{Order: t}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(wrapper); err != nil {
		return nil, fmt.Errorf("encode take message: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// SignEnvelope pairs an encoded message with its schnorr signature as
// the two-element JSON array that becomes the transport content.
func SignEnvelope(encoded []byte, k *keys.Keys) (string, error) {
	sig, err := k.Sign(encoded)
	if err != nil {
		return "", fmt.Errorf("sign take message: %w", err)
	}
	env, err := json.Marshal([]json.RawMessage{
		json.RawMessage(encoded),
		json.RawMessage(fmt.Sprintf("%q", sig)),
	})
	if err != nil {
		return "", fmt.Errorf("encode envelope: %w", err)
	}
	return string(env), nil
}
