// Package submit turns a validated take request into a published
// transport event: serialize, sign, wrap, publish.
package submit

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"

	"go-taker/internal/keys"
	"go-taker/internal/logger"
	"go-taker/internal/message"
	"go-taker/internal/relay"
	"go-taker/internal/take"
	"go-taker/internal/wrap"
)

// Stage names the step of the pipeline an error came from.
type Stage string

const (
	StageSerialization Stage = "serialization"
	StageSigning       Stage = "signing"
	StageWrapping      Stage = "wrapping"
	StageTransport     Stage = "transport"
)

type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("submit %s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Publisher is the transport side of submission.
type Publisher interface {
	Publish(ctx context.Context, ev relay.Event) error
}

// Service addresses signed take messages to the board operator. It
// mutates no local state; outcomes are only reported back.
type Service struct {
	pub      Publisher
	operator *btcec.PublicKey
	log      *logger.Logger
}

func New(pub Publisher, operator *btcec.PublicKey, log *logger.Logger) *Service {
	return &Service{pub: pub, operator: operator, log: log}
}

// Submit builds, signs, wraps and publishes one take request with the
// given trade-scoped keys.
func (s *Service) Submit(ctx context.Context, req take.Request, tradeKeys *keys.Keys) error {
	var amount *int64
	if req.HasAmount {
		amount = &req.Amount
	}
	msg := message.NewTake(req.OrderID, req.Action, req.TradeIndex, amount)

	encoded, err := msg.Encode()
	if err != nil {
		return &Error{Stage: StageSerialization, Err: err}
	}
	envelope, err := message.SignEnvelope(encoded, tradeKeys)
	if err != nil {
		return &Error{Stage: StageSigning, Err: err}
	}
	ev, err := wrap.Wrap(envelope, s.operator)
	if err != nil {
		return &Error{Stage: StageWrapping, Err: err}
	}
	if err := s.pub.Publish(ctx, ev); err != nil {
		return &Error{Stage: StageTransport, Err: err}
	}
	s.log.Infow("take submitted",
		"order", req.OrderID,
		"action", req.Action,
		"trade_index", req.TradeIndex,
	)
	return nil
}
