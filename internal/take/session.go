// Package take drives the interaction of taking one order: showing its
// detail, collecting a fiat amount for range orders, and handing a
// validated request to the submitter.
package take

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/google/uuid"

	"go-taker/internal/message"
	"go-taker/internal/order"
)

// Phase is the state of the take dialog.
type Phase string

const (
	PhaseBrowsing    Phase = "browsing"
	PhaseDetailShown Phase = "detail"
	PhaseAmountInput Phase = "amount_input"
	PhaseSubmitting  Phase = "submitting"
	PhaseDone        Phase = "done"
	PhaseFailed      Phase = "failed"
)

// ValidationError rejects an entered amount; the dialog stays open so
// the value can be corrected.
type ValidationError struct {
	Input    string
	Min, Max int64
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("amount %q not accepted, enter a value between %d and %d", e.Input, e.Min, e.Max)
}

// Request is a fully validated take, ready for submission.
type Request struct {
	OrderID    uuid.UUID
	Action     message.Action
	TradeIndex int64
	Amount     int64
	HasAmount  bool
}

// Session is the transient per-interaction state. Transitions are
// driven by the UI loop; submission results re-enter through Finish.
// A mutex keeps reads from other goroutines consistent.
type Session struct {
	mu         sync.Mutex
	phase      Phase
	order      order.Order
	input      []rune
	lastErr    error
	tradeIndex int64
}

func NewSession(tradeIndex int64) *Session {
	return &Session{phase: PhaseBrowsing, tradeIndex: tradeIndex}
}

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Order returns the copied selection; valid outside PhaseBrowsing.
func (s *Session) Order() (order.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order, s.phase != PhaseBrowsing
}

func (s *Session) Input() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.input)
}

// Err is the last validation or submission error, cleared on reset.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Session) TradeIndex() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tradeIndex
}

// Select opens the detail view for an order. The order is copied so the
// open dialog is immune to book mutations. Orders without an id or kind
// are not actionable and are refused.
func (s *Session) Select(o order.Order) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseBrowsing || !o.Actionable() {
		return false
	}
	s.order = o
	s.phase = PhaseDetailShown
	s.lastErr = nil
	return true
}

// Confirm advances the dialog. A non-nil Request means submission must
// start; the session is then in PhaseSubmitting until Finish is called.
// In PhaseAmountInput an invalid value keeps the phase and records the
// validation error for display.
func (s *Session) Confirm() (*Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.phase {
	case PhaseDetailShown:
		if s.order.IsRange() {
			s.phase = PhaseAmountInput
			s.input = s.input[:0]
			s.lastErr = nil
			return nil, nil
		}
		return s.buildRequest(nil)
	case PhaseAmountInput:
		min, max := s.order.AmountBounds()
		raw := strings.TrimSpace(string(s.input))
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < min || v > max {
			s.lastErr = &ValidationError{Input: raw, Min: min, Max: max}
			return nil, s.lastErr
		}
		s.lastErr = nil
		return s.buildRequest(&v)
	default:
		return nil, nil
	}
}

func (s *Session) buildRequest(amount *int64) (*Request, error) {
	if s.order.ID == uuid.Nil {
		s.phase = PhaseFailed
		s.lastErr = fmt.Errorf("selected order has no id")
		return nil, s.lastErr
	}
	action, err := message.ActionFor(s.order.Kind)
	if err != nil {
		s.phase = PhaseFailed
		s.lastErr = err
		return nil, err
	}
	req := &Request{
		OrderID:    s.order.ID,
		Action:     action,
		TradeIndex: s.tradeIndex,
	}
	if amount != nil {
		req.Amount = *amount
		req.HasAmount = true
	}
	s.phase = PhaseSubmitting
	return req, nil
}

// Type appends printable input while the amount dialog is open.
func (s *Session) Type(r rune) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseAmountInput || !unicode.IsPrint(r) {
		return
	}
	s.input = append(s.input, r)
}

func (s *Session) Backspace() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseAmountInput || len(s.input) == 0 {
		return
	}
	s.input = s.input[:len(s.input)-1]
}

// Cancel discards the dialog and returns to browsing. It is refused
// only while a submission is in flight.
func (s *Session) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseBrowsing || s.phase == PhaseSubmitting {
		return false
	}
	s.reset()
	return true
}

// Finish records the submission outcome.
func (s *Session) Finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseSubmitting {
		return
	}
	if err != nil {
		s.lastErr = err
		s.phase = PhaseFailed
		return
	}
	s.phase = PhaseDone
}

// Acknowledge closes the Done/Failed notice and resets to browsing.
// On success the session moves to the next trade index; a failed take
// retries with the same one.
func (s *Session) Acknowledge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseDone && s.phase != PhaseFailed {
		return
	}
	if s.phase == PhaseDone {
		s.tradeIndex++
	}
	s.reset()
}

func (s *Session) reset() {
	s.phase = PhaseBrowsing
	s.order = order.Order{}
	s.input = s.input[:0]
	s.lastErr = nil
}
