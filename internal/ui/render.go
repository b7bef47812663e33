// Package ui renders the client state as plain text frames and decodes
// raw terminal input. Layout is deliberately simple: one table, one
// optional dialog, one status line.
package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"go-taker/internal/order"
	"go-taker/internal/take"
)

// Message is one unwrapped direct message for display.
type Message struct {
	Sender    string
	Content   string
	CreatedAt int64
}

// View is everything one frame needs.
type View struct {
	Orders        []order.Order
	Selected      int
	Phase         take.Phase
	Dialog        order.Order
	Input         string
	Err           error
	Messages      []Message
	RestartNeeded bool
}

type Renderer struct {
	w io.Writer
}

func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{w: w}
}

// Frame clears the screen and draws the full view. Raw mode needs
// explicit carriage returns, so every line ends in \r\n.
func (r *Renderer) Frame(v View) {
	var b strings.Builder
	b.WriteString("\x1b[2J\x1b[H")

	b.WriteString("ORDERS  (j/k scroll, enter select, esc close, q quit)\r\n")
	b.WriteString(tableHeader + "\r\n")
	if len(v.Orders) == 0 {
		b.WriteString("  waiting for orders...\r\n")
	}
	for i, o := range v.Orders {
		marker := "  "
		if i == v.Selected {
			marker = "> "
		}
		b.WriteString(marker + orderRow(o) + "\r\n")
	}

	switch v.Phase {
	case take.PhaseDetailShown:
		writeDetail(&b, v.Dialog)
	case take.PhaseAmountInput:
		writeAmountPrompt(&b, v.Dialog, v.Input, v.Err)
	case take.PhaseSubmitting:
		b.WriteString("\r\n  submitting take request...\r\n")
	case take.PhaseDone:
		b.WriteString("\r\n  order taken, watch your messages. press any key.\r\n")
	case take.PhaseFailed:
		b.WriteString(fmt.Sprintf("\r\n  take failed: %v\r\n  press any key to return to the list.\r\n", v.Err))
	}

	if len(v.Messages) > 0 {
		b.WriteString("\r\nMESSAGES\r\n")
		for _, m := range v.Messages {
			at := time.Unix(m.CreatedAt, 0).Format("15:04:05")
			b.WriteString(fmt.Sprintf("  %s %s: %s\r\n", at, clip(m.Sender, 12), clip(m.Content, 80)))
		}
	}

	if v.RestartNeeded {
		b.WriteString("\r\n  settings file changed, restart to apply.\r\n")
	}

	io.WriteString(r.w, b.String())
}

const tableHeader = "  KIND  CODE  AMOUNT        FIAT       PAYMENT              +/-"

func orderRow(o order.Order) string {
	kind := string(o.Kind)
	if kind == "" {
		kind = "?"
	}
	return fmt.Sprintf("%-5s %-5s %-13s %-10s %-20s %d",
		kind, o.FiatCode, o.AssetText(), o.FiatText(), clip(o.PaymentMethod, 20), o.Premium)
}

func writeDetail(b *strings.Builder, o order.Order) {
	side := "trading"
	action := "trade"
	switch o.Kind {
	case order.KindBuy:
		side, action = "buying", "sell"
	case order.KindSell:
		side, action = "selling", "buy"
	}
	created := time.Unix(o.CreatedAt, 0).Format(time.RFC822)
	fmt.Fprintf(b, "\r\nORDER DETAIL  (enter to %s, esc to close)\r\n", action)
	fmt.Fprintf(b, "  Someone is %s %s for %s %s with %s.\r\n",
		side, o.AssetText(), o.FiatText(), o.FiatCode, o.PremiumText())
	fmt.Fprintf(b, "  Payment method: %s\r\n", o.PaymentMethod)
	fmt.Fprintf(b, "  Id: %s\r\n", o.ID)
	fmt.Fprintf(b, "  Created at: %s\r\n", created)
}

func writeAmountPrompt(b *strings.Builder, o order.Order, input string, err error) {
	min, max := o.AmountBounds()
	fmt.Fprintf(b, "\r\nAMOUNT  (enter to send, esc to close)\r\n")
	fmt.Fprintf(b, "  This is a range order. Enter an amount between %d and %d %s.\r\n", min, max, o.FiatCode)
	fmt.Fprintf(b, "  > %s_\r\n", input)
	if err != nil {
		fmt.Fprintf(b, "  %v\r\n", err)
	}
}

func clip(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
