// Package app owns the two loops of the client: a background task
// draining the subscription feeds into the order book, and the
// foreground loop racing the redraw tick against key input.
package app

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"go-taker/internal/config"
	"go-taker/internal/keys"
	"go-taker/internal/logger"
	"go-taker/internal/order"
	"go-taker/internal/relay"
	"go-taker/internal/take"
	"go-taker/internal/ui"
)

// Submitter dispatches one validated take request.
type Submitter interface {
	Submit(ctx context.Context, req take.Request, tradeKeys *keys.Keys) error
}

// Deps are the collaborators the loop drives. Orders and Messages are
// the subscription feeds; Unwrap opens direct messages addressed to the
// trade identity; Advance persists a consumed trade index.
type Deps struct {
	Book      *order.Book
	Session   *take.Session
	Orders    <-chan relay.Event
	Messages  <-chan relay.Event
	Submitter Submitter
	TradeKeys func(index int64) (*keys.Keys, error)
	Advance   func(index int64) error
	Unwrap    func(ev relay.Event) (string, error)
	Notices   <-chan struct{}
	Renderer  *ui.Renderer
}

type App struct {
	cfg config.Config
	log *logger.Logger
	d   Deps

	quit          bool
	restartNeeded bool
	messages      []ui.Message
	inflight      *take.Request
}

const messageHistory = 5

func New(cfg config.Config, log *logger.Logger, d Deps) *App {
	return &App{cfg: cfg, log: log, d: d}
}

// Run blocks until the user quits or ctx is canceled. The ingestion
// task shares the lifetime of the loop and is not individually
// cancellable.
func (a *App) Run(ctx context.Context, keyCh <-chan ui.Key) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	dms := make(chan ui.Message, 16)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.ingestOrders(gctx)
		return nil
	})
	g.Go(func() error {
		a.ingestMessages(gctx, dms)
		return nil
	})

	results := make(chan error, 1)
	ticker := time.NewTicker(a.cfg.RedrawInterval)
	defer ticker.Stop()

	for !a.quit {
		select {
		case <-ctx.Done():
			a.quit = true
		case <-ticker.C:
			a.render()
		case k, ok := <-keyCh:
			if !ok {
				a.quit = true
				break
			}
			a.handleKey(ctx, k, results)
		case err := <-results:
			a.finishSubmit(err)
		case m := <-dms:
			a.messages = append([]ui.Message{m}, a.messages...)
			if len(a.messages) > messageHistory {
				a.messages = a.messages[:messageHistory]
			}
		case <-a.d.Notices:
			a.restartNeeded = true
		}
	}
	cancel()
	return g.Wait()
}

// ingestOrders applies every feed event to the book, one at a time, in
// delivery order. A bad event is logged and skipped; the feed never
// stops.
func (a *App) ingestOrders(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-a.d.Orders:
			if !ok {
				return
			}
			o, err := order.FromTags(ev.CreatedAt, ev.Tags)
			if err != nil {
				a.log.Debugw("skipping order event", "event", ev.ID, "err", err)
				continue
			}
			if !a.d.Book.Apply(o) {
				a.log.Debugw("order event without id", "event", ev.ID)
			}
		}
	}
}

func (a *App) ingestMessages(ctx context.Context, out chan<- ui.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-a.d.Messages:
			if !ok {
				return
			}
			content, err := a.d.Unwrap(ev)
			if err != nil {
				a.log.Debugw("cannot unwrap message", "event", ev.ID, "err", err)
				continue
			}
			m := ui.Message{
				Sender:    ev.PubKey,
				Content:   content,
				CreatedAt: ev.CreatedAt,
			}
			select {
			case out <- m:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (a *App) handleKey(ctx context.Context, k ui.Key, results chan<- error) {
	if k.Code == ui.KeyCtrlC {
		a.quit = true
		return
	}
	switch a.d.Session.Phase() {
	case take.PhaseBrowsing:
		switch {
		case k.Code == ui.KeyRune && k.Rune == 'q':
			a.quit = true
		case k.Code == ui.KeyDown || (k.Code == ui.KeyRune && k.Rune == 'j'):
			a.d.Book.Scroll(1)
		case k.Code == ui.KeyUp || (k.Code == ui.KeyRune && k.Rune == 'k'):
			a.d.Book.Scroll(-1)
		case k.Code == ui.KeyEnter:
			if o, ok := a.d.Book.Selected(); ok {
				if !a.d.Session.Select(o) {
					a.log.Debugw("order not actionable", "order", o.ID)
				}
			}
		}
	case take.PhaseDetailShown:
		switch k.Code {
		case ui.KeyEsc:
			a.d.Session.Cancel()
		case ui.KeyEnter:
			a.confirm(ctx, results)
		}
	case take.PhaseAmountInput:
		switch k.Code {
		case ui.KeyEsc:
			a.d.Session.Cancel()
		case ui.KeyEnter:
			a.confirm(ctx, results)
		case ui.KeyBackspace:
			a.d.Session.Backspace()
		case ui.KeyRune:
			a.d.Session.Type(k.Rune)
		}
	case take.PhaseSubmitting:
		// No cancellation point while a submission is in flight.
	case take.PhaseDone, take.PhaseFailed:
		a.d.Session.Acknowledge()
	}
}

// confirm advances the session; when it yields a request, submission is
// dispatched in the background and its outcome re-enters the loop via
// results.
func (a *App) confirm(ctx context.Context, results chan<- error) {
	req, err := a.d.Session.Confirm()
	if err != nil {
		a.log.Debugw("confirm rejected", "err", err)
		return
	}
	if req == nil {
		return
	}
	a.inflight = req
	go func() {
		tk, err := a.d.TradeKeys(req.TradeIndex)
		if err != nil {
			results <- err
			return
		}
		sctx, cancel := context.WithTimeout(ctx, a.cfg.PublishTimeout)
		defer cancel()
		results <- a.d.Submitter.Submit(sctx, *req, tk)
	}()
}

func (a *App) finishSubmit(err error) {
	req := a.inflight
	a.inflight = nil
	a.d.Session.Finish(err)
	if err != nil {
		a.log.Warnw("take failed", "err", err)
		return
	}
	if req != nil {
		if aerr := a.d.Advance(req.TradeIndex); aerr != nil {
			a.log.Warnw("cannot persist trade index", "index", req.TradeIndex, "err", aerr)
		}
	}
}

func (a *App) render() {
	orders, selected := a.d.Book.Snapshot()
	v := ui.View{
		Orders:        orders,
		Selected:      selected,
		Phase:         a.d.Session.Phase(),
		Input:         a.d.Session.Input(),
		Err:           a.d.Session.Err(),
		Messages:      a.messages,
		RestartNeeded: a.restartNeeded,
	}
	if o, ok := a.d.Session.Order(); ok {
		v.Dialog = o
	}
	a.d.Renderer.Frame(v)
}
