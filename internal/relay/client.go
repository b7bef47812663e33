package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"go-taker/internal/logger"
)

// Pool holds one websocket connection per configured relay. The same
// subscription is placed on every relay and the merged stream is
// deduplicated by event id, so a flaky relay only costs redundancy.
type Pool struct {
	log *logger.Logger

	mu     sync.Mutex
	conns  []*relayConn
	subs   map[string]*subscription
	closed bool
}

type relayConn struct {
	url     string
	ws      *websocket.Conn
	writeMu sync.Mutex
}

type subscription struct {
	ch   chan Event
	seen map[string]struct{}
}

const (
	subscriptionBuffer = 256

	// Cap on a single websocket write when the caller's context
	// carries no deadline. A stalled relay must not hold the write
	// lock indefinitely.
	defaultWriteTimeout = 10 * time.Second
)

// Connect dials every relay URL. It succeeds as long as at least one
// relay is reachable.
func Connect(ctx context.Context, urls []string, log *logger.Logger) (*Pool, error) {
	p := &Pool{
		log:  log,
		subs: make(map[string]*subscription),
	}
	var dialErrs []error
	for _, url := range urls {
		ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
		if err != nil {
			log.Warnw("relay unreachable", "url", url, "err", err)
			dialErrs = append(dialErrs, fmt.Errorf("%s: %w", url, err))
			continue
		}
		c := &relayConn{url: url, ws: ws}
		p.conns = append(p.conns, c)
		go p.readLoop(c)
		log.Infow("relay connected", "url", url)
	}
	if len(p.conns) == 0 {
		return nil, fmt.Errorf("no relay reachable: %w", errors.Join(dialErrs...))
	}
	return p, nil
}

// Subscribe places a REQ with the given id on every relay and returns
// the merged, deduplicated event stream. The channel is unbounded in
// time: it stays open for the life of the pool.
func (p *Pool) Subscribe(id string, f Filter) (<-chan Event, error) {
	frame, err := encodeFrame("REQ", id, f)
	if err != nil {
		return nil, fmt.Errorf("encode subscription: %w", err)
	}
	sub := &subscription{
		ch:   make(chan Event, subscriptionBuffer),
		seen: make(map[string]struct{}),
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, errors.New("relay pool closed")
	}
	p.subs[id] = sub
	conns := append([]*relayConn(nil), p.conns...)
	p.mu.Unlock()

	deadline := time.Now().Add(defaultWriteTimeout)
	var ok bool
	for _, c := range conns {
		if err := c.write(frame, deadline); err != nil {
			p.log.Warnw("subscribe failed", "url", c.url, "sub", id, "err", err)
			continue
		}
		ok = true
	}
	if !ok {
		return nil, errors.New("subscription reached no relay")
	}
	return sub.ch, nil
}

// Publish sends the event to every relay; it succeeds when at least one
// write went through.
func (p *Pool) Publish(ctx context.Context, ev Event) error {
	frame, err := encodeFrame("EVENT", ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	p.mu.Lock()
	conns := append([]*relayConn(nil), p.conns...)
	p.mu.Unlock()

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		deadline = time.Now().Add(defaultWriteTimeout)
	}
	var writeErrs []error
	published := 0
	for _, c := range conns {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.write(frame, deadline); err != nil {
			writeErrs = append(writeErrs, fmt.Errorf("%s: %w", c.url, err))
			continue
		}
		published++
	}
	if published == 0 {
		return fmt.Errorf("publish reached no relay: %w", errors.Join(writeErrs...))
	}
	p.log.Debugw("event published", "id", ev.ID, "kind", ev.Kind, "relays", published)
	return nil
}

func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	for _, c := range p.conns {
		_ = c.ws.Close()
	}
	return nil
}

func (p *Pool) readLoop(c *relayConn) {
	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			p.mu.Lock()
			closed := p.closed
			p.mu.Unlock()
			if !closed {
				p.log.Warnw("relay read failed", "url", c.url, "err", err)
			}
			return
		}
		p.handleFrame(c.url, raw)
	}
}

func (p *Pool) handleFrame(url string, raw []byte) {
	var frame []json.RawMessage
	if err := json.Unmarshal(raw, &frame); err != nil || len(frame) == 0 {
		p.log.Debugw("unparseable relay frame", "url", url)
		return
	}
	var label string
	if err := json.Unmarshal(frame[0], &label); err != nil {
		return
	}
	switch label {
	case "EVENT":
		if len(frame) < 3 {
			return
		}
		var subID string
		if err := json.Unmarshal(frame[1], &subID); err != nil {
			return
		}
		var ev Event
		if err := json.Unmarshal(frame[2], &ev); err != nil {
			p.log.Debugw("unparseable event", "url", url, "sub", subID, "err", err)
			return
		}
		p.dispatch(subID, ev)
	case "OK":
		p.log.Debugw("publish acknowledged", "url", url)
	case "EOSE":
		p.log.Debugw("end of stored events", "url", url)
	case "NOTICE":
		var msg string
		if len(frame) > 1 {
			_ = json.Unmarshal(frame[1], &msg)
		}
		p.log.Infow("relay notice", "url", url, "msg", msg)
	}
}

func (p *Pool) dispatch(subID string, ev Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sub, ok := p.subs[subID]
	if !ok {
		return
	}
	if _, dup := sub.seen[ev.ID]; dup {
		return
	}
	sub.seen[ev.ID] = struct{}{}
	select {
	case sub.ch <- ev:
	default:
		// A stalled consumer must not block the read loop.
		p.log.Warnw("subscription buffer full, dropping event", "sub", subID, "id", ev.ID)
	}
}

func (c *relayConn) write(frame []byte, deadline time.Time) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, frame)
}

func encodeFrame(items ...any) ([]byte, error) {
	return json.Marshal(items)
}
