package stenura

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/writerslogic/stenod/internal/chord"
	"github.com/writerslogic/stenod/internal/logging"
	"github.com/writerslogic/stenod/internal/queue"
)

// readcChunk is the P3 parameter (byte count requested) on every READC.
const readcChunk = 512

// Tuning holds the session's configurable timing/sizing knobs: how long the
// retrier waits before resending, how many tries before a request times
// out, how often the poller issues READC, and how many decoded chords the
// queue between the transport and the translator can hold before Push
// blocks. Zero fields fall back to DefaultTuning's values.
type Tuning struct {
	RetryInterval time.Duration
	MaxTries      int
	PollInterval  time.Duration
	QueueCapacity int
}

// DefaultTuning returns the spec's documented defaults: a ~2s retry
// interval, 3 tries, a 100ms poll interval, and a 1024-chord queue.
func DefaultTuning() Tuning {
	return Tuning{
		RetryInterval: 2 * time.Second,
		MaxTries:      3,
		PollInterval:  100 * time.Millisecond,
		QueueCapacity: 1024,
	}
}

// withDefaults fills any zero field of t from DefaultTuning.
func (t Tuning) withDefaults() Tuning {
	d := DefaultTuning()
	if t.RetryInterval <= 0 {
		t.RetryInterval = d.RetryInterval
	}
	if t.MaxTries < 1 {
		t.MaxTries = d.MaxTries
	}
	if t.PollInterval <= 0 {
		t.PollInterval = d.PollInterval
	}
	if t.QueueCapacity < 1 {
		t.QueueCapacity = d.QueueCapacity
	}
	return t
}

// port is the minimal interface the client needs from the underlying serial
// connection, satisfied by *os.File on the unix build and swappable in
// tests. Close is part of the interface because it is the only thing that
// unblocks readLoop's in-flight io.ReadFull on shutdown.
type port interface {
	io.Reader
	io.Writer
	io.Closer
}

// pending tracks one in-flight request awaiting its response.
type pending struct {
	req         Request
	sentAt      time.Time
	tries       int
	done        chan Response
	timeoutOnce sync.Once
}

// Session drives one Stenura session: it owns the serial connection, a
// sequence counter, the set of in-flight requests, and the three worker
// goroutines (reader, retrier, poller) that keep the session alive.
type Session struct {
	port port
	log  *logging.Logger

	// retryInterval/maxTries/pollInterval are read by the retrier and
	// poller loops on every tick and may be updated at any time via
	// SetTuning (e.g. from a config hot-reload), hence atomics rather
	// than plain fields.
	retryInterval atomic.Int64
	maxTries      atomic.Int64
	pollInterval  atomic.Int64

	writeMu sync.Mutex // serializes writes to port

	seq atomic.Uint32

	mu      sync.Mutex
	pending map[byte]*pending

	offset uint32 // running READC offset into the device's live buffer

	Chords *queue.Chord

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSession wraps p (an already-opened, already-configured serial
// connection) in a Session. tuning's zero value is DefaultTuning. Open must
// be called before the session is usable.
func NewSession(p port, log *logging.Logger, tuning Tuning) *Session {
	if log == nil {
		log = logging.Default()
	}
	tuning = tuning.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		port:    p,
		log:     log,
		pending: make(map[byte]*pending),
		Chords:  queue.NewChord(tuning.QueueCapacity),
		ctx:     ctx,
		cancel:  cancel,
	}
	s.retryInterval.Store(int64(tuning.RetryInterval))
	s.maxTries.Store(int64(tuning.MaxTries))
	s.pollInterval.Store(int64(tuning.PollInterval))
	return s
}

// SetTuning updates the retry interval, max tries, and poll interval the
// retrier/poller loops use on their next tick, letting an operator tune
// them without restarting the session. QueueCapacity is ignored: the queue
// is sized once at construction.
func (c *Session) SetTuning(t Tuning) {
	t = t.withDefaults()
	c.retryInterval.Store(int64(t.RetryInterval))
	c.maxTries.Store(int64(t.MaxTries))
	c.pollInterval.Store(int64(t.PollInterval))
}

// Open performs the session handshake: start the reader goroutine (so
// responses to what follows are actually dispatched), OPEN the realtime
// file, drain whatever backlog the device already has buffered, then start
// the retrier/poller goroutines.
func (c *Session) Open(ctx context.Context) error {
	c.wg.Add(1)
	go c.readLoop()

	if _, err := c.sendRequestSync(ctx, Request{
		Action: ActionOpen,
		P1:     uint16('A'),
		Data:   []byte("REALTIME.000"),
	}); err != nil {
		return fmt.Errorf("stenura: open: %w", err)
	}

	if err := c.drainBacklog(ctx); err != nil {
		return fmt.Errorf("stenura: drain backlog: %w", err)
	}

	c.wg.Add(2)
	go c.retryLoop()
	go c.pollLoop()

	return nil
}

// Read satisfies InputSource: it blocks until the poller has decoded and
// queued a stroke, or ctx is canceled.
func (c *Session) Read(ctx context.Context) (chord.Chord, error) {
	ch, ok := c.Chords.Pop(ctx)
	if !ok {
		if err := ctx.Err(); err != nil {
			return chord.Chord{}, err
		}
		return chord.Chord{}, ErrSessionClosed
	}
	return ch, nil
}

// Close tears down the session: it asks the device to close the realtime
// file, then stops the worker goroutines. readLoop blocks in io.ReadFull on
// the port with no deadline, so the only thing that wakes it is closing the
// port itself; that must happen before wg.Wait or shutdown hangs.
func (c *Session) Close(ctx context.Context) error {
	_, err := c.sendRequestSync(ctx, Request{Action: ActionClose})
	c.cancel()
	c.Chords.Close()
	if cerr := c.port.Close(); cerr != nil && err == nil {
		err = cerr
	}
	c.wg.Wait()
	return err
}

// drainBacklog repeatedly issues READC starting at offset 0 until the
// device reports no more data, so the session starts from "now" rather than
// replaying everything already on the device.
func (c *Session) drainBacklog(ctx context.Context) error {
	c.offset = 0
	for {
		resp, err := c.sendRequestSync(ctx, Request{
			Action: ActionReadC,
			P1:     1,
			P2:     1,
			P3:     readcChunk,
			P5:     uint16(c.offset),
		})
		if err != nil {
			return err
		}
		if len(resp.Data) == 0 {
			return nil
		}
		c.offset += uint32(resp.P1)
	}
}

// sendRequestSync assigns the next sequence number, registers a pending
// entry, writes the request, and blocks for its matching response (or
// timeout/context cancellation).
func (c *Session) sendRequestSync(ctx context.Context, req Request) (Response, error) {
	req.Seq = byte(c.seq.Add(1))

	p := &pending{req: req, sentAt: timeNow(), tries: 1, done: make(chan Response, 1)}
	c.mu.Lock()
	c.pending[req.Seq] = p
	c.mu.Unlock()

	if err := c.writeRequest(req); err != nil {
		c.mu.Lock()
		delete(c.pending, req.Seq)
		c.mu.Unlock()
		return Response{}, err
	}

	select {
	case resp, ok := <-p.done:
		if !ok {
			return Response{}, ErrTimeout
		}
		return resp, nil
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, req.Seq)
		c.mu.Unlock()
		return Response{}, ctx.Err()
	case <-c.ctx.Done():
		return Response{}, c.ctx.Err()
	}
}

func (c *Session) writeRequest(req Request) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err := c.port.Write(req.Encode())
	return err
}

// readLoop reads response frames off the serial port and dispatches each to
// its pending request by sequence number.
func (c *Session) readLoop() {
	defer c.wg.Done()

	header := make([]byte, responseHeaderSize)
	for {
		if _, err := io.ReadFull(c.port, header); err != nil {
			if c.ctx.Err() != nil {
				return
			}
			c.log.Error("stenura: read response header", "error", err)
			return
		}

		dataLen, err := ResponseDataLen(header)
		if err != nil {
			c.log.Warn("stenura: bad response header", "error", err)
			continue
		}

		buf := header
		if dataLen > 0 {
			tail := make([]byte, dataLen)
			if _, err := io.ReadFull(c.port, tail); err != nil {
				c.log.Error("stenura: read response data", "error", err)
				return
			}
			buf = append(buf, tail...)
		}

		resp, err := DecodeResponse(buf)
		if err != nil {
			c.log.Warn("stenura: decode response", "error", err)
			continue
		}

		c.mu.Lock()
		p, ok := c.pending[resp.Seq]
		if ok {
			delete(c.pending, resp.Seq)
		}
		c.mu.Unlock()

		if !ok {
			c.log.Debug("stenura: response with no pending request", "seq", resp.Seq)
			continue
		}
		p.done <- resp
	}
}

// retryLoop periodically scans pending requests and resends any that have
// been outstanding longer than the current retry interval, up to the
// current max tries. The ticker is reset after every tick so a SetTuning
// call takes effect on the following cycle rather than waiting for the
// loop to be recreated.
func (c *Session) retryLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.retryIntervalNow())
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.retryOnce()
			ticker.Reset(c.retryIntervalNow())
		}
	}
}

func (c *Session) retryIntervalNow() time.Duration {
	return time.Duration(c.retryInterval.Load())
}

func (c *Session) maxTriesNow() int {
	return int(c.maxTries.Load())
}

func (c *Session) pollIntervalNow() time.Duration {
	return time.Duration(c.pollInterval.Load())
}

func (c *Session) retryOnce() {
	now := timeNow()
	retryInterval := c.retryIntervalNow()
	maxTries := c.maxTriesNow()

	c.mu.Lock()
	var toRetry []*pending
	var toFail []*pending
	for seq, p := range c.pending {
		if now.Sub(p.sentAt) < retryInterval {
			continue
		}
		if p.tries >= maxTries {
			toFail = append(toFail, p)
			delete(c.pending, seq)
			continue
		}
		p.tries++
		p.sentAt = now
		toRetry = append(toRetry, p)
	}
	c.mu.Unlock()

	for _, p := range toFail {
		p.timeoutOnce.Do(func() {
			c.log.Warn("stenura: request timed out", "action", p.req.Action, "seq", p.req.Seq)
			close(p.done)
		})
	}
	for _, p := range toRetry {
		if err := c.writeRequest(p.req); err != nil {
			c.log.Error("stenura: retry write", "error", err)
		}
	}
}

// pollLoop issues READC every poll interval, decodes whatever stroke frames
// come back, and pushes them onto the chord queue. Like retryLoop, the
// ticker is reset after every tick so SetTuning takes effect promptly.
func (c *Session) pollLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.pollIntervalNow())
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.pollOnce()
			ticker.Reset(c.pollIntervalNow())
		}
	}
}

func (c *Session) pollOnce() {
	resp, err := c.sendRequestSync(c.ctx, Request{
		Action: ActionReadC,
		P1:     1,
		P2:     1,
		P3:     readcChunk,
		P5:     uint16(c.offset),
	})
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			c.log.Warn("stenura: poll readc", "error", err)
		}
		return
	}
	if len(resp.Data) == 0 {
		return
	}

	c.offset += uint32(resp.P1)
	for _, ch := range decodeStrokes(resp.Data) {
		if !c.Chords.Push(c.ctx, ch) {
			return
		}
	}
}

// timeNow exists as a seam so tests can stub out wall-clock time if needed;
// production code always wants the real clock.
var timeNow = time.Now
