package vento

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// Default transaction policy.
const (
	// defaultPort is the UDP control port of the unit.
	defaultPort = 4000

	// defaultReplyTimeout is the maximum wait for a single reply.
	defaultReplyTimeout = 2 * time.Second

	// defaultRetries is the number of additional attempts after the
	// first request goes unanswered.
	defaultRetries = 3
)

// ClientConfig holds device connection settings.
type ClientConfig struct {
	// Host is the unit's hostname or IP address. Required.
	Host string

	// Port is the unit's UDP control port. Default: 4000.
	Port int

	// Password is the device password used as the frame header.
	// Default: "mobile".
	Password string

	// ReplyTimeout is the maximum wait for a reply to one request.
	// Default: 2 seconds.
	ReplyTimeout time.Duration

	// Retries is the number of retransmissions after a timeout or a
	// garbled reply window. Default: 3.
	Retries int
}

// Stats holds operational counters for the device link.
type Stats struct {
	FramesTx     uint64
	FramesRx     uint64
	Timeouts     uint64
	Retries      uint64
	DecodeErrors uint64
	LastContact  time.Time // zero until the first decodable reply
}

// Logger interface for optional logging.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// deviceConn is the subset of net.Conn the client uses. The UDP socket
// satisfies it in production; tests substitute a scripted connection.
type deviceConn interface {
	Read(b []byte) (int, error)
	Write(b []byte) (int, error)
	SetReadDeadline(t time.Time) error
	Close() error
}

// Client owns the UDP socket to one ventilation unit.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
//   - A mutex serialises transactions: the protocol supports a single
//     outstanding request/reply exchange, so concurrent callers queue.
type Client struct {
	cfg  ClientConfig
	conn deviceConn

	// mu guards the send/await-reply sequence (one transaction in flight).
	mu sync.Mutex

	closed atomic.Bool

	// Logger (optional)
	logger   Logger
	loggerMu sync.RWMutex

	// Statistics (atomic for lock-free reads)
	framesTx     atomic.Uint64
	framesRx     atomic.Uint64
	timeouts     atomic.Uint64
	retries      atomic.Uint64
	decodeErrors atomic.Uint64
	lastContact  atomic.Int64 // Unix seconds, 0 until first contact
}

// Dial creates a client connected to the configured unit.
//
// The socket is "connected" in the UDP sense: the kernel filters inbound
// datagrams to the unit's address, which is the protocol's only response
// correlation mechanism besides the password echo.
//
// Parameters:
//   - ctx: Context for resolution/connection cancellation
//   - cfg: Device connection settings
//
// Returns:
//   - *Client: Ready for Query/Set calls
//   - error: If the host cannot be resolved or the socket not created
func Dial(ctx context.Context, cfg ClientConfig) (*Client, error) {
	if cfg.Host == "" {
		return nil, errors.New("vento: device host is required")
	}
	applyDefaults(&cfg)

	var dialer net.Dialer
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	conn, err := dialer.DialContext(ctx, "udp", addr)
	if err != nil {
		return nil, fmt.Errorf("vento: dial %s: %w", addr, err)
	}

	return &Client{cfg: cfg, conn: conn}, nil
}

// newClient wires a client onto an existing connection. Used by tests.
func newClient(cfg ClientConfig, conn deviceConn) *Client {
	applyDefaults(&cfg)
	return &Client{cfg: cfg, conn: conn}
}

func applyDefaults(cfg *ClientConfig) {
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.Password == "" {
		cfg.Password = DefaultPassword
	}
	if cfg.ReplyTimeout == 0 {
		cfg.ReplyTimeout = defaultReplyTimeout
	}
	if cfg.Retries < 0 {
		cfg.Retries = defaultRetries
	}
}

// Query reads a full status snapshot from the unit.
//
// It sends a read-all request and waits up to ReplyTimeout for a
// decodable reply, retrying on timeout. Garbled datagrams within a wait
// window are discarded without consuming the attempt.
//
// Returns:
//   - Snapshot: Current parameter values
//   - error: ErrDeviceUnreachable after exhausting retries, ErrClosed,
//     or the context error if cancelled between attempts
func (c *Client) Query(ctx context.Context) (Snapshot, error) {
	return c.transact(ctx, EncodeReadAll(c.cfg.Password))
}

// Set writes one parameter value to the unit.
//
// The unit acknowledges writes with a status datagram; the returned
// snapshot carries the post-write values so callers can publish a refresh
// without an extra round trip. For toggle parameters the request flips
// the unit's current state; callers decide beforehand whether a flip is
// wanted.
//
// Returns:
//   - Snapshot: Values reported by the acknowledging response
//   - error: ErrInvalidValue/ErrNotWritable for bad input,
//     ErrDeviceUnreachable after exhausting retries, ErrClosed
func (c *Client) Set(ctx context.Context, p *Parameter, value int) (Snapshot, error) {
	frame, err := EncodeWrite(c.cfg.Password, p, value)
	if err != nil {
		return nil, err
	}
	return c.transact(ctx, frame)
}

// transact performs one serialised request/reply exchange with retries.
func (c *Client) transact(ctx context.Context, frame []byte) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return nil, ErrClosed
	}

	buf := make([]byte, MaxDatagramSize)
	var lastErr error

	for attempt := 0; attempt <= c.cfg.Retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if attempt > 0 {
			c.retries.Add(1)
			c.logDebug("retrying transaction", "attempt", attempt+1, "last_error", lastErr)
		}

		if _, err := c.conn.Write(frame); err != nil {
			if c.closed.Load() {
				return nil, ErrClosed
			}
			// Send failures (e.g. ICMP port unreachable surfacing on a
			// connected socket) count as a failed attempt.
			lastErr = err
			continue
		}
		c.framesTx.Add(1)

		snap, err := c.awaitReply(ctx, buf)
		if err == nil {
			return snap, nil
		}
		if errors.Is(err, ErrClosed) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("%w: %s after %d attempts: %v",
		ErrDeviceUnreachable, c.cfg.Host, c.cfg.Retries+1, lastErr)
}

// awaitReply reads datagrams until one decodes, the reply window
// expires, or the context is done.
func (c *Client) awaitReply(ctx context.Context, buf []byte) (Snapshot, error) {
	deadline := time.Now().Add(c.cfg.ReplyTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	for {
		if err := c.conn.SetReadDeadline(deadline); err != nil {
			return nil, fmt.Errorf("set read deadline: %w", err)
		}

		n, err := c.conn.Read(buf)
		if err != nil {
			if c.closed.Load() {
				return nil, ErrClosed
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				c.timeouts.Add(1)
				return nil, fmt.Errorf("no reply within %v", c.cfg.ReplyTimeout)
			}
			return nil, fmt.Errorf("read: %w", err)
		}
		c.framesRx.Add(1)

		snap, err := DecodeResponse(c.cfg.Password, buf[:n])
		if err != nil {
			// Garbled or foreign datagram: log and keep waiting until
			// the window closes.
			c.decodeErrors.Add(1)
			c.logDebug("discarding undecodable datagram", "error", err, "bytes", n)
			continue
		}

		c.lastContact.Store(time.Now().Unix())
		return snap, nil
	}
}

// Stats returns a snapshot of operational counters.
func (c *Client) Stats() Stats {
	s := Stats{
		FramesTx:     c.framesTx.Load(),
		FramesRx:     c.framesRx.Load(),
		Timeouts:     c.timeouts.Load(),
		Retries:      c.retries.Load(),
		DecodeErrors: c.decodeErrors.Load(),
	}
	if ts := c.lastContact.Load(); ts != 0 {
		s.LastContact = time.Unix(ts, 0)
	}
	return s
}

// SetLogger sets an optional logger for transaction diagnostics.
func (c *Client) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

func (c *Client) logDebug(msg string, args ...any) {
	c.loggerMu.RLock()
	logger := c.logger
	c.loggerMu.RUnlock()
	if logger != nil {
		logger.Debug(msg, args...)
	}
}

// Close releases the UDP socket. An in-flight wait is unblocked by the
// socket closing and surfaces ErrClosed to its caller.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
