package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mhbosch/vento-bridge/internal/vento"
)

// Service topic payloads, matching what long-standing Vento MQTT setups
// already expect on <base>/service.
const (
	// ServiceOnline is published after every successful poll cycle.
	ServiceOnline = "Online"

	// ServiceTimeout is published when a poll cycle finds the unit unreachable.
	ServiceTimeout = "TimeOut"

	// ServiceDown is published on graceful shutdown and registered as
	// the MQTT Last Will payload.
	ServiceDown = "Service Down"
)

// defaultPollInterval is used when Options leaves the interval unset.
const defaultPollInterval = 10 * time.Second

// MQTTClient is the pub/sub surface the bridge needs.
// Satisfied by *mqtt.Client; tests substitute a recorder.
type MQTTClient interface {
	// Publish sends a message to a topic.
	Publish(topic string, payload []byte, qos byte, retained bool) error

	// Subscribe registers a handler for a topic pattern.
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte) error) error

	// IsConnected returns true if connected to the broker.
	IsConnected() bool
}

// DeviceClient is the device transaction surface the bridge needs.
// Satisfied by *vento.Client; tests substitute a scripted fake.
type DeviceClient interface {
	// Query reads a full status snapshot.
	Query(ctx context.Context) (vento.Snapshot, error)

	// Set writes one parameter and returns the acknowledging snapshot.
	Set(ctx context.Context, p *vento.Parameter, value int) (vento.Snapshot, error)
}

// Logger interface for optional logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Stats holds bridge operation counters.
type Stats struct {
	StartedAt       time.Time
	CommandsHandled uint64
	CommandsFailed  uint64
	PollsTotal      uint64
	PollsFailed     uint64
	StatePublishes  uint64
	DeviceOnline    bool
	LastPollSuccess time.Time // zero until the first successful poll
}

// Options holds configuration for creating a Bridge.
type Options struct {
	// Mapper translates between topics and parameters. Required.
	Mapper *Mapper

	// MQTT is the broker connection. Required.
	MQTT MQTTClient

	// Device is the ventilation unit client. Required.
	Device DeviceClient

	// PollInterval is the status refresh period. Default: 10 seconds.
	PollInterval time.Duration

	// PublishUnchanged disables de-duplication of status publishes.
	PublishUnchanged bool

	// QoS is used for all bridge publishes and subscriptions.
	QoS byte

	// Logger is optional.
	Logger Logger
}

// Bridge coordinates the two concurrent activities of the protocol
// translation: the inbound command path (MQTT deliveries) and the
// periodic poll path (timer driven). Both funnel into the device client,
// whose transaction lock keeps the UDP conversation strictly
// request/reply.
//
// Thread Safety: all methods are safe for concurrent use.
type Bridge struct {
	mapper           *Mapper
	mqtt             MQTTClient
	device           DeviceClient
	pollInterval     time.Duration
	publishUnchanged bool
	qos              byte

	// lastPublished de-duplicates status publishes per parameter code.
	// This is the bridge's only state across cycles.
	lastPublished   map[byte]string
	lastPublishedMu sync.Mutex

	// Lifecycle coordination.
	ctx       context.Context
	ctxCancel context.CancelFunc
	wg        sync.WaitGroup
	started   atomic.Bool
	stopOnce  sync.Once

	// Statistics.
	startedAt       time.Time
	commandsHandled atomic.Uint64
	commandsFailed  atomic.Uint64
	pollsTotal      atomic.Uint64
	pollsFailed     atomic.Uint64
	statePublishes  atomic.Uint64
	deviceOnline    atomic.Bool
	lastPollSuccess atomic.Int64 // Unix seconds, 0 until first success

	logger Logger
}

// New creates a bridge. Call Start to begin operation.
func New(opts Options) (*Bridge, error) {
	if opts.Mapper == nil {
		return nil, errors.New("bridge: mapper is required")
	}
	if opts.MQTT == nil {
		return nil, errors.New("bridge: MQTT client is required")
	}
	if opts.Device == nil {
		return nil, errors.New("bridge: device client is required")
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Bridge{
		mapper:           opts.Mapper,
		mqtt:             opts.MQTT,
		device:           opts.Device,
		pollInterval:     opts.PollInterval,
		publishUnchanged: opts.PublishUnchanged,
		qos:              opts.QoS,
		lastPublished:    make(map[byte]string),
		ctx:              ctx,
		ctxCancel:        cancel,
		logger:           opts.Logger,
	}, nil
}

// Start subscribes to the command topics and launches the poll loop.
// The first poll runs immediately so retained state topics are populated
// right after startup.
func (b *Bridge) Start() error {
	if !b.started.CompareAndSwap(false, true) {
		return errors.New("bridge: already started")
	}
	b.startedAt = time.Now()

	filter := b.mapper.CommandFilter()
	if err := b.mqtt.Subscribe(filter, b.qos, b.handleCommand); err != nil {
		return fmt.Errorf("subscribe to commands: %w", err)
	}
	b.logInfo("subscribed to command topics", "filter", filter)

	b.wg.Add(1)
	go b.pollLoop()

	return nil
}

// Stop shuts the bridge down: the poll loop exits, any in-flight device
// wait is abandoned within its timeout budget, and the service topic
// announces the departure.
func (b *Bridge) Stop() error {
	if !b.started.Load() {
		return ErrNotRunning
	}

	b.stopOnce.Do(func() {
		b.ctxCancel()
		b.wg.Wait()
		b.publishService(ServiceDown)
		b.logInfo("bridge stopped")
	})
	return nil
}

// pollLoop drives the periodic status refresh.
func (b *Bridge) pollLoop() {
	defer b.wg.Done()

	b.poll()

	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.ctx.Done():
			return
		case <-ticker.C:
			b.poll()
		}
	}
}

// poll performs one status refresh cycle. A transient device outage
// skips the cycle; the bridge keeps running and retries next interval.
func (b *Bridge) poll() {
	b.pollsTotal.Add(1)

	snap, err := b.device.Query(b.ctx)
	if err != nil {
		if b.ctx.Err() != nil {
			return // shutting down
		}
		b.pollsFailed.Add(1)
		b.deviceOnline.Store(false)
		b.logWarn("poll cycle failed", "error", err)
		b.publishService(ServiceTimeout)
		return
	}

	b.deviceOnline.Store(true)
	b.lastPollSuccess.Store(time.Now().Unix())
	b.publishSnapshot(snap)
	b.publishService(ServiceOnline)
}

// handleCommand processes one inbound MQTT command message.
//
// Unrecognised topics are ignored silently so the bridge tolerates
// unrelated traffic under its base prefix. All failures are logged and
// produce no publish; a bad command never takes the bridge down.
func (b *Bridge) handleCommand(topic string, payload []byte) error {
	p := b.mapper.ParameterForCommandTopic(topic)
	if p == nil {
		b.logDebug("ignoring message on unrecognised topic", "topic", topic)
		return nil
	}

	value, err := b.mapper.DecodePayload(p, payload)
	if err != nil {
		b.commandsFailed.Add(1)
		b.logWarn("rejecting command", "topic", topic, "payload", string(payload), "error", err)
		return err
	}

	snap, err := b.applyWrite(p, value)
	if err != nil {
		b.commandsFailed.Add(1)
		b.logWarn("command failed", "parameter", p.Name, "value", value, "error", err)
		return err
	}

	b.commandsHandled.Add(1)
	b.logInfo("command applied", "parameter", p.Name, "value", value)

	// The write acknowledgment carries fresh values; publish them so the
	// state topics confirm the command without waiting for the next poll.
	b.publishSnapshot(snap)
	return nil
}

// applyWrite performs the device transaction for a decoded command.
//
// Toggle parameters (on/off) need special handling: the unit only flips
// its current state, so the bridge reads first and flips only when the
// desired state differs. Direct parameters are written as-is.
func (b *Bridge) applyWrite(p *vento.Parameter, value int) (vento.Snapshot, error) {
	if p.Mode != vento.WriteToggle {
		return b.device.Set(b.ctx, p, value)
	}

	snap, err := b.device.Query(b.ctx)
	if err != nil {
		return nil, err
	}
	if current, ok := snap.Value(p); ok && current == value {
		return snap, nil // already in the desired state
	}
	return b.device.Set(b.ctx, p, value)
}

// publishSnapshot publishes status topics for every parameter in the
// snapshot, de-duplicated against the last published value unless
// PublishUnchanged is set. Publishes are retained so late subscribers
// see current state.
func (b *Bridge) publishSnapshot(snap vento.Snapshot) {
	for _, p := range vento.Parameters() {
		value, ok := snap.Value(p)
		if !ok {
			continue
		}
		payload := b.mapper.EncodePayload(p, value)

		b.lastPublishedMu.Lock()
		unchanged := b.lastPublished[p.Code] == payload
		b.lastPublishedMu.Unlock()
		if unchanged && !b.publishUnchanged {
			continue
		}

		topic := b.mapper.StatusTopic(p)
		if err := b.mqtt.Publish(topic, []byte(payload), b.qos, true); err != nil {
			// Leave the cache untouched so the value is retried next cycle.
			b.logWarn("state publish failed", "topic", topic, "error", err)
			continue
		}
		b.statePublishes.Add(1)

		b.lastPublishedMu.Lock()
		b.lastPublished[p.Code] = payload
		b.lastPublishedMu.Unlock()
	}
}

// publishService publishes the bridge availability payload.
func (b *Bridge) publishService(payload string) {
	topic := b.mapper.ServiceTopic()
	if err := b.mqtt.Publish(topic, []byte(payload), b.qos, true); err != nil {
		b.logWarn("service publish failed", "topic", topic, "error", err)
	}
}

// Stats returns a snapshot of operation counters.
func (b *Bridge) Stats() Stats {
	s := Stats{
		StartedAt:       b.startedAt,
		CommandsHandled: b.commandsHandled.Load(),
		CommandsFailed:  b.commandsFailed.Load(),
		PollsTotal:      b.pollsTotal.Load(),
		PollsFailed:     b.pollsFailed.Load(),
		StatePublishes:  b.statePublishes.Load(),
		DeviceOnline:    b.deviceOnline.Load(),
	}
	if ts := b.lastPollSuccess.Load(); ts != 0 {
		s.LastPollSuccess = time.Unix(ts, 0)
	}
	return s
}

func (b *Bridge) logDebug(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Debug(msg, args...)
	}
}

func (b *Bridge) logInfo(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Info(msg, args...)
	}
}

func (b *Bridge) logWarn(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Warn(msg, args...)
	}
}
