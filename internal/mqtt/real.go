package mqtt

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/letterbox-robot/internal/logic"
)

// Defaults for Options.
const (
	DefaultClientID       = "letterbox-robot"
	DefaultBufferSize     = 100
	DefaultPublishTimeout = 5 * time.Second
)

// Options configures a RealPublisher.
type Options struct {
	Broker      string
	ClientID    string
	TopicPrefix string

	// BufferSize bounds the messages held while disconnected; the oldest
	// are dropped first.
	BufferSize     int
	PublishTimeout time.Duration

	Logger *slog.Logger

	// OnConnectionChange is called from the MQTT client's goroutines
	// whenever the connection comes up or is lost.
	OnConnectionChange func(connected bool)
}

// RealPublisher publishes to an actual MQTT broker. Messages published
// while the broker is unreachable are buffered and replayed in order on
// (re)connection.
type RealPublisher struct {
	client   paho.Client
	topics   Topics
	log      *slog.Logger
	timeout  time.Duration
	onChange func(bool)

	mu            sync.Mutex
	pending       *outbox
	everConnected bool

	cancel context.CancelFunc
	done   chan struct{}
}

func newPublisher(opts Options) *RealPublisher {
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultBufferSize
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = DefaultPublishTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &RealPublisher{
		topics:   NewTopics(opts.TopicPrefix),
		log:      logger.With("component", "mqtt", "broker", opts.Broker),
		timeout:  opts.PublishTimeout,
		onChange: opts.OnConnectionChange,
		pending:  newOutbox(opts.BufferSize),
	}
}

// NewRealPublisher creates a publisher and starts connecting to the broker
// in the background, retrying with exponential backoff until Close.
func NewRealPublisher(opts Options) *RealPublisher {
	p := newPublisher(opts)
	clientID := opts.ClientID
	if clientID == "" {
		clientID = DefaultClientID
	}

	will, _ := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	})

	co := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(time.Minute).
		SetBinaryWill(p.topics.System, will, 1, true).
		SetOnConnectHandler(func(paho.Client) { p.onConnect() }).
		SetConnectionLostHandler(func(_ paho.Client, err error) { p.onLost(err) })
	p.client = paho.NewClient(co)

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.connect(ctx)
	return p
}

func (p *RealPublisher) connect(ctx context.Context) {
	defer close(p.done)

	bo := backoff.NewExponentialBackOff()
	bo.MaxInterval = time.Minute
	bo.MaxElapsedTime = 0

	op := func() error {
		token := p.client.Connect()
		if !token.WaitTimeout(10 * time.Second) {
			return fmt.Errorf("connection timeout")
		}
		return token.Error()
	}
	notify := func(err error, next time.Duration) {
		p.log.Warn("connect failed", "err", err, "retry_in", next)
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(bo, ctx), notify); err != nil {
		p.log.Info("connect abandoned", "err", err)
	}
}

func (p *RealPublisher) onConnect() {
	p.mu.Lock()
	defer p.mu.Unlock()

	reconnect := p.everConnected
	p.everConnected = true
	p.log.Info("connected", "buffered", p.pending.len())
	if p.onChange != nil {
		p.onChange(true)
	}

	for _, m := range p.pending.flush() {
		if err := p.send(m); err != nil {
			p.log.Error("replay failed", "topic", m.topic, "err", err)
		}
	}

	if reconnect {
		payload, _ := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "RECONNECTED"})
		if err := p.send(message{topic: p.topics.System, payload: payload, qos: 1}); err != nil {
			p.log.Error("publish reconnected event failed", "err", err)
		}
	}
}

func (p *RealPublisher) onLost(err error) {
	p.log.Warn("connection lost", "err", err)
	if p.onChange != nil {
		p.onChange(false)
	}
}

// publish sends msg now, or buffers it while disconnected.
func (p *RealPublisher) publish(msg message) error {
	p.mu.Lock()
	if !p.client.IsConnectionOpen() {
		if p.pending.add(msg) {
			p.log.Warn("offline buffer full, dropping oldest", "capacity", p.pending.size())
		}
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()
	return p.send(msg)
}

func (p *RealPublisher) send(m message) error {
	token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("publish %s: timeout", m.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", m.topic, err)
	}
	return nil
}

// PublishSwitch sends a switch transition (QoS 0, not retained).
func (p *RealPublisher) PublishSwitch(event logic.SwitchEvent) error {
	payload, err := FormatSwitchPayload(event)
	if err != nil {
		return fmt.Errorf("format switch payload: %w", err)
	}
	return p.publish(message{topic: p.topics.Switch, payload: payload})
}

// PublishDoor sends a door notification (QoS 1, not retained).
func (p *RealPublisher) PublishDoor(event logic.DoorEvent) error {
	payload, err := FormatDoorPayload(event)
	if err != nil {
		return fmt.Errorf("format door payload: %w", err)
	}
	return p.publish(message{topic: p.topics.Door, payload: payload, qos: 1})
}

// PublishSystem sends a system lifecycle event (QoS 1).
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.publish(message{topic: p.topics.System, payload: payload, qos: 1, retained: event.Retained})
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close stops connection attempts and disconnects from the broker.
func (p *RealPublisher) Close() error {
	if p.cancel != nil {
		p.cancel()
		<-p.done
	}
	p.mu.Lock()
	if n := p.pending.len(); n > 0 {
		p.log.Warn("discarding unsent messages", "count", n)
	}
	p.mu.Unlock()
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
