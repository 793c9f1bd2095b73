package mqtt

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// DefaultBufferSize is the number of messages kept while disconnected.
const DefaultBufferSize = 100

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

// Options configures a RealPublisher.
type Options struct {
	Broker      string
	ClientID    string
	TopicPrefix string
	BufferSize  int
}

// RealPublisher publishes to an actual MQTT broker. Messages published while
// the connection is down are kept in a ring buffer and flushed, oldest first,
// when the client reconnects.
type RealPublisher struct {
	client paho.Client
	topics Topics
	logger *slog.Logger

	mu        sync.Mutex
	buf       *ringBuffer
	connected bool
	everUp    bool
}

// NewRealPublisher creates a publisher for the given broker. A broker that is
// not reachable yet is not an error: the client keeps retrying in the
// background and messages are buffered until it connects.
func NewRealPublisher(o Options, logger *slog.Logger) (*RealPublisher, error) {
	if o.Broker == "" {
		return nil, fmt.Errorf("mqtt broker not set")
	}
	if o.ClientID == "" {
		o.ClientID = "footctl"
	}
	if o.BufferSize <= 0 {
		o.BufferSize = DefaultBufferSize
	}
	p := &RealPublisher{
		topics: NewTopics(o.TopicPrefix),
		logger: logger,
		buf:    newRingBuffer(o.BufferSize),
	}

	will, err := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     EventShutdown,
		Reason:    "MQTT_DISCONNECT",
	})
	if err != nil {
		return nil, fmt.Errorf("format will payload: %w", err)
	}

	opts := paho.NewClientOptions().
		AddBroker(o.Broker).
		SetClientID(o.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(p.topics.System, string(will), 1, false).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(p.onConnectionLost)

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		logger.Warn("mqtt: broker not reachable yet, buffering", "broker", o.Broker)
		return p, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	return p, nil
}

func (p *RealPublisher) onConnect(c paho.Client) {
	p.mu.Lock()
	p.connected = true
	reconnect := p.everUp
	p.everUp = true
	dropped := p.buf.dropped
	pending := p.buf.drainAll()
	p.mu.Unlock()

	if dropped > 0 {
		p.logger.Warn("mqtt: buffer overflowed while disconnected", "dropped", dropped)
	}
	for _, m := range pending {
		if err := p.send(m); err != nil {
			p.logger.Warn("mqtt: flush failed", "topic", m.topic, "err", err)
		}
	}
	if len(pending) > 0 {
		p.logger.Info("mqtt: flushed buffered messages", "count", len(pending))
	}

	if reconnect {
		if err := p.PublishSystem(SystemEvent{Timestamp: time.Now(), Event: EventReconnected}); err != nil {
			p.logger.Warn("mqtt: publish reconnected failed", "err", err)
		}
	}
}

func (p *RealPublisher) onConnectionLost(_ paho.Client, err error) {
	p.mu.Lock()
	p.connected = false
	p.mu.Unlock()
	p.logger.Warn("mqtt: connection lost", "err", err)
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

func (p *RealPublisher) send(m bufferedMsg) error {
	token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

func (p *RealPublisher) publish(m bufferedMsg) error {
	p.mu.Lock()
	if !p.connected {
		p.buf.push(m)
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()
	return p.send(m)
}

// PublishDiagnostics sends an analog sample. QoS 0, not retained.
func (p *RealPublisher) PublishDiagnostics(d Diagnostics) error {
	payload, err := FormatDiagnosticsPayload(d)
	if err != nil {
		return fmt.Errorf("format diagnostics payload: %w", err)
	}
	return p.publish(bufferedMsg{topic: p.topics.Diagnostics, payload: payload})
}

// PublishConfig sends a saved switch configuration, retained so that a new
// subscriber sees the latest write.
func (p *RealPublisher) PublishConfig(c ConfigEvent) error {
	payload, err := FormatConfigPayload(c)
	if err != nil {
		return fmt.Errorf("format config payload: %w", err)
	}
	topic := fmt.Sprintf("%s/%d", p.topics.Config, c.Switch)
	return p.publish(bufferedMsg{topic: topic, payload: payload, qos: 1, retained: true})
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	// QoS 1 (at-least-once) for system events
	return p.publish(bufferedMsg{topic: p.topics.System, payload: payload, qos: 1, retained: event.Retained})
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
