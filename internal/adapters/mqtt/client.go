// Package mqtt adapts the Eclipse Paho client to the transport port: it owns
// the broker connection, subscribes the value-log topic filters, and delivers
// every message to the handler on a single dispatch goroutine in arrival
// order.
package mqtt

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/marvin21/MBP/internal/ports"
)

// Config captures the runtime details required to open a broker session.
type Config struct {
	BrokerURL      string        `yaml:"broker_url"`
	ClientID       string        `yaml:"client_id"`
	Username       string        `yaml:"username"`
	Password       string        `yaml:"password"`
	QoS            byte          `yaml:"qos"`
	Topics         []string      `yaml:"topics"`
	QueueCapacity  int           `yaml:"queue_capacity"`
	OnQueueFull    string        `yaml:"on_queue_full"` // "block", "drop"
	IdleSleep      time.Duration `yaml:"idle_sleep"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

func (c *Config) ApplyDefaults() {
	if c.ClientID == "" {
		// Brokers kick duplicate client ids, so each default session gets a
		// unique one.
		c.ClientID = "mbp-test-bench-" + uuid.NewString()[:8]
	}
	if len(c.Topics) == 0 {
		c.Topics = []string{"device/#", "sensor/#", "actuator/#", "monitoring/#"}
	}
	if c.QueueCapacity <= 0 {
		c.QueueCapacity = 10_000
	}
	if c.OnQueueFull == "" {
		c.OnQueueFull = "block"
	}
	if c.IdleSleep <= 0 {
		c.IdleSleep = 5 * time.Millisecond
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 10 * time.Second
	}
}

func (c *Config) Validate() error {
	if c.BrokerURL == "" {
		return errors.New("broker_url is required")
	}
	switch c.OnQueueFull {
	case "block", "drop":
	default:
		return fmt.Errorf("on_queue_full %q is not a valid policy", c.OnQueueFull)
	}
	return nil
}

type Client struct {
	cfg    Config
	queue  ports.MessageQueue
	obs    ports.Observability
	client pahomqtt.Client

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

func NewClient(cfg Config, q ports.MessageQueue, obs ports.Observability) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Client{cfg: cfg, queue: q, obs: obs}, nil
}

// Start connects to the broker, subscribes the configured topic filters and
// spawns the dispatch goroutine. Deliveries flow through the bounded queue so
// a slow handler backpressures the broker callback instead of growing
// memory without bound.
func (c *Client) Start(h ports.MessageHandler) error {
	if h == nil {
		return errors.New("mqtt: handler is required")
	}

	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return errors.New("mqtt client already started")
	}
	c.mu.Unlock()

	opts := pahomqtt.NewClientOptions().
		AddBroker(c.cfg.BrokerURL).
		SetClientID(c.cfg.ClientID).
		SetAutoReconnect(true).
		SetOrderMatters(true).
		SetConnectTimeout(c.cfg.ConnectTimeout).
		SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
			h.HandleConnectionLost(err)
		})
	if c.cfg.Username != "" {
		opts.SetUsername(c.cfg.Username)
		opts.SetPassword(c.cfg.Password)
	}

	client := pahomqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt connect %s: %w", c.cfg.BrokerURL, token.Error())
	}

	for _, topic := range c.cfg.Topics {
		token := client.Subscribe(topic, c.cfg.QoS, func(_ pahomqtt.Client, m pahomqtt.Message) {
			c.enqueue(ports.InboundMessage{Topic: m.Topic(), Payload: m.Payload(), QoS: m.Qos()})
		})
		if token.Wait() && token.Error() != nil {
			client.Disconnect(250)
			return fmt.Errorf("mqtt subscribe %q: %w", topic, token.Error())
		}
	}

	ctx, cancel := context.WithCancel(context.Background())

	c.mu.Lock()
	c.client = client
	c.cancel = cancel
	c.started = true
	c.mu.Unlock()

	c.wg.Add(1)
	go c.dispatch(ctx, h)
	return nil
}

// Stop drains the connection and waits for the dispatch goroutine to exit.
func (c *Client) Stop() error {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return nil
	}
	cancel := c.cancel
	client := c.client
	c.started = false
	c.cancel = nil
	c.client = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if client != nil {
		client.Disconnect(250)
	}
	c.wg.Wait()
	return nil
}

// enqueue applies the on-full policy: "block" waits for the dispatch
// goroutine to catch up, "drop" discards the message and counts it.
func (c *Client) enqueue(m ports.InboundMessage) {
	for {
		if c.queue.Enqueue(m) {
			return
		}
		switch c.cfg.OnQueueFull {
		case "block":
			time.Sleep(c.cfg.IdleSleep)
		default:
			c.obs.IncCounter("mbp_queue_dropped_total", 1)
			c.obs.LogError("queue_full_drop",
				fmt.Errorf("inbound queue exceeded capacity %d", c.cfg.QueueCapacity),
				ports.Field{Key: "topic", Value: m.Topic})
			return
		}
	}
}

// dispatch is the single delivery goroutine: one message at a time, in
// arrival order. Handler errors are the handler's to report; the loop only
// keeps the queue moving.
func (c *Client) dispatch(ctx context.Context, h ports.MessageHandler) {
	defer c.wg.Done()

	for {
		m, ok := c.queue.Dequeue()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.cfg.IdleSleep):
			}
			continue
		}
		c.obs.SetGauge("mbp_queue_length", float64(c.queue.Len()))
		start := time.Now()
		_ = h.HandleMessage(m.Topic, m.Payload, m.QoS)
		c.obs.ObserveLatency("mbp_dispatch_seconds", time.Since(start).Seconds())
	}
}

var _ ports.Transport = (*Client)(nil)
