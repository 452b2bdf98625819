package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/bms12v/core/events"
	"github.com/kilianp07/bms12v/core/model"
	coremon "github.com/kilianp07/bms12v/core/monitoring"
	"github.com/kilianp07/bms12v/core/session"
	"github.com/kilianp07/bms12v/infra/logger"
)

// Topic suffixes below the configured prefix.
const (
	TopicState        = "state"
	TopicRationale    = "rationale"
	TopicAvailability = "availability"
	TopicSetPrefix    = "set/"

	PayloadOnline  = "online"
	PayloadOffline = "offline"
)

// Controller applies operator updates to a session.
type Controller interface {
	Apply(u session.Update) ([]session.Change, error)
}

// EventSource is the subscription side of the session bus.
type EventSource interface {
	Subscribe() <-chan events.Event
	Unsubscribe(<-chan events.Event)
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// Bridge publishes session state to an MQTT broker and feeds operator
// commands received on <prefix>/set/# back into the session.
type Bridge struct {
	cfg     Config
	cli     pahoClient
	ctrl    Controller
	log     logger.Logger
	timeout time.Duration

	mu        sync.Mutex
	onApplied func([]session.Change)
}

// NewBridge connects to the broker and subscribes to the command topics.
// Commands are applied through ctrl.
func NewBridge(cfg Config, ctrl Controller) (*Bridge, error) {
	cfg.SetDefaults()
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	b := &Bridge{
		cfg:     cfg,
		ctrl:    ctrl,
		log:     logger.New("mqtt_bridge"),
		timeout: cfg.connectTimeout(),
	}

	opts.SetOnConnectHandler(func(c paho.Client) {
		b.log.Infof("MQTT connected to %s", cfg.Broker)
		b.onConnect(c)
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		b.log.Errorf("connection lost: %v", err)
	})
	opts.SetReconnectingHandler(func(_ paho.Client, _ *paho.ClientOptions) {
		b.log.Warnf("reconnecting to MQTT broker")
	})

	c := newMQTTClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(b.timeout) {
		return nil, fmt.Errorf("mqtt: connect to %s timed out", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt: connect: %w", err)
	}
	b.cli = c
	return b, nil
}

// subscriber is the part of paho.Client used on (re)connect.
type subscriber interface {
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

func (b *Bridge) onConnect(c subscriber) {
	topic := b.cfg.Topic(TopicSetPrefix + "#")
	if token := c.Subscribe(topic, b.cfg.QoS, b.handleMessage); token.Wait() && token.Error() != nil {
		b.log.Errorf("subscribe %s: %v", topic, token.Error())
		coremon.CaptureException(token.Error(), map[string]string{"module": "mqtt", "topic": topic})
	}
	avail := b.cfg.Topic(TopicAvailability)
	if token := c.Publish(avail, b.cfg.QoS, true, PayloadOnline); token.Wait() && token.Error() != nil {
		b.log.Errorf("publish %s: %v", avail, token.Error())
	}
}

// OnApplied registers fn to receive the changes of each accepted command.
func (b *Bridge) OnApplied(fn func([]session.Change)) {
	b.mu.Lock()
	b.onApplied = fn
	b.mu.Unlock()
}

func (b *Bridge) handleMessage(_ paho.Client, msg paho.Message) {
	b.HandleCommand(msg.Topic(), msg.Payload())
}

// HandleCommand parses and applies one command. Invalid commands are logged
// and dropped without touching the session.
func (b *Bridge) HandleCommand(topic string, payload []byte) {
	u, err := ParseCommand(b.cfg.TopicPrefix, topic, payload)
	if err != nil {
		b.log.Warnf("dropping command on %s: %v", topic, err)
		return
	}
	changes, err := b.ctrl.Apply(u)
	if err != nil {
		b.log.Warnf("rejected command on %s: %v", topic, err)
		return
	}
	b.log.Debugw("command applied", map[string]any{"topic": topic, "payload": string(payload)})
	b.mu.Lock()
	fn := b.onApplied
	b.mu.Unlock()
	if fn != nil {
		fn(changes)
	}
}

type rationaleMessage struct {
	ID       uint64         `json:"id"`
	Severity model.Severity `json:"severity"`
	Text     string         `json:"text"`
	Seq      uint64         `json:"seq"`
	Time     time.Time      `json:"time"`
}

// PublishTick publishes the retained state snapshot and, when the tick
// appended a rationale entry, the new entry.
func (b *Bridge) PublishTick(res session.TickResult) error {
	snap := model.NewSnapshot(res.Telemetry, res.VehicleMode, res.Decision.Mode, res.Decision.Contactor, res.Faults)
	if err := b.publishJSON(TopicState, true, snap); err != nil {
		return err
	}
	if !res.Appended {
		return nil
	}
	return b.publishJSON(TopicRationale, false, rationaleMessage{
		ID:       res.LogHead.ID,
		Severity: res.LogHead.Severity,
		Text:     res.LogHead.Text,
		Seq:      res.Seq,
		Time:     res.Time,
	})
}

func (b *Bridge) publishJSON(suffix string, retained bool, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	topic := b.cfg.Topic(suffix)
	token := b.cli.Publish(topic, b.cfg.QoS, retained, payload)
	if !token.WaitTimeout(b.timeout) {
		err = fmt.Errorf("mqtt: publish %s timed out", topic)
	} else {
		err = token.Error()
	}
	if err != nil {
		coremon.CaptureException(err, map[string]string{"module": "mqtt", "topic": topic})
		return err
	}
	return nil
}

// Run publishes every tick event from src until ctx is cancelled or the bus
// is closed.
func (b *Bridge) Run(ctx context.Context, src EventSource) error {
	defer coremon.Recover()
	sub := src.Subscribe()
	defer src.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-sub:
			if !ok {
				return nil
			}
			tick, isTick := ev.(events.TickEvent)
			if !isTick {
				continue
			}
			if err := b.PublishTick(tick.Result); err != nil {
				b.log.Errorf("publish tick %d: %v", tick.Result.Seq, err)
			}
		}
	}
}

// Close marks the bridge offline and disconnects.
func (b *Bridge) Close() {
	if b.cli == nil || !b.cli.IsConnected() {
		return
	}
	token := b.cli.Publish(b.cfg.Topic(TopicAvailability), b.cfg.QoS, true, PayloadOffline)
	token.WaitTimeout(time.Second)
	b.cli.Disconnect(250)
}
