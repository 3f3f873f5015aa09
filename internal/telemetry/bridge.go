package telemetry

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/ecobin-smart-trash-system/internal/metrics"
)

const publishTimeout = 5 * time.Second

type Config struct {
	Broker      string
	ClientID    string
	TopicPrefix string
	BinID       string
}

// Handler receives decoded signals. It runs on the MQTT client's callback
// goroutine, so it should not block for long.
type Handler func(Signal)

// Bridge subscribes to a bin's telemetry and event topics and forwards
// decoded signals to a Handler. It also sends lid commands.
type Bridge struct {
	client  mqtt.Client
	topics  Topics
	handler Handler
}

func NewBridge(cfg Config, h Handler) *Bridge {
	b := &Bridge{topics: TopicsFor(cfg.TopicPrefix, cfg.BinID), handler: h}

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "ecobin-" + uuid.NewString()[:8]
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetOnConnectHandler(b.onConnect).
		SetConnectionLostHandler(b.onConnectionLost)
	b.client = mqtt.NewClient(opts)
	return b
}

func (b *Bridge) Topics() Topics { return b.topics }

// Connect blocks until the first connection attempt completes.
func (b *Bridge) Connect() error {
	if token := b.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return nil
}

func (b *Bridge) Close() {
	b.client.Disconnect(250)
}

// SendLidCommand publishes OPEN or CLOSE on the control topic.
func (b *Bridge) SendLidCommand(open bool) error {
	cmd := CommandClose
	if open {
		cmd = CommandOpen
	}
	token := b.client.Publish(b.topics.Control, 0, false, cmd)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s: timed out", cmd)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", cmd, err)
	}
	return nil
}

// onConnect runs on every (re)connect; subscriptions are not persisted by
// the broker for clean sessions.
func (b *Bridge) onConnect(c mqtt.Client) {
	for _, topic := range []string{b.topics.Telemetry, b.topics.Event} {
		if token := c.Subscribe(topic, 0, b.onMessage); token.Wait() && token.Error() != nil {
			log.Error().Err(token.Error()).Str("topic", topic).Msg("subscribe failed")
			continue
		}
		log.Info().Str("topic", topic).Msg("subscribed")
	}
	b.handler(Signal{Kind: KindConnected})
}

func (b *Bridge) onConnectionLost(_ mqtt.Client, err error) {
	log.Warn().Err(err).Msg("mqtt connection lost")
	b.handler(Signal{Kind: KindDisconnected})
}

func (b *Bridge) onMessage(_ mqtt.Client, msg mqtt.Message) {
	kind := "event"
	if msg.Topic() == b.topics.Telemetry {
		kind = "telemetry"
	}
	signals, err := Decode(msg.Topic(), msg.Payload())
	if err != nil {
		metrics.MQTTMessages.WithLabelValues(kind, "rejected").Inc()
		log.Warn().Err(err).Str("topic", msg.Topic()).Msg("message rejected")
		return
	}
	metrics.MQTTMessages.WithLabelValues(kind, "ok").Inc()
	for _, s := range signals {
		b.handler(s)
	}
}
