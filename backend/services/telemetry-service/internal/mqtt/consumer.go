package mqtt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"fleetconsole/backend/libs/telemetry/models"
	"fleetconsole/backend/services/telemetry-service/internal/service"
)

// PositionsTopic is the subscription filter; the second level is the device id.
const PositionsTopic = "fleet/devices/+/positions"

// Acceptor validates and dispatches decoded positions.
type Acceptor interface {
	Accept(boundDevice string, inputs []service.PositionInput) ([]models.PositionSample, error)
}

// Options describes the broker connection.
type Options struct {
	Broker   string
	ClientID string
	Username string
	Password string
	QoS      byte
}

// Consumer ingests positions published by devices over MQTT.
type Consumer struct {
	opts     Options
	client   paho.Client
	acceptor Acceptor
	logger   *zap.Logger
}

// NewConsumer builds consumer; Start connects.
func NewConsumer(opts Options, acceptor Acceptor, logger *zap.Logger) *Consumer {
	if opts.ClientID == "" {
		opts.ClientID = "telemetry-service"
	}
	return &Consumer{opts: opts, acceptor: acceptor, logger: logger}
}

// Start connects to the broker and subscribes to device positions.
func (c *Consumer) Start() error {
	clientOpts := paho.NewClientOptions()
	clientOpts.AddBroker(c.opts.Broker)
	clientOpts.SetClientID(c.opts.ClientID)
	if c.opts.Username != "" {
		clientOpts.SetUsername(c.opts.Username)
	}
	if c.opts.Password != "" {
		clientOpts.SetPassword(c.opts.Password)
	}
	clientOpts.SetAutoReconnect(true)
	clientOpts.SetCleanSession(true)
	clientOpts.SetConnectTimeout(10 * time.Second)
	clientOpts.SetOnConnectHandler(func(client paho.Client) {
		// Resubscribe after every reconnect; clean sessions drop subscriptions.
		token := client.Subscribe(PositionsTopic, c.opts.QoS, c.onMessage)
		if token.Wait() && token.Error() != nil {
			c.logger.Error("mqtt subscribe failed", zap.String("topic", PositionsTopic), zap.Error(token.Error()))
			return
		}
		c.logger.Info("mqtt subscribed", zap.String("topic", PositionsTopic))
	})
	clientOpts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		c.logger.Warn("mqtt connection lost", zap.Error(err))
	})

	c.client = paho.NewClient(clientOpts)
	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("connect to mqtt broker: %w", token.Error())
	}
	return nil
}

// Stop disconnects from the broker.
func (c *Consumer) Stop() {
	if c.client != nil && c.client.IsConnected() {
		c.client.Disconnect(250)
	}
}

func (c *Consumer) onMessage(_ paho.Client, msg paho.Message) {
	if err := c.HandleMessage(msg.Topic(), msg.Payload()); err != nil {
		c.logger.Warn("rejected mqtt position", zap.String("topic", msg.Topic()), zap.Error(err))
	}
}

// HandleMessage ingests one payload. The device in the topic wins over the payload.
func (c *Consumer) HandleMessage(topic string, payload []byte) error {
	deviceID, ok := DeviceFromTopic(topic)
	if !ok {
		return errors.New("unexpected topic")
	}
	inputs, err := service.DecodePositions(payload)
	if err != nil {
		return err
	}
	for i := range inputs {
		inputs[i].DeviceID = deviceID
	}
	_, err = c.acceptor.Accept(deviceID, inputs)
	return err
}

// DeviceFromTopic extracts the device id from fleet/devices/{id}/positions.
func DeviceFromTopic(topic string) (string, bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[0] != "fleet" || parts[1] != "devices" || parts[3] != "positions" {
		return "", false
	}
	if parts[2] == "" || parts[2] == "+" || parts[2] == "#" {
		return "", false
	}
	return parts[2], true
}
