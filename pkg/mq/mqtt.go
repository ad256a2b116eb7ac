package mq

import (
	"context"
	"fmt"

	"github.com/T3-Labs/edge-capture/pkg/buffer"
	"github.com/T3-Labs/edge-capture/pkg/logger"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTPublisher publica frames com QoS 1, para instalações sem RabbitMQ.
type MQTTPublisher struct {
	client      mqtt.Client
	topicPrefix string
}

func NewMQTTPublisher(broker, topicPrefix string) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetOrderMatters(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}

	logger.Log.Infow("Conectado ao broker MQTT", "broker", broker)
	return &MQTTPublisher{client: client, topicPrefix: topicPrefix}, nil
}

func (p *MQTTPublisher) Publish(ctx context.Context, cameraID string, frame *buffer.Buffer) error {
	token := p.client.Publish(p.topicPrefix+cameraID, 1, false, frame.Data())

	select {
	case <-token.Done():
		if token.Error() != nil {
			return fmt.Errorf("mqtt publish: %w", token.Error())
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *MQTTPublisher) Close() error {
	p.client.Disconnect(250)
	return nil
}
