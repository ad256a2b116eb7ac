package mq

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/T3-Labs/edge-capture/pkg/buffer"
	"github.com/T3-Labs/edge-capture/pkg/logger"
	"github.com/streadway/amqp"
)

const (
	connectAttempts  = 10
	connectBackoff   = 5 * time.Second
	amqpContentType  = "application/octet-stream"
	amqpExchangeKind = "topic"
)

// AMQPPublisher publica frames num exchange topic do RabbitMQ. A routing key
// é prefixo + camera_id, então os consumidores assinam por câmera.
type AMQPPublisher struct {
	amqpURL          string
	exchange         string
	routingKeyPrefix string

	conn    *amqp.Connection
	channel *amqp.Channel
}

func NewAMQPPublisher(amqpURL, exchange, routingKeyPrefix string) (*AMQPPublisher, error) {
	p := &AMQPPublisher{
		amqpURL:          amqpURL,
		exchange:         exchange,
		routingKeyPrefix: routingKeyPrefix,
	}

	var err error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		if err = p.connect(); err == nil {
			logger.Log.Infow("Conectado ao RabbitMQ", "exchange", exchange)
			return p, nil
		}
		logger.Log.Warnw("Conexão ao RabbitMQ falhou",
			"attempt", attempt,
			"max_attempts", connectAttempts,
			"error", err)
		time.Sleep(connectBackoff)
	}

	return nil, fmt.Errorf("rabbitmq indisponível após %d tentativas: %w", connectAttempts, err)
}

func (p *AMQPPublisher) connect() error {
	conn, err := amqp.Dial(p.amqpURL)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("channel: %w", err)
	}

	err = ch.ExchangeDeclare(p.exchange, amqpExchangeKind, true, false, false, false, nil)
	if err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("exchange declare: %w", err)
	}

	p.conn = conn
	p.channel = ch
	return nil
}

// Publish envia o conteúdo do frame como corpo binário. O tamanho vai num
// header para os consumidores poderem filtrar sem materializar o corpo.
func (p *AMQPPublisher) Publish(ctx context.Context, cameraID string, frame *buffer.Buffer) error {
	err := p.channel.Publish(
		p.exchange,
		p.routingKeyPrefix+cameraID,
		false,
		false,
		amqp.Publishing{
			ContentType: amqpContentType,
			Body:        frame.Data(),
			Timestamp:   time.Now(),
			Headers: amqp.Table{
				"camera_id":  cameraID,
				"size_bytes": int64(frame.Size()),
			},
		})
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// GetChannel expõe o canal para quem publica noutros exchanges pela mesma
// conexão (metadata).
func (p *AMQPPublisher) GetChannel() *amqp.Channel {
	return p.channel
}

// ExtractVhostFromURL extrai o vhost de uma URL AMQP. Sem path na URL, o
// vhost é o default "/".
func ExtractVhostFromURL(amqpURL string) (string, error) {
	parsed, err := url.Parse(amqpURL)
	if err != nil {
		return "", fmt.Errorf("url amqp inválida: %w", err)
	}

	vhost := strings.TrimPrefix(parsed.Path, "/")
	if vhost == "" {
		return "/", nil
	}
	return vhost, nil
}
