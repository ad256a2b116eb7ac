package metadata

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/T3-Labs/edge-capture/pkg/buffer"
	"github.com/streadway/amqp"
)

type EventType string

const (
	EventTypeFrame        EventType = "frame"
	EventTypeCameraStatus EventType = "camera_status"
	EventTypeSystemStatus EventType = "system_status"
)

type CameraState string

const (
	CameraStateActive   CameraState = "active"
	CameraStateInactive CameraState = "inactive"
	CameraStateOffline  CameraState = "offline"
)

// Publisher anuncia eventos do pipeline (frame gravado, câmera caiu/voltou,
// resumo do sistema) num exchange de metadata separado do tráfego de frames.
type Publisher struct {
	channel    *amqp.Channel
	exchange   string
	routingKey string
	enabled    bool
}

func NewPublisher(ch *amqp.Channel, exchange, routingKey string, enabled bool) *Publisher {
	if enabled && ch != nil {
		// O exchange pode já existir; falhar aqui não derruba o serviço
		_ = ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil)
	}

	return &Publisher{
		channel:    ch,
		exchange:   exchange,
		routingKey: routingKey,
		enabled:    enabled,
	}
}

func (p *Publisher) Enabled() bool {
	return p.enabled
}

// FrameEvent anuncia um frame gravado no Redis. Consumidores buscam o frame
// bruto pela RedisKey; SizeBytes é o tamanho do payload publicado.
type FrameEvent struct {
	EventType EventType `json:"event_type"`
	CameraID  string    `json:"camera_id"`
	Timestamp time.Time `json:"timestamp"`
	RedisKey  string    `json:"redis_key,omitempty"`
	Width     int       `json:"width,omitempty"`
	Height    int       `json:"height,omitempty"`
	Encoding  string    `json:"encoding,omitempty"`
	SizeBytes int       `json:"size_bytes,omitempty"`
}

type CameraStatusEvent struct {
	EventType           EventType   `json:"event_type"`
	CameraID            string      `json:"camera_id"`
	Timestamp           time.Time   `json:"timestamp"`
	State               CameraState `json:"state"`
	ConsecutiveFailures int         `json:"consecutive_failures,omitempty"`
	LastError           string      `json:"last_error,omitempty"`
	Message             string      `json:"message,omitempty"`
}

type SystemStatusEvent struct {
	EventType       EventType `json:"event_type"`
	Timestamp       time.Time `json:"timestamp"`
	TotalCameras    int       `json:"total_cameras"`
	ActiveCameras   int       `json:"active_cameras"`
	InactiveCameras int       `json:"inactive_cameras"`
	Message         string    `json:"message"`
}

func (p *Publisher) publishJSON(routingKey string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	return p.channel.Publish(
		p.exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		})
}

// PublishFrame anuncia um frame gravado. O tamanho sai do próprio buffer do
// frame, que é emprestado só durante a chamada.
func (p *Publisher) PublishFrame(cameraID string, timestamp time.Time, redisKey string, width, height int, frame *buffer.Buffer, encoding string) error {
	if !p.enabled {
		return nil
	}

	return p.publishJSON(p.routingKey, FrameEvent{
		EventType: EventTypeFrame,
		CameraID:  cameraID,
		Timestamp: timestamp,
		RedisKey:  redisKey,
		Width:     width,
		Height:    height,
		Encoding:  encoding,
		SizeBytes: frame.Size(),
	})
}

// PublishCameraStatus anuncia transições de estado de uma câmera.
func (p *Publisher) PublishCameraStatus(cameraID string, state CameraState, consecutiveFailures int, lastError error, message string) error {
	if !p.enabled {
		return nil
	}

	event := CameraStatusEvent{
		EventType:           EventTypeCameraStatus,
		CameraID:            cameraID,
		Timestamp:           time.Now(),
		State:               state,
		ConsecutiveFailures: consecutiveFailures,
		Message:             message,
	}
	if lastError != nil {
		event.LastError = lastError.Error()
	}

	return p.publishJSON(p.routingKey+".status", event)
}

// PublishSystemStatus anuncia o resumo periódico de câmeras ativas/inativas.
func (p *Publisher) PublishSystemStatus(totalCameras, activeCameras, inactiveCameras int, message string) error {
	if !p.enabled {
		return nil
	}

	return p.publishJSON(p.routingKey+".system", SystemStatusEvent{
		EventType:       EventTypeSystemStatus,
		Timestamp:       time.Now(),
		TotalCameras:    totalCameras,
		ActiveCameras:   activeCameras,
		InactiveCameras: inactiveCameras,
		Message:         message,
	})
}
