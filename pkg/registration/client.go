package registration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/T3-Labs/edge-capture/pkg/config"
	"github.com/T3-Labs/edge-capture/pkg/logger"
)

const retryInterval = time.Minute

// Payload é o corpo enviado à API central: quais câmeras este edge publica
// e por qual exchange/vhost os consumidores devem assinar.
type Payload struct {
	Cameras     []CameraInfo `json:"cameras"`
	Namespace   string       `json:"namespace"`
	RabbitMQURL string       `json:"rabbitmq_url"`
	RoutingKey  string       `json:"routing_key"`
	Exchange    string       `json:"exchange"`
	Vhost       string       `json:"vhost"`
}

type CameraInfo struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Client registra este edge na API central de provisionamento.
type Client struct {
	apiURL     string
	httpClient *http.Client
	enabled    bool
}

func NewClient(apiURL string, enabled bool) *Client {
	return &Client{
		apiURL:  apiURL,
		enabled: enabled,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func buildPayload(cfg *config.Config, vhost string) Payload {
	cameras := make([]CameraInfo, len(cfg.Cameras))
	for i, cam := range cfg.Cameras {
		cameras[i] = CameraInfo{ID: cam.ID, URL: cam.URL}
	}

	return Payload{
		Cameras:     cameras,
		Namespace:   vhost,
		RabbitMQURL: cfg.AMQP.AmqpURL,
		RoutingKey:  cfg.AMQP.RoutingKeyPrefix,
		Exchange:    cfg.AMQP.Exchange,
		Vhost:       vhost,
	}
}

// Register envia o registro uma vez. Com o cliente desabilitado é um no-op.
func (c *Client) Register(ctx context.Context, cfg *config.Config, vhost string) error {
	if !c.enabled {
		return nil
	}
	if c.apiURL == "" {
		return fmt.Errorf("api de registro sem URL configurada")
	}

	body, err := json.Marshal(buildPayload(cfg, vhost))
	if err != nil {
		return fmt.Errorf("marshal registro: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("montar request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("enviar registro: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("registro rejeitado: status %d", resp.StatusCode)
	}

	logger.Log.Infow("Edge registrado na API",
		"api_url", c.apiURL,
		"vhost", vhost,
		"cameras_count", len(cfg.Cameras))

	return nil
}

// RegisterWithRetry insiste no registro até conseguir ou o context acabar.
// Bloqueia; o chamador decide a goroutine.
func (c *Client) RegisterWithRetry(ctx context.Context, cfg *config.Config, vhost string) {
	if !c.enabled {
		return
	}

	retry := time.NewTicker(retryInterval)
	defer retry.Stop()

	for {
		err := c.Register(ctx, cfg, vhost)
		if err == nil {
			return
		}

		logger.Log.Warnw("Registro na API falhou, nova tentativa em 1 minuto",
			"error", err,
			"api_url", c.apiURL)

		select {
		case <-ctx.Done():
			logger.Log.Info("Retry de registro cancelado")
			return
		case <-retry.C:
		}
	}
}
