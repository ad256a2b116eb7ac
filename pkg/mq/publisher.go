package mq

import (
	"context"

	"github.com/T3-Labs/edge-capture/pkg/buffer"
)

// Publisher publica o payload de um frame no broker configurado. O frame é
// emprestado ao publisher só durante a chamada; nenhuma referência ao
// storage pode sobreviver ao retorno.
type Publisher interface {
	Publish(ctx context.Context, cameraID string, frame *buffer.Buffer) error
	Close() error
}
