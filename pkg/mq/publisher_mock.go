package mq

import (
	"context"
	"sync"

	"github.com/T3-Labs/edge-capture/pkg/buffer"
)

// PublishedFrame é o registro de uma publicação capturada pelo mock.
type PublishedFrame struct {
	CameraID string
	Payload  buffer.Buffer
}

// MockPublisher registra as publicações para os testes do pipeline. O
// payload é copiado na chamada: o contrato do Publisher é de empréstimo, e o
// chamador pode reciclar o buffer logo depois.
type MockPublisher struct {
	mu         sync.Mutex
	published  []PublishedFrame
	PublishErr error
	closed     bool
}

func (m *MockPublisher) Publish(ctx context.Context, cameraID string, frame *buffer.Buffer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.PublishErr != nil {
		return m.PublishErr
	}

	m.published = append(m.published, PublishedFrame{
		CameraID: cameraID,
		Payload:  buffer.NewCopy(frame.Data()),
	})
	return nil
}

func (m *MockPublisher) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *MockPublisher) Published() []PublishedFrame {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.published
}

func (m *MockPublisher) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
