package camera

import (
	"context"
	"sync"
	"time"

	"github.com/T3-Labs/edge-capture/pkg/logger"
	"github.com/T3-Labs/edge-capture/pkg/metrics"
)

const (
	// Falhas consecutivas até a câmera ser considerada inativa
	downAfterFailures = 3
	// Tempo sem captura que dispara o alerta de câmera estagnada
	staleAfter = 5 * time.Minute
)

// CameraHealth é o estado de saúde observado de uma câmera.
type CameraHealth struct {
	CameraID    string
	Active      bool
	LastSuccess time.Time
	Failures    int
	LastError   error
}

// Monitor acompanha a saúde das câmeras registradas. As capturas reportam
// sucesso e falha; o loop periódico resume o estado, exporta as métricas e
// dispara os callbacks de transição.
type Monitor struct {
	ctx      context.Context
	interval time.Duration

	mu      sync.RWMutex
	cameras map[string]*CameraHealth

	onCameraUp    func(CameraHealth)
	onCameraDown  func(CameraHealth)
	onAllInactive func()
}

func NewMonitor(ctx context.Context, interval time.Duration) *Monitor {
	return &Monitor{
		ctx:      ctx,
		interval: interval,
		cameras:  make(map[string]*CameraHealth),
	}
}

// OnCameraUp registra o callback disparado quando uma câmera inativa volta
// a capturar. Deve ser chamado antes de Start.
func (m *Monitor) OnCameraUp(fn func(CameraHealth)) { m.onCameraUp = fn }

// OnCameraDown registra o callback disparado quando uma câmera acumula
// falhas até ficar inativa.
func (m *Monitor) OnCameraDown(fn func(CameraHealth)) { m.onCameraDown = fn }

// OnAllInactive registra o callback disparado quando a última câmera ativa
// cai.
func (m *Monitor) OnAllInactive(fn func()) { m.onAllInactive = fn }

func (m *Monitor) RegisterCamera(cameraID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cameras[cameraID] = &CameraHealth{CameraID: cameraID}

	logger.Log.Infow("Câmera registrada no monitor",
		"camera_id", cameraID)
}

// RecordSuccess marca uma captura bem-sucedida. Se a câmera estava inativa,
// dispara o callback de recuperação.
func (m *Monitor) RecordSuccess(cameraID string) {
	m.mu.Lock()

	health, ok := m.cameras[cameraID]
	if !ok {
		m.mu.Unlock()
		return
	}

	wasInactive := !health.Active
	health.Active = true
	health.LastSuccess = time.Now()
	health.Failures = 0
	health.LastError = nil
	snapshot := *health

	metrics.LastSuccessfulCapture.WithLabelValues(cameraID).Set(float64(snapshot.LastSuccess.Unix()))
	metrics.CameraConnected.WithLabelValues(cameraID).Set(1)
	metrics.ActiveCamerasCount.Set(float64(m.activeCount()))

	m.mu.Unlock()

	if wasInactive && m.onCameraUp != nil {
		go m.onCameraUp(snapshot)
	}
}

// RecordFailure marca uma falha de captura. Depois de downAfterFailures
// falhas seguidas a câmera vira inativa e o callback de queda dispara.
func (m *Monitor) RecordFailure(cameraID string, err error) {
	m.mu.Lock()

	health, ok := m.cameras[cameraID]
	if !ok {
		m.mu.Unlock()
		return
	}

	wasActive := health.Active
	health.Failures++
	health.LastError = err

	wentDown := false
	if health.Failures >= downAfterFailures {
		health.Active = false
		metrics.CameraConnected.WithLabelValues(cameraID).Set(0)
		wentDown = wasActive
	}
	snapshot := *health

	active := m.activeCount()
	metrics.ActiveCamerasCount.Set(float64(active))

	m.mu.Unlock()

	if wentDown && m.onCameraDown != nil {
		go m.onCameraDown(snapshot)
	}
	if wentDown && active == 0 && m.onAllInactive != nil {
		go m.onAllInactive()
	}
}

// Health retorna o estado de uma câmera registrada.
func (m *Monitor) Health(cameraID string) (CameraHealth, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	health, ok := m.cameras[cameraID]
	if !ok {
		return CameraHealth{}, false
	}
	return *health, true
}

// Snapshot retorna o estado de todas as câmeras.
func (m *Monitor) Snapshot() []CameraHealth {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]CameraHealth, 0, len(m.cameras))
	for _, health := range m.cameras {
		all = append(all, *health)
	}
	return all
}

// activeCount exige m.mu.
func (m *Monitor) activeCount() int {
	n := 0
	for _, health := range m.cameras {
		if health.Active {
			n++
		}
	}
	return n
}

func (m *Monitor) Start() {
	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-m.ctx.Done():
				logger.Log.Info("Monitor de câmeras encerrado")
				return
			case <-ticker.C:
				m.summarize()
			}
		}
	}()
}

// summarize loga o resumo do período e alerta câmeras ativas que pararam de
// produzir frames.
func (m *Monitor) summarize() {
	all := m.Snapshot()
	if len(all) == 0 {
		return
	}

	active := 0
	for _, health := range all {
		if !health.Active {
			continue
		}
		active++

		if since := time.Since(health.LastSuccess); since > staleAfter {
			logger.Log.Warnw("Câmera ativa mas sem capturas recentes",
				"camera_id", health.CameraID,
				"time_since_capture", since.String())
		}
	}

	inactive := len(all) - active
	switch {
	case active == 0:
		logger.Log.Errorw("ALERTA: Nenhuma câmera ativa",
			"total_cameras", len(all))
	case inactive > 0:
		logger.Log.Warnw("Algumas câmeras estão inativas",
			"active_count", active,
			"inactive_count", inactive,
			"total_cameras", len(all))
	}

	logger.Log.Debugw("Status de câmeras",
		"active", active,
		"inactive", inactive,
		"total", len(all))
}
